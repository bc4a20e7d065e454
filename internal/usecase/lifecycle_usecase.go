package usecase

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/internal/domain/service"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
)

const (
	OpCreate  = "create_lost_report"
	OpConfirm = "confirm_found"
	OpDelete  = "delete_report"

	sniffLen = 3072
)

// LifecycleUseCase moves reports through lost -> found, and deletes them.
type LifecycleUseCase struct {
	reportRepo    repository.ReportRepository
	images        service.ImageUploader
	metrics       LifecycleMetrics
	maxPhotoBytes int64
	now           func() time.Time
}

func NewLifecycleUseCase(
	reportRepo repository.ReportRepository,
	images service.ImageUploader,
	metrics LifecycleMetrics,
	maxPhotoBytes int64,
) *LifecycleUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &LifecycleUseCase{
		reportRepo:    reportRepo,
		images:        images,
		metrics:       metrics,
		maxPhotoBytes: maxPhotoBytes,
		now:           time.Now,
	}
}

type CreateReportInput struct {
	ItemName    string
	Category    string
	Description string
	Photo       *service.Photo
}

func (uc *LifecycleUseCase) CreateLostReport(ctx context.Context, input CreateReportInput) (id string, err error) {
	defer func() { uc.metrics.ObserveLifecycle(OpCreate, err) }()

	input.ItemName = strings.TrimSpace(input.ItemName)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)

	switch {
	case input.ItemName == "":
		return "", errors.Validation("itemName is required")
	case input.Category == "":
		return "", errors.Validation("category is required")
	case input.Description == "":
		return "", errors.Validation("description is required")
	case input.Photo == nil || input.Photo.Content == nil:
		return "", errors.Validation("photo is required")
	}
	if uc.maxPhotoBytes > 0 && input.Photo.Size > uc.maxPhotoBytes {
		return "", errors.Validation(fmt.Sprintf("photo exceeds maximum size of %d bytes", uc.maxPhotoBytes))
	}
	if err := sniffImage(input.Photo); err != nil {
		return "", err
	}

	img, err := uc.images.Upload(ctx, input.Photo)
	if err != nil {
		logger.Error("Photo upload failed for %q: %v", input.ItemName, err)
		return "", errors.UploadFailed(err)
	}

	report := &entity.Report{
		ItemName:    input.ItemName,
		Category:    input.Category,
		Description: input.Description,
		PhotoURL:    img.URL,
		CreatedAt:   uc.now().UTC(),
	}

	id, err = uc.reportRepo.Create(ctx, entity.StageLost, report)
	if err != nil {
		// The uploaded photo is left in place; nothing references it.
		logger.Warn("Report save failed, photo %s is orphaned: %v", img.URL, err)
		return "", storeFailure("Failed to save report", err)
	}

	logger.Info("Lost report %s created for %q", id, report.ItemName)
	return id, nil
}

// ConfirmFound copies report into found_items, stamped with the acting admin,
// and then deletes the original. The insert always comes first: if the delete
// fails the report shows up in both stages rather than in neither, and the new
// id is returned together with the error.
func (uc *LifecycleUseCase) ConfirmFound(ctx context.Context, session *Session, report *entity.Report) (newID string, err error) {
	defer func() { uc.metrics.ObserveLifecycle(OpConfirm, err) }()

	if err := requireAdmin(session); err != nil {
		return "", err
	}
	if report == nil || report.ID == "" {
		return "", errors.Validation("report id is required")
	}

	source := report.Stage
	if source == "" {
		source = entity.StageLost
	}
	if source != entity.StageLost {
		return "", errors.Validation(fmt.Sprintf("only reports in %s can be confirmed", entity.StageLost))
	}

	confirmedAt := uc.now().UTC()
	if !confirmedAt.After(report.CreatedAt) {
		confirmedAt = report.CreatedAt.Add(time.Microsecond)
	}

	moved := report.Clone()
	moved.ID = ""
	moved.Stage = entity.StageFound
	moved.ConfirmedAt = &confirmedAt
	moved.ConfirmedBy = session.UID()

	newID, err = uc.reportRepo.Create(ctx, entity.StageFound, moved)
	if err != nil {
		return "", storeFailure("Failed to confirm report", err)
	}

	if err := uc.reportRepo.Delete(ctx, source, report.ID); err != nil {
		logger.Error("Report %s copied to %s as %s but still in %s: %v", report.ID, entity.StageFound, newID, source, err)
		if errors.Is(err, errors.CodeNotFound) {
			return newID, err
		}
		return newID, storeFailure(fmt.Sprintf("Report confirmed as %s but could not be removed from %s", newID, source), err)
	}

	logger.Info("Report %s confirmed found by %s as %s", report.ID, session.UID(), newID)
	return newID, nil
}

// ConfirmFoundByID loads a lost report by id and confirms it.
func (uc *LifecycleUseCase) ConfirmFoundByID(ctx context.Context, session *Session, id string) (string, error) {
	if err := requireAdmin(session); err != nil {
		uc.metrics.ObserveLifecycle(OpConfirm, err)
		return "", err
	}

	report, err := uc.reportRepo.Get(ctx, entity.StageLost, id)
	if err != nil {
		uc.metrics.ObserveLifecycle(OpConfirm, err)
		return "", err
	}
	return uc.ConfirmFound(ctx, session, report)
}

func (uc *LifecycleUseCase) DeleteReport(ctx context.Context, session *Session, collection, id string) (err error) {
	defer func() { uc.metrics.ObserveLifecycle(OpDelete, err) }()

	if err := requireAdmin(session); err != nil {
		return err
	}
	stage, ok := entity.ParseStage(collection)
	if !ok {
		return errors.Validation(fmt.Sprintf("unknown collection %q", collection))
	}
	if id == "" {
		return errors.Validation("report id is required")
	}

	if err := uc.reportRepo.Delete(ctx, stage, id); err != nil {
		return err
	}

	logger.Info("Report %s deleted from %s by %s", id, stage, session.UID())
	return nil
}

func (uc *LifecycleUseCase) ListReports(ctx context.Context, collection string) ([]*entity.Report, error) {
	stage, ok := entity.ParseStage(collection)
	if !ok {
		return nil, errors.Validation(fmt.Sprintf("unknown collection %q", collection))
	}
	return uc.reportRepo.List(ctx, stage)
}

// Unsubscribe ends a subscription. It is safe to call more than once.
type Unsubscribe func()

type subscription struct {
	mu       sync.Mutex
	stopped  bool
	onUpdate func([]*entity.Report)
}

func (s *subscription) deliver(reports []*entity.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.onUpdate(reports)
}

// stop waits for an in-flight delivery to finish.
func (s *subscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// SubscribeReports calls onUpdate with the current contents of collection
// before returning, then again after every change, until the returned
// Unsubscribe is called or ctx is done. onUpdate must not call Unsubscribe
// itself. If the subscription cannot be set up the failure is logged and nil
// is returned.
func (uc *LifecycleUseCase) SubscribeReports(ctx context.Context, collection string, onUpdate func([]*entity.Report)) Unsubscribe {
	stage, ok := entity.ParseStage(collection)
	if !ok {
		logger.Error("Cannot subscribe to unknown collection %q", collection)
		return nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{onUpdate: onUpdate}

	onError := func(err error) {
		logger.Warn("Subscription to %s skipped a change: %v", stage, err)
	}

	if err := uc.reportRepo.Watch(subCtx, stage, sub.deliver, onError); err != nil {
		cancel()
		logger.Error("Failed to subscribe to %s: %v", stage, err)
		return nil
	}
	uc.metrics.SubscriptionOpened()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.stop()
			cancel()
			uc.metrics.SubscriptionClosed()
		})
	}
}

// sniffImage checks the photo's leading bytes and records the detected type.
func sniffImage(photo *service.Photo) error {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(photo.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return errors.Validation("photo could not be read")
	}
	head = head[:n]
	if n == 0 {
		return errors.Validation("photo is empty")
	}

	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return errors.Validation(fmt.Sprintf("photo must be an image, got %s", mtype.String()))
	}

	photo.ContentType = mtype.String()
	photo.Content = io.MultiReader(bytes.NewReader(head), photo.Content)
	return nil
}

// storeFailure rewraps a repository error under message, keeping the
// provider's text. Non-store errors such as NOT_FOUND pass through.
func storeFailure(message string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if appErr.Code != errors.CodeStore {
			return appErr
		}
		if appErr.Err != nil {
			err = appErr.Err
		}
	}
	return errors.Store(message, err)
}
