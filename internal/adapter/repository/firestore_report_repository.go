package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/pkg/errors"
	"lostfound/pkg/logger"
)

type firestoreReportRepository struct {
	client *firestore.Client
}

func NewFirestoreReportRepository(client *firestore.Client) repository.ReportRepository {
	return &firestoreReportRepository{
		client: client,
	}
}

func (r *firestoreReportRepository) Create(ctx context.Context, stage entity.Stage, report *entity.Report) (string, error) {
	doc := r.client.Collection(stage.Collection()).NewDoc()

	data := report.Clone()
	data.Status = stage.Status()

	if _, err := doc.Create(ctx, data); err != nil {
		return "", errors.FromStore("Report", "create", err)
	}

	logger.Debug("Report %s created in %s", doc.ID, stage)
	return doc.ID, nil
}

func (r *firestoreReportRepository) Get(ctx context.Context, stage entity.Stage, id string) (*entity.Report, error) {
	doc, err := r.client.Collection(stage.Collection()).Doc(id).Get(ctx)
	if err != nil {
		return nil, errors.FromStore("Report", "get", err)
	}
	return toReport(stage, doc)
}

func (r *firestoreReportRepository) List(ctx context.Context, stage entity.Stage) ([]*entity.Report, error) {
	iter := r.client.Collection(stage.Collection()).Documents(ctx)
	defer iter.Stop()
	return collect(stage, iter)
}

func (r *firestoreReportRepository) Delete(ctx context.Context, stage entity.Stage, id string) error {
	// Without the Exists precondition Firestore treats deleting a missing
	// document as success.
	_, err := r.client.Collection(stage.Collection()).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		return errors.FromStore("Report", "delete", err)
	}
	return nil
}

func (r *firestoreReportRepository) Watch(ctx context.Context, stage entity.Stage, onSnapshot repository.SnapshotFunc, onError func(error)) error {
	open := func() snapshotStream {
		return &firestoreSnapshots{stage: stage, it: r.client.Collection(stage.Collection()).Snapshots(ctx)}
	}

	stream := open()
	reports, err := stream.Next()
	if err != nil {
		stream.Stop()
		return err
	}
	onSnapshot(reports)

	go runWatch(ctx, stream, open, watchRetryMin, onSnapshot, onError)
	return nil
}

const (
	watchRetryMin = 500 * time.Millisecond
	watchRetryMax = 30 * time.Second
)

// snapshotStream yields the full contents of a collection once per change.
type snapshotStream interface {
	Next() ([]*entity.Report, error)
	Stop()
}

type firestoreSnapshots struct {
	stage entity.Stage
	it    *firestore.QuerySnapshotIterator
}

func (s *firestoreSnapshots) Next() ([]*entity.Report, error) {
	snap, err := s.it.Next()
	if err != nil {
		return nil, errors.FromStore("Report", "watch", err)
	}
	return collect(s.stage, snap.Documents)
}

func (s *firestoreSnapshots) Stop() {
	s.it.Stop()
}

// runWatch forwards snapshots until ctx is done. A failed read is reported to
// onError and the stream is reopened after a backoff, so only that change is
// lost. The reopened stream's first snapshot carries the current contents.
func runWatch(ctx context.Context, stream snapshotStream, open func() snapshotStream, retry time.Duration, onSnapshot repository.SnapshotFunc, onError func(error)) {
	defer func() { stream.Stop() }()

	delay := retry
	for {
		reports, err := stream.Next()
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			delay = retry
			onSnapshot(reports)
			continue
		}

		onError(err)
		stream.Stop()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = min(delay*2, watchRetryMax)

		logger.Debug("Reopening snapshot stream")
		stream = open()
	}
}

func collect(stage entity.Stage, iter *firestore.DocumentIterator) ([]*entity.Report, error) {
	reports := []*entity.Report{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.FromStore("Report", "read", err)
		}
		report, err := toReport(stage, doc)
		if err != nil {
			logger.Error("Skipping unreadable report %s/%s: %v", stage, doc.Ref.ID, err)
			continue
		}
		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.Before(reports[j].CreatedAt)
	})
	return reports, nil
}

func toReport(stage entity.Stage, doc *firestore.DocumentSnapshot) (*entity.Report, error) {
	var report entity.Report
	if err := doc.DataTo(&report); err != nil {
		return nil, errors.Internal("Failed to parse report data", err)
	}
	report.ID = doc.Ref.ID
	report.Stage = stage
	if report.Status == "" {
		report.Status = stage.Status()
	}
	return &report, nil
}
