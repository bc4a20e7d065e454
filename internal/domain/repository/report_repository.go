package repository

import (
	"context"

	"lostfound/internal/domain/entity"
)

// SnapshotFunc receives the full, ordered contents of a stage.
type SnapshotFunc func(reports []*entity.Report)

type ReportRepository interface {
	Create(ctx context.Context, stage entity.Stage, report *entity.Report) (string, error)
	Get(ctx context.Context, stage entity.Stage, id string) (*entity.Report, error)
	List(ctx context.Context, stage entity.Stage) ([]*entity.Report, error)
	Delete(ctx context.Context, stage entity.Stage, id string) error

	// Watch delivers the current snapshot before returning, then one snapshot
	// per change from a background goroutine until ctx is done. An error is
	// returned only if the initial snapshot could not be read. Later read
	// errors are passed to onError and that change is skipped; the watch
	// reconnects and keeps delivering until ctx is done.
	Watch(ctx context.Context, stage entity.Stage, onSnapshot SnapshotFunc, onError func(error)) error
}
