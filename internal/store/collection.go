package store

import (
	"context"
	"fmt"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/pipeline"
)

// UpdateResult reports how many documents an update matched and
// actually changed. Zero matched is a result, not an error.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// DeleteResult reports how many documents a delete removed (0 or 1).
type DeleteResult struct {
	Deleted int64
}

// Collection is the narrow store surface the system consumes:
// insert-many, find-with-filter, update/delete one by order_id, and an
// aggregation executor. Implementations are synchronous; callers issue
// one operation at a time over a handle opened once per process.
type Collection interface {
	InsertMany(ctx context.Context, docs []model.OrderDocument) (int, error)
	Find(ctx context.Context, preds []pipeline.Predicate, limit int64) ([]model.OrderDocument, error)
	UpdateByOrderID(ctx context.Context, orderID string, set map[string]any) (UpdateResult, error)
	DeleteByOrderID(ctx context.Context, orderID string) (DeleteResult, error)
	Aggregate(ctx context.Context, stages []pipeline.Stage) ([]map[string]any, error)
	Count(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// ConnectionError means the store was unreachable. It is fatal to the
// whole run: nothing is retried.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store unreachable at %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
