package loader

import (
	"context"
	"fmt"
	"log"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/changefeed"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/metrics"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/store"
)

// DefaultBatchSize is the fixed insert batch size unless configured.
const DefaultBatchSize = 1000

// BatchInsertError reports a batch that failed partway through a load.
// Inserted is the total count persisted before the failure: a partial
// load is possible (no transaction spans batches) and is reported,
// never hidden.
type BatchInsertError struct {
	Batch    int // 0-based index of the failing batch
	Inserted int // documents persisted before the failure
	Err      error
}

func (e *BatchInsertError) Error() string {
	return fmt.Sprintf("batch %d failed after %d documents inserted: %v", e.Batch, e.Inserted, e.Err)
}

func (e *BatchInsertError) Unwrap() error { return e.Err }

// Loader inserts documents in fixed-size batches, sequentially: one
// batch completes or fails before the next begins.
type Loader struct {
	BatchSize int
	Feed      changefeed.Writer
	Metrics   *metrics.Registry
}

func New(batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{BatchSize: batchSize, Feed: changefeed.NopWriter{}}
}

// Load inserts all documents into the collection and returns the
// total inserted count. On a batch failure it returns the count
// persisted so far inside a BatchInsertError.
func (l *Loader) Load(ctx context.Context, c store.Collection, docs []model.OrderDocument) (int, error) {
	inserted := 0
	for i := 0; i < len(docs); i += l.BatchSize {
		end := i + l.BatchSize
		if end > len(docs) {
			end = len(docs)
		}
		n, err := c.InsertMany(ctx, docs[i:end])
		inserted += n
		if err != nil {
			if l.Metrics != nil {
				l.Metrics.BatchFailures.Inc()
			}
			return inserted, &BatchInsertError{Batch: i / l.BatchSize, Inserted: inserted, Err: err}
		}
		if l.Metrics != nil {
			l.Metrics.DocsInserted.Add(float64(n))
		}
		if err := l.Feed.Append(changefeed.Event{Op: "insert", Count: n, TS: changefeed.NowUnix()}); err != nil {
			// The feed is advisory; a sink failure must not fail the load.
			log.Printf("changefeed append failed: %v", err)
		}
		log.Printf("inserted batch %d: %d/%d documents", i/l.BatchSize, inserted, len(docs))
	}
	return inserted, nil
}
