package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/pipeline"
)

// PebbleCollection is an embedded Collection over PebbleDB, used by
// -backend=pebble so the demo runs without a database server.
// Documents are stored as JSON under a monotonically increasing
// sequence key, which preserves insertion order; filters and pipelines
// evaluate in process over a full scan.
type PebbleCollection struct {
	db      *pebble.DB
	nextSeq uint64
}

func OpenPebbleCollection(dir string) (*PebbleCollection, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, &ConnectionError{Target: dir, Err: err}
	}
	c := &PebbleCollection{db: db, nextSeq: 1}
	// Resume the sequence after the highest existing key.
	it, err := db.NewIter(nil)
	if err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Target: dir, Err: err}
	}
	if it.Last() && it.Valid() && len(it.Key()) == 8 {
		c.nextSeq = binary.BigEndian.Uint64(it.Key()) + 1
	}
	if err := it.Close(); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Target: dir, Err: err}
	}
	return c, nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func (p *PebbleCollection) InsertMany(_ context.Context, docs []model.OrderDocument) (int, error) {
	wb := p.db.NewBatch()
	defer wb.Close()
	for i := range docs {
		b, err := json.Marshal(&docs[i])
		if err != nil {
			return 0, fmt.Errorf("encode document %s: %w", docs[i].OrderID, err)
		}
		if err := wb.Set(seqKey(p.nextSeq+uint64(i)), b, nil); err != nil {
			return 0, fmt.Errorf("batch set: %w", err)
		}
	}
	if err := wb.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("commit insert batch: %w", err)
	}
	p.nextSeq += uint64(len(docs))
	return len(docs), nil
}

// scan visits every stored document in insertion order. fn returns
// false to stop early.
func (p *PebbleCollection) scan(fn func(seq uint64, doc model.OrderDocument) (bool, error)) error {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("iterator: %w", err)
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		var doc model.OrderDocument
		if err := json.Unmarshal(it.Value(), &doc); err != nil {
			return fmt.Errorf("decode document at key %x: %w", it.Key(), err)
		}
		cont, err := fn(binary.BigEndian.Uint64(it.Key()), doc)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return nil
}

func (p *PebbleCollection) Find(_ context.Context, preds []pipeline.Predicate, limit int64) ([]model.OrderDocument, error) {
	out := []model.OrderDocument{}
	err := p.scan(func(_ uint64, doc model.OrderDocument) (bool, error) {
		if pipeline.MatchDoc(preds, &doc) {
			out = append(out, doc)
			if limit > 0 && int64(len(out)) >= limit {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PebbleCollection) UpdateByOrderID(_ context.Context, orderID string, set map[string]any) (UpdateResult, error) {
	var res UpdateResult
	var updateErr error
	err := p.scan(func(seq uint64, doc model.OrderDocument) (bool, error) {
		if doc.OrderID != orderID {
			return true, nil
		}
		res.Matched = 1
		changed := false
		for path, v := range set {
			before, _ := doc.Field(path)
			if !doc.SetField(path, v) {
				updateErr = fmt.Errorf("update order %s: unknown field path %q", orderID, path)
				return false, nil
			}
			after, _ := doc.Field(path)
			if before != after {
				changed = true
			}
		}
		if changed {
			b, err := json.Marshal(&doc)
			if err != nil {
				return false, fmt.Errorf("encode document %s: %w", orderID, err)
			}
			if err := p.db.Set(seqKey(seq), b, pebble.Sync); err != nil {
				return false, fmt.Errorf("write document %s: %w", orderID, err)
			}
			res.Modified = 1
		}
		return false, nil
	})
	if err != nil {
		return UpdateResult{}, err
	}
	if updateErr != nil {
		return UpdateResult{}, updateErr
	}
	return res, nil
}

func (p *PebbleCollection) DeleteByOrderID(_ context.Context, orderID string) (DeleteResult, error) {
	var res DeleteResult
	err := p.scan(func(seq uint64, doc model.OrderDocument) (bool, error) {
		if doc.OrderID != orderID {
			return true, nil
		}
		if err := p.db.Delete(seqKey(seq), pebble.Sync); err != nil {
			return false, fmt.Errorf("delete document %s: %w", orderID, err)
		}
		res.Deleted = 1
		return false, nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

func (p *PebbleCollection) Aggregate(_ context.Context, stages []pipeline.Stage) ([]map[string]any, error) {
	var docs []model.OrderDocument
	err := p.scan(func(_ uint64, doc model.OrderDocument) (bool, error) {
		docs = append(docs, doc)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return pipeline.Evaluate(stages, docs)
}

func (p *PebbleCollection) Count(_ context.Context) (int64, error) {
	var n int64
	err := p.scan(func(uint64, model.OrderDocument) (bool, error) {
		n++
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// EnsureIndexes is a no-op: the embedded backend always scans.
func (p *PebbleCollection) EnsureIndexes(context.Context) error { return nil }

func (p *PebbleCollection) Close(context.Context) error { return p.db.Close() }
