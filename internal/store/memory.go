package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/pipeline"
)

// MemoryCollection is a slice-backed Collection used by tests and by
// -backend=memory runs. Insertion order is preserved; order_id is not
// constrained to be unique, matching the store of record.
type MemoryCollection struct {
	mu   sync.RWMutex
	docs []model.OrderDocument
}

func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{docs: []model.OrderDocument{}}
}

func (m *MemoryCollection) InsertMany(_ context.Context, docs []model.OrderDocument) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
	return len(docs), nil
}

func (m *MemoryCollection) Find(_ context.Context, preds []pipeline.Predicate, limit int64) ([]model.OrderDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.OrderDocument{}
	for i := range m.docs {
		if !pipeline.MatchDoc(preds, &m.docs[i]) {
			continue
		}
		out = append(out, m.docs[i])
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryCollection) UpdateByOrderID(_ context.Context, orderID string, set map[string]any) (UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].OrderID != orderID {
			continue
		}
		changed := false
		for path, v := range set {
			before, _ := m.docs[i].Field(path)
			if !m.docs[i].SetField(path, v) {
				return UpdateResult{}, fmt.Errorf("update order %s: unknown field path %q", orderID, path)
			}
			after, _ := m.docs[i].Field(path)
			if before != after {
				changed = true
			}
		}
		res := UpdateResult{Matched: 1}
		if changed {
			res.Modified = 1
		}
		return res, nil
	}
	return UpdateResult{}, nil
}

func (m *MemoryCollection) DeleteByOrderID(_ context.Context, orderID string) (DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].OrderID == orderID {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return DeleteResult{Deleted: 1}, nil
		}
	}
	return DeleteResult{}, nil
}

func (m *MemoryCollection) Aggregate(_ context.Context, stages []pipeline.Stage) ([]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pipeline.Evaluate(stages, m.docs)
}

func (m *MemoryCollection) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.docs)), nil
}

// EnsureIndexes is a no-op: the in-memory backend always scans.
func (m *MemoryCollection) EnsureIndexes(context.Context) error { return nil }

func (m *MemoryCollection) Close(context.Context) error { return nil }
