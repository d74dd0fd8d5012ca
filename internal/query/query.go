// Package query holds the fixed catalogue of read-only operations the
// demo runs against the orders collection. Each sales aggregation
// starts with a sales.amount > 0 match stage; that guard is part of
// the catalogue's contract, not an optimization.
package query

import (
	"context"
	"time"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/metrics"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/pipeline"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/store"
)

// Result field names shared by the Mongo compilation and the embedded
// evaluator.
const (
	fieldTotalSales    = "total_sales"
	fieldOrderCount    = "order_count"
	fieldTotalQty      = "total_quantity"
	fieldAvgOrderValue = "avg_order_value"
	fieldUniqueSet     = "unique_products"
	fieldUniqueCount   = "unique_product_count"
	fieldTotalAmount   = "total_amount"
	fieldAvgAmount     = "avg_amount"
	fieldMinAmount     = "min_amount"
	fieldMaxAmount     = "max_amount"
	fieldCount         = "count"
	fieldMinDate       = "min_date"
	fieldMaxDate       = "max_date"
)

// GroupTotal is one bucket of a single-key sales aggregation.
type GroupTotal struct {
	Key           string
	TotalSales    float64
	OrderCount    int64
	TotalQuantity int64
	AvgOrderValue float64
}

// CategoryTotal extends GroupTotal with the distinct-SKU count.
type CategoryTotal struct {
	GroupTotal
	UniqueProducts int64
}

// PairTotal is one bucket of the state-by-category aggregation.
type PairTotal struct {
	State      string
	Category   string
	TotalSales float64
	OrderCount int64
}

// Stats is the single-row global statistics result over sales.amount.
type Stats struct {
	Orders int64
	Total  float64
	Avg    float64
	Min    float64
	Max    float64
}

// StatusCount is one bucket of the per-status document count.
type StatusCount struct {
	Status string
	Count  int64
}

// DateBounds is the min/max of the date field over the collection.
type DateBounds struct {
	Min time.Time
	Max time.Time
}

// Catalogue issues the fixed operations against one collection.
type Catalogue struct {
	Coll    store.Collection
	Metrics *metrics.Registry
}

func New(c store.Collection, m *metrics.Registry) *Catalogue {
	return &Catalogue{Coll: c, Metrics: m}
}

func (q *Catalogue) observe(start time.Time) {
	if q.Metrics != nil {
		q.Metrics.QueryLatencySec.Observe(time.Since(start).Seconds())
	}
}

// amountPositive is the match guard every sales aggregation applies
// before grouping.
func amountPositive() pipeline.Match {
	return pipeline.Match{Predicates: []pipeline.Predicate{
		pipeline.Gt(model.FieldSalesAmount, 0.0),
	}}
}

// ReadSample returns up to limit documents in store order.
// SQL equivalent: SELECT * FROM orders LIMIT n — minus the joins.
func (q *Catalogue) ReadSample(ctx context.Context, limit int64) ([]model.OrderDocument, error) {
	defer q.observe(time.Now())
	return q.Coll.Find(ctx, nil, limit)
}

// OrdersInDateRange returns documents with date inside the inclusive
// [start, end] interval, in store order.
// SQL equivalent: SELECT * FROM orders WHERE date BETWEEN start AND end.
func (q *Catalogue) OrdersInDateRange(ctx context.Context, start, end time.Time) ([]model.OrderDocument, error) {
	defer q.observe(time.Now())
	return q.Coll.Find(ctx, []pipeline.Predicate{
		pipeline.Gte(model.FieldDate, start),
		pipeline.Lte(model.FieldDate, end),
	}, 0)
}

// OrdersWhere returns documents matching one equality or threshold
// predicate on a named field path.
func (q *Catalogue) OrdersWhere(ctx context.Context, pred pipeline.Predicate, limit int64) ([]model.OrderDocument, error) {
	defer q.observe(time.Now())
	return q.Coll.Find(ctx, []pipeline.Predicate{pred}, limit)
}

// SalesByState groups positive-amount orders by region state.
// SQL equivalent: SELECT state, SUM(amount), COUNT(*) FROM orders
// GROUP BY state ORDER BY SUM(amount) DESC LIMIT 10.
func (q *Catalogue) SalesByState(ctx context.Context) ([]GroupTotal, error) {
	defer q.observe(time.Now())
	rows, err := q.Coll.Aggregate(ctx, []pipeline.Stage{
		amountPositive(),
		pipeline.Group{
			Keys: []string{model.FieldRegionState},
			Accums: []pipeline.Accumulator{
				pipeline.Sum(fieldTotalSales, model.FieldSalesAmount),
				pipeline.Count(fieldOrderCount),
				pipeline.Sum(fieldTotalQty, model.FieldSalesQuantity),
				pipeline.Avg(fieldAvgOrderValue, model.FieldSalesAmount),
			},
		},
		pipeline.Sort{Field: fieldTotalSales, Descending: true},
		pipeline.Limit{N: 10},
	})
	if err != nil {
		return nil, err
	}
	out := make([]GroupTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, decodeGroupTotal(r))
	}
	return out, nil
}

// SalesByCategory groups positive-amount orders by product category
// and also counts distinct SKUs per category.
func (q *Catalogue) SalesByCategory(ctx context.Context) ([]CategoryTotal, error) {
	defer q.observe(time.Now())
	rows, err := q.Coll.Aggregate(ctx, []pipeline.Stage{
		amountPositive(),
		pipeline.Group{
			Keys: []string{model.FieldProductCategory},
			Accums: []pipeline.Accumulator{
				pipeline.Sum(fieldTotalSales, model.FieldSalesAmount),
				pipeline.Count(fieldOrderCount),
				pipeline.Sum(fieldTotalQty, model.FieldSalesQuantity),
				pipeline.Avg(fieldAvgOrderValue, model.FieldSalesAmount),
				pipeline.AddToSet(fieldUniqueSet, model.FieldProductSKU),
			},
		},
		pipeline.Project{
			Keep:   []string{fieldTotalSales, fieldOrderCount, fieldTotalQty, fieldAvgOrderValue},
			SizeOf: map[string]string{fieldUniqueCount: fieldUniqueSet},
		},
		pipeline.Sort{Field: fieldTotalSales, Descending: true},
	})
	if err != nil {
		return nil, err
	}
	out := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryTotal{
			GroupTotal:     decodeGroupTotal(r),
			UniqueProducts: asInt64(r[fieldUniqueCount]),
		})
	}
	return out, nil
}

// SalesByStateAndCategory groups positive-amount orders by the
// state × category pair.
// SQL equivalent: GROUP BY state, category — one pipeline, no joins.
func (q *Catalogue) SalesByStateAndCategory(ctx context.Context) ([]PairTotal, error) {
	defer q.observe(time.Now())
	rows, err := q.Coll.Aggregate(ctx, []pipeline.Stage{
		amountPositive(),
		pipeline.Group{
			Keys: []string{model.FieldRegionState, model.FieldProductCategory},
			Accums: []pipeline.Accumulator{
				pipeline.Sum(fieldTotalSales, model.FieldSalesAmount),
				pipeline.Count(fieldOrderCount),
			},
		},
		pipeline.Sort{Field: fieldTotalSales, Descending: true},
		pipeline.Limit{N: 15},
	})
	if err != nil {
		return nil, err
	}
	out := make([]PairTotal, 0, len(rows))
	for _, r := range rows {
		id, _ := r[pipeline.GroupID].(map[string]any)
		out = append(out, PairTotal{
			State:      asString(id["state"]),
			Category:   asString(id["category"]),
			TotalSales: asFloat64(r[fieldTotalSales]),
			OrderCount: asInt64(r[fieldOrderCount]),
		})
	}
	return out, nil
}

// GlobalStats computes the single-row sum/avg/min/max over
// sales.amount plus the order count, restricted to amount > 0.
func (q *Catalogue) GlobalStats(ctx context.Context) (Stats, error) {
	defer q.observe(time.Now())
	rows, err := q.Coll.Aggregate(ctx, []pipeline.Stage{
		amountPositive(),
		pipeline.Group{
			Accums: []pipeline.Accumulator{
				pipeline.Sum(fieldTotalAmount, model.FieldSalesAmount),
				pipeline.Avg(fieldAvgAmount, model.FieldSalesAmount),
				pipeline.Min(fieldMinAmount, model.FieldSalesAmount),
				pipeline.Max(fieldMaxAmount, model.FieldSalesAmount),
				pipeline.Count(fieldOrderCount),
			},
		},
	})
	if err != nil {
		return Stats{}, err
	}
	if len(rows) == 0 {
		return Stats{}, nil
	}
	r := rows[0]
	return Stats{
		Orders: asInt64(r[fieldOrderCount]),
		Total:  asFloat64(r[fieldTotalAmount]),
		Avg:    asFloat64(r[fieldAvgAmount]),
		Min:    asFloat64(r[fieldMinAmount]),
		Max:    asFloat64(r[fieldMaxAmount]),
	}, nil
}

// StatusCounts counts documents per status, most frequent first.
// Counts cover the whole collection (zero-amount orders included);
// the amount guard applies to the sales aggregations only.
func (q *Catalogue) StatusCounts(ctx context.Context) ([]StatusCount, error) {
	defer q.observe(time.Now())
	rows, err := q.Coll.Aggregate(ctx, []pipeline.Stage{
		pipeline.Group{
			Keys:   []string{model.FieldStatus},
			Accums: []pipeline.Accumulator{pipeline.Count(fieldCount)},
		},
		pipeline.Sort{Field: fieldCount, Descending: true},
	})
	if err != nil {
		return nil, err
	}
	out := make([]StatusCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, StatusCount{
			Status: asString(r[pipeline.GroupID]),
			Count:  asInt64(r[fieldCount]),
		})
	}
	return out, nil
}

// DateBounds returns the earliest and latest order date stored.
func (q *Catalogue) DateBounds(ctx context.Context) (DateBounds, error) {
	defer q.observe(time.Now())
	rows, err := q.Coll.Aggregate(ctx, []pipeline.Stage{
		pipeline.Group{
			Accums: []pipeline.Accumulator{
				pipeline.Min(fieldMinDate, model.FieldDate),
				pipeline.Max(fieldMaxDate, model.FieldDate),
			},
		},
	})
	if err != nil {
		return DateBounds{}, err
	}
	if len(rows) == 0 {
		return DateBounds{}, nil
	}
	return DateBounds{
		Min: asTime(rows[0][fieldMinDate]),
		Max: asTime(rows[0][fieldMaxDate]),
	}, nil
}

func decodeGroupTotal(r map[string]any) GroupTotal {
	return GroupTotal{
		Key:           asString(r[pipeline.GroupID]),
		TotalSales:    asFloat64(r[fieldTotalSales]),
		OrderCount:    asInt64(r[fieldOrderCount]),
		TotalQuantity: asInt64(r[fieldTotalQty]),
		AvgOrderValue: asFloat64(r[fieldAvgOrderValue]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
