package pipeline

import (
	"testing"
	"time"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func doc(id string, day time.Time, state, category, sku string, amount float64, qty int64) model.OrderDocument {
	return model.OrderDocument{
		OrderID: id,
		Date:    day,
		Region:  model.Address{State: state},
		Product: model.Product{Category: category, SKU: sku},
		Sales:   model.Sales{Amount: amount, Quantity: qty},
	}
}

func testDocs() []model.OrderDocument {
	return []model.OrderDocument{
		doc("o1", date(2022, 4, 30), "MAHARASHTRA", "Set", "S1", 647.62, 1),
		doc("o2", date(2022, 5, 1), "DELHI", "Kurta", "K1", 0, 1),
		doc("o3", date(2022, 5, 2), "MAHARASHTRA", "Kurta", "K1", 400, 2),
		doc("o4", date(2022, 5, 3), "MAHARASHTRA", "Kurta", "K2", 100, 1),
	}
}

func TestMatchDoc_DateRangeInclusive(t *testing.T) {
	d := doc("o1", date(2022, 4, 30), "", "", "", 1, 1)
	preds := []Predicate{
		Gte(model.FieldDate, date(2022, 4, 1)),
		Lte(model.FieldDate, date(2022, 4, 30)),
	}
	if !MatchDoc(preds, &d) {
		t.Fatalf("end of interval must be inclusive")
	}
	d.Date = date(2022, 5, 1)
	if MatchDoc(preds, &d) {
		t.Fatalf("date after interval must not match")
	}
}

func TestMatchDoc_UnknownFieldMatchesNothing(t *testing.T) {
	d := doc("o1", date(2022, 4, 30), "", "", "", 1, 1)
	if MatchDoc([]Predicate{Eq("no.such.path", "x")}, &d) {
		t.Fatalf("unknown path must not match")
	}
}

func TestEvaluate_GroupByStateExcludesNonPositive(t *testing.T) {
	rows, err := Evaluate([]Stage{
		Match{Predicates: []Predicate{Gt(model.FieldSalesAmount, 0.0)}},
		Group{
			Keys: []string{model.FieldRegionState},
			Accums: []Accumulator{
				Sum("total_sales", model.FieldSalesAmount),
				Count("order_count"),
			},
		},
		Sort{Field: "total_sales", Descending: true},
	}, testDocs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("zero-amount DELHI order must be excluded; got %d groups", len(rows))
	}
	r := rows[0]
	if r[GroupID] != "MAHARASHTRA" {
		t.Fatalf("wrong group key: %v", r[GroupID])
	}
	if r["total_sales"].(float64) != 647.62+400+100 {
		t.Fatalf("wrong total: %v", r["total_sales"])
	}
	if r["order_count"].(int64) != 3 {
		t.Fatalf("wrong count: %v", r["order_count"])
	}
}

func TestEvaluate_TwoKeyGroupSortLimit(t *testing.T) {
	rows, err := Evaluate([]Stage{
		Match{Predicates: []Predicate{Gt(model.FieldSalesAmount, 0.0)}},
		Group{
			Keys: []string{model.FieldRegionState, model.FieldProductCategory},
			Accums: []Accumulator{
				Sum("total_sales", model.FieldSalesAmount),
				Count("order_count"),
			},
		},
		Sort{Field: "total_sales", Descending: true},
		Limit{N: 1},
	}, testDocs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("limit 1 should leave one row, got %d", len(rows))
	}
	id, ok := rows[0][GroupID].(map[string]any)
	if !ok {
		t.Fatalf("composite key should be a map, got %T", rows[0][GroupID])
	}
	if id["state"] != "MAHARASHTRA" || id["category"] != "Set" {
		t.Fatalf("wrong top pair: %v", id)
	}
}

func TestEvaluate_AddToSetAndProjectSize(t *testing.T) {
	rows, err := Evaluate([]Stage{
		Match{Predicates: []Predicate{Gt(model.FieldSalesAmount, 0.0)}},
		Group{
			Keys: []string{model.FieldProductCategory},
			Accums: []Accumulator{
				Sum("total_sales", model.FieldSalesAmount),
				AddToSet("skus", model.FieldProductSKU),
			},
		},
		Project{
			Keep:   []string{"total_sales"},
			SizeOf: map[string]string{"unique_skus": "skus"},
		},
		Sort{Field: "total_sales", Descending: true},
	}, testDocs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 categories, got %d", len(rows))
	}
	if rows[0][GroupID] != "Set" {
		t.Fatalf("wrong sort order: %v", rows[0][GroupID])
	}
	kurta := rows[1]
	if kurta["unique_skus"].(int64) != 2 {
		t.Fatalf("K1 counted once per set: %v", kurta["unique_skus"])
	}
	if _, ok := kurta["skus"]; ok {
		t.Fatalf("project should drop the raw set")
	}
}

func TestEvaluate_GlobalStats(t *testing.T) {
	rows, err := Evaluate([]Stage{
		Match{Predicates: []Predicate{Gt(model.FieldSalesAmount, 0.0)}},
		Group{
			Accums: []Accumulator{
				Sum("total", model.FieldSalesAmount),
				Avg("avg", model.FieldSalesAmount),
				Min("min", model.FieldSalesAmount),
				Max("max", model.FieldSalesAmount),
				Count("n"),
			},
		},
	}, testDocs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("global group should produce one row, got %d", len(rows))
	}
	r := rows[0]
	if r[GroupID] != nil {
		t.Fatalf("global group id should be nil, got %v", r[GroupID])
	}
	if r["min"].(float64) != 100 || r["max"].(float64) != 647.62 {
		t.Fatalf("wrong min/max: %+v", r)
	}
	if r["n"].(int64) != 3 {
		t.Fatalf("wrong count: %v", r["n"])
	}
	wantAvg := (647.62 + 400 + 100) / 3
	if r["avg"].(float64) != wantAvg {
		t.Fatalf("wrong avg: %v", r["avg"])
	}
}

func TestEvaluate_MinMaxOverDates(t *testing.T) {
	rows, err := Evaluate([]Stage{
		Group{
			Accums: []Accumulator{
				Min("min_date", model.FieldDate),
				Max("max_date", model.FieldDate),
			},
		},
	}, testDocs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rows[0]["min_date"].(time.Time).Equal(date(2022, 4, 30)) {
		t.Fatalf("wrong min date: %v", rows[0]["min_date"])
	}
	if !rows[0]["max_date"].(time.Time).Equal(date(2022, 5, 3)) {
		t.Fatalf("wrong max date: %v", rows[0]["max_date"])
	}
}

func TestEvaluate_RequiresGroupStage(t *testing.T) {
	_, err := Evaluate([]Stage{
		Match{Predicates: []Predicate{Gt(model.FieldSalesAmount, 0.0)}},
	}, testDocs())
	if err == nil {
		t.Fatalf("pipeline without group must error")
	}
}
