package query

import (
	"context"
	"testing"
	"time"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/pipeline"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/store"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func order(id string, day time.Time, status, state, category, sku string, amount float64, qty int64) model.OrderDocument {
	return model.OrderDocument{
		OrderID:    id,
		Date:       day,
		Status:     status,
		Customer:   model.Address{State: state},
		Region:     model.Address{State: state},
		Product:    model.Product{Category: category, SKU: sku},
		Sales:      model.Sales{Amount: amount, Quantity: qty, Currency: "INR"},
		Promotions: []string{},
	}
}

// seeded returns a catalogue over a fresh in-memory collection holding
// the two canonical demo orders: one shipped April sale and one
// cancelled May order with no amount.
func seeded(t *testing.T) (*Catalogue, store.Collection) {
	t.Helper()
	c := store.NewMemoryCollection()
	docs := []model.OrderDocument{
		order("A1", date(2022, 4, 30), "Shipped", "MAHARASHTRA", "Set", "SET-1", 647.62, 1),
		order("A2", date(2022, 5, 1), "Cancelled", "DELHI", "Kurta", "KUR-1", 0, 0),
	}
	if _, err := c.InsertMany(context.Background(), docs); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return New(c, nil), c
}

func TestOrdersInDateRange(t *testing.T) {
	q, _ := seeded(t)
	got, err := q.OrdersInDateRange(context.Background(), date(2022, 4, 1), date(2022, 4, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].OrderID != "A1" {
		t.Fatalf("april range should return exactly A1, got %+v", got)
	}
}

func TestSalesByState_ExcludesZeroAmountOrders(t *testing.T) {
	q, _ := seeded(t)
	got, err := q.SalesByState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("cancelled zero-amount order must not create a group, got %+v", got)
	}
	g := got[0]
	if g.Key != "MAHARASHTRA" || g.TotalSales != 647.62 || g.OrderCount != 1 {
		t.Fatalf("unexpected group: %+v", g)
	}
	if g.TotalQuantity != 1 || g.AvgOrderValue != 647.62 {
		t.Fatalf("unexpected derived fields: %+v", g)
	}
}

func TestSalesByCategory_CountsDistinctSKUs(t *testing.T) {
	ctx := context.Background()
	c := store.NewMemoryCollection()
	docs := []model.OrderDocument{
		order("A1", date(2022, 4, 30), "Shipped", "MAHARASHTRA", "Kurta", "KUR-1", 400, 1),
		order("A2", date(2022, 5, 1), "Shipped", "MAHARASHTRA", "Kurta", "KUR-1", 300, 1),
		order("A3", date(2022, 5, 2), "Shipped", "DELHI", "Kurta", "KUR-2", 200, 2),
		order("A4", date(2022, 5, 3), "Shipped", "DELHI", "Set", "SET-1", 500, 1),
	}
	if _, err := c.InsertMany(ctx, docs); err != nil {
		t.Fatalf("seed: %v", err)
	}
	q := New(c, nil)

	got, err := q.SalesByCategory(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 categories, got %+v", got)
	}
	if got[0].Key != "Kurta" || got[0].TotalSales != 900 {
		t.Fatalf("categories should sort by total desc: %+v", got)
	}
	if got[0].UniqueProducts != 2 {
		t.Fatalf("KUR-1 must count once: %+v", got[0])
	}
	if got[1].Key != "Set" || got[1].UniqueProducts != 1 {
		t.Fatalf("unexpected second bucket: %+v", got[1])
	}
}

func TestSalesByStateAndCategory(t *testing.T) {
	q, _ := seeded(t)
	got, err := q.SalesByStateAndCategory(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want one pair, got %+v", got)
	}
	p := got[0]
	if p.State != "MAHARASHTRA" || p.Category != "Set" || p.TotalSales != 647.62 || p.OrderCount != 1 {
		t.Fatalf("unexpected pair: %+v", p)
	}
}

func TestGlobalStats(t *testing.T) {
	ctx := context.Background()
	c := store.NewMemoryCollection()
	docs := []model.OrderDocument{
		order("A1", date(2022, 4, 30), "Shipped", "MAHARASHTRA", "Set", "SET-1", 100, 1),
		order("A2", date(2022, 5, 1), "Shipped", "DELHI", "Kurta", "KUR-1", 300, 1),
		order("A3", date(2022, 5, 2), "Cancelled", "DELHI", "Kurta", "KUR-1", 0, 0),
	}
	if _, err := c.InsertMany(ctx, docs); err != nil {
		t.Fatalf("seed: %v", err)
	}
	q := New(c, nil)

	s, err := q.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Stats{Orders: 2, Total: 400, Avg: 200, Min: 100, Max: 300}
	if s != want {
		t.Fatalf("stats mismatch: got %+v want %+v", s, want)
	}
}

func TestStatusCounts_IncludesZeroAmountOrders(t *testing.T) {
	q, _ := seeded(t)
	got, err := q.StatusCounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("cancelled order must still be counted, got %+v", got)
	}
	counts := map[string]int64{}
	for _, sc := range got {
		counts[sc.Status] = sc.Count
	}
	if counts["Shipped"] != 1 || counts["Cancelled"] != 1 {
		t.Fatalf("count mismatch: %+v", counts)
	}
}

func TestDateBounds(t *testing.T) {
	q, _ := seeded(t)
	b, err := q.DateBounds(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Min.Equal(date(2022, 4, 30)) || !b.Max.Equal(date(2022, 5, 1)) {
		t.Fatalf("bounds mismatch: %+v", b)
	}
}

func TestUpdateThenReadBack(t *testing.T) {
	ctx := context.Background()
	q, c := seeded(t)

	res, err := c.UpdateByOrderID(ctx, "A1", map[string]any{model.FieldStatus: "Cancelled"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Matched != 1 || res.Modified != 1 {
		t.Fatalf("unexpected update result: %+v", res)
	}

	got, err := q.OrdersWhere(ctx, pipeline.Eq(model.FieldOrderID, "A1"), 0)
	if err != nil || len(got) != 1 {
		t.Fatalf("read back: err=%v docs=%d", err, len(got))
	}
	d := got[0]
	if d.Status != "Cancelled" {
		t.Fatalf("status not visible after update: %+v", d)
	}
	if d.Sales.Amount != 647.62 || d.Region.State != "MAHARASHTRA" || d.Product.Category != "Set" {
		t.Fatalf("unrelated fields changed: %+v", d)
	}
}

func TestReadSampleRespectsLimit(t *testing.T) {
	q, _ := seeded(t)
	got, err := q.ReadSample(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].OrderID != "A1" {
		t.Fatalf("sample mismatch: %+v", got)
	}
}

func TestGlobalStatsEmptyCollection(t *testing.T) {
	q := New(store.NewMemoryCollection(), nil)
	s, err := q.GlobalStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != (Stats{}) {
		t.Fatalf("empty collection should yield zero stats: %+v", s)
	}
}
