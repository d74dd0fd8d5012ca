package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/changefeed"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/ingest"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/loader"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/metrics"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/query"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/report"
	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/store"
)

// Config holds CLI flags for the demo run.
type Config struct {
	CSVPath    string
	DateLayout string
	OnBadRow   string // abort|skip
	BatchSize  int
	SkipLoad   bool

	Backend    string // mongo|pebble|memory
	MongoURI   string
	Database   string
	Collection string
	PebbleDir  string

	KafkaBootstrap string
	FeedSink       string // off|file|kafka|both
	FeedDir        string
	FeedTopic      string

	HTTPAddr  string
	ReportDir string

	UpdateOrderID string
	UpdateStatus  string
	DeleteOrderID string

	RangeStart string
	RangeEnd   string
}

func main() {
	cfg := readFlags()
	if err := run(cfg); err != nil {
		log.Fatalf("salesops failed: %v", err)
	}
}

func readFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.CSVPath, "csv", "sales.csv", "path to the sales CSV export")
	flag.StringVar(&cfg.DateLayout, "date-layout", ingest.DefaultDateLayout, "expected date format (Go layout)")
	flag.StringVar(&cfg.OnBadRow, "on-bad-row", "abort", "malformed row policy: abort|skip")
	flag.IntVar(&cfg.BatchSize, "batch-size", loader.DefaultBatchSize, "insert batch size")
	flag.BoolVar(&cfg.SkipLoad, "skip-load", false, "skip CSV load, query existing data only")
	flag.StringVar(&cfg.Backend, "backend", "mongo", "store backend: mongo|pebble|memory")
	flag.StringVar(&cfg.MongoURI, "uri", "mongodb://localhost:27017/", "mongodb connection string")
	flag.StringVar(&cfg.Database, "db", "amazon_sales_db", "database name")
	flag.StringVar(&cfg.Collection, "collection", "orders", "collection name")
	flag.StringVar(&cfg.PebbleDir, "pebble-dir", "./data/orders", "pebble data directory")
	flag.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", "", "kafka bootstrap servers, e.g. localhost:9092")
	flag.StringVar(&cfg.FeedSink, "feed-sink", "off", "changefeed sink: off|file|kafka|both")
	flag.StringVar(&cfg.FeedDir, "feed-dir", "./changefeed", "changefeed directory for file sink")
	flag.StringVar(&cfg.FeedTopic, "feed-topic", "sales.orders.events", "kafka topic for changefeed")
	flag.StringVar(&cfg.HTTPAddr, "http", "", "listen address for /metrics and /healthz (empty disables)")
	flag.StringVar(&cfg.ReportDir, "report-dir", "./reports", "directory for JSON result reports")
	flag.StringVar(&cfg.UpdateOrderID, "update-order", "", "order_id to update (default: first sampled order)")
	flag.StringVar(&cfg.UpdateStatus, "update-status", "Shipped - Delivered to Buyer", "status value for the update step")
	flag.StringVar(&cfg.DeleteOrderID, "delete-order", "", "order_id to delete (empty skips the delete step)")
	flag.StringVar(&cfg.RangeStart, "range-start", "2022-04-01", "date range query start (YYYY-MM-DD)")
	flag.StringVar(&cfg.RangeEnd, "range-end", "2022-04-30", "date range query end (YYYY-MM-DD)")
	flag.Parse()
	return cfg
}

func run(cfg Config) error {
	ctx := context.Background()
	mreg := metrics.NewRegistry()

	if cfg.HTTPAddr != "" {
		go func() {
			http.Handle("/metrics", mreg.Handler())
			http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
			})
			_ = http.ListenAndServe(cfg.HTTPAddr, nil)
		}()
	}

	coll, err := openCollection(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := coll.Close(ctx); err != nil {
			log.Printf("close collection: %v", err)
		}
	}()
	log.Printf("connected backend=%s db=%s collection=%s", cfg.Backend, cfg.Database, cfg.Collection)

	feed, err := buildFeed(cfg)
	if err != nil {
		return err
	}

	if !cfg.SkipLoad {
		if err := loadCSV(ctx, cfg, coll, feed, mreg); err != nil {
			return err
		}
	}

	cat := query.New(coll, mreg)
	rep := report.NewWriter(cfg.ReportDir, time.Now().UTC().Format("20060102T150405Z"))

	if err := runCatalogue(ctx, cfg, cat, rep); err != nil {
		return err
	}
	if err := runMutations(ctx, cfg, cat, coll, feed); err != nil {
		return err
	}

	log.Printf("salesops run completed")
	return nil
}

func openCollection(ctx context.Context, cfg Config) (store.Collection, error) {
	switch cfg.Backend {
	case "mongo":
		return store.ConnectMongo(ctx, cfg.MongoURI, cfg.Database, cfg.Collection)
	case "pebble":
		return store.OpenPebbleCollection(cfg.PebbleDir)
	case "memory":
		return store.NewMemoryCollection(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want mongo|pebble|memory)", cfg.Backend)
	}
}

func buildFeed(cfg Config) (changefeed.Writer, error) {
	var feed changefeed.Writer = changefeed.NopWriter{}
	if cfg.FeedSink == "file" || cfg.FeedSink == "both" {
		fw, err := changefeed.NewFileWriter(cfg.FeedDir, "orders.events.jsonl")
		if err != nil {
			return nil, fmt.Errorf("init changefeed file: %w", err)
		}
		feed = fw
	}
	if (cfg.FeedSink == "kafka" || cfg.FeedSink == "both") && cfg.KafkaBootstrap != "" {
		kw := changefeed.NewKafkaWriter(cfg.KafkaBootstrap, cfg.FeedTopic)
		if _, ok := feed.(changefeed.NopWriter); ok {
			feed = kw
		} else {
			feed = changefeed.NewMultiWriter(feed, kw)
		}
	}
	return feed, nil
}

func loadCSV(ctx context.Context, cfg Config, coll store.Collection, feed changefeed.Writer, mreg *metrics.Registry) error {
	policy := ingest.PolicyAbort
	switch cfg.OnBadRow {
	case "abort":
	case "skip":
		policy = ingest.PolicySkip
	default:
		return fmt.Errorf("unknown -on-bad-row value %q (want abort|skip)", cfg.OnBadRow)
	}

	log.Printf("reading CSV file: %s", cfg.CSVPath)
	reader := ingest.NewReader(ingest.NewTransformer(cfg.DateLayout), policy)
	res, err := reader.ReadFile(cfg.CSVPath)
	if err != nil {
		return fmt.Errorf("load csv: %w", err)
	}
	mreg.RowsParsed.Add(float64(len(res.Documents)))
	mreg.RowsRejected.Add(float64(len(res.Skipped)))
	log.Printf("transformed %d rows into documents (%d rows skipped)", len(res.Documents), len(res.Skipped))

	l := loader.New(cfg.BatchSize)
	l.Feed = feed
	l.Metrics = mreg
	inserted, err := l.Load(ctx, coll, res.Documents)
	if err != nil {
		return fmt.Errorf("load aborted after %d documents: %w", inserted, err)
	}
	log.Printf("inserted %d orders", inserted)
	return nil
}

func runCatalogue(ctx context.Context, cfg Config, cat *query.Catalogue, rep *report.Writer) error {
	sample, err := cat.ReadSample(ctx, 5)
	if err != nil {
		return fmt.Errorf("read sample: %w", err)
	}
	printSample(sample)

	start, err := time.Parse("2006-01-02", cfg.RangeStart)
	if err != nil {
		return fmt.Errorf("bad -range-start: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.RangeEnd)
	if err != nil {
		return fmt.Errorf("bad -range-end: %w", err)
	}
	inRange, err := cat.OrdersInDateRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("date range query: %w", err)
	}
	printDateRange(start, end, inRange)
	if err := rep.Write("orders_in_range", inRange); err != nil {
		return err
	}

	byState, err := cat.SalesByState(ctx)
	if err != nil {
		return fmt.Errorf("sales by state: %w", err)
	}
	printByState(byState)
	if err := rep.Write("sales_by_state", byState); err != nil {
		return err
	}

	byCategory, err := cat.SalesByCategory(ctx)
	if err != nil {
		return fmt.Errorf("sales by category: %w", err)
	}
	printByCategory(byCategory)
	if err := rep.Write("sales_by_category", byCategory); err != nil {
		return err
	}

	byPair, err := cat.SalesByStateAndCategory(ctx)
	if err != nil {
		return fmt.Errorf("sales by state and category: %w", err)
	}
	printByPair(byPair)
	if err := rep.Write("sales_by_state_category", byPair); err != nil {
		return err
	}

	stats, err := cat.GlobalStats(ctx)
	if err != nil {
		return fmt.Errorf("global stats: %w", err)
	}
	statuses, err := cat.StatusCounts(ctx)
	if err != nil {
		return fmt.Errorf("status counts: %w", err)
	}
	bounds, err := cat.DateBounds(ctx)
	if err != nil {
		return fmt.Errorf("date bounds: %w", err)
	}
	total, err := cat.Coll.Count(ctx)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	printStats(total, stats, statuses, bounds)
	if err := rep.Write("collection_stats", map[string]any{
		"total_documents": total,
		"amount_stats":    stats,
		"status_counts":   statuses,
		"date_range":      bounds,
	}); err != nil {
		return err
	}
	return nil
}

func runMutations(ctx context.Context, cfg Config, cat *query.Catalogue, coll store.Collection, feed changefeed.Writer) error {
	orderID := cfg.UpdateOrderID
	if orderID == "" {
		sample, err := cat.ReadSample(ctx, 1)
		if err != nil {
			return fmt.Errorf("pick order for update: %w", err)
		}
		if len(sample) == 0 {
			log.Printf("no orders stored; skipping update and delete steps")
			return nil
		}
		orderID = sample[0].OrderID
	}

	fmt.Printf("\n=== UPDATE: order %s -> status %q ===\n", orderID, cfg.UpdateStatus)
	ur, err := coll.UpdateByOrderID(ctx, orderID, map[string]any{model.FieldStatus: cfg.UpdateStatus})
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if ur.Matched == 0 {
		fmt.Printf("order %s not found (0 matched)\n", orderID)
	} else {
		fmt.Printf("matched=%d modified=%d\n", ur.Matched, ur.Modified)
	}
	if err := feed.Append(changefeed.Event{Op: "update", OrderID: orderID, TS: changefeed.NowUnix()}); err != nil {
		log.Printf("changefeed append failed: %v", err)
	}

	if cfg.DeleteOrderID == "" {
		return nil
	}
	fmt.Printf("\n=== DELETE: order %s ===\n", cfg.DeleteOrderID)
	dr, err := coll.DeleteByOrderID(ctx, cfg.DeleteOrderID)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if dr.Deleted == 0 {
		fmt.Printf("order %s not found (0 removed)\n", cfg.DeleteOrderID)
	} else {
		fmt.Printf("removed %d order(s)\n", dr.Deleted)
	}
	if err := feed.Append(changefeed.Event{Op: "delete", OrderID: cfg.DeleteOrderID, TS: changefeed.NowUnix()}); err != nil {
		log.Printf("changefeed append failed: %v", err)
	}
	return nil
}

func printSample(orders []model.OrderDocument) {
	fmt.Printf("\n=== SAMPLE ORDERS (%d) ===\n", len(orders))
	for _, o := range orders {
		fmt.Printf("%s  %s  %s, %s  %s/%s  %.2f %s\n",
			o.OrderID, o.Date.Format("2006-01-02"),
			o.Customer.City, o.Customer.State,
			o.Product.Category, o.Product.Style,
			o.Sales.Amount, o.Sales.Currency)
	}
}

func printDateRange(start, end time.Time, orders []model.OrderDocument) {
	var amount float64
	var qty int64
	for _, o := range orders {
		amount += o.Sales.Amount
		qty += o.Sales.Quantity
	}
	fmt.Printf("\n=== ORDERS %s .. %s ===\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("found %d orders, total amount %.2f, total quantity %d\n", len(orders), amount, qty)
}

func printByState(rows []query.GroupTotal) {
	fmt.Printf("\n=== TOP STATES BY SALES ===\n")
	fmt.Printf("%-25s %15s %8s %15s\n", "State", "Total Sales", "Orders", "Avg Order")
	for _, r := range rows {
		fmt.Printf("%-25s %15.2f %8d %15.2f\n", r.Key, r.TotalSales, r.OrderCount, r.AvgOrderValue)
	}
}

func printByCategory(rows []query.CategoryTotal) {
	fmt.Printf("\n=== SALES BY CATEGORY ===\n")
	fmt.Printf("%-20s %15s %8s %9s %15s\n", "Category", "Total Sales", "Orders", "Products", "Avg Order")
	for _, r := range rows {
		fmt.Printf("%-20s %15.2f %8d %9d %15.2f\n", r.Key, r.TotalSales, r.OrderCount, r.UniqueProducts, r.AvgOrderValue)
	}
}

func printByPair(rows []query.PairTotal) {
	fmt.Printf("\n=== TOP STATE x CATEGORY ===\n")
	fmt.Printf("%-20s %-20s %15s %8s\n", "State", "Category", "Total Sales", "Orders")
	for _, r := range rows {
		fmt.Printf("%-20s %-20s %15.2f %8d\n", r.State, r.Category, r.TotalSales, r.OrderCount)
	}
}

func printStats(total int64, stats query.Stats, statuses []query.StatusCount, bounds query.DateBounds) {
	fmt.Printf("\n=== COLLECTION STATISTICS ===\n")
	fmt.Printf("total orders: %d\n", total)
	fmt.Printf("amount (positive only): n=%d sum=%.2f avg=%.2f min=%.2f max=%.2f\n",
		stats.Orders, stats.Total, stats.Avg, stats.Min, stats.Max)
	fmt.Printf("orders by status:\n")
	for _, s := range statuses {
		fmt.Printf("  %-45s %d\n", s.Status, s.Count)
	}
	if !bounds.Min.IsZero() {
		fmt.Printf("date range: %s .. %s\n", bounds.Min.Format("2006-01-02"), bounds.Max.Format("2006-01-02"))
	}
}
