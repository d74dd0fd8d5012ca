package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/store"
)

// One-shot index creation for the orders collection. Run after the
// initial load; repeated runs are harmless.
func main() {
	var (
		uri        string
		database   string
		collection string
		timeoutSec int
	)
	flag.StringVar(&uri, "uri", "mongodb://localhost:27017/", "mongodb connection string")
	flag.StringVar(&database, "db", "amazon_sales_db", "database name")
	flag.StringVar(&collection, "collection", "orders", "collection name")
	flag.IntVar(&timeoutSec, "timeout", 30, "overall timeout in seconds")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	coll, err := store.ConnectMongo(ctx, uri, database, collection)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer func() {
		if err := coll.Close(ctx); err != nil {
			log.Printf("disconnect: %v", err)
		}
	}()

	if err := coll.EnsureIndexes(ctx); err != nil {
		log.Fatalf("create indexes: %v", err)
	}
	log.Printf("indexes created on %s.%s", database, collection)
}
