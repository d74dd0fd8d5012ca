package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"
)

// gensales writes a synthetic sales CSV with the source export's
// header set, for demos and local pebble/memory runs.
func main() {
	var count int
	var outputFile string
	var seed int64
	flag.IntVar(&count, "count", 100, "number of rows to generate")
	flag.StringVar(&outputFile, "output", "sales.csv", "output file")
	flag.Int64Var(&seed, "seed", 0, "random seed (0 uses current time)")
	flag.Parse()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if err := generate(count, outputFile, rand.New(rand.NewSource(seed))); err != nil {
		log.Fatalf("generation failed: %v", err)
	}
	log.Printf("generated %d rows to %s", count, outputFile)
}

// header matches the source export, including the trailing space in
// "Sales Channel ".
var header = []string{
	"Order ID", "Date", "Status", "Fulfilment", "Sales Channel ",
	"ship-service-level", "Style", "SKU", "Category", "Size", "ASIN",
	"Courier Status", "Qty", "currency", "Amount", "ship-city",
	"ship-state", "ship-postal-code", "ship-country", "promotion-ids",
	"B2B", "fulfilled-by",
}

func generate(count int, outputFile string, rng *rand.Rand) error {
	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	states := []string{"MAHARASHTRA", "KARNATAKA", "DELHI", "TAMIL NADU", "TELANGANA"}
	cities := []string{"MUMBAI", "BENGALURU", "NEW DELHI", "CHENNAI", "HYDERABAD"}
	categories := []string{"Set", "Kurta", "Western Dress", "Top", "Saree"}
	statuses := []string{"Shipped", "Shipped - Delivered to Buyer", "Cancelled", "Pending"}
	sizes := []string{"S", "M", "L", "XL", "XXL"}

	base := time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC)

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < count; i++ {
		ci := rng.Intn(len(cities))
		status := statuses[rng.Intn(len(statuses))]
		amount := fmt.Sprintf("%.2f", 200+rng.Float64()*1500)
		qty := fmt.Sprintf("%d", 1+rng.Intn(3))
		if status == "Cancelled" {
			// Cancelled rows ship with blank money columns in the source.
			amount = ""
			qty = ""
		}
		promo := ""
		if rng.Intn(3) == 0 {
			promo = fmt.Sprintf("IN Core Free Shipping %d, Duplicated %d", rng.Intn(9000), rng.Intn(9000))
		}
		b2b := "FALSE"
		if rng.Intn(10) == 0 {
			b2b = "TRUE"
		}
		row := []string{
			fmt.Sprintf("405-%07d-%07d", rng.Intn(10000000), rng.Intn(10000000)),
			base.AddDate(0, 0, rng.Intn(90)).Format("2006-01-02"),
			status,
			"Amazon",
			"Amazon.in",
			"Expedited",
			fmt.Sprintf("JNE%04d", rng.Intn(10000)),
			fmt.Sprintf("JNE%04d-KR-%s", rng.Intn(10000), sizes[rng.Intn(len(sizes))]),
			categories[rng.Intn(len(categories))],
			sizes[rng.Intn(len(sizes))],
			fmt.Sprintf("B0%08d", rng.Intn(100000000)),
			"Shipped",
			qty,
			"INR",
			amount,
			cities[ci],
			states[ci],
			fmt.Sprintf("%06d", 100000+rng.Intn(900000)),
			"IN",
			promo,
			b2b,
			"Easy Ship",
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
