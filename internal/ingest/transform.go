package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
)

// DefaultDateLayout is the expected source date format. The Amazon
// export ships dates as "04-30-22"; pass "01-02-06" for that file.
const DefaultDateLayout = "2006-01-02"

// ParseError reports a single row that failed the transform. Row is
// the 1-based index of the data row (header excluded).
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: column %q: bad value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Transformer converts flat CSV rows into nested order documents.
type Transformer struct {
	DateLayout string
}

func NewTransformer(dateLayout string) *Transformer {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &Transformer{DateLayout: dateLayout}
}

// Transform maps one source row onto exactly one OrderDocument.
// Blank Amount/Qty become 0, an absent B2B flag becomes false, blank
// strings stay empty strings (source behavior, kept deliberately), and
// a date or numeric value that does not parse fails the whole row with
// a ParseError carrying rowIndex.
func (t *Transformer) Transform(row model.SalesRow, rowIndex int) (model.OrderDocument, error) {
	date, err := t.parseDate(row.Date, rowIndex)
	if err != nil {
		return model.OrderDocument{}, err
	}
	qty, err := parseQty(row.Qty, rowIndex)
	if err != nil {
		return model.OrderDocument{}, err
	}
	amount, err := parseAmount(row.Amount, rowIndex)
	if err != nil {
		return model.OrderDocument{}, err
	}

	addr := model.Address{
		City:       row.ShipCity,
		State:      row.ShipState,
		PostalCode: row.ShipPostalCode,
		Country:    row.ShipCountry,
	}

	return model.OrderDocument{
		OrderID: row.OrderID,
		Date:    date,
		Status:  row.Status,
		// customer and region are separate copies of the same
		// ship-to columns; documents own both.
		Customer: addr,
		Region:   addr,
		Product: model.Product{
			Style:    row.Style,
			SKU:      row.SKU,
			Category: row.Category,
			Size:     row.Size,
			ASIN:     row.ASIN,
		},
		Sales: model.Sales{
			Channel:      row.SalesChannel,
			Fulfilment:   row.Fulfilment,
			ServiceLevel: row.ServiceLevel,
			Quantity:     qty,
			Currency:     row.Currency,
			Amount:       amount,
			B2B:          strings.EqualFold(strings.TrimSpace(row.B2B), "true"),
		},
		Fulfillment: model.Fulfillment{
			FulfilledBy:   row.FulfilledBy,
			CourierStatus: row.CourierStatus,
		},
		Promotions: splitPromotions(row.PromotionIDs),
	}, nil
}

func (t *Transformer) parseDate(raw string, rowIndex int) (time.Time, error) {
	v := strings.TrimSpace(raw)
	d, err := time.Parse(t.DateLayout, v)
	if err != nil {
		return time.Time{}, &ParseError{Row: rowIndex, Column: "Date", Value: raw, Err: err}
	}
	return d, nil
}

func parseQty(raw string, rowIndex int) (int64, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &ParseError{Row: rowIndex, Column: "Qty", Value: raw, Err: err}
	}
	return n, nil
}

func parseAmount(raw string, rowIndex int) (float64, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &ParseError{Row: rowIndex, Column: "Amount", Value: raw, Err: err}
	}
	return f, nil
}

// splitPromotions turns the delimited promotion-ids column into a list
// of trimmed tokens. Absent or blank input yields an empty, non-nil
// slice so the persisted field is always an array.
func splitPromotions(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
