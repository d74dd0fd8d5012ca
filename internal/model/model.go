package model

import "time"

// SalesRow is one raw record of the source CSV. Every field is optional
// and delivered as text; typing happens in the ingest transform.
// The csv tags must match the export headers byte for byte — note the
// trailing space the source carries in "Sales Channel ".
type SalesRow struct {
	OrderID        string `csv:"Order ID"`
	Date           string `csv:"Date"`
	Status         string `csv:"Status"`
	Fulfilment     string `csv:"Fulfilment"`
	SalesChannel   string `csv:"Sales Channel "`
	ServiceLevel   string `csv:"ship-service-level"`
	Style          string `csv:"Style"`
	SKU            string `csv:"SKU"`
	Category       string `csv:"Category"`
	Size           string `csv:"Size"`
	ASIN           string `csv:"ASIN"`
	CourierStatus  string `csv:"Courier Status"`
	Qty            string `csv:"Qty"`
	Currency       string `csv:"currency"`
	Amount         string `csv:"Amount"`
	ShipCity       string `csv:"ship-city"`
	ShipState      string `csv:"ship-state"`
	ShipPostalCode string `csv:"ship-postal-code"`
	ShipCountry    string `csv:"ship-country"`
	PromotionIDs   string `csv:"promotion-ids"`
	B2B            string `csv:"B2B"`
	FulfilledBy    string `csv:"fulfilled-by"`
}

// Address holds the ship-to columns. It appears twice per document,
// once as customer and once as region, as two independent copies.
type Address struct {
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
	Country    string `bson:"country" json:"country"`
}

// Product groups the style/SKU/category columns.
type Product struct {
	Style    string `bson:"style" json:"style"`
	SKU      string `bson:"sku" json:"sku"`
	Category string `bson:"category" json:"category"`
	Size     string `bson:"size" json:"size"`
	ASIN     string `bson:"asin" json:"asin"`
}

// Sales groups channel and money columns.
type Sales struct {
	Channel      string  `bson:"channel" json:"channel"`
	Fulfilment   string  `bson:"fulfilment" json:"fulfilment"`
	ServiceLevel string  `bson:"service_level" json:"service_level"`
	Quantity     int64   `bson:"quantity" json:"quantity"`
	Currency     string  `bson:"currency" json:"currency"`
	Amount       float64 `bson:"amount" json:"amount"`
	B2B          bool    `bson:"b2b" json:"b2b"`
}

// Fulfillment groups the delivery columns.
type Fulfillment struct {
	FulfilledBy   string `bson:"fulfilled_by" json:"fulfilled_by"`
	CourierStatus string `bson:"courier_status" json:"courier_status"`
}

// OrderDocument is the nested shape persisted to the document store.
// One CSV row produces exactly one document.
type OrderDocument struct {
	OrderID     string      `bson:"order_id" json:"order_id"`
	Date        time.Time   `bson:"date" json:"date"`
	Status      string      `bson:"status" json:"status"`
	Customer    Address     `bson:"customer" json:"customer"`
	Product     Product     `bson:"product" json:"product"`
	Region      Address     `bson:"region" json:"region"`
	Sales       Sales       `bson:"sales" json:"sales"`
	Fulfillment Fulfillment `bson:"fulfillment" json:"fulfillment"`
	Promotions  []string    `bson:"promotions" json:"promotions"`
}

// Dotted field paths used by filters, pipelines, and indexes.
const (
	FieldOrderID         = "order_id"
	FieldDate            = "date"
	FieldStatus          = "status"
	FieldCustomerState   = "customer.state"
	FieldProductCategory = "product.category"
	FieldProductSKU      = "product.sku"
	FieldRegionState     = "region.state"
	FieldRegionCity      = "region.city"
	FieldSalesAmount     = "sales.amount"
	FieldSalesQuantity   = "sales.quantity"
	FieldSalesChannel    = "sales.channel"
	FieldFulfilledBy     = "fulfillment.fulfilled_by"
	FieldCourierStatus   = "fulfillment.courier_status"
)

// Field resolves a dotted path against the document. The embedded
// backends use this to evaluate predicates and group keys without
// reflection. Unknown paths report false.
func (d *OrderDocument) Field(path string) (any, bool) {
	switch path {
	case FieldOrderID:
		return d.OrderID, true
	case FieldDate:
		return d.Date, true
	case FieldStatus:
		return d.Status, true
	case FieldCustomerState:
		return d.Customer.State, true
	case "customer.city":
		return d.Customer.City, true
	case FieldProductCategory:
		return d.Product.Category, true
	case FieldProductSKU:
		return d.Product.SKU, true
	case "product.style":
		return d.Product.Style, true
	case FieldRegionState:
		return d.Region.State, true
	case FieldRegionCity:
		return d.Region.City, true
	case FieldSalesAmount:
		return d.Sales.Amount, true
	case FieldSalesQuantity:
		return d.Sales.Quantity, true
	case FieldSalesChannel:
		return d.Sales.Channel, true
	case "sales.currency":
		return d.Sales.Currency, true
	case "sales.b2b":
		return d.Sales.B2B, true
	case FieldFulfilledBy:
		return d.Fulfillment.FulfilledBy, true
	case FieldCourierStatus:
		return d.Fulfillment.CourierStatus, true
	default:
		return nil, false
	}
}

// SetField writes a dotted path on the document. Only the paths the
// update operations target are writable; unknown paths report false so
// the caller can surface them instead of silently dropping the set.
func (d *OrderDocument) SetField(path string, v any) bool {
	switch path {
	case FieldStatus:
		s, ok := v.(string)
		if !ok {
			return false
		}
		d.Status = s
	case FieldCourierStatus:
		s, ok := v.(string)
		if !ok {
			return false
		}
		d.Fulfillment.CourierStatus = s
	case FieldFulfilledBy:
		s, ok := v.(string)
		if !ok {
			return false
		}
		d.Fulfillment.FulfilledBy = s
	case FieldSalesAmount:
		switch n := v.(type) {
		case float64:
			d.Sales.Amount = n
		case int:
			d.Sales.Amount = float64(n)
		case int64:
			d.Sales.Amount = float64(n)
		default:
			return false
		}
	case FieldSalesQuantity:
		switch n := v.(type) {
		case int64:
			d.Sales.Quantity = n
		case int:
			d.Sales.Quantity = int64(n)
		default:
			return false
		}
	default:
		return false
	}
	return true
}
