package domain

// StockRecord is one row of an uploaded stock sheet. Records are immutable
// once parsed; an upload replaces the whole set.
type StockRecord struct {
	Name         string  `json:"name"`
	Batch        string  `json:"batch"`
	Expiry       string  `json:"expiry"`
	Quantity     int64   `json:"quantity"`
	MRP          float64 `json:"mrp"`
	PurchaseRate float64 `json:"purchase_rate"`
	Supplier     string  `json:"supplier"`
}
