package domain

// LineItem is one row of an in-progress bill.
type LineItem struct {
	Medicine  string  `json:"medicine"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// Bill is the working invoice document. GrandTotal and the breakdown fields
// are derived from the line items and percentages, never set directly.
type Bill struct {
	Customer        string     `json:"customer"`
	Salesperson     string     `json:"salesperson"`
	Date            string     `json:"date"`
	LineItems       []LineItem `json:"line_items"`
	DiscountPercent float64    `json:"discount_percent"`
	TaxPercent      float64    `json:"tax_percent"`
	Subtotal        float64    `json:"subtotal"`
	DiscountAmount  float64    `json:"discount_amount"`
	TaxAmount       float64    `json:"tax_amount"`
	GrandTotal      float64    `json:"grand_total"`
}
