package domain

// TransactionKind distinguishes money-in from money-out entries.
type TransactionKind string

const (
	KindPurchase TransactionKind = "purchase"
	KindSale     TransactionKind = "sale"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	return k == KindPurchase || k == KindSale
}

// Transaction is a single purchase or sale ledger entry. Entries are never
// mutated or deleted after creation.
type Transaction struct {
	ID          string          `json:"id"`
	Kind        TransactionKind `json:"kind"`
	Medicine    string          `json:"medicine"`
	Quantity    int64           `json:"quantity"`
	Rate        float64         `json:"rate"`
	Total       float64         `json:"total"`
	Counterpart string          `json:"counterpart"`
	Date        string          `json:"date"`
	Batch       string          `json:"batch"`
}
