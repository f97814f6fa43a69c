// Package ledger keeps the purchase/sale transaction log. Entries are
// recorded independently of the stock sheet; no quantity reconciliation is
// performed between the two.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"medstore/m/domain"
)

var (
	ErrMedicineRequired = errors.New("medicine name is required")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidRate      = errors.New("rate must be greater than zero")
	ErrInvalidKind      = errors.New("kind must be purchase or sale")
)

// Entry is the user-submitted portion of a transaction.
type Entry struct {
	Kind        domain.TransactionKind `json:"kind"`
	Medicine    string                 `json:"medicine"`
	Quantity    int64                  `json:"quantity"`
	Rate        float64                `json:"rate"`
	Counterpart string                 `json:"counterpart"`
	Batch       string                 `json:"batch"`
}

// Summary holds the aggregates derived from the full transaction list.
type Summary struct {
	TotalPurchases float64 `json:"total_purchases"`
	TotalSales     float64 `json:"total_sales"`
	TodaysCount    int     `json:"todays_count"`
	TotalCount     int     `json:"total_count"`
}

// Ledger owns the transaction list, newest first.
type Ledger struct {
	mu           sync.Mutex
	transactions []domain.Transaction
	now          func() time.Time
}

// New builds a Ledger using the wall clock.
func New() *Ledger {
	return NewWithClock(time.Now)
}

// NewWithClock builds a Ledger with an injected time source.
func NewWithClock(now func() time.Time) *Ledger {
	return &Ledger{now: now}
}

// Record validates entry and, on success, stamps it with today's date and a
// unique id and prepends it to the list. A failed validation leaves the list
// untouched.
func (l *Ledger) Record(entry Entry) (domain.Transaction, error) {
	if !entry.Kind.Valid() {
		return domain.Transaction{}, ErrInvalidKind
	}
	if entry.Medicine == "" {
		return domain.Transaction{}, ErrMedicineRequired
	}
	if entry.Quantity <= 0 {
		return domain.Transaction{}, ErrInvalidQuantity
	}
	if entry.Rate <= 0 {
		return domain.Transaction{}, ErrInvalidRate
	}

	tx := domain.Transaction{
		ID:          uuid.NewString(),
		Kind:        entry.Kind,
		Medicine:    entry.Medicine,
		Quantity:    entry.Quantity,
		Rate:        entry.Rate,
		Total:       float64(entry.Quantity) * entry.Rate,
		Counterpart: entry.Counterpart,
		Date:        l.now().Format("2006-01-02"),
		Batch:       entry.Batch,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions = append([]domain.Transaction{tx}, l.transactions...)
	return tx, nil
}

// Transactions returns a copy of the list, most recent first.
func (l *Ledger) Transactions() []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Summarize recomputes the aggregate totals from the full list.
func (l *Ledger) Summarize() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format("2006-01-02")
	summary := Summary{TotalCount: len(l.transactions)}
	for _, tx := range l.transactions {
		switch tx.Kind {
		case domain.KindPurchase:
			summary.TotalPurchases += tx.Total
		case domain.KindSale:
			summary.TotalSales += tx.Total
		}
		if tx.Date == today {
			summary.TodaysCount++
		}
	}
	return summary
}
