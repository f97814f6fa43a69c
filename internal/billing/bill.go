// Package billing owns the in-progress invoice. Every mutating operation
// recomputes the derived totals synchronously before returning, so the bill
// handed out is never stale.
package billing

import (
	"errors"
	"sync"
	"time"

	"medstore/m/domain"
)

var (
	ErrMedicineRequired = errors.New("medicine name is required")
	ErrInvalidPrice     = errors.New("price must be greater than zero")
	ErrInvalidIndex     = errors.New("no line item at that position")
	ErrInvalidDiscount  = errors.New("discount percent must be between 0 and 100")
	ErrInvalidTax       = errors.New("tax percent must not be negative")
)

// Builder holds the working bill.
type Builder struct {
	mu   sync.Mutex
	bill domain.Bill
	now  func() time.Time
}

// New builds a Builder using the wall clock.
func New() *Builder {
	return NewWithClock(time.Now)
}

// NewWithClock builds a Builder with an injected time source.
func NewWithClock(now func() time.Time) *Builder {
	b := &Builder{now: now}
	b.bill = b.emptyBill()
	return b
}

func (b *Builder) emptyBill() domain.Bill {
	return domain.Bill{
		Date:      b.now().Format("2006-01-02"),
		LineItems: []domain.LineItem{},
	}
}

// AddLineItem appends a line to the bill. The medicine name and a positive
// unit price are required; quantity is taken as given, so a zero or negative
// quantity yields a zero or negative line total.
func (b *Builder) AddLineItem(medicine string, quantity int64, unitPrice float64) (domain.LineItem, error) {
	if medicine == "" {
		return domain.LineItem{}, ErrMedicineRequired
	}
	if unitPrice <= 0 {
		return domain.LineItem{}, ErrInvalidPrice
	}

	item := domain.LineItem{
		Medicine:  medicine,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: float64(quantity) * unitPrice,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.bill.LineItems = append(b.bill.LineItems, item)
	b.recompute()
	return item, nil
}

// RemoveLineItem deletes the line at the given position.
func (b *Builder) RemoveLineItem(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.bill.LineItems) {
		return ErrInvalidIndex
	}
	b.bill.LineItems = append(b.bill.LineItems[:index], b.bill.LineItems[index+1:]...)
	b.recompute()
	return nil
}

// SetCustomer updates the customer name on the bill.
func (b *Builder) SetCustomer(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bill.Customer = name
}

// SetSalesperson updates the salesperson on the bill.
func (b *Builder) SetSalesperson(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bill.Salesperson = name
}

// SetDate updates the bill date.
func (b *Builder) SetDate(date string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bill.Date = date
}

// SetDiscountPercent updates the discount and recomputes the totals.
func (b *Builder) SetDiscountPercent(percent float64) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidDiscount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bill.DiscountPercent = percent
	b.recompute()
	return nil
}

// SetTaxPercent updates the tax rate and recomputes the totals.
func (b *Builder) SetTaxPercent(percent float64) error {
	if percent < 0 {
		return ErrInvalidTax
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bill.TaxPercent = percent
	b.recompute()
	return nil
}

// Reset discards the working bill and starts a fresh one dated today.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bill = b.emptyBill()
}

// Bill returns a snapshot of the working bill.
func (b *Builder) Bill() domain.Bill {
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshot := b.bill
	snapshot.LineItems = make([]domain.LineItem, len(b.bill.LineItems))
	copy(snapshot.LineItems, b.bill.LineItems)
	return snapshot
}

// recompute derives subtotal, discount, tax and grand total from the current
// line items and percentages. Callers must hold the lock.
func (b *Builder) recompute() {
	b.bill.Subtotal = 0
	for _, item := range b.bill.LineItems {
		b.bill.Subtotal += item.LineTotal
	}
	b.bill.DiscountAmount = b.bill.Subtotal * b.bill.DiscountPercent / 100
	taxable := b.bill.Subtotal - b.bill.DiscountAmount
	b.bill.TaxAmount = taxable * b.bill.TaxPercent / 100
	b.bill.GrandTotal = taxable + b.bill.TaxAmount
}
