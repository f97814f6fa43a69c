// Package inventory holds the uploaded stock sheet and its derived views.
package inventory

import (
	"strings"
	"sync"
	"time"

	"medstore/m/domain"
)

const (
	lowStockThreshold = 10
	expiryWindowDays  = 30
)

// Store owns the current stock records. An upload replaces the whole set;
// records are never updated in place.
type Store struct {
	mu      sync.Mutex
	records []domain.StockRecord
	now     func() time.Time
}

// NewStore builds a Store using the wall clock.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock builds a Store with an injected time source.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// RecordStatus is a stock record together with its computed flags. Badges
// carry "Low Stock" and/or "Expiring Soon", or "Good" when neither applies.
type RecordStatus struct {
	domain.StockRecord
	LowStock     bool     `json:"low_stock"`
	ExpiringSoon bool     `json:"expiring_soon"`
	Badges       []string `json:"badges"`
}

// Stats summarizes the current stock sheet.
type Stats struct {
	TotalItems    int `json:"total_items"`
	LowStockCount int `json:"low_stock_count"`
	ExpiringSoon  int `json:"expiring_soon_count"`
}

// Replace swaps in a freshly parsed record set, discarding prior contents.
func (s *Store) Replace(records []domain.StockRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

// Filter returns the records whose name or supplier contains term,
// case-insensitively, preserving upload order. An empty term returns all
// records. Each result carries its computed status flags.
func (s *Store) Filter(term string) []RecordStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	term = strings.ToLower(term)
	results := make([]RecordStatus, 0, len(s.records))
	for _, rec := range s.records {
		if term != "" &&
			!strings.Contains(strings.ToLower(rec.Name), term) &&
			!strings.Contains(strings.ToLower(rec.Supplier), term) {
			continue
		}
		results = append(results, statusOf(rec, now))
	}
	return results
}

// Stats recomputes the summary counts from the full record set.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats := Stats{TotalItems: len(s.records)}
	for _, rec := range s.records {
		if IsLowStock(rec.Quantity) {
			stats.LowStockCount++
		}
		if IsExpiringSoon(rec.Expiry, now) {
			stats.ExpiringSoon++
		}
	}
	return stats
}

func statusOf(rec domain.StockRecord, now time.Time) RecordStatus {
	status := RecordStatus{
		StockRecord:  rec,
		LowStock:     IsLowStock(rec.Quantity),
		ExpiringSoon: IsExpiringSoon(rec.Expiry, now),
	}
	if status.LowStock {
		status.Badges = append(status.Badges, "Low Stock")
	}
	if status.ExpiringSoon {
		status.Badges = append(status.Badges, "Expiring Soon")
	}
	if len(status.Badges) == 0 {
		status.Badges = []string{"Good"}
	}
	return status
}

// IsLowStock reports whether a quantity is below the fixed reorder threshold.
func IsLowStock(quantity int64) bool {
	return quantity < lowStockThreshold
}

// IsExpiringSoon reports whether expiry falls within the next 30 calendar
// days. Already-expired dates, today, and unparseable dates are not flagged.
func IsExpiringSoon(expiry string, now time.Time) bool {
	days, ok := DaysUntil(expiry, now)
	return ok && days > 0 && days <= expiryWindowDays
}

// DaysUntil returns the calendar-day difference between expiry (YYYY-MM-DD)
// and now. ok is false when expiry does not parse.
func DaysUntil(expiry string, now time.Time) (int, bool) {
	exp, err := time.Parse("2006-01-02", strings.TrimSpace(expiry))
	if err != nil {
		return 0, false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24), true
}
