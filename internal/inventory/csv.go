package inventory

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"medstore/m/domain"
)

// SampleFileName is the download name offered for the stock template.
const SampleFileName = "sample_stock_template.csv"

// SampleCSV is the illustrative stock sheet offered for download.
const SampleCSV = `Medicine Name,Batch Number,Expiry,Quantity,MRP,Purchase Rate,Supplier
Panadol 500mg,B001,2025-12-31,50,5.50,4.00,PharmaCorp
Augmentin 625mg,B002,2025-10-15,25,45.00,35.00,MediSupply
Brufen 400mg,B003,2025-11-20,30,8.75,6.50,HealthPlus
`

// LoadFromCSV parses a stock sheet and replaces the store's contents with it.
// The first line is a header and is discarded. Rows hold 7 comma-separated
// columns: name, batch, expiry, quantity, mrp, purchase rate, supplier.
// Short rows pad with zero values; numeric fields that fail to parse become
// zero rather than rejecting the row. coerced counts such silent defaults.
func (s *Store) LoadFromCSV(r io.Reader) (loaded, coerced int, err error) {
	records, coerced, err := ParseCSV(r)
	if err != nil {
		return 0, coerced, err
	}
	s.Replace(records)
	return len(records), coerced, nil
}

// ParseCSV parses stock rows without touching any store state.
func ParseCSV(r io.Reader) ([]domain.StockRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []domain.StockRecord{}, 0, nil
		}
		return nil, 0, err
	}

	records := []domain.StockRecord{}
	coerced := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil && !errors.Is(err, csv.ErrFieldCount) {
			return nil, coerced, err
		}
		if blank(row) {
			continue
		}
		records = append(records, domain.StockRecord{
			Name:         field(row, 0),
			Batch:        field(row, 1),
			Expiry:       field(row, 2),
			Quantity:     parseQuantity(field(row, 3), &coerced),
			MRP:          parseAmount(field(row, 4), &coerced),
			PurchaseRate: parseAmount(field(row, 5), &coerced),
			Supplier:     field(row, 6),
		})
	}
	return records, coerced, nil
}

func blank(row []string) bool {
	for _, col := range row {
		if strings.TrimSpace(col) != "" {
			return false
		}
	}
	return true
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseQuantity(s string, coerced *int) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if s != "" {
			*coerced++
		}
		return 0
	}
	return n
}

func parseAmount(s string, coerced *int) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if s != "" {
			*coerced++
		}
		return 0
	}
	return f
}
