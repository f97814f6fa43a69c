package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstore/m/internal/billing"
	"medstore/m/internal/config"
	"medstore/m/internal/inventory"
	"medstore/m/internal/ledger"
	"medstore/m/internal/users"
)

var testNow = time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)

func newTestHandler() http.Handler {
	clock := func() time.Time { return testNow }
	cfg := config.Config{
		Secret:     "test_secret",
		HTTPPort:   "8080",
		StoreName:  "Hassam Medical Store",
		StoreOwner: "Dr. Nasreem Shaikh",
		StorePhone: "0305-7071251",
	}
	h := New(cfg,
		users.NewStoreWithClock(clock),
		inventory.NewStoreWithClock(clock),
		ledger.NewWithClock(clock),
		billing.NewWithClock(clock),
	)
	return h.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func registerAndToken(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "sara",
		"email":    "sara@example.com",
		"password": "secret123",
		"role":     "staff",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	router := newTestHandler()
	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	router := newTestHandler()
	token := registerAndToken(t, router)

	t.Run("protected routes reject missing token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/stock/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("protected routes reject bad token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/stock/", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "other",
			"email":    "SARA@example.com",
			"password": "secret123",
			"role":     "owner",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "x",
			"email":    "x@example.com",
			"password": "secret123",
			"role":     "admin",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "sara@example.com",
			"password": "secret123",
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "sara@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("reset password", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/auth/reset-password", token, map[string]string{
			"new_password": "evenmoresecret",
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "sara@example.com",
			"password": "evenmoresecret",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func uploadCSV(t *testing.T, router http.Handler, token, csvText string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvText))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/stock/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStockEndpoints(t *testing.T) {
	router := newTestHandler()
	token := registerAndToken(t, router)

	csvText := "Medicine Name,Batch Number,Expiry,Quantity,MRP,Purchase Rate,Supplier\n" +
		"Panadol 500mg,B001,2025-06-25,5,5.50,4.00,PharmaCorp\n" +
		"Augmentin 625mg,B002,2026-10-15,25,45.00,bad,MediSupply\n"

	rec := uploadCSV(t, router, token, csvText)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var uploadResp struct {
		ItemsLoaded   int `json:"items_loaded"`
		CoercedFields int `json:"coerced_fields"`
	}
	decodeBody(t, rec, &uploadResp)
	assert.Equal(t, 2, uploadResp.ItemsLoaded)
	assert.Equal(t, 1, uploadResp.CoercedFields)

	t.Run("list with filter", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/stock/?query=pharmacorp", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var items []struct {
			Name         string   `json:"name"`
			LowStock     bool     `json:"low_stock"`
			ExpiringSoon bool     `json:"expiring_soon"`
			Badges       []string `json:"badges"`
		}
		decodeBody(t, rec, &items)
		require.Len(t, items, 1)
		assert.Equal(t, "Panadol 500mg", items[0].Name)
		assert.True(t, items[0].LowStock)
		assert.True(t, items[0].ExpiringSoon)
		assert.Equal(t, []string{"Low Stock", "Expiring Soon"}, items[0].Badges)
	})

	t.Run("stats", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/stock/stats", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var stats struct {
			TotalItems    int `json:"total_items"`
			LowStockCount int `json:"low_stock_count"`
			ExpiringSoon  int `json:"expiring_soon_count"`
		}
		decodeBody(t, rec, &stats)
		assert.Equal(t, 2, stats.TotalItems)
		assert.Equal(t, 1, stats.LowStockCount)
		assert.Equal(t, 1, stats.ExpiringSoon)
	})

	t.Run("re-upload replaces everything", func(t *testing.T) {
		rec := uploadCSV(t, router, token, "h\nBrufen 400mg,B3,2026-01-01,30,8.75,6.50,HealthPlus\n")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodGet, "/stock/", token, nil)
		var items []struct {
			Name string `json:"name"`
		}
		decodeBody(t, rec, &items)
		require.Len(t, items, 1)
		assert.Equal(t, "Brufen 400mg", items[0].Name)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/stock/upload", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sample download", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/stock/sample", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "sample_stock_template.csv")
		assert.Contains(t, rec.Body.String(), "Panadol 500mg")
	})
}

func TestTransactionEndpoints(t *testing.T) {
	router := newTestHandler()
	token := registerAndToken(t, router)

	rec := doJSON(t, router, http.MethodPost, "/transactions/", token, map[string]any{
		"kind": "purchase", "medicine": "Brufen", "quantity": 10, "rate": 6.5, "counterpart": "HealthPlus", "batch": "B3",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/transactions/", token, map[string]any{
		"kind": "sale", "medicine": "X", "quantity": 3, "rate": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var tx struct {
		ID    string  `json:"id"`
		Total float64 `json:"total"`
		Date  string  `json:"date"`
	}
	decodeBody(t, rec, &tx)
	assert.InDelta(t, 6.0, tx.Total, 0.01)
	assert.Equal(t, "2025-06-15", tx.Date)

	t.Run("invalid entry rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/transactions/", token, map[string]any{
			"kind": "sale", "medicine": "", "quantity": 3, "rate": 2,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list newest first", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/transactions/", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list []struct {
			ID string `json:"id"`
		}
		decodeBody(t, rec, &list)
		require.Len(t, list, 2)
		assert.Equal(t, tx.ID, list[0].ID)
	})

	t.Run("summary", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/transactions/summary", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var summary struct {
			TotalPurchases float64 `json:"total_purchases"`
			TotalSales     float64 `json:"total_sales"`
			TodaysCount    int     `json:"todays_count"`
			TotalCount     int     `json:"total_count"`
		}
		decodeBody(t, rec, &summary)
		assert.InDelta(t, 65.0, summary.TotalPurchases, 0.01)
		assert.InDelta(t, 6.0, summary.TotalSales, 0.01)
		assert.Equal(t, 2, summary.TodaysCount)
		assert.Equal(t, 2, summary.TotalCount)
	})
}

func TestBillEndpoints(t *testing.T) {
	router := newTestHandler()
	token := registerAndToken(t, router)

	rec := doJSON(t, router, http.MethodPost, "/bill/items", token, map[string]any{
		"medicine": "Panadol", "quantity": 2, "unit_price": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPut, "/bill/", token, map[string]any{
		"customer":         "Ali Khan",
		"discount_percent": 10,
		"tax_percent":      5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var bill struct {
		Customer       string  `json:"customer"`
		Subtotal       float64 `json:"subtotal"`
		DiscountAmount float64 `json:"discount_amount"`
		TaxAmount      float64 `json:"tax_amount"`
		GrandTotal     float64 `json:"grand_total"`
	}
	decodeBody(t, rec, &bill)
	assert.Equal(t, "Ali Khan", bill.Customer)
	assert.InDelta(t, 20.0, bill.Subtotal, 0.01)
	assert.InDelta(t, 2.0, bill.DiscountAmount, 0.01)
	assert.InDelta(t, 0.9, bill.TaxAmount, 0.01)
	assert.InDelta(t, 18.9, bill.GrandTotal, 0.01)

	t.Run("invalid item rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/bill/items", token, map[string]any{
			"medicine": "", "quantity": 1, "unit_price": 10,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid discount rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/bill/", token, map[string]any{
			"discount_percent": 150,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("print document", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/bill/print", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
		assert.Contains(t, rec.Body.String(), "Hassam Medical Store")
		assert.Contains(t, rec.Body.String(), "Ali Khan")
		// No salesperson was set, so the authenticated user is printed.
		assert.Contains(t, rec.Body.String(), "sara")
	})

	t.Run("share link", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/bill/share-link", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			URL string `json:"url"`
		}
		decodeBody(t, rec, &resp)
		assert.True(t, strings.HasPrefix(resp.URL, "https://wa.me/?text="))
		assert.Contains(t, resp.URL, "18.90")
	})

	t.Run("remove item", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, "/bill/items/0", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/bill/items/%d", 7), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("reset", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/bill/reset", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var fresh struct {
			Customer   string  `json:"customer"`
			GrandTotal float64 `json:"grand_total"`
		}
		decodeBody(t, rec, &fresh)
		assert.Empty(t, fresh.Customer)
		assert.Zero(t, fresh.GrandTotal)
	})
}
