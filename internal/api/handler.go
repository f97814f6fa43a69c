package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"medstore/m/domain"
	"medstore/m/internal/billing"
	"medstore/m/internal/config"
	"medstore/m/internal/inventory"
	"medstore/m/internal/ledger"
	"medstore/m/internal/users"
)

type ctxKey string

const (
	ctxUserID   ctxKey = "userID"
	ctxUsername ctxKey = "username"
	ctxRole     ctxKey = "role"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	cfg   config.Config
	users *users.Store
	stock *inventory.Store
	book  *ledger.Ledger
	bills *billing.Builder
}

// New constructs a Handler.
func New(cfg config.Config, userStore *users.Store, stock *inventory.Store, book *ledger.Ledger, bills *billing.Builder) *Handler {
	return &Handler{cfg: cfg, users: userStore, stock: stock, book: book, bills: bills}
}

func (h *Handler) storeInfo() billing.StoreInfo {
	return billing.StoreInfo{Name: h.cfg.StoreName, Owner: h.cfg.StoreOwner, Phone: h.cfg.StorePhone}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/reset-password", h.resetPassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/stock", func(r chi.Router) {
			r.Post("/upload", h.uploadStock)
			r.Get("/", h.listStock)
			r.Get("/stats", h.stockStats)
			r.Get("/sample", h.sampleStockCSV)
		})

		pr.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.createTransaction)
			r.Get("/", h.listTransactions)
			r.Get("/summary", h.transactionSummary)
		})

		pr.Route("/bill", func(r chi.Router) {
			r.Get("/", h.getBill)
			r.Put("/", h.updateBill)
			r.Post("/items", h.addBillItem)
			r.Delete("/items/{index}", h.removeBillItem)
			r.Post("/reset", h.resetBill)
			r.Get("/print", h.printBill)
			r.Get("/share-link", h.shareLink)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(user domain.User) (string, error) {
	claims := authClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.Secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxUsername, claims.Username)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func usernameFromContext(r *http.Request) string {
	if val := r.Context().Value(ctxUsername); val != nil {
		if name, ok := val.(string); ok {
			return name
		}
	}
	return ""
}

// Auth Handlers

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		respondError(w, http.StatusBadRequest, "username, email, password and role are required")
		return
	}
	if req.Role != "owner" && req.Role != "staff" {
		respondError(w, http.StatusBadRequest, "role must be owner or staff")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	user, err := h.users.Create(req.Username, req.Email, string(hashed), req.Role)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			respondError(w, http.StatusConflict, "email already exists")
		} else {
			respondError(w, http.StatusInternalServerError, "unable to register user")
		}
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	user.Password = ""
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	user.Password = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	uid := r.Context().Value(ctxUserID).(int64)
	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}
	if err := h.users.UpdatePassword(uid, string(hashed)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// Stock handlers

func (h *Handler) uploadStock(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "a stock sheet file is required")
		return
	}
	defer file.Close()

	loaded, coerced, err := h.stock.LoadFromCSV(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to parse stock sheet: "+err.Error())
		return
	}
	if coerced > 0 {
		slog.Warn("stock upload coerced malformed numeric fields to zero", "fields", coerced)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "stock uploaded",
		"items_loaded":   loaded,
		"coerced_fields": coerced,
	})
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	respondJSON(w, http.StatusOK, h.stock.Filter(query))
}

func (h *Handler) stockStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.stock.Stats())
}

func (h *Handler) sampleStockCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inventory.SampleFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(inventory.SampleCSV))
}

// Transaction handlers

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var entry ledger.Entry
	if err := decodeJSON(r, &entry); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := h.book.Record(entry)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.book.Transactions())
}

func (h *Handler) transactionSummary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.book.Summarize())
}

// Bill handlers

type billUpdateRequest struct {
	Customer        *string  `json:"customer"`
	Salesperson     *string  `json:"salesperson"`
	Date            *string  `json:"date"`
	DiscountPercent *float64 `json:"discount_percent"`
	TaxPercent      *float64 `json:"tax_percent"`
}

func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.bills.Bill())
}

func (h *Handler) updateBill(w http.ResponseWriter, r *http.Request) {
	var req billUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Customer != nil {
		h.bills.SetCustomer(*req.Customer)
	}
	if req.Salesperson != nil {
		h.bills.SetSalesperson(*req.Salesperson)
	}
	if req.Date != nil {
		h.bills.SetDate(*req.Date)
	}
	if req.DiscountPercent != nil {
		if err := h.bills.SetDiscountPercent(*req.DiscountPercent); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.TaxPercent != nil {
		if err := h.bills.SetTaxPercent(*req.TaxPercent); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, h.bills.Bill())
}

type billItemRequest struct {
	Medicine  string  `json:"medicine"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (h *Handler) addBillItem(w http.ResponseWriter, r *http.Request) {
	var req billItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.bills.AddLineItem(req.Medicine, req.Quantity, req.UnitPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"item": item, "bill": h.bills.Bill()})
}

func (h *Handler) removeBillItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid line item index")
		return
	}
	if err := h.bills.RemoveLineItem(index); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.bills.Bill())
}

func (h *Handler) resetBill(w http.ResponseWriter, r *http.Request) {
	h.bills.Reset()
	respondJSON(w, http.StatusOK, h.bills.Bill())
}

func (h *Handler) printBill(w http.ResponseWriter, r *http.Request) {
	bill := h.bills.Bill()
	if bill.Salesperson == "" {
		bill.Salesperson = usernameFromContext(r)
	}
	doc, err := billing.RenderPrintDocument(bill, h.storeInfo())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to render bill")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (h *Handler) shareLink(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"url": billing.ShareLink(h.bills.Bill(), h.storeInfo()),
	})
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
