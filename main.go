package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"medstore/m/internal/api"
	"medstore/m/internal/billing"
	"medstore/m/internal/config"
	"medstore/m/internal/inventory"
	"medstore/m/internal/ledger"
	"medstore/m/internal/logging"
	"medstore/m/internal/users"
)

func main() {
	_ = godotenv.Load()
	logging.Setup()

	cfg := config.Load()

	handler := api.New(cfg, users.NewStore(), inventory.NewStore(), ledger.New(), billing.New())

	slog.Info("medstore server starting", "port", cfg.HTTPPort, "store", cfg.StoreName)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
