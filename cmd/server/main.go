package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/leca/image-gateway/internal/config"
	"github.com/leca/image-gateway/internal/database"
	"github.com/leca/image-gateway/internal/gateway"
	"github.com/leca/image-gateway/internal/provider"
	"github.com/leca/image-gateway/internal/router"
	"github.com/leca/image-gateway/internal/variant"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.ValidateProvider(); err != nil {
		// Requests will answer 500 until the environment is fixed; the
		// process still starts so health checks and diagnostics work.
		slog.Warn("provider configuration incomplete", "error", err)
	}

	var store database.Store
	if cfg.PersistenceEnabled() {
		s, err := database.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	} else {
		slog.Warn("no database configured, running without metadata persistence")
	}

	client := provider.NewClient(cfg.APIBaseURL, cfg.AccountID, cfg.APIToken)

	reg := variant.Default()
	if cfg.Variants != "" {
		reg = variant.Parse(cfg.Variants)
	}

	g := gateway.New(client, store, reg, cfg, logger)
	r := router.New(g)

	slog.Info("starting server", "addr", cfg.ListenAddr, "persistence", cfg.PersistenceEnabled())
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
