package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lfreitas/escrowmarket/internal/config"
	"github.com/lfreitas/escrowmarket/internal/engine"
	"github.com/lfreitas/escrowmarket/internal/handler"
	"github.com/lfreitas/escrowmarket/internal/ledger"
	"github.com/lfreitas/escrowmarket/internal/service"
	"github.com/lfreitas/escrowmarket/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ledgers. The market address is the trusted operator: escrow lives
	// under it and moves out of it without an approval.
	assets := ledger.NewMemoryAssetLedger(cfg.MarketAddress)
	values := ledger.NewMemoryValueLedger()

	// Stores.
	tradeStore := store.NewTradeStore()
	eventLog := store.NewEventLog()
	webhookStore := store.NewWebhookStore()

	// Engine.
	market, err := engine.NewMarket(
		cfg.OwnerAddress,
		cfg.MarketAddress,
		cfg.ServiceFeeBps,
		tradeStore,
		eventLog,
		assets,
		values,
	)
	if err != nil {
		logger.Error("failed to create market", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Services.
	webhookSvc := service.NewWebhookService(webhookStore, cfg.WebhookTimeout)
	marketSvc := service.NewMarketService(market, tradeStore, eventLog, webhookSvc)
	ledgerSvc := service.NewLedgerService(assets, values)

	// Router.
	router := handler.NewRouter(marketSvc, webhookSvc, ledgerSvc, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("owner", string(cfg.OwnerAddress)),
			slog.String("market", string(cfg.MarketAddress)),
			slog.Int64("service_fee_bps", cfg.ServiceFeeBps),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
