package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lfreitas/escrowmarket/internal/service"
)

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware. The ledger handler is optional:
// pass nil to run without the admin surface.
func NewRouter(
	marketSvc *service.MarketService,
	webhookSvc *service.WebhookService,
	ledgerSvc *service.LedgerService,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	tradeH := NewTradeHandler(marketSvc)
	feeH := NewFeeHandler(marketSvc)
	eventH := NewEventHandler(marketSvc)
	webhookH := NewWebhookHandler(webhookSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Trade routes.
	r.Post("/trades", tradeH.OpenTrade)
	r.Get("/trades/{asset}", tradeH.ListTrades)
	r.Get("/trades/{asset}/{unit_id}/{seller}", tradeH.GetTrade)
	r.Post("/trades/{asset}/{unit_id}/close", tradeH.CloseTrade)
	r.Patch("/trades/{asset}/{unit_id}/price", tradeH.ChangePrice)
	r.Post("/trades/{asset}/{unit_id}/{seller}/executions", tradeH.ExecuteTrade)

	// Fee routes.
	r.Get("/fee", feeH.GetFee)
	r.Put("/fee", feeH.SetFee)
	r.Post("/withdrawals", feeH.Withdraw)

	// Event log.
	r.Get("/events", eventH.List)

	// Webhook routes.
	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	// Ledger admin routes.
	if ledgerSvc != nil {
		ledgerH := NewLedgerHandler(ledgerSvc)
		r.Post("/ledger/mint", ledgerH.Mint)
		r.Post("/ledger/approvals", ledgerH.SetApproval)
		r.Post("/ledger/fund", ledgerH.Fund)
		r.Get("/ledger/assets/{asset}/{unit_id}/{owner}", ledgerH.AssetBalance)
		r.Get("/ledger/value/{owner}", ledgerH.ValueBalance)
	}

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
