package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lfreitas/escrowmarket/internal/domain"
	"github.com/lfreitas/escrowmarket/internal/service"
)

// TradeHandler handles HTTP requests for trade endpoints.
type TradeHandler struct {
	marketSvc *service.MarketService
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(marketSvc *service.MarketService) *TradeHandler {
	return &TradeHandler{marketSvc: marketSvc}
}

// openTradeRequest is the JSON request body for POST /trades.
type openTradeRequest struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	UnitID int64  `json:"unit_id"`
	Amount int64  `json:"amount"`
	Price  int64  `json:"price"`
}

// closeTradeRequest is the JSON request body for POST /trades/.../close.
type closeTradeRequest struct {
	Caller string `json:"caller"`
}

// changePriceRequest is the JSON request body for PATCH /trades/.../price.
type changePriceRequest struct {
	Caller   string `json:"caller"`
	NewPrice int64  `json:"new_price"`
}

// executeTradeRequest is the JSON request body for POST /trades/.../executions.
type executeTradeRequest struct {
	Caller        string `json:"caller"`
	Recipient     string `json:"recipient"`
	Amount        int64  `json:"amount"`
	AttachedValue int64  `json:"attached_value"`
}

// tradeResponse is a single open trade in the response.
type tradeResponse struct {
	Asset     string `json:"asset"`
	UnitID    int64  `json:"unit_id"`
	Seller    string `json:"seller"`
	Price     int64  `json:"price"`
	Remaining int64  `json:"remaining"`
	OpenedAt  string `json:"opened_at"`
}

// tradeListResponse is the JSON response for GET /trades/{asset}.
type tradeListResponse struct {
	Trades []tradeResponse `json:"trades"`
	Total  int             `json:"total"`
}

// OpenTrade handles POST /trades.
func (h *TradeHandler) OpenTrade(w http.ResponseWriter, r *http.Request) {
	var req openTradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ev, err := h.marketSvc.OpenTrade(service.OpenTradeRequest{
		Caller: req.Caller,
		Asset:  req.Asset,
		UnitID: req.UnitID,
		Amount: req.Amount,
		Price:  req.Price,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildEventResponse(ev))
}

// CloseTrade handles POST /trades/{asset}/{unit_id}/close.
func (h *TradeHandler) CloseTrade(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	unitID, ok := parseUnitID(w, r)
	if !ok {
		return
	}

	var req closeTradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ev, err := h.marketSvc.CloseTrade(service.CloseTradeRequest{
		Caller: req.Caller,
		Asset:  asset,
		UnitID: unitID,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildEventResponse(ev))
}

// ChangePrice handles PATCH /trades/{asset}/{unit_id}/price.
func (h *TradeHandler) ChangePrice(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	unitID, ok := parseUnitID(w, r)
	if !ok {
		return
	}

	var req changePriceRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ev, err := h.marketSvc.ChangePrice(service.ChangePriceRequest{
		Caller:   req.Caller,
		Asset:    asset,
		UnitID:   unitID,
		NewPrice: req.NewPrice,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildEventResponse(ev))
}

// ExecuteTrade handles POST /trades/{asset}/{unit_id}/{seller}/executions.
func (h *TradeHandler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	seller := chi.URLParam(r, "seller")
	unitID, ok := parseUnitID(w, r)
	if !ok {
		return
	}

	var req executeTradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ev, err := h.marketSvc.ExecuteTrade(service.ExecuteTradeRequest{
		Caller:        req.Caller,
		Asset:         asset,
		UnitID:        unitID,
		Seller:        seller,
		Recipient:     req.Recipient,
		Amount:        req.Amount,
		AttachedValue: req.AttachedValue,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildEventResponse(ev))
}

// GetTrade handles GET /trades/{asset}/{unit_id}/{seller}.
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	seller := chi.URLParam(r, "seller")
	unitID, ok := parseUnitID(w, r)
	if !ok {
		return
	}

	trade, err := h.marketSvc.GetTrade(asset, unitID, seller)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildTradeResponse(domain.TradeKey{
		Asset:  domain.Address(asset),
		UnitID: unitID,
		Seller: domain.Address(seller),
	}, trade))
}

// ListTrades handles GET /trades/{asset}.
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	trades, total, err := h.marketSvc.ListTrades(asset, page, limit)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	resp := tradeListResponse{
		Trades: make([]tradeResponse, len(trades)),
		Total:  total,
	}
	for i, t := range trades {
		resp.Trades[i] = buildTradeResponse(t.Key, t.Trade)
	}

	WriteJSON(w, http.StatusOK, resp)
}

// buildTradeResponse converts a stored trade to its response form.
func buildTradeResponse(key domain.TradeKey, t domain.Trade) tradeResponse {
	return tradeResponse{
		Asset:     string(key.Asset),
		UnitID:    key.UnitID,
		Seller:    string(key.Seller),
		Price:     t.Price,
		Remaining: t.Remaining,
		OpenedAt:  t.OpenedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// parseUnitID parses the unit_id URL parameter, writing a validation error
// on failure.
func parseUnitID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "unit_id")
	unitID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || unitID < 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "unit_id must be a non-negative integer")
		return 0, false
	}
	return unitID, true
}

// parsePagination parses the page and limit query parameters with defaults
// of 1 and 20, writing a validation error on malformed input. Range checks
// are left to the service.
func parsePagination(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page := 1
	limit := 20

	if raw := r.URL.Query().Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be an integer")
			return 0, 0, false
		}
		page = v
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
			return 0, 0, false
		}
		limit = v
	}

	return page, limit, true
}

// mapMarketError maps domain errors to HTTP responses for market endpoints.
func mapMarketError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrAmountZero):
		WriteError(w, http.StatusBadRequest, "amount_zero", err.Error())
	case errors.Is(err, domain.ErrIncorrectValue):
		WriteError(w, http.StatusBadRequest, "incorrect_value", err.Error())
	case errors.Is(err, domain.ErrFeeExceedsMax):
		WriteError(w, http.StatusBadRequest, "fee_exceeds_max", err.Error())
	case errors.Is(err, domain.ErrTradeNotOpen):
		WriteError(w, http.StatusNotFound, "trade_not_open", err.Error())
	case errors.Is(err, domain.ErrTradeAlreadyOpen):
		WriteError(w, http.StatusConflict, "trade_already_open", err.Error())
	case errors.Is(err, domain.ErrInsufficientTradeAmount):
		WriteError(w, http.StatusConflict, "insufficient_trade_amount", err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		WriteError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, domain.ErrSellerCannotExecuteOwnTrade):
		WriteError(w, http.StatusForbidden, "seller_cannot_execute_own_trade", err.Error())
	case errors.Is(err, domain.ErrNotApproved):
		WriteError(w, http.StatusConflict, "not_approved", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		WriteError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, domain.ErrTransferFailure):
		WriteError(w, http.StatusConflict, "transfer_failure", err.Error())
	case errors.Is(err, domain.ErrReentrantCall):
		WriteError(w, http.StatusConflict, "reentrant_call", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
