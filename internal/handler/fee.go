package handler

import (
	"net/http"

	"github.com/lfreitas/escrowmarket/internal/service"
)

// FeeHandler handles HTTP requests for the fee rate and fee payouts.
type FeeHandler struct {
	marketSvc *service.MarketService
}

// NewFeeHandler creates a new FeeHandler.
func NewFeeHandler(marketSvc *service.MarketService) *FeeHandler {
	return &FeeHandler{marketSvc: marketSvc}
}

// setFeeRequest is the JSON request body for PUT /fee.
type setFeeRequest struct {
	Caller string `json:"caller"`
	Bps    int64  `json:"bps"`
}

// withdrawRequest is the JSON request body for POST /withdrawals.
type withdrawRequest struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// feeResponse is the JSON response for GET and PUT /fee.
type feeResponse struct {
	ServiceFeeBps int64 `json:"service_fee_bps"`
	FeeBalance    int64 `json:"fee_balance"`
}

// GetFee handles GET /fee.
func (h *FeeHandler) GetFee(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, feeResponse{
		ServiceFeeBps: h.marketSvc.ServiceFee(),
		FeeBalance:    h.marketSvc.FeeBalance(),
	})
}

// SetFee handles PUT /fee.
func (h *FeeHandler) SetFee(w http.ResponseWriter, r *http.Request) {
	var req setFeeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.marketSvc.SetServiceFee(service.SetServiceFeeRequest{
		Caller: req.Caller,
		Bps:    req.Bps,
	}); err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, feeResponse{
		ServiceFeeBps: h.marketSvc.ServiceFee(),
		FeeBalance:    h.marketSvc.FeeBalance(),
	})
}

// Withdraw handles POST /withdrawals.
func (h *FeeHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ev, err := h.marketSvc.Withdraw(service.WithdrawRequest{
		Caller: req.Caller,
		To:     req.To,
		Amount: req.Amount,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildEventResponse(ev))
}
