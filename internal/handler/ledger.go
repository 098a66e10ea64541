package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lfreitas/escrowmarket/internal/domain"
	"github.com/lfreitas/escrowmarket/internal/service"
)

// LedgerHandler handles HTTP requests for the in-memory ledger admin
// endpoints: minting, approvals, funding, and balance queries.
type LedgerHandler struct {
	ledgerSvc *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// mintRequest is the JSON request body for POST /ledger/mint.
type mintRequest struct {
	Asset  string `json:"asset"`
	To     string `json:"to"`
	UnitID int64  `json:"unit_id"`
	Amount int64  `json:"amount"`
}

// setApprovalRequest is the JSON request body for POST /ledger/approvals.
type setApprovalRequest struct {
	Asset    string `json:"asset"`
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// fundRequest is the JSON request body for POST /ledger/fund.
type fundRequest struct {
	Owner  string `json:"owner"`
	Amount int64  `json:"amount"`
}

// balanceResponse is the JSON response for balance queries.
type balanceResponse struct {
	Balance int64 `json:"balance"`
}

// Mint handles POST /ledger/mint.
func (h *LedgerHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.ledgerSvc.Mint(service.MintRequest{
		Asset:  req.Asset,
		To:     req.To,
		UnitID: req.UnitID,
		Amount: req.Amount,
	}); err != nil {
		mapLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetApproval handles POST /ledger/approvals.
func (h *LedgerHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	var req setApprovalRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.ledgerSvc.SetApproval(service.SetApprovalRequest{
		Asset:    req.Asset,
		Owner:    req.Owner,
		Operator: req.Operator,
		Approved: req.Approved,
	}); err != nil {
		mapLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Fund handles POST /ledger/fund.
func (h *LedgerHandler) Fund(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.ledgerSvc.Fund(service.FundRequest{
		Owner:  req.Owner,
		Amount: req.Amount,
	}); err != nil {
		mapLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssetBalance handles GET /ledger/assets/{asset}/{unit_id}/{owner}.
func (h *LedgerHandler) AssetBalance(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	owner := chi.URLParam(r, "owner")

	unitID, err := strconv.ParseInt(chi.URLParam(r, "unit_id"), 10, 64)
	if err != nil || unitID < 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "unit_id must be a non-negative integer")
		return
	}

	balance, err := h.ledgerSvc.AssetBalance(asset, owner, unitID)
	if err != nil {
		mapLedgerError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// ValueBalance handles GET /ledger/value/{owner}.
func (h *LedgerHandler) ValueBalance(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	balance, err := h.ledgerSvc.ValueBalance(owner)
	if err != nil {
		mapLedgerError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// mapLedgerError maps domain errors to HTTP responses for ledger endpoints.
func mapLedgerError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}
