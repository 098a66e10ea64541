package handler

import (
	"net/http"

	"github.com/lfreitas/escrowmarket/internal/domain"
	"github.com/lfreitas/escrowmarket/internal/service"
)

// EventHandler handles HTTP requests for the event log.
type EventHandler struct {
	marketSvc *service.MarketService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(marketSvc *service.MarketService) *EventHandler {
	return &EventHandler{marketSvc: marketSvc}
}

// eventResponse is a single recorded event in the response. Fields not
// meaningful for the event type are omitted: buyer is only set for
// executions, asset and seller are absent on withdrawals.
type eventResponse struct {
	EventID   string `json:"event_id"`
	Type      string `json:"type"`
	Asset     string `json:"asset,omitempty"`
	UnitID    int64  `json:"unit_id"`
	Seller    string `json:"seller,omitempty"`
	Buyer     string `json:"buyer,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Amount    int64  `json:"amount"`
	Price     int64  `json:"price"`
	At        string `json:"at"`
}

// eventListResponse is the JSON response for GET /events.
type eventListResponse struct {
	Events []eventResponse `json:"events"`
	Total  int             `json:"total"`
}

// List handles GET /events. Newest first, optionally filtered by type.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	var eventType *string
	if raw := r.URL.Query().Get("type"); raw != "" {
		eventType = &raw
	}

	events, total, err := h.marketSvc.ListEvents(eventType, page, limit)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	resp := eventListResponse{
		Events: make([]eventResponse, len(events)),
		Total:  total,
	}
	for i, ev := range events {
		resp.Events[i] = buildEventResponse(ev)
	}

	WriteJSON(w, http.StatusOK, resp)
}

// buildEventResponse converts a domain event to its response form.
func buildEventResponse(ev *domain.Event) eventResponse {
	return eventResponse{
		EventID:   ev.EventID,
		Type:      ev.Type,
		Asset:     string(ev.Asset),
		UnitID:    ev.UnitID,
		Seller:    string(ev.Seller),
		Buyer:     string(ev.Buyer),
		Recipient: string(ev.Recipient),
		Amount:    ev.Amount,
		Price:     ev.Price,
		At:        ev.At.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
