package service

import (
	"fmt"
	"sync"

	"github.com/lfreitas/escrowmarket/internal/domain"
	"github.com/lfreitas/escrowmarket/internal/engine"
	"github.com/lfreitas/escrowmarket/internal/store"
)

// ValidEventTypes lists all event type values accepted by filters and
// webhook subscriptions.
var ValidEventTypes = map[string]bool{
	domain.EventTradeOpened:         true,
	domain.EventTradeExecuted:       true,
	domain.EventTradeClosed:         true,
	domain.EventTradePriceChanged:   true,
	domain.EventWithdrawalCompleted: true,
}

// parseAddress validates an address field and converts it.
func parseAddress(field, s string) (domain.Address, error) {
	if !domain.ValidAddress(s) {
		return "", &domain.ValidationError{
			Message: field + " must be a 0x-prefixed 40-character lowercase hex address",
		}
	}
	return domain.Address(s), nil
}

// OpenTradeRequest represents the input for listing units for sale.
type OpenTradeRequest struct {
	Caller string
	Asset  string
	UnitID int64
	Amount int64
	Price  int64
}

// CloseTradeRequest represents the input for cancelling a listing.
type CloseTradeRequest struct {
	Caller string
	Asset  string
	UnitID int64
}

// ChangePriceRequest represents the input for repricing a listing.
type ChangePriceRequest struct {
	Caller   string
	Asset    string
	UnitID   int64
	NewPrice int64
}

// ExecuteTradeRequest represents the input for buying from a listing.
// AttachedValue must equal price × amount exactly; Recipient may differ
// from Caller for gift purchases.
type ExecuteTradeRequest struct {
	Caller        string
	Asset         string
	UnitID        int64
	Seller        string
	Recipient     string
	Amount        int64
	AttachedValue int64
}

// SetServiceFeeRequest represents the privileged fee-rate update.
type SetServiceFeeRequest struct {
	Caller string
	Bps    int64
}

// WithdrawRequest represents the privileged fee payout.
type WithdrawRequest struct {
	Caller string
	To     string
	Amount int64
}

// MarketService validates requests, serializes calls into the engine, and
// fans out webhook notifications for recorded events.
//
// The mutex gives the engine the strict total order it assumes: concurrent
// HTTP requests queue here instead of racing. Collaborator callbacks enter
// the engine directly and are handled by its reentrancy guard.
type MarketService struct {
	mu         sync.Mutex
	market     *engine.Market
	tradeStore *store.TradeStore
	eventLog   *store.EventLog
	webhookSvc *WebhookService
}

// NewMarketService creates a new MarketService with the given dependencies.
func NewMarketService(
	market *engine.Market,
	tradeStore *store.TradeStore,
	eventLog *store.EventLog,
	webhookSvc *WebhookService,
) *MarketService {
	return &MarketService{
		market:     market,
		tradeStore: tradeStore,
		eventLog:   eventLog,
		webhookSvc: webhookSvc,
	}
}

// OpenTrade validates the request and lists the units for sale, pulling
// them into escrow.
func (s *MarketService) OpenTrade(req OpenTradeRequest) (*domain.Event, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		return nil, err
	}
	if req.UnitID < 0 {
		return nil, &domain.ValidationError{Message: "unit_id must be non-negative"}
	}
	if req.Price < 0 {
		return nil, &domain.ValidationError{Message: "price must be non-negative"}
	}

	s.mu.Lock()
	ev, err := s.market.OpenTrade(caller, asset, req.UnitID, req.Amount, req.Price)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(ev)
	return ev, nil
}

// CloseTrade validates the request and cancels the caller's listing,
// refunding the remaining escrow.
func (s *MarketService) CloseTrade(req CloseTradeRequest) (*domain.Event, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ev, err := s.market.CloseTrade(caller, asset, req.UnitID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(ev)
	return ev, nil
}

// ChangePrice validates the request and replaces the listing's unit price.
func (s *MarketService) ChangePrice(req ChangePriceRequest) (*domain.Event, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		return nil, err
	}
	if req.NewPrice < 0 {
		return nil, &domain.ValidationError{Message: "new_price must be non-negative"}
	}

	s.mu.Lock()
	ev, err := s.market.ChangePrice(caller, asset, req.UnitID, req.NewPrice)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(ev)
	return ev, nil
}

// ExecuteTrade validates the request and settles a purchase against the
// seller's listing.
func (s *MarketService) ExecuteTrade(req ExecuteTradeRequest) (*domain.Event, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		return nil, err
	}
	seller, err := parseAddress("seller", req.Seller)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAddress("recipient", req.Recipient)
	if err != nil {
		return nil, err
	}
	if req.AttachedValue < 0 {
		return nil, &domain.ValidationError{Message: "attached_value must be non-negative"}
	}

	s.mu.Lock()
	ev, err := s.market.ExecuteTrade(caller, asset, req.UnitID, seller, recipient, req.Amount, req.AttachedValue)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(ev)
	return ev, nil
}

// SetServiceFee validates the request and replaces the global fee rate.
func (s *MarketService) SetServiceFee(req SetServiceFeeRequest) error {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.SetServiceFee(caller, req.Bps)
}

// Withdraw validates the request and pays out accumulated fees.
func (s *MarketService) Withdraw(req WithdrawRequest) (*domain.Event, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ev, err := s.market.Withdraw(caller, to, req.Amount)
	s.mu.Unlock()
	return ev, err
}

// GetTrade returns the open trade at (asset, unitID, seller).
func (s *MarketService) GetTrade(asset string, unitID int64, seller string) (domain.Trade, error) {
	assetAddr, err := parseAddress("asset", asset)
	if err != nil {
		return domain.Trade{}, err
	}
	sellerAddr, err := parseAddress("seller", seller)
	if err != nil {
		return domain.Trade{}, err
	}
	return s.market.Trade(assetAddr, unitID, sellerAddr)
}

// ListTrades returns a paginated listing of an asset's open trades in
// (unit_id, seller) order.
func (s *MarketService) ListTrades(asset string, page, limit int) ([]store.OpenTrade, int, error) {
	assetAddr, err := parseAddress("asset", asset)
	if err != nil {
		return nil, 0, err
	}
	if err := validatePagination(page, limit); err != nil {
		return nil, 0, err
	}

	trades, total := s.tradeStore.ListByAsset(assetAddr, page, limit)
	return trades, total, nil
}

// ListEvents returns a paginated, optionally type-filtered view of the
// event log, newest first.
func (s *MarketService) ListEvents(eventType *string, page, limit int) ([]*domain.Event, int, error) {
	if eventType != nil && !ValidEventTypes[*eventType] {
		return nil, 0, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown event type: %s", *eventType),
		}
	}
	if err := validatePagination(page, limit); err != nil {
		return nil, 0, err
	}

	events, total := s.eventLog.List(eventType, page, limit)
	return events, total, nil
}

// ServiceFee returns the current fee rate in basis points. The engine's fee
// fields are plain ints guarded by the service mutex, so reads take it too.
func (s *MarketService) ServiceFee() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.ServiceFee()
}

// FeeBalance returns the engine's uncollected fee balance.
func (s *MarketService) FeeBalance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.FeeBalance()
}

// notify fans the event out to the webhook subscribers it concerns:
// the seller for every trade event, plus the buyer for executions.
func (s *MarketService) notify(ev *domain.Event) {
	if s.webhookSvc == nil {
		return
	}
	switch ev.Type {
	case domain.EventTradeOpened, domain.EventTradeClosed, domain.EventTradePriceChanged:
		s.webhookSvc.Dispatch(ev.Seller, ev)
	case domain.EventTradeExecuted:
		s.webhookSvc.Dispatch(ev.Seller, ev)
		s.webhookSvc.Dispatch(ev.Buyer, ev)
	}
}

func validatePagination(page, limit int) error {
	if page < 1 {
		return &domain.ValidationError{Message: "page must be >= 1"}
	}
	if limit < 1 || limit > 100 {
		return &domain.ValidationError{Message: "limit must be between 1 and 100"}
	}
	return nil
}
