package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lfreitas/escrowmarket/internal/domain"
	"github.com/lfreitas/escrowmarket/internal/ledger"
	"github.com/lfreitas/escrowmarket/internal/store"
)

// Market is the escrow trading engine. It owns the authoritative trade
// registry, holds escrowed asset units and uncollected fees under its own
// address, and performs every value-for-asset exchange all-or-nothing:
// registry and fee bookkeeping are finalized before any outbound transfer,
// and a failed transfer rolls every prior mutation back.
//
// The engine assumes calls are serialized by its caller (the service layer
// queues concurrent requests). The reentrancy guard covers the one hazard
// serialization cannot remove: an outbound transfer calling back into the
// engine on the same call stack.
type Market struct {
	owner   domain.Address
	address domain.Address

	trades *store.TradeStore
	events *store.EventLog
	assets ledger.AssetLedger
	values ledger.ValueLedger

	guard      ReentrancyGuard
	serviceFee int64 // basis points
	feeBalance int64 // uncollected fees held at m.address
}

// NewMarket creates a Market with the given fee rate in basis points.
func NewMarket(
	owner domain.Address,
	address domain.Address,
	serviceFeeBps int64,
	trades *store.TradeStore,
	events *store.EventLog,
	assets ledger.AssetLedger,
	values ledger.ValueLedger,
) (*Market, error) {
	if serviceFeeBps < 0 || serviceFeeBps > domain.FeeBase {
		return nil, domain.ErrFeeExceedsMax
	}
	return &Market{
		owner:      owner,
		address:    address,
		trades:     trades,
		events:     events,
		assets:     assets,
		values:     values,
		serviceFee: serviceFeeBps,
	}, nil
}

// Address returns the engine's own address, under which escrowed units and
// fees are held.
func (m *Market) Address() domain.Address {
	return m.address
}

// Owner returns the privileged owner address.
func (m *Market) Owner() domain.Address {
	return m.owner
}

// ServiceFee returns the current fee rate in basis points.
func (m *Market) ServiceFee() int64 {
	return m.serviceFee
}

// FeeBalance returns the engine's uncollected fee balance.
func (m *Market) FeeBalance() int64 {
	return m.feeBalance
}

// Trade returns the open trade at (asset, unitID, seller), or
// domain.ErrTradeNotOpen.
func (m *Market) Trade(asset domain.Address, unitID int64, seller domain.Address) (domain.Trade, error) {
	return m.trades.Get(domain.TradeKey{Asset: asset, UnitID: unitID, Seller: seller})
}

// OpenTrade lists amount units of (asset, unitID) at the given unit price
// and pulls them from the caller into escrow. The caller must hold the
// units and have granted the engine operator approval on the asset ledger;
// ledger failures propagate verbatim. The registry record is written before
// the escrow pull and removed again if the pull fails.
func (m *Market) OpenTrade(caller, asset domain.Address, unitID, amount, price int64) (*domain.Event, error) {
	if err := m.guard.Enter(); err != nil {
		return nil, err
	}
	defer m.guard.Exit()

	if amount <= 0 {
		return nil, domain.ErrAmountZero
	}

	// The registry is consulted before the ledger: a duplicate open surfaces
	// trade_already_open even when the approval or balance check would also
	// fail.
	key := domain.TradeKey{Asset: asset, UnitID: unitID, Seller: caller}
	if _, err := m.trades.Get(key); err == nil {
		return nil, domain.ErrTradeAlreadyOpen
	}

	if !m.assets.IsOperatorApproved(asset, caller, m.address) {
		return nil, domain.ErrNotApproved
	}
	if m.assets.BalanceOf(asset, caller, unitID) < amount {
		return nil, domain.ErrInsufficientBalance
	}

	tr := domain.Trade{Price: price, Remaining: amount, OpenedAt: time.Now()}
	if err := m.trades.Open(key, tr); err != nil {
		return nil, err
	}

	if err := m.assets.Transfer(asset, caller, m.address, unitID, amount); err != nil {
		m.trades.Delete(key)
		return nil, err
	}

	return m.record(&domain.Event{
		Type:   domain.EventTradeOpened,
		Asset:  asset,
		UnitID: unitID,
		Seller: caller,
		Amount: amount,
		Price:  price,
	}), nil
}

// CloseTrade closes the caller's open trade at (asset, unitID), releasing
// the full remaining escrow back to the caller and deleting the record.
func (m *Market) CloseTrade(caller, asset domain.Address, unitID int64) (*domain.Event, error) {
	if err := m.guard.Enter(); err != nil {
		return nil, err
	}
	defer m.guard.Exit()

	key := domain.TradeKey{Asset: asset, UnitID: unitID, Seller: caller}
	tr, err := m.trades.Delete(key)
	if err != nil {
		return nil, err
	}

	if err := m.assets.Transfer(asset, m.address, caller, unitID, tr.Remaining); err != nil {
		m.trades.Open(key, tr)
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailure, err)
	}

	return m.record(&domain.Event{
		Type:   domain.EventTradeClosed,
		Asset:  asset,
		UnitID: unitID,
		Seller: caller,
	}), nil
}

// ChangePrice replaces the unit price of the caller's open trade at
// (asset, unitID). Remaining amount and escrow are untouched.
func (m *Market) ChangePrice(caller, asset domain.Address, unitID, newPrice int64) (*domain.Event, error) {
	key := domain.TradeKey{Asset: asset, UnitID: unitID, Seller: caller}
	tr, err := m.trades.Get(key)
	if err != nil {
		return nil, err
	}

	tr.Price = newPrice
	if err := m.trades.Set(key, tr); err != nil {
		return nil, err
	}

	return m.record(&domain.Event{
		Type:   domain.EventTradePriceChanged,
		Asset:  asset,
		UnitID: unitID,
		Seller: caller,
		Price:  newPrice,
	}), nil
}

// ExecuteTrade buys amount units from the seller's open trade at
// (asset, unitID). The caller must attach exactly price × amount in value;
// the attached value is collected from the caller's account, split into the
// platform fee and the seller's proceeds, and the units are delivered to
// recipient (which may differ from the caller: the buyer pays, a third
// party receives).
//
// Ordering is checks, effects, interactions: every precondition is checked
// first, all registry and fee bookkeeping is finalized next, and only then
// are the outbound transfers issued. A seller or ledger that rejects its
// transfer aborts the whole execution with domain.ErrTransferFailure and
// every mutation, including the collected payment, is rolled back.
func (m *Market) ExecuteTrade(caller, asset domain.Address, unitID int64, seller, recipient domain.Address, amount, attachedValue int64) (*domain.Event, error) {
	if err := m.guard.Enter(); err != nil {
		return nil, err
	}
	defer m.guard.Exit()

	key := domain.TradeKey{Asset: asset, UnitID: unitID, Seller: seller}
	tr, err := m.trades.Get(key)
	if err != nil {
		return nil, err
	}
	if caller == seller {
		return nil, domain.ErrSellerCannotExecuteOwnTrade
	}
	if amount <= 0 {
		return nil, domain.ErrAmountZero
	}
	if amount > tr.Remaining {
		return nil, domain.ErrInsufficientTradeAmount
	}
	total, err := domain.TotalValue(tr.Price, amount)
	if err != nil {
		return nil, err
	}
	if attachedValue != total {
		return nil, domain.ErrIncorrectValue
	}

	// Collect the payment before touching any bookkeeping; a buyer without
	// funds aborts here with nothing to roll back.
	if attachedValue > 0 {
		if err := m.values.Transfer(caller, m.address, attachedValue); err != nil {
			return nil, err
		}
	}

	fee, proceeds := domain.SplitValue(attachedValue, m.serviceFee)

	prev := tr
	tr.Remaining -= amount
	exhausted := tr.Remaining == 0
	if exhausted {
		m.trades.Delete(key)
	} else {
		m.trades.Set(key, tr)
	}
	m.feeBalance += fee

	rollback := func() {
		m.feeBalance -= fee
		if exhausted {
			m.trades.Open(key, prev)
		} else {
			m.trades.Set(key, prev)
		}
		if attachedValue > 0 {
			// Refund the collected payment. The engine holds the value, so
			// this cannot fail on a well-behaved ledger.
			_ = m.values.Transfer(m.address, caller, attachedValue)
		}
	}

	// Forward the seller's proceeds. A seller that rejects the payment
	// aborts the entire execution.
	if proceeds > 0 {
		if err := m.values.Transfer(m.address, seller, proceeds); err != nil {
			rollback()
			return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailure, err)
		}
	}

	// Deliver the units out of escrow.
	if err := m.assets.Transfer(asset, m.address, recipient, unitID, amount); err != nil {
		if proceeds > 0 {
			_ = m.values.Transfer(seller, m.address, proceeds)
		}
		rollback()
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailure, err)
	}

	return m.record(&domain.Event{
		Type:      domain.EventTradeExecuted,
		Asset:     asset,
		UnitID:    unitID,
		Seller:    seller,
		Buyer:     caller,
		Recipient: recipient,
		Amount:    amount,
		Price:     prev.Price,
	}), nil
}

// SetServiceFee replaces the global fee rate. Owner only; the new rate
// applies to subsequent executions.
func (m *Market) SetServiceFee(caller domain.Address, bps int64) error {
	if caller != m.owner {
		return domain.ErrNotOwner
	}
	if bps < 0 || bps > domain.FeeBase {
		return domain.ErrFeeExceedsMax
	}
	m.serviceFee = bps
	return nil
}

// Withdraw pays out accumulated fees to the given address. Owner only;
// the amount must not exceed the uncollected fee balance.
func (m *Market) Withdraw(caller, to domain.Address, amount int64) (*domain.Event, error) {
	if err := m.guard.Enter(); err != nil {
		return nil, err
	}
	defer m.guard.Exit()

	if caller != m.owner {
		return nil, domain.ErrNotOwner
	}
	if amount <= 0 {
		return nil, domain.ErrAmountZero
	}
	if amount > m.feeBalance {
		return nil, domain.ErrInsufficientFunds
	}

	m.feeBalance -= amount
	if err := m.values.Transfer(m.address, to, amount); err != nil {
		m.feeBalance += amount
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailure, err)
	}

	return m.record(&domain.Event{
		Type:      domain.EventWithdrawalCompleted,
		Recipient: to,
		Amount:    amount,
	}), nil
}

// record stamps the event and appends it to the log.
func (m *Market) record(ev *domain.Event) *domain.Event {
	ev.EventID = uuid.New().String()
	ev.At = time.Now()
	m.events.Append(ev)
	return ev
}
