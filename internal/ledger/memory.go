package ledger

import (
	"sync"

	"github.com/lfreitas/escrowmarket/internal/domain"
)

// MemoryAssetLedger is a thread-safe in-memory AssetLedger covering any
// number of asset contracts. It is the reference implementation wired into
// the binary and the well-behaved fixture used in tests.
//
// The ledger is constructed with the engine's address as its trusted
// operator: an account's units may be moved either by the account itself
// (from == operator is the escrow-release case, since the engine owns the
// escrowed units) or by the operator after the account has granted
// approval.
type MemoryAssetLedger struct {
	mu        sync.RWMutex
	operator  domain.Address
	balances  map[domain.Address]map[int64]map[domain.Address]int64 // asset → unit → owner → amount
	approvals map[domain.Address]map[domain.Address]map[domain.Address]bool // asset → owner → operator
}

// NewMemoryAssetLedger creates an empty ledger trusting the given operator.
func NewMemoryAssetLedger(operator domain.Address) *MemoryAssetLedger {
	return &MemoryAssetLedger{
		operator:  operator,
		balances:  make(map[domain.Address]map[int64]map[domain.Address]int64),
		approvals: make(map[domain.Address]map[domain.Address]map[domain.Address]bool),
	}
}

// Mint credits newly created units to an owner.
func (l *MemoryAssetLedger) Mint(asset, to domain.Address, unitID, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(asset, to, unitID, amount)
}

// SetApproval grants or revokes an operator's right to move the owner's
// units for the given asset.
func (l *MemoryAssetLedger) SetApproval(asset, owner, operator domain.Address, approved bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.approvals[asset] == nil {
		l.approvals[asset] = make(map[domain.Address]map[domain.Address]bool)
	}
	if l.approvals[asset][owner] == nil {
		l.approvals[asset][owner] = make(map[domain.Address]bool)
	}
	l.approvals[asset][owner][operator] = approved
}

// BalanceOf returns the owner's balance of a unit, zero if never credited.
func (l *MemoryAssetLedger) BalanceOf(asset, owner domain.Address, unitID int64) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[asset][unitID][owner]
}

// IsOperatorApproved reports whether the owner has granted the operator
// approval for the asset.
func (l *MemoryAssetLedger) IsOperatorApproved(asset, owner, operator domain.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.approvals[asset][owner][operator]
}

// Transfer moves units between accounts. The amount must be positive, and
// the sender must either be the trusted operator moving its own units, or
// have granted the operator approval. Fails with domain.ErrAmountZero,
// domain.ErrNotApproved, or domain.ErrInsufficientBalance.
func (l *MemoryAssetLedger) Transfer(asset, from, to domain.Address, unitID, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return domain.ErrAmountZero
	}
	if from != l.operator && !l.approvals[asset][from][l.operator] {
		return domain.ErrNotApproved
	}
	if l.balances[asset][unitID][from] < amount {
		return domain.ErrInsufficientBalance
	}

	l.balances[asset][unitID][from] -= amount
	l.credit(asset, to, unitID, amount)
	return nil
}

// credit adds units to an owner, creating nested maps as needed.
// Caller must hold the write lock.
func (l *MemoryAssetLedger) credit(asset, to domain.Address, unitID, amount int64) {
	if l.balances[asset] == nil {
		l.balances[asset] = make(map[int64]map[domain.Address]int64)
	}
	if l.balances[asset][unitID] == nil {
		l.balances[asset][unitID] = make(map[domain.Address]int64)
	}
	l.balances[asset][unitID][to] += amount
}

// MemoryValueLedger is a thread-safe in-memory ValueLedger.
type MemoryValueLedger struct {
	mu       sync.RWMutex
	balances map[domain.Address]int64
}

// NewMemoryValueLedger creates an empty value ledger.
func NewMemoryValueLedger() *MemoryValueLedger {
	return &MemoryValueLedger{
		balances: make(map[domain.Address]int64),
	}
}

// Credit funds an account.
func (l *MemoryValueLedger) Credit(owner domain.Address, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[owner] += amount
}

// BalanceOf returns the account's balance, zero if never funded.
func (l *MemoryValueLedger) BalanceOf(owner domain.Address) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[owner]
}

// Transfer moves value between accounts. The amount must be positive.
// Fails with domain.ErrAmountZero or, when the sender's balance is too low,
// domain.ErrInsufficientFunds.
func (l *MemoryValueLedger) Transfer(from, to domain.Address, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return domain.ErrAmountZero
	}
	if l.balances[from] < amount {
		return domain.ErrInsufficientFunds
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
