// Package ledger defines the engine's external collaborators: the asset
// ledger that tracks ownership of tradable units, and the value rail that
// carries payments. The engine is written against these interfaces so that
// hostile implementations (reject-on-receive, reenter-on-receive) can be
// injected in tests.
package ledger

import "github.com/lfreitas/escrowmarket/internal/domain"

// AssetLedger tracks ownership of semi-fungible asset units across one or
// more asset contracts. The engine never touches balances directly; it
// pulls units into escrow and releases them through Transfer.
//
// Transfer must fail with domain.ErrNotApproved when the sender has not
// granted the engine operator approval, and with
// domain.ErrInsufficientBalance when the sender holds fewer units than
// requested. The engine propagates both verbatim.
type AssetLedger interface {
	BalanceOf(asset, owner domain.Address, unitID int64) int64
	IsOperatorApproved(asset, owner, operator domain.Address) bool
	Transfer(asset, from, to domain.Address, unitID, amount int64) error
}

// ValueLedger carries native value between accounts. Transfer must fail
// with domain.ErrInsufficientFunds when the sender's balance is too low.
// An implementation may reject arbitrary transfers (a contract account
// refusing payment); the engine treats any error on an outbound transfer
// as grounds for a full rollback of the operation.
type ValueLedger interface {
	BalanceOf(owner domain.Address) int64
	Transfer(from, to domain.Address, amount int64) error
}
