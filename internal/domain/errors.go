package domain

import "errors"

// Sentinel errors for engine-level error handling. The handler layer maps
// these to HTTP status codes; tests match on the literal reason strings.
var (
	// Validation failures.
	ErrAmountZero     = errors.New("amount_zero")
	ErrIncorrectValue = errors.New("incorrect_value")
	ErrFeeExceedsMax  = errors.New("fee_exceeds_max")

	// Lifecycle state failures.
	ErrTradeAlreadyOpen        = errors.New("trade_already_open")
	ErrTradeNotOpen            = errors.New("trade_not_open")
	ErrInsufficientTradeAmount = errors.New("insufficient_trade_amount")

	// Authorization failures.
	ErrNotOwner                    = errors.New("not_owner")
	ErrSellerCannotExecuteOwnTrade = errors.New("seller_cannot_execute_own_trade")

	// Transfer failures, surfaced by the asset ledger or the value rail.
	ErrNotApproved         = errors.New("not_approved")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInsufficientFunds   = errors.New("insufficient_funds")
	ErrTransferFailure     = errors.New("transfer_failure")

	// Reentrancy.
	ErrReentrantCall = errors.New("reentrant_call")

	// Webhook subscriptions.
	ErrWebhookNotFound = errors.New("webhook_not_found")
)

// ErrorKind buckets engine failures for transport-level mapping.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindState
	KindAuthorization
	KindTransfer
	KindReentrancy
)

// Kind returns the taxonomy bucket for an engine error. Wrapped errors are
// classified by their sentinel (errors.Is), so a transfer_failure carrying
// the underlying cause still maps to KindTransfer.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrAmountZero),
		errors.Is(err, ErrIncorrectValue),
		errors.Is(err, ErrFeeExceedsMax):
		return KindValidation
	case errors.Is(err, ErrTradeAlreadyOpen),
		errors.Is(err, ErrTradeNotOpen),
		errors.Is(err, ErrInsufficientTradeAmount):
		return KindState
	case errors.Is(err, ErrNotOwner),
		errors.Is(err, ErrSellerCannotExecuteOwnTrade):
		return KindAuthorization
	case errors.Is(err, ErrNotApproved),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrTransferFailure):
		return KindTransfer
	case errors.Is(err, ErrReentrantCall):
		return KindReentrancy
	}
	return KindUnknown
}

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
