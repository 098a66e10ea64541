package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{ErrAmountZero, KindValidation},
		{ErrIncorrectValue, KindValidation},
		{ErrFeeExceedsMax, KindValidation},
		{ErrTradeAlreadyOpen, KindState},
		{ErrTradeNotOpen, KindState},
		{ErrInsufficientTradeAmount, KindState},
		{ErrNotOwner, KindAuthorization},
		{ErrSellerCannotExecuteOwnTrade, KindAuthorization},
		{ErrNotApproved, KindTransfer},
		{ErrInsufficientBalance, KindTransfer},
		{ErrInsufficientFunds, KindTransfer},
		{ErrTransferFailure, KindTransfer},
		{ErrReentrantCall, KindReentrancy},
		{errors.New("something_else"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Fatalf("Kind(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestKind_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("%w: recipient rejected payment", ErrTransferFailure)
	if got := Kind(wrapped); got != KindTransfer {
		t.Fatalf("Kind(wrapped transfer_failure) = %d, want KindTransfer", got)
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Message: "amount must be a positive integer"}
	if err.Error() != "amount must be a positive integer" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
