package domain

import "math"

// FeeBase is the denominator for service fees expressed in basis points:
// 10000 bps = 100%.
const FeeBase = 10000

// TotalValue returns price × amount, the exact value a buyer must attach
// to execute a trade. It returns ErrIncorrectValue when the product does
// not fit in int64, since no attachable value could match it. Both inputs
// must be non-negative.
func TotalValue(price, amount int64) (int64, error) {
	if price == 0 || amount == 0 {
		return 0, nil
	}
	if price > math.MaxInt64/amount {
		return 0, ErrIncorrectValue
	}
	return price * amount, nil
}

// SplitValue splits an execution value into the platform fee and the
// seller's proceeds. The fee is floor(value × bps / FeeBase); truncation
// favors the seller, never the platform.
//
// Computed as (value/FeeBase)*bps + (value%FeeBase)*bps/FeeBase, which
// equals the floored product for every non-negative value and bps in
// [0, FeeBase] without overflowing int64.
func SplitValue(value, bps int64) (fee, proceeds int64) {
	fee = (value/FeeBase)*bps + (value%FeeBase)*bps/FeeBase
	return fee, value - fee
}
