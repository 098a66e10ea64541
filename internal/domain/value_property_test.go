package domain

import (
	"math"
	"math/big"
	"testing"

	"pgregory.net/rapid"
)

func TestProperty_FeeAndProceedsConserveValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.Int64Range(0, math.MaxInt64).Draw(t, "value")
		bps := rapid.Int64Range(0, FeeBase).Draw(t, "bps")

		fee, proceeds := SplitValue(value, bps)

		if fee+proceeds != value {
			t.Fatalf("fee=%d + proceeds=%d != value=%d", fee, proceeds, value)
		}
		if fee < 0 || proceeds < 0 {
			t.Fatalf("negative split: fee=%d proceeds=%d", fee, proceeds)
		}
	})
}

func TestProperty_FeeMatchesFlooredBigIntProduct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.Int64Range(0, math.MaxInt64).Draw(t, "value")
		bps := rapid.Int64Range(0, FeeBase).Draw(t, "bps")

		fee, _ := SplitValue(value, bps)

		// Reference computation with arbitrary precision:
		// floor(value × bps / FeeBase).
		want := new(big.Int).Mul(big.NewInt(value), big.NewInt(bps))
		want.Div(want, big.NewInt(FeeBase))

		if want.Cmp(big.NewInt(fee)) != 0 {
			t.Fatalf("SplitValue(%d, %d) fee = %d, want %s", value, bps, fee, want)
		}
	})
}

func TestProperty_TotalValueMatchesBigIntProduct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		price := rapid.Int64Range(0, math.MaxInt64).Draw(t, "price")
		amount := rapid.Int64Range(0, 1_000_000).Draw(t, "amount")

		want := new(big.Int).Mul(big.NewInt(price), big.NewInt(amount))
		fits := want.IsInt64()

		got, err := TotalValue(price, amount)
		if fits {
			if err != nil {
				t.Fatalf("TotalValue(%d, %d) returned error for representable product: %v", price, amount, err)
			}
			if got != want.Int64() {
				t.Fatalf("TotalValue(%d, %d) = %d, want %s", price, amount, got, want)
			}
		} else if err == nil {
			t.Fatalf("TotalValue(%d, %d) should overflow, got %d", price, amount, got)
		}
	})
}
