package engine

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/lfreitas/escrowmarket/internal/domain"
	"github.com/lfreitas/escrowmarket/internal/ledger"
	"github.com/lfreitas/escrowmarket/internal/store"
)

func TestProperty_ExecutionConservesValueAndUnits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bps := rapid.Int64Range(0, domain.FeeBase).Draw(t, "bps")
		listPrice := rapid.Int64Range(0, 1_000_000_000).Draw(t, "price")
		listed := rapid.Int64Range(1, 1000).Draw(t, "listed")
		bought := rapid.Int64Range(1, listed).Draw(t, "bought")

		assets := ledger.NewMemoryAssetLedger(marketAddr)
		values := ledger.NewMemoryValueLedger()
		m, err := NewMarket(ownerAddr, marketAddr, bps, store.NewTradeStore(), store.NewEventLog(), assets, values)
		if err != nil {
			t.Fatalf("NewMarket: %v", err)
		}

		assets.Mint(assetAddr, sellerAddr, unitID, listed)
		assets.SetApproval(assetAddr, sellerAddr, marketAddr, true)
		if _, err := m.OpenTrade(sellerAddr, assetAddr, unitID, listed, listPrice); err != nil {
			t.Fatalf("OpenTrade: %v", err)
		}

		attached := listPrice * bought
		values.Credit(buyerAddr, attached)

		if _, err := m.ExecuteTrade(buyerAddr, assetAddr, unitID, sellerAddr, buyerAddr, bought, attached); err != nil {
			t.Fatalf("ExecuteTrade: %v", err)
		}

		// Value conservation: fee + proceeds == attached, and the engine's
		// held balance equals its fee bookkeeping.
		sellerGot := values.BalanceOf(sellerAddr)
		engineGot := values.BalanceOf(marketAddr)
		if sellerGot+engineGot != attached {
			t.Fatalf("seller=%d + engine=%d != attached=%d", sellerGot, engineGot, attached)
		}
		if engineGot != m.FeeBalance() {
			t.Fatalf("engine value=%d != fee balance=%d", engineGot, m.FeeBalance())
		}

		// Unit conservation: buyer's units + escrow == listed.
		buyerUnits := assets.BalanceOf(assetAddr, buyerAddr, unitID)
		escrowUnits := assets.BalanceOf(assetAddr, marketAddr, unitID)
		if buyerUnits != bought || buyerUnits+escrowUnits != listed {
			t.Fatalf("buyer=%d escrow=%d listed=%d bought=%d", buyerUnits, escrowUnits, listed, bought)
		}

		// Registry: open with the remainder, or deleted when exhausted.
		tr, err := m.Trade(assetAddr, unitID, sellerAddr)
		if bought == listed {
			if !errors.Is(err, domain.ErrTradeNotOpen) {
				t.Fatalf("expected trade_not_open after exhaustion, got %v", err)
			}
		} else {
			if err != nil || tr.Remaining != listed-bought {
				t.Fatalf("remaining = %d (err %v), want %d", tr.Remaining, err, listed-bought)
			}
		}
	})
}

func TestProperty_OpenCloseRoundTripRestoresBalances(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		minted := rapid.Int64Range(1, 1_000_000).Draw(t, "minted")
		listed := rapid.Int64Range(1, minted).Draw(t, "listed")
		listPrice := rapid.Int64Range(0, 1_000_000_000).Draw(t, "price")

		assets := ledger.NewMemoryAssetLedger(marketAddr)
		values := ledger.NewMemoryValueLedger()
		m, err := NewMarket(ownerAddr, marketAddr, feeBps, store.NewTradeStore(), store.NewEventLog(), assets, values)
		if err != nil {
			t.Fatalf("NewMarket: %v", err)
		}

		assets.Mint(assetAddr, sellerAddr, unitID, minted)
		assets.SetApproval(assetAddr, sellerAddr, marketAddr, true)

		if _, err := m.OpenTrade(sellerAddr, assetAddr, unitID, listed, listPrice); err != nil {
			t.Fatalf("OpenTrade: %v", err)
		}
		if got := assets.BalanceOf(assetAddr, marketAddr, unitID); got != listed {
			t.Fatalf("escrow = %d, want %d", got, listed)
		}

		if _, err := m.CloseTrade(sellerAddr, assetAddr, unitID); err != nil {
			t.Fatalf("CloseTrade: %v", err)
		}
		if got := assets.BalanceOf(assetAddr, sellerAddr, unitID); got != minted {
			t.Fatalf("seller = %d, want %d", got, minted)
		}
		if got := assets.BalanceOf(assetAddr, marketAddr, unitID); got != 0 {
			t.Fatalf("escrow = %d, want 0", got)
		}
	})
}

func TestProperty_PartialExecutionsSumToListing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		listed := rapid.Int64Range(1, 200).Draw(t, "listed")
		listPrice := rapid.Int64Range(1, 1_000_000).Draw(t, "price")

		assets := ledger.NewMemoryAssetLedger(marketAddr)
		values := ledger.NewMemoryValueLedger()
		m, err := NewMarket(ownerAddr, marketAddr, feeBps, store.NewTradeStore(), store.NewEventLog(), assets, values)
		if err != nil {
			t.Fatalf("NewMarket: %v", err)
		}

		assets.Mint(assetAddr, sellerAddr, unitID, listed)
		assets.SetApproval(assetAddr, sellerAddr, marketAddr, true)
		if _, err := m.OpenTrade(sellerAddr, assetAddr, unitID, listed, listPrice); err != nil {
			t.Fatalf("OpenTrade: %v", err)
		}

		// Execute random chunks until the listing is exhausted.
		var executed int64
		for executed < listed {
			chunk := rapid.Int64Range(1, listed-executed).Draw(t, "chunk")
			attached := listPrice * chunk
			values.Credit(buyerAddr, attached)
			if _, err := m.ExecuteTrade(buyerAddr, assetAddr, unitID, sellerAddr, buyerAddr, chunk, attached); err != nil {
				t.Fatalf("ExecuteTrade(chunk=%d): %v", chunk, err)
			}
			executed += chunk
		}

		if got := assets.BalanceOf(assetAddr, buyerAddr, unitID); got != listed {
			t.Fatalf("buyer units = %d, want %d", got, listed)
		}
		if got := assets.BalanceOf(assetAddr, marketAddr, unitID); got != 0 {
			t.Fatalf("escrow units = %d, want 0", got)
		}
		if _, err := m.Trade(assetAddr, unitID, sellerAddr); !errors.Is(err, domain.ErrTradeNotOpen) {
			t.Fatalf("expected trade_not_open after full exhaustion, got %v", err)
		}

		// Seller proceeds plus retained fees equal everything the buyer paid.
		total := values.BalanceOf(sellerAddr) + values.BalanceOf(marketAddr)
		if total != listPrice*listed {
			t.Fatalf("seller+engine = %d, want %d", total, listPrice*listed)
		}
	})
}
