package engine

import (
	"errors"
	"testing"

	"github.com/lfreitas/escrowmarket/internal/domain"
)

func TestReentrancyGuard_EnterExit(t *testing.T) {
	var g ReentrancyGuard

	if err := g.Enter(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Nested entry fails fast.
	err := g.Enter()
	if !errors.Is(err, domain.ErrReentrantCall) {
		t.Fatalf("expected reentrant_call, got %v", err)
	}

	g.Exit()
	if err := g.Enter(); err != nil {
		t.Fatalf("guard not reusable after Exit: %v", err)
	}
	g.Exit()
}

func TestReentrancyGuard_DeepNesting(t *testing.T) {
	var g ReentrancyGuard

	if err := g.Enter(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := g.Enter(); !errors.Is(err, domain.ErrReentrantCall) {
			t.Fatalf("nested entry %d: expected reentrant_call, got %v", i, err)
		}
	}
	g.Exit()
}
