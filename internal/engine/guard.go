package engine

import (
	"sync/atomic"

	"github.com/lfreitas/escrowmarket/internal/domain"
)

// ReentrancyGuard is a non-blocking lock wrapped around every fund-moving
// operation. An outbound transfer may run arbitrary counterparty logic; if
// that logic calls back into the engine, the nested call finds the guard
// held and is rejected with domain.ErrReentrantCall before it can observe
// intermediate state.
//
// The guard never blocks: external callers are serialized upstream, so a
// caller that finds the guard held is on the same call stack as the holder.
type ReentrancyGuard struct {
	held atomic.Bool
}

// Enter acquires the guard or fails fast with domain.ErrReentrantCall.
func (g *ReentrancyGuard) Enter() error {
	if !g.held.CompareAndSwap(false, true) {
		return domain.ErrReentrantCall
	}
	return nil
}

// Exit releases the guard.
func (g *ReentrancyGuard) Exit() {
	g.held.Store(false)
}
