package store

import (
	"sync"

	"github.com/google/btree"

	"github.com/lfreitas/escrowmarket/internal/domain"
)

// keyLess orders trade keys by (asset, unit_id, seller) so listings walk
// an asset's open trades in deterministic storefront order.
func keyLess(a, b domain.TradeKey) bool {
	if a.Asset != b.Asset {
		return a.Asset < b.Asset
	}
	if a.UnitID != b.UnitID {
		return a.UnitID < b.UnitID
	}
	return a.Seller < b.Seller
}

// OpenTrade pairs a trade record with its key, for listings.
type OpenTrade struct {
	Key   domain.TradeKey
	Trade domain.Trade
}

// TradeStore is the authoritative registry of open trades: a thread-safe
// map keyed by (asset, unit_id, seller) with a B-tree index for ordered
// listing. Records are stored by value; readers always get copies, so no
// reference to store-internal state ever escapes.
//
// A trade is open exactly while its record is present. There is no status
// field: Open/Delete are the state machine's transitions.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[domain.TradeKey]domain.Trade
	index  *btree.BTreeG[domain.TradeKey]
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	const degree = 32
	return &TradeStore{
		trades: make(map[domain.TradeKey]domain.Trade),
		index:  btree.NewG[domain.TradeKey](degree, keyLess),
	}
}

// Open records a new open trade. It returns domain.ErrTradeAlreadyOpen if
// the key already has an open trade.
func (s *TradeStore) Open(key domain.TradeKey, t domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trades[key]; exists {
		return domain.ErrTradeAlreadyOpen
	}
	s.trades[key] = t
	s.index.ReplaceOrInsert(key)
	return nil
}

// Get retrieves the open trade at key. It returns domain.ErrTradeNotOpen
// if no open trade exists.
func (s *TradeStore) Get(key domain.TradeKey) (domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trades[key]
	if !ok {
		return domain.Trade{}, domain.ErrTradeNotOpen
	}
	return t, nil
}

// Set replaces the record of an already-open trade (repricing, partial
// execution). It returns domain.ErrTradeNotOpen if the key is not open.
func (s *TradeStore) Set(key domain.TradeKey, t domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trades[key]; !exists {
		return domain.ErrTradeNotOpen
	}
	s.trades[key] = t
	return nil
}

// Delete closes the trade at key and returns its final record. It returns
// domain.ErrTradeNotOpen if no open trade exists.
func (s *TradeStore) Delete(key domain.TradeKey) (domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trades[key]
	if !ok {
		return domain.Trade{}, domain.ErrTradeNotOpen
	}
	delete(s.trades, key)
	s.index.Delete(key)
	return t, nil
}

// ListByAsset returns the asset's open trades in (unit_id, seller) order.
// Pagination is 1-based. Returns the requested page and the total count of
// open trades for the asset (before pagination).
func (s *TradeStore) ListByAsset(asset domain.Address, page, limit int) ([]OpenTrade, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]OpenTrade, 0)
	pivot := domain.TradeKey{Asset: asset}
	s.index.AscendGreaterOrEqual(pivot, func(key domain.TradeKey) bool {
		if key.Asset != asset {
			return false
		}
		all = append(all, OpenTrade{Key: key, Trade: s.trades[key]})
		return true
	})

	total := len(all)

	start := (page - 1) * limit
	if start >= total {
		return []OpenTrade{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total
}
