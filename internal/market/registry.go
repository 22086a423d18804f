package market

import (
	"sort"
	"sync"

	"go-tradesim/internal/common"
	"go-tradesim/pkg/models"
)

// Registry is the single source of truth for per-pair market state. Reads
// return deep copies so callers always observe a consistent snapshot while
// the simulator mutates the stored record.
type Registry struct {
	mu     sync.RWMutex
	pairs  map[int]*models.TradingPair
	byName map[string]int
	data   map[string]*models.MarketData
}

func NewRegistry() *Registry {
	return &Registry{
		pairs:  make(map[int]*models.TradingPair),
		byName: make(map[string]int),
		data:   make(map[string]*models.MarketData),
	}
}

// AddPair registers a pair and its initial market data. Pairs are created at
// startup seeding and never deleted at runtime.
func (r *Registry) AddPair(pair models.TradingPair, data models.MarketData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := pair
	r.pairs[pair.ID] = &p
	r.byName[pair.Name] = pair.ID
	d := cloneMarketData(&data)
	r.data[pair.Name] = d
}

// Get returns a snapshot of the pair's market data.
func (r *Registry) Get(pairName string) (models.MarketData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.data[pairName]
	if !ok {
		return models.MarketData{}, common.ErrPairNotFound
	}
	return *cloneMarketData(d), nil
}

// Set replaces the pair's market data.
func (r *Registry) Set(pairName string, data models.MarketData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[pairName]; !ok {
		return common.ErrPairNotFound
	}
	r.data[pairName] = cloneMarketData(&data)
	return nil
}

// ListPairs returns all pairs ordered by id.
func (r *Registry) ListPairs() []models.TradingPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.TradingPair, 0, len(r.pairs))
	for _, p := range r.pairs {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetPair looks a pair up by name.
func (r *Registry) GetPair(pairName string) (models.TradingPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[pairName]
	if !ok {
		return models.TradingPair{}, common.ErrPairNotFound
	}
	return *r.pairs[id], nil
}

// GetPairByID looks a pair up by id.
func (r *Registry) GetPairByID(id int) (models.TradingPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pairs[id]
	if !ok {
		return models.TradingPair{}, common.ErrPairNotFound
	}
	return *p, nil
}

// UpdatePairPrice writes the new price and 24h change for a pair. Numeric
// sanity is the caller's responsibility.
func (r *Registry) UpdatePairPrice(id int, price, change24h float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pairs[id]
	if !ok {
		return common.ErrPairNotFound
	}
	p.Price = price
	p.Change24h = change24h
	return nil
}

func cloneMarketData(d *models.MarketData) *models.MarketData {
	out := &models.MarketData{
		Price:     d.Price,
		Change24h: d.Change24h,
	}
	out.OrderBook.Asks = append([]models.OrderBookEntry(nil), d.OrderBook.Asks...)
	out.OrderBook.Bids = append([]models.OrderBookEntry(nil), d.OrderBook.Bids...)
	out.Candlesticks = append([]models.Candlestick(nil), d.Candlesticks...)
	return out
}
