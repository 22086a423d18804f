package market

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go-tradesim/internal/common"
	"go-tradesim/internal/metrics"
	"go-tradesim/pkg/models"
)

// Publisher receives the market data produced by a simulator tick. The hub
// implements it; tests substitute a recorder.
type Publisher interface {
	PublishMarketUpdate(pair string, data models.MarketData)
}

// Simulator perturbs every active pair's price, candles and order book once
// per tick, writes the result back into the registry and hands it to the
// publisher. It owns its timer; Stop waits for an in-flight tick to finish.
type Simulator struct {
	registry *Registry
	pub      Publisher
	interval time.Duration
	rng      *rand.Rand
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSimulator(registry *Registry, pub Publisher, interval time.Duration, rng *rand.Rand) *Simulator {
	return &Simulator{
		registry: registry,
		pub:      pub,
		interval: interval,
		rng:      rng,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

func (s *Simulator) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop halts the tick loop and waits for an in-flight tick to finish. Safe
// to call more than once.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Simulator) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.done:
			return
		}
	}
}

// tick processes every active pair. A failure on one pair is contained and
// logged; the remaining pairs still get their update.
func (s *Simulator) tick() {
	for _, pair := range s.registry.ListPairs() {
		if !pair.IsActive {
			continue
		}
		s.tickPair(pair)
	}
	metrics.SimTicks.Inc()
}

func (s *Simulator) tickPair(pair models.TradingPair) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PairErrors.WithLabelValues(pair.Name).Inc()
			log.Error().
				Interface("panic", r).
				Str("error_code", common.ErrCodeSimulatorTickFailed.String()).
				Str("error_message", common.ErrMsgSimulatorTickFailed.String()).
				Str("pair", pair.Name).
				Msg("Recovered from pair tick failure")
		}
	}()

	data, err := s.registry.Get(pair.Name)
	if err != nil {
		log.Error().
			Err(err).
			Str("error_code", common.ErrCodeInvalidPair.String()).
			Str("error_message", common.ErrMsgInvalidPair.String()).
			Str("pair", pair.Name).
			Msg("No market data for pair")
		return
	}

	// Symmetric random walk of at most 0.1% per tick.
	newPrice := pair.Price * (1 + (s.rng.Float64()*0.002 - 0.001))

	// 24h change drifts in a narrow band most ticks, with a 10% chance of a
	// wider burst. Both branches are centered on zero.
	var delta float64
	if s.rng.Float64() < 0.1 {
		delta = s.rng.Float64()*0.1 - 0.05
	} else {
		delta = s.rng.Float64()*0.02 - 0.01
	}
	newChange := pair.Change24h + delta

	if err := s.registry.UpdatePairPrice(pair.ID, newPrice, newChange); err != nil {
		log.Error().
			Err(err).
			Str("error_code", common.ErrCodeSimulatorTickFailed.String()).
			Str("error_message", common.ErrMsgSimulatorTickFailed.String()).
			Str("pair", pair.Name).
			Msg("Failed to update pair price")
		return
	}

	data.Price = newPrice
	data.Change24h = newChange
	s.updateCandles(&data, newPrice)
	s.jitterOrderBook(&data.OrderBook)

	if err := s.registry.Set(pair.Name, data); err != nil {
		log.Error().
			Err(err).
			Str("error_code", common.ErrCodeSimulatorTickFailed.String()).
			Str("error_message", common.ErrMsgSimulatorTickFailed.String()).
			Str("pair", pair.Name).
			Msg("Failed to store market data")
		return
	}

	if s.pub != nil {
		s.pub.PublishMarketUpdate(pair.Name, data)
	}
	metrics.MarketUpdates.WithLabelValues(pair.Name).Inc()

	log.Debug().
		Str("pair", pair.Name).
		Float64("price", newPrice).
		Float64("change24h", newChange).
		Msg("Simulated market tick")
}

// updateCandles rolls the tail candle forward, opening a fresh bucket once
// the window has elapsed and capping the history at MaxCandleHistory.
func (s *Simulator) updateCandles(data *models.MarketData, newPrice float64) {
	nowMs := s.now().UnixMilli()

	if len(data.Candlesticks) == 0 {
		data.Candlesticks = append(data.Candlesticks, models.Candlestick{
			Time:   nowMs,
			Open:   newPrice,
			High:   newPrice,
			Low:    newPrice,
			Close:  newPrice,
			Volume: 50 + s.rng.Float64()*100,
		})
		return
	}

	last := &data.Candlesticks[len(data.Candlesticks)-1]
	if nowMs-last.Time > common.CandleWindow.Milliseconds() {
		data.Candlesticks = append(data.Candlesticks, models.Candlestick{
			Time:   nowMs,
			Open:   last.Close,
			High:   maxFloat(last.Close, newPrice),
			Low:    minFloat(last.Close, newPrice),
			Close:  newPrice,
			Volume: 50 + s.rng.Float64()*100,
		})
		if len(data.Candlesticks) > common.MaxCandleHistory {
			data.Candlesticks = data.Candlesticks[len(data.Candlesticks)-common.MaxCandleHistory:]
		}
		return
	}

	last.High = maxFloat(last.High, newPrice)
	last.Low = minFloat(last.Low, newPrice)
	last.Close = newPrice
	last.Volume += s.rng.Float64() * 5
}

// jitterOrderBook nudges the size of three random levels per side and
// recomputes the cumulative totals. Prices never change, so each side keeps
// its ordering and only the running sums need a fresh pass.
func (s *Simulator) jitterOrderBook(book *models.OrderBook) {
	for i := 0; i < 3; i++ {
		if len(book.Asks) > 0 {
			idx := s.rng.Intn(len(book.Asks))
			size := book.Asks[idx].Size + (s.rng.Float64()*0.1 - 0.05)
			book.Asks[idx].Size = maxFloat(common.MinOrderBookSize, size)
		}
		if len(book.Bids) > 0 {
			idx := s.rng.Intn(len(book.Bids))
			size := book.Bids[idx].Size + (s.rng.Float64()*0.1 - 0.05)
			book.Bids[idx].Size = maxFloat(common.MinOrderBookSize, size)
		}
	}

	var total float64
	for i := range book.Asks {
		total += book.Asks[i].Size
		book.Asks[i].Total = total
	}
	total = 0
	for i := range book.Bids {
		total += book.Bids[i].Size
		book.Bids[i].Total = total
	}
}
