package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go-tradesim/internal/common"
	"go-tradesim/internal/metrics"
	"go-tradesim/pkg/models"
)

// LiquidationPublisher receives liquidation events for fan-out to
// subscribers of the affected pair.
type LiquidationPublisher interface {
	PublishLiquidation(pair string, userID, tradeID int, price float64)
}

// Monitor periodically scans every open position against the current market
// price and liquidates the ones whose trigger has been crossed. It runs
// independently of the price simulator, so a scan may observe a price from
// either the current or the next simulator tick.
type Monitor struct {
	ledger   *Ledger
	pairs    PairSource
	pub      LiquidationPublisher
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewMonitor(ledger *Ledger, pairs PairSource, pub LiquidationPublisher, interval time.Duration) *Monitor {
	return &Monitor{
		ledger:   ledger,
		pairs:    pairs,
		pub:      pub,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop halts the scan loop and waits for an in-flight scan to finish. Safe
// to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
	m.wg.Wait()
}

func (m *Monitor) run() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.scan()
		case <-m.done:
			return
		}
	}
}

// scan walks all open positions. A failure on one trade is logged and does
// not stop the pass; a trade settled concurrently between the price check
// and the liquidate call is skipped without error.
func (m *Monitor) scan() {
	for _, trade := range m.ledger.AllOpenTrades() {
		pair, err := m.pairs.GetPairByID(trade.PairID)
		if err != nil {
			log.Error().
				Err(err).
				Str("error_code", common.ErrCodeInvalidPair.String()).
				Str("error_message", common.ErrMsgInvalidPair.String()).
				Int("trade_id", trade.ID).
				Int("pair_id", trade.PairID).
				Msg("No pair for open trade")
			continue
		}

		liqPrice := LiquidationPrice(trade.Side, trade.EntryPrice, trade.Leverage)
		crossed := (trade.Side == models.TradeSideBuy && pair.Price <= liqPrice) ||
			(trade.Side == models.TradeSideSell && pair.Price >= liqPrice)
		if !crossed {
			continue
		}

		liquidated, err := m.ledger.Liquidate(trade.ID)
		if errors.Is(err, common.ErrTradeNotOpen) || errors.Is(err, common.ErrTradeNotFound) {
			// Lost the race against a concurrent close.
			log.Debug().Int("trade_id", trade.ID).Msg("Trade settled before liquidation, skipping")
			continue
		}
		if err != nil {
			log.Error().
				Err(err).
				Str("error_code", common.ErrCodeLiquidationFailed.String()).
				Str("error_message", common.ErrMsgLiquidationFailed.String()).
				Int("trade_id", trade.ID).
				Msg("Liquidation failed")
			continue
		}

		if m.pub != nil {
			m.pub.PublishLiquidation(pair.Name, liquidated.UserID, liquidated.ID, liqPrice)
		}

		log.Info().
			Int("trade_id", liquidated.ID).
			Int("user_id", liquidated.UserID).
			Str("pair", pair.Name).
			Float64("liquidation_price", liqPrice).
			Float64("market_price", pair.Price).
			Msg("Liquidated position")
	}
	metrics.MonitorScans.Inc()
}
