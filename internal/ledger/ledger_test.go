package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-tradesim/internal/common"
	"go-tradesim/pkg/models"
)

// stubPairs is a PairSource with settable prices.
type stubPairs struct {
	mu    sync.Mutex
	pairs map[int]models.TradingPair
}

func newStubPairs() *stubPairs {
	return &stubPairs{
		pairs: map[int]models.TradingPair{
			1: {ID: 1, Name: "BTC/USD", Price: 100, CategoryID: common.CategoryCrypto, IsActive: true},
			2: {ID: 2, Name: "EUR/USD", Price: 1.08, CategoryID: common.CategoryForex, IsActive: true},
		},
	}
}

func (s *stubPairs) GetPairByID(id int) (models.TradingPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pairs[id]
	if !ok {
		return models.TradingPair{}, common.ErrPairNotFound
	}
	return p, nil
}

func (s *stubPairs) setPrice(id int, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pairs[id]
	p.Price = price
	s.pairs[id] = p
}

func newTestLedger(balance float64) (*Ledger, *stubPairs) {
	pairs := newStubPairs()
	l := NewLedger(pairs)
	l.SeedUser(models.User{ID: 1, Username: "demo", Balance: balance})
	return l, pairs
}

func TestOpenLeverageBounds(t *testing.T) {
	l, _ := newTestLedger(10000)

	_, err := l.Open(1, 1, models.TradeSideBuy, 100, 0)
	assert.ErrorIs(t, err, common.ErrInvalidLeverage)

	_, err = l.Open(1, 1, models.TradeSideBuy, 100, 101)
	assert.ErrorIs(t, err, common.ErrInvalidLeverage)

	trade, err := l.Open(1, 1, models.TradeSideBuy, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, trade.Leverage)

	trade, err = l.Open(1, 1, models.TradeSideBuy, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, trade.Leverage)
}

func TestOpenValidations(t *testing.T) {
	l, _ := newTestLedger(1000)

	_, err := l.Open(1, 1, "hold", 100, 10)
	assert.ErrorIs(t, err, common.ErrInvalidSide)

	_, err = l.Open(1, 1, models.TradeSideBuy, 0, 10)
	assert.ErrorIs(t, err, common.ErrInvalidSize)

	_, err = l.Open(1, 99, models.TradeSideBuy, 100, 10)
	assert.ErrorIs(t, err, common.ErrPairNotFound)

	// Demo trading is crypto-only.
	_, err = l.Open(1, 2, models.TradeSideBuy, 100, 10)
	assert.ErrorIs(t, err, common.ErrUnsupportedPair)

	_, err = l.Open(42, 1, models.TradeSideBuy, 100, 10)
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = l.Open(1, 1, models.TradeSideBuy, 1001, 10)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
}

func TestOpenReservesMargin(t *testing.T) {
	l, _ := newTestLedger(1000)

	trade, err := l.Open(1, 1, models.TradeSideBuy, 200, 10)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusOpen, trade.Status)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.Nil(t, trade.ExitPrice)
	assert.Nil(t, trade.Pnl)
	assert.Nil(t, trade.ClosedAt)

	user, err := l.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, 800.0, user.Balance)
}

func TestCloseAppliesPnl(t *testing.T) {
	l, _ := newTestLedger(1000)

	trade, err := l.Open(1, 1, models.TradeSideBuy, 200, 10)
	require.NoError(t, err)

	closed, err := l.Close(trade.ID, 110)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusClosed, closed.Status)
	require.NotNil(t, closed.Pnl)
	assert.Equal(t, 200.0, *closed.Pnl)
	require.NotNil(t, closed.ExitPrice)
	assert.Equal(t, 110.0, *closed.ExitPrice)
	require.NotNil(t, closed.ClosedAt)

	// The margin reserved at open is not restored; only pnl is applied.
	user, err := l.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, user.Balance)
}

func TestCloseSellSide(t *testing.T) {
	l, _ := newTestLedger(1000)

	trade, err := l.Open(1, 1, models.TradeSideSell, 100, 5)
	require.NoError(t, err)

	// Price fell 10%: a short gains size*leverage*0.10.
	closed, err := l.Close(trade.ID, 90)
	require.NoError(t, err)
	require.NotNil(t, closed.Pnl)
	assert.Equal(t, 50.0, *closed.Pnl)
}

func TestLiquidateForfeitsMargin(t *testing.T) {
	l, _ := newTestLedger(1000)

	trade, err := l.Open(1, 1, models.TradeSideBuy, 200, 10)
	require.NoError(t, err)

	liquidated, err := l.Liquidate(trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusLiquidated, liquidated.Status)
	require.NotNil(t, liquidated.ExitPrice)
	assert.InDelta(t, 90.0, *liquidated.ExitPrice, 1e-9)
	require.NotNil(t, liquidated.Pnl)
	assert.Equal(t, -200.0, *liquidated.Pnl)

	// Margin was removed at open and the pnl removes it again: liquidation
	// costs 2x size in total.
	user, err := l.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, 600.0, user.Balance)
}

func TestCloseTwiceFails(t *testing.T) {
	l, _ := newTestLedger(1000)

	trade, err := l.Open(1, 1, models.TradeSideBuy, 200, 10)
	require.NoError(t, err)

	_, err = l.Close(trade.ID, 110)
	require.NoError(t, err)

	_, err = l.Close(trade.ID, 120)
	assert.ErrorIs(t, err, common.ErrTradeNotOpen)

	// Balance unchanged by the failed second close.
	user, err := l.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, user.Balance)
}

func TestCloseUnknownTrade(t *testing.T) {
	l, _ := newTestLedger(1000)
	_, err := l.Close(42, 110)
	assert.ErrorIs(t, err, common.ErrTradeNotFound)

	_, err = l.Liquidate(42)
	assert.ErrorIs(t, err, common.ErrTradeNotFound)
}

func TestCloseLiquidateRace(t *testing.T) {
	l, _ := newTestLedger(1000)

	trade, err := l.Open(1, 1, models.TradeSideBuy, 200, 10)
	require.NoError(t, err)

	const racers = 32
	var wg sync.WaitGroup
	successes := make(chan models.DemoTrade, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var settled models.DemoTrade
			var err error
			if i%2 == 0 {
				settled, err = l.Close(trade.ID, 110)
			} else {
				settled, err = l.Liquidate(trade.ID)
			}
			if err == nil {
				successes <- settled
			} else {
				assert.ErrorIs(t, err, common.ErrTradeNotOpen)
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	var winners []models.DemoTrade
	for s := range successes {
		winners = append(winners, s)
	}
	require.Len(t, winners, 1, "exactly one close/liquidate must win")

	user, err := l.GetUser(1)
	require.NoError(t, err)
	final, err := l.GetTrade(trade.ID)
	require.NoError(t, err)

	// The balance reflects exactly one settlement, consistent with the
	// winning path.
	switch final.Status {
	case models.TradeStatusClosed:
		assert.Equal(t, 1000.0, user.Balance)
	case models.TradeStatusLiquidated:
		assert.Equal(t, 600.0, user.Balance)
	default:
		t.Fatalf("trade left in non-terminal status %q", final.Status)
	}
}

func TestConcurrentOpensSerialized(t *testing.T) {
	l, _ := newTestLedger(1000)

	const openers = 20
	var wg sync.WaitGroup
	errs := make(chan error, openers)
	for i := 0; i < openers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Open(1, 1, models.TradeSideBuy, 100, 10)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, common.ErrInsufficientBalance)
			insufficient++
		}
	}
	assert.Equal(t, 10, ok, "only 10 opens fit the balance")
	assert.Equal(t, openers-10, insufficient)

	user, err := l.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, user.Balance)
}

func TestListAndOpenTrades(t *testing.T) {
	l, _ := newTestLedger(10000)

	first, err := l.Open(1, 1, models.TradeSideBuy, 100, 10)
	require.NoError(t, err)
	second, err := l.Open(1, 1, models.TradeSideSell, 100, 5)
	require.NoError(t, err)

	_, err = l.Close(first.ID, 110)
	require.NoError(t, err)

	all, err := l.ListTrades(1, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	none, err := l.ListTrades(1, 99)
	require.NoError(t, err)
	assert.Empty(t, none)

	open, err := l.OpenTrades(1)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)

	_, err = l.ListTrades(42, 0)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestLiquidationPrice(t *testing.T) {
	assert.InDelta(t, 90.0, LiquidationPrice(models.TradeSideBuy, 100, 10), 1e-9)
	assert.InDelta(t, 110.0, LiquidationPrice(models.TradeSideSell, 100, 10), 1e-9)
	assert.InDelta(t, 0.0, LiquidationPrice(models.TradeSideBuy, 100, 1), 1e-9)
	assert.InDelta(t, 125.0, LiquidationPrice(models.TradeSideSell, 100, 4), 1e-9)
}

func TestEntryPriceTracksMarket(t *testing.T) {
	l, pairs := newTestLedger(10000)

	pairs.setPrice(1, 123.45)
	trade, err := l.Open(1, 1, models.TradeSideBuy, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, 123.45, trade.EntryPrice)
}
