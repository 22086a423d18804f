package market

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-tradesim/internal/common"
	"go-tradesim/internal/config"
	"go-tradesim/pkg/models"
)

func testPair(id int, name string, price float64) (models.TradingPair, models.MarketData) {
	pair := models.TradingPair{
		ID:         id,
		Name:       name,
		BaseAsset:  "BTC",
		QuoteAsset: "USD",
		Price:      price,
		CategoryID: common.CategoryCrypto,
		IsActive:   true,
	}
	data := models.MarketData{
		Price: price,
		OrderBook: models.OrderBook{
			Asks: []models.OrderBookEntry{{Price: price + 1, Size: 1, Total: 1}},
			Bids: []models.OrderBookEntry{{Price: price - 1, Size: 1, Total: 1}},
		},
		Candlesticks: []models.Candlestick{
			{Time: time.Now().UnixMilli(), Open: price, High: price, Low: price, Close: price, Volume: 10},
		},
	}
	return pair, data
}

func TestRegistryGetUnknownPair(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("BTC/USD")
	assert.ErrorIs(t, err, common.ErrPairNotFound)

	_, err = r.GetPair("BTC/USD")
	assert.ErrorIs(t, err, common.ErrPairNotFound)

	_, err = r.GetPairByID(42)
	assert.ErrorIs(t, err, common.ErrPairNotFound)

	err = r.Set("BTC/USD", models.MarketData{})
	assert.ErrorIs(t, err, common.ErrPairNotFound)

	err = r.UpdatePairPrice(42, 1, 0)
	assert.ErrorIs(t, err, common.ErrPairNotFound)
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	pair, data := testPair(1, "BTC/USD", 50000)
	r.AddPair(pair, data)

	snap, err := r.Get("BTC/USD")
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the registry.
	snap.Price = 0
	snap.OrderBook.Asks[0].Size = 999
	snap.Candlesticks[0].Close = 0

	fresh, err := r.Get("BTC/USD")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, fresh.Price)
	assert.Equal(t, 1.0, fresh.OrderBook.Asks[0].Size)
	assert.Equal(t, 50000.0, fresh.Candlesticks[0].Close)
}

func TestRegistrySetReplacesData(t *testing.T) {
	r := NewRegistry()
	pair, data := testPair(1, "BTC/USD", 50000)
	r.AddPair(pair, data)

	data.Price = 51000
	require.NoError(t, r.Set("BTC/USD", data))

	snap, err := r.Get("BTC/USD")
	require.NoError(t, err)
	assert.Equal(t, 51000.0, snap.Price)
}

func TestRegistryUpdatePairPrice(t *testing.T) {
	r := NewRegistry()
	pair, data := testPair(7, "ETH/USD", 3000)
	r.AddPair(pair, data)

	require.NoError(t, r.UpdatePairPrice(7, 3100, 2.5))

	got, err := r.GetPairByID(7)
	require.NoError(t, err)
	assert.Equal(t, 3100.0, got.Price)
	assert.Equal(t, 2.5, got.Change24h)
}

func TestRegistryListPairsOrdered(t *testing.T) {
	r := NewRegistry()
	for _, id := range []int{3, 1, 2} {
		pair, data := testPair(id, "PAIR/"+string(rune('0'+id)), 100)
		r.AddPair(pair, data)
	}

	pairs := r.ListPairs()
	require.Len(t, pairs, 3)
	for i, p := range pairs {
		assert.Equal(t, i+1, p.ID)
	}
}

func TestSeed(t *testing.T) {
	r := NewRegistry()
	rng := rand.New(rand.NewSource(42))
	Seed(r, []config.PairConfig{
		{ID: 1, Name: "BTC/USD", BaseAsset: "BTC", QuoteAsset: "USD", Price: 50000, CategoryID: common.CategoryCrypto},
		{ID: 2, Name: "EUR/USD", BaseAsset: "EUR", QuoteAsset: "USD", Price: 1.08, CategoryID: common.CategoryForex},
	}, rng, time.Now())

	pairs := r.ListPairs()
	require.Len(t, pairs, 2)

	for _, pair := range pairs {
		assert.True(t, pair.IsActive)
		assert.Greater(t, pair.Price, 0.0)

		data, err := r.Get(pair.Name)
		require.NoError(t, err)
		assert.Equal(t, pair.Price, data.Price)
		require.Len(t, data.Candlesticks, seedCandleCount)
		assertCandleInvariants(t, data.Candlesticks)
		assertOrderBookInvariants(t, data.OrderBook)

		// The pair price matches the last close so charts start coherent.
		assert.Equal(t, data.Candlesticks[len(data.Candlesticks)-1].Close, pair.Price)
	}
}

func assertCandleInvariants(t *testing.T, candles []models.Candlestick) {
	t.Helper()
	assert.LessOrEqual(t, len(candles), common.MaxCandleHistory)
	for i, c := range candles {
		assert.GreaterOrEqual(t, c.High, c.Open, "candle %d high < open", i)
		assert.GreaterOrEqual(t, c.High, c.Close, "candle %d high < close", i)
		assert.LessOrEqual(t, c.Low, c.Open, "candle %d low > open", i)
		assert.LessOrEqual(t, c.Low, c.Close, "candle %d low > close", i)
		assert.GreaterOrEqual(t, c.Volume, 0.0, "candle %d negative volume", i)
		if i > 0 {
			assert.Greater(t, c.Time, candles[i-1].Time, "candle %d out of order", i)
		}
	}
}

func assertOrderBookInvariants(t *testing.T, book models.OrderBook) {
	t.Helper()
	var total float64
	for i, e := range book.Asks {
		if i > 0 {
			assert.Greater(t, e.Price, book.Asks[i-1].Price, "ask %d not ascending", i)
		}
		assert.GreaterOrEqual(t, e.Size, common.MinOrderBookSize, "ask %d below size floor", i)
		total += e.Size
		assert.InDelta(t, total, e.Total, 1e-9, "ask %d cumulative total", i)
	}
	total = 0
	for i, e := range book.Bids {
		if i > 0 {
			assert.Less(t, e.Price, book.Bids[i-1].Price, "bid %d not descending", i)
		}
		assert.GreaterOrEqual(t, e.Size, common.MinOrderBookSize, "bid %d below size floor", i)
		total += e.Size
		assert.InDelta(t, total, e.Total, 1e-9, "bid %d cumulative total", i)
	}
}
