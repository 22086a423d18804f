package market

import (
	"math/rand"
	"time"

	"go-tradesim/internal/common"
	"go-tradesim/internal/config"
	"go-tradesim/pkg/models"
)

const seedCandleCount = 50

// Seed populates the registry from the configured pairs. Each pair gets a
// random-walk candle history so charts are non-empty on first subscribe, and
// a synthetic order book of OrderBookDepth levels per side around the seed
// price.
func Seed(r *Registry, pairs []config.PairConfig, rng *rand.Rand, now time.Time) {
	for _, pc := range pairs {
		pair := models.TradingPair{
			ID:         pc.ID,
			Name:       pc.Name,
			BaseAsset:  pc.BaseAsset,
			QuoteAsset: pc.QuoteAsset,
			Price:      pc.Price,
			Change24h:  rng.Float64()*10 - 5,
			CategoryID: pc.CategoryID,
			IsActive:   true,
		}

		candles := seedCandles(pc.Price, rng, now)
		// Walk ends at the last close so the book and the pair price agree.
		pair.Price = candles[len(candles)-1].Close

		data := models.MarketData{
			Price:        pair.Price,
			Change24h:    pair.Change24h,
			OrderBook:    seedOrderBook(pair.Price, rng),
			Candlesticks: candles,
		}
		r.AddPair(pair, data)
	}
}

func seedCandles(price float64, rng *rand.Rand, now time.Time) []models.Candlestick {
	candles := make([]models.Candlestick, 0, seedCandleCount)
	windowMs := common.CandleWindow.Milliseconds()
	// The newest bucket opens at the seed time so the first simulator tick
	// mutates it instead of rolling over immediately.
	start := now.UnixMilli() - int64(seedCandleCount-1)*windowMs

	open := price
	for i := 0; i < seedCandleCount; i++ {
		closePrice := open * (1 + (rng.Float64()*0.01 - 0.005))
		high := maxFloat(open, closePrice) * (1 + rng.Float64()*0.002)
		low := minFloat(open, closePrice) * (1 - rng.Float64()*0.002)
		candles = append(candles, models.Candlestick{
			Time:   start + int64(i)*windowMs,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: 50 + rng.Float64()*100,
		})
		open = closePrice
	}
	return candles
}

func seedOrderBook(price float64, rng *rand.Rand) models.OrderBook {
	book := models.OrderBook{
		Asks: make([]models.OrderBookEntry, 0, common.OrderBookDepth),
		Bids: make([]models.OrderBookEntry, 0, common.OrderBookDepth),
	}

	var askTotal, bidTotal float64
	for i := 1; i <= common.OrderBookDepth; i++ {
		offset := price * 0.0005 * float64(i)

		askSize := 0.5 + rng.Float64()*4.5
		askTotal += askSize
		book.Asks = append(book.Asks, models.OrderBookEntry{
			Price: price + offset,
			Size:  askSize,
			Total: askTotal,
		})

		bidSize := 0.5 + rng.Float64()*4.5
		bidTotal += bidSize
		book.Bids = append(book.Bids, models.OrderBookEntry{
			Price: price - offset,
			Size:  bidSize,
			Total: bidTotal,
		})
	}
	return book
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
