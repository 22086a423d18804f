package models

import "time"

// TradingPair is a tradable instrument. Seeded at startup; price and
// change24h are mutated only by the price simulator.
type TradingPair struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	BaseAsset  string  `json:"baseAsset"`
	QuoteAsset string  `json:"quoteAsset"`
	Price      float64 `json:"price"`
	Change24h  float64 `json:"change24h"`
	CategoryID int     `json:"categoryId"`
	IsActive   bool    `json:"isActive"`
}

// Candlestick is one OHLCV bucket. Time is epoch milliseconds.
type Candlestick struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// OrderBookEntry is one price level. Total is the cumulative size from the
// best price outward.
type OrderBookEntry struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
	Total float64 `json:"total"`
}

// OrderBook holds asks sorted ascending and bids sorted descending by price.
type OrderBook struct {
	Asks []OrderBookEntry `json:"asks"`
	Bids []OrderBookEntry `json:"bids"`
}

// MarketData is the full per-pair market snapshot a client converges to.
type MarketData struct {
	Price        float64       `json:"price"`
	Change24h    float64       `json:"change24h"`
	OrderBook    OrderBook     `json:"orderBook"`
	Candlesticks []Candlestick `json:"candlesticks"`
}

type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

type TradeStatus string

const (
	TradeStatusOpen       TradeStatus = "open"
	TradeStatusClosed     TradeStatus = "closed"
	TradeStatusLiquidated TradeStatus = "liquidated"
)

// DemoTrade is a leveraged demo position. Size is the margin reserved from
// the user's balance at open. ExitPrice, Pnl and ClosedAt stay nil while the
// trade is open; Status is terminal once closed or liquidated.
type DemoTrade struct {
	ID         int         `json:"id"`
	UserID     int         `json:"userId"`
	PairID     int         `json:"pairId"`
	Side       TradeSide   `json:"side"`
	Size       float64     `json:"size"`
	Leverage   int         `json:"leverage"`
	EntryPrice float64     `json:"entryPrice"`
	ExitPrice  *float64    `json:"exitPrice"`
	Pnl        *float64    `json:"pnl"`
	Status     TradeStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	ClosedAt   *time.Time  `json:"closedAt"`
}

// User carries the demo balance shared by all of the user's positions.
type User struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}
