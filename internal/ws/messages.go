package ws

import "go-tradesim/pkg/models"

// Client -> server frames.
type clientMessage struct {
	Type string `json:"type"`
	Pair string `json:"pair"`
}

// Server -> client frames.
type tradingPairsMessage struct {
	Type string               `json:"type"`
	Data []models.TradingPair `json:"data"`
}

type marketDataMessage struct {
	Type string            `json:"type"`
	Data models.MarketData `json:"data"`
}

type marketUpdateMessage struct {
	Type string            `json:"type"`
	Pair string            `json:"pair"`
	Data models.MarketData `json:"data"`
}

type tradeLiquidatedMessage struct {
	Type    string  `json:"type"`
	UserID  int     `json:"userId"`
	TradeID int     `json:"tradeId"`
	Pair    string  `json:"pair"`
	Price   float64 `json:"price"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const (
	msgTypeSubscribe       = "subscribe"
	msgTypeUnsubscribe     = "unsubscribe"
	msgTypeTradingPairs    = "tradingPairs"
	msgTypeMarketData      = "marketData"
	msgTypeMarketUpdate    = "marketUpdate"
	msgTypeTradeLiquidated = "tradeLiquidated"
	msgTypeError           = "error"
)
