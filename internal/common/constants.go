package common

import "time"

const (
	DefaultConfigPath = "./configs/config.yml"

	DefaultSimulatorIntervalMs  = 2000
	DefaultLiquidationScanMs    = 5000
	DefaultClientSendBufferSize = 256

	// CandleWindow is the bucket width after which the simulator rolls over
	// to a fresh candle.
	CandleWindow = 5 * time.Minute

	// MaxCandleHistory caps a pair's candle sequence; the oldest entries are
	// dropped on overflow.
	MaxCandleHistory = 100

	// OrderBookDepth is the number of synthetic levels seeded per side.
	OrderBookDepth = 20

	// MinOrderBookSize is the floor enforced on every jittered level size.
	MinOrderBookSize = 0.1

	MinLeverage = 1
	MaxLeverage = 100

	// CategoryCrypto marks pairs eligible for demo leverage trading.
	CategoryCrypto = 1
	CategoryForex  = 2
	CategoryStocks = 3
)
