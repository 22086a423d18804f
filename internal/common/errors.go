package common

import "errors"

type ErrorCode string
type ErrorMessage string

const (
	ErrCodeConfigLoadFailed    ErrorCode = "CONFIG_LOAD_FAILED"
	ErrCodeHTTPServeFailed     ErrorCode = "HTTP_SERVE_FAILED"
	ErrCodeInvalidPair         ErrorCode = "INVALID_PAIR"
	ErrCodeChannelFull         ErrorCode = "CHANNEL_FULL"
	ErrCodeSimulatorTickFailed ErrorCode = "SIMULATOR_TICK_FAILED"
	ErrCodeLiquidationFailed   ErrorCode = "LIQUIDATION_FAILED"
	ErrCodeWebsocketSendFailed ErrorCode = "WEBSOCKET_SEND_FAILED"
	ErrCodeWebsocketReadFailed ErrorCode = "WEBSOCKET_READ_FAILED"
)

const (
	ErrMsgConfigLoadFailed    ErrorMessage = "Failed to load configuration"
	ErrMsgHTTPServeFailed     ErrorMessage = "Failed to serve HTTP"
	ErrMsgInvalidPair         ErrorMessage = "Invalid trading pair"
	ErrMsgChannelFull         ErrorMessage = "Channel is full, message dropped"
	ErrMsgSimulatorTickFailed ErrorMessage = "Simulator tick failed for pair"
	ErrMsgLiquidationFailed   ErrorMessage = "Failed to liquidate position"
	ErrMsgWebsocketSendFailed ErrorMessage = "Failed to write to websocket connection"
	ErrMsgWebsocketReadFailed ErrorMessage = "Failed to read from websocket connection"
)

func (e ErrorCode) String() string {
	return string(e)
}

func (m ErrorMessage) String() string {
	return string(m)
}

// Sentinel errors returned by the ledger and registry. The API layer maps
// them to HTTP statuses; the liquidation monitor treats ErrTradeNotOpen as
// a benign skip.
var (
	ErrPairNotFound        = errors.New("trading pair not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTradeNotFound       = errors.New("trade not found")
	ErrTradeNotOpen        = errors.New("trade is not open")
	ErrInvalidLeverage     = errors.New("leverage must be between 1 and 100")
	ErrInvalidSide         = errors.New("side must be buy or sell")
	ErrInvalidSize         = errors.New("size must be positive")
	ErrUnsupportedPair     = errors.New("demo trading is only available for crypto pairs")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
