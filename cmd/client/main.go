package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go-tradesim/internal/common"
	"go-tradesim/internal/config"
	"go-tradesim/pkg/models"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configPath := flag.String("config", common.DefaultConfigPath, "Path to config file")
	pairsStr := flag.String("pairs", "", "Comma-separated pairs to subscribe (overrides config)")
	retryInterval := flag.Int("retry", 5, "Retry interval in seconds for reconnection")
	maxRetries := flag.Int("max-retries", 10, "Maximum number of retry attempts (0 for unlimited)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("error_code", common.ErrCodeConfigLoadFailed.String()).
			Str("error_message", common.ErrMsgConfigLoadFailed.String()).
			Msg("Failed to load config")
	}

	var pairs []string
	if *pairsStr != "" {
		pairs = strings.Split(*pairsStr, ",")
	} else {
		for _, p := range cfg.Pairs {
			pairs = append(pairs, p.Name)
		}
	}

	wsURL := url.URL{
		Scheme: "ws",
		Host:   fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Path:   "/ws",
	}
	retryCount := 0

	for {
		if *maxRetries > 0 && retryCount >= *maxRetries {
			log.Error().Msg("Maximum retry attempts reached. Exiting...")
			break
		}

		if retryCount > 0 {
			log.Info().
				Int("retry_count", retryCount).
				Int("max_retries", *maxRetries).
				Int("retry_interval_sec", *retryInterval).
				Msg("Attempting to reconnect...")
			time.Sleep(time.Duration(*retryInterval) * time.Second)
		}

		conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
		if err != nil {
			log.Error().
				Err(err).
				Str("address", wsURL.String()).
				Msg("Websocket connect failed")
			retryCount++
			continue
		}

		log.Info().Str("address", wsURL.String()).Msg("Successfully connected to websocket server")

		if err := streamUpdates(conn, pairs); err != nil {
			log.Error().
				Err(err).
				Str("error_code", common.ErrCodeWebsocketReadFailed.String()).
				Str("error_message", common.ErrMsgWebsocketReadFailed.String()).
				Msg("Streaming error occurred")
		}

		conn.Close()
		retryCount++
	}
}

type serverMessage struct {
	Type    string          `json:"type"`
	Pair    string          `json:"pair"`
	Data    json.RawMessage `json:"data"`
	UserID  int             `json:"userId"`
	TradeID int             `json:"tradeId"`
	Price   float64         `json:"price"`
	Message string          `json:"message"`
}

func streamUpdates(conn *websocket.Conn, pairs []string) error {
	for _, pair := range pairs {
		req := map[string]string{"type": "subscribe", "pair": pair}
		if err := conn.WriteJSON(req); err != nil {
			return fmt.Errorf("subscribe failed: %w", err)
		}
	}

	log.Info().Strs("pairs", pairs).Msg("Subscribed to market updates")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("receive error: %w", err)
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("Ignoring malformed frame")
			continue
		}

		switch msg.Type {
		case "marketUpdate":
			printUpdate(msg.Pair, msg.Data)
		case "tradeLiquidated":
			fmt.Printf("Liquidated [%s]: user=%d trade=%d price=%.2f\n",
				msg.Pair, msg.UserID, msg.TradeID, msg.Price)
		case "error":
			log.Warn().Str("message", msg.Message).Msg("Server reported an error")
		}
	}
}

func printUpdate(pair string, raw json.RawMessage) {
	var data models.MarketData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Warn().Err(err).Msg("Ignoring malformed market data")
		return
	}
	fmt.Printf("Update [%s]: price=%.2f change24h=%.2f%% candles=%d\n",
		pair, data.Price, data.Change24h, len(data.Candlesticks))
}
