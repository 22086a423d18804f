// Package ws fans market and liquidation events out to WebSocket
// subscribers. Delivery is per-pair: a connection only receives events for
// pairs it has subscribed to, and a saturated connection has its frame
// dropped rather than blocking the publishing tick.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go-tradesim/internal/common"
	"go-tradesim/internal/metrics"
	"go-tradesim/pkg/models"
)

// MarketSource supplies the snapshots sent at connect and subscribe time.
// The market registry implements it.
type MarketSource interface {
	ListPairs() []models.TradingPair
	Get(pairName string) (models.MarketData, error)
	GetPair(pairName string) (models.TradingPair, error)
}

// Hub is the connection registry. It implements the publisher interfaces of
// the simulator and the liquidation monitor.
type Hub struct {
	market   MarketSource
	sendBuf  int
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	upgrader websocket.Upgrader
}

func NewHub(market MarketSource, sendBuf int) *Hub {
	return &Hub{
		market:  market,
		sendBuf: sendBuf,
		clients: make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request, registers the connection and sends the
// one-off tradingPairs snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.sendBuf),
		subs: make(map[string]struct{}),
		hub:  h,
	}
	h.register(c)

	go c.writePump()
	go c.readPump()

	c.enqueue(tradingPairsMessage{
		Type: msgTypeTradingPairs,
		Data: h.market.ListPairs(),
	})

	log.Info().Str("client_id", c.id).Msg("Websocket client connected")
}

// PublishMarketUpdate delivers a tick's market data to every connection
// subscribed to the pair.
func (h *Hub) PublishMarketUpdate(pair string, data models.MarketData) {
	h.publish(pair, marketUpdateMessage{
		Type: msgTypeMarketUpdate,
		Pair: pair,
		Data: data,
	})
}

// PublishLiquidation delivers a liquidation event to every connection
// subscribed to the pair.
func (h *Hub) PublishLiquidation(pair string, userID, tradeID int, price float64) {
	h.publish(pair, tradeLiquidatedMessage{
		Type:    msgTypeTradeLiquidated,
		UserID:  userID,
		TradeID: tradeID,
		Pair:    pair,
		Price:   price,
	})
}

// publish marshals once and enqueues the frame on each subscribed
// connection. A full send queue drops the frame for that connection only.
func (h *Hub) publish(pair string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("pair", pair).Msg("Failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.subscribed(pair) {
			continue
		}
		select {
		case c.send <- data:
		default:
			metrics.WSDropped.Inc()
			log.Warn().
				Str("error_code", common.ErrCodeChannelFull.String()).
				Str("error_message", common.ErrMsgChannelFull.String()).
				Str("client_id", c.id).
				Str("pair", pair).
				Msg("Dropped event for slow client")
		}
	}
}

// ClientCount reports the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSClients.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()
	if ok {
		close(c.send)
		metrics.WSClients.Dec()
		log.Info().Str("client_id", c.id).Msg("Websocket client disconnected")
	}
}
