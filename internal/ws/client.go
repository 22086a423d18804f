package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go-tradesim/internal/common"
	"go-tradesim/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 512
)

// Client is a single WebSocket connection with its subscription set and a
// bounded outbound queue.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	mu   sync.Mutex
	subs map[string]struct{}
	hub  *Hub
}

func (c *Client) subscribe(pair string) {
	c.mu.Lock()
	c.subs[pair] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) unsubscribe(pair string) {
	c.mu.Lock()
	delete(c.subs, pair)
	c.mu.Unlock()
}

func (c *Client) subscribed(pair string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[pair]
	return ok
}

// enqueue marshals msg onto the client's send queue, dropping it when the
// queue is saturated or the client is already unregistered.
func (c *Client) enqueue(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("client_id", c.id).Msg("Failed to marshal message")
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		metrics.WSDropped.Inc()
		log.Warn().
			Str("error_code", common.ErrCodeChannelFull.String()).
			Str("error_message", common.ErrMsgChannelFull.String()).
			Str("client_id", c.id).
			Msg("Dropped reply for slow client")
	}
}

// readPump parses subscribe/unsubscribe frames until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().
					Err(err).
					Str("error_code", common.ErrCodeWebsocketReadFailed.String()).
					Str("error_message", common.ErrMsgWebsocketReadFailed.String()).
					Str("client_id", c.id).
					Msg("Websocket read failed")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(errorMessage{Type: msgTypeError, Message: "invalid message"})
			continue
		}

		switch msg.Type {
		case msgTypeSubscribe:
			if _, err := c.hub.market.GetPair(msg.Pair); err != nil {
				c.enqueue(errorMessage{Type: msgTypeError, Message: "unknown pair: " + msg.Pair})
				continue
			}
			c.subscribe(msg.Pair)
			snapshot, err := c.hub.market.Get(msg.Pair)
			if err != nil {
				c.enqueue(errorMessage{Type: msgTypeError, Message: "unknown pair: " + msg.Pair})
				continue
			}
			c.enqueue(marketDataMessage{Type: msgTypeMarketData, Data: snapshot})
			log.Debug().Str("client_id", c.id).Str("pair", msg.Pair).Msg("Client subscribed")
		case msgTypeUnsubscribe:
			c.unsubscribe(msg.Pair)
			log.Debug().Str("client_id", c.id).Str("pair", msg.Pair).Msg("Client unsubscribed")
		default:
			c.enqueue(errorMessage{Type: msgTypeError, Message: "unknown message type: " + msg.Type})
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
// A write failure closes only this connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().
					Err(err).
					Str("error_code", common.ErrCodeWebsocketSendFailed.String()).
					Str("error_message", common.ErrMsgWebsocketSendFailed.String()).
					Str("client_id", c.id).
					Msg("Websocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
