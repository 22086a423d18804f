// Package api exposes the engine over HTTP: the demo-trade endpoints
// consumed by the UI layer, read endpoints for pairs and market snapshots,
// the websocket mount and the health/metrics endpoints.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go-tradesim/internal/ledger"
	"go-tradesim/internal/market"
	"go-tradesim/internal/ws"
)

type Handler struct {
	registry *market.Registry
	ledger   *ledger.Ledger
	hub      *ws.Hub
}

func NewHandler(registry *market.Registry, ledger *ledger.Ledger, hub *ws.Hub) *Handler {
	return &Handler{
		registry: registry,
		ledger:   ledger,
		hub:      hub,
	}
}

// Router builds the gin engine with all routes and middleware.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/trading-pairs", h.ListPairs)
		apiGroup.GET("/market-data", h.GetMarketData)
		apiGroup.GET("/users/:id", h.GetUser)
		apiGroup.POST("/demo-trades", h.OpenTrade)
		apiGroup.GET("/demo-trades", h.ListTrades)
		apiGroup.GET("/demo-trades/open", h.ListOpenTrades)
		apiGroup.POST("/demo-trades/:id/close", h.CloseTrade)
		apiGroup.POST("/demo-trades/:id/liquidate", h.LiquidateTrade)
	}

	router.GET("/ws", func(c *gin.Context) {
		h.hub.ServeWS(c.Writer, c.Request)
	})
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": h.hub.ClientCount(),
	})
}
