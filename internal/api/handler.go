package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go-tradesim/internal/common"
	"go-tradesim/pkg/models"
)

type openTradeRequest struct {
	UserID   int     `json:"userId"`
	PairID   int     `json:"pairId"`
	Side     string  `json:"side"`
	Size     float64 `json:"size"`
	Leverage int     `json:"leverage"`
}

type closeTradeRequest struct {
	ExitPrice float64 `json:"exitPrice"`
}

// ListPairs handles GET /api/trading-pairs.
func (h *Handler) ListPairs(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.ListPairs())
}

// GetMarketData handles GET /api/market-data?pair=BTC/USD.
func (h *Handler) GetMarketData(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "pair is required"})
		return
	}
	data, err := h.registry.Get(pair)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetUser handles GET /api/users/:id.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}
	user, err := h.ledger.GetUser(id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// OpenTrade handles POST /api/demo-trades.
func (h *Handler) OpenTrade(c *gin.Context) {
	var req openTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	trade, err := h.ledger.Open(req.UserID, req.PairID, models.TradeSide(req.Side), req.Size, req.Leverage)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

// ListTrades handles GET /api/demo-trades?userId=1&pairId=2.
func (h *Handler) ListTrades(c *gin.Context) {
	userID, err := strconv.Atoi(c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "userId is required"})
		return
	}
	pairID := 0
	if raw := c.Query("pairId"); raw != "" {
		pairID, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid pairId"})
			return
		}
	}

	trades, err := h.ledger.ListTrades(userID, pairID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

// ListOpenTrades handles GET /api/demo-trades/open?userId=1.
func (h *Handler) ListOpenTrades(c *gin.Context) {
	userID, err := strconv.Atoi(c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "userId is required"})
		return
	}

	trades, err := h.ledger.OpenTrades(userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

// CloseTrade handles POST /api/demo-trades/:id/close.
func (h *Handler) CloseTrade(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid trade id"})
		return
	}
	var req closeTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	trade, err := h.ledger.Close(id, req.ExitPrice)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

// LiquidateTrade handles POST /api/demo-trades/:id/liquidate.
func (h *Handler) LiquidateTrade(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid trade id"})
		return
	}

	trade, err := h.ledger.Liquidate(id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

// handleError maps ledger and registry errors onto HTTP statuses: validation
// failures are 400, missing records 404, settled trades 409, anything
// unexpected 500.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidLeverage),
		errors.Is(err, common.ErrInvalidSide),
		errors.Is(err, common.ErrInvalidSize),
		errors.Is(err, common.ErrUnsupportedPair),
		errors.Is(err, common.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, common.ErrPairNotFound),
		errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrTradeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, common.ErrTradeNotOpen):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
