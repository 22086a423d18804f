package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go-tradesim/internal/common"
	"go-tradesim/internal/metrics"
	"go-tradesim/pkg/models"
)

// PairSource supplies the current pair record, including the live price the
// simulator maintains. The market registry implements it.
type PairSource interface {
	GetPairByID(id int) (models.TradingPair, error)
}

// account serializes every balance and trade-status mutation for one user.
type account struct {
	mu     sync.Mutex
	user   models.User
	trades map[int]*models.DemoTrade
}

// Ledger owns the demo accounts and the lifecycle of leveraged positions.
// Open reserves the trade size as margin; Close and Liquidate apply pnl only
// and never restore that margin.
type Ledger struct {
	mu          sync.Mutex
	accounts    map[int]*account
	tradeOwner  map[int]int
	nextTradeID int
	pairs       PairSource
	now         func() time.Time
}

func NewLedger(pairs PairSource) *Ledger {
	return &Ledger{
		accounts:    make(map[int]*account),
		tradeOwner:  make(map[int]int),
		nextTradeID: 1,
		pairs:       pairs,
		now:         time.Now,
	}
}

// SeedUser registers a demo account with a starting balance.
func (l *Ledger) SeedUser(user models.User) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[user.ID] = &account{
		user:   user,
		trades: make(map[int]*models.DemoTrade),
	}
}

// GetUser returns a snapshot of the user record.
func (l *Ledger) GetUser(userID int) (models.User, error) {
	acct, err := l.account(userID)
	if err != nil {
		return models.User{}, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.user, nil
}

// Open validates the request, reserves the size as margin and creates the
// position at the pair's current market price. The margin deduction happens
// exactly once and is never refunded by Close or Liquidate.
func (l *Ledger) Open(userID, pairID int, side models.TradeSide, size float64, leverage int) (models.DemoTrade, error) {
	if leverage < common.MinLeverage || leverage > common.MaxLeverage {
		return models.DemoTrade{}, common.ErrInvalidLeverage
	}
	if side != models.TradeSideBuy && side != models.TradeSideSell {
		return models.DemoTrade{}, common.ErrInvalidSide
	}
	if size <= 0 {
		return models.DemoTrade{}, common.ErrInvalidSize
	}

	pair, err := l.pairs.GetPairByID(pairID)
	if err != nil {
		return models.DemoTrade{}, common.ErrPairNotFound
	}
	if pair.CategoryID != common.CategoryCrypto {
		return models.DemoTrade{}, common.ErrUnsupportedPair
	}

	acct, err := l.account(userID)
	if err != nil {
		return models.DemoTrade{}, err
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	if acct.user.Balance < size {
		return models.DemoTrade{}, common.ErrInsufficientBalance
	}
	acct.user.Balance -= size

	trade := &models.DemoTrade{
		ID:         l.allocTradeID(userID),
		UserID:     userID,
		PairID:     pairID,
		Side:       side,
		Size:       size,
		Leverage:   leverage,
		EntryPrice: pair.Price,
		Status:     models.TradeStatusOpen,
		CreatedAt:  l.now(),
	}
	acct.trades[trade.ID] = trade

	metrics.TradesOpened.WithLabelValues(string(side)).Inc()
	return *trade, nil
}

// Close settles an open position at the given exit price. The second of two
// racing Close/Liquidate calls loses the trade lock and gets ErrTradeNotOpen.
func (l *Ledger) Close(tradeID int, exitPrice float64) (models.DemoTrade, error) {
	acct, trade, err := l.lockTrade(tradeID)
	if err != nil {
		return models.DemoTrade{}, err
	}
	defer acct.mu.Unlock()

	if trade.Status != models.TradeStatusOpen {
		return models.DemoTrade{}, common.ErrTradeNotOpen
	}

	pnl := pnlFor(trade, exitPrice)
	closedAt := l.now()
	trade.Status = models.TradeStatusClosed
	trade.ExitPrice = &exitPrice
	trade.Pnl = &pnl
	trade.ClosedAt = &closedAt
	acct.user.Balance += pnl

	metrics.TradesClosed.WithLabelValues(string(models.TradeStatusClosed)).Inc()
	return *trade, nil
}

// Liquidate force-closes an open position at its liquidation price with a
// pnl of the full margin. A trade already settled by a concurrent Close is
// reported as ErrTradeNotOpen, which the monitor treats as a benign skip.
func (l *Ledger) Liquidate(tradeID int) (models.DemoTrade, error) {
	acct, trade, err := l.lockTrade(tradeID)
	if err != nil {
		return models.DemoTrade{}, err
	}
	defer acct.mu.Unlock()

	if trade.Status != models.TradeStatusOpen {
		return models.DemoTrade{}, common.ErrTradeNotOpen
	}

	liqPrice := LiquidationPrice(trade.Side, trade.EntryPrice, trade.Leverage)
	pnl := -trade.Size
	closedAt := l.now()
	trade.Status = models.TradeStatusLiquidated
	trade.ExitPrice = &liqPrice
	trade.Pnl = &pnl
	trade.ClosedAt = &closedAt
	acct.user.Balance += pnl

	metrics.TradesClosed.WithLabelValues(string(models.TradeStatusLiquidated)).Inc()
	return *trade, nil
}

// GetTrade returns a snapshot of a trade.
func (l *Ledger) GetTrade(tradeID int) (models.DemoTrade, error) {
	acct, trade, err := l.lockTrade(tradeID)
	if err != nil {
		return models.DemoTrade{}, err
	}
	defer acct.mu.Unlock()
	return *trade, nil
}

// ListTrades returns the user's trades, optionally filtered by pair. A
// pairID of 0 means no filter. Results are ordered by trade id.
func (l *Ledger) ListTrades(userID, pairID int) ([]models.DemoTrade, error) {
	acct, err := l.account(userID)
	if err != nil {
		return nil, err
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	out := make([]models.DemoTrade, 0, len(acct.trades))
	for _, t := range acct.trades {
		if pairID != 0 && t.PairID != pairID {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// OpenTrades returns the user's open trades ordered by trade id.
func (l *Ledger) OpenTrades(userID int) ([]models.DemoTrade, error) {
	acct, err := l.account(userID)
	if err != nil {
		return nil, err
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	out := make([]models.DemoTrade, 0, len(acct.trades))
	for _, t := range acct.trades {
		if t.Status == models.TradeStatusOpen {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AllOpenTrades returns every open position across all users, ordered by
// trade id. Used by the liquidation monitor.
func (l *Ledger) AllOpenTrades() []models.DemoTrade {
	l.mu.Lock()
	accounts := make([]*account, 0, len(l.accounts))
	for _, acct := range l.accounts {
		accounts = append(accounts, acct)
	}
	l.mu.Unlock()

	var out []models.DemoTrade
	for _, acct := range accounts {
		acct.mu.Lock()
		for _, t := range acct.trades {
			if t.Status == models.TradeStatusOpen {
				out = append(out, *t)
			}
		}
		acct.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LiquidationPrice is the price at which a position's loss consumes its
// whole margin: entry*(1-1/leverage) for buys, entry*(1+1/leverage) for
// sells.
func LiquidationPrice(side models.TradeSide, entryPrice float64, leverage int) float64 {
	if side == models.TradeSideBuy {
		return entryPrice * (1 - 1/float64(leverage))
	}
	return entryPrice * (1 + 1/float64(leverage))
}

func (l *Ledger) account(userID int) (*account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return acct, nil
}

func (l *Ledger) allocTradeID(userID int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextTradeID
	l.nextTradeID++
	l.tradeOwner[id] = userID
	return id
}

// lockTrade resolves a trade id to its owning account and returns with the
// account lock held.
func (l *Ledger) lockTrade(tradeID int) (*account, *models.DemoTrade, error) {
	l.mu.Lock()
	userID, ok := l.tradeOwner[tradeID]
	var acct *account
	if ok {
		acct = l.accounts[userID]
	}
	l.mu.Unlock()
	if !ok || acct == nil {
		return nil, nil, common.ErrTradeNotFound
	}

	acct.mu.Lock()
	trade, ok := acct.trades[tradeID]
	if !ok {
		acct.mu.Unlock()
		return nil, nil, common.ErrTradeNotFound
	}
	return acct, trade, nil
}

// pnlFor computes the settled pnl rounded to 2 decimals:
// sign(side) * (exit-entry)/entry * size * leverage.
func pnlFor(trade *models.DemoTrade, exitPrice float64) float64 {
	pnl := decimal.NewFromFloat(exitPrice).
		Sub(decimal.NewFromFloat(trade.EntryPrice)).
		Div(decimal.NewFromFloat(trade.EntryPrice)).
		Mul(decimal.NewFromFloat(trade.Size)).
		Mul(decimal.NewFromInt(int64(trade.Leverage)))
	if trade.Side == models.TradeSideSell {
		pnl = pnl.Neg()
	}
	return pnl.Round(2).InexactFloat64()
}
