// Package trend implements the moving-average trend-following strategy
// (decision logic here; exchange reconciliation in reconciliation.go).
package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tudor/internal/domain"
	"github.com/vadiminshakov/tudor/internal/services/signal"
	"github.com/vadiminshakov/tudor/pkg/retrier"
)

type pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

type klineProvider interface {
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error)
}

type tradersvc interface {
	// MarketBuy spends amount of QUOTE currency (e.g., USDT to spend).
	MarketBuy(ctx context.Context, quoteAmount decimal.Decimal, clientOrderID string) error
	// MarketSell sells amount of BASE currency (e.g., BTC to sell).
	MarketSell(ctx context.Context, baseQty decimal.Decimal, clientOrderID string) error
	GetBalance(ctx context.Context, currency string) (decimal.Decimal, error)
}

type positionStore interface {
	Position() domain.Position
	EnterPosition(price decimal.Decimal, now time.Time) error
	UpdateHighest(price decimal.Decimal) (bool, error)
	ExitPosition(reason domain.ExitReason, now time.Time) error
}

type tradeJournal interface {
	Append(record domain.TradeRecord) error
}

type notifier interface {
	Notify(ctx context.Context, text string)
}

// Config carries the strategy parameters.
type Config struct {
	Pair           domain.Pair
	CandleInterval string
	CandleLimit    int

	StopLossPct           decimal.Decimal
	TrailingStopPct       decimal.Decimal
	TrailingActivationPct decimal.Decimal

	// InvestRatio is the share of the quote balance spent on each entry.
	InvestRatio decimal.Decimal
	// MinTradeAmount is the smallest order the exchange accepts, in quote
	// currency. Balances below it count as dust when reconciling.
	MinTradeAmount decimal.Decimal

	ReentryEnabled  bool
	ReentryCooldown time.Duration

	// SettleDelay is how long to wait after an order before re-reading the
	// balance to confirm execution.
	SettleDelay time.Duration

	// HeartbeatEvery sends a status notification every N ticks, 0 disables.
	HeartbeatEvery int
}

func (c Config) validate() error {
	if c.CandleInterval == "" {
		return fmt.Errorf("candle interval is required")
	}
	if c.CandleLimit < 2 {
		return fmt.Errorf("candle limit must be >= 2, got %d", c.CandleLimit)
	}
	if c.InvestRatio.LessThanOrEqual(decimal.Zero) || c.InvestRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("invest ratio must be in (0, 1], got %s", c.InvestRatio.String())
	}
	one := decimal.NewFromInt(1)
	for name, pct := range map[string]decimal.Decimal{
		"stop loss":           c.StopLossPct,
		"trailing stop":       c.TrailingStopPct,
		"trailing activation": c.TrailingActivationPct,
	} {
		if pct.LessThan(decimal.Zero) || pct.GreaterThanOrEqual(one) {
			return fmt.Errorf("%s percentage must be in [0, 1), got %s", name, pct.String())
		}
	}
	if c.MinTradeAmount.LessThan(decimal.Zero) {
		return fmt.Errorf("min trade amount must be >= 0, got %s", c.MinTradeAmount.String())
	}
	return nil
}

// Strategy runs one trend-following decision per tick against a single pair.
type Strategy struct {
	cfg       Config
	calc      *signal.Calculator
	pricer    pricer
	klines    klineProvider
	trader    tradersvc
	positions positionStore
	journal   tradeJournal
	notify    notifier
	retrier   *retrier.Retrier
	l         *zap.Logger

	// wall clock, overridable in tests
	now func() time.Time

	tickCount int
}

// NewStrategy returns a configured trend strategy.
func NewStrategy(
	l *zap.Logger,
	cfg Config,
	calc *signal.Calculator,
	pricer pricer,
	klines klineProvider,
	trader tradersvc,
	positions positionStore,
	journal tradeJournal,
	notify notifier,
	r *retrier.Retrier,
) (*Strategy, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Strategy{
		cfg:       cfg,
		calc:      calc,
		pricer:    pricer,
		klines:    klines,
		trader:    trader,
		positions: positions,
		journal:   journal,
		notify:    notify,
		retrier:   r,
		l:         l,
		now:       time.Now,
	}, nil
}

// Initialize reconciles persisted state against the exchange before the
// first tick and announces the start to the operator.
func (s *Strategy) Initialize(ctx context.Context) error {
	price, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return s.pricer.GetPrice(ctx, s.cfg.Pair)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to get current price for %s", s.cfg.Pair.String())
	}

	if _, err := s.verifySync(ctx, price); err != nil {
		return errors.Wrap(err, "startup reconciliation failed")
	}

	s.logBalances(ctx, "starting bot",
		zap.String("pair", s.cfg.Pair.String()),
		zap.String("price", price.String()),
		zap.Bool("in_position", s.positions.Position().InPosition))

	s.notify.Notify(ctx, fmt.Sprintf("bot started: %s at %s", s.cfg.Pair.String(), price.String()))

	return nil
}

// Trade performs one decision tick: fetch candles, compute the signal,
// reconcile against the exchange, then either manage the open position or
// evaluate an entry. A detected drift consumes the tick.
func (s *Strategy) Trade(ctx context.Context) error {
	candles, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) ([]domain.MarketCandle, error) {
		return s.klines.GetKlines(ctx, s.cfg.Pair, s.cfg.CandleInterval, s.cfg.CandleLimit)
	})
	if err != nil {
		return errors.Wrapf(domain.ErrRemoteUnavailable,
			"failed to fetch candles for %s: %s", s.cfg.Pair.String(), err)
	}

	snap, err := s.calc.Snapshot(candles)
	if err != nil {
		return errors.Wrap(err, "signal computation failed")
	}

	s.tickCount++
	s.maybeHeartbeat(ctx, snap)

	drift, err := s.verifySync(ctx, snap.Price)
	if err != nil {
		return err
	}
	if drift != driftNone {
		return nil
	}

	if s.positions.Position().InPosition {
		return s.manageOpenPosition(ctx, snap)
	}

	return s.maybeEnter(ctx, snap)
}

// Close releases strategy resources. Stores are owned by the caller.
func (s *Strategy) Close() error {
	return nil
}

func (s *Strategy) manageOpenPosition(ctx context.Context, snap domain.SignalSnapshot) error {
	// the high-water mark ratchets before any trigger is evaluated
	raised, err := s.positions.UpdateHighest(snap.Price)
	if err != nil {
		return errors.Wrap(err, "failed to update high-water mark")
	}
	if raised {
		s.l.Info("new high-water mark", zap.String("price", snap.Price.String()))
	}

	pos := s.positions.Position()
	reason := evaluateExit(pos, snap, s.cfg.StopLossPct, s.cfg.TrailingStopPct, s.cfg.TrailingActivationPct)
	if reason == domain.ExitReasonNone {
		s.l.Info("holding",
			zap.String("price", snap.Price.String()),
			zap.String("pnl_percent", pos.PnLPercent(snap.Price).StringFixed(2)),
			zap.String("trend", snap.Trend()))
		return nil
	}

	s.l.Info("exit condition triggered",
		zap.String("reason", string(reason)),
		zap.String("price", snap.Price.String()),
		zap.String("entry_price", pos.EntryPrice.String()),
		zap.String("highest_price", pos.HighestPrice.String()))

	if err := s.executeClose(ctx, snap.Price, reason); err != nil {
		return err
	}

	// a closed slot may be refilled on the same tick when the signal and
	// the reentry gates both still allow it
	return s.maybeEnter(ctx, snap)
}

func (s *Strategy) maybeEnter(ctx context.Context, snap domain.SignalSnapshot) error {
	if !entrySignal(snap) {
		return nil
	}

	pos := s.positions.Position()
	if !allowEntry(pos, snap, s.now(), s.cfg.ReentryEnabled, s.cfg.ReentryCooldown) {
		s.l.Info("entry signal suppressed",
			zap.String("last_exit_reason", string(pos.LastExitReason)),
			zap.Time("last_exit_time", pos.LastExitTime))
		return nil
	}

	s.l.Info("entry signal",
		zap.String("price", snap.Price.String()),
		zap.Bool("crossed_up", snap.CrossedUp),
		zap.Bool("strong_trend", snap.StrongTrend))

	return s.executeOpen(ctx, snap.Price)
}

func (s *Strategy) maybeHeartbeat(ctx context.Context, snap domain.SignalSnapshot) {
	if s.cfg.HeartbeatEvery <= 0 || s.tickCount%s.cfg.HeartbeatEvery != 0 {
		return
	}

	pos := s.positions.Position()
	status := "flat"
	if pos.InPosition {
		status = fmt.Sprintf("long from %s (pnl %s%%)",
			pos.EntryPrice.String(), pos.PnLPercent(snap.Price).StringFixed(2))
	}

	s.notify.Notify(ctx, fmt.Sprintf("%s: price %s, trend %s, %s",
		s.cfg.Pair.String(), snap.Price.String(), snap.Trend(), status))
}

func (s *Strategy) logBalances(ctx context.Context, msg string, extraFields ...zap.Field) {
	baseBalance, _ := s.trader.GetBalance(ctx, s.cfg.Pair.From)
	quoteBalance, _ := s.trader.GetBalance(ctx, s.cfg.Pair.To)

	fields := append(extraFields,
		zap.String(s.cfg.Pair.From+"_balance", baseBalance.String()),
		zap.String(s.cfg.Pair.To+"_balance", quoteBalance.String()))

	s.l.Info(msg, fields...)
}
