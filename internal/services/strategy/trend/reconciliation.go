package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tudor/internal/domain"
	"github.com/vadiminshakov/tudor/pkg/retrier"
)

// driftResult describes the outcome of reconciling the stored position
// against the exchange balance.
type driftResult int

const (
	driftNone driftResult = iota
	// driftAdopted: the exchange holds the asset but the store was flat,
	// the position was adopted at the current price.
	driftAdopted
	// driftCleared: the store claimed a position the exchange no longer
	// holds, the slot was released.
	driftCleared
)

// verifySync makes the exchange the source of truth for whether a position
// exists. A balance whose quote value is below the minimum tradable amount
// counts as dust, not a position. Any correction consumes the current tick.
func (s *Strategy) verifySync(ctx context.Context, price decimal.Decimal) (driftResult, error) {
	baseBalance, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return s.trader.GetBalance(ctx, s.cfg.Pair.From)
	})
	if err != nil {
		return driftNone, errors.Wrapf(err, "failed to get %s balance for reconciliation", s.cfg.Pair.From)
	}

	holding := baseBalance.Mul(price).GreaterThanOrEqual(s.cfg.MinTradeAmount)
	pos := s.positions.Position()

	switch {
	case pos.InPosition && !holding:
		if err := s.positions.ExitPosition(domain.ExitReasonDrift, s.now()); err != nil {
			return driftNone, errors.Wrap(err, "failed to clear stale position")
		}

		s.l.Warn("position not backed by exchange balance, cleared",
			zap.String("base_balance", baseBalance.String()),
			zap.String("recorded_entry", pos.EntryPrice.String()))
		s.notify.Notify(ctx, fmt.Sprintf("position cleared: %s balance %s no longer covers recorded position",
			s.cfg.Pair.From, baseBalance.String()))

		return driftCleared, nil

	case !pos.InPosition && holding:
		if err := s.positions.EnterPosition(price, s.now()); err != nil {
			return driftNone, errors.Wrap(err, "failed to adopt external position")
		}

		s.l.Warn("exchange balance holds untracked position, adopted at current price",
			zap.String("base_balance", baseBalance.String()),
			zap.String("price", price.String()))
		s.notify.Notify(ctx, fmt.Sprintf("position adopted: %s %s found on exchange, tracking from %s",
			baseBalance.String(), s.cfg.Pair.From, price.String()))

		return driftAdopted, nil
	}

	return driftNone, nil
}

// executeOpen buys with a share of the quote balance and records the entry
// only after the exchange balance confirms the fill.
func (s *Strategy) executeOpen(ctx context.Context, price decimal.Decimal) error {
	quoteBalance, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return s.trader.GetBalance(ctx, s.cfg.Pair.To)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to get %s balance", s.cfg.Pair.To)
	}

	spend := quoteBalance.Mul(s.cfg.InvestRatio)
	if spend.LessThan(s.cfg.MinTradeAmount) {
		return errors.Wrapf(domain.ErrInsufficientFunds,
			"would spend %s %s, exchange minimum is %s",
			spend.String(), s.cfg.Pair.To, s.cfg.MinTradeAmount.String())
	}

	baseBefore, err := s.trader.GetBalance(ctx, s.cfg.Pair.From)
	if err != nil {
		return errors.Wrapf(err, "failed to get %s balance before buy", s.cfg.Pair.From)
	}

	clientOrderID := uuid.NewString()
	if err := s.trader.MarketBuy(ctx, spend, clientOrderID); err != nil {
		return errors.Wrapf(err, "market buy failed for %s", s.cfg.Pair.String())
	}

	if err := s.waitSettle(ctx); err != nil {
		return err
	}

	baseAfter, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return s.trader.GetBalance(ctx, s.cfg.Pair.From)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to confirm buy %s", clientOrderID)
	}

	if !baseAfter.GreaterThan(baseBefore) {
		// no store mutation: the next tick's reconciliation adopts the
		// position if the fill lands late
		return errors.Wrapf(domain.ErrExecutionUnconfirmed,
			"buy %s not reflected in %s balance", clientOrderID, s.cfg.Pair.From)
	}

	if err := s.positions.EnterPosition(price, s.now()); err != nil {
		return errors.Wrap(err, "failed to record entry")
	}

	s.logBalances(ctx, "position opened",
		zap.Stringer("action", domain.ActionOpenLong),
		zap.String("price", price.String()),
		zap.String("spent", spend.String()),
		zap.String("client_order_id", clientOrderID))
	s.notify.Notify(ctx, fmt.Sprintf("opened %s: spent %s %s at %s",
		s.cfg.Pair.String(), spend.String(), s.cfg.Pair.To, price.String()))

	return nil
}

// executeClose sells the whole base balance and records the exit only after
// the exchange balance confirms the fill.
func (s *Strategy) executeClose(ctx context.Context, price decimal.Decimal, reason domain.ExitReason) error {
	baseBefore, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return s.trader.GetBalance(ctx, s.cfg.Pair.From)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to get %s balance before sell", s.cfg.Pair.From)
	}

	clientOrderID := uuid.NewString()
	if err := s.trader.MarketSell(ctx, baseBefore, clientOrderID); err != nil {
		return errors.Wrapf(err, "market sell failed for %s", s.cfg.Pair.String())
	}

	if err := s.waitSettle(ctx); err != nil {
		return err
	}

	baseAfter, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return s.trader.GetBalance(ctx, s.cfg.Pair.From)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to confirm sell %s", clientOrderID)
	}

	// confirmed only when the remaining holding is down to dust
	if baseAfter.Mul(price).GreaterThanOrEqual(s.cfg.MinTradeAmount) {
		return errors.Wrapf(domain.ErrExecutionUnconfirmed,
			"sell %s not reflected in %s balance", clientOrderID, s.cfg.Pair.From)
	}

	pos := s.positions.Position()
	profit := pos.PnLPercent(price)
	exitTime := s.now()

	if err := s.positions.ExitPosition(reason, exitTime); err != nil {
		return errors.Wrap(err, "failed to record exit")
	}

	record := domain.TradeRecord{
		Pair:          s.cfg.Pair.String(),
		EntryTime:     pos.EntryTime,
		ExitTime:      exitTime,
		EntryPrice:    pos.EntryPrice,
		ExitPrice:     price,
		ProfitPercent: profit,
		Reason:        reason,
	}
	if err := s.journal.Append(record); err != nil {
		// the position is already closed, a journal failure must not
		// resurrect it
		s.l.Error("failed to journal trade", zap.Error(err))
	}

	s.logBalances(ctx, "position closed",
		zap.Stringer("action", domain.ActionCloseLong),
		zap.String("reason", string(reason)),
		zap.String("price", price.String()),
		zap.String("profit_percent", profit.StringFixed(2)),
		zap.String("client_order_id", clientOrderID))
	s.notify.Notify(ctx, fmt.Sprintf("closed %s (%s): sold at %s, pnl %s%%",
		s.cfg.Pair.String(), string(reason), price.String(), profit.StringFixed(2)))

	return nil
}

func (s *Strategy) waitSettle(ctx context.Context) error {
	if s.cfg.SettleDelay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.SettleDelay):
		return nil
	}
}
