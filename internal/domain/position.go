package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the durable record of the bot's single position slot. It is
// either flat or in-position; after a close the exit fields are retained for
// cooldown arithmetic. HighestPrice never decreases while in position.
type Position struct {
	InPosition     bool
	EntryPrice     decimal.Decimal
	HighestPrice   decimal.Decimal
	EntryTime      time.Time
	LastExitTime   time.Time
	LastExitReason ExitReason
}

// StopLossPrice returns the price at which the stop-loss trigger fires.
func (p Position) StopLossPrice(stopLossPct decimal.Decimal) decimal.Decimal {
	return p.EntryPrice.Mul(decimal.NewFromInt(1).Sub(stopLossPct))
}

// TrailingStopPrice returns the ratcheting trailing-stop trigger price.
func (p Position) TrailingStopPrice(trailingStopPct decimal.Decimal) decimal.Decimal {
	return p.HighestPrice.Mul(decimal.NewFromInt(1).Sub(trailingStopPct))
}

// TrailingActive reports whether the trailing stop is armed: the current price
// must exceed entry by the activation percentage first.
func (p Position) TrailingActive(currentPrice, trailingActivationPct decimal.Decimal) bool {
	return currentPrice.GreaterThan(p.EntryPrice.Mul(decimal.NewFromInt(1).Add(trailingActivationPct)))
}

// CanReenter reports whether the cooldown since the last exit has elapsed.
// A position that never exited has no cooldown. The timer starts at the most
// recent exit and is not reset by failed reentry attempts.
func (p Position) CanReenter(now time.Time, cooldown time.Duration) bool {
	if p.LastExitTime.IsZero() {
		return true
	}
	return now.Sub(p.LastExitTime) >= cooldown
}

// PnLPercent returns the unrealized profit of an open position in percent.
func (p Position) PnLPercent(currentPrice decimal.Decimal) decimal.Decimal {
	if !p.InPosition || p.EntryPrice.IsZero() {
		return decimal.Zero
	}
	return currentPrice.Sub(p.EntryPrice).Div(p.EntryPrice).Mul(decimal.NewFromInt(100))
}
