package trend

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tudor/internal/domain"
)

// evaluateExit returns the exit reason triggered by the current snapshot,
// or ExitReasonNone. Triggers are checked in priority order: stop-loss,
// then trailing stop, then trend break. At most one fires per tick.
//
// Trailing activation is evaluated against the high-water mark rather than
// the current price: once any past price has cleared the activation level
// the stop stays armed even as the price falls toward the trigger.
func evaluateExit(pos domain.Position, snap domain.SignalSnapshot, stopLossPct, trailingStopPct, trailingActivationPct decimal.Decimal) domain.ExitReason {
	price := snap.Price

	if price.LessThanOrEqual(pos.StopLossPrice(stopLossPct)) {
		return domain.ExitReasonStopLoss
	}

	if pos.TrailingActive(pos.HighestPrice, trailingActivationPct) &&
		price.LessThanOrEqual(pos.TrailingStopPrice(trailingStopPct)) {
		return domain.ExitReasonTrailingStop
	}

	if snap.CrossedDown {
		return domain.ExitReasonTrendBreak
	}

	return domain.ExitReasonNone
}

// entrySignal reports whether the snapshot argues for opening a long:
// either the price crossed above the long average this tick, or a strong
// trend formed while the price moved above the long average.
func entrySignal(snap domain.SignalSnapshot) bool {
	if snap.CrossedUp {
		return true
	}
	return snap.StrongTrend && snap.AboveLong && !snap.PrevAboveLong
}

// allowEntry applies the reentry gates on top of a raw entry signal.
// Every entry requires reentry to be enabled; with no prior exit nothing
// else gates it. A trend-break exit blocks reentry until a fresh upward
// cross regardless of cooldown, any other exit holds until the cooldown
// elapses.
func allowEntry(pos domain.Position, snap domain.SignalSnapshot, now time.Time, reentryEnabled bool, cooldown time.Duration) bool {
	if !reentryEnabled {
		return false
	}

	if pos.LastExitTime.IsZero() {
		return true
	}

	if pos.LastExitReason.BlocksReentry() && !snap.CrossedUp {
		return false
	}

	return pos.CanReenter(now, cooldown)
}
