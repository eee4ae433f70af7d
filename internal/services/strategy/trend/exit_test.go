package trend

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vadiminshakov/tudor/internal/domain"
)

var (
	testStopLoss   = decimal.NewFromFloat(0.07)
	testTrailing   = decimal.NewFromFloat(0.10)
	testActivation = decimal.NewFromFloat(0.08)
)

func openPosition(entry, highest float64) domain.Position {
	return domain.Position{
		InPosition:   true,
		EntryPrice:   decimal.NewFromFloat(entry),
		HighestPrice: decimal.NewFromFloat(highest),
		EntryTime:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func snapshotAt(price float64) domain.SignalSnapshot {
	return domain.SignalSnapshot{Price: decimal.NewFromFloat(price)}
}

func TestEvaluateExit_StopLoss(t *testing.T) {
	pos := openPosition(100, 105)

	// trigger sits at 93
	reason := evaluateExit(pos, snapshotAt(92), testStopLoss, testTrailing, testActivation)
	assert.Equal(t, domain.ExitReasonStopLoss, reason)

	reason = evaluateExit(pos, snapshotAt(93), testStopLoss, testTrailing, testActivation)
	assert.Equal(t, domain.ExitReasonStopLoss, reason, "trigger price itself fires")

	reason = evaluateExit(pos, snapshotAt(94), testStopLoss, testTrailing, testActivation)
	assert.Equal(t, domain.ExitReasonNone, reason)
}

func TestEvaluateExit_TrailingStop(t *testing.T) {
	// entry 100, high 120: activation level 108 cleared, trigger at 108
	pos := openPosition(100, 120)

	reason := evaluateExit(pos, snapshotAt(107), testStopLoss, testTrailing, testActivation)
	assert.Equal(t, domain.ExitReasonTrailingStop, reason)

	reason = evaluateExit(pos, snapshotAt(109), testStopLoss, testTrailing, testActivation)
	assert.Equal(t, domain.ExitReasonNone, reason)
}

func TestEvaluateExit_TrailingStaysArmedBelowActivation(t *testing.T) {
	// the high-water mark cleared activation once, a later drop below the
	// activation level must not disarm the stop
	pos := openPosition(100, 120)

	reason := evaluateExit(pos, snapshotAt(105), testStopLoss, testTrailing, testActivation)
	assert.Equal(t, domain.ExitReasonTrailingStop, reason, "105 is under the 108 trigger")
}

func TestEvaluateExit_TrailingInactiveWithoutActivation(t *testing.T) {
	// high 105 never cleared the 108 activation level
	pos := openPosition(100, 105)

	reason := evaluateExit(pos, snapshotAt(94.4), testStopLoss, testTrailing, testActivation)
	assert.Equal(t, domain.ExitReasonNone, reason, "trailing trigger 94.5 must not fire while disarmed")
}

func TestEvaluateExit_TrendBreak(t *testing.T) {
	pos := openPosition(100, 105)
	snap := snapshotAt(99)
	snap.CrossedDown = true

	reason := evaluateExit(pos, snap, testStopLoss, testTrailing, testActivation)
	assert.Equal(t, domain.ExitReasonTrendBreak, reason)
}

func TestEvaluateExit_StopLossBeatsTrendBreak(t *testing.T) {
	pos := openPosition(100, 105)
	snap := snapshotAt(90)
	snap.CrossedDown = true

	reason := evaluateExit(pos, snap, testStopLoss, testTrailing, testActivation)
	assert.Equal(t, domain.ExitReasonStopLoss, reason)
}

func TestEntrySignal(t *testing.T) {
	assert.True(t, entrySignal(domain.SignalSnapshot{CrossedUp: true}))

	assert.True(t, entrySignal(domain.SignalSnapshot{
		StrongTrend: true,
		AboveLong:   true,
	}), "fresh strong trend enters")

	assert.False(t, entrySignal(domain.SignalSnapshot{
		StrongTrend:   true,
		AboveLong:     true,
		PrevAboveLong: true,
	}), "trend that was already above the long average is not fresh")

	assert.False(t, entrySignal(domain.SignalSnapshot{AboveLong: true}))
	assert.False(t, entrySignal(domain.SignalSnapshot{}))
}

func TestAllowEntry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 4 * time.Hour

	exited := func(reason domain.ExitReason, ago time.Duration) domain.Position {
		return domain.Position{
			LastExitTime:   now.Add(-ago),
			LastExitReason: reason,
		}
	}

	t.Run("first entry needs only the enable flag", func(t *testing.T) {
		assert.True(t, allowEntry(domain.Position{}, domain.SignalSnapshot{CrossedUp: true}, now, true, cooldown))
	})

	t.Run("disabled reentry blocks every entry", func(t *testing.T) {
		assert.False(t, allowEntry(domain.Position{}, domain.SignalSnapshot{CrossedUp: true}, now, false, cooldown),
			"the first entry is gated too")

		pos := exited(domain.ExitReasonStopLoss, 10*time.Hour)
		assert.False(t, allowEntry(pos, domain.SignalSnapshot{CrossedUp: true}, now, false, cooldown))
	})

	t.Run("cooldown blocks", func(t *testing.T) {
		pos := exited(domain.ExitReasonStopLoss, 3*time.Hour)
		assert.False(t, allowEntry(pos, domain.SignalSnapshot{CrossedUp: true}, now, true, cooldown))
	})

	t.Run("cooldown elapsed", func(t *testing.T) {
		pos := exited(domain.ExitReasonStopLoss, 5*time.Hour)
		assert.True(t, allowEntry(pos, domain.SignalSnapshot{CrossedUp: true}, now, true, cooldown))
	})

	t.Run("trend break blocks until fresh cross", func(t *testing.T) {
		pos := exited(domain.ExitReasonTrendBreak, 10*time.Hour)
		assert.False(t, allowEntry(pos, domain.SignalSnapshot{StrongTrend: true, AboveLong: true}, now, true, cooldown))
		assert.True(t, allowEntry(pos, domain.SignalSnapshot{CrossedUp: true}, now, true, cooldown))
	})

	t.Run("strong trend does not shortcut the cooldown", func(t *testing.T) {
		pos := exited(domain.ExitReasonTrailingStop, time.Hour)
		assert.False(t, allowEntry(pos, domain.SignalSnapshot{CrossedUp: true, StrongTrend: true}, now, true, cooldown),
			"one hour into a four hour cooldown")

		pos = exited(domain.ExitReasonTrailingStop, 5*time.Hour)
		assert.True(t, allowEntry(pos, domain.SignalSnapshot{CrossedUp: true, StrongTrend: true}, now, true, cooldown))
	})
}
