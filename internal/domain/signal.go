package domain

import "github.com/shopspring/decimal"

// SignalSnapshot is the trend state derived from the trailing candle window.
// All boolean fields are pure functions of the two most recent closes and the
// two moving averages; nothing mutates a snapshot after computation.
type SignalSnapshot struct {
	// Price latest close.
	Price decimal.Decimal
	// MALong trailing mean over the long window, ending at the latest bar.
	MALong decimal.Decimal
	// MAShort trailing mean over the short window, ending at the latest bar.
	MAShort decimal.Decimal
	// AboveLong price trades above the long average.
	AboveLong bool
	// PrevAboveLong previous close traded above the previous long average.
	PrevAboveLong bool
	// CrossedUp price crossed the long average from below on this bar.
	CrossedUp bool
	// CrossedDown price crossed the long average from above on this bar.
	CrossedDown bool
	// StrongTrend price > short average > long average.
	StrongTrend bool
}

// Trend returns a short human-readable regime label for status messages.
func (s SignalSnapshot) Trend() string {
	if s.AboveLong {
		return "BULL"
	}
	return "BEAR"
}
