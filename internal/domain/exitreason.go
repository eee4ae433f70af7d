package domain

// ExitReason identifies which trigger closed a position.
type ExitReason string

const (
	ExitReasonNone         ExitReason = ""
	ExitReasonStopLoss     ExitReason = "stop_loss"
	ExitReasonTrailingStop ExitReason = "trailing_stop"
	ExitReasonTrendBreak   ExitReason = "trend_break"
	// ExitReasonDrift marks a position cleared because the exchange reported
	// no actual holding behind the local record.
	ExitReasonDrift ExitReason = "drift_correction"
)

// BlocksReentry reports whether this exit forbids reentry until a fresh
// crossed-up signal occurs. Trend-break exits are treated as regime change;
// price-based stops only impose the cooldown.
func (r ExitReason) BlocksReentry() bool {
	return r == ExitReasonTrendBreak
}
