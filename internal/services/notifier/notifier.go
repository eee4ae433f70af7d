// Package notifier delivers operator notifications about trades and
// lifecycle events. Delivery is best effort: a lost notification must never
// block or fail a trading decision, so Notify reports nothing to the caller
// and failures only surface in the log.
package notifier

import "context"

// Notifier sends a human-readable message to the operator.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Noop discards all notifications.
type Noop struct{}

func (Noop) Notify(ctx context.Context, text string) {}
