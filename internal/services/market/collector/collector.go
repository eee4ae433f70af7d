// Package collector fetches candle history from exchanges.
package collector

import (
	"context"

	"github.com/vadiminshakov/tudor/internal/domain"
)

// KlineProvider returns the trailing candle window for a pair, ordered
// ascending by open time with the newest bar last.
type KlineProvider interface {
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error)
}
