package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketCandle is a single OHLCV bar. Candles are immutable once fetched and
// are expected to arrive ordered ascending by OpenTime with no duplicates.
type MarketCandle struct {
	OpenTime  time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime time.Time
}
