// Package signal derives a trend snapshot from a trailing candle window.
package signal

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tudor/internal/domain"
)

// Calculator computes SignalSnapshots from candle history. It is a pure
// function of its input and holds no state, so the same calculator serves
// live polling and historical replays identically.
type Calculator struct {
	longWindow  int
	shortWindow int
}

// NewCalculator validates the window configuration.
func NewCalculator(longWindow, shortWindow int) (*Calculator, error) {
	if shortWindow < 1 {
		return nil, fmt.Errorf("short window must be >= 1, got %d", shortWindow)
	}
	if longWindow < shortWindow {
		return nil, fmt.Errorf("long window (%d) must be >= short window (%d)", longWindow, shortWindow)
	}

	return &Calculator{longWindow: longWindow, shortWindow: shortWindow}, nil
}

// Snapshot computes the trend snapshot from the last two bars of the series.
// Candles must be ordered ascending by open time; at least longWindow+1 bars
// are required so that the previous bar also has a full long average behind it.
func (c *Calculator) Snapshot(candles []domain.MarketCandle) (domain.SignalSnapshot, error) {
	if len(candles) < c.longWindow+1 {
		return domain.SignalSnapshot{}, errors.Wrapf(domain.ErrInsufficientData,
			"need %d bars, got %d", c.longWindow+1, len(candles))
	}

	closes := make([]decimal.Decimal, len(candles))
	for i, candle := range candles {
		closes[i] = candle.Close
	}

	maLong := smaSeries(closes, c.longWindow)
	maShort := smaSeries(closes, c.shortWindow)

	price := closes[len(closes)-1]
	prevPrice := closes[len(closes)-2]

	maLongCur := maLong[len(maLong)-1]
	maLongPrev := maLong[len(maLong)-2]
	maShortCur := maShort[len(maShort)-1]

	prevAboveLong := prevPrice.GreaterThan(maLongPrev)

	return domain.SignalSnapshot{
		Price:         price,
		MALong:        maLongCur,
		MAShort:       maShortCur,
		AboveLong:     price.GreaterThan(maLongCur),
		PrevAboveLong: prevAboveLong,
		CrossedUp:     prevPrice.LessThanOrEqual(maLongPrev) && price.GreaterThan(maLongCur),
		CrossedDown:   prevPrice.GreaterThanOrEqual(maLongPrev) && price.LessThan(maLongCur),
		StrongTrend:   price.GreaterThan(maShortCur) && maShortCur.GreaterThan(maLongCur),
	}, nil
}

// smaSeries returns trailing simple moving averages ending at each bar,
// starting at the first bar with a full window behind it (no look-ahead).
func smaSeries(closes []decimal.Decimal, period int) []decimal.Decimal {
	closesFloat := decimalsToFloat64(closes)

	sma := trend.NewSmaWithPeriod[float64](period)
	inputChan := helper.SliceToChan(closesFloat)
	outputChan := sma.Compute(inputChan)
	smaFloat := helper.ChanToSlice(outputChan)

	return float64ToDecimals(smaFloat)
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64.
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals converts a slice of float64 to []decimal.Decimal.
func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}
