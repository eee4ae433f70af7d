package signal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/tudor/internal/domain"
)

func candlesFromCloses(closes ...float64) []domain.MarketCandle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]domain.MarketCandle, len(closes))
	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		candles[i] = domain.MarketCandle{
			OpenTime:  start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    decimal.NewFromInt(1),
			CloseTime: start.Add(time.Duration(i+1) * 24 * time.Hour),
		}
	}
	return candles
}

func TestCalculator_WindowValidation(t *testing.T) {
	_, err := NewCalculator(0, 0)
	require.Error(t, err)

	_, err = NewCalculator(10, 20)
	require.Error(t, err, "long window must not be shorter than short window")

	_, err = NewCalculator(20, 10)
	require.NoError(t, err)
}

func TestCalculator_InsufficientData(t *testing.T) {
	calc, err := NewCalculator(5, 2)
	require.NoError(t, err)

	// exactly longWindow bars is one short of the requirement
	_, err = calc.Snapshot(candlesFromCloses(1, 2, 3, 4, 5))
	require.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = calc.Snapshot(candlesFromCloses(1, 2, 3, 4, 5, 6))
	require.NoError(t, err)
}

func TestCalculator_AveragesMatchDirectMean(t *testing.T) {
	calc, err := NewCalculator(4, 2)
	require.NoError(t, err)

	closes := []float64{10, 12, 14, 16, 18, 20, 22, 24}
	snap, err := calc.Snapshot(candlesFromCloses(closes...))
	require.NoError(t, err)

	// trailing means over the last 4 and last 2 closes
	wantLong := decimal.NewFromFloat((18 + 20 + 22 + 24) / 4.0)
	wantShort := decimal.NewFromFloat((22 + 24) / 2.0)

	require.True(t, snap.MALong.Equal(wantLong), "maLong = %s, want %s", snap.MALong, wantLong)
	require.True(t, snap.MAShort.Equal(wantShort), "maShort = %s, want %s", snap.MAShort, wantShort)
	require.True(t, snap.Price.Equal(decimal.NewFromInt(24)))
}

func TestCalculator_CrossedUp(t *testing.T) {
	calc, err := NewCalculator(2, 1)
	require.NoError(t, err)

	// prev close 8 sits below the previous MA(2)=9, latest close 12 above MA(2)=10
	snap, err := calc.Snapshot(candlesFromCloses(10, 10, 8, 12))
	require.NoError(t, err)

	require.True(t, snap.CrossedUp)
	require.False(t, snap.CrossedDown)
	require.True(t, snap.AboveLong)
	require.False(t, snap.PrevAboveLong)
}

func TestCalculator_CrossedDown(t *testing.T) {
	calc, err := NewCalculator(2, 1)
	require.NoError(t, err)

	snap, err := calc.Snapshot(candlesFromCloses(10, 10, 12, 8))
	require.NoError(t, err)

	require.True(t, snap.CrossedDown)
	require.False(t, snap.CrossedUp)
	require.False(t, snap.AboveLong)
	require.True(t, snap.PrevAboveLong)
}

func TestCalculator_NoCrossWhenFlat(t *testing.T) {
	calc, err := NewCalculator(3, 2)
	require.NoError(t, err)

	snap, err := calc.Snapshot(candlesFromCloses(10, 10, 10, 10, 10))
	require.NoError(t, err)

	require.False(t, snap.CrossedUp)
	require.False(t, snap.CrossedDown)
	require.False(t, snap.AboveLong)
	require.False(t, snap.StrongTrend)
}

func TestCalculator_CrossSignalsMutuallyExclusive(t *testing.T) {
	calc, err := NewCalculator(3, 2)
	require.NoError(t, err)

	paths := [][]float64{
		{10, 11, 12, 13, 14},
		{14, 13, 12, 11, 10},
		{10, 14, 9, 15, 8},
		{10, 10, 10, 11, 9},
		{100, 90, 110, 95, 105},
	}

	for _, closes := range paths {
		snap, err := calc.Snapshot(candlesFromCloses(closes...))
		require.NoError(t, err)
		require.False(t, snap.CrossedUp && snap.CrossedDown,
			"crossedUp and crossedDown both true for %v", closes)
	}
}

func TestCalculator_StrongTrend(t *testing.T) {
	calc, err := NewCalculator(4, 2)
	require.NoError(t, err)

	// steadily rising closes keep price > short MA > long MA
	snap, err := calc.Snapshot(candlesFromCloses(10, 12, 14, 16, 18, 20))
	require.NoError(t, err)

	require.True(t, snap.StrongTrend)
	require.True(t, snap.AboveLong)
}
