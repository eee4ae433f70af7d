package trades

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/tudor/internal/domain"
)

func sampleTrade(pair string, profit float64) domain.TradeRecord {
	entry := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.TradeRecord{
		Pair:          pair,
		EntryTime:     entry,
		ExitTime:      entry.Add(6 * time.Hour),
		EntryPrice:    decimal.NewFromInt(100),
		ExitPrice:     decimal.NewFromFloat(100 + profit),
		ProfitPercent: decimal.NewFromFloat(profit),
		Reason:        domain.ExitReasonTrailingStop,
	}
}

func TestWALStore_AppendAndReplay(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	base := store.CurrentIndex()

	require.NoError(t, store.Append(sampleTrade("BTC_USDT", 5)))
	require.NoError(t, store.Append(sampleTrade("BTC_USDT", -7)))

	records, err := store.TradesAfter(base)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, records[0].ProfitPercent.Equal(decimal.NewFromInt(5)))
	require.True(t, records[1].ProfitPercent.Equal(decimal.NewFromInt(-7)))
	require.Equal(t, domain.ExitReasonTrailingStop, records[0].Reason)
}

func TestWALStore_TradesAfterCurrentIsEmpty(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(sampleTrade("ETH_USDT", 3)))

	records, err := store.TradesAfter(store.CurrentIndex())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestWALStore_RejectsRecordWithoutPair(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	err = store.Append(domain.TradeRecord{})
	require.Error(t, err)
}

func TestWALStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Append(sampleTrade("BTC_USDT", 12)))
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.TradesAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].ExitPrice.Equal(decimal.NewFromInt(112)))
}
