package positions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tudor/internal/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "position.json")
	store, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	return store, path
}

func TestStore_StartsFlat(t *testing.T) {
	store, _ := newTestStore(t)

	pos := store.Position()
	require.False(t, pos.InPosition)
	require.True(t, pos.LastExitTime.IsZero())
}

func TestStore_EnterExitLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.EnterPosition(decimal.NewFromInt(100), now))
	require.ErrorIs(t, store.EnterPosition(decimal.NewFromInt(101), now), domain.ErrAlreadyInPosition)

	pos := store.Position()
	require.True(t, pos.InPosition)
	require.True(t, pos.EntryPrice.Equal(decimal.NewFromInt(100)))
	require.True(t, pos.HighestPrice.Equal(decimal.NewFromInt(100)), "high-water mark starts at entry")

	exitTime := now.Add(2 * time.Hour)
	require.NoError(t, store.ExitPosition(domain.ExitReasonStopLoss, exitTime))
	require.ErrorIs(t, store.ExitPosition(domain.ExitReasonStopLoss, exitTime), domain.ErrNotInPosition)

	pos = store.Position()
	require.False(t, pos.InPosition)
	require.True(t, pos.EntryPrice.IsZero())
	require.Equal(t, exitTime, pos.LastExitTime)
	require.Equal(t, domain.ExitReasonStopLoss, pos.LastExitReason)
}

func TestStore_HighWaterIsMonotonic(t *testing.T) {
	store, _ := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.EnterPosition(decimal.NewFromInt(100), now))

	changed, err := store.UpdateHighest(decimal.NewFromInt(120))
	require.NoError(t, err)
	require.True(t, changed)

	// a lower price never lowers the mark
	changed, err = store.UpdateHighest(decimal.NewFromInt(110))
	require.NoError(t, err)
	require.False(t, changed)
	require.True(t, store.Position().HighestPrice.Equal(decimal.NewFromInt(120)))

	changed, err = store.UpdateHighest(decimal.NewFromInt(120))
	require.NoError(t, err)
	require.False(t, changed, "equal price does not count as a new high")
}

func TestStore_UpdateHighestWhileFlat(t *testing.T) {
	store, _ := newTestStore(t)

	changed, err := store.UpdateHighest(decimal.NewFromInt(500))
	require.NoError(t, err)
	require.False(t, changed)
	require.True(t, store.Position().HighestPrice.IsZero())
}

func TestStore_TriggerArithmetic(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.EnterPosition(decimal.NewFromInt(100), time.Now().UTC()))

	_, err := store.UpdateHighest(decimal.NewFromInt(120))
	require.NoError(t, err)

	pos := store.Position()
	stop := pos.StopLossPrice(decimal.NewFromFloat(0.07))
	require.True(t, stop.Equal(decimal.NewFromInt(93)), "stop = %s", stop)

	trail := pos.TrailingStopPrice(decimal.NewFromFloat(0.10))
	require.True(t, trail.Equal(decimal.NewFromInt(108)), "trail = %s", trail)

	activation := decimal.NewFromFloat(0.08)
	require.False(t, pos.TrailingActive(decimal.NewFromInt(108), activation))
	require.True(t, pos.TrailingActive(decimal.NewFromFloat(108.01), activation))
}

func TestStore_CooldownBoundary(t *testing.T) {
	store, _ := newTestStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 4 * time.Hour

	require.NoError(t, store.EnterPosition(decimal.NewFromInt(100), now))
	require.NoError(t, store.ExitPosition(domain.ExitReasonTrailingStop, now))

	pos := store.Position()
	require.False(t, pos.CanReenter(now.Add(3*time.Hour), cooldown))
	require.True(t, pos.CanReenter(now.Add(4*time.Hour), cooldown))
	require.True(t, pos.CanReenter(now.Add(4*time.Hour+time.Minute), cooldown))
}

func TestStore_RestartRoundTrip(t *testing.T) {
	store, path := newTestStore(t)
	entryTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.EnterPosition(decimal.NewFromFloat(431.55), entryTime))
	_, err := store.UpdateHighest(decimal.NewFromFloat(450.10))
	require.NoError(t, err)

	reopened, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	pos := reopened.Position()
	require.True(t, pos.InPosition)
	require.True(t, pos.EntryPrice.Equal(decimal.NewFromFloat(431.55)))
	require.True(t, pos.HighestPrice.Equal(decimal.NewFromFloat(450.10)))
	require.Equal(t, entryTime, pos.EntryTime)
}

func TestStore_RestartAfterExitKeepsCooldown(t *testing.T) {
	store, path := newTestStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.EnterPosition(decimal.NewFromInt(100), now))
	require.NoError(t, store.ExitPosition(domain.ExitReasonTrendBreak, now.Add(time.Hour)))

	reopened, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	pos := reopened.Position()
	require.False(t, pos.InPosition)
	require.Equal(t, now.Add(time.Hour), pos.LastExitTime)
	require.Equal(t, domain.ExitReasonTrendBreak, pos.LastExitReason)
}

func TestStore_CorruptFileResetsToFlat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "position.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	require.False(t, store.Position().InPosition)
	require.True(t, store.Position().LastExitTime.IsZero())
}

func TestStore_InconsistentHighWaterResetsToFlat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "position.json")
	payload := `{"in_position":true,"entry_price":"100","highest_price":"90","entry_time":"2025-06-01T12:00:00Z"}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	store, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	require.False(t, store.Position().InPosition)
}
