// Package positions persists the bot's single position slot in a JSON state
// file. The store is single-writer: only the decision loop mutates it, and
// every mutation is flushed to disk before the call returns.
package positions

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tudor/internal/domain"
)

// Store keeps the current position in memory and mirrors every change to a
// state file via temp-file rename. On startup the file is read once; a file
// that is missing or unparsable loads as a flat position with no cooldown
// history rather than partially applying fields.
type Store struct {
	path  string
	l     *zap.Logger
	state domain.Position
}

// storedState is the serialized layout. Decimals travel as strings so the
// file survives round trips without float drift.
type storedState struct {
	InPosition     bool      `json:"in_position"`
	EntryPrice     string    `json:"entry_price,omitempty"`
	HighestPrice   string    `json:"highest_price,omitempty"`
	EntryTime      time.Time `json:"entry_time,omitzero"`
	LastExitTime   time.Time `json:"last_exit_time,omitzero"`
	LastExitReason string    `json:"last_exit_reason,omitempty"`
}

// NewStore loads position state from path. Unrecoverable I/O errors are
// returned so startup can abort instead of trading with an unknown position.
func NewStore(path string, l *zap.Logger) (*Store, error) {
	s := &Store{path: path, l: l}

	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.Info("no position state file, starting flat", zap.String("path", path))
			return s, nil
		}
		return nil, errors.Wrap(err, "read position state")
	}

	if len(payload) == 0 {
		return s, nil
	}

	state, err := decodeState(payload)
	if err != nil {
		// a torn or hand-edited file must not half-apply; the exchange
		// reconciliation re-derives the real position on the first tick
		l.Warn("position state unparsable, resetting to flat", zap.Error(err), zap.String("path", path))
		s.state = domain.Position{}
		return s, nil
	}

	s.state = state
	l.Info("position state loaded",
		zap.Bool("in_position", state.InPosition),
		zap.String("entry_price", state.EntryPrice.String()))

	return s, nil
}

// Position returns a copy of the current position.
func (s *Store) Position() domain.Position {
	return s.state
}

// EnterPosition opens the position slot at the given price.
func (s *Store) EnterPosition(price decimal.Decimal, now time.Time) error {
	if s.state.InPosition {
		return domain.ErrAlreadyInPosition
	}

	s.state.InPosition = true
	s.state.EntryPrice = price
	s.state.HighestPrice = price
	s.state.EntryTime = now

	return s.save()
}

// UpdateHighest raises the high-water mark when price exceeds it. Returns
// whether the mark changed; no-op while flat.
func (s *Store) UpdateHighest(price decimal.Decimal) (bool, error) {
	if !s.state.InPosition || !price.GreaterThan(s.state.HighestPrice) {
		return false, nil
	}

	s.state.HighestPrice = price

	return true, s.save()
}

// ExitPosition clears the slot and records the exit for cooldown arithmetic.
func (s *Store) ExitPosition(reason domain.ExitReason, now time.Time) error {
	if !s.state.InPosition {
		return domain.ErrNotInPosition
	}

	s.state.InPosition = false
	s.state.EntryPrice = decimal.Zero
	s.state.HighestPrice = decimal.Zero
	s.state.EntryTime = time.Time{}
	s.state.LastExitTime = now
	s.state.LastExitReason = reason

	return s.save()
}

// save writes state to disk atomically via temp file.
func (s *Store) save() error {
	stored := storedState{
		InPosition:     s.state.InPosition,
		EntryTime:      s.state.EntryTime,
		LastExitTime:   s.state.LastExitTime,
		LastExitReason: string(s.state.LastExitReason),
	}
	if s.state.InPosition {
		stored.EntryPrice = s.state.EntryPrice.String()
		stored.HighestPrice = s.state.HighestPrice.String()
	}

	payload, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode position state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write position state temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist position state")
	}

	return nil
}

func decodeState(payload []byte) (domain.Position, error) {
	var stored storedState
	if err := json.Unmarshal(payload, &stored); err != nil {
		return domain.Position{}, errors.Wrap(err, "decode position state")
	}

	state := domain.Position{
		InPosition:     stored.InPosition,
		EntryTime:      stored.EntryTime,
		LastExitTime:   stored.LastExitTime,
		LastExitReason: domain.ExitReason(stored.LastExitReason),
		EntryPrice:     decimal.Zero,
		HighestPrice:   decimal.Zero,
	}

	if stored.InPosition {
		entryPrice, err := decimal.NewFromString(stored.EntryPrice)
		if err != nil {
			return domain.Position{}, errors.Wrap(err, "decode entry price")
		}
		highestPrice, err := decimal.NewFromString(stored.HighestPrice)
		if err != nil {
			return domain.Position{}, errors.Wrap(err, "decode highest price")
		}
		if highestPrice.LessThan(entryPrice) {
			return domain.Position{}, errors.Errorf("highest price %s below entry price %s",
				highestPrice.String(), entryPrice.String())
		}

		state.EntryPrice = entryPrice
		state.HighestPrice = highestPrice
	}

	return state, nil
}
