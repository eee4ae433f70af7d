package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is one completed round trip, appended to the trade journal when
// a position closes. Records are write-only from the decision path.
type TradeRecord struct {
	Pair          string          `json:"pair"`
	EntryTime     time.Time       `json:"entry_time"`
	ExitTime      time.Time       `json:"exit_time"`
	EntryPrice    decimal.Decimal `json:"entry_price"`
	ExitPrice     decimal.Decimal `json:"exit_price"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
	Reason        ExitReason      `json:"reason"`
}
