// Package recorder keeps a local, append-only history of auction
// activity for audit and post-season review. Recording is best effort;
// the auction loop logs failures and moves on.
package recorder

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionRecord is one auction event as it will appear in history.
type AuctionRecord struct {
	LeagueID      string
	PlayerID      string
	EventType     string
	ParticipantID string
	SellerID      string
	Amount        decimal.Decimal
	Seq           uint64
	Reason        string
	At            time.Time
}

// LedgerRecord is one budget movement as it will appear in history.
type LedgerRecord struct {
	LeagueID      string
	ParticipantID string
	PlayerID      string
	Kind          string
	Amount        decimal.Decimal
	BudgetAfter   decimal.Decimal
	At            time.Time
}

type Recorder interface {
	RecordAuction(rec *AuctionRecord) error
	RecordLedger(rec *LedgerRecord) error
	Close() error
}

// Noop is used when history is disabled.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) RecordAuction(*AuctionRecord) error { return nil }
func (*Noop) RecordLedger(*LedgerRecord) error   { return nil }
func (*Noop) Close() error                       { return nil }
