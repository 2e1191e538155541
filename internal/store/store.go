// Package store persists the durable record of an auction: item
// lifecycle transitions, ledger deltas, and transfer listings. The
// auction loop treats persistence as infrastructure; failures here are
// retried, never turned into auction outcomes.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/draftpit/auction-engine/internal/auction"
	"github.com/draftpit/auction-engine/internal/market"
)

// ItemTransition is one lifecycle move of one item.
type ItemTransition struct {
	LeagueID string
	PlayerID string
	From     auction.Status
	To       auction.Status
	// WinnerID and Price are set when the move is a sale.
	WinnerID string
	Price    decimal.Decimal
	// SellerID is set for transfer listings.
	SellerID string
	Reason   string
	At       time.Time
}

// DeltaKind says which direction a ledger delta moved a budget.
type DeltaKind string

const (
	DeltaDebit  DeltaKind = "debit"
	DeltaCredit DeltaKind = "credit"
)

// LedgerDelta is one budget movement with the balance that resulted.
type LedgerDelta struct {
	LeagueID      string
	ParticipantID string
	// PlayerID is set when the delta paid for or refunded a holding.
	PlayerID    string
	Kind        DeltaKind
	Amount      decimal.Decimal
	BudgetAfter decimal.Decimal
	At          time.Time
}

// Store is the persistence collaborator. Implementations must be safe
// for concurrent use across leagues.
type Store interface {
	SaveItemTransition(ctx context.Context, t ItemTransition) error
	SaveLedgerDelta(ctx context.Context, d LedgerDelta) error
	// SaveListing inserts or replaces the listing keyed by its id.
	SaveListing(ctx context.Context, l market.Listing) error

	ItemTransitions(ctx context.Context, leagueID string) ([]ItemTransition, error)
	LedgerDeltas(ctx context.Context, leagueID string) ([]LedgerDelta, error)
	Listings(ctx context.Context, leagueID string) ([]market.Listing, error)
}
