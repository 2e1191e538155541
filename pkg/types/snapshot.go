package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bid struct {
	ID       string          `json:"id"`
	BidderID string          `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"placed_at"`
}

type Round struct {
	PlayerID  string          `json:"player_id"`
	Kind      string          `json:"kind"`  // "contested" | "transfer"
	Phase     string          `json:"phase"` // "announced" | "bidding" | "closing" | "resolved" | "skipped"
	BasePrice decimal.Decimal `json:"base_price"`
	SellerID  string          `json:"seller_id,omitempty"`
	// MinimumNext is the lowest amount the next bid may carry.
	MinimumNext decimal.Decimal `json:"minimum_next"`
	HighestBid  *Bid            `json:"highest_bid,omitempty"`
	Interested  []string        `json:"interested,omitempty"`
	Passes      int             `json:"passes"`
	RemainingMS int64           `json:"remaining_ms"`
}

type Event struct {
	Type          string          `json:"type"`
	PlayerID      string          `json:"player_id,omitempty"`
	ParticipantID string          `json:"participant_id,omitempty"`
	SellerID      string          `json:"seller_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Auto          bool            `json:"auto,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Seq           uint64          `json:"seq"`
	At            time.Time       `json:"at"`
}

// Snapshot is one versioned state change. Observers can drop
// intermediate versions and still render the latest one.
type Snapshot struct {
	LeagueID     string  `json:"league_id"`
	Version      int     `json:"version"`
	Round        *Round  `json:"round,omitempty"`
	QueuePending int     `json:"queue_pending"`
	WindowOpen   bool    `json:"window_open"`
	Complete     bool    `json:"complete"`
	Events       []Event `json:"events,omitempty"`
}

type Holding struct {
	PlayerID   string          `json:"player_id"`
	Price      decimal.Decimal `json:"price"`
	Method     string          `json:"method"` // "auction" | "uncontested" | "transfer"
	AcquiredAt time.Time       `json:"acquired_at"`
}

type LedgerEntry struct {
	ParticipantID string          `json:"participant_id"`
	Budget        decimal.Decimal `json:"budget"`
	Spent         decimal.Decimal `json:"spent"`
	Holdings      []Holding       `json:"holdings"`
}

type Listing struct {
	ID        string          `json:"id"`
	PlayerID  string          `json:"player_id"`
	SellerID  string          `json:"seller_id"`
	BasePrice decimal.Decimal `json:"base_price"`
	Status    string          `json:"status"` // "open" | "auctioned"
	ListedAt  time.Time       `json:"listed_at"`
}

// State is the full league view served by the state endpoint.
type State struct {
	Snapshot
	Started  bool          `json:"started"`
	Mode     string        `json:"mode"` // "idle" | "draft" | "transfers"
	Ledger   []LedgerEntry `json:"ledger"`
	Listings []Listing     `json:"listings,omitempty"`
}
