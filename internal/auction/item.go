package auction

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind distinguishes draft items from transfer-market listings.
type Kind string

const (
	// KindContested items come out of the nomination queue and may only
	// be bid on by their interested participants.
	KindContested Kind = "contested"
	// KindTransfer items are owner listings; any participant except the
	// seller may bid.
	KindTransfer Kind = "transfer"
)

// Status is the lifecycle state of an item in the queue.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusSold     Status = "sold"
	StatusSkipped  Status = "skipped"
	StatusReverted Status = "reverted"
)

// Item is one player put up for auction.
type Item struct {
	PlayerID  string
	Kind      Kind
	BasePrice decimal.Decimal
	// SellerID is set on transfer listings only.
	SellerID string
	Status   Status
	// HighestBid is nil until the first bid is accepted.
	HighestBid *Bid
	// Interested lists the participants allowed to bid on a contested
	// item. Empty on transfer listings.
	Interested []string
}

// IsInterested reports whether the participant declared interest in
// this item.
func (it Item) IsInterested(participantID string) bool {
	return slices.Contains(it.Interested, participantID)
}

// Bid is a single offer on an item. Seq is the position in the league's
// arrival order and fixes how concurrent bids were serialized.
type Bid struct {
	ID       uuid.UUID
	PlayerID string
	BidderID string
	Amount   decimal.Decimal
	Seq      uint64
	PlacedAt time.Time
}
