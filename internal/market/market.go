// Package market models the weekly transfer window: owner listings and
// the cron schedule that opens and closes the window.
package market

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrWindowClosed rejects listings outside the transfer window.
	ErrWindowClosed = errors.New("transfer window is closed")
	// ErrNotOwner rejects listings for players the seller does not hold.
	ErrNotOwner = errors.New("seller does not own this player")
	// ErrDuplicateListing rejects a second open listing for the same player.
	ErrDuplicateListing = errors.New("player is already listed")
	// ErrInvalidPrice rejects negative asking prices.
	ErrInvalidPrice = errors.New("asking price must not be negative")
)

// ListingStatus tracks what became of a listing.
type ListingStatus string

const (
	// ListingOpen listings are waiting for the window to close.
	ListingOpen ListingStatus = "open"
	// ListingAuctioned listings have been handed to the auction queue.
	ListingAuctioned ListingStatus = "auctioned"
)

// Listing is one owner-initiated offer to sell a player.
type Listing struct {
	ID        uuid.UUID
	LeagueID  string
	PlayerID  string
	SellerID  string
	BasePrice decimal.Decimal
	Status    ListingStatus
	CreatedAt time.Time
}

// NewListing validates and builds an open listing.
func NewListing(leagueID, playerID, sellerID string, basePrice decimal.Decimal, now time.Time) (Listing, error) {
	if basePrice.IsNegative() {
		return Listing{}, ErrInvalidPrice
	}
	return Listing{
		ID:        uuid.New(),
		LeagueID:  leagueID,
		PlayerID:  playerID,
		SellerID:  sellerID,
		BasePrice: basePrice,
		Status:    ListingOpen,
		CreatedAt: now,
	}, nil
}
