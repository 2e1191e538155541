package auction

import (
	"fmt"

	"github.com/draftpit/auction-engine/internal/ledger"
)

// ValidateBid decides whether the bid may stand against the item as it
// is right now. It is a pure function of its inputs: the caller passes
// the bidder's current ledger entry, and nothing here touches shared
// state. Checks run in a fixed order so that the reported reason is
// deterministic:
//
//  1. the item must be open for bidding
//  2. the bidder must be allowed near the item at all
//  3. the amount must clear the required minimum
//  4. the bidder's budget must cover the amount
//  5. a seller may not buy back their own listing
func ValidateBid(it Item, bidder ledger.Entry, bid Bid) error {
	if it.Status != StatusActive || bid.PlayerID != it.PlayerID {
		return fmt.Errorf("player %s: %w", bid.PlayerID, ErrAuctionClosed)
	}
	if it.Kind == KindContested && !it.IsInterested(bid.BidderID) {
		return fmt.Errorf("bidder %s on player %s: %w", bid.BidderID, it.PlayerID, ErrNotInterestedParty)
	}
	if min := RequiredMinimum(it); bid.Amount.LessThan(min) {
		return fmt.Errorf("bid %s, minimum %s: %w", bid.Amount, min, ErrBidTooLow)
	}
	if bidder.Budget.LessThan(bid.Amount) {
		return fmt.Errorf("bid %s, budget %s: %w", bid.Amount, bidder.Budget, ErrInsufficientBudget)
	}
	if it.Kind == KindTransfer && bid.BidderID == it.SellerID {
		return fmt.Errorf("bidder %s: %w", bid.BidderID, ErrSelfBidForbidden)
	}
	return nil
}
