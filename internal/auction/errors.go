package auction

import "errors"

var (
	// ErrBidTooLow rejects bids under the required minimum.
	ErrBidTooLow = errors.New("bid below required minimum")
	// ErrInsufficientBudget rejects bids above the bidder's remaining budget.
	ErrInsufficientBudget = errors.New("bid exceeds remaining budget")
	// ErrAuctionClosed rejects commands on items that are not open for bidding.
	ErrAuctionClosed = errors.New("auction closed for this player")
	// ErrSelfBidForbidden rejects sellers bidding on their own listings.
	ErrSelfBidForbidden = errors.New("seller cannot bid on own listing")
	// ErrNotInterestedParty rejects bidders outside the item's interested set.
	ErrNotInterestedParty = errors.New("participant not among interested parties")
	// ErrInvalidTransition rejects lifecycle moves the state machine does
	// not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrUnsupportedCommand is returned for command types Apply does not know.
	ErrUnsupportedCommand = errors.New("unsupported command")
)
