package auction

import (
	"errors"
	"testing"

	"github.com/draftpit/auction-engine/internal/ledger"
)

func contested(base string, interested ...string) Item {
	return Item{
		PlayerID:   "p1",
		Kind:       KindContested,
		BasePrice:  dec(base),
		Status:     StatusActive,
		Interested: interested,
	}
}

func transfer(base, seller string) Item {
	return Item{
		PlayerID:  "p1",
		Kind:      KindTransfer,
		BasePrice: dec(base),
		Status:    StatusActive,
		SellerID:  seller,
	}
}

func wallet(id, budget string) ledger.Entry {
	return ledger.Entry{ParticipantID: id, Budget: dec(budget)}
}

func offer(bidder, amount string) Bid {
	return Bid{PlayerID: "p1", BidderID: bidder, Amount: dec(amount)}
}

func TestValidateBid(t *testing.T) {
	withBid := contested("0.8", "a", "b")
	withBid.HighestBid = &Bid{BidderID: "a", Amount: dec("0.9")}

	closed := contested("0.8", "a", "b")
	closed.Status = StatusSold

	tests := []struct {
		name    string
		item    Item
		bidder  ledger.Entry
		bid     Bid
		wantErr error
	}{
		{
			name:   "first bid at base price accepted",
			item:   contested("0.8", "a", "b"),
			bidder: wallet("a", "100"),
			bid:    offer("a", "0.8"),
		},
		{
			name:   "raise over standing bid accepted",
			item:   withBid,
			bidder: wallet("b", "100"),
			bid:    offer("b", "1.0"),
		},
		{
			name:    "item no longer active",
			item:    closed,
			bidder:  wallet("a", "100"),
			bid:     offer("a", "5"),
			wantErr: ErrAuctionClosed,
		},
		{
			name:    "bid addressed to a different player",
			item:    contested("0.8", "a", "b"),
			bidder:  wallet("a", "100"),
			bid:     Bid{PlayerID: "p2", BidderID: "a", Amount: dec("5")},
			wantErr: ErrAuctionClosed,
		},
		{
			name:    "outsider on a contested item",
			item:    contested("0.8", "a", "b"),
			bidder:  wallet("z", "100"),
			bid:     offer("z", "5"),
			wantErr: ErrNotInterestedParty,
		},
		{
			name:    "outsider reported before the low amount",
			item:    contested("0.8", "a", "b"),
			bidder:  wallet("z", "100"),
			bid:     offer("z", "0.1"),
			wantErr: ErrNotInterestedParty,
		},
		{
			name:    "first bid under base price",
			item:    contested("1.5", "a", "b"),
			bidder:  wallet("a", "100"),
			bid:     offer("a", "1.4"),
			wantErr: ErrBidTooLow,
		},
		{
			name:    "raise under standing bid plus increment",
			item:    withBid,
			bidder:  wallet("b", "100"),
			bid:     offer("b", "0.95"),
			wantErr: ErrBidTooLow,
		},
		{
			name:    "amount over remaining budget",
			item:    contested("0.8", "a", "b"),
			bidder:  wallet("a", "0.5"),
			bid:     offer("a", "0.8"),
			wantErr: ErrInsufficientBudget,
		},
		{
			name:   "anyone but the seller may bid on a transfer",
			item:   transfer("2", "s"),
			bidder: wallet("z", "100"),
			bid:    offer("z", "2"),
		},
		{
			name:    "seller buying back own listing",
			item:    transfer("2", "s"),
			bidder:  wallet("s", "100"),
			bid:     offer("s", "2"),
			wantErr: ErrSelfBidForbidden,
		},
		{
			name:    "broke seller still reported for the budget first",
			item:    transfer("2", "s"),
			bidder:  wallet("s", "1"),
			bid:     offer("s", "2"),
			wantErr: ErrInsufficientBudget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBid(tt.item, tt.bidder, tt.bid)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateBid() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateBid() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
