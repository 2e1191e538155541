package auction

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestIncrementSchedule(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"0", "0.10"},
		{"0.5", "0.10"},
		{"0.99", "0.10"},
		{"1", "0.20"},
		{"1.5", "0.20"},
		{"1.99", "0.20"},
		{"2", "0.50"},
		{"3.3", "0.50"},
		{"4.99", "0.50"},
		{"5", "1.00"},
		{"9.5", "1.00"},
		{"120", "1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			got := Increment(dec(tt.price))
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("Increment(%s) = %s, want %s", tt.price, got, tt.want)
			}
		})
	}
}

func TestRequiredMinimum(t *testing.T) {
	it := Item{PlayerID: "p1", Kind: KindContested, BasePrice: dec("0.8"), Status: StatusActive}

	if min := RequiredMinimum(it); !min.Equal(dec("0.8")) {
		t.Fatalf("minimum with no bids = %s, want base price 0.8", min)
	}

	tests := []struct {
		standing string
		want     string
	}{
		{"0.9", "1.0"},
		{"1.0", "1.2"},
		{"1.9", "2.1"},
		{"2.0", "2.5"},
		{"4.8", "5.3"},
		{"5.0", "6.0"},
		{"12", "13"},
	}
	for _, tt := range tests {
		t.Run(tt.standing, func(t *testing.T) {
			it := it
			it.HighestBid = &Bid{BidderID: "a", Amount: dec(tt.standing)}
			if min := RequiredMinimum(it); !min.Equal(dec(tt.want)) {
				t.Fatalf("minimum over %s = %s, want %s", tt.standing, min, tt.want)
			}
		})
	}
}
