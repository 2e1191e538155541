// Package types maps engine state onto the wire structs in pkg/types.
// The REST and websocket layers share these conversions so both surfaces
// describe a league identically.
package types

import (
	"sort"

	"github.com/draftpit/auction-engine/internal/auction"
	"github.com/draftpit/auction-engine/internal/ledger"
	"github.com/draftpit/auction-engine/internal/market"
	"github.com/draftpit/auction-engine/internal/session"
	wire "github.com/draftpit/auction-engine/pkg/types"
)

func Snapshot(s session.Snapshot) wire.Snapshot {
	return wire.Snapshot{
		LeagueID:     s.LeagueID,
		Version:      s.Version,
		Round:        Round(s.Round),
		QueuePending: s.QueuePending,
		WindowOpen:   s.WindowOpen,
		Complete:     s.Complete,
		Events:       Events(s.Events),
	}
}

func State(v session.View) wire.State {
	return wire.State{
		Snapshot: Snapshot(v.Snapshot),
		Started:  v.Started,
		Mode:     string(v.Mode),
		Ledger:   LedgerEntries(v.Ledger),
		Listings: Listings(v.Listings),
	}
}

func Round(r *session.RoundView) *wire.Round {
	if r == nil {
		return nil
	}
	return &wire.Round{
		PlayerID:    r.PlayerID,
		Kind:        string(r.Kind),
		Phase:       string(r.Phase),
		BasePrice:   r.BasePrice,
		SellerID:    r.SellerID,
		MinimumNext: r.MinimumNext,
		HighestBid:  Bid(r.HighestBid),
		Interested:  r.Interested,
		Passes:      r.Passes,
		RemainingMS: r.RemainingMS,
	}
}

func Bid(b *auction.Bid) *wire.Bid {
	if b == nil {
		return nil
	}
	return &wire.Bid{
		ID:       b.ID.String(),
		BidderID: b.BidderID,
		Amount:   b.Amount,
		PlacedAt: b.PlacedAt,
	}
}

func Events(evts []auction.Event) []wire.Event {
	if len(evts) == 0 {
		return nil
	}
	out := make([]wire.Event, len(evts))
	for i, e := range evts {
		out[i] = wire.Event{
			Type:          string(e.Type),
			PlayerID:      e.PlayerID,
			ParticipantID: e.ParticipantID,
			SellerID:      e.SellerID,
			Amount:        e.Amount,
			Auto:          e.Auto,
			Reason:        string(e.Reason),
			Seq:           e.Seq,
			At:            e.At,
		}
	}
	return out
}

func LedgerEntries(entries []ledger.Entry) []wire.LedgerEntry {
	out := make([]wire.LedgerEntry, len(entries))
	for i, e := range entries {
		holdings := make([]wire.Holding, 0, len(e.Holdings))
		for _, h := range e.Holdings {
			holdings = append(holdings, wire.Holding{
				PlayerID:   h.PlayerID,
				Price:      h.Price,
				Method:     string(h.Method),
				AcquiredAt: h.AcquiredAt,
			})
		}
		sort.Slice(holdings, func(a, b int) bool { return holdings[a].PlayerID < holdings[b].PlayerID })
		out[i] = wire.LedgerEntry{
			ParticipantID: e.ParticipantID,
			Budget:        e.Budget,
			Spent:         e.Spent(),
			Holdings:      holdings,
		}
	}
	return out
}

func Listing(l market.Listing) wire.Listing {
	return wire.Listing{
		ID:        l.ID.String(),
		PlayerID:  l.PlayerID,
		SellerID:  l.SellerID,
		BasePrice: l.BasePrice,
		Status:    string(l.Status),
		ListedAt:  l.CreatedAt,
	}
}

func Listings(listings []market.Listing) []wire.Listing {
	if len(listings) == 0 {
		return nil
	}
	out := make([]wire.Listing, len(listings))
	for i, l := range listings {
		out[i] = Listing(l)
	}
	return out
}
