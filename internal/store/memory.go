package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/draftpit/auction-engine/internal/auction"
	"github.com/draftpit/auction-engine/internal/market"
)

// Memory keeps everything in process. It is the default store for
// development and the reference implementation the tests run against.
type Memory struct {
	mu          sync.RWMutex
	transitions []ItemTransition
	deltas      []LedgerDelta
	listings    map[uuid.UUID]market.Listing
}

func NewMemory() *Memory {
	return &Memory{listings: make(map[uuid.UUID]market.Listing)}
}

func (m *Memory) SaveItemTransition(_ context.Context, t ItemTransition) error {
	// Same constraint the SQL stores carry: a sale can never hand the
	// player back to the seller.
	if t.WinnerID != "" && t.SellerID != "" && t.WinnerID == t.SellerID {
		return fmt.Errorf("save transition for %s: %w", t.PlayerID, auction.ErrSelfBidForbidden)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, t)
	return nil
}

func (m *Memory) SaveLedgerDelta(_ context.Context, d LedgerDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deltas = append(m.deltas, d)
	return nil
}

func (m *Memory) SaveListing(_ context.Context, l market.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
	return nil
}

func (m *Memory) ItemTransitions(_ context.Context, leagueID string) ([]ItemTransition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ItemTransition
	for _, t := range m.transitions {
		if t.LeagueID == leagueID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) LedgerDeltas(_ context.Context, leagueID string) ([]LedgerDelta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []LedgerDelta
	for _, d := range m.deltas {
		if d.LeagueID == leagueID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) Listings(_ context.Context, leagueID string) ([]market.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []market.Listing
	for _, l := range m.listings {
		if l.LeagueID == leagueID {
			out = append(out, l)
		}
	}
	return out, nil
}
