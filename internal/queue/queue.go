// Package queue orders the items a league still has to auction and
// polices their lifecycle transitions.
package queue

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/draftpit/auction-engine/internal/auction"
)

var ErrUnknownPlayer = errors.New("player not in queue")

// Manager keeps items in arrival order. Pending items are served
// front-to-back; a reverted item jumps the line so it is retried next.
type Manager struct {
	mu    sync.Mutex
	order []string
	items map[string]*auction.Item
}

func NewManager() *Manager {
	return &Manager{items: make(map[string]*auction.Item)}
}

// Enqueue appends items and returns how many were added. A player with
// a pending, active, or reverted entry is already spoken for and is
// skipped; a sold or skipped entry belongs to a finished nomination, so
// a new item for that player replaces it at the back of the order. This
// is how a drafted player re-enters the queue as a transfer item.
func (m *Manager) Enqueue(items ...auction.Item) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := 0
	for _, it := range items {
		if prev, ok := m.items[it.PlayerID]; ok {
			if prev.Status != auction.StatusSold && prev.Status != auction.StatusSkipped {
				continue
			}
			if i := slices.Index(m.order, it.PlayerID); i >= 0 {
				m.order = slices.Delete(m.order, i, i+1)
			}
		}
		it.Status = auction.StatusPending
		it.HighestBid = nil
		queued := it
		m.items[it.PlayerID] = &queued
		m.order = append(m.order, it.PlayerID)
		added++
	}
	return added
}

// Next activates and returns the first pending item, or false when none
// are left. The returned item is a copy.
func (m *Manager) Next() (auction.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		it := m.items[id]
		if it.Status != auction.StatusPending {
			continue
		}
		it.Status = auction.StatusActive
		return *it, true
	}
	return auction.Item{}, false
}

// Mark moves an item to a terminal or reverted status. Legal moves are
// active to sold or skipped, and sold to reverted; anything else is an
// invalid transition.
func (m *Manager) Mark(playerID string, status auction.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[playerID]
	if !ok {
		return fmt.Errorf("mark %s: %w", playerID, ErrUnknownPlayer)
	}
	legal := false
	switch status {
	case auction.StatusSold, auction.StatusSkipped:
		legal = it.Status == auction.StatusActive
	case auction.StatusReverted:
		legal = it.Status == auction.StatusSold
	}
	if !legal {
		return fmt.Errorf("mark %s %s -> %s: %w", playerID, it.Status, status, auction.ErrInvalidTransition)
	}
	it.Status = status
	return nil
}

// Requeue returns a reverted item to pending and moves it to the front
// of the order.
func (m *Manager) Requeue(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[playerID]
	if !ok {
		return fmt.Errorf("requeue %s: %w", playerID, ErrUnknownPlayer)
	}
	if it.Status != auction.StatusReverted {
		return fmt.Errorf("requeue %s in status %s: %w", playerID, it.Status, auction.ErrInvalidTransition)
	}
	it.Status = auction.StatusPending
	it.HighestBid = nil
	if i := slices.Index(m.order, playerID); i > 0 {
		m.order = slices.Delete(m.order, i, i+1)
		m.order = slices.Insert(m.order, 0, playerID)
	}
	return nil
}

// Get returns a copy of the item, if queued.
func (m *Manager) Get(playerID string) (auction.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[playerID]
	if !ok {
		return auction.Item{}, false
	}
	return *it, true
}

// Pending counts the items still waiting for a round.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if it.Status == auction.StatusPending {
			n++
		}
	}
	return n
}

// Len is the total number of queued items in any status.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Items returns copies of every queued item in queue order.
func (m *Manager) Items() []auction.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auction.Item, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.items[id])
	}
	return out
}
