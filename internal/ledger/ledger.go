// Package ledger tracks participant budgets and player holdings for a
// single league. All mutating operations are atomic: a debit and the
// holding it pays for either both happen or neither does.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownParticipant   = errors.New("unknown participant")
	ErrDuplicateParticipant = errors.New("participant already registered")
	ErrInsufficientBudget   = errors.New("insufficient budget")
	ErrAlreadyOwned         = errors.New("player already owned")
	ErrNotOwned             = errors.New("player not owned")
	ErrNegativeAmount       = errors.New("amount must not be negative")
)

// Method records how a holding was acquired.
type Method string

const (
	MethodUncontested Method = "uncontested"
	MethodAuction     Method = "auction"
	MethodTransfer    Method = "transfer"
)

// Holding is one owned player with the price paid for them.
type Holding struct {
	PlayerID   string
	Price      decimal.Decimal
	Method     Method
	AcquiredAt time.Time
}

// Entry is a point-in-time copy of one participant's account.
// Mutating it has no effect on the ledger.
type Entry struct {
	ParticipantID string
	Initial       decimal.Decimal
	Budget        decimal.Decimal
	Holdings      map[string]Holding
}

// Spent reports the total committed across all holdings.
func (e Entry) Spent() decimal.Decimal {
	total := decimal.Zero
	for _, h := range e.Holdings {
		total = total.Add(h.Price)
	}
	return total
}

type account struct {
	initial  decimal.Decimal
	budget   decimal.Decimal
	holdings map[string]Holding
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*account
	now      func() time.Time
}

func New() *Ledger {
	return &Ledger{
		accounts: make(map[string]*account),
		now:      time.Now,
	}
}

// Open registers a participant with their starting budget.
func (l *Ledger) Open(participantID string, budget decimal.Decimal) error {
	if budget.IsNegative() {
		return fmt.Errorf("open %s: %w", participantID, ErrNegativeAmount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[participantID]; ok {
		return fmt.Errorf("open %s: %w", participantID, ErrDuplicateParticipant)
	}
	l.accounts[participantID] = &account{
		initial:  budget,
		budget:   budget,
		holdings: make(map[string]Holding),
	}
	return nil
}

// Snapshot returns a copy of one participant's account.
func (l *Ledger) Snapshot(participantID string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[participantID]
	if !ok {
		return Entry{}, fmt.Errorf("snapshot %s: %w", participantID, ErrUnknownParticipant)
	}
	return l.entryLocked(participantID, acc), nil
}

// SnapshotAll returns copies of every account, ordered by participant id.
func (l *Ledger) SnapshotAll() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]Entry, 0, len(l.accounts))
	for id, acc := range l.accounts {
		entries = append(entries, l.entryLocked(id, acc))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ParticipantID < entries[j].ParticipantID
	})
	return entries
}

// Budgets returns the current budget of each requested participant.
// Unknown ids are left out of the result.
func (l *Ledger) Budgets(participantIDs ...string) map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(participantIDs))
	for _, id := range participantIDs {
		if acc, ok := l.accounts[id]; ok {
			out[id] = acc.budget
		}
	}
	return out
}

// Owner reports which participant currently holds the player.
func (l *Ledger) Owner(playerID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, acc := range l.accounts {
		if _, ok := acc.holdings[playerID]; ok {
			return id, true
		}
	}
	return "", false
}

// Debit subtracts amount from the participant's budget.
func (l *Ledger) Debit(participantID string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, err := l.lookupLocked(participantID)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	return l.debitLocked(acc, participantID, amount)
}

// Credit adds amount to the participant's budget.
func (l *Ledger) Credit(participantID string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, err := l.lookupLocked(participantID)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	if amount.IsNegative() {
		return fmt.Errorf("credit %s: %w", participantID, ErrNegativeAmount)
	}
	acc.budget = acc.budget.Add(amount)
	return nil
}

// Assign debits the price and records the holding in one step. The
// player must not already be held by anyone in the league.
func (l *Ledger) Assign(participantID, playerID string, price decimal.Decimal, method Method) (Holding, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, err := l.lookupLocked(participantID)
	if err != nil {
		return Holding{}, fmt.Errorf("assign: %w", err)
	}
	if l.heldLocked(playerID) {
		return Holding{}, fmt.Errorf("assign %s: %w", playerID, ErrAlreadyOwned)
	}
	if err := l.debitLocked(acc, participantID, price); err != nil {
		return Holding{}, fmt.Errorf("assign: %w", err)
	}
	h := Holding{
		PlayerID:   playerID,
		Price:      price,
		Method:     method,
		AcquiredAt: l.now(),
	}
	acc.holdings[playerID] = h
	return h, nil
}

// Unassign removes the holding and refunds its recorded price. It is
// the exact inverse of Assign.
func (l *Ledger) Unassign(participantID, playerID string) (Holding, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, err := l.lookupLocked(participantID)
	if err != nil {
		return Holding{}, fmt.Errorf("unassign: %w", err)
	}
	h, ok := acc.holdings[playerID]
	if !ok {
		return Holding{}, fmt.Errorf("unassign %s from %s: %w", playerID, participantID, ErrNotOwned)
	}
	delete(acc.holdings, playerID)
	acc.budget = acc.budget.Add(h.Price)
	return h, nil
}

// TransferOwnership moves a holding from seller to buyer at the given
// price: the buyer is debited, the seller credited, and the holding
// re-recorded under the buyer at the sale price.
func (l *Ledger) TransferOwnership(sellerID, buyerID, playerID string, price decimal.Decimal) (Holding, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seller, err := l.lookupLocked(sellerID)
	if err != nil {
		return Holding{}, fmt.Errorf("transfer: %w", err)
	}
	buyer, err := l.lookupLocked(buyerID)
	if err != nil {
		return Holding{}, fmt.Errorf("transfer: %w", err)
	}
	if _, ok := seller.holdings[playerID]; !ok {
		return Holding{}, fmt.Errorf("transfer %s: %w", playerID, ErrNotOwned)
	}
	if err := l.debitLocked(buyer, buyerID, price); err != nil {
		return Holding{}, fmt.Errorf("transfer: %w", err)
	}
	delete(seller.holdings, playerID)
	seller.budget = seller.budget.Add(price)
	h := Holding{
		PlayerID:   playerID,
		Price:      price,
		Method:     MethodTransfer,
		AcquiredAt: l.now(),
	}
	buyer.holdings[playerID] = h
	return h, nil
}

func (l *Ledger) lookupLocked(participantID string) (*account, error) {
	acc, ok := l.accounts[participantID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", participantID, ErrUnknownParticipant)
	}
	return acc, nil
}

func (l *Ledger) debitLocked(acc *account, participantID string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("debit %s: %w", participantID, ErrNegativeAmount)
	}
	if acc.budget.LessThan(amount) {
		return fmt.Errorf("debit %s of %s with budget %s: %w",
			participantID, amount, acc.budget, ErrInsufficientBudget)
	}
	acc.budget = acc.budget.Sub(amount)
	return nil
}

func (l *Ledger) heldLocked(playerID string) bool {
	for _, acc := range l.accounts {
		if _, ok := acc.holdings[playerID]; ok {
			return true
		}
	}
	return false
}

func (l *Ledger) entryLocked(id string, acc *account) Entry {
	holdings := make(map[string]Holding, len(acc.holdings))
	for pid, h := range acc.holdings {
		holdings[pid] = h
	}
	return Entry{
		ParticipantID: id,
		Initial:       acc.initial,
		Budget:        acc.budget,
		Holdings:      holdings,
	}
}
