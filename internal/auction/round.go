// Package auction holds the pure bidding rules: items, the increment
// schedule, bid validation, and the round state machine. Nothing in
// this package starts timers, touches ledgers, or does I/O; the session
// loop owns all of that and feeds commands in one at a time.
package auction

import (
	"fmt"
	"maps"
	"time"

	"github.com/shopspring/decimal"

	"github.com/draftpit/auction-engine/internal/ledger"
)

// Phase is where a round currently sits in its lifecycle.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseAnnounced Phase = "announced"
	PhaseBidding   Phase = "bidding"
	PhaseClosing   Phase = "closing"
	PhaseResolved  Phase = "resolved"
	PhaseSkipped   Phase = "skipped"
)

// CloseReason records what ended the bidding window.
type CloseReason string

const (
	CloseTimerExpired CloseReason = "timer_expired"
	CloseForced       CloseReason = "forced"
	CloseAllPassed    CloseReason = "all_passed"
	CloseAdmin        CloseReason = "admin_resolved"
)

type CommandType string

const (
	CmdAnnounce CommandType = "Announce"
	CmdPlaceBid CommandType = "PlaceBid"
	CmdPass     CommandType = "Pass"
	CmdClose    CommandType = "Close"
	CmdResolve  CommandType = "Resolve"
	CmdSettle   CommandType = "Settle"
)

type EventType string

const (
	EvtItemAnnounced EventType = "item_announced"
	EvtBidAccepted   EventType = "bid_accepted"
	EvtPassRecorded  EventType = "pass_recorded"
	EvtItemResolved  EventType = "item_resolved"
	EvtItemSkipped   EventType = "item_skipped"

	// Emitted by the session around the round machine.
	EvtItemReverted    EventType = "item_reverted"
	EvtAuctionComplete EventType = "auction_complete"
	EvtMarketOpened    EventType = "market_window_opened"
	EvtMarketClosed    EventType = "market_window_closed"
)

// Command is one instruction fed into Apply. Only the fields relevant
// to the Type need to be set.
type Command struct {
	Type CommandType
	// Bid and Bidder accompany CmdPlaceBid. Bidder is the bidder's
	// ledger entry at submission time.
	Bid    Bid
	Bidder ledger.Entry
	// Passer accompanies CmdPass.
	Passer string
	// Wallets carries current budgets for CmdClose and CmdResolve so
	// the machine can decide outcomes without reaching into the ledger.
	Wallets map[string]decimal.Decimal
	// WinnerID and Amount accompany CmdResolve.
	WinnerID string
	Amount   decimal.Decimal
	// Reason accompanies CmdClose.
	Reason CloseReason
	Now    time.Time
}

// Event is one fact the machine emitted while applying a command.
type Event struct {
	Type          EventType
	PlayerID      string
	ParticipantID string
	SellerID      string
	Amount        decimal.Decimal
	// Auto marks a resolution that fell to the sole remaining
	// interested participant without a bid.
	Auto   bool
	Reason CloseReason
	Seq    uint64
	At     time.Time
}

// Resolution is the outcome decided at close. A nil Resolution on a
// closing round means the item is skipped.
type Resolution struct {
	WinnerID string
	Price    decimal.Decimal
	Method   ledger.Method
	Auto     bool
}

// Round is the full state of one item's auction. It is a value type:
// Apply never mutates its input, it returns the successor state.
type Round struct {
	Item   Item
	Phase  Phase
	Window time.Duration
	// Deadline is when the current bidding window lapses. The session
	// owns the actual timer; this is the authoritative instant it was
	// armed for.
	Deadline    time.Time
	Passes      map[string]bool
	Resolution  *Resolution
	CloseReason CloseReason
}

// NewRound wraps an active item in a fresh, unannounced round.
func NewRound(it Item, window time.Duration) Round {
	return Round{
		Item:   it,
		Phase:  PhasePending,
		Window: window,
		Passes: map[string]bool{},
	}
}

// Open reports whether the round still accepts bids and passes.
func (r Round) Open() bool {
	return r.Phase == PhaseAnnounced || r.Phase == PhaseBidding
}

// Terminal reports whether the round has finished for good.
func (r Round) Terminal() bool {
	return r.Phase == PhaseResolved || r.Phase == PhaseSkipped
}

// Remaining is how much of the bidding window is left at now.
func (r Round) Remaining(now time.Time) time.Duration {
	if !r.Open() {
		return 0
	}
	if d := r.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Apply runs one command against the round and returns the events it
// produced plus the successor state. On error the input state is
// returned unchanged so callers can keep using it.
func Apply(r Round, cmd Command) ([]Event, Round, error) {
	switch cmd.Type {
	case CmdAnnounce:
		return applyAnnounce(r, cmd)
	case CmdPlaceBid:
		return applyPlaceBid(r, cmd)
	case CmdPass:
		return applyPass(r, cmd)
	case CmdClose:
		return applyClose(r, cmd)
	case CmdResolve:
		return applyResolve(r, cmd)
	case CmdSettle:
		return applySettle(r, cmd)
	default:
		return nil, r, fmt.Errorf("%q: %w", cmd.Type, ErrUnsupportedCommand)
	}
}

func applyAnnounce(r Round, cmd Command) ([]Event, Round, error) {
	if r.Phase != PhasePending {
		return nil, r, fmt.Errorf("announce in phase %s: %w", r.Phase, ErrInvalidTransition)
	}
	next := r
	next.Phase = PhaseAnnounced
	next.Deadline = cmd.Now.Add(r.Window)
	ev := Event{
		Type:     EvtItemAnnounced,
		PlayerID: r.Item.PlayerID,
		SellerID: r.Item.SellerID,
		Amount:   r.Item.BasePrice,
		At:       cmd.Now,
	}
	return []Event{ev}, next, nil
}

func applyPlaceBid(r Round, cmd Command) ([]Event, Round, error) {
	if !r.Open() {
		return nil, r, fmt.Errorf("bid in phase %s: %w", r.Phase, ErrAuctionClosed)
	}
	if err := ValidateBid(r.Item, cmd.Bidder, cmd.Bid); err != nil {
		return nil, r, err
	}
	b := cmd.Bid
	next := r
	next.Item.HighestBid = &b
	next.Phase = PhaseBidding
	// Every accepted bid reopens the full window.
	next.Deadline = cmd.Now.Add(r.Window)
	ev := Event{
		Type:          EvtBidAccepted,
		PlayerID:      r.Item.PlayerID,
		ParticipantID: b.BidderID,
		SellerID:      r.Item.SellerID,
		Amount:        b.Amount,
		Seq:           b.Seq,
		At:            cmd.Now,
	}
	return []Event{ev}, next, nil
}

func applyPass(r Round, cmd Command) ([]Event, Round, error) {
	if !r.Open() {
		return nil, r, fmt.Errorf("pass in phase %s: %w", r.Phase, ErrAuctionClosed)
	}
	if r.Item.Kind != KindContested || !r.Item.IsInterested(cmd.Passer) {
		return nil, r, fmt.Errorf("pass by %s: %w", cmd.Passer, ErrNotInterestedParty)
	}
	if r.Passes[cmd.Passer] {
		// Passing twice is harmless and counts once.
		return nil, r, nil
	}
	next := r
	next.Passes = maps.Clone(r.Passes)
	next.Passes[cmd.Passer] = true
	evs := []Event{{
		Type:          EvtPassRecorded,
		PlayerID:      r.Item.PlayerID,
		ParticipantID: cmd.Passer,
		At:            cmd.Now,
	}}
	// Fast path: everyone walked away before a single bid, so there is
	// nothing to wait for.
	if r.Item.HighestBid == nil && len(next.Passes) >= len(r.Item.Interested) {
		next.Phase = PhaseClosing
		next.CloseReason = CloseAllPassed
		next.Resolution = nil
	}
	return evs, next, nil
}

func applyClose(r Round, cmd Command) ([]Event, Round, error) {
	switch r.Phase {
	case PhaseAnnounced, PhaseBidding:
	case PhaseClosing, PhaseResolved, PhaseSkipped:
		// The timer and a forced close can race; whoever loses is a no-op.
		return nil, r, nil
	default:
		return nil, r, fmt.Errorf("close in phase %s: %w", r.Phase, ErrInvalidTransition)
	}
	next := r
	next.Phase = PhaseClosing
	next.CloseReason = cmd.Reason
	next.Resolution = decideOutcome(r, cmd.Wallets)
	return nil, next, nil
}

func applyResolve(r Round, cmd Command) ([]Event, Round, error) {
	switch r.Phase {
	case PhaseAnnounced, PhaseBidding, PhaseClosing:
	default:
		return nil, r, fmt.Errorf("resolve in phase %s: %w", r.Phase, ErrInvalidTransition)
	}
	if r.Item.Kind == KindContested && !r.Item.IsInterested(cmd.WinnerID) {
		return nil, r, fmt.Errorf("winner %s: %w", cmd.WinnerID, ErrNotInterestedParty)
	}
	if cmd.Amount.LessThan(r.Item.BasePrice) {
		return nil, r, fmt.Errorf("amount %s, base %s: %w", cmd.Amount, r.Item.BasePrice, ErrBidTooLow)
	}
	wallet, ok := cmd.Wallets[cmd.WinnerID]
	if !ok || wallet.LessThan(cmd.Amount) {
		return nil, r, fmt.Errorf("winner %s cannot cover %s: %w", cmd.WinnerID, cmd.Amount, ErrInsufficientBudget)
	}
	if r.Item.Kind == KindTransfer && cmd.WinnerID == r.Item.SellerID {
		return nil, r, fmt.Errorf("winner %s: %w", cmd.WinnerID, ErrSelfBidForbidden)
	}
	next := r
	next.Phase = PhaseClosing
	next.CloseReason = CloseAdmin
	next.Resolution = &Resolution{
		WinnerID: cmd.WinnerID,
		Price:    cmd.Amount,
		Method:   methodFor(r.Item.Kind),
	}
	return nil, next, nil
}

func applySettle(r Round, cmd Command) ([]Event, Round, error) {
	if r.Phase != PhaseClosing {
		return nil, r, fmt.Errorf("settle in phase %s: %w", r.Phase, ErrInvalidTransition)
	}
	next := r
	if res := r.Resolution; res != nil {
		next.Phase = PhaseResolved
		next.Item.Status = StatusSold
		ev := Event{
			Type:          EvtItemResolved,
			PlayerID:      r.Item.PlayerID,
			ParticipantID: res.WinnerID,
			SellerID:      r.Item.SellerID,
			Amount:        res.Price,
			Auto:          res.Auto,
			Reason:        r.CloseReason,
			At:            cmd.Now,
		}
		return []Event{ev}, next, nil
	}
	next.Phase = PhaseSkipped
	next.Item.Status = StatusSkipped
	ev := Event{
		Type:     EvtItemSkipped,
		PlayerID: r.Item.PlayerID,
		SellerID: r.Item.SellerID,
		Reason:   r.CloseReason,
		At:       cmd.Now,
	}
	return []Event{ev}, next, nil
}

// decideOutcome picks the winner of a closing round, if any. With a
// standing bid the highest bidder takes the item. With none, a
// contested item falls to the sole interested participant who neither
// passed nor lacks the base price. Any other combination skips it.
func decideOutcome(r Round, wallets map[string]decimal.Decimal) *Resolution {
	if hb := r.Item.HighestBid; hb != nil {
		return &Resolution{
			WinnerID: hb.BidderID,
			Price:    hb.Amount,
			Method:   methodFor(r.Item.Kind),
		}
	}
	if r.Item.Kind != KindContested {
		return nil
	}
	var candidates []string
	for _, id := range r.Item.Interested {
		if r.Passes[id] {
			continue
		}
		wallet, ok := wallets[id]
		if !ok || wallet.LessThan(r.Item.BasePrice) {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) != 1 {
		return nil
	}
	return &Resolution{
		WinnerID: candidates[0],
		Price:    r.Item.BasePrice,
		Method:   ledger.MethodUncontested,
		Auto:     true,
	}
}

func methodFor(k Kind) ledger.Method {
	if k == KindTransfer {
		return ledger.MethodTransfer
	}
	return ledger.MethodAuction
}
