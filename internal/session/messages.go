package session

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/draftpit/auction-engine/internal/auction"
	"github.com/draftpit/auction-engine/internal/ledger"
	"github.com/draftpit/auction-engine/internal/market"
)

var (
	// ErrAlreadyActive rejects starting a league whose auction is running.
	ErrAlreadyActive = errors.New("auction already active")
	// ErrNotStarted rejects operations that need a started auction.
	ErrNotStarted = errors.New("auction not started")
	// ErrNothingToRevert rejects reverts of items that are not sold.
	ErrNothingToRevert = errors.New("nothing to revert")
	// ErrSessionClosed is returned once the session has shut down.
	ErrSessionClosed = errors.New("session closed")
)

// Msg is anything the session loop accepts through its inbox.
type Msg interface {
	isSessionMsg()
}

// StartAuction loads the roster and opens the first round.
type StartAuction struct {
	Reply chan Result
}

// SubmitBid offers an amount on the player currently on the block.
type SubmitBid struct {
	PlayerID string
	BidderID string
	Amount   decimal.Decimal
	Reply    chan Result
}

// Pass declares that an interested participant is out of this round.
type Pass struct {
	PlayerID      string
	ParticipantID string
	Reply         chan Result
}

// Advance force-closes an open round and moves to the next item.
type Advance struct {
	Reply chan Result
}

// ResolveItem assigns the current item to a winner at a price without
// waiting for the timer.
type ResolveItem struct {
	PlayerID string
	WinnerID string
	Amount   decimal.Decimal
	Reply    chan Result
}

// RevertItem undoes a completed sale and requeues the item in front.
type RevertItem struct {
	PlayerID string
	Reply    chan Result
}

// ListPlayer puts an owned player on the transfer market.
type ListPlayer struct {
	PlayerID  string
	SellerID  string
	BasePrice decimal.Decimal
	Reply     chan Result
}

// MarketSignal is the transfer-window edge fanned out by the hub.
type MarketSignal struct {
	Signal market.Signal
}

// Watch subscribes a snapshot channel to every state change.
type Watch struct {
	ObserverID string
	Outbox     chan Snapshot
}

// Unwatch drops an observer.
type Unwatch struct {
	ObserverID string
}

// GetView asks for the full session state, ledger included.
type GetView struct {
	Reply chan View
}

// Shutdown stops the loop.
type Shutdown struct{}

type timerFired struct {
	gen uint64
}

func (StartAuction) isSessionMsg() {}
func (SubmitBid) isSessionMsg()    {}
func (Pass) isSessionMsg()         {}
func (Advance) isSessionMsg()      {}
func (ResolveItem) isSessionMsg()  {}
func (RevertItem) isSessionMsg()   {}
func (ListPlayer) isSessionMsg()   {}
func (MarketSignal) isSessionMsg() {}
func (Watch) isSessionMsg()        {}
func (Unwatch) isSessionMsg()      {}
func (GetView) isSessionMsg()      {}
func (Shutdown) isSessionMsg()     {}
func (timerFired) isSessionMsg()   {}

// Result answers a command message. Exactly one of the pointer fields
// is set when the command produced something.
type Result struct {
	Err error
	// Complete is true once no round is live and nothing is queued.
	Complete bool
	// Bid echoes the accepted bid.
	Bid *auction.Bid
	// Listing echoes the created transfer listing.
	Listing *market.Listing
}

// Mode says which auction run the session is currently working through.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeDraft     Mode = "draft"
	ModeTransfers Mode = "transfers"
)

// RoundView is the observer-facing slice of the live round.
type RoundView struct {
	PlayerID   string
	Kind       auction.Kind
	Phase      auction.Phase
	BasePrice  decimal.Decimal
	SellerID   string
	HighestBid *auction.Bid
	// MinimumNext is the lowest amount the next bid may carry.
	MinimumNext decimal.Decimal
	Interested  []string
	Passes      int
	RemainingMS int64
}

// Snapshot is pushed to observers after every accepted change,
// carrying the events of that change.
type Snapshot struct {
	LeagueID     string
	Version      int
	Round        *RoundView
	QueuePending int
	WindowOpen   bool
	Complete     bool
	Events       []auction.Event
}

// View is the full state handed to the state endpoint and the tests.
type View struct {
	Snapshot
	Started  bool
	Mode     Mode
	Ledger   []ledger.Entry
	Listings []market.Listing
}

// Rules are the per-league tunables.
type Rules struct {
	// BidWindow is how long an item stays open after the announcement
	// and after every accepted bid.
	BidWindow time.Duration
	// StartingBudget applies to participants the roster lists without
	// an explicit budget.
	StartingBudget decimal.Decimal
	// ManualAdvance stops the loop from announcing the next item after
	// a settlement; an admin advance is required instead.
	ManualAdvance bool
}

// DefaultBidWindow is used when no window is configured.
const DefaultBidWindow = 30 * time.Second

// DefaultStartingBudget is used when no budget is configured.
var DefaultStartingBudget = decimal.RequireFromString("100")
