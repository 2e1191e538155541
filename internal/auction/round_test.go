package auction

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/draftpit/auction-engine/internal/ledger"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const window = 30 * time.Second

func announced(t *testing.T, it Item) Round {
	t.Helper()
	evs, r, err := Apply(NewRound(it, window), Command{Type: CmdAnnounce, Now: t0})
	if err != nil {
		t.Fatalf("announce: %v", err)
	}
	if len(evs) != 1 || evs[0].Type != EvtItemAnnounced {
		t.Fatalf("announce events = %v, want one item_announced", evs)
	}
	return r
}

func mustBid(t *testing.T, r Round, bidder, amount, budget string, at time.Time) Round {
	t.Helper()
	evs, next, err := Apply(r, Command{
		Type:   CmdPlaceBid,
		Bid:    Bid{PlayerID: r.Item.PlayerID, BidderID: bidder, Amount: dec(amount)},
		Bidder: ledger.Entry{ParticipantID: bidder, Budget: dec(budget)},
		Now:    at,
	})
	if err != nil {
		t.Fatalf("bid %s by %s: %v", amount, bidder, err)
	}
	if len(evs) != 1 || evs[0].Type != EvtBidAccepted {
		t.Fatalf("bid events = %v, want one bid_accepted", evs)
	}
	return next
}

func failBid(t *testing.T, r Round, bidder, amount, budget string, want error) {
	t.Helper()
	_, next, err := Apply(r, Command{
		Type:   CmdPlaceBid,
		Bid:    Bid{PlayerID: r.Item.PlayerID, BidderID: bidder, Amount: dec(amount)},
		Bidder: ledger.Entry{ParticipantID: bidder, Budget: dec(budget)},
		Now:    t0,
	})
	if !errors.Is(err, want) {
		t.Fatalf("bid %s by %s: err = %v, want %v", amount, bidder, err, want)
	}
	if next.Item.HighestBid != r.Item.HighestBid {
		t.Fatalf("rejected bid must not change the standing bid")
	}
}

func TestAnnounceOpensTheWindow(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	if r.Phase != PhaseAnnounced {
		t.Fatalf("phase = %s, want %s", r.Phase, PhaseAnnounced)
	}
	if want := t0.Add(window); !r.Deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", r.Deadline, want)
	}
	if _, _, err := Apply(r, Command{Type: CmdAnnounce, Now: t0}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second announce: err = %v, want %v", err, ErrInvalidTransition)
	}
}

// Base price 0.8 with A and B interested: A opens at 0.9, B's 0.95 is
// under the 1.0 floor, B's 1.0 stands, and the timer gives B the win.
func TestContestedBiddingExchange(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))

	r = mustBid(t, r, "a", "0.9", "100", t0.Add(time.Second))
	failBid(t, r, "b", "0.95", "100", ErrBidTooLow)
	r = mustBid(t, r, "b", "1.0", "100", t0.Add(2*time.Second))

	_, r, err := Apply(r, Command{
		Type:    CmdClose,
		Reason:  CloseTimerExpired,
		Wallets: map[string]decimal.Decimal{"a": dec("100"), "b": dec("100")},
		Now:     t0.Add(32 * time.Second),
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if r.Resolution == nil {
		t.Fatal("expected a resolution")
	}
	if r.Resolution.WinnerID != "b" || !r.Resolution.Price.Equal(dec("1.0")) {
		t.Fatalf("resolution = %+v, want b at 1.0", r.Resolution)
	}

	evs, r, err := Apply(r, Command{Type: CmdSettle, Now: t0.Add(32 * time.Second)})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if r.Phase != PhaseResolved || r.Item.Status != StatusSold {
		t.Fatalf("after settle: phase=%s status=%s", r.Phase, r.Item.Status)
	}
	if len(evs) != 1 || evs[0].Type != EvtItemResolved || evs[0].ParticipantID != "b" {
		t.Fatalf("settle events = %+v, want item_resolved for b", evs)
	}
	if evs[0].Auto {
		t.Fatal("a won auction must not be marked auto-assigned")
	}
}

func TestEachAcceptedBidReopensTheWindow(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	at := t0.Add(20 * time.Second)
	r = mustBid(t, r, "a", "0.8", "100", at)
	if want := at.Add(window); !r.Deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", r.Deadline, want)
	}
}

func TestMonotonicBidding(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	r = mustBid(t, r, "a", "0.9", "100", t0)
	// Equal and lower amounts must both fail once a bid stands.
	failBid(t, r, "b", "0.9", "100", ErrBidTooLow)
	failBid(t, r, "b", "0.5", "100", ErrBidTooLow)
}

func TestBidAfterCloseRejected(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	r = mustBid(t, r, "a", "0.9", "100", t0)
	_, r, err := Apply(r, Command{Type: CmdClose, Reason: CloseTimerExpired, Now: t0.Add(window)})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	failBid(t, r, "b", "1.0", "100", ErrAuctionClosed)
}

func TestPassFastPathSkipsWithoutWaiting(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b", "c"))

	for _, id := range []string{"a", "b"} {
		evs, next, err := Apply(r, Command{Type: CmdPass, Passer: id, Now: t0})
		if err != nil {
			t.Fatalf("pass %s: %v", id, err)
		}
		if len(evs) != 1 || evs[0].Type != EvtPassRecorded {
			t.Fatalf("pass events = %v", evs)
		}
		if !next.Open() {
			t.Fatalf("round closed after %d passes", len(next.Passes))
		}
		r = next
	}

	_, r, err := Apply(r, Command{Type: CmdPass, Passer: "c", Now: t0})
	if err != nil {
		t.Fatalf("final pass: %v", err)
	}
	if r.Phase != PhaseClosing || r.CloseReason != CloseAllPassed {
		t.Fatalf("after all passes: phase=%s reason=%s", r.Phase, r.CloseReason)
	}
	if r.Resolution != nil {
		t.Fatalf("resolution = %+v, want nil", r.Resolution)
	}

	evs, r, err := Apply(r, Command{Type: CmdSettle, Now: t0})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if r.Phase != PhaseSkipped || r.Item.Status != StatusSkipped {
		t.Fatalf("after settle: phase=%s status=%s", r.Phase, r.Item.Status)
	}
	if len(evs) != 1 || evs[0].Type != EvtItemSkipped || evs[0].Reason != CloseAllPassed {
		t.Fatalf("settle events = %+v", evs)
	}
}

func TestPassAfterBidDoesNotFastClose(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	r = mustBid(t, r, "a", "0.9", "100", t0)

	for _, id := range []string{"a", "b"} {
		var err error
		_, r, err = Apply(r, Command{Type: CmdPass, Passer: id, Now: t0})
		if err != nil {
			t.Fatalf("pass %s: %v", id, err)
		}
	}
	if !r.Open() {
		t.Fatal("passes after a standing bid must not close the round")
	}
}

func TestPassIsIdempotent(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	_, r, err := Apply(r, Command{Type: CmdPass, Passer: "a", Now: t0})
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	evs, next, err := Apply(r, Command{Type: CmdPass, Passer: "a", Now: t0})
	if err != nil || len(evs) != 0 {
		t.Fatalf("repeat pass: evs=%v err=%v, want none", evs, err)
	}
	if len(next.Passes) != 1 {
		t.Fatalf("passes = %d, want 1", len(next.Passes))
	}
}

func TestPassEligibility(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	if _, _, err := Apply(r, Command{Type: CmdPass, Passer: "z", Now: t0}); !errors.Is(err, ErrNotInterestedParty) {
		t.Fatalf("outsider pass: err = %v, want %v", err, ErrNotInterestedParty)
	}

	tr := announced(t, transfer("2", "s"))
	if _, _, err := Apply(tr, Command{Type: CmdPass, Passer: "z", Now: t0}); !errors.Is(err, ErrNotInterestedParty) {
		t.Fatalf("pass on transfer listing: err = %v, want %v", err, ErrNotInterestedParty)
	}
}

func TestNoBidCloseFallsToSoleRemaining(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b", "c"))
	for _, id := range []string{"b", "c"} {
		var err error
		_, r, err = Apply(r, Command{Type: CmdPass, Passer: id, Now: t0})
		if err != nil {
			t.Fatalf("pass %s: %v", id, err)
		}
	}

	_, r, err := Apply(r, Command{
		Type:    CmdClose,
		Reason:  CloseTimerExpired,
		Wallets: map[string]decimal.Decimal{"a": dec("50"), "b": dec("50"), "c": dec("50")},
		Now:     t0.Add(window),
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	res := r.Resolution
	if res == nil || res.WinnerID != "a" || !res.Auto {
		t.Fatalf("resolution = %+v, want auto-assign to a", res)
	}
	if !res.Price.Equal(dec("0.8")) {
		t.Fatalf("price = %s, want base 0.8", res.Price)
	}
	if res.Method != ledger.MethodUncontested {
		t.Fatalf("method = %s, want %s", res.Method, ledger.MethodUncontested)
	}
}

func TestNoBidCloseSkipsBrokeCandidates(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b", "c"))
	_, r, err := Apply(r, Command{
		Type:   CmdClose,
		Reason: CloseTimerExpired,
		Wallets: map[string]decimal.Decimal{
			"a": dec("50"),
			"b": dec("0.5"),
			"c": dec("0.79"),
		},
		Now: t0.Add(window),
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if r.Resolution == nil || r.Resolution.WinnerID != "a" {
		t.Fatalf("resolution = %+v, want auto-assign to the only funded candidate", r.Resolution)
	}
}

func TestNoBidCloseWithSeveralCandidatesSkips(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	_, r, err := Apply(r, Command{
		Type:    CmdClose,
		Reason:  CloseTimerExpired,
		Wallets: map[string]decimal.Decimal{"a": dec("50"), "b": dec("50")},
		Now:     t0.Add(window),
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if r.Resolution != nil {
		t.Fatalf("resolution = %+v, want skip", r.Resolution)
	}
	if r.Phase != PhaseClosing {
		t.Fatalf("phase = %s", r.Phase)
	}
}

func TestTransferWithoutBidsSkips(t *testing.T) {
	r := announced(t, transfer("2", "s"))
	_, r, err := Apply(r, Command{Type: CmdClose, Reason: CloseTimerExpired, Now: t0.Add(window)})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if r.Resolution != nil {
		t.Fatal("transfer listings have no interested set and must never auto-assign")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	r = mustBid(t, r, "a", "0.9", "100", t0)
	_, r, err := Apply(r, Command{Type: CmdClose, Reason: CloseTimerExpired, Now: t0})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	evs, again, err := Apply(r, Command{Type: CmdClose, Reason: CloseForced, Now: t0})
	if err != nil || len(evs) != 0 {
		t.Fatalf("second close: evs=%v err=%v, want no-op", evs, err)
	}
	if again.CloseReason != CloseTimerExpired {
		t.Fatalf("second close overwrote the reason: %s", again.CloseReason)
	}
}

func TestCloseBeforeAnnounce(t *testing.T) {
	r := NewRound(contested("0.8", "a"), window)
	if _, _, err := Apply(r, Command{Type: CmdClose, Reason: CloseForced, Now: t0}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestAdminResolve(t *testing.T) {
	wallets := map[string]decimal.Decimal{"a": dec("10"), "b": dec("10")}

	t.Run("assigns the named winner", func(t *testing.T) {
		r := announced(t, contested("0.8", "a", "b"))
		_, r, err := Apply(r, Command{Type: CmdResolve, WinnerID: "b", Amount: dec("2"), Wallets: wallets, Now: t0})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if r.Phase != PhaseClosing || r.CloseReason != CloseAdmin {
			t.Fatalf("phase=%s reason=%s", r.Phase, r.CloseReason)
		}
		evs, r, err := Apply(r, Command{Type: CmdSettle, Now: t0})
		if err != nil {
			t.Fatalf("settle: %v", err)
		}
		if r.Item.Status != StatusSold || evs[0].ParticipantID != "b" || !evs[0].Amount.Equal(dec("2")) {
			t.Fatalf("settle: status=%s evs=%+v", r.Item.Status, evs)
		}
	})

	t.Run("rejects amounts under the base price", func(t *testing.T) {
		r := announced(t, contested("1.5", "a", "b"))
		_, _, err := Apply(r, Command{Type: CmdResolve, WinnerID: "a", Amount: dec("1"), Wallets: wallets, Now: t0})
		if !errors.Is(err, ErrBidTooLow) {
			t.Fatalf("err = %v, want %v", err, ErrBidTooLow)
		}
	})

	t.Run("rejects outsiders", func(t *testing.T) {
		r := announced(t, contested("0.8", "a", "b"))
		_, _, err := Apply(r, Command{Type: CmdResolve, WinnerID: "z", Amount: dec("2"), Wallets: map[string]decimal.Decimal{"z": dec("10")}, Now: t0})
		if !errors.Is(err, ErrNotInterestedParty) {
			t.Fatalf("err = %v, want %v", err, ErrNotInterestedParty)
		}
	})

	t.Run("rejects winners who cannot pay", func(t *testing.T) {
		r := announced(t, contested("0.8", "a", "b"))
		_, _, err := Apply(r, Command{Type: CmdResolve, WinnerID: "a", Amount: dec("20"), Wallets: wallets, Now: t0})
		if !errors.Is(err, ErrInsufficientBudget) {
			t.Fatalf("err = %v, want %v", err, ErrInsufficientBudget)
		}
	})

	t.Run("rejects handing a listing back to its seller", func(t *testing.T) {
		r := announced(t, transfer("2", "s"))
		_, _, err := Apply(r, Command{Type: CmdResolve, WinnerID: "s", Amount: dec("2"), Wallets: map[string]decimal.Decimal{"s": dec("10")}, Now: t0})
		if !errors.Is(err, ErrSelfBidForbidden) {
			t.Fatalf("err = %v, want %v", err, ErrSelfBidForbidden)
		}
	})

	t.Run("rejects settled rounds", func(t *testing.T) {
		r := announced(t, contested("0.8", "a", "b"))
		_, r, _ = Apply(r, Command{Type: CmdClose, Reason: CloseForced, Now: t0})
		_, r, _ = Apply(r, Command{Type: CmdSettle, Now: t0})
		_, _, err := Apply(r, Command{Type: CmdResolve, WinnerID: "a", Amount: dec("2"), Wallets: wallets, Now: t0})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("err = %v, want %v", err, ErrInvalidTransition)
		}
	})
}

func TestSettleRequiresClosing(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))
	if _, _, err := Apply(r, Command{Type: CmdSettle, Now: t0}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	r := announced(t, contested("0.8", "a", "b"))

	_ = mustBid(t, r, "a", "0.9", "100", t0)
	if r.Item.HighestBid != nil {
		t.Fatal("bid leaked into the input round")
	}

	_, next, err := Apply(r, Command{Type: CmdPass, Passer: "a", Now: t0})
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	if len(r.Passes) != 0 {
		t.Fatal("pass leaked into the input round")
	}
	if len(next.Passes) != 1 {
		t.Fatalf("passes = %d, want 1", len(next.Passes))
	}
}

func TestUnsupportedCommand(t *testing.T) {
	r := NewRound(contested("0.8", "a"), window)
	if _, _, err := Apply(r, Command{Type: "Nonsense", Now: t0}); !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("err = %v, want %v", err, ErrUnsupportedCommand)
	}
}
