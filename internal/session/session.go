// Package session runs one league's auction as a single serialized
// loop. Every command, timer fire, and market signal goes through the
// inbox, so two bids can never interleave: the second is validated
// against the state the first left behind. Leagues run in parallel,
// one session each.
package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/draftpit/auction-engine/internal/auction"
	"github.com/draftpit/auction-engine/internal/ledger"
	"github.com/draftpit/auction-engine/internal/market"
	"github.com/draftpit/auction-engine/internal/notify"
	"github.com/draftpit/auction-engine/internal/queue"
	"github.com/draftpit/auction-engine/internal/recorder"
	"github.com/draftpit/auction-engine/internal/roster"
	"github.com/draftpit/auction-engine/internal/store"
)

// Deps are the session's collaborators. Zero fields fall back to
// in-process defaults so tests can pass only what they observe.
type Deps struct {
	Roster   roster.Provider
	Store    store.Store
	Recorder recorder.Recorder
	Sink     notify.Sink
	Log      *zap.Logger
	Clock    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Roster == nil {
		d.Roster = roster.NewStatic()
	}
	if d.Store == nil {
		d.Store = store.NewMemory()
	}
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoop()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Sink == nil {
		d.Sink = notify.NewLogSink(d.Log)
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// Session owns all auction state for one league. Only the loop
// goroutine touches it.
type Session struct {
	leagueID string
	rules    Rules
	deps     Deps

	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	ledger           *ledger.Ledger
	queue            *queue.Manager
	round            *auction.Round
	mode             Mode
	started          bool
	complete         bool
	windowOpen       bool
	pendingTransfers bool
	listings         map[string]market.Listing
	observers        map[string]chan Snapshot

	version  int
	seq      uint64
	timer    *time.Timer
	timerGen uint64
}

func New(parent context.Context, leagueID string, rules Rules, deps Deps) *Session {
	if rules.BidWindow <= 0 {
		rules.BidWindow = DefaultBidWindow
	}
	if rules.StartingBudget.IsZero() {
		rules.StartingBudget = DefaultStartingBudget
	}
	deps = deps.withDefaults()
	deps.Log = deps.Log.With(zap.String("league_id", leagueID))

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		leagueID:  leagueID,
		rules:     rules,
		deps:      deps,
		inbox:     make(chan Msg, 64),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		ledger:    ledger.New(),
		queue:     queue.NewManager(),
		mode:      ModeIdle,
		listings:  make(map[string]market.Listing),
		observers: make(map[string]chan Snapshot),
	}
	go s.loop()
	return s
}

// Inbox accepts session messages. Reply channels must have capacity.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done closes when the loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) LeagueID() string { return s.leagueID }

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.teardown()
			return
		case m := <-s.inbox:
			if _, ok := m.(Shutdown); ok {
				s.teardown()
				return
			}
			s.dispatch(m)
		}
	}
}

func (s *Session) dispatch(m Msg) {
	switch msg := m.(type) {
	case StartAuction:
		reply(msg.Reply, s.handleStart())
	case SubmitBid:
		reply(msg.Reply, s.handleBid(msg))
	case Pass:
		reply(msg.Reply, s.handlePass(msg))
	case Advance:
		reply(msg.Reply, s.handleAdvance())
	case ResolveItem:
		reply(msg.Reply, s.handleResolve(msg))
	case RevertItem:
		reply(msg.Reply, s.handleRevert(msg))
	case ListPlayer:
		reply(msg.Reply, s.handleList(msg))
	case MarketSignal:
		s.handleMarketSignal(msg.Signal)
	case timerFired:
		s.handleTimer(msg.gen)
	case Watch:
		s.handleWatch(msg)
	case Unwatch:
		delete(s.observers, msg.ObserverID)
	case GetView:
		if msg.Reply != nil {
			msg.Reply <- s.view()
		}
	}
}

func reply(ch chan Result, r Result) {
	if ch != nil {
		ch <- r
	}
}

func (s *Session) now() time.Time { return s.deps.Clock() }

// idle reports that nothing is live and nothing is waiting.
func (s *Session) idle() bool {
	return (s.round == nil || s.round.Terminal()) && s.queue.Pending() == 0 && !s.pendingTransfers
}

func (s *Session) handleStart() Result {
	if s.started {
		return Result{Err: fmt.Errorf("league %s: %w", s.leagueID, ErrAlreadyActive)}
	}
	lg, err := s.deps.Roster.League(s.ctx, s.leagueID)
	if err != nil {
		return Result{Err: fmt.Errorf("load roster: %w", err)}
	}

	ids := make(map[string]struct{}, len(lg.Participants))
	for id := range lg.Participants {
		ids[id] = struct{}{}
	}
	for _, it := range lg.Items {
		for _, id := range it.Interested {
			ids[id] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)
	for _, id := range ordered {
		budget, ok := lg.Participants[id]
		if !ok {
			budget = s.rules.StartingBudget
		}
		if err := s.ledger.Open(id, budget); err != nil {
			return Result{Err: fmt.Errorf("open ledger: %w", err)}
		}
	}

	queued := s.queue.Enqueue(lg.Items...)
	s.started = true
	s.mode = ModeDraft
	s.deps.Log.Info("auction started",
		zap.Int("players", queued),
		zap.Int("participants", len(ordered)))
	return s.activateNext()
}

// activateNext announces the first pending item. When the queue is
// drained it either rolls into held transfer listings or finishes the
// current run.
func (s *Session) activateNext() Result {
	for {
		it, ok := s.queue.Next()
		if !ok {
			s.round = nil
			if s.pendingTransfers && s.beginTransfers() {
				continue
			}
			s.finishRun()
			return Result{Complete: s.idle()}
		}
		s.persistTransition(it, auction.StatusPending, auction.StatusActive, "", decimal.Zero, "")

		r := auction.NewRound(it, s.rules.BidWindow)
		evs, next, err := auction.Apply(r, auction.Command{Type: auction.CmdAnnounce, Now: s.now()})
		if err != nil {
			s.deps.Log.Error("announce failed", zap.String("player_id", it.PlayerID), zap.Error(err))
			return Result{Err: err}
		}
		s.round = &next
		s.armTimer(s.rules.BidWindow)
		s.deps.Log.Info("item announced",
			zap.String("player_id", it.PlayerID),
			zap.String("kind", string(it.Kind)),
			zap.String("base_price", it.BasePrice.String()))
		s.publish(evs)
		return Result{}
	}
}

// finishRun closes out the active mode once its queue is empty.
func (s *Session) finishRun() {
	if s.mode == ModeIdle {
		return
	}
	finished := s.mode
	s.mode = ModeIdle
	if finished == ModeDraft {
		s.complete = true
	}
	s.deps.Log.Info("auction run complete", zap.String("mode", string(finished)))
	s.publish([]auction.Event{{Type: auction.EvtAuctionComplete, At: s.now()}})
}

func (s *Session) handleBid(m SubmitBid) Result {
	if s.round == nil || !s.round.Open() {
		return Result{Err: fmt.Errorf("player %s: %w", m.PlayerID, auction.ErrAuctionClosed)}
	}
	entry, err := s.ledger.Snapshot(m.BidderID)
	if err != nil {
		return Result{Err: err}
	}
	s.seq++
	bid := auction.Bid{
		ID:       uuid.New(),
		PlayerID: m.PlayerID,
		BidderID: m.BidderID,
		Amount:   m.Amount,
		Seq:      s.seq,
		PlacedAt: s.now(),
	}
	evs, next, err := auction.Apply(*s.round, auction.Command{
		Type:   auction.CmdPlaceBid,
		Bid:    bid,
		Bidder: entry,
		Now:    bid.PlacedAt,
	})
	if err != nil {
		return Result{Err: err}
	}
	s.round = &next
	// Anti-snipe: the clock starts over on every accepted bid.
	s.armTimer(s.rules.BidWindow)
	s.publish(evs)
	return Result{Bid: &bid}
}

func (s *Session) handlePass(m Pass) Result {
	if s.round == nil || !s.round.Open() {
		return Result{Err: fmt.Errorf("player %s: %w", m.PlayerID, auction.ErrAuctionClosed)}
	}
	if m.PlayerID != s.round.Item.PlayerID {
		return Result{Err: fmt.Errorf("player %s: %w", m.PlayerID, auction.ErrAuctionClosed)}
	}
	evs, next, err := auction.Apply(*s.round, auction.Command{
		Type:   auction.CmdPass,
		Passer: m.ParticipantID,
		Now:    s.now(),
	})
	if err != nil {
		return Result{Err: err}
	}
	s.round = &next
	s.publish(evs)
	if s.round.Phase == auction.PhaseClosing {
		// Everyone passed before a bid; no reason to wait out the timer.
		s.disarmTimer()
		s.settle()
	}
	return Result{Complete: s.idle()}
}

func (s *Session) handleAdvance() Result {
	if !s.started {
		return Result{Err: ErrNotStarted}
	}
	if s.round != nil && s.round.Open() {
		s.closeAndSettle(auction.CloseForced)
	}
	if s.round == nil || s.round.Terminal() {
		return s.activateNext()
	}
	return Result{Complete: s.idle()}
}

func (s *Session) handleResolve(m ResolveItem) Result {
	if s.round == nil || s.round.Item.PlayerID != m.PlayerID || s.round.Terminal() {
		return Result{Err: fmt.Errorf("player %s is not on the block: %w", m.PlayerID, auction.ErrInvalidTransition)}
	}
	_, next, err := auction.Apply(*s.round, auction.Command{
		Type:     auction.CmdResolve,
		WinnerID: m.WinnerID,
		Amount:   m.Amount,
		Wallets:  s.ledger.Budgets(m.WinnerID),
		Now:      s.now(),
	})
	if err != nil {
		return Result{Err: err}
	}
	s.round = &next
	s.disarmTimer()
	s.settle()
	return Result{Complete: s.idle()}
}

func (s *Session) handleRevert(m RevertItem) Result {
	it, ok := s.queue.Get(m.PlayerID)
	if !ok || it.Status != auction.StatusSold {
		return Result{Err: fmt.Errorf("player %s: %w", m.PlayerID, ErrNothingToRevert)}
	}
	owner, ok := s.ledger.Owner(m.PlayerID)
	if !ok {
		return Result{Err: fmt.Errorf("player %s has no holder: %w", m.PlayerID, ErrNothingToRevert)}
	}

	var refunded ledger.Holding
	if it.Kind == auction.KindTransfer {
		entry, err := s.ledger.Snapshot(owner)
		if err != nil {
			return Result{Err: err}
		}
		price := entry.Holdings[m.PlayerID].Price
		// Hand the player back and unwind the payment. The original
		// seller must still be able to repay the proceeds.
		h, err := s.ledger.TransferOwnership(owner, it.SellerID, m.PlayerID, price)
		if err != nil {
			return Result{Err: fmt.Errorf("revert transfer: %w", err)}
		}
		refunded = h
	} else {
		h, err := s.ledger.Unassign(owner, m.PlayerID)
		if err != nil {
			return Result{Err: fmt.Errorf("revert sale: %w", err)}
		}
		refunded = h
	}

	if err := s.queue.Mark(m.PlayerID, auction.StatusReverted); err != nil {
		s.deps.Log.Error("revert mark failed", zap.String("player_id", m.PlayerID), zap.Error(err))
	}
	if err := s.queue.Requeue(m.PlayerID); err != nil {
		s.deps.Log.Error("requeue failed", zap.String("player_id", m.PlayerID), zap.Error(err))
	}
	s.persistTransition(it, auction.StatusSold, auction.StatusReverted, "", decimal.Zero, "revert")
	s.persistTransition(it, auction.StatusReverted, auction.StatusPending, "", decimal.Zero, "requeue")
	s.persistDelta(owner, m.PlayerID, store.DeltaCredit, refunded.Price)
	if it.Kind == auction.KindTransfer {
		s.persistDelta(it.SellerID, m.PlayerID, store.DeltaDebit, refunded.Price)
	}

	// The replayed item belongs to the run it came from.
	if s.mode == ModeIdle {
		if it.Kind == auction.KindTransfer {
			s.mode = ModeTransfers
		} else {
			s.mode = ModeDraft
		}
	}
	if it.Kind == auction.KindContested {
		s.complete = false
	}

	s.deps.Log.Info("sale reverted",
		zap.String("player_id", m.PlayerID),
		zap.String("previous_owner", owner),
		zap.String("refund", refunded.Price.String()))
	s.publish([]auction.Event{{
		Type:          auction.EvtItemReverted,
		PlayerID:      m.PlayerID,
		ParticipantID: owner,
		SellerID:      it.SellerID,
		Amount:        refunded.Price,
		At:            s.now(),
	}})
	return Result{}
}

func (s *Session) handleList(m ListPlayer) Result {
	if !s.windowOpen {
		return Result{Err: fmt.Errorf("league %s: %w", s.leagueID, market.ErrWindowClosed)}
	}
	if existing, ok := s.listings[m.PlayerID]; ok && existing.Status == market.ListingOpen {
		return Result{Err: fmt.Errorf("player %s: %w", m.PlayerID, market.ErrDuplicateListing)}
	}
	owner, ok := s.ledger.Owner(m.PlayerID)
	if !ok || owner != m.SellerID {
		return Result{Err: fmt.Errorf("player %s, seller %s: %w", m.PlayerID, m.SellerID, market.ErrNotOwner)}
	}
	l, err := market.NewListing(s.leagueID, m.PlayerID, m.SellerID, m.BasePrice, s.now())
	if err != nil {
		return Result{Err: err}
	}
	s.listings[m.PlayerID] = l
	if err := s.deps.Store.SaveListing(s.ctx, l); err != nil {
		s.deps.Log.Error("listing not persisted", zap.String("player_id", m.PlayerID), zap.Error(err))
	}
	s.deps.Log.Info("player listed",
		zap.String("player_id", m.PlayerID),
		zap.String("seller_id", m.SellerID),
		zap.String("base_price", m.BasePrice.String()))
	return Result{Listing: &l}
}

func (s *Session) handleMarketSignal(sig market.Signal) {
	switch sig {
	case market.SignalOpen:
		if s.windowOpen {
			return
		}
		s.windowOpen = true
		s.publish([]auction.Event{{Type: auction.EvtMarketOpened, At: s.now()}})
	case market.SignalClose:
		if !s.windowOpen {
			return
		}
		s.windowOpen = false
		s.publish([]auction.Event{{Type: auction.EvtMarketClosed, At: s.now()}})
		s.pendingTransfers = s.hasOpenListings()
		if s.pendingTransfers && s.mode == ModeIdle && (s.round == nil || s.round.Terminal()) {
			s.activateNext()
		}
	}
}

func (s *Session) hasOpenListings() bool {
	for _, l := range s.listings {
		if l.Status == market.ListingOpen {
			return true
		}
	}
	return false
}

// beginTransfers turns the open listings into queued transfer items.
func (s *Session) beginTransfers() bool {
	s.pendingTransfers = false
	ids := make([]string, 0, len(s.listings))
	for pid, l := range s.listings {
		if l.Status == market.ListingOpen {
			ids = append(ids, pid)
		}
	}
	if len(ids) == 0 {
		return false
	}
	sort.Strings(ids)

	items := make([]auction.Item, 0, len(ids))
	for _, pid := range ids {
		l := s.listings[pid]
		items = append(items, auction.Item{
			PlayerID:  l.PlayerID,
			Kind:      auction.KindTransfer,
			BasePrice: l.BasePrice,
			SellerID:  l.SellerID,
		})
		l.Status = market.ListingAuctioned
		s.listings[pid] = l
		if err := s.deps.Store.SaveListing(s.ctx, l); err != nil {
			s.deps.Log.Error("listing status not persisted", zap.String("player_id", pid), zap.Error(err))
		}
	}
	s.queue.Enqueue(items...)
	s.mode = ModeTransfers
	s.deps.Log.Info("transfer auctions queued", zap.Int("listings", len(items)))
	return true
}

func (s *Session) handleTimer(gen uint64) {
	// A fire from a replaced timer means a bid already reset the window.
	if gen != s.timerGen || s.round == nil || !s.round.Open() {
		return
	}
	s.closeAndSettle(auction.CloseTimerExpired)
}

func (s *Session) closeAndSettle(reason auction.CloseReason) {
	_, next, err := auction.Apply(*s.round, auction.Command{
		Type:    auction.CmdClose,
		Reason:  reason,
		Wallets: s.ledger.Budgets(s.round.Item.Interested...),
		Now:     s.now(),
	})
	if err != nil {
		s.deps.Log.Error("close failed", zap.Error(err))
		return
	}
	s.round = &next
	s.disarmTimer()
	s.settle()
}

// settle applies the decided outcome: ledger first, then the queue,
// then persistence, then the settle command that makes it public.
func (s *Session) settle() {
	it := s.round.Item
	if res := s.round.Resolution; res != nil {
		if err := s.applyResolution(it, res); err != nil {
			// The winner was validated inside this same loop, so this
			// only fires on a corrupted ledger. Keep the item instead
			// of selling it wrong.
			s.deps.Log.Error("settlement failed, skipping item",
				zap.String("player_id", it.PlayerID), zap.Error(err))
			s.round.Resolution = nil
		}
	}

	if res := s.round.Resolution; res != nil {
		if err := s.queue.Mark(it.PlayerID, auction.StatusSold); err != nil {
			s.deps.Log.Error("mark sold failed", zap.String("player_id", it.PlayerID), zap.Error(err))
		}
		s.persistTransition(it, auction.StatusActive, auction.StatusSold, res.WinnerID, res.Price, string(s.round.CloseReason))
		s.persistDelta(res.WinnerID, it.PlayerID, store.DeltaDebit, res.Price)
		if it.Kind == auction.KindTransfer {
			s.persistDelta(it.SellerID, it.PlayerID, store.DeltaCredit, res.Price)
		}
		s.deps.Log.Info("item sold",
			zap.String("player_id", it.PlayerID),
			zap.String("winner_id", res.WinnerID),
			zap.String("price", res.Price.String()),
			zap.Bool("auto", res.Auto))
	} else {
		if err := s.queue.Mark(it.PlayerID, auction.StatusSkipped); err != nil {
			s.deps.Log.Error("mark skipped failed", zap.String("player_id", it.PlayerID), zap.Error(err))
		}
		s.persistTransition(it, auction.StatusActive, auction.StatusSkipped, "", decimal.Zero, string(s.round.CloseReason))
		s.deps.Log.Info("item skipped",
			zap.String("player_id", it.PlayerID),
			zap.String("reason", string(s.round.CloseReason)))
	}

	evs, next, err := auction.Apply(*s.round, auction.Command{Type: auction.CmdSettle, Now: s.now()})
	if err != nil {
		s.deps.Log.Error("settle failed", zap.Error(err))
		return
	}
	s.round = &next
	s.publish(evs)

	if !s.rules.ManualAdvance {
		s.activateNext()
	}
}

func (s *Session) applyResolution(it auction.Item, res *auction.Resolution) error {
	if it.Kind == auction.KindTransfer {
		_, err := s.ledger.TransferOwnership(it.SellerID, res.WinnerID, it.PlayerID, res.Price)
		return err
	}
	_, err := s.ledger.Assign(res.WinnerID, it.PlayerID, res.Price, res.Method)
	return err
}

func (s *Session) handleWatch(m Watch) {
	if m.Outbox == nil {
		return
	}
	s.observers[m.ObserverID] = m.Outbox
	// Greet with the current state so the observer has something to
	// render before the next change.
	select {
	case m.Outbox <- s.snapshot(nil):
	default:
	}
}

// publish bumps the version, records history, hands broadcast events to
// the sink, and fans the fresh snapshot out to observers.
func (s *Session) publish(events []auction.Event) {
	s.version++
	s.record(events)
	public := publicEvents(events)
	if len(public) > 0 {
		s.deps.Sink.Publish(s.ctx, s.leagueID, public)
	}
	snap := s.snapshot(public)
	for id, out := range s.observers {
		select {
		case out <- snap:
		default:
			// Slow observers miss snapshots; they never stall the loop.
			s.deps.Log.Warn("observer lagging, dropping snapshot", zap.String("observer_id", id))
		}
	}
}

// Passes are tallied, not broadcast; the running count travels with the
// snapshot instead.
func publicEvents(events []auction.Event) []auction.Event {
	out := make([]auction.Event, 0, len(events))
	for _, ev := range events {
		if ev.Type == auction.EvtPassRecorded {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (s *Session) record(events []auction.Event) {
	for _, ev := range events {
		rec := recorder.AuctionRecord{
			LeagueID:      s.leagueID,
			PlayerID:      ev.PlayerID,
			EventType:     string(ev.Type),
			ParticipantID: ev.ParticipantID,
			SellerID:      ev.SellerID,
			Amount:        ev.Amount,
			Seq:           ev.Seq,
			Reason:        string(ev.Reason),
			At:            ev.At,
		}
		if err := s.deps.Recorder.RecordAuction(&rec); err != nil {
			s.deps.Log.Warn("history write failed", zap.String("event", string(ev.Type)), zap.Error(err))
		}
	}
}

func (s *Session) snapshot(events []auction.Event) Snapshot {
	snap := Snapshot{
		LeagueID:     s.leagueID,
		Version:      s.version,
		QueuePending: s.queue.Pending(),
		WindowOpen:   s.windowOpen,
		Complete:     s.complete,
		Events:       events,
	}
	if r := s.round; r != nil {
		rv := RoundView{
			PlayerID:    r.Item.PlayerID,
			Kind:        r.Item.Kind,
			Phase:       r.Phase,
			BasePrice:   r.Item.BasePrice,
			SellerID:    r.Item.SellerID,
			MinimumNext: auction.RequiredMinimum(r.Item),
			Interested:  append([]string(nil), r.Item.Interested...),
			Passes:      len(r.Passes),
			RemainingMS: r.Remaining(s.now()).Milliseconds(),
		}
		if hb := r.Item.HighestBid; hb != nil {
			b := *hb
			rv.HighestBid = &b
		}
		snap.Round = &rv
	}
	return snap
}

func (s *Session) view() View {
	v := View{
		Snapshot: s.snapshot(nil),
		Started:  s.started,
		Mode:     s.mode,
		Ledger:   s.ledger.SnapshotAll(),
	}
	ids := make([]string, 0, len(s.listings))
	for pid := range s.listings {
		ids = append(ids, pid)
	}
	sort.Strings(ids)
	for _, pid := range ids {
		v.Listings = append(v.Listings, s.listings[pid])
	}
	return v
}

func (s *Session) persistTransition(it auction.Item, from, to auction.Status, winner string, price decimal.Decimal, reason string) {
	t := store.ItemTransition{
		LeagueID: s.leagueID,
		PlayerID: it.PlayerID,
		From:     from,
		To:       to,
		WinnerID: winner,
		Price:    price,
		SellerID: it.SellerID,
		Reason:   reason,
		At:       s.now(),
	}
	if err := s.deps.Store.SaveItemTransition(s.ctx, t); err != nil {
		// The in-memory outcome stands; retries already ran inside the
		// store. This is an operator problem, not an auction one.
		s.deps.Log.Error("item transition not persisted",
			zap.String("player_id", it.PlayerID),
			zap.String("to", string(to)),
			zap.Error(err))
	}
}

func (s *Session) persistDelta(participantID, playerID string, kind store.DeltaKind, amount decimal.Decimal) {
	after := decimal.Zero
	if entry, err := s.ledger.Snapshot(participantID); err == nil {
		after = entry.Budget
	}
	d := store.LedgerDelta{
		LeagueID:      s.leagueID,
		ParticipantID: participantID,
		PlayerID:      playerID,
		Kind:          kind,
		Amount:        amount,
		BudgetAfter:   after,
		At:            s.now(),
	}
	if err := s.deps.Store.SaveLedgerDelta(s.ctx, d); err != nil {
		s.deps.Log.Error("ledger delta not persisted",
			zap.String("participant_id", participantID),
			zap.Error(err))
	}
	rec := recorder.LedgerRecord{
		LeagueID:      s.leagueID,
		ParticipantID: participantID,
		PlayerID:      playerID,
		Kind:          string(kind),
		Amount:        amount,
		BudgetAfter:   after,
		At:            d.At,
	}
	if err := s.deps.Recorder.RecordLedger(&rec); err != nil {
		s.deps.Log.Warn("ledger history write failed", zap.Error(err))
	}
}

func (s *Session) armTimer(d time.Duration) {
	s.timerGen++
	gen := s.timerGen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, func() {
		select {
		case s.inbox <- timerFired{gen: gen}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) disarmTimer() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) teardown() {
	s.cancel()
	s.disarmTimer()
	for id, out := range s.observers {
		close(out)
		delete(s.observers, id)
	}
	s.deps.Log.Info("session stopped")
}
