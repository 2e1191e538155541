// Package hub owns the set of live auction sessions, one per league.
// Like the sessions it manages, the hub is a message loop: every access
// to the session map happens on the loop goroutine, so no locks.
package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/draftpit/auction-engine/internal/market"
	"github.com/draftpit/auction-engine/internal/session"
)

// ErrHubClosed is returned by the blocking helpers once Shutdown ran.
var ErrHubClosed = errors.New("hub: closed")

type Msg interface{ isHubMsg() }

// EnsureSession replies with the league's session, creating it first if
// the league has none yet.
type EnsureSession struct {
	LeagueID string
	Reply    chan *session.Session
}

// GetSession replies with the league's session, or nil if it has none.
type GetSession struct {
	LeagueID string
	Reply    chan *session.Session
}

// RemoveSession stops a league's session and forgets it.
type RemoveSession struct {
	LeagueID string
}

// BroadcastSignal forwards a market window signal to every live session.
type BroadcastSignal struct {
	Signal market.Signal
}

type ShutdownHub struct{}

func (EnsureSession) isHubMsg()   {}
func (GetSession) isHubMsg()      {}
func (RemoveSession) isHubMsg()   {}
func (BroadcastSignal) isHubMsg() {}
func (ShutdownHub) isHubMsg()     {}

type Hub struct {
	inbox    chan Msg
	sessions map[string]*session.Session
	rules    session.Rules
	deps     session.Deps
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// New starts the hub loop. Every session the hub creates shares rules
// and deps; session.New scopes the logger to the league.
func New(parent context.Context, rules session.Rules, deps session.Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan Msg, 64),
		sessions: make(map[string]*session.Session),
		rules:    rules,
		deps:     deps,
		log:      log.Named("hub"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureSession:
				if s := h.sessions[msg.LeagueID]; s != nil {
					msg.Reply <- s
					break
				}
				s := session.New(h.ctx, msg.LeagueID, h.rules, h.deps)
				h.sessions[msg.LeagueID] = s
				h.log.Info("session created", zap.String("league_id", msg.LeagueID))
				msg.Reply <- s

			case GetSession:
				msg.Reply <- h.sessions[msg.LeagueID] // may be nil

			case RemoveSession:
				if s := h.sessions[msg.LeagueID]; s != nil {
					s.Stop()
					delete(h.sessions, msg.LeagueID)
					h.log.Info("session removed", zap.String("league_id", msg.LeagueID))
				}

			case BroadcastSignal:
				for id, s := range h.sessions {
					select {
					case s.Inbox() <- session.MarketSignal{Signal: msg.Signal}:
					case <-s.Done():
						h.log.Warn("market signal dropped, session gone",
							zap.String("league_id", id))
					}
				}

			case ShutdownHub:
				for _, s := range h.sessions {
					s.Stop()
				}
				clear(h.sessions)
				h.cancel()
			}
		}
	}
}

// Ensure returns the session for leagueID, creating it on first use.
func (h *Hub) Ensure(ctx context.Context, leagueID string) (*session.Session, error) {
	reply := make(chan *session.Session, 1)
	if err := h.send(ctx, EnsureSession{LeagueID: leagueID, Reply: reply}); err != nil {
		return nil, err
	}
	return h.recv(ctx, reply)
}

// Get returns the session for leagueID, or nil if none exists.
func (h *Hub) Get(ctx context.Context, leagueID string) (*session.Session, error) {
	reply := make(chan *session.Session, 1)
	if err := h.send(ctx, GetSession{LeagueID: leagueID, Reply: reply}); err != nil {
		return nil, err
	}
	return h.recv(ctx, reply)
}

// Remove stops and forgets a league's session. Safe to call for leagues
// that never had one.
func (h *Hub) Remove(ctx context.Context, leagueID string) error {
	return h.send(ctx, RemoveSession{LeagueID: leagueID})
}

// SignalMarket fans a window signal out to every live session. Called by
// the market scheduler from its own goroutine.
func (h *Hub) SignalMarket(sig market.Signal) {
	_ = h.send(h.ctx, BroadcastSignal{Signal: sig})
}

// Shutdown stops every session and then the hub loop. Blocks until the
// loop has exited.
func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
	<-h.done
}

func (h *Hub) send(ctx context.Context, m Msg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) recv(ctx context.Context, reply chan *session.Session) (*session.Session, error) {
	select {
	case s := <-reply:
		return s, nil
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
