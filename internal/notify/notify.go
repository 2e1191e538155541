// Package notify delivers broadcast auction events to downstream
// consumers (chat integrations, activity feeds). Delivery is best
// effort: the auction loop never waits on a sink.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/draftpit/auction-engine/internal/auction"
)

// Sink consumes the events published after each state change.
// Implementations must tolerate being called from many leagues at once.
type Sink interface {
	Publish(ctx context.Context, leagueID string, events []auction.Event)
}

// LogSink writes every event to the structured log.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, leagueID string, events []auction.Event) {
	for _, ev := range events {
		s.log.Info("auction event",
			zap.String("league_id", leagueID),
			zap.String("type", string(ev.Type)),
			zap.String("player_id", ev.PlayerID),
			zap.String("participant_id", ev.ParticipantID),
			zap.String("amount", ev.Amount.String()),
			zap.String("reason", string(ev.Reason)),
			zap.Bool("auto", ev.Auto),
		)
	}
}

// Fanout publishes to every sink in order.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, leagueID string, events []auction.Event) {
	for _, s := range f {
		s.Publish(ctx, leagueID, events)
	}
}

type publishReq struct {
	leagueID string
	events   []auction.Event
}

// Buffered decouples publishers from a possibly slow inner sink. A
// single drain goroutine preserves event order; when the backlog is
// full new batches are dropped and logged rather than stalling an
// auction.
type Buffered struct {
	inner Sink
	log   *zap.Logger
	ch    chan publishReq
	done  chan struct{}
	once  sync.Once
}

func NewBuffered(inner Sink, size int, log *zap.Logger) *Buffered {
	b := &Buffered{
		inner: inner,
		log:   log,
		ch:    make(chan publishReq, size),
		done:  make(chan struct{}),
	}
	go b.drain()
	return b
}

func (b *Buffered) Publish(_ context.Context, leagueID string, events []auction.Event) {
	select {
	case b.ch <- publishReq{leagueID: leagueID, events: events}:
	case <-b.done:
	default:
		b.log.Warn("event sink backlog full, dropping batch",
			zap.String("league_id", leagueID),
			zap.Int("events", len(events)))
	}
}

func (b *Buffered) drain() {
	for {
		select {
		case req := <-b.ch:
			b.inner.Publish(context.Background(), req.leagueID, req.events)
		case <-b.done:
			for {
				select {
				case req := <-b.ch:
					b.inner.Publish(context.Background(), req.leagueID, req.events)
				default:
					return
				}
			}
		}
	}
}

// Close stops accepting batches and flushes whatever is buffered.
func (b *Buffered) Close() {
	b.once.Do(func() { close(b.done) })
}

// Published pairs an event with the league that emitted it.
type Published struct {
	LeagueID string
	Event    auction.Event
}

// Collector retains everything published to it. Used in tests and as a
// debugging tap behind Fanout.
type Collector struct {
	mu     sync.Mutex
	events []Published
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Publish(_ context.Context, leagueID string, events []auction.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range events {
		c.events = append(c.events, Published{LeagueID: leagueID, Event: ev})
	}
}

// Events returns a copy of everything collected so far.
func (c *Collector) Events() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Published, len(c.events))
	copy(out, c.events)
	return out
}

// ByType filters collected events down to one type.
func (c *Collector) ByType(t auction.EventType) []auction.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []auction.Event
	for _, p := range c.events {
		if p.Event.Type == t {
			out = append(out, p.Event)
		}
	}
	return out
}
