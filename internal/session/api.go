package session

import (
	"context"

	"github.com/shopspring/decimal"
)

// The methods below are the blocking face of the inbox: build the
// message, post it, wait for the reply. HTTP handlers use these; tests
// that care about ordering post to Inbox directly.

func (s *Session) do(ctx context.Context, build func(chan Result) Msg) Result {
	replyCh := make(chan Result, 1)
	select {
	case s.inbox <- build(replyCh):
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case <-s.ctx.Done():
		return Result{Err: ErrSessionClosed}
	}
	select {
	case r := <-replyCh:
		return r
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	case <-s.done:
		return Result{Err: ErrSessionClosed}
	}
}

func (s *Session) Start(ctx context.Context) Result {
	return s.do(ctx, func(r chan Result) Msg { return StartAuction{Reply: r} })
}

func (s *Session) Bid(ctx context.Context, playerID, bidderID string, amount decimal.Decimal) Result {
	return s.do(ctx, func(r chan Result) Msg {
		return SubmitBid{PlayerID: playerID, BidderID: bidderID, Amount: amount, Reply: r}
	})
}

func (s *Session) PassOn(ctx context.Context, playerID, participantID string) Result {
	return s.do(ctx, func(r chan Result) Msg {
		return Pass{PlayerID: playerID, ParticipantID: participantID, Reply: r}
	})
}

func (s *Session) AdvanceItem(ctx context.Context) Result {
	return s.do(ctx, func(r chan Result) Msg { return Advance{Reply: r} })
}

func (s *Session) Resolve(ctx context.Context, playerID, winnerID string, amount decimal.Decimal) Result {
	return s.do(ctx, func(r chan Result) Msg {
		return ResolveItem{PlayerID: playerID, WinnerID: winnerID, Amount: amount, Reply: r}
	})
}

func (s *Session) Revert(ctx context.Context, playerID string) Result {
	return s.do(ctx, func(r chan Result) Msg { return RevertItem{PlayerID: playerID, Reply: r} })
}

func (s *Session) List(ctx context.Context, playerID, sellerID string, basePrice decimal.Decimal) Result {
	return s.do(ctx, func(r chan Result) Msg {
		return ListPlayer{PlayerID: playerID, SellerID: sellerID, BasePrice: basePrice, Reply: r}
	})
}

// State returns the full session view.
func (s *Session) State(ctx context.Context) (View, error) {
	replyCh := make(chan View, 1)
	select {
	case s.inbox <- GetView{Reply: replyCh}:
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-s.ctx.Done():
		return View{}, ErrSessionClosed
	}
	select {
	case v := <-replyCh:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-s.done:
		return View{}, ErrSessionClosed
	}
}

// Observe registers a snapshot channel under the observer id. The
// channel is closed when the session shuts down.
func (s *Session) Observe(ctx context.Context, observerID string, out chan Snapshot) error {
	select {
	case s.inbox <- Watch{ObserverID: observerID, Outbox: out}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// Forget drops the observer. The channel is not closed; the caller
// owns it.
func (s *Session) Forget(observerID string) {
	select {
	case s.inbox <- Unwatch{ObserverID: observerID}:
	case <-s.ctx.Done():
	}
}

// Stop shuts the loop down and waits for it to exit.
func (s *Session) Stop() {
	s.cancel()
	<-s.done
}
