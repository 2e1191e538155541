package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/draftpit/auction-engine/internal/auction"
	"github.com/draftpit/auction-engine/internal/market"
)

// Retrying wraps a Store and retries failed writes with exponential
// backoff. Reads pass straight through. Constraint violations are
// permanent and returned immediately.
type Retrying struct {
	inner     Store
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	log       *zap.Logger
}

func NewRetrying(inner Store, attempts int, baseDelay time.Duration, log *zap.Logger) *Retrying {
	if attempts <= 0 {
		attempts = 5
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	return &Retrying{
		inner:     inner,
		attempts:  attempts,
		baseDelay: baseDelay,
		maxDelay:  5 * time.Second,
		log:       log,
	}
}

func (r *Retrying) SaveItemTransition(ctx context.Context, t ItemTransition) error {
	return r.retry(ctx, "save item transition", func() error {
		return r.inner.SaveItemTransition(ctx, t)
	})
}

func (r *Retrying) SaveLedgerDelta(ctx context.Context, d LedgerDelta) error {
	return r.retry(ctx, "save ledger delta", func() error {
		return r.inner.SaveLedgerDelta(ctx, d)
	})
}

func (r *Retrying) SaveListing(ctx context.Context, l market.Listing) error {
	return r.retry(ctx, "save listing", func() error {
		return r.inner.SaveListing(ctx, l)
	})
}

func (r *Retrying) ItemTransitions(ctx context.Context, leagueID string) ([]ItemTransition, error) {
	return r.inner.ItemTransitions(ctx, leagueID)
}

func (r *Retrying) LedgerDeltas(ctx context.Context, leagueID string) ([]LedgerDelta, error) {
	return r.inner.LedgerDeltas(ctx, leagueID)
}

func (r *Retrying) Listings(ctx context.Context, leagueID string) ([]market.Listing, error) {
	return r.inner.Listings(ctx, leagueID)
}

func (r *Retrying) retry(ctx context.Context, op string, fn func() error) error {
	delay := r.baseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			if attempt > 1 {
				r.log.Info("persistence recovered",
					zap.String("op", op), zap.Int("attempt", attempt))
			}
			return nil
		}
		if errors.Is(err, auction.ErrSelfBidForbidden) {
			return err
		}
		if attempt >= r.attempts {
			break
		}
		r.log.Warn("persistence attempt failed, backing off",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, r.attempts, err)
}
