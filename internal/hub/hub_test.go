package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/draftpit/auction-engine/internal/auction"
	"github.com/draftpit/auction-engine/internal/market"
	"github.com/draftpit/auction-engine/internal/roster"
	"github.com/draftpit/auction-engine/internal/session"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func league(id string) roster.League {
	return roster.League{
		ID: id,
		Participants: map[string]decimal.Decimal{
			"a": dec("100"), "b": dec("100"),
		},
		Items: []auction.Item{
			{PlayerID: "p1", Kind: auction.KindContested, BasePrice: dec("1"), Interested: []string{"a", "b"}},
		},
	}
}

func newHub(t *testing.T, leagues ...roster.League) *Hub {
	t.Helper()
	h := New(context.Background(),
		session.Rules{BidWindow: time.Minute},
		session.Deps{Roster: roster.NewStatic(leagues...)})
	t.Cleanup(h.Shutdown)
	return h
}

func TestEnsureReturnsSameSession(t *testing.T) {
	h := newHub(t, league("lg-1"))
	ctx := context.Background()

	first, err := h.Ensure(ctx, "lg-1")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := h.Ensure(ctx, "lg-1")
	require.NoError(t, err)
	require.Same(t, first, second)

	got, err := h.Get(ctx, "lg-1")
	require.NoError(t, err)
	require.Same(t, first, got)
}

func TestGetUnknownLeagueIsNil(t *testing.T) {
	h := newHub(t)

	s, err := h.Get(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, s)
}

// Leagues are isolated: concurrent auctions in different leagues never
// see each other's state.
func TestLeaguesRunIndependently(t *testing.T) {
	h := newHub(t, league("lg-1"), league("lg-2"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"lg-1", "lg-2"} {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := h.Ensure(ctx, id)
			if err != nil {
				t.Errorf("ensure %s: %v", id, err)
				return
			}
			if res := s.Start(ctx); res.Err != nil {
				t.Errorf("start %s: %v", id, res.Err)
				return
			}
			if res := s.Bid(ctx, "p1", "a", dec("1")); res.Err != nil {
				t.Errorf("bid %s: %v", id, res.Err)
			}
		}()
	}
	wg.Wait()

	for _, id := range []string{"lg-1", "lg-2"} {
		s, err := h.Get(ctx, id)
		require.NoError(t, err)
		v, err := s.State(ctx)
		require.NoError(t, err)
		require.NotNil(t, v.Round)
		require.NotNil(t, v.Round.HighestBid)
		require.Equal(t, "a", v.Round.HighestBid.BidderID)
	}
}

func TestRemoveStopsSession(t *testing.T) {
	h := newHub(t, league("lg-1"))
	ctx := context.Background()

	s, err := h.Ensure(ctx, "lg-1")
	require.NoError(t, err)
	require.NoError(t, h.Remove(ctx, "lg-1"))

	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("session loop still running after remove")
	}

	got, err := h.Get(ctx, "lg-1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSignalMarketReachesEverySession(t *testing.T) {
	h := newHub(t, league("lg-1"), league("lg-2"))
	ctx := context.Background()

	for _, id := range []string{"lg-1", "lg-2"} {
		_, err := h.Ensure(ctx, id)
		require.NoError(t, err)
	}

	h.SignalMarket(market.SignalOpen)

	require.Eventually(t, func() bool {
		for _, id := range []string{"lg-1", "lg-2"} {
			s, err := h.Get(ctx, id)
			if err != nil || s == nil {
				return false
			}
			v, err := s.State(ctx)
			if err != nil || !v.WindowOpen {
				return false
			}
		}
		return true
	}, 3*time.Second, 5*time.Millisecond)
}

func TestShutdownStopsEverything(t *testing.T) {
	h := New(context.Background(),
		session.Rules{BidWindow: time.Minute},
		session.Deps{Roster: roster.NewStatic(league("lg-1"))})

	s, err := h.Ensure(context.Background(), "lg-1")
	require.NoError(t, err)

	h.Shutdown()

	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("session survived hub shutdown")
	}

	_, err = h.Ensure(context.Background(), "lg-1")
	require.ErrorIs(t, err, ErrHubClosed)
}
