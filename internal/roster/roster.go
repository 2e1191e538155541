// Package roster supplies what a league brings to its draft: the
// participants with their starting budgets and the contested players
// with declared interest. Squad management itself lives upstream; the
// engine only reads.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/draftpit/auction-engine/internal/auction"
)

var ErrUnknownLeague = errors.New("unknown league")

// League is one league's draft input.
type League struct {
	ID string
	// Participants maps participant id to starting budget.
	Participants map[string]decimal.Decimal
	// Items are the contested players in nomination order.
	Items []auction.Item
}

// Provider hands leagues to sessions on demand.
type Provider interface {
	League(ctx context.Context, leagueID string) (League, error)
}

// Static serves a fixed set of leagues. Used in tests and wherever the
// roster is assembled in code.
type Static struct {
	leagues map[string]League
}

func NewStatic(leagues ...League) *Static {
	m := make(map[string]League, len(leagues))
	for _, lg := range leagues {
		m[lg.ID] = lg
	}
	return &Static{leagues: m}
}

func (s *Static) League(_ context.Context, leagueID string) (League, error) {
	lg, ok := s.leagues[leagueID]
	if !ok {
		return League{}, fmt.Errorf("%s: %w", leagueID, ErrUnknownLeague)
	}
	out := League{
		ID:           lg.ID,
		Participants: make(map[string]decimal.Decimal, len(lg.Participants)),
		Items:        make([]auction.Item, len(lg.Items)),
	}
	for id, b := range lg.Participants {
		out.Participants[id] = b
	}
	copy(out.Items, lg.Items)
	return out, nil
}

type fileDoc struct {
	Leagues []struct {
		ID           string `yaml:"id"`
		Participants []struct {
			ID     string `yaml:"id"`
			Budget string `yaml:"budget"`
		} `yaml:"participants"`
		Players []struct {
			PlayerID   string   `yaml:"player_id"`
			BasePrice  string   `yaml:"base_price"`
			Interested []string `yaml:"interested"`
		} `yaml:"players"`
	} `yaml:"leagues"`
}

// LoadFile reads a roster document. Amounts are kept as strings in the
// file so they parse exactly.
func LoadFile(path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	var doc fileDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse roster file: %w", err)
	}

	leagues := make([]League, 0, len(doc.Leagues))
	for _, dl := range doc.Leagues {
		lg := League{
			ID:           dl.ID,
			Participants: make(map[string]decimal.Decimal, len(dl.Participants)),
		}
		for _, p := range dl.Participants {
			budget, err := decimal.NewFromString(p.Budget)
			if err != nil {
				return nil, fmt.Errorf("league %s participant %s budget %q: %w", dl.ID, p.ID, p.Budget, err)
			}
			lg.Participants[p.ID] = budget
		}
		for _, pl := range dl.Players {
			base, err := decimal.NewFromString(pl.BasePrice)
			if err != nil {
				return nil, fmt.Errorf("league %s player %s base price %q: %w", dl.ID, pl.PlayerID, pl.BasePrice, err)
			}
			lg.Items = append(lg.Items, auction.Item{
				PlayerID:   pl.PlayerID,
				Kind:       auction.KindContested,
				BasePrice:  base,
				Status:     auction.StatusPending,
				Interested: pl.Interested,
			})
		}
		leagues = append(leagues, lg)
	}
	return NewStatic(leagues...), nil
}
