package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/draftpit/auction-engine/internal/auction"
	"github.com/draftpit/auction-engine/internal/market"
)

type itemTransitionModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	LeagueID   string `gorm:"size:64;index:idx_item_transitions_league"`
	PlayerID   string `gorm:"size:64"`
	FromStatus string `gorm:"size:16"`
	ToStatus   string `gorm:"size:16"`
	// The self-sale check is the database-side twin of the bid
	// validator's seller rule.
	WinnerID  string          `gorm:"size:64;check:chk_no_self_sale,(winner_id = '') OR (seller_id = '') OR (winner_id <> seller_id)"`
	SellerID  string          `gorm:"size:64"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2)"`
	Reason    string          `gorm:"size:32"`
	At        time.Time
	CreatedAt time.Time
}

func (itemTransitionModel) TableName() string { return "item_transitions" }

type ledgerDeltaModel struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"`
	LeagueID      string          `gorm:"size:64;index:idx_ledger_deltas_league"`
	ParticipantID string          `gorm:"size:64"`
	PlayerID      string          `gorm:"size:64"`
	Kind          string          `gorm:"size:16"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2)"`
	BudgetAfter   decimal.Decimal `gorm:"type:numeric(12,2)"`
	At            time.Time
	CreatedAt     time.Time
}

func (ledgerDeltaModel) TableName() string { return "ledger_deltas" }

type listingModel struct {
	ID        string          `gorm:"primaryKey;size:36"`
	LeagueID  string          `gorm:"size:64;index:idx_listings_league"`
	PlayerID  string          `gorm:"size:64"`
	SellerID  string          `gorm:"size:64"`
	BasePrice decimal.Decimal `gorm:"type:numeric(12,2)"`
	Status    string          `gorm:"size:16"`
	ListedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (listingModel) TableName() string { return "transfer_listings" }

// Postgres persists through gorm. Schema management is AutoMigrate on
// startup.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&itemTransitionModel{}, &ledgerDeltaModel{}, &listingModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) SaveItemTransition(ctx context.Context, t ItemTransition) error {
	m := itemTransitionModel{
		LeagueID:   t.LeagueID,
		PlayerID:   t.PlayerID,
		FromStatus: string(t.From),
		ToStatus:   string(t.To),
		WinnerID:   t.WinnerID,
		SellerID:   t.SellerID,
		Price:      t.Price,
		Reason:     t.Reason,
		At:         t.At,
	}
	if err := p.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("save item transition: %w", err)
	}
	return nil
}

func (p *Postgres) SaveLedgerDelta(ctx context.Context, d LedgerDelta) error {
	m := ledgerDeltaModel{
		LeagueID:      d.LeagueID,
		ParticipantID: d.ParticipantID,
		PlayerID:      d.PlayerID,
		Kind:          string(d.Kind),
		Amount:        d.Amount,
		BudgetAfter:   d.BudgetAfter,
		At:            d.At,
	}
	if err := p.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("save ledger delta: %w", err)
	}
	return nil
}

func (p *Postgres) SaveListing(ctx context.Context, l market.Listing) error {
	m := listingModel{
		ID:        l.ID.String(),
		LeagueID:  l.LeagueID,
		PlayerID:  l.PlayerID,
		SellerID:  l.SellerID,
		BasePrice: l.BasePrice,
		Status:    string(l.Status),
		ListedAt:  l.CreatedAt,
	}
	if err := p.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("save listing: %w", err)
	}
	return nil
}

func (p *Postgres) ItemTransitions(ctx context.Context, leagueID string) ([]ItemTransition, error) {
	var models []itemTransitionModel
	if err := p.db.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("id asc").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load item transitions: %w", err)
	}
	out := make([]ItemTransition, 0, len(models))
	for _, m := range models {
		out = append(out, ItemTransition{
			LeagueID: m.LeagueID,
			PlayerID: m.PlayerID,
			From:     auction.Status(m.FromStatus),
			To:       auction.Status(m.ToStatus),
			WinnerID: m.WinnerID,
			SellerID: m.SellerID,
			Price:    m.Price,
			Reason:   m.Reason,
			At:       m.At,
		})
	}
	return out, nil
}

func (p *Postgres) LedgerDeltas(ctx context.Context, leagueID string) ([]LedgerDelta, error) {
	var models []ledgerDeltaModel
	if err := p.db.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("id asc").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load ledger deltas: %w", err)
	}
	out := make([]LedgerDelta, 0, len(models))
	for _, m := range models {
		out = append(out, LedgerDelta{
			LeagueID:      m.LeagueID,
			ParticipantID: m.ParticipantID,
			PlayerID:      m.PlayerID,
			Kind:          DeltaKind(m.Kind),
			Amount:        m.Amount,
			BudgetAfter:   m.BudgetAfter,
			At:            m.At,
		})
	}
	return out, nil
}

func (p *Postgres) Listings(ctx context.Context, leagueID string) ([]market.Listing, error) {
	var models []listingModel
	if err := p.db.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("listed_at asc").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	out := make([]market.Listing, 0, len(models))
	for _, m := range models {
		id, err := uuid.Parse(m.ID)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", m.ID, err)
		}
		out = append(out, market.Listing{
			ID:        id,
			LeagueID:  m.LeagueID,
			PlayerID:  m.PlayerID,
			SellerID:  m.SellerID,
			BasePrice: m.BasePrice,
			Status:    market.ListingStatus(m.Status),
			CreatedAt: m.ListedAt,
		})
	}
	return out, nil
}
