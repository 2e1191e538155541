package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS auction_history (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	league_id      TEXT NOT NULL,
	player_id      TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	participant_id TEXT NOT NULL DEFAULT '',
	seller_id      TEXT NOT NULL DEFAULT '',
	amount         TEXT NOT NULL DEFAULT '0',
	seq            INTEGER NOT NULL DEFAULT 0,
	reason         TEXT NOT NULL DEFAULT '',
	recorded_at    INTEGER NOT NULL,
	CHECK (participant_id = '' OR seller_id = '' OR participant_id <> seller_id)
);
CREATE INDEX IF NOT EXISTS idx_auction_history_league
	ON auction_history(league_id, recorded_at);

CREATE TABLE IF NOT EXISTS ledger_history (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	league_id      TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	player_id      TEXT NOT NULL DEFAULT '',
	kind           TEXT NOT NULL,
	amount         TEXT NOT NULL,
	budget_after   TEXT NOT NULL,
	recorded_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_history_league
	ON ledger_history(league_id, recorded_at);
`

// SQLite records history into a single local database file. Amounts
// are stored as text to keep them exact.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) RecordAuction(rec *AuctionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO auction_history
			(league_id, player_id, event_type, participant_id, seller_id, amount, seq, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.LeagueID, rec.PlayerID, rec.EventType, rec.ParticipantID, rec.SellerID,
		rec.Amount.String(), rec.Seq, rec.Reason, rec.At.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record auction event: %w", err)
	}
	return nil
}

func (s *SQLite) RecordLedger(rec *LedgerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO ledger_history
			(league_id, participant_id, player_id, kind, amount, budget_after, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.LeagueID, rec.ParticipantID, rec.PlayerID, rec.Kind,
		rec.Amount.String(), rec.BudgetAfter.String(), rec.At.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record ledger movement: %w", err)
	}
	return nil
}

// History returns the most recent auction records for a league, newest
// first.
func (s *SQLite) History(leagueID string, limit int) ([]AuctionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
		SELECT league_id, player_id, event_type, participant_id, seller_id, amount, seq, reason, recorded_at
		FROM auction_history
		WHERE league_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		leagueID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []AuctionRecord
	for rows.Next() {
		var rec AuctionRecord
		var amount string
		var recordedAt int64
		if err := rows.Scan(&rec.LeagueID, &rec.PlayerID, &rec.EventType, &rec.ParticipantID,
			&rec.SellerID, &amount, &rec.Seq, &rec.Reason, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		dec, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("amount %q: %w", amount, err)
		}
		rec.Amount = dec
		rec.At = time.Unix(recordedAt, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
