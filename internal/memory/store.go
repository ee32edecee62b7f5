// Package memory persists the backend's conversation history in SQLite.
// POST /reset-memory wipes it, which is the whole point of its existence as
// a separate store.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Turn is one stored conversation turn for an expert.
type Turn struct {
	ID        string
	ExpertID  string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Store is the SQLite-backed conversation memory.
type Store struct {
	db *sql.DB
}

// NewStore opens (and migrates) the conversation memory database.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite handles one writer; a single pooled connection also keeps
	// :memory: databases coherent.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			turn_id TEXT PRIMARY KEY,
			expert_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_expert ON turns(expert_id, created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendTurn records one conversation turn.
func (s *Store) AppendTurn(ctx context.Context, expertID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (turn_id, expert_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), expertID, role, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// History returns up to limit most recent turns for an expert, oldest
// first. limit <= 0 means no limit.
func (s *Store) History(ctx context.Context, expertID string, limit int) ([]Turn, error) {
	q := `SELECT turn_id, expert_id, role, content, created_at FROM turns
		WHERE expert_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{expertID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.ExpertID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	// Flip newest-first into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Reset discards all stored conversation state.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns`); err != nil {
		return fmt.Errorf("reset memory: %w", err)
	}
	return nil
}
