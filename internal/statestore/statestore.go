// Package statestore persists serialized conversation state between
// agent runs. When a run ends in input_required, the caller saves the
// returned state here keyed by conversation id and hands it back on
// the next run.
package statestore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a per-conversation state store backed by SQLite. All public
// methods are safe for concurrent use (SQLite serializes writes).
type Store struct {
	db *sql.DB
}

// NewStore creates a conversation state store at the given database
// path. The schema is created automatically on first use.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversation_state (
		conversation_id TEXT PRIMARY KEY,
		state           TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save upserts the serialized state for a conversation.
func (s *Store) Save(conversationID string, state []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO conversation_state (conversation_id, state, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(conversation_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at`,
		conversationID, string(state), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save state for %s: %w", conversationID, err)
	}
	return nil
}

// Load returns the stored state for a conversation. Returns nil and no
// error when the conversation has no saved state.
func (s *Store) Load(conversationID string) ([]byte, error) {
	var state string
	err := s.db.QueryRow(
		`SELECT state FROM conversation_state WHERE conversation_id = ?`,
		conversationID,
	).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state for %s: %w", conversationID, err)
	}
	return []byte(state), nil
}

// Clear removes a conversation's saved state. Clearing an unknown
// conversation is not an error.
func (s *Store) Clear(conversationID string) error {
	_, err := s.db.Exec(
		`DELETE FROM conversation_state WHERE conversation_id = ?`,
		conversationID,
	)
	if err != nil {
		return fmt.Errorf("clear state for %s: %w", conversationID, err)
	}
	return nil
}
