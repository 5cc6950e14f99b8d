package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps the turn diagnostics journal. Chat messages are never
// written here; they live only in a conversation's MessageLog.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS turns (
        id TEXT PRIMARY KEY, -- UUID
        conversation_id TEXT NOT NULL,
        outcome TEXT NOT NULL CHECK (outcome IN ('success', 'fallback', 'superseded')),
        failed_stage TEXT NOT NULL DEFAULT '',
        error TEXT NOT NULL DEFAULT '',
        duration_ns INTEGER NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns (conversation_id, created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// RecordTurn inserts rec, filling in its ID and CreatedAt when unset.
func (s *SQLiteStore) RecordTurn(rec *TurnRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	stmt, err := s.db.Prepare("INSERT INTO turns (id, conversation_id, outcome, failed_stage, error, duration_ns, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare turn insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(rec.ID, rec.ConversationID, string(rec.Outcome), rec.FailedStage, rec.Error, int64(rec.Duration), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute turn insert: %w", err)
	}
	return nil
}

// GetTurnsByConversationID returns up to limit records, oldest first.
func (s *SQLiteStore) GetTurnsByConversationID(conversationID string, limit int) ([]TurnRecord, error) {
	query := `
        SELECT id, conversation_id, outcome, failed_stage, error, duration_ns, created_at
        FROM turns
        WHERE conversation_id = ?
        ORDER BY created_at ASC
        LIMIT ?
    `
	rows, err := s.db.Query(query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var outcome string
		var durationNS int64
		if err := rows.Scan(&rec.ID, &rec.ConversationID, &outcome, &rec.FailedStage, &rec.Error, &durationNS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		rec.Outcome = TurnOutcome(outcome)
		rec.Duration = time.Duration(durationNS)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turn rows: %w", err)
	}
	return records, nil
}
