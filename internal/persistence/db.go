// Package persistence provides the SQLite session journal: a write-mostly
// history of generated islands and the moves played on them. Worlds are
// never restored from it.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/homeward/internal/engine"
)

// lastSessionKey holds the ID of the most recently recorded session.
const lastSessionKey = "last_session"

// DB wraps a SQLite connection for the session journal.
type DB struct {
	conn *sqlx.DB
}

// SessionRow is one journaled session.
type SessionRow struct {
	ID        string `db:"id" json:"id"`
	Seed      int64  `db:"seed" json:"seed"`
	Attempts  int    `db:"attempts" json:"attempts"`
	Width     int    `db:"width" json:"width"`
	Height    int    `db:"height" json:"height"`
	Tiles     int    `db:"tiles" json:"tiles"`
	Walkable  int    `db:"walkable" json:"walkable"`
	SpawnQ    int    `db:"spawn_q" json:"spawn_q"`
	SpawnR    int    `db:"spawn_r" json:"spawn_r"`
	ExitQ     int    `db:"exit_q" json:"exit_q"`
	ExitR     int    `db:"exit_r" json:"exit_r"`
	Moves     int    `db:"moves" json:"moves"`
	Won       bool   `db:"won" json:"won"`
	StartedAt int64  `db:"started_at" json:"started_at"` // Unix seconds
}

// MoveRow is one journaled move request.
type MoveRow struct {
	SessionID string `db:"session_id" json:"session_id"`
	Seq       int    `db:"seq" json:"seq"`
	FromQ     int    `db:"from_q" json:"from_q"`
	FromR     int    `db:"from_r" json:"from_r"`
	ToQ       int    `db:"to_q" json:"to_q"`
	ToR       int    `db:"to_r" json:"to_r"`
	Outcome   string `db:"outcome" json:"outcome"`
	At        int64  `db:"at" json:"at"` // Unix seconds
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		tiles INTEGER NOT NULL,
		walkable INTEGER NOT NULL,
		spawn_q INTEGER NOT NULL,
		spawn_r INTEGER NOT NULL,
		exit_q INTEGER NOT NULL,
		exit_r INTEGER NOT NULL,
		moves INTEGER NOT NULL DEFAULT 0,
		won INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS moves (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		from_q INTEGER NOT NULL,
		from_r INTEGER NOT NULL,
		to_q INTEGER NOT NULL,
		to_r INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		at INTEGER NOT NULL,
		PRIMARY KEY (session_id, seq)
	);

	CREATE TABLE IF NOT EXISTS journal_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordSession stores a freshly started session.
func (db *DB) RecordSession(s *engine.Session) error {
	_, err := db.conn.Exec(`INSERT INTO sessions
		(id, seed, attempts, width, height, tiles, walkable,
		 spawn_q, spawn_r, exit_q, exit_r, moves, won, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Seed, s.Attempts, s.Map.Width, s.Map.Height, s.Map.Len(), s.Map.WalkableCount(),
		s.Spawn.Q, s.Spawn.R, s.Exit.Q, s.Exit.R, s.Moves, s.Won, s.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	return db.SaveMeta(lastSessionKey, s.ID)
}

// RecordMove appends a move and updates the session's counters.
func (db *DB) RecordMove(sessionID string, mv engine.MoveRecord) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO moves
		(session_id, seq, from_q, from_r, to_q, to_r, outcome, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, mv.Seq, mv.From.Q, mv.From.R, mv.To.Q, mv.To.R, mv.Outcome.String(), mv.At.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert move %s/%d: %w", sessionID, mv.Seq, err)
	}

	if mv.Outcome == engine.MoveAccepted {
		if _, err := tx.Exec("UPDATE sessions SET moves = moves + 1, won = won OR ? WHERE id = ?", mv.Won, sessionID); err != nil {
			return fmt.Errorf("update session %s: %w", sessionID, err)
		}
		if mv.Won {
			slog.Info("journal: session won", "id", sessionID, "seq", mv.Seq)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in journal metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO journal_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM journal_meta WHERE key = ?", key)
	return value, err
}

// LastSession returns the most recently recorded session, or nil if the
// journal is empty.
func (db *DB) LastSession() (*SessionRow, error) {
	id, err := db.GetMeta(lastSessionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read last session: %w", err)
	}

	var row SessionRow
	if err := db.conn.Get(&row, "SELECT * FROM sessions WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return &row, nil
}

// RecentSessions returns the most recently started sessions, newest first.
func (db *DB) RecentSessions(limit int) ([]SessionRow, error) {
	var rows []SessionRow
	err := db.conn.Select(&rows,
		"SELECT * FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return rows, err
}

// SessionMoves returns every journaled move of a session in order.
func (db *DB) SessionMoves(sessionID string) ([]MoveRow, error) {
	var rows []MoveRow
	err := db.conn.Select(&rows,
		"SELECT * FROM moves WHERE session_id = ? ORDER BY seq",
		sessionID,
	)
	return rows, err
}
