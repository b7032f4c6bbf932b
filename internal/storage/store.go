package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SnapshotRow is the last game snapshot seen in a room.
type SnapshotRow struct {
	Room      string
	Player    string
	StateJSON string
	UpdatedAt time.Time
}

// JournalRow is one frame the client sent.
type JournalRow struct {
	ID        int64
	Room      string
	Action    string
	Frame     string
	CreatedAt time.Time
}

// NegotiationRow records how one veto window closed.
type NegotiationRow struct {
	WindowID   string
	Room       string
	Initiator  string
	Target     string
	ActionCard string
	Outcome    string
	CreatedAt  time.Time
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			room       TEXT PRIMARY KEY,
			player     TEXT NOT NULL,
			state_json TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS journal (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			room       TEXT NOT NULL,
			action     TEXT NOT NULL,
			frame      TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS journal_room ON journal(room, id);
		CREATE TABLE IF NOT EXISTS negotiations (
			window_id   TEXT PRIMARY KEY,
			room        TEXT NOT NULL,
			initiator   TEXT NOT NULL,
			target      TEXT NOT NULL,
			action_card TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// SaveSnapshot upserts the snapshot JSON for room.
func (s *Store) SaveSnapshot(room, player, stateJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO snapshots (room, player, state_json, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(room) DO UPDATE SET player = excluded.player, state_json = excluded.state_json, updated_at = excluded.updated_at
	`, room, player, stateJSON)
	return err
}

// LoadSnapshot returns the cached snapshot for room, or sql.ErrNoRows.
func (s *Store) LoadSnapshot(room string) (*SnapshotRow, error) {
	row := s.db.QueryRow("SELECT room, player, state_json, updated_at FROM snapshots WHERE room = ?", room)
	var sr SnapshotRow
	if err := row.Scan(&sr.Room, &sr.Player, &sr.StateJSON, &sr.UpdatedAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// AppendJournal records one sent frame.
func (s *Store) AppendJournal(room, action, frame string) error {
	_, err := s.db.Exec("INSERT INTO journal (room, action, frame) VALUES (?, ?, ?)", room, action, frame)
	return err
}

// ListJournal returns the frames sent in room, oldest first.
func (s *Store) ListJournal(room string) ([]JournalRow, error) {
	rows, err := s.db.Query("SELECT id, room, action, frame, created_at FROM journal WHERE room = ? ORDER BY id", room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []JournalRow
	for rows.Next() {
		var jr JournalRow
		if err := rows.Scan(&jr.ID, &jr.Room, &jr.Action, &jr.Frame, &jr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, jr)
	}
	return result, rows.Err()
}

// RecordNegotiation stores the outcome of a veto window. A window is
// recorded once.
func (s *Store) RecordNegotiation(n NegotiationRow) error {
	_, err := s.db.Exec(`
		INSERT INTO negotiations (window_id, room, initiator, target, action_card, outcome)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(window_id) DO NOTHING
	`, n.WindowID, n.Room, n.Initiator, n.Target, n.ActionCard, n.Outcome)
	return err
}

// ListNegotiations returns the veto windows closed in room, oldest first.
func (s *Store) ListNegotiations(room string) ([]NegotiationRow, error) {
	rows, err := s.db.Query(`
		SELECT window_id, room, initiator, target, action_card, outcome, created_at
		FROM negotiations WHERE room = ? ORDER BY created_at, rowid
	`, room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []NegotiationRow
	for rows.Next() {
		var nr NegotiationRow
		if err := rows.Scan(&nr.WindowID, &nr.Room, &nr.Initiator, &nr.Target, &nr.ActionCard, &nr.Outcome, &nr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, nr)
	}
	return result, rows.Err()
}

// DeleteRoom removes everything stored for room.
func (s *Store) DeleteRoom(room string) error {
	for _, q := range []string{
		"DELETE FROM snapshots WHERE room = ?",
		"DELETE FROM journal WHERE room = ?",
		"DELETE FROM negotiations WHERE room = ?",
	} {
		if _, err := s.db.Exec(q, room); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
