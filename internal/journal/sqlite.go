package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "skulking_local.db"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStoreFromEnv() (*SQLiteStore, error) {
	dbPath, err := journalLocalDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(dbPath)
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteJournalSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, roomID string, seq uint64, eventType string, payload []byte) error {
	nowMs := time.Now().UTC().UnixMilli()
	result, err := s.db.ExecContext(ctx, `
INSERT INTO room_event_stream (room_id, seq, event_type, payload, created_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (room_id, seq) DO NOTHING
`, roomID, int64(seq), eventType, payload, nowMs)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("room %s seq %d: %w", roomID, seq, ErrSeqConflict)
	}
	return nil
}

func (s *SQLiteStore) ReplayEvents(ctx context.Context, roomID string, fromSeq uint64) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT seq, event_type, payload
FROM room_event_stream
WHERE room_id = ?
  AND seq >= ?
ORDER BY seq ASC
`, roomID, int64(fromSeq))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *SQLiteStore) HighestSeq(ctx context.Context, roomID string) (uint64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
SELECT MAX(seq)
FROM room_event_stream
WHERE room_id = ?
`, roomID).Scan(&seq)
	if err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, roomID string, seq uint64, state []byte) error {
	nowMs := time.Now().UTC().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO room_snapshot (room_id, seq, state, created_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT (room_id, seq) DO UPDATE
SET state = excluded.state
`, roomID, int64(seq), state, nowMs)
	return err
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, roomID string) (Snapshot, error) {
	var snapshot Snapshot
	var seq int64
	err := s.db.QueryRowContext(ctx, `
SELECT seq, state
FROM room_snapshot
WHERE room_id = ?
ORDER BY seq DESC
LIMIT 1
`, roomID).Scan(&seq, &snapshot.State)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, err
	}
	snapshot.Seq = uint64(seq)
	return snapshot, nil
}

func (s *SQLiteStore) PruneSnapshots(ctx context.Context, roomID string, keep int) error {
	if keep < 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
DELETE FROM room_snapshot
WHERE room_id = ?
  AND seq NOT IN (
      SELECT seq
      FROM room_snapshot
      WHERE room_id = ?
      ORDER BY seq DESC
      LIMIT ?
  )
`, roomID, roomID, keep)
	return err
}

func ensureSQLiteJournalSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS room_event_stream (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    payload BLOB NOT NULL,
    created_at_ms INTEGER NOT NULL,
    UNIQUE (room_id, seq)
)`,
		`CREATE INDEX IF NOT EXISTS idx_room_event_stream_room_seq ON room_event_stream(room_id, seq)`,
		`
CREATE TABLE IF NOT EXISTS room_snapshot (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    state BLOB NOT NULL,
    created_at_ms INTEGER NOT NULL,
    UNIQUE (room_id, seq)
)`,
		`CREATE INDEX IF NOT EXISTS idx_room_snapshot_room_seq ON room_snapshot(room_id, seq DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func journalLocalDatabasePathFromEnv() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("JOURNAL_LOCAL_DATABASE_PATH")),
		strings.TrimSpace(os.Getenv("LOCAL_DATABASE_PATH")),
	}
	for _, candidate := range candidates {
		if candidate != "" {
			return filepath.Clean(candidate), nil
		}
	}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "Skulking", defaultLocalDBName), nil
}
