package eco

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS eco_progress (
	session_id    TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	total_points  INTEGER NOT NULL CHECK (total_points >= 0),
	earned_badges TEXT NOT NULL,
	updated_at    TEXT NOT NULL
)`

// OpenSQLite opens (or creates) the progress database at path.
// ":memory:" keeps everything in process.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

type sqliteStore struct {
	db    *sql.DB
	clock Clock
}

// NewSQLiteStore persists snapshots in the eco_progress table of db.
func NewSQLiteStore(db *sql.DB, clock Clock) ProgressStore {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &sqliteStore{db: db, clock: clock}
}

func (s *sqliteStore) Load(ctx context.Context, sessionID string) (SessionRecord, bool, error) {
	var (
		rec    SessionRecord
		badges string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, total_points, earned_badges FROM eco_progress WHERE session_id = ?`, sessionID,
	).Scan(&rec.UserID, &rec.Snapshot.TotalPoints, &badges)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, false, nil
	}
	if err != nil {
		return SessionRecord{}, false, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	if err := json.Unmarshal([]byte(badges), &rec.Snapshot.EarnedBadges); err != nil {
		return SessionRecord{}, false, fmt.Errorf("decoding badges for session %s: %w", sessionID, err)
	}
	return rec, true, nil
}

func (s *sqliteStore) Save(ctx context.Context, sessionID, userID string, snap Snapshot) error {
	badges := snap.EarnedBadges
	if badges == nil {
		badges = []string{}
	}
	encoded, err := json.Marshal(badges)
	if err != nil {
		return fmt.Errorf("encoding badges: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO eco_progress (session_id, user_id, total_points, earned_badges, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			user_id = excluded.user_id,
			total_points = excluded.total_points,
			earned_badges = excluded.earned_badges,
			updated_at = excluded.updated_at`,
		sessionID, userID, snap.TotalPoints, string(encoded), s.clock.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sessionID, err)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM eco_progress WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return nil
}
