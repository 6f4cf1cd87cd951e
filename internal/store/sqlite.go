package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"

	"github.com/brightdesk/chatrelay/internal/model/chat"
)

// SQLiteStore implements Gateway on a local SQLite database. Transcripts
// are stored as a JSON column; email is the primary key, so upserts are a
// single INSERT ON CONFLICT.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	email      TEXT PRIMARY KEY,
	room_key   TEXT NOT NULL,
	history    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// OpenSQLite opens (and if needed creates) the database at dsn.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open sqlite store")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "apply sqlite schema")
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (SessionRecord, error) {
	var (
		rec     SessionRecord
		history []byte
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT email, room_key, history FROM sessions WHERE email = ?`, email)
	if err := row.Scan(&rec.Email, &rec.RoomKey, &history); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionRecord{}, ErrNotFound
		}
		return SessionRecord{}, pkgerrors.Wrap(err, "query session record")
	}
	if err := json.Unmarshal(history, &rec.History); err != nil {
		return SessionRecord{}, pkgerrors.Wrap(err, "decode stored history")
	}
	return rec, nil
}

func (s *SQLiteStore) UpsertByEmail(ctx context.Context, rec SessionRecord) error {
	history, err := json.Marshal(rec.History)
	if err != nil {
		return pkgerrors.Wrap(err, "encode history")
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO sessions (email, room_key, history, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(email) DO UPDATE SET
	room_key   = excluded.room_key,
	history    = excluded.history,
	updated_at = CURRENT_TIMESTAMP`,
		rec.Email, rec.RoomKey, string(history))
	return pkgerrors.Wrap(err, "upsert session record")
}

func (s *SQLiteStore) List(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email, room_key, history FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list session records")
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			rec     SessionRecord
			history []byte
		)
		if err := rows.Scan(&rec.Email, &rec.RoomKey, &history); err != nil {
			return nil, pkgerrors.Wrap(err, "scan session record")
		}
		if err := json.Unmarshal(history, &rec.History); err != nil {
			// a corrupt row should not hide the rest
			rec.History = []chat.Message{}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
