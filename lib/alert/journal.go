// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/tcgref/tcgref/lib/sqlitepool"
)

// Entry is one routed report.
type Entry struct {
	ID                 int64
	Time               time.Time
	InvocationID       string
	Kind               string
	Name               string
	RoomID             string
	Developer          string
	User               string
	UserDelivered      bool
	DeveloperDelivered bool
}

// Journal persists routed reports.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

const journalSchema = `CREATE TABLE IF NOT EXISTS alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	time_ms INTEGER NOT NULL,
	invocation_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	room_id TEXT NOT NULL,
	developer TEXT NOT NULL,
	user_message TEXT NOT NULL,
	user_delivered INTEGER NOT NULL,
	developer_delivered INTEGER NOT NULL
);`

const insertAlert = `INSERT INTO alerts
	(time_ms, invocation_id, kind, name, room_id, developer, user_message, user_delivered, developer_delivered)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRecent = `SELECT id, time_ms, invocation_id, kind, name, room_id,
	developer, user_message, user_delivered, developer_delivered
	FROM alerts ORDER BY id DESC LIMIT ?`

// SQLiteJournal is a Journal in a SQLite database.
type SQLiteJournal struct {
	pool *sqlitepool.Pool
}

// OpenJournal opens (creating if needed) the journal at path.
func OpenJournal(path string, logger *slog.Logger) (*SQLiteJournal, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Logger: logger,
		Schema: journalSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("opening alert journal: %w", err)
	}
	return &SQLiteJournal{pool: pool}, nil
}

// Record appends entry.
func (j *SQLiteJournal) Record(ctx context.Context, entry Entry) error {
	args := []any{
		entry.Time.UnixMilli(),
		entry.InvocationID,
		entry.Kind,
		entry.Name,
		entry.RoomID,
		entry.Developer,
		entry.User,
		boolInt(entry.UserDelivered),
		boolInt(entry.DeveloperDelivered),
	}
	return j.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, insertAlert, &sqlitex.ExecOptions{Args: args})
	})
}

// Recent returns up to limit entries, newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	var entries []Entry
	collect := func(stmt *sqlite.Stmt) error {
		entries = append(entries, Entry{
			ID:                 stmt.ColumnInt64(0),
			Time:               time.UnixMilli(stmt.ColumnInt64(1)).UTC(),
			InvocationID:       stmt.ColumnText(2),
			Kind:               stmt.ColumnText(3),
			Name:               stmt.ColumnText(4),
			RoomID:             stmt.ColumnText(5),
			Developer:          stmt.ColumnText(6),
			User:               stmt.ColumnText(7),
			UserDelivered:      stmt.ColumnInt64(8) != 0,
			DeveloperDelivered: stmt.ColumnInt64(9) != 0,
		})
		return nil
	}
	err := j.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, selectRecent, &sqlitex.ExecOptions{
			Args:       []any{limit},
			ResultFunc: collect,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading alert journal: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (j *SQLiteJournal) Close() error {
	return j.pool.Close()
}

func boolInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}
