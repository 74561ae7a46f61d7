// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const testSchema = `CREATE TABLE IF NOT EXISTS entries (message TEXT NOT NULL);`

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("Open accepted an empty path")
	}
}

func insertAndRead(t *testing.T, pool *Pool, message string) string {
	t.Helper()
	var got string
	err := pool.With(context.Background(), func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, "INSERT INTO entries (message) VALUES (?)", &sqlitex.ExecOptions{
			Args: []any{message},
		}); err != nil {
			return err
		}
		return sqlitex.Execute(conn, "SELECT message FROM entries ORDER BY rowid DESC LIMIT 1", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				got = stmt.ColumnText(0)
				return nil
			},
		})
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	return got
}

func TestSchemaAppliedOnFile(t *testing.T) {
	pool, err := Open(Config{Path: filepath.Join(t.TempDir(), "journal.db"), Schema: testSchema})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if got := insertAndRead(t, pool, "first"); got != "first" {
		t.Errorf("message = %q, want first", got)
	}
}

func TestMemoryPoolKeepsOneDatabase(t *testing.T) {
	pool, err := Open(Config{Path: MemoryPath, PoolSize: 4, Schema: testSchema})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	insertAndRead(t, pool, "one")
	var count int64
	err = pool.With(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT count(*) FROM entries", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt64(0)
				return nil
			},
		})
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestWithReturnsCallbackError(t *testing.T) {
	pool, err := Open(Config{Path: MemoryPath})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	sentinel := errors.New("boom")
	if err := pool.With(context.Background(), func(*sqlite.Conn) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("With = %v, want %v", err, sentinel)
	}
}
