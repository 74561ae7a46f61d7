// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// MemoryPath opens a private in-memory database. Every in-memory
// connection is its own database, so such pools hold one connection.
const MemoryPath = ":memory:"

// DefaultPoolSize is used when Config.PoolSize is not positive.
const DefaultPoolSize = 2

var connectionPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

// Config holds the parameters for opening a pool.
type Config struct {
	// Path is the database file, created if missing, or MemoryPath.
	Path string

	// PoolSize is ignored for MemoryPath.
	PoolSize int

	// Logger nil discards open/close messages.
	Logger *slog.Logger

	// Schema runs on every new connection after the pragmas. It must
	// be idempotent (CREATE ... IF NOT EXISTS).
	Schema string
}

// Pool hands out SQLite connections one caller at a time.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open creates the pool. Connections are prepared lazily.
func Open(config Config) (*Pool, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("sqlitepool: Path is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	size := config.PoolSize
	switch {
	case config.Path == MemoryPath:
		size = 1
	case size <= 0:
		size = DefaultPoolSize
	}

	inner, err := sqlitex.NewPool(config.Path, sqlitex.PoolOptions{
		PoolSize: size,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepare(conn, config.Schema)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", config.Path, err)
	}
	logger.Info("sqlite pool opened", "path", config.Path, "pool_size", size)
	return &Pool{inner: inner, logger: logger, path: config.Path}, nil
}

// With borrows a connection for the duration of fn.
func (p *Pool) With(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlitepool: take: %w", err)
	}
	defer p.inner.Put(conn)
	return fn(conn)
}

// Close waits for borrowed connections and closes them all.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error("sqlite pool close error", "path", p.path, "error", err)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Info("sqlite pool closed", "path", p.path)
	return nil
}

func prepare(conn *sqlite.Conn, schema string) error {
	for _, pragma := range connectionPragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}
	if schema == "" {
		return nil
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("sqlitepool: applying schema: %w", err)
	}
	return nil
}
