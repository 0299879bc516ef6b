package chunkstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"voxelmine.ai/internal/sim/world/chunk"
)

type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			cx INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			data BLOB NOT NULL,
			size_bytes INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (cx, cz)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key chunk.Key) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM chunks WHERE cx = ? AND cz = ?`, key.CX, key.CZ).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *SQLite) Put(ctx context.Context, key chunk.Key, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks(cx, cz, data, size_bytes, updated_at) VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(cx, cz) DO UPDATE SET data = excluded.data, size_bytes = excluded.size_bytes, updated_at = excluded.updated_at`,
		key.CX, key.CZ, data, len(data), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLite) Keys(ctx context.Context) ([]chunk.Key, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cx, cz FROM chunks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []chunk.Key
	for rows.Next() {
		var k chunk.Key
		if err := rows.Scan(&k.CX, &k.CZ); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// DB exposes the handle for read-only tooling.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Close() error { return s.db.Close() }
