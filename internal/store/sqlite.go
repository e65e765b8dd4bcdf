package store

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    _ "modernc.org/sqlite"
)

// SQLite keeps snapshots in a single-file database. Default backend: no
// server to run and the file survives restarts.
type SQLite struct {
    db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
    if path == "" {
        path = "data/gateway.db"
    }
    if dir := filepath.Dir(path); dir != "." {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return nil, fmt.Errorf("create db dir: %w", err)
        }
    }
    db, err := sql.Open("sqlite", path)
    if err != nil {
        return nil, fmt.Errorf("open sqlite: %w", err)
    }
    if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("pragma wal: %w", err)
    }
    if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("pragma busy_timeout: %w", err)
    }
    if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
        namespace TEXT PRIMARY KEY,
        data      BLOB NOT NULL,
        saved_at  INTEGER NOT NULL
    );`); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("migrate snapshots: %w", err)
    }
    return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context, namespace string) ([]byte, error) {
    var data []byte
    err := s.db.QueryRowContext(ctx,
        "SELECT data FROM snapshots WHERE namespace = ?", namespace).Scan(&data)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, fmt.Errorf("load snapshot %q: %w", namespace, err)
    }
    return data, nil
}

func (s *SQLite) Save(ctx context.Context, namespace string, data []byte) error {
    _, err := s.db.ExecContext(ctx,
        `INSERT INTO snapshots (namespace, data, saved_at) VALUES (?, ?, ?)
         ON CONFLICT(namespace) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
        namespace, data, time.Now().Unix())
    if err != nil {
        return fmt.Errorf("save snapshot %q: %w", namespace, err)
    }
    return nil
}

func (s *SQLite) Close() error {
    if s == nil || s.db == nil {
        return nil
    }
    return s.db.Close()
}
