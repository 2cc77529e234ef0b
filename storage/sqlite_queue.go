package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteQueue keeps the frontier on disk so an interrupted crawl can be
// resumed by running again against the same database.
type SQLiteQueue struct {
	db *sql.DB
}

type SQLiteQueueOptions struct {
	DBPath string
}

func NewSQLiteQueue(opts SQLiteQueueOptions) (*SQLiteQueue, error) {
	if opts.DBPath == "" {
		opts.DBPath = "./data/frontier.db"
	}

	dbDir := filepath.Dir(opts.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", opts.DBPath+"?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	q := &SQLiteQueue{db: db}

	if err := q.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return q, nil
}

func (q *SQLiteQueue) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS frontier (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		parent TEXT NOT NULL DEFAULT '',
		added_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS visited (
		unique_key TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		visited_at DATETIME NOT NULL
	);
	`

	if _, err := q.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

func (q *SQLiteQueue) Enqueue(ctx context.Context, t Target) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO frontier (url, depth, parent, added_at) VALUES (?, ?, ?, ?)`,
		t.URL, t.Depth, t.Parent, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert target: %w", err)
	}
	return nil
}

func (q *SQLiteQueue) DequeueBatch(ctx context.Context, n int) ([]Target, error) {
	if n < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", n)
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT seq, url, depth, parent FROM frontier ORDER BY seq ASC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch: %w", err)
	}

	batch := make([]Target, 0, n)
	var lastSeq int64
	for rows.Next() {
		var t Target
		if err := rows.Scan(&lastSeq, &t.URL, &t.Depth, &t.Parent); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		batch = append(batch, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}
	rows.Close()

	if len(batch) == 0 {
		return batch, nil
	}

	// The batch is a prefix of the queue, so everything up to lastSeq goes.
	if _, err := tx.ExecContext(ctx, `DELETE FROM frontier WHERE seq <= ?`, lastSeq); err != nil {
		return nil, fmt.Errorf("failed to remove batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return batch, nil
}

func (q *SQLiteQueue) MarkVisited(ctx context.Context, u string) (bool, error) {
	key, err := normalizeURL(u)
	if err != nil {
		return false, fmt.Errorf("failed to normalize URL: %w", err)
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO visited (unique_key, url, visited_at) VALUES (?, ?, ?)`,
		key, u, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark visited: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

func (q *SQLiteQueue) Len(ctx context.Context) (int, error) {
	var count int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM frontier`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending targets: %w", err)
	}
	return count, nil
}

func (q *SQLiteQueue) Visited(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT unique_key FROM visited ORDER BY unique_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query visited: %w", err)
	}
	defer rows.Close()

	urls := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		urls = append(urls, key)
	}

	return urls, rows.Err()
}

func (q *SQLiteQueue) Close() error {
	return q.db.Close()
}
