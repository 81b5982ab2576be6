package task

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQL dialects understood by SQLStore. The caller registers the driver.
const (
	DialectSQLite = "sqlite3"
	DialectMySQL  = "mysql"
)

var createTableSQL = map[string]string{
	DialectSQLite: `CREATE TABLE IF NOT EXISTS tasks (
		position   INTEGER PRIMARY KEY,
		text       TEXT NOT NULL,
		completed  BOOLEAN NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	DialectMySQL: `CREATE TABLE IF NOT EXISTS tasks (
		position   INT PRIMARY KEY,
		text       TEXT NOT NULL,
		completed  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at VARCHAR(40) NOT NULL
	)`,
}

// SQLStore is a database/sql Persister for SQLite and MySQL.
// created_at is kept in its RFC 3339 text form.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// OpenSQLStore opens dsn with the given dialect's driver and ensures the
// tasks table exists.
func OpenSQLStore(ctx context.Context, dialect, dsn string) (*SQLStore, error) {
	ddl, ok := createTableSQL[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tasks table: %w", err)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// Load returns all tasks ordered by position.
func (s *SQLStore) Load(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT text, completed, created_at FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var t Task
		var createdAt string
		if err := rows.Scan(&t.Text, &t.Completed, &createdAt); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = ParseTimestamp(createdAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLStore) Save(ctx context.Context, tasks []Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks (position, text, completed, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, t := range tasks {
		if _, err := stmt.ExecContext(ctx, i, t.Text, t.Completed, t.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert task %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tasks: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
