package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (creating if needed) the database at dbPath, applies the
// schema policy of RunMigrations and returns the four collections over it.
func OpenSQLite(dbPath string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	reset, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite database ready", "path", dbPath, "schema_version", SchemaVersion, "schema_reset", reset)

	return &Backend{
		Transactions: newSQLTable(db, Transactions),
		Categories:   newSQLTable(db, Categories),
		Limits:       newSQLTable(db, Limits),
		Goals:        newSQLTable(db, Goals),
		SchemaReset:  reset,
		Close:        db.Close,
	}, nil
}

type sqlTable[T any] struct {
	db   *sql.DB
	kind Kind[T]

	selectSQL  string
	insertSQL  string
	replaceSQL string
}

func newSQLTable[T any](db *sql.DB, kind Kind[T]) *sqlTable[T] {
	cols := strings.Join(kind.Columns, ", ")
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(kind.Columns)), ", ")
	return &sqlTable[T]{
		db:         db,
		kind:       kind,
		selectSQL:  fmt.Sprintf("SELECT id, %s FROM %s", cols, kind.Table),
		insertSQL:  fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", kind.Table, cols, marks),
		replaceSQL: fmt.Sprintf("INSERT OR REPLACE INTO %s (id, %s) VALUES (?, %s)", kind.Table, cols, marks),
	}
}

func (t *sqlTable[T]) Insert(ctx context.Context, rec T) (int64, error) {
	rec = t.kind.Normalize(rec)
	if id := t.kind.ID(rec); id > 0 {
		if err := t.replace(ctx, id, rec); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := t.db.ExecContext(ctx, t.insertSQL, t.kind.Values(rec)...)
	if err != nil {
		return 0, wrap("insert "+t.kind.Table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrap("insert "+t.kind.Table, err)
	}
	return id, nil
}

func (t *sqlTable[T]) Update(ctx context.Context, rec T) error {
	id := t.kind.ID(rec)
	if id <= 0 {
		return ErrNotFound
	}
	return t.replace(ctx, id, t.kind.Normalize(rec))
}

func (t *sqlTable[T]) replace(ctx context.Context, id int64, rec T) error {
	args := append([]any{id}, t.kind.Values(rec)...)
	if _, err := t.db.ExecContext(ctx, t.replaceSQL, args...); err != nil {
		return wrap("replace "+t.kind.Table, err)
	}
	return nil
}

func (t *sqlTable[T]) Delete(ctx context.Context, id int64) error {
	_, err := t.db.ExecContext(ctx, "DELETE FROM "+t.kind.Table+" WHERE id = ?", id)
	return wrap("delete "+t.kind.Table, err)
}

func (t *sqlTable[T]) Get(ctx context.Context, id int64) (T, error) {
	row := t.db.QueryRowContext(ctx, t.selectSQL+" WHERE id = ?", id)
	rec, err := t.kind.Scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, wrap("get "+t.kind.Table, err)
	}
	return rec, nil
}

func (t *sqlTable[T]) List(ctx context.Context) ([]T, error) {
	return t.query(ctx, "list "+t.kind.Table, t.selectSQL+" ORDER BY "+t.kind.OrderBy)
}

func (t *sqlTable[T]) Find(ctx context.Context, q Query[T]) ([]T, error) {
	stmt := t.selectSQL
	if q.Where != "" {
		stmt += " WHERE " + q.Where
	}
	return t.query(ctx, "find "+t.kind.Table, stmt+" ORDER BY "+t.kind.OrderBy, q.Args...)
}

func (t *sqlTable[T]) Clear(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, "DELETE FROM "+t.kind.Table)
	return wrap("clear "+t.kind.Table, err)
}

func (t *sqlTable[T]) query(ctx context.Context, op, stmt string, args ...any) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		rec, err := t.kind.Scan(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}
