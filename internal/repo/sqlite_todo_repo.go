package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dom "github.com/davidjrh/ToDoFunction/internal/domain"
)

// SQLiteTodoRepo stores todos in SQLite through database/sql. Timestamps are
// kept as unix nanoseconds so they round-trip without loss.
type SQLiteTodoRepo struct {
	db *sql.DB
}

func NewSQLiteTodoRepo(db *sql.DB) *SQLiteTodoRepo {
	return &SQLiteTodoRepo{db: db}
}

func (r *SQLiteTodoRepo) Insert(ctx context.Context, t dom.Todo) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (title, description, completed, created_at, completed_at) VALUES (?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.Completed, toNanos(t.CreatedAt), nullableNanos(t.CompletedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteTodoRepo) FindByID(ctx context.Context, id int64) (dom.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, completed, created_at, completed_at FROM todos WHERE id = ?`, id)
	t, err := scanSQLiteTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dom.Todo{}, ErrNotFound
	}
	return t, err
}

func (r *SQLiteTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, completed, created_at, completed_at FROM todos ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		t, err := scanSQLiteTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *SQLiteTodoRepo) Update(ctx context.Context, t dom.Todo) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE todos SET title = ?, description = ?, completed = ?, completed_at = ? WHERE id = ?`,
		t.Title, t.Description, t.Completed, nullableNanos(t.CompletedAt), t.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteTodoRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTodo(row rowScanner) (dom.Todo, error) {
	var (
		t           dom.Todo
		createdAt   int64
		completedAt sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &createdAt, &completedAt); err != nil {
		return dom.Todo{}, err
	}
	t.CreatedAt = fromNanos(createdAt)
	if completedAt.Valid {
		at := fromNanos(completedAt.Int64)
		t.CompletedAt = &at
	}
	return t, nil
}

func toNanos(v time.Time) int64 {
	return v.UTC().UnixNano()
}

func fromNanos(v int64) time.Time {
	return time.Unix(0, v).UTC()
}

func nullableNanos(v *time.Time) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toNanos(*v), Valid: true}
}
