package repo

import (
	"context"
	"errors"

	dom "github.com/davidjrh/ToDoFunction/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgTodoColumns = `id, title, description, completed, created_at, completed_at`

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) Insert(ctx context.Context, t dom.Todo) (int64, error) {
	query := `
		INSERT INTO todos (title, description, completed, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query, t.Title, t.Description, t.Completed, t.CreatedAt, t.CompletedAt).Scan(&id)
	return id, err
}

func (r *PGTodoRepo) FindByID(ctx context.Context, id int64) (dom.Todo, error) {
	query := `SELECT ` + pgTodoColumns + ` FROM todos WHERE id = $1`
	t, err := scanTodo(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Todo{}, ErrNotFound
	}
	return t, err
}

func (r *PGTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	query := `SELECT ` + pgTodoColumns + ` FROM todos ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) Update(ctx context.Context, t dom.Todo) error {
	query := `
		UPDATE todos SET title = $2, description = $3, completed = $4, completed_at = $5
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, t.ID, t.Title, t.Description, t.Completed, t.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGTodoRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanTodo(row pgx.Row) (dom.Todo, error) {
	var t dom.Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return dom.Todo{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if t.CompletedAt != nil {
		at := t.CompletedAt.UTC()
		t.CompletedAt = &at
	}
	return t, nil
}
