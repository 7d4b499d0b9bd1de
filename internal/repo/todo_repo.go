package repo

import (
	"context"
	"errors"

	dom "github.com/davidjrh/ToDoFunction/internal/domain"
)

// ErrNotFound is returned by FindByID and Update when no record has the id.
var ErrNotFound = errors.New("record not found")

// TodoRepo is the record collection behind the todo service. Each call is
// atomic for its own record; nothing spans calls.
type TodoRepo interface {
	// Insert stores t and returns the id assigned to it. t.ID is ignored.
	Insert(ctx context.Context, t dom.Todo) (int64, error)
	FindByID(ctx context.Context, id int64) (dom.Todo, error)
	List(ctx context.Context) ([]dom.Todo, error)
	// Update overwrites the record with t.ID.
	Update(ctx context.Context, t dom.Todo) error
	// Delete reports whether a record existed and was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}
