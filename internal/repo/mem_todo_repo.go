package repo

import (
	"context"
	"sort"
	"sync"

	dom "github.com/davidjrh/ToDoFunction/internal/domain"
)

// MemTodoRepo keeps todos in process memory. Ids come from a counter that
// only grows, so a deleted id is never handed out again.
type MemTodoRepo struct {
	mu     sync.RWMutex
	lastID int64
	items  map[int64]dom.Todo
}

func NewMemTodoRepo() *MemTodoRepo {
	return &MemTodoRepo{items: make(map[int64]dom.Todo)}
}

func (r *MemTodoRepo) Insert(ctx context.Context, t dom.Todo) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	t.ID = r.lastID
	r.items[t.ID] = clone(t)
	return t.ID, nil
}

func (r *MemTodoRepo) FindByID(ctx context.Context, id int64) (dom.Todo, error) {
	if err := ctx.Err(); err != nil {
		return dom.Todo{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[id]
	if !ok {
		return dom.Todo{}, ErrNotFound
	}
	return clone(t), nil
}

// List returns todos ordered by id.
func (r *MemTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	list := make([]dom.Todo, 0, len(r.items))
	for _, t := range r.items {
		list = append(list, clone(t))
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *MemTodoRepo) Update(ctx context.Context, t dom.Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[t.ID]; !ok {
		return ErrNotFound
	}
	r.items[t.ID] = clone(t)
	return nil
}

func (r *MemTodoRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

// clone detaches CompletedAt so callers cannot mutate stored state.
func clone(t dom.Todo) dom.Todo {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
