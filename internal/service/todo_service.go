package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/davidjrh/ToDoFunction/internal/cache"
	dom "github.com/davidjrh/ToDoFunction/internal/domain"
	"github.com/davidjrh/ToDoFunction/internal/repo"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound        = errors.New("todo not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Todos is the capability both front ends are written against.
type Todos interface {
	List(ctx context.Context) ([]dom.Todo, error)
	Get(ctx context.Context, id int64) (dom.Todo, error)
	Create(ctx context.Context, title, description string) (dom.Todo, error)
	Update(ctx context.Context, id int64, title, description string, completed bool) (dom.Todo, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

var _ Todos = (*TodoService)(nil)

// TodoService owns todo validation and the completion lifecycle. It holds no
// state between calls besides the optional list cache.
type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	sf    singleflight.Group
	log   *slog.Logger
	now   func() time.Time
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache, logger *slog.Logger) *TodoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoService{
		repo:  r,
		cache: c,
		log:   logger.With("component", "todo_service"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// List returns every stored todo, unfiltered and unsorted by the service.
func (s *TodoService) List(ctx context.Context) ([]dom.Todo, error) {
	s.log.InfoContext(ctx, "listing todos")
	if s.cache == nil {
		return s.list(ctx)
	}
	// The generation is read before the store so a list loaded ahead of a
	// concurrent write is only ever cached under the superseded generation.
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "todo cache read failed", "error", err)
		return s.list(ctx)
	}
	v, err, _ := s.sf.Do("list:"+strconv.FormatInt(gen, 10), func() (interface{}, error) {
		list, ok, err := s.cache.GetList(ctx, gen)
		if err != nil {
			s.log.WarnContext(ctx, "todo cache read failed", "error", err)
		}
		if ok {
			return list, nil
		}
		list, err = s.list(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetList(ctx, gen, list); err != nil {
			s.log.WarnContext(ctx, "todo cache write failed", "error", err)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

func (s *TodoService) list(ctx context.Context) ([]dom.Todo, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "list todos failed", "error", err)
		return nil, fmt.Errorf("list todos: %w", err)
	}
	if list == nil {
		list = []dom.Todo{}
	}
	return list, nil
}

func (s *TodoService) Get(ctx context.Context, id int64) (dom.Todo, error) {
	s.log.InfoContext(ctx, "getting todo", "id", id)
	return s.find(ctx, id)
}

func (s *TodoService) Create(ctx context.Context, title, description string) (dom.Todo, error) {
	s.log.InfoContext(ctx, "creating todo", "title", title)
	if strings.TrimSpace(title) == "" {
		return dom.Todo{}, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}

	t := dom.Todo{
		Title:       title,
		Description: description,
		CreatedAt:   s.stamp(),
	}
	id, err := s.repo.Insert(ctx, t)
	if err != nil {
		s.log.ErrorContext(ctx, "create todo failed", "error", err)
		return dom.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	t.ID = id
	s.invalidateCache(ctx)
	s.log.InfoContext(ctx, "created todo", "id", id)
	return t, nil
}

// Update applies a partial overwrite: a blank title or description keeps the
// stored value, completed is always taken from the caller.
func (s *TodoService) Update(ctx context.Context, id int64, title, description string, completed bool) (dom.Todo, error) {
	s.log.InfoContext(ctx, "updating todo", "id", id)
	t, err := s.find(ctx, id)
	if err != nil {
		return dom.Todo{}, err
	}

	if strings.TrimSpace(title) != "" {
		t.Title = title
	}
	if strings.TrimSpace(description) != "" {
		t.Description = description
	}
	t.SetCompleted(completed, s.stamp())

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.Todo{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		s.log.ErrorContext(ctx, "update todo failed", "id", id, "error", err)
		return dom.Todo{}, fmt.Errorf("update todo %d: %w", id, err)
	}
	s.invalidateCache(ctx)
	s.log.InfoContext(ctx, "updated todo", "id", id)
	return t, nil
}

// Delete reports whether a todo was removed. A missing id is not an error.
func (s *TodoService) Delete(ctx context.Context, id int64) (bool, error) {
	s.log.InfoContext(ctx, "deleting todo", "id", id)
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "delete todo failed", "id", id, "error", err)
		return false, fmt.Errorf("delete todo %d: %w", id, err)
	}
	if ok {
		s.invalidateCache(ctx)
		s.log.InfoContext(ctx, "deleted todo", "id", id)
	}
	return ok, nil
}

func (s *TodoService) find(ctx context.Context, id int64) (dom.Todo, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.Todo{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		s.log.ErrorContext(ctx, "find todo failed", "id", id, "error", err)
		return dom.Todo{}, fmt.Errorf("find todo %d: %w", id, err)
	}
	return t, nil
}

// stamp is the current time at the precision every store keeps, so a
// returned record equals the one read back later.
func (s *TodoService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *TodoService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WarnContext(ctx, "todo cache invalidation failed", "error", err)
	}
}
