package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davidjrh/ToDoFunction/internal/cache"
	dom "github.com/davidjrh/ToDoFunction/internal/domain"
	"github.com/davidjrh/ToDoFunction/internal/repo"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*TodoService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	svc := NewTodoService(repo.NewMemTodoRepo(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = clock.now
	return svc, clock
}

// failingRepo fails every call with err.
type failingRepo struct{ err error }

func (f failingRepo) Insert(context.Context, dom.Todo) (int64, error)   { return 0, f.err }
func (f failingRepo) FindByID(context.Context, int64) (dom.Todo, error) { return dom.Todo{}, f.err }
func (f failingRepo) List(context.Context) ([]dom.Todo, error)          { return nil, f.err }
func (f failingRepo) Update(context.Context, dom.Todo) error             { return f.err }
func (f failingRepo) Delete(context.Context, int64) (bool, error)       { return false, f.err }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	a, err := svc.Create(ctx, "Buy milk", "")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "Walk dog", "around the block")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "Buy milk", a.Title)
	assert.Equal(t, "", a.Description)
	assert.False(t, a.Completed)
	assert.Nil(t, a.CompletedAt)
	assert.True(t, a.CreatedAt.Equal(clock.t))
	assert.Equal(t, "around the block", b.Description)
}

func TestCreate_BlankTitle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := svc.Create(ctx, title, "desc")
		assert.ErrorIs(t, err, ErrInvalidArgument, "title %q", title)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, "A", "B")
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, created.Completed, got.Completed)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_ReturnsAllAsStored(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, title, "")
		require.NoError(t, err)
	}
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestUpdate_CompletionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	td, err := svc.Create(ctx, "Write report", "Due Friday")
	require.NoError(t, err)

	clock.advance(time.Minute)
	firstStamp := clock.t
	td, err = svc.Update(ctx, td.ID, "Write report", "Due Friday", true)
	require.NoError(t, err)
	assert.True(t, td.Completed)
	require.NotNil(t, td.CompletedAt)
	assert.True(t, td.CompletedAt.Equal(firstStamp))

	clock.advance(time.Minute)
	td, err = svc.Update(ctx, td.ID, "Write report", "Due Friday", true)
	require.NoError(t, err)
	require.NotNil(t, td.CompletedAt)
	assert.True(t, td.CompletedAt.Equal(firstStamp), "re-completion must not re-stamp")

	clock.advance(time.Minute)
	td, err = svc.Update(ctx, td.ID, "Write report", "Due Friday", false)
	require.NoError(t, err)
	assert.False(t, td.Completed)
	assert.Nil(t, td.CompletedAt)

	clock.advance(time.Minute)
	td, err = svc.Update(ctx, td.ID, "Write report", "Due Friday", true)
	require.NoError(t, err)
	require.NotNil(t, td.CompletedAt)
	assert.True(t, td.CompletedAt.Equal(clock.t))

	stored, err := svc.Get(ctx, td.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, stored.CompletedAt.Equal(clock.t))
}

func TestUpdate_BlankFieldsKeepExisting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	td, err := svc.Create(ctx, "Buy milk", "2 litres")
	require.NoError(t, err)

	got, err := svc.Update(ctx, td.ID, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "2 litres", got.Description)

	got, err = svc.Update(ctx, td.ID, "  ", "\t", false)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "2 litres", got.Description)

	got, err = svc.Update(ctx, td.ID, "Buy oat milk", "1 litre", false)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.Equal(t, "1 litre", got.Description)
}

func TestUpdate_CompletedAlwaysAssigned(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	td, err := svc.Create(ctx, "x", "")
	require.NoError(t, err)
	_, err = svc.Update(ctx, td.ID, "x", "", true)
	require.NoError(t, err)

	// A blank-title update still clears completion.
	got, err := svc.Update(ctx, td.ID, "", "", false)
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
}

func TestUpdate_CreatedAtUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	td, err := svc.Create(ctx, "x", "")
	require.NoError(t, err)
	clock.advance(time.Hour)

	got, err := svc.Update(ctx, td.ID, "y", "z", true)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(td.CreatedAt))
	assert.Equal(t, td.ID, got.ID)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Update(context.Background(), 42, "t", "d", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	ok, err := svc.Delete(ctx, 77)
	require.NoError(t, err)
	assert.False(t, ok, "missing id is a plain false")

	td, err := svc.Create(ctx, "x", "")
	require.NoError(t, err)

	ok, err = svc.Delete(ctx, td.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Get(ctx, td.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	td, err := svc.Create(ctx, "Write report", "Due Friday")
	require.NoError(t, err)
	assert.Equal(t, int64(1), td.ID)
	assert.Equal(t, "Write report", td.Title)
	assert.Equal(t, "Due Friday", td.Description)
	assert.False(t, td.Completed)
	assert.Nil(t, td.CompletedAt)

	clock.advance(time.Second)
	td, err = svc.Update(ctx, 1, "Write report", "", true)
	require.NoError(t, err)
	assert.True(t, td.Completed)
	require.NotNil(t, td.CompletedAt)
	assert.True(t, td.CompletedAt.Equal(clock.t))
	assert.Equal(t, "Due Friday", td.Description)

	ok, err := svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFailuresAreNotDomainErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("store unavailable")
	svc := NewTodoService(failingRepo{err: boom}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Get(ctx, 1)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, "x", "")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Update(ctx, 1, "x", "", true)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Delete(ctx, 1)
	assert.ErrorIs(t, err, boom)
}

func TestList_UsesCacheAndInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewTodoService(repo.NewMemTodoRepo(), cache.NewTodoCache(rdb, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, mr.Exists("todo:list:0"))

	_, err = svc.Create(ctx, "x", "")
	require.NoError(t, err)
	gen, err := mr.Get("todo:list:gen")
	require.NoError(t, err)
	assert.Equal(t, "1", gen, "create must start a new generation")

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestList_CacheDownFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewTodoService(repo.NewMemTodoRepo(), cache.NewTodoCache(rdb, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err = svc.Create(ctx, "x", "")
	require.NoError(t, err)

	mr.Close()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// pausingRepo holds the next List after it has read the store until release
// is closed.
type pausingRepo struct {
	repo.TodoRepo
	pause   atomic.Bool
	listed  chan struct{}
	release chan struct{}
}

func (r *pausingRepo) List(ctx context.Context) ([]dom.Todo, error) {
	list, err := r.TodoRepo.List(ctx)
	if r.pause.CompareAndSwap(true, false) {
		close(r.listed)
		<-r.release
	}
	return list, err
}

func TestList_ReadOverlappingWriteIsNotServedAfterIt(t *testing.T) {
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := &pausingRepo{
		TodoRepo: repo.NewMemTodoRepo(),
		listed:   make(chan struct{}),
		release:  make(chan struct{}),
	}
	svc := NewTodoService(store, cache.NewTodoCache(rdb, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)))

	created, err := svc.Create(ctx, "Write report", "")
	require.NoError(t, err)

	store.pause.Store(true)
	inflight := make(chan []dom.Todo, 1)
	go func() {
		list, _ := svc.List(ctx)
		inflight <- list
	}()

	<-store.listed
	_, err = svc.Update(ctx, created.ID, "", "", true)
	require.NoError(t, err)
	close(store.release)

	old := <-inflight
	require.Len(t, old, 1)
	assert.False(t, old[0].Completed, "the overlapping read saw the store before the write")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Completed)
	assert.NotNil(t, list[0].CompletedAt)
}

// microsecondRepo keeps timestamps at microsecond precision, as TIMESTAMPTZ does.
type microsecondRepo struct{ repo.TodoRepo }

func truncate(t dom.Todo) dom.Todo {
	t.CreatedAt = t.CreatedAt.Truncate(time.Microsecond)
	if t.CompletedAt != nil {
		at := t.CompletedAt.Truncate(time.Microsecond)
		t.CompletedAt = &at
	}
	return t
}

func (r microsecondRepo) Insert(ctx context.Context, t dom.Todo) (int64, error) {
	return r.TodoRepo.Insert(ctx, truncate(t))
}

func (r microsecondRepo) Update(ctx context.Context, t dom.Todo) error {
	return r.TodoRepo.Update(ctx, truncate(t))
}

func TestTimestampsRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 5, 4, 10, 0, 0, 123456789, time.UTC)}
	svc := NewTodoService(microsecondRepo{repo.NewMemTodoRepo()}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = clock.now

	created, err := svc.Create(ctx, "A", "B")
	require.NoError(t, err)
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt), "created %v, stored %v", created.CreatedAt, got.CreatedAt)

	clock.advance(time.Second + 987*time.Nanosecond)
	updated, err := svc.Update(ctx, created.ID, "", "", true)
	require.NoError(t, err)
	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(*updated.CompletedAt))
}
