package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	dom "github.com/davidjrh/ToDoFunction/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyGeneration = "todo:list:gen"
	keyListPrefix = "todo:list:"
)

// TodoCache caches the full todo list in Redis. Entries are keyed by a
// generation counter that every write bumps, so a list read before a write
// can only ever be stored under a generation nobody reads any more.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

func listKey(gen int64) string {
	return keyListPrefix + strconv.FormatInt(gen, 10)
}

// Generation returns the current list generation. Read it before loading the
// list from the store and pass it to GetList and SetList.
func (c *TodoCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyGeneration).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetList returns the list cached for gen. ok is false on a miss.
func (c *TodoCache) GetList(ctx context.Context, gen int64) (list []dom.Todo, ok bool, err error) {
	b, err := c.rdb.Get(ctx, listKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, false, err
	}
	if list == nil {
		list = []dom.Todo{}
	}
	return list, true, nil
}

// SetList stores the list for gen.
func (c *TodoCache) SetList(ctx context.Context, gen int64, list []dom.Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(gen), b, c.ttl).Err()
}

// Invalidate starts a new generation after a write. Older entries are left
// to expire.
func (c *TodoCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, keyGeneration).Err()
}
