package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/davidjrh/ToDoFunction/internal/cache"
	"github.com/davidjrh/ToDoFunction/internal/config"
	"github.com/davidjrh/ToDoFunction/internal/handlers"
	"github.com/davidjrh/ToDoFunction/internal/metrics"
	"github.com/davidjrh/ToDoFunction/internal/middleware"
	"github.com/davidjrh/ToDoFunction/internal/repo"
	"github.com/davidjrh/ToDoFunction/internal/service"
	"github.com/davidjrh/ToDoFunction/internal/tools"
	"github.com/davidjrh/ToDoFunction/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

type App struct {
	cfg     config.Config
	log     *slog.Logger
	pg      *pgxpool.Pool
	sqlite  *sql.DB
	redis   *redis.Client
	metrics *metrics.Recorder
	todos   *service.TodoService
	tools   *mcp.Server
	router  *gin.Engine
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, log: logger, metrics: metrics.New()}

	store, err := a.newStore(ctx)
	if err != nil {
		return nil, err
	}

	var todoCache *cache.TodoCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.redis = rdb
		todoCache = cache.NewTodoCache(rdb, cfg.Redis.DefaultTTL.Duration())
	}

	if err := handlers.RegisterValidators(); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.todos = service.NewTodoService(store, todoCache, logger)
	a.tools = tools.NewServer(a.todos, logger, a.metrics, cfg.App.Version)
	a.router = a.newRouter()
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// ToolServer returns the MCP server backed by the same service as the router.
func (a *App) ToolServer() *mcp.Server {
	return a.tools
}

// Close releases the store and cache connections. pgxpool waits for
// acquired connections to be returned, so ctx bounds the wait; on expiry the
// closes continue in the background and ctx.Err() is returned.
func (a *App) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		var errs []error
		if a.redis != nil {
			errs = append(errs, a.redis.Close())
		}
		if a.sqlite != nil {
			errs = append(errs, a.sqlite.Close())
		}
		if a.pg != nil {
			a.pg.Close()
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) newStore(ctx context.Context) (repo.TodoRepo, error) {
	switch a.cfg.Store.Driver {
	case config.DriverPostgres:
		if err := runPostgresMigrations(a.cfg.PG.DSN); err != nil {
			return nil, err
		}
		pool, err := newPostgres(ctx, a.cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		a.pg = pool
		a.log.Info("using postgres store")
		return repo.NewPGTodoRepo(pool), nil
	case config.DriverSQLite:
		db, err := newSQLite(a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.sqlite = db
		a.log.Info("using sqlite store", "path", a.cfg.Store.SQLitePath)
		return repo.NewSQLiteTodoRepo(db), nil
	default:
		a.log.Info("using in-memory store")
		return repo.NewMemTodoRepo(), nil
	}
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return pool, nil
}

func runPostgresMigrations(dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()
	return migrations.Up(db, migrations.Postgres)
}

func newSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One writer at a time; avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	if err := migrations.Up(db, migrations.SQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (a *App) newRouter() *gin.Engine {
	if a.cfg.App.Env == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(a.log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Mcp-Session-Id", "Mcp-Protocol-Version"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "Location", "Mcp-Session-Id"},
		MaxAge:        12 * time.Hour,
	}))

	var limit []gin.HandlerFunc
	if l := middleware.NewLimiter(a.cfg.HTTP.RateLimitRPS, a.cfg.HTTP.RateLimitBurst, 10*time.Minute); l != nil {
		limit = append(limit, middleware.RateLimit(l))
	}

	Setup(r, a.cfg, a.log, a.todos, a.metrics, a.tools, limit...)
	return r
}
