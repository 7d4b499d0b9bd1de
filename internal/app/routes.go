package app

import (
	"log/slog"
	"net/http"

	"github.com/davidjrh/ToDoFunction/internal/config"
	"github.com/davidjrh/ToDoFunction/internal/handlers"
	"github.com/davidjrh/ToDoFunction/internal/metrics"
	"github.com/davidjrh/ToDoFunction/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine. toolServer may be nil, in
// which case the MCP endpoint is not mounted. limit guards the todo API and
// the MCP endpoint only; health, metrics and docs stay reachable.
func Setup(r *gin.Engine, cfg config.Config, logger *slog.Logger, todos service.Todos, rec *metrics.Recorder, toolServer *mcp.Server, limit ...gin.HandlerFunc) {
	meta := handlers.NewMetaHandler(logger, cfg.App.Version, cfg.App.Env)
	r.GET("/", meta.Root)
	r.GET("/health", meta.Health)
	r.GET("/version", meta.Version)
	r.GET("/metrics", gin.WrapH(rec.Handler()))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	api := r.Group("/api", limit...)
	registerTodoRoutes(api, handlers.NewTodoHandler(todos, logger, rec))

	if cfg.MCP.Enabled && toolServer != nil {
		registerToolRoutes(r, cfg.MCP.Path, toolServer, limit...)
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTodoRoutes(api *gin.RouterGroup, h *handlers.TodoHandler) {
	api.GET("/todos", h.List)
	api.GET("/todos/:id", h.GetByID)
	api.POST("/todos", h.Create)
	api.PUT("/todos/:id", h.Update)
	api.DELETE("/todos/:id", h.Delete)
}

// registerToolRoutes mounts the streamable MCP transport. The SDK handler
// dispatches on method itself, so every verb goes to it.
func registerToolRoutes(r *gin.Engine, path string, srv *mcp.Server, limit ...gin.HandlerFunc) {
	h := gin.WrapH(mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))
	r.Any(path, append(limit, h)...)
}
