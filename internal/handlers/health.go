package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/davidjrh/ToDoFunction/internal/dto"

	"github.com/gin-gonic/gin"
)

// MetaHandler serves the service descriptor, health and version routes.
type MetaHandler struct {
	log     *slog.Logger
	version string
	env     string
	now     func() time.Time
}

func NewMetaHandler(logger *slog.Logger, version, env string) *MetaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetaHandler{
		log:     logger.With("component", "http"),
		version: version,
		env:     env,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Health always succeeds while the process can serve requests.
func (h *MetaHandler) Health(c *gin.Context) {
	h.log.InfoContext(c.Request.Context(), "health check requested")
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "healthy",
		Timestamp: h.now(),
		Message:   "TODO API is running",
	})
}

func (h *MetaHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Todo API",
		"version": h.version,
		"env":     h.env,
		"docs":    "/swagger/index.html",
		"spec":    "/swagger-doc.json",
		"health":  "/health",
		"api":     "/api/todos",
	})
}

func (h *MetaHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}
