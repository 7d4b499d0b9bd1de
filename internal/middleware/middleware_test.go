package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/api/todos/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/todos/5", nil))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/api/todos/5")
	assert.Contains(t, out, "status=404")
}

func TestLimiterNilAllows(t *testing.T) {
	l := NewLimiter(0, 10, 0)
	require.Nil(t, l)
	assert.True(t, l.Allow("1.2.3.4", time.Now()))
}

func TestLimiterBurstAndRefill(t *testing.T) {
	l := NewLimiter(1, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, l.Allow("a", now))
	assert.True(t, l.Allow("a", now))
	assert.False(t, l.Allow("a", now))
	assert.True(t, l.Allow("b", now), "keys are independent")

	assert.True(t, l.Allow("a", now.Add(time.Second)))
}

func TestLimiterEvictsIdle(t *testing.T) {
	l := NewLimiter(100, 100, time.Minute)
	start := time.Unix(1_700_000_000, 0)
	l.Allow("stale", start)

	later := start.Add(2 * time.Minute)
	for i := 0; i < evictEvery; i++ {
		l.Allow("k"+strconv.Itoa(i%4), later)
	}
	assert.Equal(t, 4, l.size())
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewLimiter(0.001, 1, time.Minute)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, second.Body.String())
}
