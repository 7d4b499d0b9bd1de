package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/davidjrh/ToDoFunction/internal/dto"
	"github.com/davidjrh/ToDoFunction/internal/metrics"
	"github.com/davidjrh/ToDoFunction/internal/outcome"
	"github.com/davidjrh/ToDoFunction/internal/service"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	svc service.Todos
	log *slog.Logger
	rec *metrics.Recorder
}

func NewTodoHandler(svc service.Todos, logger *slog.Logger, rec *metrics.Recorder) *TodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoHandler{svc: svc, log: logger.With("component", "http"), rec: rec}
}

// List godoc
// @Summary      List all todos
// @Tags         todos
// @Produce      json
// @Success      200  {array}   dto.TodoResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list", outcome.Describe(err, "retrieve todos"), err)
		return
	}
	h.rec.Observe(metrics.TransportHTTP, "list", outcome.OK)
	c.JSON(http.StatusOK, dto.NewTodoResponses(list))
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.TodoResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, "get", outcome.Describe(err, "retrieve todo"), err)
		return
	}
	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get", outcome.Describe(err, "retrieve todo"), err)
		return
	}
	h.rec.Observe(metrics.TransportHTTP, "get", outcome.OK)
	c.JSON(http.StatusOK, dto.NewTodoResponse(t))
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.TodoResponse
// @Header       201   {string}  Location  "/api/todos/{id}"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		berr := bindError(err)
		h.fail(c, "create", outcome.Describe(berr, "create todo"), berr)
		return
	}

	t, err := h.svc.Create(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		h.fail(c, "create", outcome.Describe(err, "create todo"), err)
		return
	}
	h.rec.Observe(metrics.TransportHTTP, "create", outcome.OK)
	c.Header("Location", fmt.Sprintf("/api/todos/%d", t.ID))
	c.JSON(http.StatusCreated, dto.NewTodoResponse(t))
}

// Update godoc
// @Summary      Update a todo
// @Description  Blank title or description keeps the stored value. completed is always applied.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      int  true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Todo body"
// @Success      200   {object}  dto.TodoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, "update", outcome.Describe(err, "update todo"), err)
		return
	}
	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		berr := bindError(err)
		h.fail(c, "update", outcome.Describe(berr, "update todo"), berr)
		return
	}

	t, err := h.svc.Update(c.Request.Context(), id, req.Title, req.Description, req.Completed)
	if err != nil {
		h.fail(c, "update", outcome.Describe(err, "update todo"), err)
		return
	}
	h.rec.Observe(metrics.TransportHTTP, "update", outcome.OK)
	c.JSON(http.StatusOK, dto.NewTodoResponse(t))
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Param        id   path  int  true  "Todo ID"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.fail(c, "delete", outcome.Describe(err, "delete todo"), err)
		return
	}
	deleted, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "delete", outcome.Describe(err, "delete todo"), err)
		return
	}
	if !deleted {
		h.fail(c, "delete", outcome.Absent(), nil)
		return
	}
	h.rec.Observe(metrics.TransportHTTP, "delete", outcome.OK)
	c.Status(http.StatusNoContent)
}

// fail writes f as an error body. Only Internal failures are logged; their
// details never reach the client.
func (h *TodoHandler) fail(c *gin.Context, op string, f outcome.Failure, err error) {
	if f.Kind == outcome.Internal {
		h.log.ErrorContext(c.Request.Context(), "request failed", "op", op, "error", err)
	}
	h.rec.Observe(metrics.TransportHTTP, op, f.Kind)
	c.JSON(f.Kind.HTTPStatus(), dto.ErrorResponse{Error: f.Message})
}

func parseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, outcome.Malformed("invalid id")
	}
	return id, nil
}
