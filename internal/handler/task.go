// Package handler exposes the planner engine over a JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nhle/planner/internal/engine"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/pkg/respond"
)

// Engine is the subset of *engine.Engine the API drives.
type Engine interface {
	Snapshot() engine.Snapshot
	Load(ctx context.Context) error
	CreateTask(ctx context.Context, name string) (int64, error)
	RenameTask(ctx context.Context, id int64, name string) error
	DeleteTask(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status model.Status) error
	SetDeadline(ctx context.Context, id int64, deadline *time.Time) error
	SelectTask(ctx context.Context, id int64) error
	AddItem(ctx context.Context, text string) error
	AddItemTo(ctx context.Context, taskID int64, text string) error
	ToggleItem(ctx context.Context, itemID int64) error
	DeleteItem(ctx context.Context, itemID int64) error
}

type TaskHandler struct {
	engine Engine
	logger *zap.Logger
}

func NewTaskHandler(e Engine, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{
		engine: e,
		logger: logger.Named("http"),
	}
}

// Routes mounts the task and item endpoints.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/snapshot", h.Snapshot)

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Patch("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
		r.Post("/{id}/select", h.SelectTask)
	})

	r.Route("/items", func(r chi.Router) {
		r.Post("/", h.AddItem)
		r.Post("/{id}/toggle", h.ToggleItem)
		r.Delete("/{id}", h.DeleteItem)
	})
}

func (h *TaskHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Load(r.Context()); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, h.engine.Snapshot())
}

type createTaskRequest struct {
	Name string `json:"name"`
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.engine.CreateTask(r.Context(), req.Name)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", id))
	respond.JSON(w, r, http.StatusCreated, h.engine.Snapshot())
}

// updateTaskRequest carries optional fields. Deadline distinguishes an
// absent key from an explicit null, which clears the deadline.
type updateTaskRequest struct {
	Name     *string         `json:"name"`
	Status   *string         `json:"status"`
	Deadline json.RawMessage `json:"deadline"`
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()

	if req.Name != nil {
		if err := h.engine.RenameTask(ctx, id, *req.Name); err != nil {
			h.handleErrors(w, r, err)
			return
		}
	}

	if len(req.Deadline) > 0 {
		deadline, err := parseDeadline(req.Deadline)
		if err != nil {
			respond.Error(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.engine.SetDeadline(ctx, id, deadline); err != nil {
			h.handleErrors(w, r, err)
			return
		}
	}

	if req.Status != nil {
		if err := h.engine.SetStatus(ctx, id, model.Status(*req.Status)); err != nil {
			h.handleErrors(w, r, err)
			return
		}
	}

	respond.JSON(w, r, http.StatusOK, h.engine.Snapshot())
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.engine.DeleteTask(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.NoContent(w, r)
}

func (h *TaskHandler) SelectTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.engine.SelectTask(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	snap := h.engine.Snapshot()
	if snap.SelectedID != id {
		respond.Error(w, r, http.StatusNotFound, "not found")
		return
	}
	respond.JSON(w, r, http.StatusOK, snap)
}

type addItemRequest struct {
	// TaskID targets a task other than the selected one when set.
	TaskID int64  `json:"task_id"`
	Text   string `json:"text"`
}

func (h *TaskHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	var err error
	if req.TaskID != 0 {
		err = h.engine.AddItemTo(ctx, req.TaskID, req.Text)
	} else {
		err = h.engine.AddItem(ctx, req.Text)
	}
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, h.engine.Snapshot())
}

func (h *TaskHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.engine.ToggleItem(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, h.engine.Snapshot())
}

func (h *TaskHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.engine.DeleteItem(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.NoContent(w, r)
}

func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return false
	}
	return true
}

func (h *TaskHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, r, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	default:
		h.logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}

func parseDeadline(raw json.RawMessage) (*time.Time, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("deadline must be an RFC 3339 string or null")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline: %v", err)
	}
	return &t, nil
}
