package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/slok/todochat/internal/app/task"
	"github.com/slok/todochat/internal/app/tasklist"
	"github.com/slok/todochat/internal/auth"
	"github.com/slok/todochat/internal/model"
)

const defaultTaskListLimit = 50

type taskResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type taskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type taskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type taskCompleteRequest struct {
	Completed *bool `json:"completed"`
}

type messageBody struct {
	Message string `json:"message"`
}

func newTaskResponse(t model.Task) taskResponse {
	var desc *string
	if t.Description != "" {
		desc = &t.Description
	}

	return taskResponse{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: desc,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (h handler) handleTaskList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.OwnerFromContext(ctx)

	req := tasklist.Request{OwnerID: owner, Limit: defaultTaskListLimit}
	q := r.URL.Query()
	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid completed filter")
			return
		}
		req.Completed = &completed
	}
	for name, dst := range map[string]*int{"offset": &req.Offset, "limit": &req.Limit} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = n
	}

	tasks, err := h.taskList.Run(ctx, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h handler) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.OwnerFromContext(ctx)

	var req taskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.tasks.Create(ctx, task.CreateRequest{
		OwnerID:     owner,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTaskResponse(*t))
}

func (h handler) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.OwnerFromContext(ctx)

	t, err := h.tasks.Get(ctx, owner, r.PathValue("id"))
	if err != nil {
		h.writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(*t))
}

func (h handler) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.OwnerFromContext(ctx)

	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.tasks.Update(ctx, task.UpdateRequest{
		OwnerID:     owner,
		ID:          r.PathValue("id"),
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		h.writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(*t))
}

func (h handler) handleTaskComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.OwnerFromContext(ctx)

	var req taskCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Completed == nil {
		writeError(w, http.StatusBadRequest, "a completed boolean is required")
		return
	}

	t, err := h.tasks.SetCompleted(ctx, owner, r.PathValue("id"), *req.Completed)
	if err != nil {
		h.writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(*t))
}

func (h handler) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.OwnerFromContext(ctx)

	if err := h.tasks.Delete(ctx, owner, r.PathValue("id")); err != nil {
		h.writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageBody{Message: "task deleted"})
}

func (h handler) writeTaskError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	h.writeServiceError(w, r, err)
}
