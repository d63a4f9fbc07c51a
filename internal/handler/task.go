package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"registru/internal/domain/models"
	"registru/internal/domain/services"
	"registru/internal/httputil"
)

// TaskHandler handles HTTP requests for tasks, their history and watchers
type TaskHandler struct {
	taskService services.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask creates a task with its seed history rows
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req services.CreateTaskRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CompanyID = httputil.GetCompanyID(r)

	task, err := h.taskService.CreateTask(r.Context(), &req, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a single task
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.GetTask(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

// UpdateTask applies partial updates to a task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateTaskRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r), &req, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

// DeleteTask removes a task with its history and watchers
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	existed, err := h.taskService.DeleteTask(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	if !existed {
		httputil.RespondError(w, http.StatusNotFound, "task not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTasks lists tasks with filters, sorting and pagination from the query
// string. Multi-value filters are comma-separated.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := &models.TaskListOptions{
		AssignedTo:  query.Get("assigned_to"),
		SortBy:      query.Get("sort_by"),
		SortOrder:   query.Get("sort_order"),
		PageOptions: pageFromQuery(r),
	}
	if v := query.Get("status"); v != "" {
		opts.Statuses = strings.Split(v, ",")
	}
	if v := query.Get("priority"); v != "" {
		opts.Priorities = strings.Split(v, ",")
	}
	if v := query.Get("due_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "due_from must be RFC 3339")
			return
		}
		opts.DueFrom = &t
	}
	if v := query.Get("due_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "due_to must be RFC 3339")
			return
		}
		opts.DueTo = &t
	}

	result, err := h.taskService.ListTasks(r.Context(), httputil.GetCompanyID(r), opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

type statusChangeRequest struct {
	Status   string  `json:"status"`
	Comments *string `json:"comments,omitempty"`
}

// UpdateStatus performs a status-only transition
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusChangeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.UpdateTaskStatus(
		r.Context(),
		r.PathValue("id"),
		httputil.GetCompanyID(r),
		req.Status,
		req.Comments,
		httputil.GetUserID(r),
	)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

type assignRequest struct {
	AssignedTo string  `json:"assigned_to"`
	Comments   *string `json:"comments,omitempty"`
}

// Assign performs an assignee-only change
func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.AssignTask(
		r.Context(),
		r.PathValue("id"),
		httputil.GetCompanyID(r),
		req.AssignedTo,
		req.Comments,
		httputil.GetUserID(r),
	)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, task)
}

// GetStatusHistory lists status transitions newest-first
func (h *TaskHandler) GetStatusHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.taskService.GetStatusHistory(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, history)
}

// GetAssignmentHistory lists assignee changes newest-first
func (h *TaskHandler) GetAssignmentHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.taskService.GetAssignmentHistory(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, history)
}

// ListWatchers lists the task's watchers
func (h *TaskHandler) ListWatchers(w http.ResponseWriter, r *http.Request) {
	watchers, err := h.taskService.ListWatchers(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, watchers)
}

type watcherRequest struct {
	UserID string `json:"user_id,omitempty"` // Defaults to the caller
}

// AddWatcher subscribes a user to the task
func (h *TaskHandler) AddWatcher(w http.ResponseWriter, r *http.Request) {
	var req watcherRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = httputil.GetUserID(r)
	}

	err := h.taskService.AddWatcher(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveWatcher unsubscribes a user from the task. Without ?user_id= the
// caller unsubscribes themselves.
func (h *TaskHandler) RemoveWatcher(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = httputil.GetUserID(r)
	}

	existed, err := h.taskService.RemoveWatcher(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	if !existed {
		httputil.RespondError(w, http.StatusNotFound, "watcher not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
