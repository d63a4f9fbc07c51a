package services

import (
	"context"
	"time"

	"registru/internal/domain/models"
)

// TaskService handles the task lifecycle: status/assignee mutations with an
// append-only audit trail written in the same transaction.
type TaskService interface {
	// CreateTask inserts the task row plus the seed assignment-history,
	// status-history and creator-watcher rows, all-or-nothing.
	CreateTask(ctx context.Context, req *CreateTaskRequest, userID string) (*models.Task, error)

	// GetTask retrieves a company-scoped task.
	GetTask(ctx context.Context, taskID, companyID string) (*models.Task, error)

	// UpdateTask applies partial updates; status and assignee changes append
	// history rows recording the pre-update values.
	UpdateTask(ctx context.Context, taskID, companyID string, req *UpdateTaskRequest, userID string) (*models.Task, error)

	// UpdateTaskStatus is a status-only update. Requesting the current
	// status is a no-op returning the unchanged task, with no history row.
	UpdateTaskStatus(ctx context.Context, taskID, companyID, status string, comments *string, userID string) (*models.Task, error)

	// AssignTask is an assignee-only update with the same no-op rule.
	AssignTask(ctx context.Context, taskID, companyID, assignee string, comments *string, userID string) (*models.Task, error)

	// DeleteTask removes history, watchers and the task row in one
	// transaction. Returns true iff a task row was removed.
	DeleteTask(ctx context.Context, taskID, companyID string) (bool, error)

	// ListTasks applies the dynamic filter/sort and returns one page.
	ListTasks(ctx context.Context, companyID string, opts *models.TaskListOptions) (*models.TaskPage, error)

	GetStatusHistory(ctx context.Context, taskID, companyID string) ([]models.TaskStatusChange, error)
	GetAssignmentHistory(ctx context.Context, taskID, companyID string) ([]models.TaskAssignmentChange, error)

	ListWatchers(ctx context.Context, taskID, companyID string) ([]models.TaskWatcher, error)
	AddWatcher(ctx context.Context, taskID, companyID, userID string) error
	RemoveWatcher(ctx context.Context, taskID, companyID, userID string) (bool, error)
}

// CreateTaskRequest creates a task.
type CreateTaskRequest struct {
	CompanyID   string     `json:"-"` // Set by handler from auth context
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`   // Defaults to PENDING
	Priority    string     `json:"priority,omitempty"` // Defaults to NORMAL
	AssignedTo  string     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateTaskRequest applies partial task updates. Nil fields are untouched.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Comments    *string    `json:"comments,omitempty"` // Attached to history rows
}
