package repositories

import (
	"context"

	"registru/internal/domain/models"
)

// TaskRepository persists tasks and their append-only history.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id, companyID string) (*models.Task, error)

	// UpdateTask writes the mutable task columns. History rows are the
	// caller's responsibility, appended in the same transaction.
	UpdateTask(ctx context.Context, task *models.Task) error

	// DeleteTask removes the task row. Reports whether a row existed.
	DeleteTask(ctx context.Context, id, companyID string) (bool, error)

	// ListTasks applies the dynamic filter and returns one page plus the
	// total count from an identical-filter COUNT query.
	ListTasks(ctx context.Context, companyID string, opts *models.TaskListOptions) ([]models.Task, int, error)

	InsertStatusChange(ctx context.Context, change *models.TaskStatusChange) error
	InsertAssignmentChange(ctx context.Context, change *models.TaskAssignmentChange) error

	// InsertWatcher adds a watcher row; inserting an existing watcher is a
	// no-op.
	InsertWatcher(ctx context.Context, watcher *models.TaskWatcher) error
	DeleteWatcher(ctx context.Context, taskID, companyID, userID string) (bool, error)

	ListStatusHistory(ctx context.Context, taskID, companyID string) ([]models.TaskStatusChange, error)
	ListAssignmentHistory(ctx context.Context, taskID, companyID string) ([]models.TaskAssignmentChange, error)
	ListWatchers(ctx context.Context, taskID, companyID string) ([]models.TaskWatcher, error)

	DeleteStatusHistoryByTask(ctx context.Context, taskID string) error
	DeleteAssignmentHistoryByTask(ctx context.Context, taskID string) error
	DeleteWatchersByTask(ctx context.Context, taskID string) error
}
