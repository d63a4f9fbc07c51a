package models

import (
	"fmt"
	"time"
)

// TaskStatusCompleted is the completion sentinel: moving a task here sets
// CompletedAt/CompletedBy in the same update statement.
const TaskStatusCompleted = "COMPLETED"

// Task is a unit of work with a mutable status/assignee and an append-only
// audit trail of both. Statuses form an unordered set - any status may
// transition to any other.
type Task struct {
	ID          string     `json:"id" db:"id"`
	CompanyID   string     `json:"company_id" db:"company_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Status      string     `json:"status" db:"status"`
	Priority    string     `json:"priority" db:"priority"`
	AssignedTo  *string    `json:"assigned_to,omitempty" db:"assigned_to"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CompletedBy *string    `json:"completed_by,omitempty" db:"completed_by"`
	CreatedBy   string     `json:"created_by" db:"created_by"`
	UpdatedBy   string     `json:"updated_by" db:"updated_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskStatusChange is one append-only history row per status transition,
// written transactionally alongside the task update. PreviousStatus holds
// the pre-update value (nil on creation).
type TaskStatusChange struct {
	ID             string    `json:"id" db:"id"`
	TaskID         string    `json:"task_id" db:"task_id"`
	CompanyID      string    `json:"company_id" db:"company_id"`
	Status         string    `json:"status" db:"status"`
	PreviousStatus *string   `json:"previous_status,omitempty" db:"previous_status"`
	ChangedBy      string    `json:"changed_by" db:"changed_by"`
	Comments       *string   `json:"comments,omitempty" db:"comments"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TaskAssignmentChange is one append-only history row per assignee change.
// AssignedFrom holds the pre-update assignee (nil on creation).
type TaskAssignmentChange struct {
	ID           string    `json:"id" db:"id"`
	TaskID       string    `json:"task_id" db:"task_id"`
	CompanyID    string    `json:"company_id" db:"company_id"`
	AssignedTo   string    `json:"assigned_to" db:"assigned_to"`
	AssignedFrom *string   `json:"assigned_from,omitempty" db:"assigned_from"`
	AssignedBy   string    `json:"assigned_by" db:"assigned_by"`
	Comments     *string   `json:"comments,omitempty" db:"comments"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TaskWatcher subscribes a user to a task, one row per user. The creator is
// seeded as a watcher when the task is created.
type TaskWatcher struct {
	TaskID    string    `json:"task_id" db:"task_id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TaskPage is a page of tasks plus the unpaginated match count.
type TaskPage struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
}

// taskSortColumns whitelists sortable columns; anything else falls back to
// created_at.
var taskSortColumns = map[string]string{
	"title":      "title",
	"due_date":   "due_date",
	"status":     "status",
	"priority":   "priority",
	"updated_at": "updated_at",
	"created_at": "created_at",
}

// TaskListOptions builds the dynamic task filter.
type TaskListOptions struct {
	Statuses   []string   `json:"statuses,omitempty"`
	AssignedTo string     `json:"assigned_to,omitempty"`
	Priorities []string   `json:"priorities,omitempty"`
	DueFrom    *time.Time `json:"due_from,omitempty"`
	DueTo      *time.Time `json:"due_to,omitempty"`
	SortBy     string     `json:"sort_by,omitempty"`
	SortOrder  string     `json:"sort_order,omitempty"`
	PageOptions
}

// ApplyDefaults normalizes pagination and sorting to safe values.
func (o *TaskListOptions) ApplyDefaults() {
	o.PageOptions.ApplyDefaults()
	if _, ok := taskSortColumns[o.SortBy]; !ok {
		o.SortBy = "created_at"
	}
	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = "desc"
	}
}

// SortColumn returns the whitelisted SQL column for the requested sort key.
func (o *TaskListOptions) SortColumn() string {
	if col, ok := taskSortColumns[o.SortBy]; ok {
		return col
	}
	return "created_at"
}

// Validate rejects an inverted due-date range.
func (o *TaskListOptions) Validate() error {
	if o.DueFrom != nil && o.DueTo != nil && o.DueFrom.After(*o.DueTo) {
		return fmt.Errorf("due_from must not be after due_to")
	}
	return nil
}
