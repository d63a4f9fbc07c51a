package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"registru/internal/domain"
	"registru/internal/domain/models"
	"registru/internal/domain/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTaskRepository implements the TaskRepository interface
type PostgresTaskRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(config *RepositoryConfig) repositories.TaskRepository {
	return &PostgresTaskRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateTask inserts a task row
func (r *PostgresTaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, company_id, title, description, status, priority, assigned_to,
			due_date, completed_at, completed_by, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, r.tables.Tasks)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		task.ID,
		task.CompanyID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AssignedTo,
		task.DueDate,
		task.CompletedAt,
		task.CompletedBy,
		task.CreatedBy,
		task.UpdatedBy,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("task %s already exists", task.ID),
				ResourceType: "task",
				ResourceID:   task.ID,
			}
		}
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

const taskColumns = `id, company_id, title, description, status, priority, assigned_to,
	due_date, completed_at, completed_by, created_by, updated_by, created_at, updated_at`

func scanTask(row interface{ Scan(dest ...any) error }, task *models.Task) error {
	return row.Scan(
		&task.ID,
		&task.CompanyID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.AssignedTo,
		&task.DueDate,
		&task.CompletedAt,
		&task.CompletedBy,
		&task.CreatedBy,
		&task.UpdatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
}

// GetTask retrieves a company-scoped task by ID
func (r *PostgresTaskRepository) GetTask(ctx context.Context, id, companyID string) (*models.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = $1 AND company_id = $2
	`, taskColumns, r.tables.Tasks)

	var task models.Task
	executor := GetExecutor(ctx, r.pool)
	err := scanTask(executor.QueryRow(ctx, query, id, companyID), &task)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	return &task, nil
}

// UpdateTask writes the mutable task columns
func (r *PostgresTaskRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, status = $3, priority = $4, assigned_to = $5,
			due_date = $6, completed_at = $7, completed_by = $8, updated_by = $9, updated_at = $10
		WHERE id = $11 AND company_id = $12
	`, r.tables.Tasks)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AssignedTo,
		task.DueDate,
		task.CompletedAt,
		task.CompletedBy,
		task.UpdatedBy,
		task.UpdatedAt,
		task.ID,
		task.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", task.ID, domain.ErrNotFound)
	}

	return nil
}

// DeleteTask removes the task row
func (r *PostgresTaskRepository) DeleteTask(ctx context.Context, id, companyID string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND company_id = $2`, r.tables.Tasks)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, companyID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListTasks applies the dynamic filter and returns one page plus the total
// count from an identical-filter COUNT query
func (r *PostgresTaskRepository) ListTasks(ctx context.Context, companyID string, opts *models.TaskListOptions) ([]models.Task, int, error) {
	conditions := []string{"company_id = $1"}
	args := []interface{}{companyID}
	paramIndex := 2

	if len(opts.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", paramIndex))
		args = append(args, opts.Statuses)
		paramIndex++
	}
	if opts.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", paramIndex))
		args = append(args, opts.AssignedTo)
		paramIndex++
	}
	if len(opts.Priorities) > 0 {
		conditions = append(conditions, fmt.Sprintf("priority = ANY($%d)", paramIndex))
		args = append(args, opts.Priorities)
		paramIndex++
	}
	if opts.DueFrom != nil {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", paramIndex))
		args = append(args, *opts.DueFrom)
		paramIndex++
	}
	if opts.DueTo != nil {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", paramIndex))
		args = append(args, *opts.DueTo)
		paramIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// Sort column comes from the whitelist, direction is normalized; neither
	// reaches the SQL string from user input directly
	direction := "DESC"
	if opts.SortOrder == "asc" {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, taskColumns, r.tables.Tasks, whereClause, opts.SortColumn(), direction, paramIndex, paramIndex+1)

	listArgs := append(args, opts.Limit(), opts.Offset())

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		if err := scanTask(rows, &task); err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.tables.Tasks, whereClause)
	var total int
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	return tasks, total, nil
}

// InsertStatusChange appends a status-history row
func (r *PostgresTaskRepository) InsertStatusChange(ctx context.Context, change *models.TaskStatusChange) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, task_id, company_id, status, previous_status, changed_by, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.TaskStatusHistory)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		change.ID,
		change.TaskID,
		change.CompanyID,
		change.Status,
		change.PreviousStatus,
		change.ChangedBy,
		change.Comments,
		change.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}

	return nil
}

// InsertAssignmentChange appends an assignment-history row
func (r *PostgresTaskRepository) InsertAssignmentChange(ctx context.Context, change *models.TaskAssignmentChange) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, task_id, company_id, assigned_to, assigned_from, assigned_by, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.TaskAssignmentHistory)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		change.ID,
		change.TaskID,
		change.CompanyID,
		change.AssignedTo,
		change.AssignedFrom,
		change.AssignedBy,
		change.Comments,
		change.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assignment change: %w", err)
	}

	return nil
}

// InsertWatcher adds a watcher row; re-adding an existing watcher is a no-op
func (r *PostgresTaskRepository) InsertWatcher(ctx context.Context, watcher *models.TaskWatcher) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (task_id, company_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (task_id, user_id) DO NOTHING
	`, r.tables.TaskWatchers)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		watcher.TaskID,
		watcher.CompanyID,
		watcher.UserID,
		watcher.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert watcher: %w", err)
	}

	return nil
}

// DeleteWatcher removes one user's watcher row
func (r *PostgresTaskRepository) DeleteWatcher(ctx context.Context, taskID, companyID, userID string) (bool, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE task_id = $1 AND company_id = $2 AND user_id = $3
	`, r.tables.TaskWatchers)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, taskID, companyID, userID)
	if err != nil {
		return false, fmt.Errorf("delete watcher: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListStatusHistory lists status transitions newest-first
func (r *PostgresTaskRepository) ListStatusHistory(ctx context.Context, taskID, companyID string) ([]models.TaskStatusChange, error) {
	query := fmt.Sprintf(`
		SELECT id, task_id, company_id, status, previous_status, changed_by, comments, created_at
		FROM %s
		WHERE task_id = $1 AND company_id = $2
		ORDER BY created_at DESC
	`, r.tables.TaskStatusHistory)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, taskID, companyID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var changes []models.TaskStatusChange
	for rows.Next() {
		var c models.TaskStatusChange
		err := rows.Scan(
			&c.ID,
			&c.TaskID,
			&c.CompanyID,
			&c.Status,
			&c.PreviousStatus,
			&c.ChangedBy,
			&c.Comments,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}
	if changes == nil {
		changes = []models.TaskStatusChange{}
	}

	return changes, nil
}

// ListAssignmentHistory lists assignee changes newest-first
func (r *PostgresTaskRepository) ListAssignmentHistory(ctx context.Context, taskID, companyID string) ([]models.TaskAssignmentChange, error) {
	query := fmt.Sprintf(`
		SELECT id, task_id, company_id, assigned_to, assigned_from, assigned_by, comments, created_at
		FROM %s
		WHERE task_id = $1 AND company_id = $2
		ORDER BY created_at DESC
	`, r.tables.TaskAssignmentHistory)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, taskID, companyID)
	if err != nil {
		return nil, fmt.Errorf("list assignment history: %w", err)
	}
	defer rows.Close()

	var changes []models.TaskAssignmentChange
	for rows.Next() {
		var c models.TaskAssignmentChange
		err := rows.Scan(
			&c.ID,
			&c.TaskID,
			&c.CompanyID,
			&c.AssignedTo,
			&c.AssignedFrom,
			&c.AssignedBy,
			&c.Comments,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan assignment change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment history: %w", err)
	}
	if changes == nil {
		changes = []models.TaskAssignmentChange{}
	}

	return changes, nil
}

// ListWatchers lists a task's watcher rows
func (r *PostgresTaskRepository) ListWatchers(ctx context.Context, taskID, companyID string) ([]models.TaskWatcher, error) {
	query := fmt.Sprintf(`
		SELECT task_id, company_id, user_id, created_at
		FROM %s
		WHERE task_id = $1 AND company_id = $2
		ORDER BY created_at ASC
	`, r.tables.TaskWatchers)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, taskID, companyID)
	if err != nil {
		return nil, fmt.Errorf("list watchers: %w", err)
	}
	defer rows.Close()

	var watchers []models.TaskWatcher
	for rows.Next() {
		var w models.TaskWatcher
		if err := rows.Scan(&w.TaskID, &w.CompanyID, &w.UserID, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan watcher: %w", err)
		}
		watchers = append(watchers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchers: %w", err)
	}
	if watchers == nil {
		watchers = []models.TaskWatcher{}
	}

	return watchers, nil
}

// DeleteStatusHistoryByTask removes all status-history rows for a task
func (r *PostgresTaskRepository) DeleteStatusHistoryByTask(ctx context.Context, taskID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE task_id = $1`, r.tables.TaskStatusHistory)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, taskID); err != nil {
		return fmt.Errorf("delete status history: %w", err)
	}

	return nil
}

// DeleteAssignmentHistoryByTask removes all assignment-history rows for a task
func (r *PostgresTaskRepository) DeleteAssignmentHistoryByTask(ctx context.Context, taskID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE task_id = $1`, r.tables.TaskAssignmentHistory)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, taskID); err != nil {
		return fmt.Errorf("delete assignment history: %w", err)
	}

	return nil
}

// DeleteWatchersByTask removes all watcher rows for a task
func (r *PostgresTaskRepository) DeleteWatchersByTask(ctx context.Context, taskID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE task_id = $1`, r.tables.TaskWatchers)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, taskID); err != nil {
		return fmt.Errorf("delete watchers: %w", err)
	}

	return nil
}
