package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"registru/internal/domain"
	"registru/internal/domain/models"
	"registru/internal/domain/repositories"
	"registru/internal/domain/services"
	"registru/internal/vocab"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const maxTaskTitleLength = 255

// taskService implements the TaskService interface
type taskService struct {
	taskRepo  repositories.TaskRepository
	txManager repositories.TransactionManager
	vocab     *vocab.Registry
	logger    *slog.Logger
}

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo repositories.TaskRepository,
	txManager repositories.TransactionManager,
	vocabRegistry *vocab.Registry,
	logger *slog.Logger,
) services.TaskService {
	return &taskService{
		taskRepo:  taskRepo,
		txManager: txManager,
		vocab:     vocabRegistry,
		logger:    logger,
	}
}

// CreateTask inserts the task row plus its seed history: one assignment row,
// one status row and the creator as watcher, all in one transaction.
func (s *taskService) CreateTask(ctx context.Context, req *services.CreateTaskRequest, userID string) (*models.Task, error) {
	if err := s.validateCreateTaskRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	status := req.Status
	if status == "" {
		status = "PENDING"
	}
	priority := req.Priority
	if priority == "" {
		priority = "NORMAL"
	}
	if !s.vocab.IsTaskStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if !s.vocab.IsTaskPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrValidation, priority)
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New().String(),
		CompanyID:   req.CompanyID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		AssignedTo:  &req.AssignedTo,
		DueDate:     req.DueDate,
		CreatedBy:   userID,
		UpdatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == models.TaskStatusCompleted {
		task.CompletedAt = &now
		completedBy := userID
		task.CompletedBy = &completedBy
	}

	assignmentComment := "Initial task assignment"
	statusComment := "Task created"

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.taskRepo.CreateTask(txCtx, task); err != nil {
			return err
		}
		assignment := &models.TaskAssignmentChange{
			ID:         uuid.New().String(),
			TaskID:     task.ID,
			CompanyID:  task.CompanyID,
			AssignedTo: req.AssignedTo,
			AssignedBy: userID,
			Comments:   &assignmentComment,
			CreatedAt:  now,
		}
		if err := s.taskRepo.InsertAssignmentChange(txCtx, assignment); err != nil {
			return err
		}
		statusChange := &models.TaskStatusChange{
			ID:        uuid.New().String(),
			TaskID:    task.ID,
			CompanyID: task.CompanyID,
			Status:    status,
			ChangedBy: userID,
			Comments:  &statusComment,
			CreatedAt: now,
		}
		if err := s.taskRepo.InsertStatusChange(txCtx, statusChange); err != nil {
			return err
		}
		watcher := &models.TaskWatcher{
			TaskID:    task.ID,
			CompanyID: task.CompanyID,
			UserID:    userID,
			CreatedAt: now,
		}
		return s.taskRepo.InsertWatcher(txCtx, watcher)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"company_id", task.CompanyID,
		"assigned_to", req.AssignedTo,
	)

	return task, nil
}

// GetTask retrieves a company-scoped task
func (s *taskService) GetTask(ctx context.Context, taskID, companyID string) (*models.Task, error) {
	return s.taskRepo.GetTask(ctx, taskID, companyID)
}

// UpdateTask applies partial updates. Status and assignee changes each append
// a history row recording the pre-update value, in the same transaction as
// the task update itself.
func (s *taskService) UpdateTask(ctx context.Context, taskID, companyID string, req *services.UpdateTaskRequest, userID string) (*models.Task, error) {
	if err := s.validateUpdateTaskRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	task, err := s.taskRepo.GetTask(ctx, taskID, companyID)
	if err != nil {
		return nil, err
	}

	previousStatus := task.Status
	previousAssignee := task.AssignedTo

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	statusChanged := req.Status != nil && *req.Status != previousStatus
	assigneeChanged := req.AssignedTo != nil &&
		(previousAssignee == nil || *req.AssignedTo != *previousAssignee)

	if statusChanged {
		task.Status = *req.Status
		if task.Status == models.TaskStatusCompleted {
			now := time.Now().UTC()
			task.CompletedAt = &now
			completedBy := userID
			task.CompletedBy = &completedBy
		}
	}
	if assigneeChanged {
		task.AssignedTo = req.AssignedTo
	}

	task.UpdatedBy = userID
	task.UpdatedAt = time.Now().UTC()

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.taskRepo.UpdateTask(txCtx, task); err != nil {
			return err
		}
		if statusChanged {
			prev := previousStatus
			change := &models.TaskStatusChange{
				ID:             uuid.New().String(),
				TaskID:         task.ID,
				CompanyID:      task.CompanyID,
				Status:         task.Status,
				PreviousStatus: &prev,
				ChangedBy:      userID,
				Comments:       req.Comments,
				CreatedAt:      task.UpdatedAt,
			}
			if err := s.taskRepo.InsertStatusChange(txCtx, change); err != nil {
				return err
			}
		}
		if assigneeChanged {
			change := &models.TaskAssignmentChange{
				ID:           uuid.New().String(),
				TaskID:       task.ID,
				CompanyID:    task.CompanyID,
				AssignedTo:   *req.AssignedTo,
				AssignedFrom: previousAssignee,
				AssignedBy:   userID,
				Comments:     req.Comments,
				CreatedAt:    task.UpdatedAt,
			}
			if err := s.taskRepo.InsertAssignmentChange(txCtx, change); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// UpdateTaskStatus is a status-only update. Requesting the current status is
// a no-op: the unchanged task comes back and no history row is written.
func (s *taskService) UpdateTaskStatus(ctx context.Context, taskID, companyID, status string, comments *string, userID string) (*models.Task, error) {
	if !s.vocab.IsTaskStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	task, err := s.taskRepo.GetTask(ctx, taskID, companyID)
	if err != nil {
		return nil, err
	}
	if task.Status == status {
		return task, nil
	}

	previousStatus := task.Status
	now := time.Now().UTC()
	task.Status = status
	task.UpdatedBy = userID
	task.UpdatedAt = now
	if status == models.TaskStatusCompleted {
		task.CompletedAt = &now
		completedBy := userID
		task.CompletedBy = &completedBy
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.taskRepo.UpdateTask(txCtx, task); err != nil {
			return err
		}
		change := &models.TaskStatusChange{
			ID:             uuid.New().String(),
			TaskID:         task.ID,
			CompanyID:      task.CompanyID,
			Status:         status,
			PreviousStatus: &previousStatus,
			ChangedBy:      userID,
			Comments:       comments,
			CreatedAt:      now,
		}
		return s.taskRepo.InsertStatusChange(txCtx, change)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task status changed",
		"task_id", task.ID,
		"from", previousStatus,
		"to", status,
	)

	return task, nil
}

// AssignTask is an assignee-only update with the same no-op rule as
// UpdateTaskStatus.
func (s *taskService) AssignTask(ctx context.Context, taskID, companyID, assignee string, comments *string, userID string) (*models.Task, error) {
	if assignee == "" {
		return nil, fmt.Errorf("%w: assignee is required", domain.ErrValidation)
	}

	task, err := s.taskRepo.GetTask(ctx, taskID, companyID)
	if err != nil {
		return nil, err
	}
	if task.AssignedTo != nil && *task.AssignedTo == assignee {
		return task, nil
	}

	previousAssignee := task.AssignedTo
	now := time.Now().UTC()
	task.AssignedTo = &assignee
	task.UpdatedBy = userID
	task.UpdatedAt = now

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.taskRepo.UpdateTask(txCtx, task); err != nil {
			return err
		}
		change := &models.TaskAssignmentChange{
			ID:           uuid.New().String(),
			TaskID:       task.ID,
			CompanyID:    task.CompanyID,
			AssignedTo:   assignee,
			AssignedFrom: previousAssignee,
			AssignedBy:   userID,
			Comments:     comments,
			CreatedAt:    now,
		}
		return s.taskRepo.InsertAssignmentChange(txCtx, change)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task reassigned",
		"task_id", task.ID,
		"assigned_to", assignee,
	)

	return task, nil
}

// DeleteTask removes history, watchers and the task row in one transaction
func (s *taskService) DeleteTask(ctx context.Context, taskID, companyID string) (bool, error) {
	var existed bool
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// Ownership check so another tenant's history is never touched
		if _, err := s.taskRepo.GetTask(txCtx, taskID, companyID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := s.taskRepo.DeleteStatusHistoryByTask(txCtx, taskID); err != nil {
			return err
		}
		if err := s.taskRepo.DeleteAssignmentHistoryByTask(txCtx, taskID); err != nil {
			return err
		}
		if err := s.taskRepo.DeleteWatchersByTask(txCtx, taskID); err != nil {
			return err
		}
		var err error
		existed, err = s.taskRepo.DeleteTask(txCtx, taskID, companyID)
		return err
	})
	if err != nil {
		return false, err
	}

	if existed {
		s.logger.Info("task deleted", "task_id", taskID, "company_id", companyID)
	}

	return existed, nil
}

// ListTasks applies the dynamic filter/sort and returns one page
func (s *taskService) ListTasks(ctx context.Context, companyID string, opts *models.TaskListOptions) (*models.TaskPage, error) {
	if opts == nil {
		opts = &models.TaskListOptions{}
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	opts.ApplyDefaults()

	for _, status := range opts.Statuses {
		if !s.vocab.IsTaskStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
		}
	}
	for _, priority := range opts.Priorities {
		if !s.vocab.IsTaskPriority(priority) {
			return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrValidation, priority)
		}
	}

	tasks, total, err := s.taskRepo.ListTasks(ctx, companyID, opts)
	if err != nil {
		return nil, err
	}
	return &models.TaskPage{Tasks: tasks, Total: total}, nil
}

// GetStatusHistory lists status transitions newest-first
func (s *taskService) GetStatusHistory(ctx context.Context, taskID, companyID string) ([]models.TaskStatusChange, error) {
	if _, err := s.taskRepo.GetTask(ctx, taskID, companyID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListStatusHistory(ctx, taskID, companyID)
}

// GetAssignmentHistory lists assignee changes newest-first
func (s *taskService) GetAssignmentHistory(ctx context.Context, taskID, companyID string) ([]models.TaskAssignmentChange, error) {
	if _, err := s.taskRepo.GetTask(ctx, taskID, companyID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListAssignmentHistory(ctx, taskID, companyID)
}

// ListWatchers lists the task's watchers
func (s *taskService) ListWatchers(ctx context.Context, taskID, companyID string) ([]models.TaskWatcher, error) {
	if _, err := s.taskRepo.GetTask(ctx, taskID, companyID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListWatchers(ctx, taskID, companyID)
}

// AddWatcher subscribes a user to the task. Re-adding is a no-op.
func (s *taskService) AddWatcher(ctx context.Context, taskID, companyID, userID string) error {
	if _, err := s.taskRepo.GetTask(ctx, taskID, companyID); err != nil {
		return err
	}
	watcher := &models.TaskWatcher{
		TaskID:    taskID,
		CompanyID: companyID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	return s.taskRepo.InsertWatcher(ctx, watcher)
}

// RemoveWatcher unsubscribes a user. Returns false when no row matched.
func (s *taskService) RemoveWatcher(ctx context.Context, taskID, companyID, userID string) (bool, error) {
	if _, err := s.taskRepo.GetTask(ctx, taskID, companyID); err != nil {
		return false, err
	}
	return s.taskRepo.DeleteWatcher(ctx, taskID, companyID, userID)
}

func (s *taskService) validateCreateTaskRequest(req *services.CreateTaskRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.CompanyID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, maxTaskTitleLength),
		),
		validation.Field(&req.AssignedTo, validation.Required),
	)
}

func (s *taskService) validateUpdateTaskRequest(req *services.UpdateTaskRequest) error {
	if req.Title != nil {
		if err := validation.Validate(*req.Title, validation.Required, validation.Length(1, maxTaskTitleLength)); err != nil {
			return fmt.Errorf("title: %v", err)
		}
	}
	if req.Status != nil && !s.vocab.IsTaskStatus(*req.Status) {
		return fmt.Errorf("unknown status %q", *req.Status)
	}
	if req.Priority != nil && !s.vocab.IsTaskPriority(*req.Priority) {
		return fmt.Errorf("unknown priority %q", *req.Priority)
	}
	if req.AssignedTo != nil && *req.AssignedTo == "" {
		return fmt.Errorf("assigned_to must not be empty")
	}
	return nil
}
