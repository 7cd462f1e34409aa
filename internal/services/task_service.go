package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"trackit/internal/models"
	"trackit/internal/repositories"
)

// TaskService はタスク関連のビジネスロジックを扱います。
type TaskService struct {
	taskRepo     repositories.TaskRepository
	strictStatus bool
}

// NewTaskService は新しいTaskServiceを作成します。
// strictStatusがtrueなら、移動先のステータスを3つの列に限定します。
func NewTaskService(taskRepo repositories.TaskRepository, strictStatus bool) *TaskService {
	return &TaskService{taskRepo: taskRepo, strictStatus: strictStatus}
}

// CreateTask は新しいタスクを作成します。ステータスの既定値はToDoです。
func (s *TaskService) CreateTask(ctx context.Context, req models.TaskCreateRequest, creatorID string) (*models.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	status := models.StatusToDo
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
		}
		status = req.Status
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      status,
		CreatedBy:   creatorID,
	}
	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	log.Debug("task created", "task_id", created.ID, "created_by", creatorID)
	return created, nil
}

// GetTasks は全タスクをストアの順序で返します。
func (s *TaskService) GetTasks(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.taskRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskByID は指定IDのタスクを取得します。
func (s *TaskService) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	return s.taskRepo.FindByID(ctx, id)
}

// UpdateTask はパッチに含まれるフィールドだけを上書きします。
// 空のパッチなら現在のタスクをそのまま返します。
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	existing, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return existing, nil
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		existing.Title = *patch.Title
	}
	if patch.Description != nil {
		existing.Description = *patch.Description
	}
	if patch.AssignedTo != nil {
		existing.AssignedTo = *patch.AssignedTo
	}
	if patch.Status != nil {
		if err := s.checkStatus(*patch.Status); err != nil {
			return nil, err
		}
		existing.Status = *patch.Status
	}
	return s.taskRepo.Update(ctx, id, existing)
}

// MoveTask はステータスのみを変更します。
func (s *TaskService) MoveTask(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	if err := s.checkStatus(status); err != nil {
		return nil, err
	}
	existing, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Status = status
	return s.taskRepo.Update(ctx, id, existing)
}

// DeleteTask はタスクを削除します。存在しないIDでも成功します。
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) checkStatus(status models.TaskStatus) error {
	if strings.TrimSpace(string(status)) == "" {
		return fmt.Errorf("%w: status is required", ErrValidation)
	}
	if s.strictStatus && !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return nil
}
