package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/models"
	"trackit/internal/repositories"
	"trackit/internal/repositories/memstore"
	"trackit/internal/services"
)

func strPtr(s string) *string { return &s }

func newTaskService(strict bool) *services.TaskService {
	return services.NewTaskService(memstore.NewTaskRepository(), strict)
}

func TestCreateTask_DefaultsToToDo(t *testing.T) {
	svc := newTaskService(false)

	task, err := svc.CreateTask(context.Background(), models.TaskCreateRequest{Title: "Write report"}, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, models.StatusToDo, task.Status)
	assert.Equal(t, "", task.Description)
	assert.Equal(t, "user-1", task.CreatedBy)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestCreateTask_HonoursSuppliedStatus(t *testing.T) {
	svc := newTaskService(false)

	task, err := svc.CreateTask(context.Background(), models.TaskCreateRequest{Title: "x", Status: models.StatusDone}, "u")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, task.Status)

	_, err = svc.CreateTask(context.Background(), models.TaskCreateRequest{Title: "x", Status: "Archived"}, "u")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestCreateTask_EmptyTitle(t *testing.T) {
	svc := newTaskService(false)

	for _, title := range []string{"", "   "} {
		_, err := svc.CreateTask(context.Background(), models.TaskCreateRequest{Title: title}, "u")
		assert.ErrorIs(t, err, services.ErrValidation, "title %q", title)
	}
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	svc := newTaskService(false)
	task, err := svc.CreateTask(ctx, models.TaskCreateRequest{Title: "a", Description: "d", AssignedTo: "bob"}, "u")
	require.NoError(t, err)

	t.Run("empty patch returns task unchanged", func(t *testing.T) {
		got, err := svc.UpdateTask(ctx, task.ID, models.TaskPatch{})
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("only present fields change", func(t *testing.T) {
		got, err := svc.UpdateTask(ctx, task.ID, models.TaskPatch{Title: strPtr("b")})
		require.NoError(t, err)
		assert.Equal(t, "b", got.Title)
		assert.Equal(t, "d", got.Description)
		assert.Equal(t, "bob", got.AssignedTo)
		assert.Equal(t, models.StatusToDo, got.Status)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, task.ID, models.TaskPatch{Title: strPtr(" ")})
		assert.ErrorIs(t, err, services.ErrValidation)
	})

	t.Run("missing task", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, "missing", models.TaskPatch{Title: strPtr("b")})
		assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
	})
}

func TestMoveTask(t *testing.T) {
	ctx := context.Background()
	svc := newTaskService(false)
	task, err := svc.CreateTask(ctx, models.TaskCreateRequest{Title: "a"}, "u")
	require.NoError(t, err)

	moved, err := svc.MoveTask(ctx, task.ID, models.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, moved.Status)
	assert.Equal(t, "a", moved.Title)

	tasks, err := svc.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.StatusDone, tasks[0].Status)

	_, err = svc.MoveTask(ctx, task.ID, "")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.MoveTask(ctx, "missing", models.StatusDone)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
}

func TestMoveTask_UnknownStatus(t *testing.T) {
	ctx := context.Background()

	lenient := newTaskService(false)
	task, err := lenient.CreateTask(ctx, models.TaskCreateRequest{Title: "a"}, "u")
	require.NoError(t, err)
	moved, err := lenient.MoveTask(ctx, task.ID, "Archived")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatus("Archived"), moved.Status)

	strict := newTaskService(true)
	task, err = strict.CreateTask(ctx, models.TaskCreateRequest{Title: "a"}, "u")
	require.NoError(t, err)
	_, err = strict.MoveTask(ctx, task.ID, "Archived")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestDeleteTask_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTaskService(false)
	task, err := svc.CreateTask(ctx, models.TaskCreateRequest{Title: "a"}, "u")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, task.ID))
	require.NoError(t, svc.DeleteTask(ctx, task.ID))

	_, err = svc.GetTaskByID(ctx, task.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
}
