// Package storetest はストア実装が共通で満たすべき振る舞いのテストです。
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/models"
	"trackit/internal/repositories"
)

// Run はstoreに対してタスクとユーザーのテストを実行します。
// storeは空の状態で渡してください。
func Run(t *testing.T, store *repositories.Store) {
	t.Run("tasks", func(t *testing.T) { Tasks(t, store.Tasks) })
	t.Run("users", func(t *testing.T) { Users(t, store.Users) })
}

// Tasks はTaskRepositoryの振る舞いを確認します。
func Tasks(t *testing.T, repo repositories.TaskRepository) {
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Task{
		Title:      "Write report",
		AssignedTo: "bob",
		Status:     models.StatusToDo,
		CreatedBy:  "user-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, "", created.Description)
	assert.Equal(t, models.StatusToDo, created.Status)
	assert.Equal(t, "user-1", created.CreatedBy)
	assert.False(t, created.CreatedAt.IsZero())

	second, err := repo.Create(ctx, &models.Task{Title: "Review", Status: models.StatusDone, CreatedBy: "user-1"})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, second.ID)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "bob", found.AssignedTo)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	ids := []string{all[0].ID, all[1].ID}
	assert.ElementsMatch(t, []string{created.ID, second.ID}, ids)

	found.Title = "Write better spec"
	found.Description = "with examples"
	found.Status = models.StatusInProgress
	updated, err := repo.Update(ctx, created.ID, found)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Write better spec", updated.Title)
	assert.Equal(t, "with examples", updated.Description)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, "user-1", updated.CreatedBy)

	// 値が変わらない更新も成功する
	_, err = repo.Update(ctx, created.ID, updated)
	require.NoError(t, err)

	_, err = repo.Update(ctx, missingID(created.ID), updated)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	_, err = repo.FindByID(ctx, missingID(created.ID))
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
	_, err = repo.FindByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	require.NoError(t, repo.Delete(ctx, created.ID))
	require.NoError(t, repo.Delete(ctx, created.ID))
	require.NoError(t, repo.Delete(ctx, "not-an-id"))

	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID, all[0].ID)
}

// Users はUserRepositoryの振る舞いを確認します。
func Users(t *testing.T, repo repositories.UserRepository) {
	ctx := context.Background()

	hash, err := repositories.HashPassword("secret1")
	require.NoError(t, err)

	created, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@x.com", PasswordHash: hash})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "a@x.com", created.Email)

	_, err = repo.Create(ctx, &models.User{Name: "B", Email: "a@x.com", PasswordHash: hash})
	assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.NoError(t, repositories.VerifyPassword(byEmail.PasswordHash, "secret1"))

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", byID.Name)

	_, err = repo.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	_, err = repo.FindByID(ctx, missingID(created.ID))
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

// missingID はidと同じ形式で、存在しないIDを返します。
func missingID(id string) string {
	if len(id) == 24 {
		// MongoDBのObjectID
		return "000000000000000000000000"
	}
	return "00000000-0000-0000-0000-000000000000"
}
