// Package repositories はタスクとユーザーの永続化を抽象化します。
// 実装は mongostore, sqlstore, memstore の各パッケージにあります。
package repositories

import (
	"context"
	"errors"

	"trackit/internal/models"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// TaskRepository はタスクストアの操作です。
type TaskRepository interface {
	// Create はIDと作成日時を採番して保存します。
	Create(ctx context.Context, t *models.Task) (*models.Task, error)
	// FindAll はストアの順序のまま全タスクを返します。
	FindAll(ctx context.Context) ([]*models.Task, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	// Update は可変フィールド(title, description, assignedTo, status)を上書きします。
	Update(ctx context.Context, id string, t *models.Task) (*models.Task, error)
	// Delete は存在しないIDでもエラーを返しません。
	Delete(ctx context.Context, id string) error
}

// UserRepository はユーザーストアの操作です。
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Store はストア実装一式です。
type Store struct {
	Tasks TaskRepository
	Users UserRepository

	// Ping はヘルスチェックに使います。
	Ping func(ctx context.Context) error
	// Close は接続を閉じます。
	Close func(ctx context.Context) error
}
