// Package memstore はプロセス内メモリのストアです。開発とテストで使います。
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"trackit/internal/models"
	"trackit/internal/repositories"
)

// TaskRepository はメモリ上のタスクストアです。
type TaskRepository struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]*models.Task
}

// NewTaskRepository は空のTaskRepositoryを作成します。
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]*models.Task)}
}

func (r *TaskRepository) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := t.Clone()
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.tasks[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return stored.Clone(), nil
}

func (r *TaskRepository) FindAll(_ context.Context) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id].Clone())
	}
	return out, nil
}

func (r *TaskRepository) FindByID(_ context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, repositories.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (r *TaskRepository) Update(_ context.Context, id string, t *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.tasks[id]
	if !ok {
		return nil, repositories.ErrTaskNotFound
	}
	cur.Title = t.Title
	cur.Description = t.Description
	cur.AssignedTo = t.AssignedTo
	cur.Status = t.Status
	cur.UpdatedAt = time.Now().UTC()
	return cur.Clone(), nil
}

func (r *TaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return nil
	}
	delete(r.tasks, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// UserRepository はメモリ上のユーザーストアです。
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

// NewUserRepository は空のUserRepositoryを作成します。
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := repositories.NormalizeEmail(u.Email)
	if _, exists := r.byEmail[email]; exists {
		return nil, repositories.ErrDuplicateEmail
	}

	stored := *u
	stored.ID = uuid.NewString()
	stored.Email = email
	stored.CreatedAt = time.Now().UTC()
	r.byID[stored.ID] = &stored
	r.byEmail[email] = stored.ID

	out := stored
	return &out, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[repositories.NormalizeEmail(email)]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// New はメモリストア一式を返します。
func New() *repositories.Store {
	return &repositories.Store{
		Tasks: NewTaskRepository(),
		Users: NewUserRepository(),
		Ping:  func(context.Context) error { return nil },
		Close: func(context.Context) error { return nil },
	}
}
