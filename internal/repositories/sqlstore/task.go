package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"trackit/internal/models"
	"trackit/internal/repositories"
)

type taskRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	AssignedTo  string    `db:"assigned_to"`
	Status      string    `db:"status"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r taskRow) toModel() *models.Task {
	return &models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedTo,
		Status:      models.TaskStatus(r.Status),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const taskColumns = "id, title, description, assigned_to, status, created_by, created_at, updated_at"

// TaskRepository はtasksテーブルの操作を行います。
type TaskRepository struct {
	db *DB
}

// NewTaskRepository は新しいTaskRepositoryを作成します。
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create は新しいタスクを挿入します。
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	now := time.Now().UTC().Truncate(time.Second)
	row := taskRow{
		ID:          uuid.NewString(),
		Title:       t.Title,
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		Status:      string(t.Status),
		CreatedBy:   t.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	q := r.db.conn.Rebind("INSERT INTO tasks (" + taskColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	_, err := r.db.conn.ExecContext(ctx, q,
		row.ID, row.Title, row.Description, row.AssignedTo, row.Status, row.CreatedBy, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		log.Error("failed to insert task", "err", err)
		return nil, fmt.Errorf("could not insert task: %w", err)
	}
	return row.toModel(), nil
}

// FindAll はすべてのタスクを作成順に取得します。
func (r *TaskRepository) FindAll(ctx context.Context) ([]*models.Task, error) {
	var rows []taskRow
	q := "SELECT " + taskColumns + " FROM tasks ORDER BY created_at ASC"
	if err := r.db.conn.SelectContext(ctx, &rows, q); err != nil {
		log.Error("failed to query tasks", "err", err)
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}

	tasks := make([]*models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toModel())
	}
	return tasks, nil
}

// FindByID は指定されたIDのタスクを取得します。
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var row taskRow
	q := r.db.conn.Rebind("SELECT " + taskColumns + " FROM tasks WHERE id = ?")
	if err := r.db.conn.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrTaskNotFound
		}
		log.Error("failed to query task by id", "id", id, "err", err)
		return nil, fmt.Errorf("could not query task: %w", err)
	}
	return row.toModel(), nil
}

// Update は指定されたIDのタスクを更新します。
// MySQLは値が変わらない行をRowsAffectedに数えないため、存在確認は再取得で行います。
func (r *TaskRepository) Update(ctx context.Context, id string, t *models.Task) (*models.Task, error) {
	q := r.db.conn.Rebind(`UPDATE tasks
		SET title = ?, description = ?, assigned_to = ?, status = ?, updated_at = ?
		WHERE id = ?`)
	_, err := r.db.conn.ExecContext(ctx, q,
		t.Title, t.Description, t.AssignedTo, string(t.Status), time.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		log.Error("failed to update task", "id", id, "err", err)
		return nil, fmt.Errorf("could not update task: %w", err)
	}
	return r.FindByID(ctx, id)
}

// Delete は指定されたIDのタスクを削除します。0件でもエラーにしません。
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	q := r.db.conn.Rebind("DELETE FROM tasks WHERE id = ?")
	if _, err := r.db.conn.ExecContext(ctx, q, id); err != nil {
		log.Error("failed to delete task", "id", id, "err", err)
		return fmt.Errorf("could not delete task: %w", err)
	}
	return nil
}
