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

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

// UserRepository はusersテーブルの操作を行います。
type UserRepository struct {
	db *DB
}

// NewUserRepository は新しいUserRepositoryを作成します。
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create は新しいユーザーを挿入します。
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	row := userRow{
		ID:           uuid.NewString(),
		Name:         u.Name,
		Email:        repositories.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	q := r.db.conn.Rebind("INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)")
	if _, err := r.db.conn.ExecContext(ctx, q, row.ID, row.Name, row.Email, row.PasswordHash, row.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, repositories.ErrDuplicateEmail
		}
		log.Error("failed to insert user", "err", err)
		return nil, fmt.Errorf("could not insert user: %w", err)
	}
	return row.toModel(), nil
}

// FindByEmail はメールアドレスでユーザーを検索します。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	q := r.db.conn.Rebind("SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?")
	return r.findOne(ctx, q, repositories.NormalizeEmail(email))
}

// FindByID はIDでユーザーを検索します。
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	q := r.db.conn.Rebind("SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?")
	return r.findOne(ctx, q, id)
}

func (r *UserRepository) findOne(ctx context.Context, q string, arg any) (*models.User, error) {
	var row userRow
	if err := r.db.conn.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrUserNotFound
		}
		log.Error("failed to query user", "err", err)
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return row.toModel(), nil
}
