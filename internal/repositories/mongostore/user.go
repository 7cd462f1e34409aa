package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"trackit/internal/models"
	"trackit/internal/repositories"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"` // bcryptハッシュ
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
	}
}

// UserRepository はusersコレクションの操作を行います。
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository は新しいUserRepositoryを作成します。
func NewUserRepository(d *DB) *UserRepository {
	return &UserRepository{coll: d.db.Collection(usersCollection)}
}

// Create はユーザーを挿入します。emailの一意インデックス違反はErrDuplicateEmailになります。
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		Email:     repositories.NormalizeEmail(u.Email),
		Password:  u.PasswordHash,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repositories.ErrDuplicateEmail
		}
		log.Error("failed to insert user", "err", err)
		return nil, fmt.Errorf("could not insert user: %w", err)
	}
	return doc.toModel(), nil
}

// FindByEmail はメールアドレスでユーザーを検索します。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": repositories.NormalizeEmail(email)})
}

// FindByID はIDでユーザーを検索します。
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrUserNotFound
		}
		log.Error("failed to query user", "err", err)
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return doc.toModel(), nil
}
