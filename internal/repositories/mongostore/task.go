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
	"go.mongodb.org/mongo-driver/mongo/options"

	"trackit/internal/models"
	"trackit/internal/repositories"
)

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	AssignedTo  string             `bson:"assignedTo"`
	Status      string             `bson:"status"`
	CreatedBy   string             `bson:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d taskDocument) toModel() *models.Task {
	return &models.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		AssignedTo:  d.AssignedTo,
		Status:      models.TaskStatus(d.Status),
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// TaskRepository はtasksコレクションの操作を行います。
type TaskRepository struct {
	coll *mongo.Collection
}

// NewTaskRepository は新しいTaskRepositoryを作成します。
func NewTaskRepository(d *DB) *TaskRepository {
	return &TaskRepository{coll: d.db.Collection(tasksCollection)}
}

// Create はタスクを挿入し、生成されたObjectIDを返します。
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		Status:      string(t.Status),
		CreatedBy:   t.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		log.Error("failed to insert task", "err", err)
		return nil, fmt.Errorf("could not insert task: %w", err)
	}
	return doc.toModel(), nil
}

// FindAll はコレクションの自然順で全タスクを返します。
func (r *TaskRepository) FindAll(ctx context.Context) ([]*models.Task, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		log.Error("failed to query tasks", "err", err)
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer cur.Close(ctx)

	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("could not decode tasks: %w", err)
	}
	tasks := make([]*models.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.toModel())
	}
	return tasks, nil
}

// FindByID は指定されたIDのタスクを取得します。ObjectIDとして不正なIDは未検出扱いです。
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrTaskNotFound
	}

	var doc taskDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrTaskNotFound
		}
		log.Error("failed to query task by id", "id", id, "err", err)
		return nil, fmt.Errorf("could not query task: %w", err)
	}
	return doc.toModel(), nil
}

// Update は可変フィールドを$setし、更新後のドキュメントを返します。
func (r *TaskRepository) Update(ctx context.Context, id string, t *models.Task) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrTaskNotFound
	}

	update := bson.M{"$set": bson.M{
		"title":       t.Title,
		"description": t.Description,
		"assignedTo":  t.AssignedTo,
		"status":      string(t.Status),
		"updatedAt":   time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrTaskNotFound
		}
		log.Error("failed to update task", "id", id, "err", err)
		return nil, fmt.Errorf("could not update task: %w", err)
	}
	return doc.toModel(), nil
}

// Delete はフィルタで削除します。0件一致でもエラーにしません。
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		log.Error("failed to delete task", "id", id, "err", err)
		return fmt.Errorf("could not delete task: %w", err)
	}
	return nil
}
