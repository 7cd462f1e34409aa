// Package mongostore はMongoDB上のストアです。
package mongostore

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"trackit/internal/repositories"
)

const (
	tasksCollection = "tasks"
	usersCollection = "users"
)

// DB はMongoDBクライアントと対象データベースを保持します。
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect はMongoDBに接続し、疎通を確認します。
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Error("mongo connection problem", "err", err)
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info("MongoDB connected", "database", database)
	return &DB{client: client, db: client.Database(database)}, nil
}

// Ping は接続を確認します。
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close は接続を閉じます。
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// EnsureIndexes はemailの一意インデックスを作成します。
func (d *DB) EnsureIndexes(ctx context.Context) error {
	_, err := d.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}
	return nil
}

// Drop はデータベースを削除します。テスト用です。
func (d *DB) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

// Store はこの接続を使うストア一式を返します。
func (d *DB) Store() *repositories.Store {
	return &repositories.Store{
		Tasks: NewTaskRepository(d),
		Users: NewUserRepository(d),
		Ping:  d.Ping,
		Close: d.Close,
	}
}
