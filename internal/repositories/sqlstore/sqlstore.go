// Package sqlstore はSQLデータベース(MySQL, PostgreSQL, SQLite)上のストアです。
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"trackit/internal/repositories"
)

// sqlxのドライバー名
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// DB はsqlx接続とドライバー名を保持します。
type DB struct {
	conn   *sqlx.DB
	driver string
}

// Open はデータベースに接続し、疎通を確認します。
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		log.Error("sql connection problem", "driver", driver, "err", err)
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// :memory: は接続ごとに別のDBになるため1本に絞る
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(25)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}
	return &DB{conn: conn, driver: driver}, nil
}

// Close は接続を閉じます。
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping は接続を確認します。
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Migrate はテーブルを作成します。既に存在する場合は何もしません。
func (db *DB) Migrate(ctx context.Context) error {
	log.Debug("running sql migrations", "driver", db.driver)
	for _, stmt := range schema(db.driver) {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	log.Debug("sql migrations finished")
	return nil
}

// Reset は全テーブルの行を削除します。テスト用です。
func (db *DB) Reset(ctx context.Context) error {
	for _, table := range []string{"tasks", "users"} {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Store はこの接続を使うストア一式を返します。
func (db *DB) Store() *repositories.Store {
	return &repositories.Store{
		Tasks: NewTaskRepository(db),
		Users: NewUserRepository(db),
		Ping:  db.Ping,
		Close: func(context.Context) error { return db.Close() },
	}
}

func schema(driver string) []string {
	ts := "DATETIME"
	if driver == DriverPostgres {
		ts = "TIMESTAMPTZ"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id VARCHAR(36) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			assigned_to VARCHAR(255) NOT NULL,
			status VARCHAR(64) NOT NULL,
			created_by VARCHAR(64) NOT NULL,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
	}
}

// isUniqueViolation はドライバーごとの一意制約違反を判定します。
func isUniqueViolation(err error) bool {
	// MySQLの重複エントリーエラーコード1062
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
