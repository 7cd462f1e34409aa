// Package database は設定に応じてストアを初期化します。
package database

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"trackit/internal/config"
	"trackit/internal/repositories"
	"trackit/internal/repositories/memstore"
	"trackit/internal/repositories/mongostore"
	"trackit/internal/repositories/sqlstore"
)

// sqlDrivers はSTORE_DRIVERからsqlxのドライバー名への対応です。
var sqlDrivers = map[string]string{
	config.DriverMySQL:    sqlstore.DriverMySQL,
	config.DriverPostgres: sqlstore.DriverPostgres,
	config.DriverSQLite:   sqlstore.DriverSQLite,
}

// Open はストアに接続し、インデックスやテーブルを準備します。
func Open(ctx context.Context, cfg config.Config) (*repositories.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil

	case config.DriverMongo:
		db, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
		return db.Store(), nil
	}

	driver, ok := sqlDrivers[cfg.StoreDriver]
	if !ok {
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	db, err := sqlstore.Open(ctx, driver, cfg.DB.DSN(cfg.StoreDriver))
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}
	log.Info("Successfully connected to SQL database!", "driver", driver)
	return db.Store(), nil
}
