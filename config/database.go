package config

import (
	"fmt"
	"time"

	"yogastore-backend/store"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	return db, nil
}

// NewStore opens the document store selected by STORE_DRIVER and migrates
// it when it is backed by Postgres.
func NewStore(cfg *Config) (store.Store, error) {
	if cfg.StoreDriver == DriverMemory {
		logrus.Warn("using the in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	db, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	gs := store.NewGormStore(db)
	if err := gs.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return gs, nil
}
