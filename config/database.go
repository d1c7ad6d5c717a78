package config

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"real-time-messenger/config/common"
	"real-time-messenger/config/logger"
	"real-time-messenger/repository"
)

type DBConfig struct {
	*gorm.DB
	*logger.AppLogger
}

func NewDB(config *common.Config, log *logger.AppLogger) (*DBConfig, error) {
	db, err := initDatabase(config, log)
	if err != nil {
		return nil, err
	}
	return &DBConfig{DB: db, AppLogger: log}, nil
}

func (db *DBConfig) GetDB() *gorm.DB {
	return db.DB
}

func (db *DBConfig) Close() error {
	conn, err := db.DB.DB()
	if err != nil {
		return err
	}
	return conn.Close()
}

func dialector(cfg *common.Config) (gorm.Dialector, error) {
	switch driver := cfg.GetDatabaseDriver(); driver {
	case "postgres":
		dbHost, dbUser, dbPassword, dbName, dbPort := cfg.GetDatabaseConfig()
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
			dbHost, dbUser, dbPassword, dbName, dbPort, cfg.GetDatabaseTimezone(),
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.GetSQLitePath() + "?_foreign_keys=on&_busy_timeout=5000"), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func initDatabase(cfg *common.Config, log *logger.AppLogger) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, repository.GormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Http.Info.Info().Str("driver", cfg.GetDatabaseDriver()).Msg("Connection opened to database")

	conn, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("run migration: %w", err)
	}

	if cfg.GetDatabaseDriver() == "sqlite" {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxIdleConns(10)
		conn.SetMaxOpenConns(100)
	}
	conn.SetConnMaxLifetime(time.Second * time.Duration(300))
	return db, nil
}
