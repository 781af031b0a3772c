package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"testhub/internal/config"
	"testhub/internal/logger"
	"testhub/internal/model"
)

var DB *gorm.DB

// InitDB opens the configured database into DB and migrates it.
func InitDB(cfg *config.Config) error {
	conn, err := Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := Migrate(conn); err != nil {
		return err
	}
	DB = conn

	logger.L.Infow("database ready", "driver", cfg.Database.Driver)
	return nil
}

// Open connects without migrating.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "testhub.db"
		}
		dialector = sqlite.Open(path)
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
		)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, Options())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite has a single writer, and every ":memory:" connection is its own database.
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return conn, nil
}

// Options is the gorm configuration shared by every connection, tests included.
// Writes are single statements unless a service opens a transaction itself.
func Options() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// gormWriter sends gorm's slow query and error lines to the global logger.
// logger.L is read on every call so a later logger.Init still applies.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.L.Warnf(format, args...)
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.Module{},
		&model.TestSuite{},
		&model.TestCase{},
		&model.TestExecution{},
		&model.TestRun{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
