package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskmate/internal/model"
)

// NewDB opens the backing database and runs migrations. When databaseURL is
// set it connects to PostgreSQL, otherwise it falls back to a local SQLite
// file. Both engines expose the same schema and ordering semantics, so
// callers never know which one they got.
func NewDB(databaseURL, sqlitePath string, zlog *zap.Logger) (*gorm.DB, error) {
	dialector, err := buildDialector(databaseURL, sqlitePath)
	if err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		zap.NewStdLog(zlog),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.Task{}, &model.Message{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}

func buildDialector(databaseURL, sqlitePath string) (gorm.Dialector, error) {
	if databaseURL != "" {
		return postgres.Open(databaseURL), nil
	}
	if sqlitePath == "" {
		sqlitePath = "bot_data.db"
	}
	if err := ensureDirForSQLite(sqlitePath); err != nil {
		return nil, err
	}
	return sqlite.Open(sqlitePath), nil
}

// ensureDirForSQLite creates the parent dir for the SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
