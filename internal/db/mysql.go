package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"photogallery/internal/model"
)

// NewMySQL returns a connected GORM DB instance. SQL logging follows the
// application's log level: statements are only printed at debug.
func NewMySQL(dsn, logLevel string) (*gorm.DB, error) {
	level := gormlogger.Warn
	if logLevel == "debug" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the gallery tables.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(&model.Group{}, &model.User{}, &model.Photo{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}
