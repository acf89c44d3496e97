package database

import (
	"embed"
	"fmt"

	"edgeguard/internal/models"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

func dialector(config models.SQLConfiguration) (gorm.Dialector, string) {
	if config.Driver == "sqlite" {
		return sqlite.Open(config.Name), "sqlite3"
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		config.Host, config.User, config.Password, config.Name, config.Port, sslMode,
	)
	return postgres.Open(dsn), "postgres"
}

func InitDB(config models.SQLConfiguration) *gorm.DB {
	dial, gooseDialect := dialector(config)

	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.String("driver", config.Driver), zap.Error(err))
	}

	if err = RunMigrations(db, gooseDialect); err != nil {
		zap.L().Fatal("Failed to run database migrations", zap.Error(err))
	}

	return db
}

// RunMigrations applies the embedded schema with goose.
func RunMigrations(db *gorm.DB, dialect string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(zap.NewStdLog(zap.L()))
	if err = goose.SetDialect(dialect); err != nil {
		return err
	}

	if err = goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err == nil {
		zap.L().Info("Database schema up to date", zap.Int64("version", version))
	}
	return nil
}
