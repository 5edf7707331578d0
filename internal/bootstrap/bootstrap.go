// Package bootstrap собирает общие для исполняемых файлов зависимости:
// подключение к БД, миграции, хранилище файлов и почту.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/document-requests-api/internal/config"
	"github.com/document-requests-api/internal/mailer"
	"github.com/document-requests-api/internal/migrations"
	"github.com/document-requests-api/internal/storage"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectAttempts = 30

// ConnectDB открывает PostgreSQL, повторяя попытки, пока БД не станет доступна
func ConnectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
			TranslateError: true,
		})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil && sqlDB.Ping() == nil {
				return db, nil
			}
			err = dbErr
		}
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, err)
}

// RunMigrations применяет встроенные миграции
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// NewFileStore выбирает хранилище файлов по настройке driver
func NewFileStore(ctx context.Context, cfg config.StorageConfig) (storage.FileStore, error) {
	switch cfg.Driver {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Prefix:    cfg.Prefix,
		})
	case "local":
		return storage.NewLocalStore(cfg.LocalRoot)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewMailQueue создаёт и запускает очередь писем.
// Без SMTP хоста письма только пишутся в лог.
func NewMailQueue(cfg config.MailConfig, logger *slog.Logger) *mailer.Queue {
	var m mailer.Mailer = mailer.LogMailer{Logger: logger}
	if cfg.Host != "" {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
		})
	} else {
		logger.Warn("SMTP_HOST is not set, emails will only be logged")
	}

	queue := mailer.NewQueue(m, cfg.QueueSize, cfg.RatePerSecond, logger)
	queue.Start()
	return queue
}
