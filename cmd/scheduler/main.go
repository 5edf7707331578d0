// Команда scheduler выполняет один проход планировщика и завершается.
// Предназначена для запуска из cron, когда встроенный запуск в API отключён.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/bootstrap"
	"github.com/document-requests-api/internal/clock"
	"github.com/document-requests-api/internal/config"
	"github.com/document-requests-api/internal/metrics"
	"github.com/document-requests-api/internal/notify"
	"github.com/document-requests-api/internal/repository"
	"github.com/document-requests-api/internal/scheduler"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("scheduler run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return err
	}

	db, err := bootstrap.ConnectDB(cfg.Database)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := bootstrap.RunMigrations(sqlDB); err != nil {
		return err
	}

	metrics.Register()
	mailQueue := bootstrap.NewMailQueue(cfg.Mail, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := mailQueue.Shutdown(ctx); err != nil {
			logger.Error("mail queue did not drain", slog.Any("error", err))
		}
	}()

	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	dispatcher := notify.NewDispatcher(repository.NewNotificationRepository(db), userRepo, mailQueue, cfg.Mail.AppURL, logger)
	sink := audit.NewSink(repository.NewAuditRepository(db), logger)

	sched := scheduler.New(
		repository.NewTransactor(db),
		assignmentRepo,
		repository.NewSettingRepository(db),
		dispatcher,
		sink,
		clock.Real{},
		scheduler.Options{Location: loc, Budget: cfg.Scheduler.Budget},
		logger,
	)

	_, err = sched.Run(context.Background())
	return err
}
