package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/bootstrap"
	"github.com/document-requests-api/internal/clock"
	"github.com/document-requests-api/internal/config"
	"github.com/document-requests-api/internal/handler"
	"github.com/document-requests-api/internal/metrics"
	"github.com/document-requests-api/internal/notify"
	"github.com/document-requests-api/internal/repository"
	"github.com/document-requests-api/internal/scheduler"
	"github.com/document-requests-api/internal/service"
)

func main() {
	// Инициализация логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Подключение к БД
	db, err := bootstrap.ConnectDB(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("failed to get sql.DB", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Запуск миграций
	if err := bootstrap.RunMigrations(sqlDB); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	files, err := bootstrap.NewFileStore(context.Background(), cfg.Storage)
	if err != nil {
		logger.Error("failed to init file storage", slog.String("driver", cfg.Storage.Driver), slog.Any("error", err))
		os.Exit(1)
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		logger.Error("invalid scheduler timezone", slog.Any("error", err))
		os.Exit(1)
	}

	metrics.Register()
	mailQueue := bootstrap.NewMailQueue(cfg.Mail, logger)

	// Инициализация репозиториев
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	dispatcher := notify.NewDispatcher(notificationRepo, userRepo, mailQueue, cfg.Mail.AppURL, logger)
	sink := audit.NewSink(auditRepo, logger)
	clk := clock.Real{}

	// Инициализация сервисов
	requestService := service.NewRequestService(tx, requestRepo, assignmentRepo, userRepo, dispatcher, sink, clk, logger)
	submissionService := service.NewSubmissionService(tx, assignmentRepo, documentRepo, files, dispatcher, sink, logger)
	reviewService := service.NewReviewService(assignmentRepo, dispatcher, sink, clk, logger)
	reminderService := service.NewReminderService(assignmentRepo, dispatcher, sink, clk, logger)
	notificationService := service.NewNotificationService(notificationRepo)
	auditService := service.NewAuditService(auditRepo)

	sched := scheduler.New(tx, assignmentRepo, settingRepo, dispatcher, sink, clk, scheduler.Options{
		Location: loc,
		Budget:   cfg.Scheduler.Budget,
	}, logger)

	// Инициализация хендлеров
	router := handler.NewRouter(handler.Handlers{
		Requests:      handler.NewRequestHandler(requestService, reminderService, logger),
		Assignments:   handler.NewAssignmentHandler(submissionService, reviewService, cfg.Server.MaxUploadMB, logger),
		Documents:     handler.NewDocumentHandler(submissionService, logger),
		Notifications: handler.NewNotificationHandler(notificationService, logger),
		Admin:         handler.NewAdminHandler(sched, auditService, logger),
	}, handler.RouterConfig{
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		TrustProxy: cfg.Server.TrustProxy,
	}, logger)

	// Настройка HTTP сервера
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	runnerCtx, stopRunner := context.WithCancel(context.Background())
	var runnerWG sync.WaitGroup
	if cfg.Scheduler.Enabled {
		runner := scheduler.NewRunner(sched, cfg.Scheduler.RunHour, loc, logger)
		runnerWG.Add(1)
		go func() {
			defer runnerWG.Done()
			runner.Start(runnerCtx)
		}()
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("could not gracefully shutdown the server", slog.Any("error", err))
		}

		stopRunner()
		runnerWG.Wait()

		if err := mailQueue.Shutdown(ctx); err != nil {
			logger.Error("mail queue did not drain", slog.Any("error", err))
		}
		close(done)
	}()

	logger.Info("server is starting", slog.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}
