// Package scheduler выполняет ежедневную обработку назначений:
// перевод просроченных в OVERDUE и напоминания о приближении срока.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/clock"
	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/mailer"
	"github.com/document-requests-api/internal/metrics"
	"github.com/document-requests-api/internal/notify"
	"github.com/document-requests-api/internal/repository"
)

// ErrAlreadyRunning возвращается, если предыдущий запуск ещё не завершён
var ErrAlreadyRunning = errors.New("scheduler: run already in progress")

// Notifier - уведомления, которые создаёт планировщик
type Notifier interface {
	AssignmentsOverdue(ctx context.Context, list []domain.RequestAssignment, batch *mailer.Batch)
	DeadlineApproaching(ctx context.Context, a *domain.RequestAssignment, days int, batch *mailer.Batch) error
}

// Auditor - журнал аудита
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

var (
	_ Notifier = (*notify.Dispatcher)(nil)
	_ Auditor  = (*audit.Sink)(nil)
)

// Options - параметры запуска
type Options struct {
	// Location задаёт границу "сегодня"; по умолчанию UTC
	Location *time.Location
	// Budget ограничивает длительность одного запуска; 0 - без ограничения
	Budget time.Duration
}

// Result - агрегированный итог запуска
type Result struct {
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	OverdueMarked    int           `json:"overdue_marked"`
	ReminderTiers    []int         `json:"reminder_tiers"`
	RemindersCreated int           `json:"reminders_created"`
	ReminderFailures int           `json:"reminder_failures"`
	EmailsSent       int           `json:"emails_sent"`
	EmailsFailed     int           `json:"emails_failed"`
	EmailsDropped    int           `json:"emails_dropped"`
	EmailsPending    int           `json:"emails_pending"`
}

// Scheduler - периодическая обработка назначений
type Scheduler struct {
	tx          repository.Transactor
	assignments repository.AssignmentRepository
	settings    repository.SettingRepository
	notifier    Notifier
	audit       Auditor
	clock       clock.Clock
	loc         *time.Location
	budget      time.Duration
	logger      *slog.Logger

	running sync.Mutex
}

// New создаёт планировщик
func New(
	tx repository.Transactor,
	assignments repository.AssignmentRepository,
	settings repository.SettingRepository,
	notifier Notifier,
	auditor Auditor,
	clk clock.Clock,
	opts Options,
	logger *slog.Logger,
) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		tx:          tx,
		assignments: assignments,
		settings:    settings,
		notifier:    notifier,
		audit:       auditor,
		clock:       clk,
		loc:         loc,
		budget:      opts.Budget,
		logger:      logger,
	}
}

// Run выполняет обе фазы. Сбой одной фазы не отменяет другую;
// ошибка возвращается вместе с частичным результатом.
// Текущий день берётся по календарю s.loc и сравнивается со сроками,
// хранящимися как полночь UTC.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	if !s.running.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Unlock()

	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	started := time.Now()
	now := s.clock.Now()
	today := clock.CalendarDay(now, s.loc)
	result := &Result{StartedAt: now}
	batch := mailer.NewBatch()

	overdueErr := s.markOverdue(ctx, today, batch, result)
	if overdueErr != nil {
		s.logger.Error("overdue sweep failed", slog.Any("error", overdueErr))
	}

	reminderErr := s.sendDeadlineReminders(ctx, today, batch, result)
	if reminderErr != nil {
		s.logger.Error("deadline reminders failed", slog.Any("error", reminderErr))
	}

	// Ожидание писем ограничено тем же бюджетом
	stats := batch.Wait(ctx)
	result.EmailsSent = stats.Sent
	result.EmailsFailed = stats.Failed
	result.EmailsDropped = stats.Dropped
	result.EmailsPending = stats.Pending
	result.Duration = time.Since(started)
	metrics.SchedulerRunDuration.Observe(result.Duration.Seconds())

	s.logger.Info("scheduler run finished",
		slog.Time("today", today),
		slog.Int("overdue_marked", result.OverdueMarked),
		slog.Any("reminder_tiers", result.ReminderTiers),
		slog.Int("reminders_created", result.RemindersCreated),
		slog.Int("reminder_failures", result.ReminderFailures),
		slog.Int("emails_sent", result.EmailsSent),
		slog.Int("emails_failed", result.EmailsFailed),
		slog.Int("emails_dropped", result.EmailsDropped),
		slog.Int("emails_pending", result.EmailsPending),
		slog.Duration("duration", result.Duration),
	)

	return result, errors.Join(overdueErr, reminderErr)
}

// markOverdue переводит в OVERDUE назначения PENDING со сроком раньше начала дня.
// Повторный запуск в тот же день ничего не находит.
func (s *Scheduler) markOverdue(ctx context.Context, today time.Time, batch *mailer.Batch, result *Result) error {
	var (
		list    []domain.RequestAssignment
		updated int64
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.assignments.ListPendingDueBefore(ctx, today)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(list))
		for _, a := range list {
			ids = append(ids, a.ID)
		}
		updated, err = s.assignments.MarkOverdue(ctx, ids)
		return err
	})
	if err != nil {
		return err
	}
	if updated == 0 {
		return nil
	}
	if int(updated) != len(list) {
		s.logger.Warn("overdue sweep updated fewer rows than selected",
			slog.Int("selected", len(list)),
			slog.Int64("updated", updated),
		)
	}

	result.OverdueMarked = int(updated)
	metrics.SchedulerAssignmentsTotal.WithLabelValues("overdue").Add(float64(updated))
	metrics.AssignmentTransitionsTotal.WithLabelValues(string(domain.AssignmentOverdue)).Add(float64(updated))

	summary := make([]domain.OverdueAssignment, 0, len(list))
	for i := range list {
		list[i].Status = domain.AssignmentOverdue
		title := ""
		if list[i].Request != nil {
			title = list[i].Request.Title
		}
		summary = append(summary, domain.OverdueAssignment{
			AssignmentID: list[i].ID,
			EmployeeID:   list[i].EmployeeID,
			RequestTitle: title,
			DueDate:      list[i].DueDate,
		})
	}

	s.notifier.AssignmentsOverdue(ctx, list, batch)
	s.audit.Record(ctx, audit.Entry{
		EntityType: domain.EntityAssignment,
		Payload: domain.MarkOverdueDetails{
			OverdueCount: int(updated),
			Assignments:  summary,
		},
	})
	return nil
}

// sendDeadlineReminders создаёт DEADLINE_APPROACHING для каждого уровня из настройки.
// Статусы не меняются. Ошибка по одному назначению не прерывает обработку остальных.
func (s *Scheduler) sendDeadlineReminders(ctx context.Context, today time.Time, batch *mailer.Batch, result *Result) error {
	result.ReminderTiers = s.reminderDays(ctx)

	for _, days := range result.ReminderTiers {
		from := today.AddDate(0, 0, days)
		to := from.AddDate(0, 0, 1)

		list, err := s.assignments.ListPendingDueBetween(ctx, from, to)
		if err != nil {
			return err
		}

		for i := range list {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.notifier.DeadlineApproaching(ctx, &list[i], days, batch); err != nil {
				result.ReminderFailures++
				s.logger.Warn("failed to create deadline reminder",
					slog.Int64("assignment_id", list[i].ID),
					slog.Int("days", days),
					slog.Any("error", err),
				)
				continue
			}
			result.RemindersCreated++
			metrics.SchedulerAssignmentsTotal.WithLabelValues("reminder").Inc()
		}
	}
	return nil
}

// reminderDays читает настройку один раз за запуск
func (s *Scheduler) reminderDays(ctx context.Context) []int {
	value, found, err := s.settings.Get(ctx, domain.SettingReminderDaysBefore)
	if err != nil {
		s.logger.Warn("failed to read reminder setting, using default",
			slog.String("key", domain.SettingReminderDaysBefore),
			slog.Any("error", err),
		)
		return ParseReminderDays(domain.DefaultReminderDaysBefore)
	}
	if !found {
		value = domain.DefaultReminderDaysBefore
	}
	return ParseReminderDays(value)
}
