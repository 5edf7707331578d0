package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Runner запускает планировщик раз в сутки в заданный час
type Runner struct {
	scheduler *Scheduler
	hour      int
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner создаёт ежедневный запуск в hour часов по loc
func NewRunner(s *Scheduler, hour int, loc *time.Location, logger *slog.Logger) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{
		scheduler: s,
		hour:      hour,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// NextRun возвращает ближайший момент hour:00 по loc строго после now
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}

// Start блокируется до отмены ctx
func (r *Runner) Start(ctx context.Context) {
	for {
		next := NextRun(r.now(), r.hour, r.loc)
		r.logger.Info("next scheduler run", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("scheduler runner stopped")
			return
		case <-timer.C:
		}

		if _, err := r.scheduler.Run(ctx); err != nil {
			if errors.Is(err, ErrAlreadyRunning) {
				r.logger.Warn("skipping scheduled run, previous run still active")
				continue
			}
			r.logger.Error("scheduled run finished with errors", slog.Any("error", err))
		}
	}
}
