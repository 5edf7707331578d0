package service

import (
	"context"
	"log/slog"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/clock"
	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/mailer"
	"github.com/document-requests-api/internal/notify"
	"github.com/document-requests-api/internal/repository"
)

// ReminderSelection - какие назначения получают ручное напоминание
type ReminderSelection struct {
	RequestID   *int64
	Department  *string
	EmployeeIDs []int64
	Statuses    []domain.AssignmentStatus
}

// ReminderResult - итог ручной рассылки
type ReminderResult struct {
	AssignmentCount int `json:"assignment_count"`
	RequestCount    int `json:"request_count"`
	EmailsQueued    int `json:"emails_queued"`
}

// ReminderService определяет интерфейс ручной рассылки напоминаний
type ReminderService interface {
	SendReminders(ctx context.Context, principal domain.Principal, selection ReminderSelection) (*ReminderResult, error)
}

type reminderService struct {
	assignments repository.AssignmentRepository
	notifier    Notifier
	audit       Auditor
	clock       clock.Clock
	logger      *slog.Logger
}

// NewReminderService создаёт новый экземпляр сервиса
func NewReminderService(
	assignments repository.AssignmentRepository,
	notifier Notifier,
	auditor Auditor,
	clk clock.Clock,
	logger *slog.Logger,
) ReminderService {
	return &reminderService{
		assignments: assignments,
		notifier:    notifier,
		audit:       auditor,
		clock:       clk,
		logger:      logger,
	}
}

func (s *reminderService) SendReminders(ctx context.Context, principal domain.Principal, selection ReminderSelection) (*ReminderResult, error) {
	scope, ok := principal.Capabilities().ReminderScope()
	if !ok {
		return nil, domain.ErrReminderForbidden
	}
	for _, st := range selection.Statuses {
		switch st {
		case domain.AssignmentPending, domain.AssignmentOverdue, domain.AssignmentRejected:
		default:
			return nil, domain.Validationf("Cannot send reminders for %s assignments", st)
		}
	}

	list, err := s.assignments.ListForReminder(ctx, repository.ReminderFilter{
		RequestID:   selection.RequestID,
		Department:  selection.Department,
		EmployeeIDs: uniqueIDs(selection.EmployeeIDs),
		Statuses:    selection.Statuses,
	}, scope)
	if err != nil {
		return nil, domain.DependencyError("select assignments", err)
	}
	if len(list) == 0 {
		return nil, domain.ErrNoReminderTargets
	}

	ids := make([]int64, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	if err := s.assignments.RecordReminders(ctx, ids, s.clock.Now()); err != nil {
		return nil, domain.DependencyError("record reminders", err)
	}

	groups := groupByRequest(list)
	queued := s.notifier.RemindersDispatched(ctx, groups, mailer.NewBatch())

	result := &ReminderResult{
		AssignmentCount: len(list),
		RequestCount:    len(groups),
		EmailsQueued:    queued,
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    ptr(principal.ID),
		EntityType: domain.EntityAssignment,
		Payload: domain.SendRemindersDetails{
			AssignmentCount: result.AssignmentCount,
			RequestCount:    result.RequestCount,
			EmailsQueued:    result.EmailsQueued,
			AssignmentIDs:   ids,
		},
	})

	s.logger.Info("reminders dispatched",
		slog.Int64("actor_id", principal.ID),
		slog.Int("assignments", result.AssignmentCount),
		slog.Int("requests", result.RequestCount),
		slog.Int("emails_queued", result.EmailsQueued),
	)
	return result, nil
}

// groupByRequest сохраняет порядок первых вхождений запросов
func groupByRequest(list []domain.RequestAssignment) []notify.ReminderGroup {
	index := make(map[int64]int)
	var groups []notify.ReminderGroup
	for _, a := range list {
		i, ok := index[a.RequestID]
		if !ok {
			req := a.Request
			if req == nil {
				req = &domain.DocumentRequest{ID: a.RequestID}
			}
			i = len(groups)
			index[a.RequestID] = i
			groups = append(groups, notify.ReminderGroup{Request: req})
		}
		groups[i].Assignments = append(groups[i].Assignments, a)
	}
	return groups
}
