package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/clock"
	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/metrics"
	"github.com/document-requests-api/internal/repository"
)

// ReviewService определяет интерфейс проверки загруженных документов
type ReviewService interface {
	Review(ctx context.Context, assignmentID int64, principal domain.Principal, decision domain.AssignmentStatus, note *string) (*domain.RequestAssignment, error)
}

type reviewService struct {
	assignments repository.AssignmentRepository
	notifier    Notifier
	audit       Auditor
	clock       clock.Clock
	logger      *slog.Logger
}

// NewReviewService создаёт новый экземпляр сервиса
func NewReviewService(
	assignments repository.AssignmentRepository,
	notifier Notifier,
	auditor Auditor,
	clk clock.Clock,
	logger *slog.Logger,
) ReviewService {
	return &reviewService{
		assignments: assignments,
		notifier:    notifier,
		audit:       auditor,
		clock:       clk,
		logger:      logger,
	}
}

func (s *reviewService) Review(ctx context.Context, assignmentID int64, principal domain.Principal, decision domain.AssignmentStatus, note *string) (*domain.RequestAssignment, error) {
	if !principal.Capabilities().CanReview() {
		return nil, domain.ErrReviewForbidden
	}

	var event domain.AssignmentEvent
	switch decision {
	case domain.AssignmentApproved:
		event = domain.EventApprove
	case domain.AssignmentRejected:
		event = domain.EventReject
	default:
		return nil, domain.ErrInvalidDecision
	}

	note = trimmedOrNil(note)
	if decision == domain.AssignmentRejected && note == nil {
		return nil, domain.ErrRejectionReasonRequired
	}

	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, domain.DependencyError("load assignment", err)
	}
	next, err := a.Status.Next(event)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	// Условие SUBMITTED повторно проверяется в UPDATE
	if err := s.assignments.Review(ctx, a.ID, next, principal.ID, note, now); err != nil {
		return nil, domain.DependencyError("store review", err)
	}

	a.Status = next
	a.ReviewedByID = ptr(principal.ID)
	a.ReviewedAt = ptr(now.UTC())
	a.ReviewNote = note
	metrics.AssignmentTransitionsTotal.WithLabelValues(string(next)).Inc()

	noteText := ""
	if note != nil {
		noteText = *note
	}
	s.notifier.AssignmentReviewed(ctx, a, next, noteText)

	requestTitle, employeeName := "", ""
	if a.Request != nil {
		requestTitle = a.Request.Title
	}
	if a.Employee != nil {
		employeeName = strings.TrimSpace(a.Employee.Name)
	}

	var payload domain.AuditPayload = domain.ApproveDocumentDetails{
		RequestTitle: requestTitle,
		EmployeeName: employeeName,
		Note:         noteText,
	}
	if next == domain.AssignmentRejected {
		payload = domain.RejectDocumentDetails{
			RequestTitle: requestTitle,
			EmployeeName: employeeName,
			Note:         noteText,
		}
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    ptr(principal.ID),
		EntityType: domain.EntityAssignment,
		EntityID:   ptr(a.ID),
		Payload:    payload,
	})

	s.logger.Info("assignment reviewed",
		slog.Int64("assignment_id", a.ID),
		slog.String("decision", string(next)),
		slog.Int64("reviewer_id", principal.ID),
	)
	return a, nil
}
