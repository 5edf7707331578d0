package service

import (
	"context"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/mailer"
	"github.com/document-requests-api/internal/notify"
)

// Notifier - рассылка уведомлений о переходах состояний
type Notifier interface {
	DocumentSubmitted(ctx context.Context, a *domain.RequestAssignment, doc *domain.Document)
	AssignmentReviewed(ctx context.Context, a *domain.RequestAssignment, decision domain.AssignmentStatus, note string)
	RequestCreated(ctx context.Context, req *domain.DocumentRequest, assignees []domain.User)
	RequestCancelled(ctx context.Context, req *domain.DocumentRequest, assignees []domain.User)
	RemindersDispatched(ctx context.Context, groups []notify.ReminderGroup, batch *mailer.Batch) int
}

// Auditor - журнал аудита
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

var (
	_ Notifier = (*notify.Dispatcher)(nil)
	_ Auditor  = (*audit.Sink)(nil)
)

func ptr[T any](v T) *T {
	return &v
}
