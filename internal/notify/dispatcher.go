package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/mailer"
	"github.com/document-requests-api/internal/metrics"
	"github.com/document-requests-api/internal/repository"
)

// EmailQueue - очередь исходящих писем
type EmailQueue interface {
	Enqueue(msg mailer.Message, batch *mailer.Batch) bool
}

// Dispatcher превращает переход состояния в уведомления и письма.
// Уведомления сохраняются синхронно, письма уходят через очередь.
// Ни одна ошибка не возвращается вызывающему.
type Dispatcher struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	emails        EmailQueue
	baseURL       string
	logger        *slog.Logger
}

// NewDispatcher создаёт новый экземпляр рассылки
func NewDispatcher(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	emails EmailQueue,
	baseURL string,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		users:         users,
		emails:        emails,
		baseURL:       strings.TrimRight(baseURL, "/"),
		logger:        logger,
	}
}

// RequestLink - ссылка на страницу запроса
func RequestLink(requestID int64) string {
	return fmt.Sprintf("/requests/%d", requestID)
}

const dateLayout = "2006-01-02"

// DocumentSubmitted уведомляет всех активных ADMIN и HR о новой загрузке
func (d *Dispatcher) DocumentSubmitted(ctx context.Context, a *domain.RequestAssignment, doc *domain.Document) {
	reviewers, err := d.reviewers(ctx)
	if err != nil {
		return
	}
	title := "New submission"
	message := fmt.Sprintf("%s submitted %q (version %d) for %q",
		employeeName(a), doc.FileName, doc.Version, requestTitle(a))
	link := RequestLink(a.RequestID)

	d.persist(ctx, notificationsFor(reviewers, domain.NotificationSubmission, title, message, link))
	d.email(emailsOf(reviewers), title, message, link, nil)
}

// AssignmentReviewed уведомляет сотрудника о решении
func (d *Dispatcher) AssignmentReviewed(ctx context.Context, a *domain.RequestAssignment, decision domain.AssignmentStatus, note string) {
	var (
		kind    domain.NotificationType
		title   string
		message string
	)
	if decision == domain.AssignmentApproved {
		kind = domain.NotificationApproved
		title = "Submission approved"
		message = fmt.Sprintf("Your submission for %q was approved", requestTitle(a))
	} else {
		kind = domain.NotificationRejected
		title = "Submission rejected"
		message = fmt.Sprintf("Your submission for %q was rejected. Reason: %s", requestTitle(a), note)
	}
	link := RequestLink(a.RequestID)

	d.persist(ctx, []domain.Notification{{UserID: a.EmployeeID, Type: kind, Title: title, Message: message, Link: link}})
	if a.Employee != nil {
		d.email([]string{a.Employee.Email}, title, message, link, nil)
	}
}

// RequestCreated уведомляет каждого назначенного сотрудника
func (d *Dispatcher) RequestCreated(ctx context.Context, req *domain.DocumentRequest, assignees []domain.User) {
	title := "New document request"
	message := fmt.Sprintf("You have a new document request: %q (due %s)", req.Title, req.Deadline.Format(dateLayout))
	link := RequestLink(req.ID)

	d.persist(ctx, notificationsFor(assignees, domain.NotificationNewRequest, title, message, link))
	for _, u := range assignees {
		d.email([]string{u.Email}, title, message, link, nil)
	}
}

// RequestCancelled уведомляет каждого назначенного сотрудника об отмене
func (d *Dispatcher) RequestCancelled(ctx context.Context, req *domain.DocumentRequest, assignees []domain.User) {
	title := "Document request cancelled"
	message := fmt.Sprintf("The document request %q was cancelled", req.Title)
	link := RequestLink(req.ID)

	d.persist(ctx, notificationsFor(assignees, domain.NotificationRequestCancelled, title, message, link))
	d.email(emailsOf(assignees), title, message, link, nil)
}

// AssignmentsOverdue уведомляет сотрудников о просрочке, а ADMIN и HR - сводкой.
// Письма сотрудникам попадают в batch.
func (d *Dispatcher) AssignmentsOverdue(ctx context.Context, list []domain.RequestAssignment, batch *mailer.Batch) {
	if len(list) == 0 {
		return
	}

	notifications := make([]domain.Notification, 0, len(list))
	for i := range list {
		a := &list[i]
		title := "Document overdue"
		message := fmt.Sprintf("%q is overdue (due %s)", requestTitle(a), a.DueDate.Format(dateLayout))
		link := RequestLink(a.RequestID)
		notifications = append(notifications, domain.Notification{
			UserID: a.EmployeeID, Type: domain.NotificationOverdue, Title: title, Message: message, Link: link,
		})
		if a.Employee != nil {
			d.email([]string{a.Employee.Email}, title, message, link, batch)
		}
	}

	if reviewers, err := d.reviewers(ctx); err == nil {
		message := fmt.Sprintf("%d assignment(s) became overdue", len(list))
		notifications = append(notifications,
			notificationsFor(reviewers, domain.NotificationOverdue, "Overdue assignments", message, "/requests")...)
	}

	d.persist(ctx, notifications)
}

// DeadlineApproaching напоминает сотруднику о приближении срока
func (d *Dispatcher) DeadlineApproaching(ctx context.Context, a *domain.RequestAssignment, days int, batch *mailer.Batch) error {
	title := "Deadline approaching"
	message := fmt.Sprintf("%q is due in %d day(s)", requestTitle(a), days)
	link := RequestLink(a.RequestID)

	err := d.persist(ctx, []domain.Notification{{
		UserID: a.EmployeeID, Type: domain.NotificationDeadlineApproaching, Title: title, Message: message, Link: link,
	}})
	if a.Employee != nil {
		d.email([]string{a.Employee.Email}, title, message, link, batch)
	}
	return err
}

// ReminderGroup - назначения одного запроса для ручного напоминания
type ReminderGroup struct {
	Request     *domain.DocumentRequest
	Assignments []domain.RequestAssignment
}

// RemindersDispatched создаёт REMINDER уведомление каждому получателю
// и одно письмо на запрос со всеми получателями группы.
func (d *Dispatcher) RemindersDispatched(ctx context.Context, groups []ReminderGroup, batch *mailer.Batch) int {
	queued := 0
	var notifications []domain.Notification
	for _, g := range groups {
		title := "Reminder: documents required"
		message := fmt.Sprintf("Please submit %q by %s", g.Request.Title, g.Request.Deadline.Format(dateLayout))
		link := RequestLink(g.Request.ID)

		recipients := make([]string, 0, len(g.Assignments))
		for _, a := range g.Assignments {
			notifications = append(notifications, domain.Notification{
				UserID: a.EmployeeID, Type: domain.NotificationReminder, Title: title, Message: message, Link: link,
			})
			if a.Employee != nil && a.Employee.Email != "" {
				recipients = append(recipients, a.Employee.Email)
			}
		}
		if d.email(recipients, title, message, link, batch) {
			queued++
		}
	}
	d.persist(ctx, notifications)
	return queued
}

func (d *Dispatcher) reviewers(ctx context.Context) ([]domain.User, error) {
	users, err := d.users.ListActiveByRoles(ctx, domain.RoleAdmin, domain.RoleHR)
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("notification").Inc()
		d.logger.Error("failed to load reviewers for notification", slog.Any("error", err))
		return nil, err
	}
	return users, nil
}

func (d *Dispatcher) persist(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := d.notifications.CreateBatch(ctx, notifications); err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("notification").Inc()
		d.logger.Error("failed to persist notifications",
			slog.Int("count", len(notifications)),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func (d *Dispatcher) email(to []string, title, message, link string, batch *mailer.Batch) bool {
	if len(to) == 0 {
		return false
	}
	url := ""
	if link != "" && d.baseURL != "" {
		url = d.baseURL + link
	}
	return d.emails.Enqueue(mailer.Message{
		To:      to,
		Subject: title,
		HTML:    renderEmail(title, message, url),
	}, batch)
}

func notificationsFor(users []domain.User, kind domain.NotificationType, title, message, link string) []domain.Notification {
	list := make([]domain.Notification, 0, len(users))
	for _, u := range users {
		list = append(list, domain.Notification{UserID: u.ID, Type: kind, Title: title, Message: message, Link: link})
	}
	return list
}

func emailsOf(users []domain.User) []string {
	emails := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	return emails
}

func requestTitle(a *domain.RequestAssignment) string {
	if a.Request != nil {
		return a.Request.Title
	}
	return fmt.Sprintf("request #%d", a.RequestID)
}

func employeeName(a *domain.RequestAssignment) string {
	if a.Employee != nil {
		return a.Employee.Name
	}
	return fmt.Sprintf("employee #%d", a.EmployeeID)
}
