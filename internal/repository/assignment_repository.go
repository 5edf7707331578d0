package repository

import (
	"context"
	"errors"
	"time"

	"github.com/document-requests-api/internal/domain"
	"gorm.io/gorm"
)

// ReminderFilter - выборка назначений для ручной рассылки напоминаний
type ReminderFilter struct {
	RequestID   *int64
	Department  *string
	EmployeeIDs []int64
	Statuses    []domain.AssignmentStatus
}

// AssignmentRepository определяет интерфейс для работы с назначениями
type AssignmentRepository interface {
	CreateBatch(ctx context.Context, assignments []domain.RequestAssignment) error
	GetByID(ctx context.Context, id int64) (*domain.RequestAssignment, error)
	ListByRequest(ctx context.Context, requestID int64) ([]domain.RequestAssignment, error)
	// TransitionStatus меняет статус, только если текущий входит в from
	TransitionStatus(ctx context.Context, id int64, from []domain.AssignmentStatus, to domain.AssignmentStatus) error
	Review(ctx context.Context, id int64, decision domain.AssignmentStatus, reviewerID int64, note *string, at time.Time) error
	ListPendingDueBefore(ctx context.Context, before time.Time) ([]domain.RequestAssignment, error)
	ListPendingDueBetween(ctx context.Context, from, to time.Time) ([]domain.RequestAssignment, error)
	MarkOverdue(ctx context.Context, ids []int64) (int64, error)
	ListForReminder(ctx context.Context, filter ReminderFilter, scope domain.Scope) ([]domain.RequestAssignment, error)
	RecordReminders(ctx context.Context, ids []int64, at time.Time) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository создаёт новый экземпляр репозитория
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) CreateBatch(ctx context.Context, assignments []domain.RequestAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return conn(ctx, r.db).Omit("Request", "Employee", "Documents").CreateInBatches(&assignments, 200).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, id int64) (*domain.RequestAssignment, error) {
	var a domain.RequestAssignment
	err := conn(ctx, r.db).
		Preload("Request").
		Preload("Employee").
		First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) ListByRequest(ctx context.Context, requestID int64) ([]domain.RequestAssignment, error) {
	var list []domain.RequestAssignment
	err := conn(ctx, r.db).
		Preload("Employee").
		Where("request_id = ?", requestID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepository) TransitionStatus(ctx context.Context, id int64, from []domain.AssignmentStatus, to domain.AssignmentStatus) error {
	result := conn(ctx, r.db).
		Model(&domain.RequestAssignment{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// Review фиксирует решение. Условие status = SUBMITTED проверяется в том же UPDATE.
func (r *assignmentRepository) Review(ctx context.Context, id int64, decision domain.AssignmentStatus, reviewerID int64, note *string, at time.Time) error {
	result := conn(ctx, r.db).
		Model(&domain.RequestAssignment{}).
		Where("id = ? AND status = ?", id, domain.AssignmentSubmitted).
		Updates(map[string]any{
			"status":         decision,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    at.UTC(),
			"review_note":    note,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotSubmitted
	}
	return nil
}

func (r *assignmentRepository) ListPendingDueBefore(ctx context.Context, before time.Time) ([]domain.RequestAssignment, error) {
	var list []domain.RequestAssignment
	err := conn(ctx, r.db).
		Preload("Request").
		Preload("Employee").
		Where("status = ? AND due_date < ?", domain.AssignmentPending, before.UTC()).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// ListPendingDueBetween возвращает назначения со сроком в [from, to)
func (r *assignmentRepository) ListPendingDueBetween(ctx context.Context, from, to time.Time) ([]domain.RequestAssignment, error) {
	var list []domain.RequestAssignment
	err := conn(ctx, r.db).
		Preload("Request").
		Preload("Employee").
		Where("status = ? AND due_date >= ? AND due_date < ?", domain.AssignmentPending, from.UTC(), to.UTC()).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// MarkOverdue переводит в OVERDUE только те строки, которые всё ещё PENDING
func (r *assignmentRepository) MarkOverdue(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := conn(ctx, r.db).
		Model(&domain.RequestAssignment{}).
		Where("id IN ? AND status = ?", ids, domain.AssignmentPending).
		Update("status", domain.AssignmentOverdue)
	return result.RowsAffected, result.Error
}

func (r *assignmentRepository) ListForReminder(ctx context.Context, filter ReminderFilter, scope domain.Scope) ([]domain.RequestAssignment, error) {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = []domain.AssignmentStatus{domain.AssignmentPending, domain.AssignmentOverdue}
	}

	query := conn(ctx, r.db).
		Joins("JOIN document_requests ON document_requests.id = request_assignments.request_id").
		Joins("JOIN users ON users.id = request_assignments.employee_id").
		Preload("Request").
		Preload("Employee").
		Where("document_requests.status = ?", domain.RequestOpen).
		Where("users.is_active = ?", true).
		Where("request_assignments.status IN ?", statuses)

	if filter.RequestID != nil {
		query = query.Where("request_assignments.request_id = ?", *filter.RequestID)
	}
	if filter.Department != nil {
		query = query.Where("users.department = ?", *filter.Department)
	}
	if len(filter.EmployeeIDs) > 0 {
		query = query.Where("request_assignments.employee_id IN ?", filter.EmployeeIDs)
	}

	// Ограничения видимости принципала
	if scope.CreatedByID != nil {
		query = query.Where("document_requests.created_by_id = ?", *scope.CreatedByID)
	}
	if scope.Department != nil {
		query = query.Where("users.department = ?", *scope.Department)
	}

	var list []domain.RequestAssignment
	err := query.Order("request_assignments.request_id ASC, request_assignments.id ASC").Find(&list).Error
	return list, err
}

func (r *assignmentRepository) RecordReminders(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db).
		Model(&domain.RequestAssignment{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"reminder_count":   gorm.Expr("reminder_count + 1"),
			"last_reminder_at": at.UTC(),
		}).Error
}
