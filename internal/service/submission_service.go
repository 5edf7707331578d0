package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/metrics"
	"github.com/document-requests-api/internal/repository"
	"github.com/document-requests-api/internal/storage"
	"gorm.io/gorm"
)

// maxVersionAttempts - число попыток при конфликте номера версии
const maxVersionAttempts = 3

// uploadableStatuses - состояния, из которых разрешена загрузка
var uploadableStatuses = []domain.AssignmentStatus{
	domain.AssignmentPending,
	domain.AssignmentOverdue,
	domain.AssignmentSubmitted,
	domain.AssignmentRejected,
}

// FileUpload - загружаемый файл
type FileUpload struct {
	FileName string
	Data     []byte
}

// SubmissionService определяет интерфейс загрузки и удаления версий документов
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID int64, principal domain.Principal, file FileUpload, note *string) (*domain.Document, error)
	DeleteDocument(ctx context.Context, documentID int64, principal domain.Principal) error
	ListDocuments(ctx context.Context, assignmentID int64, principal domain.Principal) ([]domain.Document, error)
	Download(ctx context.Context, documentID int64, principal domain.Principal) (*domain.Document, []byte, error)
}

type submissionService struct {
	tx          repository.Transactor
	assignments repository.AssignmentRepository
	documents   repository.DocumentRepository
	files       storage.FileStore
	notifier    Notifier
	audit       Auditor
	logger      *slog.Logger
}

// NewSubmissionService создаёт новый экземпляр сервиса
func NewSubmissionService(
	tx repository.Transactor,
	assignments repository.AssignmentRepository,
	documents repository.DocumentRepository,
	files storage.FileStore,
	notifier Notifier,
	auditor Auditor,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		tx:          tx,
		assignments: assignments,
		documents:   documents,
		files:       files,
		notifier:    notifier,
		audit:       auditor,
		logger:      logger,
	}
}

func (s *submissionService) Submit(ctx context.Context, assignmentID int64, principal domain.Principal, file FileUpload, note *string) (*domain.Document, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, domain.DependencyError("load assignment", err)
	}

	if !canUpload(principal, a) {
		return nil, domain.ErrNotAssignmentOwner
	}

	// Guard-условия конечного автомата
	if a.Request == nil || !a.Request.Status.AcceptsUploads() {
		return nil, domain.ErrRequestClosed
	}
	if _, err := a.Status.Next(domain.EventUpload); err != nil {
		return nil, err
	}

	mimeType, err := validateFile(a.Request, file)
	if err != nil {
		return nil, err
	}

	fileName := strings.TrimSpace(file.FileName)
	if fileName == "" {
		fileName = "document"
	}
	path, err := s.files.Save(ctx, file.Data, fmt.Sprintf("assignments/%d/%s", a.ID, fileName))
	if err != nil {
		return nil, domain.DependencyError("save file", err)
	}

	doc := &domain.Document{
		AssignmentID: a.ID,
		FileName:     fileName,
		FilePath:     path,
		FileSize:     int64(len(file.Data)),
		MimeType:     mimeType,
		Note:         trimmedOrNil(note),
		IsLatest:     true,
		UploadedByID: principal.ID,
	}

	if err := s.persistVersion(ctx, doc); err != nil {
		// Файл без строки в БД никому не нужен
		if delErr := s.files.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			s.logger.Warn("failed to remove orphaned file", slog.String("path", path), slog.Any("error", delErr))
		}
		return nil, err
	}

	a.Status = domain.AssignmentSubmitted
	metrics.AssignmentTransitionsTotal.WithLabelValues(string(domain.AssignmentSubmitted)).Inc()

	s.notifier.DocumentSubmitted(ctx, a, doc)
	s.audit.Record(ctx, audit.Entry{
		ActorID:    ptr(principal.ID),
		EntityType: domain.EntityDocument,
		EntityID:   ptr(doc.ID),
		Payload: domain.UploadDocumentDetails{
			FileName:     doc.FileName,
			RequestTitle: a.Request.Title,
			Version:      doc.Version,
		},
	})

	return doc, nil
}

// persistVersion атомарно снимает признак последней версии, создаёт новую версию
// и переводит назначение в SUBMITTED. Конфликт номера версии повторяется.
func (s *submissionService) persistVersion(ctx context.Context, doc *domain.Document) error {
	var err error
	for attempt := 1; attempt <= maxVersionAttempts; attempt++ {
		doc.ID = 0
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			version, err := s.documents.NextVersion(ctx, doc.AssignmentID)
			if err != nil {
				return err
			}
			doc.Version = version

			if err := s.documents.ClearLatest(ctx, doc.AssignmentID); err != nil {
				return err
			}
			if err := s.documents.Create(ctx, doc); err != nil {
				return err
			}
			err = s.assignments.TransitionStatus(ctx, doc.AssignmentID, uploadableStatuses, domain.AssignmentSubmitted)
			if errors.Is(err, domain.ErrInvalidTransition) {
				// Назначение одобрили между проверкой и записью
				return domain.ErrAlreadyApproved
			}
			return err
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.logger.Warn("document version conflict, retrying",
			slog.Int64("assignment_id", doc.AssignmentID),
			slog.Int("attempt", attempt),
		)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrVersionUnavailable
	}
	return domain.DependencyError("store document version", err)
}

func (s *submissionService) DeleteDocument(ctx context.Context, documentID int64, principal domain.Principal) error {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return domain.DependencyError("load document", err)
	}

	if doc.UploadedByID != principal.ID && !principal.Capabilities().IsPrivileged() {
		return domain.ErrDeleteForbidden
	}
	if doc.Assignment == nil {
		return domain.ErrAssignmentNotFound
	}
	if doc.Assignment.Status == domain.AssignmentApproved {
		return domain.ErrDeleteApproved
	}

	reverted := false
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.documents.Delete(ctx, doc.ID); err != nil {
			return err
		}
		if !doc.IsLatest {
			return nil
		}

		promoted, err := s.documents.PromoteHighest(ctx, doc.AssignmentID)
		if err != nil {
			return err
		}
		if promoted != nil {
			return nil
		}

		// Документов не осталось - назначение возвращается в PENDING
		next, err := doc.Assignment.Status.Next(domain.EventWithdraw)
		if err != nil {
			return err
		}
		err = s.assignments.TransitionStatus(ctx, doc.AssignmentID, uploadableStatuses, next)
		if errors.Is(err, domain.ErrInvalidTransition) {
			return domain.ErrDeleteApproved
		}
		if err != nil {
			return err
		}
		reverted = true
		return nil
	})
	if err != nil {
		return domain.DependencyError("delete document", err)
	}

	if reverted {
		metrics.AssignmentTransitionsTotal.WithLabelValues(string(domain.AssignmentPending)).Inc()
	}

	// Строка уже удалена, поэтому сбой файлового хранилища только логируется
	if err := s.files.Delete(ctx, doc.FilePath); err != nil {
		s.logger.Warn("failed to delete stored file",
			slog.Int64("document_id", doc.ID),
			slog.String("path", doc.FilePath),
			slog.Any("error", err),
		)
	}

	requestTitle := ""
	if doc.Assignment.Request != nil {
		requestTitle = doc.Assignment.Request.Title
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    ptr(principal.ID),
		EntityType: domain.EntityDocument,
		EntityID:   ptr(doc.ID),
		Payload: domain.DeleteDocumentDetails{
			FileName:          doc.FileName,
			Version:           doc.Version,
			RequestTitle:      requestTitle,
			RevertedToPending: reverted,
		},
	})
	return nil
}

func (s *submissionService) ListDocuments(ctx context.Context, assignmentID int64, principal domain.Principal) ([]domain.Document, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, domain.DependencyError("load assignment", err)
	}
	if !canView(principal, a) {
		return nil, domain.ErrForbidden
	}
	docs, err := s.documents.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, domain.DependencyError("list documents", err)
	}
	return docs, nil
}

func (s *submissionService) Download(ctx context.Context, documentID int64, principal domain.Principal) (*domain.Document, []byte, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, domain.DependencyError("load document", err)
	}
	if doc.Assignment == nil {
		return nil, nil, domain.ErrAssignmentNotFound
	}
	if doc.UploadedByID != principal.ID && !canView(principal, doc.Assignment) {
		return nil, nil, domain.ErrForbidden
	}
	data, err := s.files.Read(ctx, doc.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, domain.ErrDocumentNotFound
		}
		return nil, nil, domain.DependencyError("read file", err)
	}
	return doc, data, nil
}

// canUpload - владелец назначения, ADMIN/HR или руководитель отдела,
// создавший запрос или управляющий отделом сотрудника
func canUpload(p domain.Principal, a *domain.RequestAssignment) bool {
	if p.ID == a.EmployeeID {
		return true
	}
	if p.Role == domain.RoleEmployee {
		return false
	}
	if p.Capabilities().IsPrivileged() {
		return true
	}
	if a.Request != nil && a.Request.CreatedByID == p.ID {
		return true
	}
	return inAccessibleDepartment(p, a)
}

// canView - кто может видеть назначение и его документы
func canView(p domain.Principal, a *domain.RequestAssignment) bool {
	if p.ID == a.EmployeeID || p.Capabilities().IsPrivileged() {
		return true
	}
	if a.Request != nil && a.Request.CreatedByID == p.ID {
		return true
	}
	return inAccessibleDepartment(p, a)
}

func inAccessibleDepartment(p domain.Principal, a *domain.RequestAssignment) bool {
	all, departments := p.Capabilities().AccessibleDepartments()
	if all {
		return true
	}
	if a.Employee == nil {
		return false
	}
	for _, d := range departments {
		if d == a.Employee.Department {
			return true
		}
	}
	return false
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
