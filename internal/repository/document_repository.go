package repository

import (
	"context"
	"errors"

	"github.com/document-requests-api/internal/domain"
	"gorm.io/gorm"
)

// DocumentRepository определяет интерфейс для работы с версиями документов
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	ListByAssignment(ctx context.Context, assignmentID int64) ([]domain.Document, error)
	NextVersion(ctx context.Context, assignmentID int64) (int, error)
	ClearLatest(ctx context.Context, assignmentID int64) error
	// PromoteHighest делает последней версию с максимальным номером.
	// Возвращает nil, если документов не осталось.
	PromoteHighest(ctx context.Context, assignmentID int64) (*domain.Document, error)
	Delete(ctx context.Context, id int64) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository создаёт новый экземпляр репозитория
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return conn(ctx, r.db).Omit("Assignment").Create(doc).Error
}

func (r *documentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	var doc domain.Document
	err := conn(ctx, r.db).
		Preload("Assignment").
		Preload("Assignment.Request").
		Preload("Assignment.Employee").
		First(&doc, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByAssignment(ctx context.Context, assignmentID int64) ([]domain.Document, error) {
	var docs []domain.Document
	err := conn(ctx, r.db).
		Where("assignment_id = ?", assignmentID).
		Order("version ASC").
		Find(&docs).Error
	return docs, err
}

// NextVersion возвращает max(version)+1. Номера не переиспользуются после удаления.
func (r *documentRepository) NextVersion(ctx context.Context, assignmentID int64) (int, error) {
	var maxVersion int
	err := conn(ctx, r.db).
		Model(&domain.Document{}).
		Where("assignment_id = ?", assignmentID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

func (r *documentRepository) ClearLatest(ctx context.Context, assignmentID int64) error {
	return conn(ctx, r.db).
		Model(&domain.Document{}).
		Where("assignment_id = ? AND is_latest = ?", assignmentID, true).
		Update("is_latest", false).Error
}

func (r *documentRepository) PromoteHighest(ctx context.Context, assignmentID int64) (*domain.Document, error) {
	var doc domain.Document
	err := conn(ctx, r.db).
		Where("assignment_id = ?", assignmentID).
		Order("version DESC").
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := conn(ctx, r.db).Model(&doc).Update("is_latest", true).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&domain.Document{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
