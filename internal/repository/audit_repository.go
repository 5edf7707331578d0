package repository

import (
	"context"

	"github.com/document-requests-api/internal/domain"
	"gorm.io/gorm"
)

// AuditRepository - хранилище журнала аудита (только добавление)
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListRecent(ctx context.Context, action *domain.AuditAction, limit int) ([]domain.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository создаёт новый экземпляр репозитория
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	return conn(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) ListRecent(ctx context.Context, action *domain.AuditAction, limit int) ([]domain.AuditLog, error) {
	var list []domain.AuditLog
	query := conn(ctx, r.db)
	if action != nil {
		query = query.Where("action = ?", *action)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}
