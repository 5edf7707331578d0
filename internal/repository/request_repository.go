package repository

import (
	"context"
	"errors"

	"github.com/document-requests-api/internal/domain"
	"gorm.io/gorm"
)

// RequestRepository определяет интерфейс для работы с запросами документов
type RequestRepository interface {
	Create(ctx context.Context, req *domain.DocumentRequest) error
	GetByID(ctx context.Context, id int64) (*domain.DocumentRequest, error)
	UpdateStatus(ctx context.Context, id int64, to domain.RequestStatus, from ...domain.RequestStatus) error
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository создаёт новый экземпляр репозитория
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create сохраняет запрос вместе со слотами
func (r *requestRepository) Create(ctx context.Context, req *domain.DocumentRequest) error {
	return conn(ctx, r.db).Omit("Assignments", "CreatedBy").Create(req).Error
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*domain.DocumentRequest, error) {
	var req domain.DocumentRequest
	err := conn(ctx, r.db).
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// UpdateStatus меняет статус, только если текущий входит в from
func (r *requestRepository) UpdateStatus(ctx context.Context, id int64, to domain.RequestStatus, from ...domain.RequestStatus) error {
	result := conn(ctx, r.db).
		Model(&domain.DocumentRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRequestNotOpen
	}
	return nil
}
