package service

import (
	"context"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/repository"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// AuditService - чтение журнала аудита
type AuditService interface {
	ListRecent(ctx context.Context, principal domain.Principal, action *domain.AuditAction, limit int) ([]domain.AuditLog, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService создаёт новый экземпляр сервиса
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) ListRecent(ctx context.Context, principal domain.Principal, action *domain.AuditAction, limit int) ([]domain.AuditLog, error) {
	if principal.Role != domain.RoleAdmin {
		return nil, domain.ErrAdminOnly
	}
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}

	list, err := s.repo.ListRecent(ctx, action, limit)
	if err != nil {
		return nil, domain.DependencyError("list audit logs", err)
	}
	return list, nil
}
