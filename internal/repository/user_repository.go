package repository

import (
	"context"
	"errors"

	"github.com/document-requests-api/internal/domain"
	"gorm.io/gorm"
)

// UserRepository определяет интерфейс для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ListActiveByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error)
	ListActiveEmployees(ctx context.Context, department *string) ([]domain.User, error)
	ListActiveByIDs(ctx context.Context, ids []int64) ([]domain.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository создаёт новый экземпляр репозитория
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return conn(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := conn(ctx, r.db).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListActiveByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	var users []domain.User
	err := conn(ctx, r.db).
		Where("is_active = ? AND role IN ?", true, roles).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) ListActiveEmployees(ctx context.Context, department *string) ([]domain.User, error) {
	var users []domain.User
	query := conn(ctx, r.db).Where("is_active = ? AND role = ?", true, domain.RoleEmployee)
	if department != nil {
		query = query.Where("department = ?", *department)
	}
	err := query.Order("id ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) ListActiveByIDs(ctx context.Context, ids []int64) ([]domain.User, error) {
	var users []domain.User
	if len(ids) == 0 {
		return users, nil
	}
	err := conn(ctx, r.db).
		Where("is_active = ? AND id IN ?", true, ids).
		Order("id ASC").
		Find(&users).Error
	return users, err
}
