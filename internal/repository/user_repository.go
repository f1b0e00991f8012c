package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/family-todo/internal/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// CreateWithFamily inserts a new family, the user tagged with that family's
	// name, and an admin membership, all in one transaction.
	CreateWithFamily(ctx context.Context, user *domain.User, familyName string) (*domain.Family, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) CreateWithFamily(ctx context.Context, user *domain.User, familyName string) (*domain.Family, error) {
	family := &domain.Family{Name: familyName}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(family).Error; err != nil {
			return fmt.Errorf("create family: %w", err)
		}

		user.FamilyName = family.Name
		if err := tx.Create(user).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("create user: %w", err)
		}

		membership := &domain.Membership{
			UserID:   user.ID,
			FamilyID: family.ID,
			Role:     domain.RoleAdmin,
			JoinedAt: time.Now(),
		}
		if err := tx.Create(membership).Error; err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return family, nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
