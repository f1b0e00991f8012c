package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/family-todo/internal/domain"
)

// Member is a user as seen from inside a family.
type Member struct {
	ID       uint
	Email    string
	FullName *string
	Role     string
}

// MembershipRepository resolves and moves family memberships.
type MembershipRepository interface {
	ResolveFamily(ctx context.Context, userID uint) (*domain.Family, error)
	ListMembers(ctx context.Context, familyID uint) ([]Member, error)
	IsMember(ctx context.Context, userID, familyID uint) (bool, error)
	// Transfer atomically replaces the user's membership (if any) with one in
	// familyID.
	Transfer(ctx context.Context, userID, familyID uint, role string) error
	// SearchEligible returns users carrying the same family-name tag as userID
	// who are neither userID nor already members of familyID.
	SearchEligible(ctx context.Context, userID, familyID uint) ([]domain.User, error)
}

type gormMembershipRepository struct {
	db *gorm.DB
}

func NewGormMembershipRepository(db *gorm.DB) MembershipRepository {
	return &gormMembershipRepository{db: db}
}

func (r *gormMembershipRepository) ResolveFamily(ctx context.Context, userID uint) (*domain.Family, error) {
	var family domain.Family
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.family_id = families.id").
		Where("memberships.user_id = ?", userID).
		First(&family).Error
	if err != nil {
		return nil, translate(err)
	}
	return &family, nil
}

func (r *gormMembershipRepository) ListMembers(ctx context.Context, familyID uint) ([]Member, error) {
	members := []Member{}
	err := r.db.WithContext(ctx).
		Table("memberships").
		Select("users.id, users.email, users.full_name, memberships.role").
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.family_id = ?", familyID).
		Order("users.email").
		Scan(&members).Error
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (r *gormMembershipRepository) IsMember(ctx context.Context, userID, familyID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("user_id = ? AND family_id = ?", userID, familyID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return count > 0, nil
}

func (r *gormMembershipRepository) Transfer(ctx context.Context, userID, familyID uint, role string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := transferMembership(tx, userID, familyID, role)
		return err
	})
}

func (r *gormMembershipRepository) SearchEligible(ctx context.Context, userID, familyID uint) ([]domain.User, error) {
	db := r.db.WithContext(ctx)

	var me domain.User
	if err := db.Select("id", "family_name").First(&me, userID).Error; err != nil {
		return nil, translate(err)
	}

	members := db.Model(&domain.Membership{}).Select("user_id").Where("family_id = ?", familyID)

	users := []domain.User{}
	err := db.
		Where("family_name = ? AND id <> ? AND id NOT IN (?)", me.FamilyName, userID, members).
		Order("email").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("search eligible users: %w", err)
	}
	return users, nil
}

// transferMembership must run inside tx. Locking the user row first
// serializes concurrent transfers for the same user; the upsert on the
// user_id primary key leaves exactly one membership row behind. It returns
// the target family as read inside tx.
func transferMembership(tx *gorm.DB, userID, familyID uint, role string) (*domain.Family, error) {
	var family domain.Family
	if err := tx.First(&family, familyID).Error; err != nil {
		return nil, translate(err)
	}

	var user domain.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, userID).Error; err != nil {
		return nil, translate(err)
	}

	if err := tx.Model(&user).Update("family_name", family.Name).Error; err != nil {
		return nil, fmt.Errorf("update family tag: %w", err)
	}

	membership := domain.Membership{
		UserID:   userID,
		FamilyID: familyID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"family_id", "role", "joined_at"}),
	}).Create(&membership).Error
	if err != nil {
		return nil, fmt.Errorf("upsert membership: %w", err)
	}
	return &family, nil
}
