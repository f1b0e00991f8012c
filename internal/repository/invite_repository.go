package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/family-todo/internal/domain"
)

// PendingInvite is an unconsumed invite joined with its family's name.
type PendingInvite struct {
	Token      string
	FamilyID   uint
	FamilyName string
	CreatedAt  time.Time
}

// InviteRepository stores single-use family invites.
type InviteRepository interface {
	Create(ctx context.Context, invite *domain.Invite) error
	ListForEmail(ctx context.Context, email string) ([]PendingInvite, error)
	// Redeem consumes the invite addressed to the user's email and moves the
	// user into the invite's family as a member, in one transaction. It
	// returns the family the invite granted, or ErrInviteNotFound when no
	// matching invite exists.
	Redeem(ctx context.Context, token string, userID uint) (*domain.Family, error)
}

type gormInviteRepository struct {
	db *gorm.DB
}

func NewGormInviteRepository(db *gorm.DB) InviteRepository {
	return &gormInviteRepository{db: db}
}

func (r *gormInviteRepository) Create(ctx context.Context, invite *domain.Invite) error {
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

func (r *gormInviteRepository) ListForEmail(ctx context.Context, email string) ([]PendingInvite, error) {
	invites := []PendingInvite{}
	err := r.db.WithContext(ctx).
		Table("invites").
		Select("invites.token, invites.family_id, invites.created_at, families.name AS family_name").
		Joins("JOIN families ON families.id = invites.family_id").
		Where("invites.email = ?", email).
		Order("invites.created_at DESC, invites.id DESC").
		Scan(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

func (r *gormInviteRepository) Redeem(ctx context.Context, token string, userID uint) (*domain.Family, error) {
	var invite domain.Invite
	var family *domain.Family

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.Select("id", "email").First(&user, userID).Error; err != nil {
			return translate(err)
		}

		// DELETE ... RETURNING takes the row lock: of two concurrent redeemers
		// the second sees zero rows once the first commits.
		res := tx.Clauses(clause.Returning{}).
			Where("token = ? AND email = ?", token, user.Email).
			Delete(&invite)
		if res.Error != nil {
			return fmt.Errorf("consume invite: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInviteNotFound
		}

		var err error
		family, err = transferMembership(tx, userID, invite.FamilyID, domain.RoleMember)
		return err
	})
	if err != nil {
		return nil, err
	}
	return family, nil
}
