package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Family struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
}

// Membership binds a user to a family. UserID is the primary key, so a user
// can never hold more than one row.
type Membership struct {
	UserID   uint   `gorm:"primaryKey;autoIncrement:false"`
	FamilyID uint   `gorm:"not null;index"`
	Role     string `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time
}

// Invite is a single-use join token for a family, scoped to one email.
// Redeeming it deletes the row.
type Invite struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"uniqueIndex;not null"`
	FamilyID  uint   `gorm:"not null;index"`
	Email     string `gorm:"not null;index"`
	CreatedAt time.Time
}
