package domain

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FullName     *string
	// FamilyName mirrors the name of the user's current family. It is kept in
	// sync on transfer but is not authoritative; Membership is.
	FamilyName string `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Models lists every table the API owns, in creation order.
func Models() []any {
	return []any{&User{}, &Family{}, &Membership{}, &Invite{}, &Todo{}}
}
