package domain

import (
	"time"

	"gorm.io/gorm"
)

type Todo struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Description *string
	DueDate     *time.Time
	AssigneeID  *uint `gorm:"index"`
	FamilyID    uint  `gorm:"not null;index"`
	Completed   bool  `gorm:"not null;default:false"`
	CreatedBy   uint  `gorm:"not null"`
}
