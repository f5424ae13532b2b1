package models

import (
	"time"

	"gorm.io/gorm"
)

type ReviewReport struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	ReviewID    uint           `gorm:"not null;index" json:"reviewId"`
	ReporterID  uint           `gorm:"not null" json:"reporterId"`
	Reason      string         `gorm:"not null" json:"reason"`
	Description string         `json:"description"`
	Status      string         `gorm:"not null;default:'pending'" json:"status"` // pending, resolved, dismissed
	Review      Review         `gorm:"foreignKey:ReviewID" json:"-"`
}
