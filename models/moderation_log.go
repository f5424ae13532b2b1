package models

import (
	"time"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type ModerationLog struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt   time.Time `json:"createdAt"`
	ListingID   uint      `json:"listingId" gorm:"not null;index"`
	ModeratorID uint      `json:"moderatorId" gorm:"not null"`
	Action      string    `json:"action" gorm:"not null;type:varchar(20)"`
	Reason      string    `json:"reason" gorm:"type:text"`
	RoomID      *uint     `json:"roomId"`
}
