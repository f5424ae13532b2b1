package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is either pre-seeded (IsManual false, no profile) or written by a
// signed-in user. A profile can leave one manual review per room.
type Review struct {
	gorm.Model
	RoomID       uint       `json:"roomId" gorm:"not null;index;uniqueIndex:idx_review_room_profile,where:profile_id IS NOT NULL AND deleted_at IS NULL"`
	Room         EscapeRoom `json:"-" gorm:"foreignKey:RoomID"`
	ProfileID    *uint      `json:"profileId" gorm:"uniqueIndex:idx_review_room_profile,where:profile_id IS NOT NULL AND deleted_at IS NULL"`
	AuthorName   string     `json:"authorName"`
	Rating       int        `json:"rating" gorm:"not null;check:rating between 1 and 5"`
	Title        string     `json:"title"`
	Body         string     `json:"body" gorm:"type:text"`
	HelpfulCount int        `json:"helpfulCount" gorm:"not null;default:0"`
	IsVerified   bool       `json:"isVerified" gorm:"default:false"`
	IsManual     bool       `json:"isManual" gorm:"default:false"`
	VisitedAt    *time.Time `json:"visitedAt"`
}

type ReviewVote struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ReviewID  uint      `json:"reviewId" gorm:"not null;uniqueIndex:idx_review_vote"`
	ProfileID uint      `json:"profileId" gorm:"not null;uniqueIndex:idx_review_vote"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
