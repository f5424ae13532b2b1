package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ListingPending  = "pending"
	ListingApproved = "approved"
	ListingRejected = "rejected"
)

// PendingListing is an owner submission waiting for a moderator. BusinessHours
// holds a JSON array of BusinessHours rows without ids.
type PendingListing struct {
	gorm.Model
	SubmitterID     uint           `json:"submitterId" gorm:"not null;index"`
	Submitter       Profile        `json:"-" gorm:"foreignKey:SubmitterID"`
	Name            string         `json:"name" gorm:"not null"`
	VenueName       string         `json:"venueName"`
	Description     string         `json:"description" gorm:"type:text"`
	Address         string         `json:"address" gorm:"not null"`
	City            string         `json:"city" gorm:"not null"`
	State           string         `json:"state" gorm:"not null"`
	PostalCode      string         `json:"postalCode"`
	Country         string         `json:"country" gorm:"not null;default:'US'"`
	Latitude        *float64       `json:"latitude" gorm:"type:decimal(10,8)"`
	Longitude       *float64       `json:"longitude" gorm:"type:decimal(11,8)"`
	Phone           string         `json:"phone"`
	Website         string         `json:"website"`
	BookingURL      string         `json:"bookingUrl"`
	Category        string         `json:"category"`
	Themes          pq.StringArray `json:"themes" gorm:"type:text[]"`
	Images          pq.StringArray `json:"images" gorm:"type:text[]"`
	Difficulty      int            `json:"difficulty"`
	MinPlayers      int            `json:"minPlayers"`
	MaxPlayers      int            `json:"maxPlayers"`
	DurationMinutes int            `json:"durationMinutes"`
	Price           float64        `json:"price" gorm:"type:decimal(8,2);default:0"`
	Amenities       pq.StringArray `json:"amenities" gorm:"type:text[]"`
	BusinessHours   datatypes.JSON `json:"businessHours" gorm:"type:jsonb"`
	Status          string         `json:"status" gorm:"not null;default:'pending';index;check:status in ('pending','approved','rejected')"`
	SubmittedAt     time.Time      `json:"submittedAt" gorm:"not null"`
	ReviewedAt      *time.Time     `json:"reviewedAt"`
	ReviewedBy      *uint          `json:"reviewedBy"`
	RejectionReason string         `json:"rejectionReason" gorm:"type:text"`
	ApprovedRoomID  *uint          `json:"approvedRoomId"`
}
