package models

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const RoomStatusOpen = "Open"

type EscapeRoom struct {
	gorm.Model
	Name             string          `json:"name" gorm:"not null"`
	Slug             string          `json:"slug" gorm:"not null;uniqueIndex"`
	VenueName        string          `json:"venueName" gorm:"index"`
	Description      string          `json:"description" gorm:"type:text"`
	Address          string          `json:"address" gorm:"not null"`
	City             string          `json:"city" gorm:"not null;index"`
	State            string          `json:"state" gorm:"not null;index"`
	PostalCode       string          `json:"postalCode"`
	Country          string          `json:"country" gorm:"not null;default:'US'"`
	Latitude         *float64        `json:"latitude" gorm:"type:decimal(10,8)"`
	Longitude        *float64        `json:"longitude" gorm:"type:decimal(11,8)"`
	Phone            string          `json:"phone"`
	Website          string          `json:"website"`
	BookingURL       string          `json:"bookingUrl"`
	Category         string          `json:"category"`
	Themes           pq.StringArray  `json:"themes" gorm:"type:text[]"`
	Images           pq.StringArray  `json:"images" gorm:"type:text[]"`
	Difficulty       int             `json:"difficulty" gorm:"default:0"`
	MinPlayers       int             `json:"minPlayers" gorm:"default:0"`
	MaxPlayers       int             `json:"maxPlayers" gorm:"default:0"`
	DurationMinutes  int             `json:"durationMinutes" gorm:"default:60"`
	Price            float64         `json:"price" gorm:"type:decimal(8,2);default:0"`
	Rating           float64         `json:"rating" gorm:"not null;default:0;type:decimal(3,2)"`
	ReviewsCount     int             `json:"reviewsCount" gorm:"not null;default:0"`
	UserRating       float64         `json:"userRating" gorm:"not null;default:0;type:decimal(3,2)"`
	UserReviewsCount int             `json:"userReviewsCount" gorm:"not null;default:0"`
	WorkingHours     datatypes.JSON  `json:"workingHours" gorm:"type:jsonb"`
	Status           string          `json:"status" gorm:"not null;default:'Open'"`
	IsVerified       bool            `json:"isVerified" gorm:"default:false"`
	OwnerID          *uint           `json:"ownerId" gorm:"index"`
	Amenities        []RoomAmenity   `json:"amenities,omitempty" gorm:"foreignKey:RoomID"`
	Hours            []BusinessHours `json:"hours,omitempty" gorm:"foreignKey:RoomID"`
}

// IsOpen reports whether the business is operating, not whether it is open right now.
func (r *EscapeRoom) IsOpen() bool {
	return r.Status == RoomStatusOpen
}
