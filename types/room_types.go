package types

import (
	"github.com/escape-finder/api-go/catalog"
	"github.com/escape-finder/api-go/hours"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/reviews"
	"github.com/escape-finder/api-go/seo"
	"github.com/lib/pq"
)

type RoomListQuery struct {
	Q         string  `form:"q" binding:"max=100"`
	Theme     string  `form:"theme" binding:"omitempty,slug"`
	City      string  `form:"city"`
	State     string  `form:"state"`
	MinRating float64 `form:"minRating" binding:"min=0,max=5"`
	Status    string  `form:"status" binding:"omitempty,oneof=open all"`
	Sort      string  `form:"sort" binding:"omitempty,oneof=rating newest name"`
	Page      int     `form:"page,default=1" binding:"min=1"`
	PageSize  int     `form:"pageSize,default=20" binding:"min=1,max=50"`
}

type TopRoomsQuery struct {
	State      string `form:"state"`
	City       string `form:"city"`
	Theme      string `form:"theme" binding:"omitempty,slug"`
	MinReviews int    `form:"minReviews,default=3" binding:"min=0"`
	Limit      int    `form:"limit,default=10" binding:"min=1,max=50"`
}

// RoomCard is the compact room shape used in lists.
type RoomCard struct {
	ID           uint           `json:"id"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	VenueName    string         `json:"venueName"`
	City         string         `json:"city"`
	State        string         `json:"state"`
	Category     string         `json:"category"`
	Themes       pq.StringArray `json:"themes"`
	Image        string         `json:"image,omitempty"`
	Difficulty   int            `json:"difficulty"`
	Price        float64        `json:"price"`
	Rating       float64        `json:"rating"`
	ReviewsCount int            `json:"reviewsCount"`
	IsOpen       bool           `json:"isOpen"`
	IsVerified   bool           `json:"isVerified"`
}

type RankedRoom struct {
	Rank int `json:"rank"`
	RoomCard
}

type RoomDetail struct {
	Room         *models.EscapeRoom `json:"room"`
	Hours        []hours.DayHours   `json:"hours"`
	OpenNow      bool               `json:"openNow"`
	Rating       float64            `json:"rating"`
	ReviewsCount int                `json:"reviewsCount"`
	Summary      reviews.Summary    `json:"reviewSummary"`
	Themes       []catalog.Theme    `json:"themeCategories"`
	Nearby       []RoomCard         `json:"nearby"`
	Meta         seo.Meta           `json:"meta"`
}

type ThemeSummary struct {
	catalog.Theme
	Rooms int64 `json:"rooms"`
}
