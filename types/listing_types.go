package types

import "time"

type BusinessHoursInput struct {
	DayOfWeek int    `json:"dayOfWeek" binding:"min=0,max=6"`
	OpenTime  string `json:"openTime" binding:"omitempty,datetime=15:04"`
	CloseTime string `json:"closeTime" binding:"omitempty,datetime=15:04"`
	IsClosed  bool   `json:"isClosed"`
}

type ListingInput struct {
	Name            string               `json:"name" binding:"required,max=200"`
	VenueName       string               `json:"venueName" binding:"max=200"`
	Description     string               `json:"description" binding:"max=10000"`
	Address         string               `json:"address" binding:"required,max=300"`
	City            string               `json:"city" binding:"required,max=100"`
	State           string               `json:"state" binding:"required,usstate"`
	PostalCode      string               `json:"postalCode" binding:"max=10"`
	Country         string               `json:"country" binding:"required"`
	Latitude        *float64             `json:"latitude" binding:"omitempty,latitude"`
	Longitude       *float64             `json:"longitude" binding:"omitempty,longitude"`
	Phone           string               `json:"phone" binding:"max=30"`
	Website         string               `json:"website" binding:"omitempty,url"`
	BookingURL      string               `json:"bookingUrl" binding:"omitempty,url"`
	Category        string               `json:"category" binding:"max=100"`
	Themes          []string             `json:"themes" binding:"max=10,dive,max=50"`
	Images          []string             `json:"images" binding:"max=10,dive,url"`
	Difficulty      int                  `json:"difficulty" binding:"min=0,max=5"`
	MinPlayers      int                  `json:"minPlayers" binding:"min=0,max=100"`
	MaxPlayers      int                  `json:"maxPlayers" binding:"min=0,max=100"`
	DurationMinutes int                  `json:"durationMinutes" binding:"min=0,max=600"`
	Price           float64              `json:"price" binding:"min=0"`
	Amenities       []string             `json:"amenities" binding:"max=30,dive,max=100"`
	BusinessHours   []BusinessHoursInput `json:"businessHours" binding:"max=7,dive"`
	CaptchaToken    string               `json:"captchaToken"`
}

type PendingListingQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=20" binding:"min=1,max=50"`
}

type RejectInput struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type ReviewInput struct {
	Rating       int        `json:"rating" binding:"required,min=1,max=5"`
	Title        string     `json:"title" binding:"max=200"`
	Body         string     `json:"body" binding:"required,min=10,max=5000"`
	VisitedAt    *time.Time `json:"visitedAt"`
	CaptchaToken string     `json:"captchaToken"`
}

type ReviewListQuery struct {
	Sort     string `form:"sort" binding:"omitempty,oneof=newest highest lowest helpful"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=10" binding:"min=1,max=50"`
}

type ReportInput struct {
	Reason      string `json:"reason" binding:"required,oneof=spam offensive fake off_topic other"`
	Description string `json:"description" binding:"max=1000"`
}
