package controllers

import (
	"net/http"

	"github.com/escape-finder/api-go/hours"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/reviews"
	"github.com/escape-finder/api-go/types"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StandardResponse struct {
	Success    bool            `json:"success"`
	Data       interface{}     `json:"data,omitempty"`
	Meta       interface{}     `json:"meta,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Message    string          `json:"message,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

func NewPagination(page, pageSize int, total int64) *PaginationMeta {
	return &PaginationMeta{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  utils.TotalPages(total, pageSize),
	}
}

const msgUnexpected = "An unexpected error occurred"

// internalError logs err and answers with a generic 500.
func internalError(c *gin.Context, log *zap.Logger, op string, err error) {
	log.Error("request failed",
		zap.String("op", op),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnexpected})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": utils.ValidationMessage(err)})
}

func roomCard(r *models.EscapeRoom) types.RoomCard {
	rating, count := reviews.RoomRating(r)
	card := types.RoomCard{
		ID:           r.ID,
		Name:         r.Name,
		Slug:         r.Slug,
		VenueName:    r.VenueName,
		City:         r.City,
		State:        r.State,
		Category:     r.Category,
		Themes:       r.Themes,
		Difficulty:   r.Difficulty,
		Price:        r.Price,
		Rating:       rating,
		ReviewsCount: count,
		IsOpen:       r.IsOpen(),
		IsVerified:   r.IsVerified,
	}
	if len(r.Images) > 0 {
		card.Image = r.Images[0]
	}
	return card
}

func roomCards(rooms []models.EscapeRoom) []types.RoomCard {
	out := make([]types.RoomCard, len(rooms))
	for i := range rooms {
		out[i] = roomCard(&rooms[i])
	}
	return out
}

// roomHours resolves a room's week from its structured rows or JSON column.
func roomHours(r *models.EscapeRoom) []hours.DayHours {
	days := hours.Resolve(r.Hours, r.WorkingHours)
	if days == nil {
		return []hours.DayHours{}
	}
	return days
}
