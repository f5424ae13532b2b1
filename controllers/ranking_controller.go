package controllers

import (
	"net/http"

	"github.com/escape-finder/api-go/catalog"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RankingController struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog
	Log     *zap.Logger
}

func NewRankingController(db *gorm.DB, cat *catalog.Catalog, log *zap.Logger) *RankingController {
	return &RankingController{DB: db, Catalog: cat, Log: log}
}

// GetTopRooms ranks open rooms by combined rating, optionally within a state,
// city or theme. Rooms with fewer than minReviews ratings are left out.
func (rc *RankingController) GetTopRooms(c *gin.Context) {
	var query types.TopRoomsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	filter := roomFilter{
		City:       query.City,
		State:      query.State,
		MinReviews: query.MinReviews,
		OpenOnly:   true,
	}
	if query.Theme != "" {
		theme, ok := rc.Catalog.Get(query.Theme)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown theme"})
			return
		}
		filter.Theme = &theme
	}
	if err := filter.resolveCity(rc.DB.WithContext(c.Request.Context())); err != nil {
		internalError(c, rc.Log, "GetTopRooms.city", err)
		return
	}

	var rooms []models.EscapeRoom
	err := rc.DB.WithContext(c.Request.Context()).
		Scopes(filter.scope).
		Where(combinedRatingSQL + " > 0").
		Order(roomOrder("rating")).
		Limit(query.Limit).
		Find(&rooms).Error
	if err != nil {
		internalError(c, rc.Log, "GetTopRooms", err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    rankRooms(rooms),
		Meta: gin.H{
			"state":      query.State,
			"city":       query.City,
			"theme":      query.Theme,
			"minReviews": query.MinReviews,
		},
	})
}

// rankRooms numbers rooms in order; equal ratings with equal review counts
// share a rank.
func rankRooms(rooms []models.EscapeRoom) []types.RankedRoom {
	out := make([]types.RankedRoom, len(rooms))
	for i := range rooms {
		card := roomCard(&rooms[i])
		rank := i + 1
		if i > 0 {
			prev := out[i-1]
			if prev.Rating == card.Rating && prev.ReviewsCount == card.ReviewsCount {
				rank = prev.Rank
			}
		}
		out[i] = types.RankedRoom{Rank: rank, RoomCard: card}
	}
	return out
}
