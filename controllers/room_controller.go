package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/escape-finder/api-go/catalog"
	"github.com/escape-finder/api-go/hours"
	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/reviews"
	"github.com/escape-finder/api-go/seo"
	"github.com/escape-finder/api-go/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const nearbyRooms = 6

type RoomController struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog
	Site    seo.Site
	Log     *zap.Logger
}

func NewRoomController(db *gorm.DB, cat *catalog.Catalog, site seo.Site, log *zap.Logger) *RoomController {
	return &RoomController{DB: db, Catalog: cat, Site: site, Log: log}
}

// ListRooms godoc
// @Summary Search escape rooms
// @Tags rooms
// @Produce json
// @Param q query string false "Free text over name, venue, city and category"
// @Param theme query string false "Theme slug"
// @Param state query string false "State code, name or slug"
// @Param sort query string false "rating, newest or name"
// @Router /rooms [get]
func (rc *RoomController) ListRooms(c *gin.Context) {
	var query types.RoomListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	filter := roomFilter{
		Q:         query.Q,
		City:      query.City,
		State:     query.State,
		MinRating: query.MinRating,
		OpenOnly:  query.Status != "all",
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
		internalError(c, rc.Log, "ListRooms.city", err)
		return
	}

	base := rc.DB.WithContext(c.Request.Context()).
		Model(&models.EscapeRoom{}).
		Scopes(filter.scope).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		internalError(c, rc.Log, "ListRooms.count", err)
		return
	}

	rooms := []models.EscapeRoom{}
	err := base.Order(roomOrder(query.Sort)).
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&rooms).Error
	if err != nil {
		internalError(c, rc.Log, "ListRooms.find", err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       roomCards(rooms),
		Pagination: NewPagination(query.Page, query.PageSize, total),
	})
}

// GetRoom returns a room with its hours, rating breakdown, themes, nearby
// rooms and page metadata. An unknown slug answers 404 with the closest
// matching slug as a suggestion.
func (rc *RoomController) GetRoom(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	db := rc.DB.WithContext(c.Request.Context())

	var room models.EscapeRoom
	err := db.Preload("Amenities").Preload("Hours").Where("slug = ?", slug).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resp := gin.H{"error": "Room not found"}
		if s := rc.suggestSlug(db, slug); s != "" {
			resp["suggestion"] = s
		}
		c.JSON(http.StatusNotFound, resp)
		return
	}
	if err != nil {
		internalError(c, rc.Log, "GetRoom", err)
		return
	}

	var (
		ratings []int
		nearby  []models.EscapeRoom
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		ratings, err = reviews.ForRoom(rc.DB.WithContext(ctx), room.ID)
		return err
	})
	g.Go(func() error {
		spellings, err := citySpellings(rc.DB.WithContext(ctx), room.City, room.State)
		if err != nil || len(spellings) == 0 {
			return err
		}
		return rc.DB.WithContext(ctx).
			Where("id <> ? AND status = ?", room.ID, models.RoomStatusOpen).
			Scopes(func(db *gorm.DB) *gorm.DB { return stateScope(db, room.State) }).
			Where("TRIM(escape_rooms.city) IN ?", spellings).
			Order(roomOrder("rating")).
			Limit(nearbyRooms).
			Find(&nearby).Error
	})
	if err := g.Wait(); err != nil {
		internalError(c, rc.Log, "GetRoom.details", err)
		return
	}

	days := roomHours(&room)
	rating, count := reviews.RoomRating(&room)
	themes := rc.Catalog.Match(room.Category, room.Themes)
	if themes == nil {
		themes = []catalog.Theme{}
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: types.RoomDetail{
			Room:         &room,
			Hours:        days,
			OpenNow:      room.IsOpen() && hours.IsOpen(days, time.Now()),
			Rating:       rating,
			ReviewsCount: count,
			Summary:      reviews.Summarize(ratings),
			Themes:       themes,
			Nearby:       roomCards(nearby),
			Meta:         seo.RoomMeta(rc.Site, &room, rating, count),
		},
	})
}

// suggestSlug looks for a room whose name fuzzily matches the missing slug,
// narrowed to rooms sharing its first distinctive token.
func (rc *RoomController) suggestSlug(db *gorm.DB, slug string) string {
	tokens := location.Tokens(slug)
	if len(tokens) == 0 {
		return ""
	}
	var rooms []models.EscapeRoom
	err := db.Select("id, name, slug, city, state").
		Where("slug LIKE ?", likePattern(tokens[0])).
		Limit(50).
		Find(&rooms).Error
	if err != nil || len(rooms) == 0 {
		return ""
	}
	candidates := make([]location.Candidate, len(rooms))
	for i, r := range rooms {
		candidates[i] = location.Candidate{ID: uint(i), Name: r.Name, City: r.City, State: r.State}
	}
	m, ok := location.BestMatch(slug, candidates)
	if !ok {
		return ""
	}
	return rooms[m.Candidate.ID].Slug
}
