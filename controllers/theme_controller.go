package controllers

import (
	"net/http"

	"github.com/escape-finder/api-go/catalog"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/seo"
	"github.com/escape-finder/api-go/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ThemeController struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog
	Site    seo.Site
	Log     *zap.Logger
}

func NewThemeController(db *gorm.DB, cat *catalog.Catalog, site seo.Site, log *zap.Logger) *ThemeController {
	return &ThemeController{DB: db, Catalog: cat, Site: site, Log: log}
}

// GetThemes lists the catalogue with the number of open rooms per theme.
func (tc *ThemeController) GetThemes(c *gin.Context) {
	themes := tc.Catalog.All()
	out := make([]types.ThemeSummary, len(themes))

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(4)
	for i := range themes {
		i := i
		out[i].Theme = themes[i]
		g.Go(func() error {
			f := roomFilter{Theme: &themes[i], OpenOnly: true}
			return tc.DB.WithContext(ctx).Model(&models.EscapeRoom{}).Scopes(f.scope).Count(&out[i].Rooms).Error
		})
	}
	if err := g.Wait(); err != nil {
		internalError(c, tc.Log, "GetThemes", err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: out})
}

// GetTheme returns one theme and a page of its rooms.
func (tc *ThemeController) GetTheme(c *gin.Context) {
	theme, ok := tc.Catalog.Get(c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Theme not found"})
		return
	}

	var query types.RoomListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	f := roomFilter{Theme: &theme, State: query.State, City: query.City, MinRating: query.MinRating, OpenOnly: true}
	if err := f.resolveCity(tc.DB.WithContext(c.Request.Context())); err != nil {
		internalError(c, tc.Log, "GetTheme.city", err)
		return
	}
	base := tc.DB.WithContext(c.Request.Context()).Model(&models.EscapeRoom{}).Scopes(f.scope).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		internalError(c, tc.Log, "GetTheme.count", err)
		return
	}
	rooms := []models.EscapeRoom{}
	err := base.Order(roomOrder(query.Sort)).
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&rooms).Error
	if err != nil {
		internalError(c, tc.Log, "GetTheme.find", err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"theme": types.ThemeSummary{Theme: theme, Rooms: total},
			"rooms": roomCards(rooms),
			"meta":  seo.ThemeMeta(tc.Site, theme.Slug, theme.Name, theme.Description),
		},
		Pagination: NewPagination(query.Page, query.PageSize, total),
	})
}
