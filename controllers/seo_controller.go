package controllers

import (
	"net/http"
	"time"

	"github.com/escape-finder/api-go/catalog"
	"github.com/escape-finder/api-go/content"
	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/seo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sitemapBlogPageSize = 100
	sitemapBlogPages    = 10
)

type SEOController struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog
	CMS     *content.Client
	Site    seo.Site
	Log     *zap.Logger
}

func NewSEOController(db *gorm.DB, cat *catalog.Catalog, cms *content.Client, site seo.Site, log *zap.Logger) *SEOController {
	return &SEOController{DB: db, Catalog: cat, CMS: cms, Site: site, Log: log}
}

type sitemapRoom struct {
	Slug      string
	UpdatedAt time.Time
}

type sitemapCity struct {
	State string
	City  string
}

// Sitemap lists the home page, every open room, state, city, theme and blog
// post. A CMS failure only drops the blog entries.
func (sc *SEOController) Sitemap(c *gin.Context) {
	db := sc.DB.WithContext(c.Request.Context())
	sm := seo.NewSitemap(sc.Site)
	sm.Add("/", time.Time{}, "daily", "1.0")
	sm.Add("/locations/"+countrySlug, time.Time{}, "weekly", "0.8")
	sm.Add("/blog", time.Time{}, "daily", "0.6")

	var cities []sitemapCity
	err := db.Model(&models.EscapeRoom{}).
		Select("escape_rooms.state AS state, TRIM(escape_rooms.city) AS city").
		Where("escape_rooms.status = ?", models.RoomStatusOpen).
		Group("escape_rooms.state, TRIM(escape_rooms.city)").
		Scan(&cities).Error
	if err != nil {
		internalError(c, sc.Log, "Sitemap.cities", err)
		return
	}
	for _, ct := range cities {
		st, ok := location.NormalizeState(ct.State)
		if !ok {
			continue
		}
		sm.Add(seo.StatePath(st), time.Time{}, "weekly", "0.7")
		if slug := location.Slugify(ct.City); slug != "" {
			sm.Add(seo.CityPath(st, slug), time.Time{}, "weekly", "0.7")
		}
	}

	for _, t := range sc.Catalog.All() {
		sm.Add(seo.ThemePath(t.Slug), time.Time{}, "weekly", "0.6")
	}

	var rooms []sitemapRoom
	err = db.Model(&models.EscapeRoom{}).
		Select("slug, updated_at").
		Where("status = ?", models.RoomStatusOpen).
		Order("id").
		Limit(seo.MaxSitemapURLs).
		Scan(&rooms).Error
	if err != nil {
		internalError(c, sc.Log, "Sitemap.rooms", err)
		return
	}
	for _, r := range rooms {
		sm.Add(seo.RoomPath(r.Slug), r.UpdatedAt, "weekly", "0.9")
	}

	sc.addPosts(c, sm)

	body, err := sm.XML()
	if err != nil {
		internalError(c, sc.Log, "Sitemap.xml", err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

func (sc *SEOController) addPosts(c *gin.Context, sm *seo.Sitemap) {
	if !sc.CMS.Enabled() {
		return
	}
	for page := 1; page <= sitemapBlogPages; page++ {
		articles, pg, err := sc.CMS.ListArticles(c.Request.Context(), content.ListQuery{Page: page, PageSize: sitemapBlogPageSize})
		if err != nil {
			sc.Log.Warn("sitemap without blog posts", zap.Error(err))
			return
		}
		for _, a := range articles {
			last := a.UpdatedAt
			if last.IsZero() {
				last = a.PublishedAt
			}
			sm.Add(seo.BlogPath(a.Slug), last, "monthly", "0.5")
		}
		if page >= pg.PageCount {
			return
		}
	}
}
