package controllers

import (
	"net/http"
	"time"

	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const dashboardRecent = 5

// DashboardController serves the account overview and the admin summary.
type DashboardController struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewDashboardController(db *gorm.DB, log *zap.Logger) *DashboardController {
	return &DashboardController{DB: db, Log: log}
}

type statusCount struct {
	Status string
	Count  int64
}

type recentReview struct {
	ID        uint      `json:"id"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	RoomName  string    `json:"roomName"`
	RoomSlug  string    `json:"roomSlug"`
}

// GetDashboard returns the caller's listings by status, their recent reviews
// and any rooms they own.
func (dc *DashboardController) GetDashboard(c *gin.Context) {
	user := utils.GetUser(c)

	var (
		profile  models.Profile
		statuses []statusCount
		reviewsN int64
		recent   = []recentReview{}
		listings = []models.PendingListing{}
		owned    = []models.EscapeRoom{}
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	db := dc.DB.WithContext(ctx)
	g.Go(func() error {
		return db.Preload("Role").First(&profile, user.UserID).Error
	})
	g.Go(func() error {
		return db.Model(&models.PendingListing{}).
			Select("status, COUNT(*) AS count").
			Where("submitter_id = ?", user.UserID).
			Group("status").
			Scan(&statuses).Error
	})
	g.Go(func() error {
		return db.Model(&models.Review{}).Where("profile_id = ?", user.UserID).Count(&reviewsN).Error
	})
	g.Go(func() error {
		return db.Table("reviews").
			Select("reviews.id, reviews.rating, reviews.title, reviews.created_at, escape_rooms.name AS room_name, escape_rooms.slug AS room_slug").
			Joins("JOIN escape_rooms ON escape_rooms.id = reviews.room_id").
			Where("reviews.profile_id = ? AND reviews.deleted_at IS NULL", user.UserID).
			Order("reviews.created_at DESC").
			Limit(dashboardRecent).
			Scan(&recent).Error
	})
	g.Go(func() error {
		return db.Where("submitter_id = ?", user.UserID).
			Order("submitted_at DESC").
			Limit(dashboardRecent).
			Find(&listings).Error
	})
	g.Go(func() error {
		return db.Where("owner_id = ?", user.UserID).Order("name").Find(&owned).Error
	})
	if err := g.Wait(); err != nil {
		if utils.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		internalError(c, dc.Log, "GetDashboard", err)
		return
	}

	byStatus := map[string]int64{
		models.ListingPending:  0,
		models.ListingApproved: 0,
		models.ListingRejected: 0,
	}
	for _, s := range statuses {
		byStatus[s.Status] = s.Count
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"user": profileJSON(&profile),
			"stats": gin.H{
				"listings": byStatus,
				"reviews":  reviewsN,
				"rooms":    len(owned),
			},
			"recentReviews":  recent,
			"recentListings": listings,
			"rooms":          roomCards(owned),
		},
	})
}

// GetAdminStats summarises the moderation backlog and catalogue size.
func (dc *DashboardController) GetAdminStats(c *gin.Context) {
	var (
		rooms, openRooms, pending, reports, profiles, weekReviews int64
	)
	weekAgo := time.Now().AddDate(0, 0, -7)

	g, ctx := errgroup.WithContext(c.Request.Context())
	db := dc.DB.WithContext(ctx)
	g.Go(func() error { return db.Model(&models.EscapeRoom{}).Count(&rooms).Error })
	g.Go(func() error {
		return db.Model(&models.EscapeRoom{}).Where("status = ?", models.RoomStatusOpen).Count(&openRooms).Error
	})
	g.Go(func() error {
		return db.Model(&models.PendingListing{}).Where("status = ?", models.ListingPending).Count(&pending).Error
	})
	g.Go(func() error {
		return db.Model(&models.ReviewReport{}).Where("status = ?", "pending").Count(&reports).Error
	})
	g.Go(func() error { return db.Model(&models.Profile{}).Count(&profiles).Error })
	g.Go(func() error {
		return db.Model(&models.Review{}).Where("is_manual = ? AND created_at >= ?", true, weekAgo).Count(&weekReviews).Error
	})
	if err := g.Wait(); err != nil {
		internalError(c, dc.Log, "GetAdminStats", err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"rooms":           rooms,
			"openRooms":       openRooms,
			"pendingListings": pending,
			"pendingReports":  reports,
			"profiles":        profiles,
			"reviewsThisWeek": weekReviews,
		},
	})
}
