package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/escape-finder/api-go/events"
	"github.com/escape-finder/api-go/hours"
	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/metrics"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/types"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNotPending = errors.New("listing already reviewed")

// ModerationController serves the admin review queue.
type ModerationController struct {
	DB      *gorm.DB
	Events  events.Publisher
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewModerationController(db *gorm.DB, pub events.Publisher, m *metrics.Metrics, log *zap.Logger) *ModerationController {
	return &ModerationController{DB: db, Events: pub, Metrics: m, Log: log}
}

// ListPending pages through listings oldest first so the queue drains in
// submission order.
func (mc *ModerationController) ListPending(c *gin.Context) {
	var query types.PendingListingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	status := query.Status
	if status == "" {
		status = models.ListingPending
	}

	base := mc.DB.WithContext(c.Request.Context()).Model(&models.PendingListing{}).
		Where("status = ?", status).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		internalError(c, mc.Log, "ListPending.count", err)
		return
	}
	listings := []models.PendingListing{}
	err := base.Order("submitted_at ASC, id ASC").
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&listings).Error
	if err != nil {
		internalError(c, mc.Log, "ListPending.find", err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       listings,
		Pagination: NewPagination(query.Page, query.PageSize, total),
	})
}

func (mc *ModerationController) GetListing(c *gin.Context) {
	id, ok := utils.ParamUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}
	var listing models.PendingListing
	err := mc.DB.WithContext(c.Request.Context()).First(&listing, id).Error
	if utils.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		internalError(c, mc.Log, "GetListing", err)
		return
	}

	var history []models.ModerationLog
	if err := mc.DB.WithContext(c.Request.Context()).Where("listing_id = ?", id).Order("created_at").Find(&history).Error; err != nil {
		internalError(c, mc.Log, "GetListing.history", err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"listing": listing, "history": history},
	})
}

// Approve turns a pending listing into a published room in one transaction.
func (mc *ModerationController) Approve(c *gin.Context) {
	moderator := utils.GetUser(c)
	id, ok := utils.ParamUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	var (
		listing models.PendingListing
		room    models.EscapeRoom
	)
	now := time.Now()
	err := mc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&listing, id).Error; err != nil {
			return err
		}
		if listing.Status != models.ListingPending {
			return errNotPending
		}

		room = roomFromListing(&listing)
		slug, err := uniqueSlug(tx, listingSlug(&listing))
		if err != nil {
			return err
		}
		room.Slug = slug
		if err := tx.Omit("Amenities", "Hours").Create(&room).Error; err != nil {
			return err
		}

		if amenities := amenityRows(room.ID, listing.Amenities); len(amenities) > 0 {
			if err := tx.Create(&amenities).Error; err != nil {
				return err
			}
		}
		if rows := hours.ToRows(room.ID, hours.Parse(listing.BusinessHours)); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		err = tx.Model(&listing).Updates(map[string]interface{}{
			"status":           models.ListingApproved,
			"reviewed_at":      now,
			"reviewed_by":      moderator.UserID,
			"approved_room_id": room.ID,
		}).Error
		if err != nil {
			return err
		}
		if err := promoteOwner(tx, listing.SubmitterID); err != nil {
			return err
		}
		return tx.Create(&models.ModerationLog{
			ListingID:   listing.ID,
			ModeratorID: moderator.UserID,
			Action:      models.ActionApprove,
			RoomID:      &room.ID,
		}).Error
	})
	if !mc.moderationOK(c, "Approve", err) {
		return
	}

	mc.Metrics.Moderation(models.ActionApprove)
	mc.Log.Info("listing approved",
		zap.Uint("listing_id", listing.ID),
		zap.Uint("room_id", room.ID),
		zap.String("slug", room.Slug),
		zap.Uint("moderator_id", moderator.UserID),
	)
	events.Notify(c.Request.Context(), mc.Events, mc.Log, mc.Metrics, events.QueueListingModerated, events.ListingModerated{
		ListingID:   listing.ID,
		SubmitterID: listing.SubmitterID,
		ModeratorID: moderator.UserID,
		Action:      models.ActionApprove,
		RoomID:      &room.ID,
		RoomSlug:    room.Slug,
		ModeratedAt: now,
	})

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"listingId": listing.ID, "room": roomCard(&room)},
		Message: "Listing approved",
	})
}

func (mc *ModerationController) Reject(c *gin.Context) {
	moderator := utils.GetUser(c)
	id, ok := utils.ParamUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}
	var input types.RejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	reason := strings.TrimSpace(input.Reason)

	var listing models.PendingListing
	now := time.Now()
	err := mc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&listing, id).Error; err != nil {
			return err
		}
		if listing.Status != models.ListingPending {
			return errNotPending
		}
		err := tx.Model(&listing).Updates(map[string]interface{}{
			"status":           models.ListingRejected,
			"reviewed_at":      now,
			"reviewed_by":      moderator.UserID,
			"rejection_reason": reason,
		}).Error
		if err != nil {
			return err
		}
		return tx.Create(&models.ModerationLog{
			ListingID:   listing.ID,
			ModeratorID: moderator.UserID,
			Action:      models.ActionReject,
			Reason:      reason,
		}).Error
	})
	if !mc.moderationOK(c, "Reject", err) {
		return
	}

	mc.Metrics.Moderation(models.ActionReject)
	mc.Log.Info("listing rejected", zap.Uint("listing_id", listing.ID), zap.Uint("moderator_id", moderator.UserID))
	events.Notify(c.Request.Context(), mc.Events, mc.Log, mc.Metrics, events.QueueListingModerated, events.ListingModerated{
		ListingID:   listing.ID,
		SubmitterID: listing.SubmitterID,
		ModeratorID: moderator.UserID,
		Action:      models.ActionReject,
		Reason:      reason,
		ModeratedAt: now,
	})

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: listing, Message: "Listing rejected"})
}

// moderationOK reports whether the moderation transaction succeeded. On
// failure it writes the matching error response.
func (mc *ModerationController) moderationOK(c *gin.Context, op string, err error) bool {
	switch {
	case err == nil:
		return true
	case utils.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
	case errors.Is(err, errNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "Listing has already been reviewed"})
	default:
		internalError(c, mc.Log, op, err)
	}
	return false
}

type reportQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending resolved dismissed"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=20" binding:"min=1,max=50"`
}

// ListReports pages through flagged reviews, oldest first.
func (mc *ModerationController) ListReports(c *gin.Context) {
	var query reportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	if query.Status == "" {
		query.Status = "pending"
	}

	base := mc.DB.WithContext(c.Request.Context()).Model(&models.ReviewReport{}).
		Where("status = ?", query.Status).
		Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		internalError(c, mc.Log, "ListReports.count", err)
		return
	}
	reports := []models.ReviewReport{}
	err := base.Preload("Review").
		Order("created_at ASC").
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&reports).Error
	if err != nil {
		internalError(c, mc.Log, "ListReports.find", err)
		return
	}

	out := make([]gin.H, len(reports))
	for i, r := range reports {
		out[i] = gin.H{"report": r, "review": r.Review}
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       out,
		Pagination: NewPagination(query.Page, query.PageSize, total),
	})
}

// ResolveReport closes a report; resolving with removeReview deletes the
// review and refreshes the room rating.
func (mc *ModerationController) ResolveReport(c *gin.Context) {
	id, ok := utils.ParamUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}
	var input struct {
		Status       string `json:"status" binding:"required,oneof=resolved dismissed"`
		RemoveReview bool   `json:"removeReview"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	var (
		report  models.ReviewReport
		removed *models.Review
	)
	err := mc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, id).Error; err != nil {
			return err
		}
		if input.RemoveReview && input.Status == "resolved" {
			var review models.Review
			err := tx.First(&review, report.ReviewID).Error
			switch {
			case err == nil:
				if err := deleteReview(tx, review.ID); err != nil {
					return err
				}
				removed = &review
			case !utils.IsNotFound(err):
				return err
			}
		}
		return tx.Model(&models.ReviewReport{}).
			Where("review_id = ? AND status = ?", report.ReviewID, "pending").
			Update("status", input.Status).Error
	})
	if utils.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	if err != nil {
		internalError(c, mc.Log, "ResolveReport", err)
		return
	}
	if removed != nil {
		events.Notify(c.Request.Context(), mc.Events, mc.Log, mc.Metrics, events.QueueReviewRemoved, events.ReviewRemoved{
			ReviewID:  removed.ID,
			RoomID:    removed.RoomID,
			RemovedBy: utils.GetUser(c).UserID,
			Reason:    "reported",
			RemovedAt: time.Now(),
		})
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Report updated"})
}

// roomFromListing copies the editable fields of an approved listing. The
// submitter becomes the room's owner.
func roomFromListing(l *models.PendingListing) models.EscapeRoom {
	state := l.State
	if st, ok := location.NormalizeState(l.State); ok {
		state = st.Code
	}
	owner := l.SubmitterID
	room := models.EscapeRoom{
		Name:            l.Name,
		VenueName:       l.VenueName,
		Description:     l.Description,
		Address:         l.Address,
		City:            l.City,
		State:           state,
		PostalCode:      l.PostalCode,
		Country:         l.Country,
		Latitude:        l.Latitude,
		Longitude:       l.Longitude,
		Phone:           l.Phone,
		Website:         l.Website,
		BookingURL:      l.BookingURL,
		Category:        l.Category,
		Themes:          l.Themes,
		Images:          l.Images,
		Difficulty:      l.Difficulty,
		MinPlayers:      l.MinPlayers,
		MaxPlayers:      l.MaxPlayers,
		DurationMinutes: l.DurationMinutes,
		Price:           l.Price,
		WorkingHours:    l.BusinessHours,
		Status:          models.RoomStatusOpen,
		OwnerID:         &owner,
	}
	if room.Country == "" {
		room.Country = "US"
	}
	if room.DurationMinutes == 0 {
		room.DurationMinutes = 60
	}
	return room
}

func listingSlug(l *models.PendingListing) string {
	base := location.Slugify(l.Name + " " + l.City)
	if base == "" {
		base = "escape-room"
	}
	return base
}

// uniqueSlug returns base, or base-N for the smallest free N. Soft-deleted
// rooms still hold their slug.
func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	var taken []string
	err := tx.Unscoped().Model(&models.EscapeRoom{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &taken).Error
	if err != nil {
		return "", fmt.Errorf("controllers.uniqueSlug: %w", err)
	}
	return nextSlug(base, taken), nil
}

func nextSlug(base string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, s := range taken {
		used[s] = true
	}
	if !used[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !used[candidate] {
			return candidate
		}
	}
}

func amenityRows(roomID uint, amenities []string) []models.RoomAmenity {
	seen := map[string]bool{}
	out := make([]models.RoomAmenity, 0, len(amenities))
	for _, a := range amenities {
		a = strings.TrimSpace(a)
		if a == "" || seen[strings.ToLower(a)] {
			continue
		}
		seen[strings.ToLower(a)] = true
		out = append(out, models.RoomAmenity{RoomID: roomID, Amenity: a})
	}
	return out
}

// promoteOwner gives a plain user the owner role once they have a published
// room. Admins keep their role.
func promoteOwner(tx *gorm.DB, profileID uint) error {
	return tx.Exec(`UPDATE profiles SET role_id = (SELECT id FROM roles WHERE name = ?)
		WHERE id = ? AND role_id = (SELECT id FROM roles WHERE name = ?)`,
		models.RoleOwner, profileID, models.RoleUser).Error
}
