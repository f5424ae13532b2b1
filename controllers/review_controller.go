package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/escape-finder/api-go/captcha"
	"github.com/escape-finder/api-go/content"
	"github.com/escape-finder/api-go/events"
	"github.com/escape-finder/api-go/metrics"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/reviews"
	"github.com/escape-finder/api-go/types"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errOwnReview = errors.New("cannot vote on own review")

type ReviewController struct {
	DB      *gorm.DB
	Captcha captcha.Verifier
	Events  events.Publisher
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewReviewController(db *gorm.DB, cv captcha.Verifier, pub events.Publisher, m *metrics.Metrics, log *zap.Logger) *ReviewController {
	return &ReviewController{DB: db, Captcha: cv, Events: pub, Metrics: m, Log: log}
}

type reviewView struct {
	models.Review
	VotedHelpful bool `json:"votedHelpful"`
	IsOwn        bool `json:"isOwn"`
}

func reviewOrder(sort string) string {
	switch sort {
	case "highest":
		return "rating DESC, created_at DESC"
	case "lowest":
		return "rating ASC, created_at DESC"
	case "helpful":
		return "helpful_count DESC, created_at DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

// Create godoc
// @Summary Review an escape room
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /rooms/{slug}/reviews [post]
func (rc *ReviewController) Create(c *gin.Context) {
	user := utils.GetUser(c)
	var input types.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if input.VisitedAt != nil && input.VisitedAt.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visitedAt cannot be in the future"})
		return
	}
	if err := rc.Captcha.Verify(c.Request.Context(), input.CaptchaToken, c.ClientIP()); err != nil {
		rc.Metrics.Review("captcha_failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "CAPTCHA verification failed"})
		return
	}
	body := content.StripTags(input.Body)
	if len([]rune(body)) < 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review text is too short"})
		return
	}

	db := rc.DB.WithContext(c.Request.Context())
	room, ok := rc.room(c, db)
	if !ok {
		return
	}
	var profile models.Profile
	if err := db.Select("id, display_name").First(&profile, user.UserID).Error; err != nil {
		internalError(c, rc.Log, "Create.profile", err)
		return
	}

	profileID := user.UserID
	review := models.Review{
		RoomID:     room.ID,
		ProfileID:  &profileID,
		AuthorName: profile.DisplayName,
		Rating:     input.Rating,
		Title:      content.StripTags(input.Title),
		Body:       body,
		IsManual:   true,
		VisitedAt:  input.VisitedAt,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return reviews.Recalculate(tx, room.ID)
	})
	if utils.IsUniqueViolation(err) {
		rc.Metrics.Review("duplicate")
		c.JSON(http.StatusConflict, gin.H{"error": "You have already reviewed this room"})
		return
	}
	if err != nil {
		internalError(c, rc.Log, "Create", err)
		return
	}

	rc.Metrics.Review("created")
	events.Notify(c.Request.Context(), rc.Events, rc.Log, rc.Metrics, events.QueueReviewCreated, events.ReviewCreated{
		ReviewID:  review.ID,
		RoomID:    room.ID,
		RoomSlug:  room.Slug,
		ProfileID: profileID,
		Rating:    review.Rating,
		CreatedAt: review.CreatedAt,
	})
	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    reviewView{Review: review, IsOwn: true},
		Message: "Review posted",
	})
}

// List returns a page of a room's reviews with the rating breakdown.
func (rc *ReviewController) List(c *gin.Context) {
	var query types.ReviewListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	db := rc.DB.WithContext(c.Request.Context())
	room, ok := rc.room(c, db)
	if !ok {
		return
	}

	base := db.Model(&models.Review{}).Where("room_id = ?", room.ID).Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		internalError(c, rc.Log, "List.count", err)
		return
	}
	var list []models.Review
	err := base.Order(reviewOrder(query.Sort)).
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&list).Error
	if err != nil {
		internalError(c, rc.Log, "List.find", err)
		return
	}
	ratings, err := reviews.ForRoom(db, room.ID)
	if err != nil {
		internalError(c, rc.Log, "List.ratings", err)
		return
	}

	voted := map[uint]bool{}
	user := utils.GetUser(c)
	if user != nil && len(list) > 0 {
		ids := make([]uint, len(list))
		for i := range list {
			ids[i] = list[i].ID
		}
		var votedIDs []uint
		err := db.Model(&models.ReviewVote{}).
			Where("profile_id = ? AND review_id IN ?", user.UserID, ids).
			Pluck("review_id", &votedIDs).Error
		if err != nil {
			internalError(c, rc.Log, "List.votes", err)
			return
		}
		for _, id := range votedIDs {
			voted[id] = true
		}
	}

	out := make([]reviewView, len(list))
	for i := range list {
		out[i] = reviewView{Review: list[i], VotedHelpful: voted[list[i].ID]}
		if user != nil && list[i].ProfileID != nil && *list[i].ProfileID == user.UserID {
			out[i].IsOwn = true
		}
	}
	rating, count := reviews.RoomRating(room)
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    out,
		Meta: gin.H{
			"summary":      reviews.Summarize(ratings),
			"rating":       rating,
			"reviewsCount": count,
		},
		Pagination: NewPagination(query.Page, query.PageSize, total),
	})
}

// ToggleHelpful adds the caller's helpful vote, or removes it when present.
func (rc *ReviewController) ToggleHelpful(c *gin.Context) {
	user := utils.GetUser(c)
	id, ok := utils.ParamUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	var (
		review  models.Review
		helpful bool
	)
	err := rc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&review, id).Error; err != nil {
			return err
		}
		if review.ProfileID != nil && *review.ProfileID == user.UserID {
			return errOwnReview
		}

		res := tx.Where("review_id = ? AND profile_id = ?", id, user.UserID).Delete(&models.ReviewVote{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.ReviewVote{ReviewID: id, ProfileID: user.UserID}).Error; err != nil {
				return err
			}
			delta, helpful = 1, true
		}
		err := tx.Model(&review).
			Update("helpful_count", gorm.Expr("GREATEST(helpful_count + ?, 0)", delta)).Error
		if err != nil {
			return err
		}
		return tx.Select("helpful_count").First(&review, id).Error
	})
	switch {
	case utils.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	case errors.Is(err, errOwnReview):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot vote on your own review"})
		return
	case err != nil:
		internalError(c, rc.Log, "ToggleHelpful", err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"helpful": helpful, "helpfulCount": review.HelpfulCount},
	})
}

func (rc *ReviewController) Report(c *gin.Context) {
	user := utils.GetUser(c)
	id, ok := utils.ParamUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}
	var input types.ReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	db := rc.DB.WithContext(c.Request.Context())
	var count int64
	if err := db.Model(&models.Review{}).Where("id = ?", id).Count(&count).Error; err != nil {
		internalError(c, rc.Log, "Report", err)
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}
	if err := db.Model(&models.ReviewReport{}).
		Where("review_id = ? AND reporter_id = ? AND status = ?", id, user.UserID, "pending").
		Count(&count).Error; err != nil {
		internalError(c, rc.Log, "Report", err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "You have already reported this review"})
		return
	}

	report := models.ReviewReport{
		ReviewID:    id,
		ReporterID:  user.UserID,
		Reason:      input.Reason,
		Description: content.StripTags(input.Description),
		Status:      "pending",
	}
	if err := db.Create(&report).Error; err != nil {
		internalError(c, rc.Log, "Report", err)
		return
	}
	rc.Log.Info("review reported", zap.Uint("review_id", id), zap.String("reason", input.Reason))
	c.JSON(http.StatusCreated, StandardResponse{Success: true, Message: "Report submitted"})
}

// Delete removes the caller's own review; admins may remove any.
func (rc *ReviewController) Delete(c *gin.Context) {
	user := utils.GetUser(c)
	id, ok := utils.ParamUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	db := rc.DB.WithContext(c.Request.Context())
	var review models.Review
	if err := db.First(&review, id).Error; err != nil {
		if utils.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
			return
		}
		internalError(c, rc.Log, "Delete", err)
		return
	}
	own := review.ProfileID != nil && *review.ProfileID == user.UserID
	if !own && !user.HasRole(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if err := db.Transaction(func(tx *gorm.DB) error { return deleteReview(tx, id) }); err != nil {
		internalError(c, rc.Log, "Delete", err)
		return
	}
	rc.Metrics.Review("deleted")
	events.Notify(c.Request.Context(), rc.Events, rc.Log, rc.Metrics, events.QueueReviewRemoved, events.ReviewRemoved{
		ReviewID:  review.ID,
		RoomID:    review.RoomID,
		RemovedBy: user.UserID,
		Reason:    "deleted",
		RemovedAt: time.Now(),
	})
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Review deleted"})
}

func (rc *ReviewController) room(c *gin.Context, db *gorm.DB) (*models.EscapeRoom, bool) {
	var room models.EscapeRoom
	err := db.Where("slug = ?", c.Param("slug")).First(&room).Error
	if utils.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Escape room not found"})
		return nil, false
	}
	if err != nil {
		internalError(c, rc.Log, "room", err)
		return nil, false
	}
	return &room, true
}

// deleteReview drops a review with its votes and refreshes the room rating.
// It must run inside a transaction.
func deleteReview(tx *gorm.DB, id uint) error {
	var review models.Review
	if err := tx.First(&review, id).Error; err != nil {
		return err
	}
	if err := tx.Where("review_id = ?", id).Delete(&models.ReviewVote{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(&review).Error; err != nil {
		return err
	}
	return reviews.Recalculate(tx, review.RoomID)
}
