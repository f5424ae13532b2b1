package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/escape-finder/api-go/captcha"
	"github.com/escape-finder/api-go/catalog"
	"github.com/escape-finder/api-go/content"
	"github.com/escape-finder/api-go/events"
	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/metrics"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/types"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var errInvalidListing = errors.New("invalid listing")

// ListingController handles owner submissions. Listings only become rooms
// through the moderation endpoints.
type ListingController struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog
	Captcha captcha.Verifier
	Uploads *UploadController
	Events  events.Publisher
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewListingController(db *gorm.DB, cat *catalog.Catalog, cv captcha.Verifier, uploads *UploadController, pub events.Publisher, m *metrics.Metrics, log *zap.Logger) *ListingController {
	return &ListingController{DB: db, Catalog: cat, Captcha: cv, Uploads: uploads, Events: pub, Metrics: m, Log: log}
}

// Submit godoc
// @Summary Submit an escape room for review
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /listings [post]
func (lc *ListingController) Submit(c *gin.Context) {
	user := utils.GetUser(c)
	var input types.ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if err := lc.Captcha.Verify(c.Request.Context(), input.CaptchaToken, c.ClientIP()); err != nil {
		lc.Log.Info("listing captcha rejected", zap.Uint("user_id", user.UserID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "CAPTCHA verification failed"})
		return
	}

	listing := models.PendingListing{SubmitterID: user.UserID}
	if err := lc.apply(&listing, &input, user.UserID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), errInvalidListing.Error()+": ")})
		return
	}
	listing.Status = models.ListingPending
	listing.SubmittedAt = time.Now()

	if err := lc.DB.WithContext(c.Request.Context()).Create(&listing).Error; err != nil {
		internalError(c, lc.Log, "Submit", err)
		return
	}
	lc.Metrics.ListingSubmitted()
	lc.Log.Info("listing submitted",
		zap.Uint("listing_id", listing.ID),
		zap.Uint("user_id", user.UserID),
		zap.String("city", listing.City),
		zap.String("state", listing.State),
	)
	events.Notify(c.Request.Context(), lc.Events, lc.Log, lc.Metrics, events.QueueListingSubmitted, events.ListingSubmitted{
		ListingID:   listing.ID,
		SubmitterID: listing.SubmitterID,
		Name:        listing.Name,
		City:        listing.City,
		State:       listing.State,
		SubmittedAt: listing.SubmittedAt,
	})

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    listing,
		Message: "Listing submitted for review",
	})
}

func (lc *ListingController) ListMine(c *gin.Context) {
	user := utils.GetUser(c)
	var query types.PendingListingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	base := lc.DB.WithContext(c.Request.Context()).Model(&models.PendingListing{}).
		Where("submitter_id = ?", user.UserID)
	if query.Status != "" {
		base = base.Where("status = ?", query.Status)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		internalError(c, lc.Log, "ListMine.count", err)
		return
	}
	listings := []models.PendingListing{}
	err := base.Order("submitted_at DESC").
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&listings).Error
	if err != nil {
		internalError(c, lc.Log, "ListMine.find", err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       listings,
		Pagination: NewPagination(query.Page, query.PageSize, total),
	})
}

func (lc *ListingController) GetMine(c *gin.Context) {
	listing, ok := lc.ownListing(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: listing})
}

// UpdateMine replaces the editable fields of a listing still awaiting review.
func (lc *ListingController) UpdateMine(c *gin.Context) {
	user := utils.GetUser(c)
	var input types.ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	listing, ok := lc.ownListing(c)
	if !ok {
		return
	}
	if listing.Status != models.ListingPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Only pending listings can be edited"})
		return
	}
	if err := lc.apply(listing, &input, user.UserID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), errInvalidListing.Error()+": ")})
		return
	}

	res := lc.DB.WithContext(c.Request.Context()).
		Where("status = ?", models.ListingPending).
		Select("*").Omit("id", "created_at", "submitter_id", "status", "submitted_at", "reviewed_at", "reviewed_by", "rejection_reason", "approved_room_id", "deleted_at").
		Updates(listing)
	if res.Error != nil {
		internalError(c, lc.Log, "UpdateMine", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Only pending listings can be edited"})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: listing, Message: "Listing updated"})
}

// Withdraw deletes a listing that has not been reviewed yet.
func (lc *ListingController) Withdraw(c *gin.Context) {
	listing, ok := lc.ownListing(c)
	if !ok {
		return
	}
	res := lc.DB.WithContext(c.Request.Context()).
		Where("id = ? AND status = ?", listing.ID, models.ListingPending).
		Delete(&models.PendingListing{})
	if res.Error != nil {
		internalError(c, lc.Log, "Withdraw", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Only pending listings can be withdrawn"})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Listing withdrawn"})
}

// ownListing loads :id for the caller and answers 404 for anyone else's.
func (lc *ListingController) ownListing(c *gin.Context) (*models.PendingListing, bool) {
	user := utils.GetUser(c)
	id, ok := utils.ParamUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return nil, false
	}
	var listing models.PendingListing
	err := lc.DB.WithContext(c.Request.Context()).
		Where("id = ? AND submitter_id = ?", id, user.UserID).
		First(&listing).Error
	if utils.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return nil, false
	}
	if err != nil {
		internalError(c, lc.Log, "ownListing", err)
		return nil, false
	}
	return &listing, true
}

// apply validates input beyond its binding tags and copies it onto l.
func (lc *ListingController) apply(l *models.PendingListing, in *types.ListingInput, userID uint) error {
	if !isUSCountry(in.Country) {
		return fmt.Errorf("%w: only US listings are accepted", errInvalidListing)
	}
	st, ok := location.NormalizeState(in.State)
	if !ok {
		return fmt.Errorf("%w: unknown state %q", errInvalidListing, in.State)
	}
	if in.MinPlayers > 0 && in.MaxPlayers > 0 && in.MinPlayers > in.MaxPlayers {
		return fmt.Errorf("%w: minPlayers exceeds maxPlayers", errInvalidListing)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude go together", errInvalidListing)
	}
	for _, img := range in.Images {
		if !lc.Uploads.OwnsURL(img, userID) {
			return fmt.Errorf("%w: images must be uploaded through the upload endpoint", errInvalidListing)
		}
	}
	themes, err := lc.themeSlugs(in.Themes)
	if err != nil {
		return err
	}
	hoursJSON, err := businessHoursJSON(in.BusinessHours)
	if err != nil {
		return err
	}

	l.Name = clean(in.Name)
	l.VenueName = clean(in.VenueName)
	l.Description = content.StripTags(in.Description)
	l.Address = clean(in.Address)
	l.City = clean(in.City)
	l.State = st.Code
	l.PostalCode = clean(in.PostalCode)
	l.Country = "US"
	l.Latitude, l.Longitude = in.Latitude, in.Longitude
	l.Phone = clean(in.Phone)
	l.Website = strings.TrimSpace(in.Website)
	l.BookingURL = strings.TrimSpace(in.BookingURL)
	l.Category = clean(in.Category)
	l.Themes = themes
	l.Images = pq.StringArray(in.Images)
	l.Difficulty = in.Difficulty
	l.MinPlayers = in.MinPlayers
	l.MaxPlayers = in.MaxPlayers
	l.DurationMinutes = in.DurationMinutes
	l.Price = in.Price
	l.Amenities = dedupe(in.Amenities)
	l.BusinessHours = hoursJSON
	if l.Name == "" || l.Address == "" || l.City == "" {
		return fmt.Errorf("%w: name, address and city are required", errInvalidListing)
	}
	return nil
}

// themeSlugs maps submitted theme names or slugs onto the catalogue.
func (lc *ListingController) themeSlugs(in []string) (pq.StringArray, error) {
	out := pq.StringArray{}
	seen := map[string]bool{}
	for _, raw := range in {
		t, ok := lc.Catalog.Get(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown theme %q", errInvalidListing, raw)
		}
		if !seen[t.Slug] {
			seen[t.Slug] = true
			out = append(out, t.Slug)
		}
	}
	return out, nil
}

func businessHoursJSON(in []types.BusinessHoursInput) (datatypes.JSON, error) {
	if len(in) == 0 {
		return nil, nil
	}
	seen := map[int]bool{}
	rows := make([]types.BusinessHoursInput, 0, len(in))
	for _, h := range in {
		if seen[h.DayOfWeek] {
			return nil, fmt.Errorf("%w: day %d listed twice", errInvalidListing, h.DayOfWeek)
		}
		seen[h.DayOfWeek] = true
		if !h.IsClosed && (h.OpenTime == "" || h.CloseTime == "") {
			return nil, fmt.Errorf("%w: day %d needs openTime and closeTime", errInvalidListing, h.DayOfWeek)
		}
		row := types.BusinessHoursInput{DayOfWeek: h.DayOfWeek, IsClosed: h.IsClosed}
		if !h.IsClosed {
			row.OpenTime, row.CloseTime = h.OpenTime, h.CloseTime
		}
		rows = append(rows, row)
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func isUSCountry(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "usa", "united states", "united states of america":
		return true
	}
	return false
}

func clean(s string) string {
	return content.StripTags(s)
}

func dedupe(in []string) pq.StringArray {
	out := pq.StringArray{}
	seen := map[string]bool{}
	for _, s := range in {
		s = clean(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
