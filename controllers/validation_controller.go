package controllers

import (
	"net/http"
	"strings"

	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ValidationController struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewValidationController(db *gorm.DB, log *zap.Logger) *ValidationController {
	return &ValidationController{DB: db, Log: log}
}

func (vc *ValidationController) ValidateEmail(c *gin.Context) {
	email := normalizeEmail(c.Param("email"))
	if email == "" || !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
		return
	}

	var profile models.Profile
	err := vc.DB.WithContext(c.Request.Context()).Select("id").Where("email = ?", email).First(&profile).Error
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"exists": true})
	case utils.IsNotFound(err):
		c.JSON(http.StatusOK, gin.H{"exists": false})
	default:
		internalError(c, vc.Log, "ValidateEmail", err)
	}
}

// ValidateState resolves any accepted spelling of a state for form input.
func (vc *ValidationController) ValidateState(c *gin.Context) {
	st, ok := location.NormalizeState(c.Param("state"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"valid": false, "error": "Unknown state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "state": st, "slug": st.Slug()})
}

// ValidateSlug reports whether a room slug is already published.
func (vc *ValidationController) ValidateSlug(c *gin.Context) {
	slug := location.Slugify(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slug"})
		return
	}
	var count int64
	if err := vc.DB.WithContext(c.Request.Context()).Unscoped().Model(&models.EscapeRoom{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		internalError(c, vc.Log, "ValidateSlug", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": slug, "exists": count > 0})
}
