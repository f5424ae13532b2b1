package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/escape-finder/api-go/config"
	"github.com/escape-finder/api-go/models"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB               *gorm.DB
	GoogleConfig     *config.GoogleConfig
	UploadController *UploadController
	Log              *zap.Logger
	Secret           string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
}

func NewAuthController(db *gorm.DB, cfg config.Config, google *config.GoogleConfig, uploads *UploadController, log *zap.Logger) *AuthController {
	return &AuthController{
		DB:               db,
		GoogleConfig:     google,
		UploadController: uploads,
		Log:              log,
		Secret:           cfg.JWTSecret,
		AccessTTL:        cfg.AccessTTL,
		RefreshTTL:       cfg.RefreshTTL,
	}
}

type registerInput struct {
	Email         string `json:"email" binding:"required,email,max=254"`
	Password      string `json:"password" binding:"required,min=8,max=72"`
	DisplayName   string `json:"displayName" binding:"required,min=2,max=50"`
	AvatarTempKey string `json:"avatarTempKey"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type googleInput struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
	Code        string `json:"code"`
}

type profileUpdateInput struct {
	DisplayName *string `json:"displayName" binding:"omitempty,min=2,max=50"`
	Avatar      *string `json:"avatar" binding:"omitempty,url"`
}

func profileJSON(p *models.Profile) gin.H {
	return gin.H{
		"id":            p.ID,
		"email":         p.Email,
		"displayName":   p.DisplayName,
		"avatar":        p.Avatar,
		"provider":      p.Provider,
		"role":          p.Role.Name,
		"emailVerified": p.EmailVerified,
		"createdAt":     p.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (ac *AuthController) Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(c, ac.Log, "Register", err)
		return
	}
	hashedStr := string(hashed)

	var role models.Role
	if err := ac.DB.Where("name = ?", models.RoleUser).First(&role).Error; err != nil {
		internalError(c, ac.Log, "Register", err)
		return
	}

	profile := models.Profile{
		Email:       normalizeEmail(input.Email),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Password:    &hashedStr,
		Provider:    "email",
		RoleID:      role.ID,
		Role:        role,
	}
	if err := ac.DB.Omit("Role").Create(&profile).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		internalError(c, ac.Log, "Register", err)
		return
	}

	if input.AvatarTempKey != "" {
		if url := ac.UploadController.ConfirmAvatar(c.Request.Context(), input.AvatarTempKey, profile.ID); url != "" {
			profile.Avatar = url
			if err := ac.DB.Model(&profile).Update("avatar", url).Error; err != nil {
				ac.Log.Warn("avatar save failed", zap.Uint("profile_id", profile.ID), zap.Error(err))
			}
		}
	}

	tokens, err := ac.issueSession(&profile)
	if err != nil {
		internalError(c, ac.Log, "Register", err)
		return
	}
	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    gin.H{"tokens": tokens, "user": profileJSON(&profile)},
		Message: "User registered successfully",
	})
}

func (ac *AuthController) RegisterEmailCheck(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	var count int64
	if err := ac.DB.Model(&models.Profile{}).Where("email = ?", normalizeEmail(input.Email)).Count(&count).Error; err != nil {
		internalError(c, ac.Log, "RegisterEmailCheck", err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered", "available": false})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"available": true},
		Message: "Email available for registration",
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	var profile models.Profile
	if err := ac.DB.Preload("Role").Where("email = ?", normalizeEmail(input.Email)).First(&profile).Error; err != nil {
		if !utils.IsNotFound(err) {
			internalError(c, ac.Log, "Login", err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if profile.Password == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*profile.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokens, err := ac.issueSession(&profile)
	if err != nil {
		internalError(c, ac.Log, "Login", err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"tokens": tokens, "user": profileJSON(&profile)},
	})
}

// RefreshToken rotates a stored refresh token and issues a new pair.
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var input refreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	var stored models.RefreshToken
	if err := ac.DB.Where("token = ?", input.RefreshToken).First(&stored).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if time.Now().After(stored.ExpirationDate) {
		ac.DB.Delete(&stored)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
		return
	}

	var profile models.Profile
	if err := ac.DB.Preload("Role").First(&profile, stored.ProfileID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	tokens, err := utils.IssueTokens(ac.Secret, profile.ID, profile.Role.Name, ac.AccessTTL, ac.RefreshTTL)
	if err != nil {
		internalError(c, ac.Log, "RefreshToken", err)
		return
	}
	stored.Token = tokens.RefreshToken
	stored.ExpirationDate = tokens.RefreshExpiresAt
	if err := ac.DB.Save(&stored).Error; err != nil {
		internalError(c, ac.Log, "RefreshToken", err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"tokens": tokens, "user": profileJSON(&profile)},
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	var input refreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	if err := ac.DB.Where("token = ?", input.RefreshToken).Delete(&models.RefreshToken{}).Error; err != nil {
		internalError(c, ac.Log, "Logout", err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Logged out successfully"})
}

// GoogleLogin accepts an authorization code, an ID token or an access token
// and signs the matching profile in, creating it on first use.
func (ac *AuthController) GoogleLogin(c *gin.Context) {
	var input googleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		info *config.GoogleUserInfo
		err  error
	)
	switch {
	case input.Code != "":
		token, xerr := ac.GoogleConfig.ExchangeCode(ctx, input.Code)
		if xerr != nil {
			err = xerr
			break
		}
		info, err = ac.GoogleConfig.GetUserInfo(ctx, token.AccessToken)
	case input.IDToken != "":
		info, err = ac.GoogleConfig.VerifyIDToken(ctx, input.IDToken)
	case input.AccessToken != "":
		info, err = ac.GoogleConfig.GetUserInfo(ctx, input.AccessToken)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "One of code, id_token or access_token is required"})
		return
	}
	if errors.Is(err, config.ErrGoogleDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not available"})
		return
	}
	if err != nil || info.Email == "" {
		ac.Log.Info("google sign-in rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google token"})
		return
	}

	profile, err := ac.googleProfile(info)
	if err != nil {
		internalError(c, ac.Log, "GoogleLogin", err)
		return
	}
	tokens, err := ac.issueSession(profile)
	if err != nil {
		internalError(c, ac.Log, "GoogleLogin", err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"tokens": tokens, "user": profileJSON(profile)},
	})
}

// googleProfile links the Google account to an existing profile with the same
// email, or creates one.
func (ac *AuthController) googleProfile(info *config.GoogleUserInfo) (*models.Profile, error) {
	email := normalizeEmail(info.Email)
	var profile models.Profile
	err := ac.DB.Preload("Role").Where("google_id = ? OR email = ?", info.ID, email).First(&profile).Error
	if err == nil {
		if profile.GoogleID == nil {
			updates := map[string]interface{}{"google_id": info.ID, "email_verified": true}
			if profile.Avatar == "" && info.Picture != "" {
				updates["avatar"] = info.Picture
			}
			if err := ac.DB.Model(&profile).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &profile, nil
	}
	if !utils.IsNotFound(err) {
		return nil, err
	}

	var role models.Role
	if err := ac.DB.Where("name = ?", models.RoleUser).First(&role).Error; err != nil {
		return nil, err
	}
	googleID := info.ID
	profile = models.Profile{
		Email:         email,
		DisplayName:   info.Name,
		Provider:      "google",
		GoogleID:      &googleID,
		Avatar:        info.Picture,
		RoleID:        role.ID,
		Role:          role,
		EmailVerified: true,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = strings.Split(email, "@")[0]
	}
	if err := ac.DB.Omit("Role").Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (ac *AuthController) GetProfile(c *gin.Context) {
	user := utils.GetUser(c)
	var profile models.Profile
	if err := ac.DB.Preload("Role").First(&profile, user.UserID).Error; err != nil {
		if utils.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		internalError(c, ac.Log, "GetProfile", err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: profileJSON(&profile)})
}

func (ac *AuthController) UpdateProfile(c *gin.Context) {
	user := utils.GetUser(c)
	var input profileUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	var profile models.Profile
	if err := ac.DB.Preload("Role").First(&profile, user.UserID).Error; err != nil {
		if utils.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		internalError(c, ac.Log, "UpdateProfile", err)
		return
	}

	updates := map[string]interface{}{}
	if input.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*input.DisplayName)
	}
	if input.Avatar != nil {
		updates["avatar"] = *input.Avatar
	}
	if len(updates) > 0 {
		if err := ac.DB.Model(&profile).Updates(updates).Error; err != nil {
			internalError(c, ac.Log, "UpdateProfile", err)
			return
		}
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    profileJSON(&profile),
		Message: "Profile updated successfully",
	})
}

func (ac *AuthController) issueSession(p *models.Profile) (utils.TokenPair, error) {
	tokens, err := utils.IssueTokens(ac.Secret, p.ID, p.Role.Name, ac.AccessTTL, ac.RefreshTTL)
	if err != nil {
		return utils.TokenPair{}, err
	}
	err = ac.DB.Create(&models.RefreshToken{
		ProfileID:      p.ID,
		Token:          tokens.RefreshToken,
		ExpirationDate: tokens.RefreshExpiresAt,
	}).Error
	if err != nil {
		return utils.TokenPair{}, err
	}
	return tokens, nil
}
