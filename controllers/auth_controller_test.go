package controllers

import (
	"net/http"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/escape-finder/api-go/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterValidation(t *testing.T) {
	ac := &AuthController{Log: zap.NewNop()}
	r := gin.New()
	r.POST("/register", ac.Register)

	tests := []gin.H{
		{"email": "not-an-email", "password": "longenough", "displayName": "Sam"},
		{"email": gofakeit.Email(), "password": "short", "displayName": "Sam"},
		{"email": gofakeit.Email(), "password": "longenough", "displayName": "S"},
		{"email": gofakeit.Email(), "displayName": "Sam"},
	}
	for _, body := range tests {
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/register", body).Code, body)
	}
}

func TestGoogleLoginWithoutClient(t *testing.T) {
	ac := &AuthController{Log: zap.NewNop()}
	r := gin.New()
	r.POST("/auth/google", ac.GoogleLogin)

	rec := do(r, http.MethodPost, "/auth/google", gin.H{"id_token": "abc"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Google sign-in is not available", errorOf(t, rec))

	rec = do(r, http.MethodPost, "/auth/google", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileJSON(t *testing.T) {
	secret := "hashed"
	p := &models.Profile{
		ID:          2,
		Email:       "sam@example.com",
		DisplayName: "Sam",
		Password:    &secret,
		Avatar:      "https://cdn.example.com/profiles/2/avatar/1_avatar.png",
		Role:        models.Role{Name: models.RoleOwner},
	}
	out := profileJSON(p)
	assert.Equal(t, uint(2), out["id"])
	assert.Equal(t, "sam@example.com", out["email"])
	assert.Equal(t, models.RoleOwner, out["role"])
	assert.NotContains(t, out, "password")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "sam@example.com", normalizeEmail("  Sam@Example.COM "))
}
