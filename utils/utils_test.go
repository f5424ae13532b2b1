package utils

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIssueAndParseTokens(t *testing.T) {
	pair, err := IssueTokens("secret", 42, "admin", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := ParseAccessToken("secret", pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, claims.HasRole("owner", "admin"))
	assert.False(t, claims.HasRole("owner"))

	_, err = ParseAccessToken("other", pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken("secret", pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh tokens carry no role")
}

func TestParseAccessTokenExpired(t *testing.T) {
	pair, err := IssueTokens("secret", 1, "user", -time.Minute, time.Hour)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query      string
		page, size int
	}{
		{"", 1, 20},
		{"?page=3&pageSize=10", 3, 10},
		{"?page=-1&limit=5", 1, 5},
		{"?pageSize=500", 1, MaxPageSize},
		{"?page=x&pageSize=y", 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/rooms"+tt.query, nil)
			page, size := Page(c, DefaultPageSize)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.size, size)
		})
	}
	assert.Equal(t, 3, TotalPages(41, 20))
	assert.Equal(t, 0, TotalPages(0, 20))
}

func TestValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerOn(v))

	type input struct {
		State string `validate:"required,usstate"`
		Slug  string `validate:"omitempty,slug"`
	}
	assert.NoError(t, v.Struct(input{State: "California", Slug: "escape-room-la"}))
	assert.NoError(t, v.Struct(input{State: "ny"}))

	err := v.Struct(input{State: "Ontario"})
	require.Error(t, err)
	assert.Equal(t, "State must be a US state", ValidationMessage(err))

	err = v.Struct(input{State: "TX", Slug: "Bad Slug"})
	require.Error(t, err)
	assert.Equal(t, "Slug must be a lowercase slug", ValidationMessage(err))
}
