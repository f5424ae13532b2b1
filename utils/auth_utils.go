package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

var ErrInvalidToken = errors.New("invalid token")

type UserClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

// HasRole reports whether the caller holds one of roles.
func (u *UserClaims) HasRole(roles ...string) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(c *gin.Context) *UserClaims {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	if userClaims, ok := user.(*UserClaims); ok {
		return userClaims
	}
	return nil
}

type TokenPair struct {
	TokenType        string    `json:"token_type"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"-"`
}

// IssueTokens signs an access token carrying user_id and role, and a refresh
// token carrying user_id only.
func IssueTokens(secret string, userID uint, role string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	now := time.Now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(accessTTL).Unix(),
	})
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(refreshTTL).Unix(),
		"iat":     now.UnixNano(),
	})

	accessToken, err := access.SignedString([]byte(secret))
	if err != nil {
		return TokenPair{}, fmt.Errorf("utils.IssueTokens: %w", err)
	}
	refreshToken, err := refresh.SignedString([]byte(secret))
	if err != nil {
		return TokenPair{}, fmt.Errorf("utils.IssueTokens: %w", err)
	}
	return TokenPair{
		TokenType:        "Bearer",
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(refreshTTL),
	}, nil
}

// ParseAccessToken validates an HS256 token and returns its claims. Tokens
// without a role claim (refresh tokens) are rejected.
func ParseAccessToken(secret, token string) (*UserClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return nil, ErrInvalidToken
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return nil, ErrInvalidToken
	}
	return &UserClaims{UserID: uint(id), Role: role}, nil
}
