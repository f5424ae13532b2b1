package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var ErrGoogleDisabled = errors.New("google sign-in is not configured")

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Config       *oauth2.Config

	tokenInfoURL string
	userInfoURL  string
	http         *http.Client
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// tokenInfo is the subset of the tokeninfo response for ID tokens. Its field
// names differ from the userinfo endpoint.
type tokenInfo struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// NewGoogleConfig returns nil when GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET is
// missing; callers treat that as Google sign-in being switched off.
func NewGoogleConfig() *GoogleConfig {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")

	if clientID == "" || clientSecret == "" {
		return nil
	}

	return &GoogleConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		tokenInfoURL: "https://oauth2.googleapis.com/tokeninfo",
		userInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// VerifyIDToken checks an ID token with Google and that it was issued for
// this client.
func (g *GoogleConfig) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	if g == nil {
		return nil, ErrGoogleDisabled
	}
	var info tokenInfo
	if err := g.getJSON(ctx, g.tokenInfoURL+"?id_token="+url.QueryEscape(idToken), &info); err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if info.Aud != g.ClientID {
		return nil, fmt.Errorf("token issued for another client")
	}
	return &GoogleUserInfo{
		ID:            info.Sub,
		Email:         info.Email,
		VerifiedEmail: info.EmailVerified == "true",
		Name:          info.Name,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
		Picture:       info.Picture,
	}, nil
}

func (g *GoogleConfig) GetUserInfo(ctx context.Context, accessToken string) (*GoogleUserInfo, error) {
	if g == nil {
		return nil, ErrGoogleDisabled
	}
	var userInfo GoogleUserInfo
	if err := g.getJSON(ctx, g.userInfoURL+"?access_token="+url.QueryEscape(accessToken), &userInfo); err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	return &userInfo, nil
}

func (g *GoogleConfig) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if g == nil {
		return nil, ErrGoogleDisabled
	}
	return g.Config.Exchange(ctx, code)
}

func (g *GoogleConfig) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
