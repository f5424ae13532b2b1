package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/escape-finder/api-go/config"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, id uint, role string) string {
	t.Helper()
	pair, err := utils.IssueTokens(secret, id, role, time.Hour, time.Hour)
	require.NoError(t, err)
	return pair.AccessToken
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		u := utils.GetUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.UserID, "role": u.Role})
	})
	r.GET("/admin", AuthMiddleware(secret), RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", "Bearer nope").Code)

	rec := serve(r, "GET", "/me", "Bearer "+token(t, 7, "owner"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"owner"}`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(r, "GET", "/admin", "Bearer "+token(t, 7, "owner")).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "GET", "/admin", "Bearer "+token(t, 1, "admin")).Code)
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuth(secret), func(c *gin.Context) {
		if u := utils.GetUser(c); u != nil {
			c.String(http.StatusOK, u.Role)
			return
		}
		c.String(http.StatusOK, "anon")
	})

	assert.Equal(t, "anon", serve(r, "GET", "/", "").Body.String())
	assert.Equal(t, "anon", serve(r, "GET", "/", "Bearer garbage").Body.String())
	assert.Equal(t, "user", serve(r, "GET", "/", "Bearer "+token(t, 3, "user")).Body.String())
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)), Recovery(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	serve(r, "GET", "/ok", "")
	serve(r, "GET", "/missing?x=1", "")
	rec := serve(r, "GET", "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An unexpected error occurred"}`, rec.Body.String())

	reqs := logs.FilterMessage("request").AllUntimed()
	require.Len(t, reqs, 3)
	assert.Equal(t, zapcore.InfoLevel, reqs[0].Level)
	assert.Equal(t, zapcore.WarnLevel, reqs[1].Level)
	assert.Equal(t, "x=1", reqs[1].ContextMap()["query"])
	assert.Equal(t, zapcore.ErrorLevel, reqs[2].Level)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://rooms.example"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://rooms.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://rooms.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCacheAndRateLimitPassThroughWithoutRedis(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, nil, zap.NewNop())
	r := gin.New()
	r.GET("/rooms", rc.Handler(CacheRooms), RateLimit(config.RateLimitConfig{Enabled: true}, nil, zap.NewNop()),
		func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := serve(r, "GET", "/rooms", "")
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))

	n, err := rc.Purge(t.Context(), RoomGroups...)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json; charset=utf-8"}}
	bs, err := encodePayload(200, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, 200, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok, "header length beyond payload")
}

func TestCacheKeyIsGroupScoped(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Prefix: "c"}, nil, nil, zap.NewNop())
	a := rc.key(CacheRooms, "/api/rooms", "/api/rooms", "page=1")
	b := rc.key(CacheRooms, "/api/rooms", "/api/rooms", "page=2")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^c:rooms:[0-9a-f]{40}$`, a)
}

func TestRateKeyAndHelpers(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/reviews", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "rl:ip:10.0.0.1:POST ", rateKey("rl", c))

	c.Set(string(utils.UserContextKey), &utils.UserClaims{UserID: 9, Role: "user"})
	assert.Equal(t, "rl:user:9:POST ", rateKey("rl", c))

	assert.Equal(t, int64(3), asInt64("3"))
	assert.Equal(t, int64(1), asInt64(int64(1)))
	assert.Equal(t, int64(0), asInt64(nil))
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 2, retryAfterSeconds(1500))
}
