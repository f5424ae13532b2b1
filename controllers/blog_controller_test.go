package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/escape-finder/api-go/content"
	"github.com/escape-finder/api-go/seo"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const articlesJSON = `{
	"data": [{
		"id": 1,
		"slug": "best-horror-rooms",
		"title": "Best Horror Rooms",
		"description": "",
		"content": "# Scared yet?\n\nTen rooms that will keep you up at night.",
		"author": {"name": "Riley"},
		"publishedAt": "2026-03-01T10:00:00Z"
	}],
	"meta": {"pagination": {"page": 1, "pageSize": 12, "pageCount": 1, "total": 1}}
}`

var site = seo.Site{Name: "Escape Finder", BaseURL: "https://escape.example.com"}

func blogRouter(bc *BlogController) *gin.Engine {
	r := gin.New()
	r.GET("/blog", bc.ListPosts)
	r.GET("/blog/:slug", bc.GetPost)
	return r
}

func TestBlogFromCMS(t *testing.T) {
	cms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/articles", r.URL.Path)
		if r.URL.Query().Get("filters[slug][$eq]") == "missing" {
			_, _ = w.Write([]byte(`{"data":[],"meta":{"pagination":{}}}`))
			return
		}
		_, _ = w.Write([]byte(articlesJSON))
	}))
	defer cms.Close()

	bc := NewBlogController(content.NewClient(cms.URL, "", time.Second, zap.NewNop()), site, zap.NewNop())
	r := blogRouter(bc)

	rec := do(r, http.MethodGet, "/blog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data       []content.Post `json:"data"`
		Pagination PaginationMeta `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "best-horror-rooms", list.Data[0].Slug)
	assert.Empty(t, list.Data[0].HTML)
	assert.Contains(t, list.Data[0].Excerpt, "Ten rooms")
	assert.Equal(t, int64(1), list.Pagination.TotalItems)

	rec = do(r, http.MethodGet, "/blog/best-horror-rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var one struct {
		Data struct {
			Post content.Post `json:"post"`
			Meta seo.Meta     `json:"meta"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Contains(t, one.Data.Post.HTML, "<h1")
	assert.Equal(t, "https://escape.example.com/blog/best-horror-rooms", one.Data.Meta.Canonical)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/blog/missing", nil).Code)
}

func TestBlogFailsSoft(t *testing.T) {
	cms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer cms.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	bc := NewBlogController(content.NewClient(cms.URL, "", time.Second, zap.NewNop()), site, zap.New(core))
	r := blogRouter(bc)

	rec := do(r, http.MethodGet, "/blog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(mustField(t, rec.Body.Bytes(), "data")))
	assert.Equal(t, 1, logs.FilterMessage("blog list unavailable").Len())

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/blog/anything", nil).Code)
}

func TestBlogWithoutCMS(t *testing.T) {
	r := blogRouter(NewBlogController(content.NewClient("", "", 0, zap.NewNop()), site, zap.NewNop()))
	rec := do(r, http.MethodGet, "/blog?page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(mustField(t, rec.Body.Bytes(), "data")))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/blog/anything", nil).Code)
}

func mustField(t *testing.T, body []byte, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return m[key]
}
