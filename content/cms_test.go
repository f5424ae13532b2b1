package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCMS(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", time.Second, zaptest.NewLogger(t))
}

func TestListArticles(t *testing.T) {
	c := newTestCMS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/articles", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("pagination[page]"))
		assert.Equal(t, "guides", r.URL.Query().Get("filters[category][slug][$eq]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [{
				"id": 1, "documentId": "abc", "title": "First Timer Tips", "slug": "first-timer-tips",
				"content": "**Communicate** with your team.",
				"cover": {"url": "/uploads/cover.jpg", "alternativeText": "team"},
				"author": {"name": "Sam"},
				"publishedAt": "2024-05-01T10:00:00Z"
			}],
			"meta": {"pagination": {"page": 2, "pageSize": 12, "pageCount": 3, "total": 25}}
		}`))
	})

	articles, page, err := c.ListArticles(context.Background(), ListQuery{Page: 2, Category: "guides"})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, c.baseURL+"/uploads/cover.jpg", articles[0].Cover.URL)

	post, err := articles[0].Render(false)
	require.NoError(t, err)
	assert.Equal(t, "Communicate with your team.", post.Excerpt)
	assert.Empty(t, post.HTML)
	assert.Equal(t, "Sam", post.Author)
	assert.Equal(t, 1, post.ReadingMinutes)
}

func TestGetArticle(t *testing.T) {
	c := newTestCMS(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filters[slug][$eq]") == "missing" {
			_, _ = w.Write([]byte(`{"data": [], "meta": {"pagination": {}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": [{"title": "Blocks", "slug": "blocks", "description": "desc",
			"content": [{"type": "paragraph", "children": [{"type": "text", "text": "Hi"}]}]}]}`))
	})

	a, err := c.GetArticle(context.Background(), "blocks")
	require.NoError(t, err)
	post, err := a.Render(true)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", post.HTML)
	assert.Equal(t, "desc", post.Excerpt)

	_, err = c.GetArticle(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClientErrors(t *testing.T) {
	c := newTestCMS(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, _, err := c.ListArticles(context.Background(), ListQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	var disabled *Client
	assert.False(t, disabled.Enabled())
	_, err = NewClient("", "", 0, zaptest.NewLogger(t)).GetArticle(context.Background(), "x")
	assert.Error(t, err)
}
