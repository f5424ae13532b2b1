package seo

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/escape-finder/api-go/content"
	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var site = Site{Name: "Escape Finder", BaseURL: "https://escapefinder.example/"}

func TestRoomMeta(t *testing.T) {
	lat, lng := 30.2672, -97.7431
	room := &models.EscapeRoom{
		Name: "The Vault", Slug: "the-vault-austin", City: "Austin", State: "TX", Country: "US",
		Description: "<p>Crack the safe before the guards return.</p>",
		Images:      pq.StringArray{"https://img.example/vault.jpg"},
		Latitude:    &lat, Longitude: &lng,
	}

	m := RoomMeta(site, room, 4.75, 12)
	assert.Equal(t, "The Vault - Escape Room in Austin, TX | Escape Finder", m.Title)
	assert.Equal(t, "Crack the safe before the guards return.", m.Description)
	assert.Equal(t, "https://escapefinder.example/rooms/the-vault-austin", m.Canonical)
	assert.Equal(t, "https://img.example/vault.jpg", m.OpenGraph["og:image"])

	var ld map[string]interface{}
	require.NoError(t, json.Unmarshal(m.JSONLD, &ld))
	assert.Equal(t, "TouristAttraction", ld["@type"])
	rating := ld["aggregateRating"].(map[string]interface{})
	assert.Equal(t, 4.75, rating["ratingValue"])
	assert.Equal(t, float64(12), rating["reviewCount"])
	assert.Contains(t, ld, "geo")
}

func TestRoomMetaWithoutReviews(t *testing.T) {
	m := RoomMeta(site, &models.EscapeRoom{Name: "Attic", Slug: "attic", City: "Boise", State: "ID"}, 0, 0)

	var ld map[string]interface{}
	require.NoError(t, json.Unmarshal(m.JSONLD, &ld))
	assert.NotContains(t, ld, "aggregateRating")
	assert.NotContains(t, ld, "geo")
	assert.Contains(t, m.Description, "Boise, ID")
}

func TestLocationMeta(t *testing.T) {
	tx, _ := location.NormalizeState("tx")
	trail := []Crumb{
		{Name: "United States", Path: "/locations/us"},
		{Name: tx.Name, Path: StatePath(tx)},
		{Name: "Austin", Path: CityPath(tx, "austin")},
	}
	m := LocationMeta(site, "Austin, Texas", 14, trail)

	assert.Equal(t, "https://escapefinder.example/locations/us/texas/austin", m.Canonical)
	assert.Contains(t, m.Description, "14 escape rooms")
	assert.Contains(t, string(m.JSONLD), `"position":3`)
}

func TestBlogMeta(t *testing.T) {
	post := content.Post{
		Slug: "first-timer-tips", Title: "First Timer Tips", Excerpt: "Talk to your team.",
		Author: "Sam", PublishedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	m := BlogMeta(site, post)
	assert.Equal(t, "2024-05-01T10:00:00Z", m.OpenGraph["article:published_time"])
	assert.Contains(t, string(m.JSONLD), `"BlogPosting"`)
	assert.Contains(t, string(m.JSONLD), `"datePublished":"2024-05-01"`)
}

func TestSitemap(t *testing.T) {
	sm := NewSitemap(site)
	sm.Add("/", time.Time{}, "daily", "1.0")
	sm.Add(RoomPath("the-vault"), time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "weekly", "0.8")
	sm.Add(RoomPath("the-vault"), time.Time{}, "", "")
	require.Equal(t, 2, sm.Len())

	out, err := sm.XML()
	require.NoError(t, err)
	doc := string(out)
	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, doc, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, doc, "<loc>https://escapefinder.example/rooms/the-vault</loc>")
	assert.Contains(t, doc, "<lastmod>2024-01-02</lastmod>")
}
