// Package seo builds page metadata, JSON-LD and the sitemap.
package seo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/escape-finder/api-go/content"
	"github.com/escape-finder/api-go/location"
	"github.com/escape-finder/api-go/models"
)

const descriptionLimit = 160

// Site identifies the public front end that serves the pages.
type Site struct {
	Name    string
	BaseURL string
}

func (s Site) URL(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Meta is what a page puts in its <head>.
type Meta struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Canonical   string            `json:"canonical"`
	OpenGraph   map[string]string `json:"openGraph"`
	JSONLD      json.RawMessage   `json:"jsonLd,omitempty"`
}

func RoomPath(slug string) string { return "/rooms/" + slug }

func StatePath(st location.State) string { return "/locations/us/" + st.Slug() }

func CityPath(st location.State, citySlug string) string {
	return StatePath(st) + "/" + citySlug
}

func VenuePath(st location.State, citySlug, venueSlug string) string {
	return CityPath(st, citySlug) + "/" + venueSlug
}

func ThemePath(slug string) string { return "/themes/" + slug }

func BlogPath(slug string) string { return "/blog/" + slug }

// RoomMeta describes a room page. rating and count are the combined figures;
// AggregateRating is only emitted when count is positive.
func RoomMeta(site Site, room *models.EscapeRoom, rating float64, count int) Meta {
	where := strings.TrimSpace(strings.Join(nonEmpty(room.City, room.State), ", "))
	title := room.Name
	if where != "" {
		title = fmt.Sprintf("%s - Escape Room in %s", room.Name, where)
	}
	desc := content.Excerpt(room.Description, descriptionLimit)
	if desc == "" {
		desc = fmt.Sprintf("Book %s, an escape room in %s. Hours, prices, photos and reviews.", room.Name, where)
	}
	canonical := site.URL(RoomPath(room.Slug))

	ld := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "TouristAttraction",
		"name":        room.Name,
		"description": desc,
		"url":         canonical,
		"address": map[string]interface{}{
			"@type":           "PostalAddress",
			"streetAddress":   room.Address,
			"addressLocality": room.City,
			"addressRegion":   room.State,
			"postalCode":      room.PostalCode,
			"addressCountry":  room.Country,
		},
	}
	if len(room.Images) > 0 {
		ld["image"] = []string(room.Images)
	}
	if room.Phone != "" {
		ld["telephone"] = room.Phone
	}
	if room.Latitude != nil && room.Longitude != nil {
		ld["geo"] = map[string]interface{}{
			"@type":     "GeoCoordinates",
			"latitude":  *room.Latitude,
			"longitude": *room.Longitude,
		}
	}
	if count > 0 && rating > 0 {
		ld["aggregateRating"] = map[string]interface{}{
			"@type":       "AggregateRating",
			"ratingValue": rating,
			"reviewCount": count,
			"bestRating":  5,
			"worstRating": 1,
		}
	}

	m := Meta{
		Title:       title + " | " + site.Name,
		Description: desc,
		Canonical:   canonical,
		OpenGraph:   openGraph(site, "place", title, desc, canonical, firstImage(room.Images)),
	}
	m.JSONLD = mustJSON(ld)
	return m
}

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	Name string
	Path string
}

// LocationMeta describes a state, city or venue listing page.
func LocationMeta(site Site, place string, rooms int64, trail []Crumb) Meta {
	title := fmt.Sprintf("Escape Rooms in %s", place)
	desc := fmt.Sprintf("Compare %d escape rooms in %s by rating, theme and price.", rooms, place)
	if rooms == 0 {
		desc = fmt.Sprintf("Escape rooms in %s: ratings, themes and booking links.", place)
	}
	canonical := site.URL("/")
	if len(trail) > 0 {
		canonical = site.URL(trail[len(trail)-1].Path)
	}

	items := make([]map[string]interface{}, len(trail))
	for i, c := range trail {
		items[i] = map[string]interface{}{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     site.URL(c.Path),
		}
	}
	return Meta{
		Title:       title + " | " + site.Name,
		Description: desc,
		Canonical:   canonical,
		OpenGraph:   openGraph(site, "website", title, desc, canonical, ""),
		JSONLD: mustJSON(map[string]interface{}{
			"@context":        "https://schema.org",
			"@type":           "BreadcrumbList",
			"itemListElement": items,
		}),
	}
}

// ThemeMeta describes a theme landing page.
func ThemeMeta(site Site, slug, name, description string) Meta {
	canonical := site.URL(ThemePath(slug))
	title := name + " Escape Rooms"
	return Meta{
		Title:       title + " | " + site.Name,
		Description: content.Excerpt(description, descriptionLimit),
		Canonical:   canonical,
		OpenGraph:   openGraph(site, "website", title, description, canonical, ""),
	}
}

// BlogMeta describes an article page.
func BlogMeta(site Site, post content.Post) Meta {
	canonical := site.URL(BlogPath(post.Slug))
	desc := content.Excerpt(post.Excerpt, descriptionLimit)
	ld := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   desc,
		"url":           canonical,
		"datePublished": post.PublishedAt.Format("2006-01-02"),
	}
	if !post.UpdatedAt.IsZero() {
		ld["dateModified"] = post.UpdatedAt.Format("2006-01-02")
	}
	if post.CoverURL != "" {
		ld["image"] = post.CoverURL
	}
	if post.Author != "" {
		ld["author"] = map[string]interface{}{"@type": "Person", "name": post.Author}
	}
	og := openGraph(site, "article", post.Title, desc, canonical, post.CoverURL)
	if !post.PublishedAt.IsZero() {
		og["article:published_time"] = post.PublishedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return Meta{
		Title:       post.Title + " | " + site.Name,
		Description: desc,
		Canonical:   canonical,
		OpenGraph:   og,
		JSONLD:      mustJSON(ld),
	}
}

func openGraph(site Site, kind, title, desc, url, image string) map[string]string {
	og := map[string]string{
		"og:type":        kind,
		"og:title":       title,
		"og:description": desc,
		"og:url":         url,
		"og:site_name":   site.Name,
	}
	if image != "" {
		og["og:image"] = image
	}
	return og
}

func firstImage(images []string) string {
	if len(images) == 0 {
		return ""
	}
	return images[0]
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
