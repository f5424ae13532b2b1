package seo

import (
	"encoding/xml"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// MaxSitemapURLs is the per-file limit sitemap consumers enforce.
const MaxSitemapURLs = 50000

type SitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// Sitemap accumulates page URLs.
type Sitemap struct {
	site Site
	urls []SitemapURL
	seen map[string]bool
}

func NewSitemap(site Site) *Sitemap {
	return &Sitemap{site: site, seen: map[string]bool{}}
}

// Add records path once; later duplicates and anything past the size limit
// are ignored.
func (s *Sitemap) Add(path string, lastMod time.Time, freq, priority string) {
	loc := s.site.URL(path)
	if s.seen[loc] || len(s.urls) >= MaxSitemapURLs {
		return
	}
	s.seen[loc] = true
	u := SitemapURL{Loc: loc, ChangeFreq: freq, Priority: priority}
	if !lastMod.IsZero() {
		u.LastMod = lastMod.UTC().Format("2006-01-02")
	}
	s.urls = append(s.urls, u)
}

func (s *Sitemap) Len() int { return len(s.urls) }

// XML renders the urlset document including the XML header.
func (s *Sitemap) XML() ([]byte, error) {
	body, err := xml.MarshalIndent(urlSet{Xmlns: sitemapNS, URLs: s.urls}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
