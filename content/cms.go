// Package content fetches blog articles from the headless CMS and turns their
// bodies into safe HTML.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("article not found")

// Client talks to a Strapi-style REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Enabled reports whether a CMS URL was configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type Media struct {
	URL             string `json:"url"`
	AlternativeText string `json:"alternativeText"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

type Author struct {
	Name string `json:"name"`
}

type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Article is an entry as the CMS returns it. Content is either a rich-text
// block array or, for older entries, a markdown string.
type Article struct {
	ID          int             `json:"id"`
	DocumentID  string          `json:"documentId"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Content     json.RawMessage `json:"content"`
	Cover       *Media          `json:"cover"`
	Author      *Author         `json:"author"`
	Category    *Category       `json:"category"`
	PublishedAt time.Time       `json:"publishedAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

type listResponse struct {
	Data []Article `json:"data"`
	Meta struct {
		Pagination Pagination `json:"pagination"`
	} `json:"meta"`
}

// ListQuery narrows an article listing.
type ListQuery struct {
	Page     int
	PageSize int
	Category string
}

// ListArticles returns published articles, newest first.
func (c *Client) ListArticles(ctx context.Context, q ListQuery) ([]Article, Pagination, error) {
	const op = "content.ListArticles"
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 12
	}
	params := url.Values{}
	params.Set("pagination[page]", strconv.Itoa(q.Page))
	params.Set("pagination[pageSize]", strconv.Itoa(q.PageSize))
	params.Set("sort", "publishedAt:desc")
	params.Set("populate", "*")
	if q.Category != "" {
		params.Set("filters[category][slug][$eq]", q.Category)
	}

	var resp listResponse
	if err := c.get(ctx, "/api/articles", params, &resp); err != nil {
		return nil, Pagination{}, fmt.Errorf("%s: %w", op, err)
	}
	for i := range resp.Data {
		c.absolutize(&resp.Data[i])
	}
	return resp.Data, resp.Meta.Pagination, nil
}

// GetArticle fetches one article by slug.
func (c *Client) GetArticle(ctx context.Context, slug string) (*Article, error) {
	const op = "content.GetArticle"
	params := url.Values{}
	params.Set("filters[slug][$eq]", slug)
	params.Set("populate", "*")
	params.Set("pagination[pageSize]", "1")

	var resp listResponse
	if err := c.get(ctx, "/api/articles", params, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%s: %q: %w", op, slug, ErrNotFound)
	}
	a := resp.Data[0]
	c.absolutize(&a)
	return &a, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if !c.Enabled() {
		return errors.New("cms not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("cms request", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cms returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// absolutize prefixes upload paths the CMS returns relative to itself.
func (c *Client) absolutize(a *Article) {
	if a.Cover != nil && strings.HasPrefix(a.Cover.URL, "/") {
		a.Cover.URL = c.baseURL + a.Cover.URL
	}
}

// Post is an article ready to serve.
type Post struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Excerpt        string    `json:"excerpt"`
	HTML           string    `json:"html,omitempty"`
	CoverURL       string    `json:"coverUrl,omitempty"`
	CoverAlt       string    `json:"coverAlt,omitempty"`
	Author         string    `json:"author,omitempty"`
	Category       *Category `json:"category,omitempty"`
	PublishedAt    time.Time `json:"publishedAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	ReadingMinutes int       `json:"readingMinutes"`
}

// Render converts the article body to HTML. withBody false leaves HTML empty
// for listings but still computes the excerpt.
func (a *Article) Render(withBody bool) (Post, error) {
	body, err := a.bodyHTML()
	if err != nil {
		return Post{}, err
	}
	p := Post{
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Category:       a.Category,
		PublishedAt:    a.PublishedAt,
		UpdatedAt:      a.UpdatedAt,
		ReadingMinutes: ReadingMinutes(body),
	}
	p.Excerpt = a.Description
	if p.Excerpt == "" {
		p.Excerpt = Excerpt(body, 180)
	}
	if withBody {
		p.HTML = body
	}
	if a.Cover != nil {
		p.CoverURL, p.CoverAlt = a.Cover.URL, a.Cover.AlternativeText
	}
	if a.Author != nil {
		p.Author = a.Author.Name
	}
	return p, nil
}

func (a *Article) bodyHTML() (string, error) {
	raw := strings.TrimSpace(string(a.Content))
	switch {
	case raw == "" || raw == "null":
		return "", nil
	case strings.HasPrefix(raw, "["):
		blocks, err := ParseBlocks([]byte(raw))
		if err != nil {
			return "", err
		}
		return RenderBlocks(blocks)
	case strings.HasPrefix(raw, `"`):
		var md string
		if err := json.Unmarshal([]byte(raw), &md); err != nil {
			return "", fmt.Errorf("content: decode markdown body: %w", err)
		}
		return Markdown(md)
	}
	return "", fmt.Errorf("content: unsupported body for %q", a.Slug)
}
