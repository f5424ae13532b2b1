package content

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
	markdown     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	whitespace   = regexp.MustCompile(`\s+`)
)

// Markdown renders a legacy markdown article body and sanitizes the result.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("content.Markdown: %w", err)
	}
	return ugcPolicy.Sanitize(buf.String()), nil
}

// SanitizeHTML keeps the formatting allowed in user content and drops
// everything else.
func SanitizeHTML(s string) string {
	return ugcPolicy.Sanitize(s)
}

// StripTags reduces user input to plain text.
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// PlainText extracts the visible text of an HTML fragment with whitespace
// collapsed.
func PlainText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return StripTags(fragment)
	}
	var sb strings.Builder
	extractText(doc, &sb, 0)
	return strings.TrimSpace(whitespace.ReplaceAllString(sb.String(), " "))
}

func extractText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 100 {
		return
	}
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "br", "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "figcaption":
			sb.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, depth+1)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "td":
			sb.WriteString(" ")
		}
	}
}

// Excerpt returns the first max runes of the fragment's text, cut at a word
// boundary when one is close.
func Excerpt(fragment string, max int) string {
	text := PlainText(fragment)
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:-") + "…"
}

// ReadingMinutes estimates reading time at 200 words a minute, never less than one.
func ReadingMinutes(fragment string) int {
	words := len(strings.Fields(PlainText(fragment)))
	m := (words + 199) / 200
	if m < 1 {
		return 1
	}
	return m
}
