package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Block is one node of the CMS rich-text format. Inline text leaves carry Text
// and the formatting flags; every other type carries Children.
type Block struct {
	Type     string  `json:"type"`
	Level    int     `json:"level,omitempty"`
	Format   string  `json:"format,omitempty"`
	Language string  `json:"language,omitempty"`
	URL      string  `json:"url,omitempty"`
	Image    *Image  `json:"image,omitempty"`
	Children []Block `json:"children,omitempty"`

	Text          string `json:"text,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Code          bool   `json:"code,omitempty"`
}

type Image struct {
	URL             string `json:"url"`
	AlternativeText string `json:"alternativeText"`
	Caption         string `json:"caption"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

// ParseBlocks decodes a rich-text document.
func ParseBlocks(raw []byte) ([]Block, error) {
	var blocks []Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("content.ParseBlocks: %w", err)
	}
	return blocks, nil
}

// RenderBlocks converts a rich-text document to HTML. Output is built as an
// html.Node tree, so text is always escaped; links and images with unsafe
// URLs lose their URL. Unknown block types render their children.
func RenderBlocks(blocks []Block) (string, error) {
	var buf bytes.Buffer
	for _, b := range blocks {
		for _, n := range renderBlock(b) {
			if err := html.Render(&buf, n); err != nil {
				return "", fmt.Errorf("content.RenderBlocks: %w", err)
			}
		}
	}
	return buf.String(), nil
}

func renderBlock(b Block) []*html.Node {
	switch b.Type {
	case "paragraph":
		return []*html.Node{wrap(elem(atom.P), inline(b.Children))}
	case "heading":
		lvl := b.Level
		if lvl < 1 || lvl > 6 {
			lvl = 2
		}
		tag := []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}[lvl-1]
		return []*html.Node{wrap(elem(tag), inline(b.Children))}
	case "list":
		return []*html.Node{renderList(b)}
	case "quote":
		return []*html.Node{wrap(elem(atom.Blockquote), inline(b.Children))}
	case "code":
		code := elem(atom.Code)
		if b.Language != "" {
			setAttr(code, "class", "language-"+b.Language)
		}
		code.AppendChild(textNode(plain(b.Children)))
		return []*html.Node{wrap(elem(atom.Pre), []*html.Node{code})}
	case "image":
		if n := renderImage(b.Image); n != nil {
			return []*html.Node{n}
		}
		return nil
	case "text", "link":
		return inline([]Block{b})
	}
	var out []*html.Node
	for _, c := range b.Children {
		out = append(out, renderBlock(c)...)
	}
	return out
}

func renderList(b Block) *html.Node {
	list := elem(atom.Ul)
	if b.Format == "ordered" {
		list = elem(atom.Ol)
	}
	var last *html.Node
	for _, c := range b.Children {
		switch c.Type {
		case "list":
			// Nested lists belong to the preceding item.
			nested := renderList(c)
			if last != nil {
				last.AppendChild(nested)
			} else {
				list.AppendChild(wrap(elem(atom.Li), []*html.Node{nested}))
			}
		default:
			last = wrap(elem(atom.Li), inline(c.Children))
			list.AppendChild(last)
		}
	}
	return list
}

func renderImage(img *Image) *html.Node {
	if img == nil || !safeURL(img.URL) {
		return nil
	}
	tag := elem(atom.Img)
	setAttr(tag, "src", img.URL)
	setAttr(tag, "alt", img.AlternativeText)
	if img.Width > 0 && img.Height > 0 {
		setAttr(tag, "width", fmt.Sprint(img.Width))
		setAttr(tag, "height", fmt.Sprint(img.Height))
	}
	setAttr(tag, "loading", "lazy")
	if img.Caption == "" {
		return tag
	}
	fig := elem(atom.Figure)
	fig.AppendChild(tag)
	fig.AppendChild(wrap(elem(atom.Figcaption), []*html.Node{textNode(img.Caption)}))
	return fig
}

func inline(children []Block) []*html.Node {
	var out []*html.Node
	for _, c := range children {
		switch c.Type {
		case "link":
			kids := inline(c.Children)
			if !safeURL(c.URL) {
				out = append(out, kids...)
				continue
			}
			a := elem(atom.A)
			setAttr(a, "href", c.URL)
			if external(c.URL) {
				setAttr(a, "rel", "noopener noreferrer")
				setAttr(a, "target", "_blank")
			}
			out = append(out, wrap(a, kids))
		case "text", "":
			out = append(out, formatted(c)...)
		default:
			out = append(out, inline(c.Children)...)
		}
	}
	return out
}

// formatted renders a text leaf, turning newlines into <br> and wrapping the
// result in one element per formatting flag.
func formatted(t Block) []*html.Node {
	if t.Text == "" {
		return nil
	}
	var nodes []*html.Node
	for i, line := range strings.Split(t.Text, "\n") {
		if i > 0 {
			nodes = append(nodes, elem(atom.Br))
		}
		if line != "" {
			nodes = append(nodes, textNode(line))
		}
	}
	for _, m := range []struct {
		on  bool
		tag atom.Atom
	}{
		{t.Code, atom.Code},
		{t.Strikethrough, atom.S},
		{t.Underline, atom.U},
		{t.Italic, atom.Em},
		{t.Bold, atom.Strong},
	} {
		if m.on {
			nodes = []*html.Node{wrap(elem(m.tag), nodes)}
		}
	}
	return nodes
}

func plain(children []Block) string {
	var b strings.Builder
	for _, c := range children {
		b.WriteString(c.Text)
		b.WriteString(plain(c.Children))
	}
	return b.String()
}

func elem(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func wrap(parent *html.Node, children []*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}

func setAttr(n *html.Node, key, val string) {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func safeURL(u string) bool {
	u = strings.TrimSpace(strings.ToLower(u))
	switch {
	case u == "":
		return false
	case strings.HasPrefix(u, "//"):
		return false
	case strings.HasPrefix(u, "/"), strings.HasPrefix(u, "#"):
		return true
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "mailto:"):
		return true
	}
	return false
}

func external(u string) bool {
	u = strings.ToLower(u)
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
