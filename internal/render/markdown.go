// Package render converts post bodies to HTML.
package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Heading is one entry of a post's table of contents.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Result is a rendered post body.
type Result struct {
	HTML     string    `json:"html"`
	Headings []Heading `json:"headings"`
}

// Markdown renders GitHub-flavoured markdown. It is safe for concurrent use.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a renderer with GFM and auto heading ids enabled.
func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Markdown{md: md}
}

// Render converts body to HTML and collects its headings.
func (m *Markdown) Render(body []byte) (Result, error) {
	doc := m.md.Parser().Parse(text.NewReader(body), parser.WithContext(parser.NewContext()))

	heads := []Heading{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		var id string
		if v, ok := h.AttributeString("id"); ok {
			switch v := v.(type) {
			case string:
				id = v
			case []byte:
				id = string(v)
			}
		}
		var label bytes.Buffer
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if seg, ok := c.(*ast.Text); ok {
				label.Write(seg.Segment.Value(body))
			}
		}
		heads = append(heads, Heading{Level: h.Level, ID: id, Text: label.String()})
		return ast.WalkSkipChildren, nil
	})

	var buf bytes.Buffer
	if err := m.md.Renderer().Render(&buf, body, doc); err != nil {
		return Result{}, err
	}
	return Result{HTML: buf.String(), Headings: heads}, nil
}
