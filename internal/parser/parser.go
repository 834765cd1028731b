// Package parser splits front matter from Markdown content and derives
// plain-text excerpts from the body.
package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// utf8BOM is stripped before the header delimiter is matched.
var utf8BOM = []byte("\xEF\xBB\xBF")

// yamlFormat recognises a leading "---" delimited YAML block.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Header holds the front matter fields the index consumes, coerced to
// strings. Empty means the field was absent or unusable.
type Header struct {
	Title       string
	Date        string
	Category    string
	Subcategory string
	Tags        []string
	Excerpt     string
	Author      string
}

// Document is the result of parsing one Markdown file.
type Document struct {
	Header      Header
	Frontmatter map[string]any
	Body        string
}

// Parse splits data into front matter and body. It never fails: a missing
// or malformed header yields an empty Header and the whole input as body.
func Parse(data []byte) *Document {
	data = bytes.TrimPrefix(data, utf8BOM)
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm, yamlFormat)
	if err != nil {
		// Invalid YAML: treat everything as body.
		return &Document{Body: string(data)}
	}
	return &Document{
		Header:      headerFrom(fm),
		Frontmatter: fm,
		Body:        string(body),
	}
}

func headerFrom(fm map[string]any) Header {
	if fm == nil {
		return Header{}
	}
	return Header{
		Title:       scalar(fm["title"]),
		Date:        dateValue(fm["date"]),
		Category:    scalar(fm["category"]),
		Subcategory: scalar(fm["subcategory"]),
		Tags:        stringList(fm["tags"]),
		Excerpt:     scalar(fm["excerpt"]),
		Author:      scalar(fm["author"]),
	}
}

// scalar renders a YAML scalar as a trimmed string. Collections and nulls
// are unusable and yield "".
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case time.Time:
		return formatDate(t)
	case bool:
		if !t {
			return ""
		}
		return "true"
	case int, int64, uint64, float64:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func dateValue(v any) string {
	if t, ok := v.(time.Time); ok {
		return formatDate(t)
	}
	return scalar(v)
}

// formatDate keeps date-only values in YYYY-MM-DD form and anything with a
// time-of-day in RFC 3339.
func formatDate(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// stringList accepts a YAML sequence or a single scalar.
func stringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := scalar(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
