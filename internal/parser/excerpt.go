package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ExcerptLimit is the maximum excerpt length in code points.
const ExcerptLimit = 200

// Ellipsis is appended to excerpts that were truncated.
const Ellipsis = "..."

var (
	headerBlockRe = regexp.MustCompile(`^---[\s\S]*?---`)
	headingRe     = regexp.MustCompile(`#{1,6}\s`)
	emphasisRe    = regexp.MustCompile(`\*\*?`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	// A code span takes any punctuation glued to its end with it.
	codeRe  = regexp.MustCompile("`{1,3}[^`]*`{1,3}[.,;:!?]*")
	spaceRe = regexp.MustCompile(`\s+`)
)

// Excerpt derives a plain-text summary from a Markdown body. The steps run
// in a fixed order and the output is part of the persisted contract.
func Excerpt(body string) string {
	text := headerBlockRe.ReplaceAllString(body, "")
	text = headingRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = codeRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) <= ExcerptLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:ExcerptLimit]) + Ellipsis
}
