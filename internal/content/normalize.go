// Package content cleans up post bodies coming out of a WordPress
// export so they render sensibly in the destination blog.
package content

import (
	"regexp"
	"strings"
)

var (
	// Upload references, optionally preceded by scheme and host, e.g.
	// http://example.org/wp-content/uploads/2014/03/a.jpg
	uploadPathRe = regexp.MustCompile(`(?i)(https?://[\w.-]+(?::\d+)?)?/wp-content/uploads/`)

	// One or more blank (whitespace-only) lines separating blocks.
	blankLineRe = regexp.MustCompile(`\s*\n\s*\n\s*`)

	// A block that already opens with a paragraph tag, with or without
	// attributes. Tag-open match only; the block is not reparsed.
	paragraphOpenRe = regexp.MustCompile(`(?i)^<p[\s>]`)

	// A newline, possibly already carrying a break marker. Matching the
	// existing marker keeps Normalize idempotent.
	lineBreakRe = regexp.MustCompile(`(?i)(<br\s*/?>)?\r?\n`)
)

// Normalizer rewrites WordPress post HTML for the destination blog.
type Normalizer struct {
	assetPrefix string
}

// NewNormalizer creates a Normalizer that rewrites upload references
// to the given asset path prefix.
func NewNormalizer(assetPrefix string) *Normalizer {
	return &Normalizer{assetPrefix: assetPrefix}
}

// Normalize rewrites legacy upload paths and re-wraps bare text blocks
// into paragraphs. It is deterministic and a fixed point:
// Normalize(Normalize(s)) == Normalize(s).
func (n *Normalizer) Normalize(raw string) string {
	s := uploadPathRe.ReplaceAllString(raw, n.assetPrefix)

	var b strings.Builder
	for _, block := range blankLineRe.Split(s, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if paragraphOpenRe.MatchString(block) {
			b.WriteString(block)
		} else {
			b.WriteString("<p>")
			b.WriteString(block)
			b.WriteString("</p>")
		}
	}

	// Remaining single newlines become explicit line breaks.
	return lineBreakRe.ReplaceAllString(b.String(), "<br />\n")
}
