// Package textnorm cleans scraped article text before it reaches the
// embedding and scoring stages. Scraped titles and descriptions routinely
// carry markup fragments and entity escapes from the source portals.
package textnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

var htmlReplacer = strings.NewReplacer(
	"<b>", "", "</b>", "",
	"<strong>", "", "</strong>", "",
	"<em>", "", "</em>", "",
	"<i>", "", "</i>", "",
	"<u>", "", "</u>", "",
	"&quot;", `"`,
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
	"&#39;", "'",
	"&#x27;", "'",
)

// Clean strips the markup tags and entity escapes seen in scraped feeds and
// collapses runs of whitespace into single spaces.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	return collapseWhitespace(htmlReplacer.Replace(text))
}

// ContentHash returns the hex SHA-256 of title+description, the exact-duplicate
// key persisted alongside each article.
func ContentHash(title, description string) string {
	sum := sha256.Sum256([]byte(title + description))
	return hex.EncodeToString(sum[:])
}

func collapseWhitespace(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}
