package textutil

import (
	"html"
	"regexp"
	"strings"
	"time"
)

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]*>`)
	blankLinesRe  = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	breakRe       = regexp.MustCompile(` ?__PARAGRAPH_BREAK__ ?`)
)

// StripHTML turns provider HTML into readable plain text: script/style
// blocks go first, then all tags, entities are decoded, and paragraph
// breaks survive as exactly one blank line while every other whitespace
// run collapses to a single space.
func StripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	s := scriptBlockRe.ReplaceAllString(raw, " ")
	s = styleBlockRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankLinesRe.ReplaceAllString(s, "__PARAGRAPH_BREAK__")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = breakRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate is a lenient ISO-ish parse; providers are not consistent about
// offsets or precision. The second return is false when nothing matched.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

const dedupPunctuation = ".,/#!$%^&*;:{}=-_`~()[]?+"

// NormalizeForDeduplication lower-cases, replaces punctuation with spaces
// and collapses whitespace so that the same title+company pair produces the
// same fingerprint regardless of source formatting.
func NormalizeForDeduplication(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(dedupPunctuation, r) {
			return ' '
		}
		return r
	}, s)
	return CleanText(s)
}

// CleanText collapses all whitespace (including non-breaking spaces) to
// single spaces and trims.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
