package filter

import (
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Restriction is the outcome of a restrictive-pattern scan.
type Restriction struct {
	Restrictive bool
	Keyword     string
}

// Signal is the outcome of an inclusive-keyword scan.
type Signal struct {
	Inclusive bool
	Keyword   string
}

// regionVocabulary is the fixed set of markets whose mention in a
// restrictive construction disqualifies a posting. It is deliberately
// independent of whatever negative keywords a filter config carries, so
// structural detection keeps working even with an empty config. Longer
// spellings come first so the alternation prefers them.
var regionVocabulary = []string{
	"united states of america",
	"united states",
	"north america",
	"new zealand",
	"america",
	"australia",
	"canada",
	"europe",
	"emea",
	"apac",
	"asia",
	"usa",
	"us",
	"uk",
	"eu",
}

var structuralPatterns = buildStructuralPatterns()

func buildStructuralPatterns() []*regexp.Regexp {
	region := "(?:" + strings.Join(regionVocabulary, "|") + ")"
	raw := []string{
		`\(\s*` + region + `[- ]only\s*\)`,
		`\[\s*` + region + `[- ]only\s*\]`,
		`\b` + region + `[- ]only\b`,
		`\b(?:based|located|must\s+be|must\s+reside|reside|residing)\s+in\s+(?:the\s+)?` + region + `\b`,
		`\b` + region + `\s+residents?\b`,
		`\b(?:eligible|authorized|authorised)\s+to\s+work\s+in\s+(?:the\s+)?` + region + `\b`,
		`\b` + region + `[-\s]based\b`,
	}
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// escapeKeyword neutralizes regex metacharacters so config keywords always
// match as literal phrases.
func escapeKeyword(keyword string) string {
	var b strings.Builder
	b.Grow(len(keyword) * 2)
	for _, r := range keyword {
		if strings.ContainsRune(`-/\^$*+?.()|[]{}`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var wordPatternCache sync.Map // keyword -> *regexp.Regexp

// wholeWordPattern compiles (and caches) a case-insensitive whole-word
// matcher for one keyword. Keyword lists repeat for every posting of a run,
// so the cache pays off quickly.
func wholeWordPattern(keyword string) (*regexp.Regexp, error) {
	if v, ok := wordPatternCache.Load(keyword); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`(?i)\b` + escapeKeyword(keyword) + `\b`)
	if err != nil {
		return nil, err
	}
	actual, _ := wordPatternCache.LoadOrStore(keyword, re)
	return actual.(*regexp.Regexp), nil
}

// DetectRestrictivePattern reports whether text limits hiring to a specific
// market. Caller keywords are tried first (whole-word, in list order), then
// the built-in structural patterns over the fixed region vocabulary.
func DetectRestrictivePattern(text string, keywords []string, log *logrus.Entry) Restriction {
	if strings.TrimSpace(text) == "" {
		return Restriction{}
	}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		re, err := wholeWordPattern(kw)
		if err != nil {
			if log != nil {
				log.WithField("keyword", kw).WithError(err).Error("skipping unparseable negative keyword")
			}
			continue
		}
		if re.MatchString(text) {
			if log != nil {
				log.WithField("matchedKeyword", kw).Debug("restrictive keyword hit")
			}
			return Restriction{Restrictive: true, Keyword: kw}
		}
	}
	for _, re := range structuralPatterns {
		if m := re.FindString(text); m != "" {
			if log != nil {
				log.WithField("matchedKeyword", m).Debug("restrictive structural pattern hit")
			}
			return Restriction{Restrictive: true, Keyword: m}
		}
	}
	return Restriction{}
}

// ContainsInclusiveSignal scans for the first keyword present in text as a
// case-insensitive substring. List order is the tie-break: the first listed
// keyword that matches wins, which lets configs rank their terms.
func ContainsInclusiveSignal(text string, keywords []string, log *logrus.Entry) Signal {
	if text == "" || len(keywords) == 0 {
		return Signal{}
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw))
		if needle == "" {
			continue
		}
		if strings.Contains(lower, needle) {
			if log != nil {
				log.WithField("matchedKeyword", kw).Debug("inclusive keyword hit")
			}
			return Signal{Inclusive: true, Keyword: kw}
		}
	}
	return Signal{}
}

// WindowAround returns the ±radius character window around [start,end),
// clamped to the text bounds. The relevance engine uses it to look for
// negatives in the neighborhood of an otherwise positive match.
func WindowAround(text string, start, end, radius int) string {
	if start < 0 {
		start = 0
	}
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	if lo >= hi {
		return ""
	}
	return text[lo:hi]
}
