package relevance

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/filter"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/textutil"
)

type Decision string

const (
	Irrelevant  Decision = "IRRELEVANT"
	Relevant    Decision = "RELEVANT"
	NeedsReview Decision = "NEEDS_REVIEW"
)

// Assessment is the engine's verdict for one raw posting.
type Assessment struct {
	Decision Decision
	Region   domain.HiringRegion
	Reason   string
}

// verdict is the outcome of one sub-check. Higher values never override
// lower ones when combining: reject > latam > global > unknown.
type verdict int

const (
	unknown verdict = iota
	acceptGlobal
	acceptLatam
	reject
)

type checkResult struct {
	v      verdict
	reason string
}

// contextWindow is how far around a positive match the engine looks for a
// contradicting negative (the ±30-character rule).
const contextWindow = 30

// Assess decides whether a raw posting is relevant to the board and for
// which hiring region. It is a pure function of the posting and the
// provider's filter config; a nil config means only the provider's own
// remote hint can make the posting relevant.
func Assess(raw *domain.RawPosting, cfg *filter.Config, log *logrus.Entry) Assessment {
	if !raw.IsListed() {
		return Assessment{Decision: Irrelevant, Reason: "posting is not listed"}
	}
	if threshold, ok := cfg.UpdatedAfter(); ok && raw.UpdatedAt != nil && raw.UpdatedAt.Before(threshold) {
		return Assessment{
			Decision: Irrelevant,
			Reason:   fmt.Sprintf("updated %s, before threshold %s", raw.UpdatedAt.Format("2006-01-02"), threshold.Format("2006-01-02")),
		}
	}

	// Sub-check order is fixed: location, then metadata, then content.
	results := []checkResult{
		locationCheck(raw, cfg, log),
		metadataCheck(raw, cfg, log),
		contentCheck(raw, cfg, log),
	}

	for _, r := range results {
		if r.v == reject {
			return Assessment{Decision: Irrelevant, Reason: r.reason}
		}
	}
	for _, r := range results {
		if r.v == acceptLatam {
			return finalize(raw, domain.RegionLatam, r.reason)
		}
	}
	for _, r := range results {
		if r.v == acceptGlobal {
			return finalize(raw, domain.RegionGlobal, r.reason)
		}
	}
	if raw.IsRemote() {
		return finalize(raw, domain.RegionGlobal, "isRemote fallback")
	}
	return Assessment{Decision: Irrelevant, Reason: "no relevance signals"}
}

// finalize applies the hybrid-workplace escape hatch: a posting that would
// be relevant but is explicitly hybrid needs a human look instead.
func finalize(raw *domain.RawPosting, region domain.HiringRegion, reason string) Assessment {
	if strings.EqualFold(raw.WorkplaceType, "hybrid") {
		return Assessment{Decision: NeedsReview, Region: region, Reason: reason + "; workplace type is hybrid"}
	}
	return Assessment{Decision: Relevant, Region: region, Reason: reason}
}

func locationCheck(raw *domain.RawPosting, cfg *filter.Config, log *logrus.Entry) checkResult {
	if cfg == nil || cfg.Location == nil {
		return checkResult{v: unknown}
	}
	text := raw.LocationText()
	if text == "" {
		return checkResult{v: unknown}
	}
	loc := cfg.Location

	if r := filter.DetectRestrictivePattern(text, loc.StrongNegativeRestriction, log); r.Restrictive {
		return checkResult{reject, fmt.Sprintf("location %q is restrictive (%q)", raw.LocationName, r.Keyword)}
	}
	if s := filter.ContainsInclusiveSignal(text, loc.StrongPositiveLatam, log); s.Inclusive {
		return checkResult{acceptLatam, fmt.Sprintf("location %q matched LATAM keyword %q", raw.LocationName, s.Keyword)}
	}
	if s := filter.ContainsInclusiveSignal(text, loc.StrongPositiveGlobal, log); s.Inclusive {
		return checkResult{acceptGlobal, fmt.Sprintf("location %q matched global keyword %q", raw.LocationName, s.Keyword)}
	}
	if s := filter.ContainsInclusiveSignal(text, loc.AcceptExactBrazilTerms, log); s.Inclusive {
		return checkResult{acceptLatam, fmt.Sprintf("location %q matched Brazil term %q", raw.LocationName, s.Keyword)}
	}
	if s := filter.ContainsInclusiveSignal(text, loc.AcceptExactLatamCountries, log); s.Inclusive {
		return checkResult{acceptLatam, fmt.Sprintf("location %q matched LATAM country %q", raw.LocationName, s.Keyword)}
	}

	// Ambiguous terms ("remote" alone) only count as global when nothing
	// restrictive sits within the context window of any occurrence. When the
	// provider already flags the posting remote the fallback path covers it.
	if !raw.IsRemote() && len(loc.Ambiguous) > 0 {
		found := false
		for _, term := range loc.Ambiguous {
			needle := strings.ToLower(strings.TrimSpace(term))
			if needle == "" {
				continue
			}
			for _, idx := range findOccurrences(text, needle) {
				found = true
				window := filter.WindowAround(text, idx, idx+len(needle), contextWindow)
				if r := filter.DetectRestrictivePattern(window, loc.StrongNegativeRestriction, log); r.Restrictive {
					return checkResult{reject, fmt.Sprintf("ambiguous term %q has nearby restriction %q", term, r.Keyword)}
				}
			}
		}
		if found {
			return checkResult{acceptGlobal, fmt.Sprintf("location %q mentions an ambiguous remote term with clean context", raw.LocationName)}
		}
	}
	return checkResult{v: unknown}
}

func metadataCheck(raw *domain.RawPosting, cfg *filter.Config, log *logrus.Entry) checkResult {
	if cfg == nil || len(cfg.RemoteMetadataFields) == 0 || len(raw.Metadata) == 0 {
		return checkResult{v: unknown}
	}

	best := checkResult{v: unknown}
	for _, item := range raw.Metadata {
		name := strings.ToLower(strings.TrimSpace(item.Name))
		rule, ok := cfg.RemoteMetadataFields[name]
		if !ok {
			continue
		}
		var r checkResult
		switch rule.Type {
		case "boolean":
			r = evalBooleanRule(name, rule, item.Value)
		case "string":
			r = evalStringRule(name, rule, item.Value)
		}
		if r.v == reject {
			return r
		}
		if r.v > best.v {
			best = r
		}
	}
	return best
}

func evalBooleanRule(name string, rule filter.MetadataRule, value any) checkResult {
	got, gotOK := asBool(value)
	want, wantOK := asBool(rule.PositiveValue)
	if gotOK && wantOK && got == want {
		return checkResult{acceptGlobal, fmt.Sprintf("metadata %q is %v", name, got)}
	}
	if neg, negOK := asBool(rule.NegativeValue); negOK && gotOK && got == neg {
		return checkResult{reject, fmt.Sprintf("metadata %q is %v", name, got)}
	}
	// "remote eligible" is the one field where any other boolean answer is a
	// hard no rather than silence.
	if name == "remote eligible" && gotOK {
		return checkResult{reject, fmt.Sprintf("metadata %q is %v", name, got)}
	}
	return checkResult{v: unknown}
}

func evalStringRule(name string, rule filter.MetadataRule, value any) checkResult {
	best := checkResult{v: unknown}
	for _, v := range asStrings(value) {
		r := evalStringValue(name, rule, v)
		if r.v == reject {
			return r
		}
		if r.v > best.v {
			best = r
		}
	}
	return best
}

func evalStringValue(name string, rule filter.MetadataRule, value string) checkResult {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return checkResult{v: unknown}
	}
	if containsFold(rule.DisallowedValues, v) {
		return checkResult{reject, fmt.Sprintf("metadata %q value %q is disallowed", name, value)}
	}
	if len(rule.AllowedValues) > 0 && containsFold(rule.AllowedValues, v) {
		switch classifyRegionToken(v) {
		case acceptLatam:
			return checkResult{acceptLatam, fmt.Sprintf("metadata %q value %q maps to LATAM", name, value)}
		case acceptGlobal:
			return checkResult{acceptGlobal, fmt.Sprintf("metadata %q value %q maps to global", name, value)}
		default:
			// Allowed but region-specific (e.g. "US"): not a remote posting.
			return checkResult{reject, fmt.Sprintf("metadata %q value %q is region-locked", name, value)}
		}
	}
	if containsFold(rule.PositiveValues, v) {
		if classifyRegionToken(v) == acceptLatam {
			return checkResult{acceptLatam, fmt.Sprintf("metadata %q value %q maps to LATAM", name, value)}
		}
		return checkResult{acceptGlobal, fmt.Sprintf("metadata %q value %q is positive", name, value)}
	}
	return checkResult{v: unknown}
}

// classifyRegionToken buckets a metadata value: LATAM-ish tokens, generic
// remote or worldwide tokens, or neither.
func classifyRegionToken(v string) verdict {
	switch {
	case strings.Contains(v, "latam") || strings.Contains(v, "americas"):
		return acceptLatam
	case strings.Contains(v, "worldwide") || strings.Contains(v, "global") ||
		strings.Contains(v, "remote") || strings.Contains(v, "anywhere"):
		return acceptGlobal
	default:
		return unknown
	}
}

func contentCheck(raw *domain.RawPosting, cfg *filter.Config, log *logrus.Entry) checkResult {
	if cfg == nil || (cfg.Location == nil && cfg.Content == nil) {
		return checkResult{v: unknown}
	}

	body := raw.DescriptionHTML
	if body == "" {
		body = raw.DescriptionPlain
	}
	text := strings.ToLower(raw.Title + " " + textutil.StripHTML(body))

	var negatives []string
	if cfg.Location != nil {
		negatives = append(negatives, cfg.Location.StrongNegativeRestriction...)
	}
	if cfg.Content != nil {
		negatives = append(negatives, cfg.Content.StrongNegativeRegion...)
		negatives = append(negatives, cfg.Content.StrongNegativeTimezone...)
	}

	if r := filter.DetectRestrictivePattern(text, negatives, log); r.Restrictive {
		return checkResult{reject, fmt.Sprintf("content is restrictive (%q)", r.Keyword)}
	}
	if cfg.Content == nil {
		return checkResult{v: unknown}
	}

	if r, hit := positiveWithContext(text, cfg.Content.StrongPositiveLatam, negatives, log); hit {
		if r.v == reject {
			return r
		}
		return checkResult{acceptLatam, r.reason}
	}
	if r, hit := positiveWithContext(text, cfg.Content.StrongPositiveGlobal, negatives, log); hit {
		if r.v == reject {
			return r
		}
		return checkResult{acceptGlobal, r.reason}
	}
	if s := filter.ContainsInclusiveSignal(text, cfg.Content.AcceptExactBrazilTerms, log); s.Inclusive {
		return checkResult{acceptLatam, fmt.Sprintf("content matched Brazil term %q", s.Keyword)}
	}
	return checkResult{v: unknown}
}

// positiveWithContext looks for any of the positive keywords and, for every
// occurrence found, vetoes the hit when a negative sits inside the context
// window. hit is false when no keyword occurs at all.
func positiveWithContext(text string, positives, negatives []string, log *logrus.Entry) (checkResult, bool) {
	matched := ""
	for _, kw := range positives {
		needle := strings.ToLower(strings.TrimSpace(kw))
		if needle == "" {
			continue
		}
		occurrences := findOccurrences(text, needle)
		if len(occurrences) == 0 {
			continue
		}
		if matched == "" {
			matched = kw
		}
		for _, idx := range occurrences {
			window := filter.WindowAround(text, idx, idx+len(needle), contextWindow)
			if r := filter.DetectRestrictivePattern(window, negatives, log); r.Restrictive {
				return checkResult{reject, fmt.Sprintf("positive keyword %q contradicted by nearby %q", kw, r.Keyword)}, true
			}
		}
	}
	if matched == "" {
		return checkResult{v: unknown}, false
	}
	return checkResult{unknown, fmt.Sprintf("content matched keyword %q", matched)}, true
}

// findOccurrences returns the byte index of every (possibly overlapping
// start of a) needle occurrence. Text and needle must already share case.
func findOccurrences(text, needle string) []int {
	var out []int
	if needle == "" {
		return out
	}
	for from := 0; ; {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			return out
		}
		out = append(out, from+i)
		from += i + len(needle)
	}
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func containsFold(list []string, lowered string) bool {
	for _, item := range list {
		if strings.ToLower(strings.TrimSpace(item)) == lowered {
			return true
		}
	}
	return false
}
