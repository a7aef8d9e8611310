// Package ingest turns raw provider postings into canonical rows: company
// resolution, section extraction from the description HTML, light
// classification and the final dedup-aware upsert.
package ingest

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/textutil"
)

// MapPosting builds the canonical posting for one raw posting. companyName
// feeds the dedup fingerprint; an empty region defaults to GLOBAL.
func MapPosting(raw *domain.RawPosting, region domain.HiringRegion, needsReview bool, companyName string) *domain.CanonicalPosting {
	if region == "" {
		region = domain.RegionGlobal
	}
	title := strings.TrimSpace(raw.Title)

	descHTML := raw.DescriptionHTML
	if strings.TrimSpace(descHTML) == "" {
		descHTML = plainToHTML(raw.DescriptionPlain)
	}
	sections := ExtractSections(descHTML)
	plain := textutil.StripHTML(descHTML)

	p := &domain.CanonicalPosting{
		SourceKind:        raw.Kind,
		ProviderPostingID: raw.ProviderID,

		Title:            title,
		DescriptionHTML:  descHTML,
		Requirements:     sections.Requirements,
		Responsibilities: sections.Responsibilities,
		Benefits:         sections.Benefits,

		Location:      displayLocation(raw),
		Country:       countryOf(raw),
		WorkplaceType: workplaceOf(raw),
		HiringRegion:  region,

		JobType:         DetectJobType(raw.EmploymentType, title, plain),
		ExperienceLevel: DetectExperienceLevel(title, plain),
		Skills:          TokenizeSkills(raw.SkillTags),
		Tags:            cleanList(raw.Taxonomies),

		ApplicationURL:   firstNonEmpty(raw.ApplyURL, raw.HostedURL),
		ApplicationEmail: raw.ApplicationEmail,

		Status:      domain.StatusActive,
		NeedsReview: needsReview,

		NormalizedFingerprint: textutil.NormalizeForDeduplication(title + " " + companyName),
	}

	if raw.Compensation != nil {
		p.SalaryMin = raw.Compensation.Min
		p.SalaryMax = raw.Compensation.Max
		p.Currency = raw.Compensation.Currency
		p.SalaryCycle = normalizeCycle(raw.Compensation.Cycle)
	} else if raw.CompensationText != "" {
		if sr, ok := ParseSalaryText(raw.CompensationText); ok {
			p.SalaryMin = sr.Min
			p.SalaryMax = sr.Max
			p.Currency = sr.Currency
			p.SalaryCycle = sr.Cycle
		}
	}

	if raw.PublishedAt != nil {
		p.PublishedAt = *raw.PublishedAt
	} else if raw.UpdatedAt != nil {
		p.PublishedAt = *raw.UpdatedAt
	}
	if raw.UpdatedAt != nil {
		p.UpdatedAt = *raw.UpdatedAt
	}
	return p
}

// Sections is the text pulled out of a description by heading matching.
type Sections struct {
	Requirements     string
	Responsibilities string
	Benefits         string
}

var sectionHeadings = []struct {
	kind    string
	phrases []string
}{
	{"requirements", []string{
		"requirements", "qualifications", "what you'll need", "what you will need",
		"who you are", "requisitos", "qualificações", "o que esperamos de você",
	}},
	{"responsibilities", []string{
		"responsibilities", "what you'll do", "what you will do", "your role",
		"the role", "responsabilidades", "atribuições", "o que você fará", "suas atividades",
	}},
	{"benefits", []string{
		"benefits", "perks", "what we offer", "benefícios", "o que oferecemos", "vantagens",
	}},
}

// ExtractSections walks the description's headings (hN tags or bold-only
// paragraphs) and captures the text between a recognized heading and the
// next heading. The first hit per section wins.
func ExtractSections(htmlStr string) Sections {
	var out Sections
	if strings.TrimSpace(htmlStr) == "" {
		return out
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return out
	}

	doc.Find("h1, h2, h3, h4, h5, h6, p, div").Each(func(_ int, sel *goquery.Selection) {
		if !looksLikeHeading(sel) {
			return
		}
		kind := classifyHeading(sel.Text())
		if kind == "" {
			return
		}
		body := sectionBody(sel)
		if body == "" {
			return
		}
		switch kind {
		case "requirements":
			if out.Requirements == "" {
				out.Requirements = body
			}
		case "responsibilities":
			if out.Responsibilities == "" {
				out.Responsibilities = body
			}
		case "benefits":
			if out.Benefits == "" {
				out.Benefits = body
			}
		}
	})
	return out
}

// looksLikeHeading accepts hN tags and paragraphs whose entire content is a
// single bold run (the "fake heading" pattern job descriptions love).
func looksLikeHeading(sel *goquery.Selection) bool {
	if sel.Is("h1, h2, h3, h4, h5, h6") {
		return true
	}
	if sel.Is("p, div") {
		bold := sel.ChildrenFiltered("strong, b")
		if bold.Length() != 1 {
			return false
		}
		whole := textutil.CleanText(sel.Text())
		return whole != "" && whole == textutil.CleanText(bold.Text())
	}
	return false
}

func classifyHeading(text string) string {
	t := strings.ToLower(textutil.CleanText(text))
	if t == "" || len(t) > 80 {
		return ""
	}
	for _, group := range sectionHeadings {
		for _, phrase := range group.phrases {
			if strings.Contains(t, phrase) {
				return group.kind
			}
		}
	}
	return ""
}

// sectionBody collects sibling text until the next heading. List items come
// out one per line.
func sectionBody(heading *goquery.Selection) string {
	var parts []string
	for n := heading.Next(); n.Length() > 0; n = n.Next() {
		if looksLikeHeading(n) {
			break
		}
		if n.Is("ul, ol") {
			n.Find("li").Each(func(_ int, li *goquery.Selection) {
				if t := textutil.CleanText(li.Text()); t != "" {
					parts = append(parts, t)
				}
			})
			continue
		}
		if t := textutil.CleanText(n.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// DetectJobType trusts the provider's employment-type enum and falls back to
// keyword detection on the posting text.
func DetectJobType(employmentType, title, body string) string {
	text := strings.ToLower(strings.TrimSpace(employmentType))
	if text == "" {
		text = strings.ToLower(title + " " + body)
	}
	switch {
	case strings.Contains(text, "intern") || strings.Contains(text, "estágio") || strings.Contains(text, "estagiário"):
		return "internship"
	case strings.Contains(text, "contract") || strings.Contains(text, "freelance") || strings.Contains(text, "temporary"):
		return "contract"
	case strings.Contains(text, "part-time") || strings.Contains(text, "part time"):
		return "part-time"
	default:
		return "full-time"
	}
}

// DetectExperienceLevel reads the seniority from the title, with a weak
// fallback to explicit "x-level" phrases in the body. Empty means unknown.
func DetectExperienceLevel(title, body string) string {
	t := strings.ToLower(title)
	for _, group := range []struct {
		level string
		keys  []string
	}{
		{"internship", []string{"intern", "estagi"}},
		{"junior", []string{"junior", "júnior", "jr."}},
		{"mid", []string{"pleno", "mid-level", "mid level", "intermediate"}},
		{"lead", []string{"staff", "principal", "lead", "head of"}},
		{"senior", []string{"senior", "sênior", "sr.", "especialista"}},
	} {
		for _, k := range group.keys {
			if strings.Contains(t, k) {
				return group.level
			}
		}
	}
	b := strings.ToLower(body)
	switch {
	case strings.Contains(b, "entry-level") || strings.Contains(b, "entry level"):
		return "entry"
	case strings.Contains(b, "senior-level") || strings.Contains(b, "senior level"):
		return "senior"
	}
	return ""
}

// TokenizeSkills splits multi-valued skill tags and dedups them
// case-insensitively, keeping the first spelling seen.
func TokenizeSkills(tags []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range tags {
		tokens := strings.FieldsFunc(tag, func(r rune) bool {
			return r == ',' || r == ';' || r == '/' || r == '|'
		})
		for _, tok := range tokens {
			tok = textutil.CleanText(tok)
			if tok == "" {
				continue
			}
			key := strings.ToLower(tok)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, tok)
		}
	}
	return out
}

func displayLocation(raw *domain.RawPosting) string {
	if s := strings.TrimSpace(raw.LocationName); s != "" {
		return s
	}
	for _, s := range raw.SecondaryLocations {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return strings.Join(raw.AddressParts, ", ")
}

// countryOf takes the last address part, which providers order
// locality / region / country.
func countryOf(raw *domain.RawPosting) string {
	if len(raw.AddressParts) == 0 {
		return ""
	}
	return strings.TrimSpace(raw.AddressParts[len(raw.AddressParts)-1])
}

func workplaceOf(raw *domain.RawPosting) domain.WorkplaceType {
	switch wt := domain.WorkplaceType(strings.ToLower(raw.WorkplaceType)); wt {
	case domain.WorkplaceRemote, domain.WorkplaceHybrid, domain.WorkplaceOnsite:
		return wt
	}
	// Everything that survives the relevance engine is a remote posting
	// unless the provider said otherwise.
	return domain.WorkplaceRemote
}

func normalizeCycle(cycle string) string {
	c := strings.ToLower(cycle)
	switch {
	case strings.Contains(c, "hour"):
		return "hour"
	case strings.Contains(c, "month"):
		return "month"
	case strings.Contains(c, "year") || strings.Contains(c, "annual"):
		return "year"
	case c == "":
		return ""
	default:
		return c
	}
}

func cleanList(list []string) []string {
	var out []string
	for _, s := range list {
		if s = textutil.CleanText(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func plainToHTML(plain string) string {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return ""
	}
	plain = strings.ReplaceAll(plain, "\r\n", "\n")
	var b strings.Builder
	for _, para := range strings.Split(plain, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
