package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

const sampleDescription = `
<p>Join our platform group.</p>
<h3>What you'll do</h3>
<p>Ship features end to end.</p>
<ul><li>Build APIs</li><li>Review code</li></ul>
<h3>Requirements</h3>
<ul><li>Go experience</li><li>Solid SQL</li></ul>
<p><strong>Benefits</strong></p>
<p>Health plan</p>
<p>Home office budget</p>
<h3>About us</h3>
<p>We are Acme.</p>`

func TestExtractSections(t *testing.T) {
	got := ExtractSections(sampleDescription)

	assert.Equal(t, "Ship features end to end.\nBuild APIs\nReview code", got.Responsibilities)
	assert.Equal(t, "Go experience\nSolid SQL", got.Requirements)
	assert.Equal(t, "Health plan\nHome office budget", got.Benefits)
}

func TestExtractSectionsPortugueseHeadings(t *testing.T) {
	html := `
<h2>Responsabilidades</h2><ul><li>Desenvolver serviços</li></ul>
<h2>Requisitos</h2><p>Experiência com Go</p>
<h2>Benefícios</h2><p>Plano de saúde</p>`

	got := ExtractSections(html)

	assert.Equal(t, "Desenvolver serviços", got.Responsibilities)
	assert.Equal(t, "Experiência com Go", got.Requirements)
	assert.Equal(t, "Plano de saúde", got.Benefits)
}

func TestExtractSectionsFirstHitWins(t *testing.T) {
	html := `
<h3>Requirements</h3><p>First block</p>
<h3>Qualifications</h3><p>Second block</p>`

	got := ExtractSections(html)

	assert.Equal(t, "First block", got.Requirements)
}

func TestExtractSectionsEmptyInput(t *testing.T) {
	assert.Equal(t, Sections{}, ExtractSections(""))
	assert.Equal(t, Sections{}, ExtractSections("<p>no headings at all</p>"))
}

func TestDetectJobType(t *testing.T) {
	tests := []struct {
		name           string
		employmentType string
		title          string
		body           string
		want           string
	}{
		{"provider enum wins", "FullTime", "Contractor liaison", "", "full-time"},
		{"contract from enum", "Contract", "Engineer", "", "contract"},
		{"intern from title", "", "Engineering Intern", "", "internship"},
		{"estagio from title", "", "Estágio em Dados", "", "internship"},
		{"part time from body", "", "Designer", "this is a part-time position", "part-time"},
		{"default full time", "", "Backend Engineer", "come build with us", "full-time"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectJobType(tc.employmentType, tc.title, tc.body))
		})
	}
}

func TestDetectExperienceLevel(t *testing.T) {
	tests := []struct {
		title string
		body  string
		want  string
	}{
		{"Senior Backend Engineer", "", "senior"},
		{"Engenheiro de Software Sênior", "", "senior"},
		{"Junior QA Analyst", "", "junior"},
		{"Desenvolvedor Pleno", "", "mid"},
		{"Staff Engineer", "", "lead"},
		{"Senior Staff Engineer", "", "lead"},
		{"Software Engineer", "this is an entry-level role", "entry"},
		{"Software Engineer", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectExperienceLevel(tc.title, tc.body))
		})
	}
}

func TestTokenizeSkills(t *testing.T) {
	got := TokenizeSkills([]string{"Go, SQL", "go", "React/TypeScript", " ", "Kubernetes"})
	assert.Equal(t, []string{"Go", "SQL", "React", "TypeScript", "Kubernetes"}, got)
}

func TestParseSalaryText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.SalaryRange
		ok   bool
	}{
		{"ashby tier summary", "$85K – $110K • Offers Equity", domain.SalaryRange{Min: 85000, Max: 110000, Currency: "USD", Cycle: "year"}, true},
		{"brl monthly", "R$ 8.500 - R$ 12.000 / mês", domain.SalaryRange{Min: 8500, Max: 12000, Currency: "BRL", Cycle: "month"}, true},
		{"single amount", "up to €70,000 per year", domain.SalaryRange{Min: 70000, Max: 70000, Currency: "EUR", Cycle: "year"}, true},
		{"hourly", "$40 - $60 per hour", domain.SalaryRange{Min: 40, Max: 60, Currency: "USD", Cycle: "hour"}, true},
		{"decimal k", "$1.5k weekly stipend", domain.SalaryRange{Min: 1500, Max: 1500, Currency: "USD", Cycle: "year"}, true},
		{"no money", "Competitive salary and equity", domain.SalaryRange{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseSalaryText(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestMapPostingFullShape(t *testing.T) {
	published := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	remote := true
	raw := &domain.RawPosting{
		Kind:            domain.KindGreenhouse,
		ProviderID:      "123",
		Title:           "  Senior Backend Engineer  ",
		LocationName:    "Remote - Brazil",
		DescriptionHTML: sampleDescription,
		PublishedAt:     &published,
		Remote:          &remote,
		CompanyName:     "Acme",
		HostedURL:       "https://boards.greenhouse.io/acme/jobs/123",
		EmploymentType:  "Full-time",
		Taxonomies:      []string{"Engineering"},
	}

	p := MapPosting(raw, domain.RegionLatam, false, "Acme")

	assert.Equal(t, domain.KindGreenhouse, p.SourceKind)
	assert.Equal(t, "123", p.ProviderPostingID)
	assert.Equal(t, "Senior Backend Engineer", p.Title)
	assert.Equal(t, domain.RegionLatam, p.HiringRegion)
	assert.Equal(t, domain.WorkplaceRemote, p.WorkplaceType)
	assert.Equal(t, "full-time", p.JobType)
	assert.Equal(t, "senior", p.ExperienceLevel)
	assert.Equal(t, "Remote - Brazil", p.Location)
	assert.Equal(t, "Go experience\nSolid SQL", p.Requirements)
	assert.Equal(t, []string{"Engineering"}, p.Tags)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/123", p.ApplicationURL)
	assert.Equal(t, published, p.PublishedAt)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.False(t, p.NeedsReview)
	assert.Equal(t, "senior backend engineer acme", p.NormalizedFingerprint)
}

func TestMapPostingDefaultsRegionToGlobal(t *testing.T) {
	raw := &domain.RawPosting{Kind: domain.KindAshby, ProviderID: "a1", Title: "Designer"}

	p := MapPosting(raw, "", false, "Globex")

	assert.Equal(t, domain.RegionGlobal, p.HiringRegion)
}

func TestMapPostingPlainDescriptionBecomesHTML(t *testing.T) {
	raw := &domain.RawPosting{
		Kind:             domain.KindLever,
		ProviderID:       "l1",
		Title:            "QA Engineer",
		DescriptionPlain: "First paragraph.\n\nSecond <one>.",
	}

	p := MapPosting(raw, domain.RegionGlobal, false, "Globex")

	assert.Equal(t, "<p>First paragraph.</p><p>Second &lt;one&gt;.</p>", p.DescriptionHTML)
}

func TestMapPostingStructuredSalaryWins(t *testing.T) {
	raw := &domain.RawPosting{
		Kind:             domain.KindLever,
		ProviderID:       "l2",
		Title:            "Engineer",
		Compensation:     &domain.SalaryRange{Min: 90000, Max: 120000, Currency: "USD", Cycle: "per-year-salary"},
		CompensationText: "$1 - $2",
	}

	p := MapPosting(raw, domain.RegionGlobal, false, "Globex")

	assert.Equal(t, int64(90000), p.SalaryMin)
	assert.Equal(t, int64(120000), p.SalaryMax)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "year", p.SalaryCycle)
}
