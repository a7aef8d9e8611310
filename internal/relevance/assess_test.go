package relevance

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/filter"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func boolPtr(b bool) *bool { return &b }

func latamLocationConfig() *filter.Config {
	return &filter.Config{
		Location: &filter.LocationKeywords{
			StrongPositiveGlobal:      []string{"remote worldwide", "anywhere"},
			StrongPositiveLatam:       []string{"remote - brazil", "latam"},
			StrongNegativeRestriction: []string{"us only", "pst"},
			Ambiguous:                 []string{"remote"},
			AcceptExactLatamCountries: []string{"argentina", "colombia"},
			AcceptExactBrazilTerms:    []string{"brazil", "brasil"},
		},
		Content: &filter.ContentKeywords{
			StrongPositiveGlobal:   []string{"work from anywhere"},
			StrongPositiveLatam:    []string{"open to latam", "fully remote"},
			StrongNegativeRegion:   []string{"us citizens"},
			StrongNegativeTimezone: []string{"pst", "est"},
			AcceptExactBrazilTerms: []string{"brazil"},
		},
	}
}

func TestAssessLatamLocation(t *testing.T) {
	raw := &domain.RawPosting{
		Kind:         domain.KindGreenhouse,
		Title:        "Senior Backend Engineer",
		LocationName: "Remote - Brazil",
	}

	got := Assess(raw, latamLocationConfig(), testLogger())

	assert.Equal(t, Relevant, got.Decision)
	assert.Equal(t, domain.RegionLatam, got.Region)
	assert.Contains(t, got.Reason, "Remote - Brazil")
}

func TestAssessStructuralRestrictionWithEmptyConfig(t *testing.T) {
	// No keywords configured at all: the built-in restrictive patterns must
	// still catch a region-locked location on their own.
	raw := &domain.RawPosting{
		Kind:         domain.KindGreenhouse,
		Title:        "Staff Engineer",
		LocationName: "Remote (US Only)",
	}
	cfg := &filter.Config{Location: &filter.LocationKeywords{}}

	got := Assess(raw, cfg, testLogger())

	assert.Equal(t, Irrelevant, got.Decision)
	assert.Contains(t, strings.ToLower(got.Reason), "us only")
}

func TestAssessContextualNegativeOverridesPositive(t *testing.T) {
	raw := &domain.RawPosting{
		Kind:            domain.KindLever,
		Title:           "Backend Engineer",
		LocationName:    "Remote",
		DescriptionHTML: "<p>This role is fully remote (PST hours required) supporting our platform team.</p>",
	}

	got := Assess(raw, latamLocationConfig(), testLogger())

	assert.Equal(t, Irrelevant, got.Decision)
	assert.Contains(t, strings.ToLower(got.Reason), "pst")
}

func TestAssessIsRemoteFallbackWithoutConfig(t *testing.T) {
	raw := &domain.RawPosting{
		Kind:   domain.KindAshby,
		Title:  "Product Designer",
		Remote: boolPtr(true),
	}

	got := Assess(raw, nil, testLogger())

	assert.Equal(t, Relevant, got.Decision)
	assert.Equal(t, domain.RegionGlobal, got.Region)
	assert.Equal(t, "isRemote fallback", got.Reason)
}

func TestAssessNoSignalsIsIrrelevant(t *testing.T) {
	raw := &domain.RawPosting{
		Kind:         domain.KindAshby,
		Title:        "Office Manager",
		LocationName: "São Paulo HQ",
	}

	got := Assess(raw, nil, testLogger())

	assert.Equal(t, Irrelevant, got.Decision)
}

func TestAssessUnlistedIsIrrelevant(t *testing.T) {
	raw := &domain.RawPosting{
		Kind:         domain.KindAshby,
		Title:        "Data Engineer",
		LocationName: "Remote - Brazil",
		Listed:       boolPtr(false),
	}

	got := Assess(raw, latamLocationConfig(), testLogger())

	assert.Equal(t, Irrelevant, got.Decision)
	assert.Contains(t, got.Reason, "not listed")
}

func TestAssessStaleUpdatedAtIsIrrelevant(t *testing.T) {
	cfg := latamLocationConfig()
	cfg.ProcessUpdatedAfter = "2024-01-01"
	stale := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	raw := &domain.RawPosting{
		Kind:         domain.KindGreenhouse,
		Title:        "Platform Engineer",
		LocationName: "Remote - Brazil",
		UpdatedAt:    &stale,
	}
	got := Assess(raw, cfg, testLogger())
	assert.Equal(t, Irrelevant, got.Decision)

	raw.UpdatedAt = &fresh
	got = Assess(raw, cfg, testLogger())
	assert.Equal(t, Relevant, got.Decision)

	// Postings without an update timestamp are never age-filtered.
	raw.UpdatedAt = nil
	got = Assess(raw, cfg, testLogger())
	assert.Equal(t, Relevant, got.Decision)
}

func TestAssessLocationRules(t *testing.T) {
	cfg := latamLocationConfig()
	tests := []struct {
		name     string
		location string
		decision Decision
		region   domain.HiringRegion
	}{
		{"strong negative rejects", "Remote, US only", Irrelevant, ""},
		{"global keyword", "Remote Worldwide", Relevant, domain.RegionGlobal},
		{"brazil term", "Curitiba, Brazil", Relevant, domain.RegionLatam},
		{"latam country", "Buenos Aires, Argentina", Relevant, domain.RegionLatam},
		{"ambiguous with clean context", "Remote", Relevant, domain.RegionGlobal},
		{"ambiguous with nearby restriction", "Remote (PST)", Irrelevant, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := &domain.RawPosting{Kind: domain.KindGreenhouse, Title: "Engineer", LocationName: tc.location}
			got := Assess(raw, cfg, testLogger())
			assert.Equal(t, tc.decision, got.Decision)
			if tc.decision == Relevant {
				assert.Equal(t, tc.region, got.Region)
			}
		})
	}
}

func TestAssessLatamBeatsGlobal(t *testing.T) {
	// Location says worldwide, content says LATAM: narrower region wins.
	raw := &domain.RawPosting{
		Kind:            domain.KindLever,
		Title:           "Support Engineer",
		LocationName:    "Remote Worldwide",
		DescriptionHTML: "<p>We are open to LATAM candidates in any timezone.</p>",
	}

	got := Assess(raw, latamLocationConfig(), testLogger())

	assert.Equal(t, Relevant, got.Decision)
	assert.Equal(t, domain.RegionLatam, got.Region)
}

func TestAssessMetadataRules(t *testing.T) {
	cfg := &filter.Config{
		RemoteMetadataFields: map[string]filter.MetadataRule{
			"remote eligible": {Type: "boolean", PositiveValue: true},
			"hiring region":   {Type: "string", AllowedValues: []string{"latam", "worldwide", "us"}},
			"work location":   {Type: "string", AllowedValues: []string{"remote", "remote - latam"}},
			"work setup":      {Type: "string", PositiveValues: []string{"distributed"}, DisallowedValues: []string{"onsite"}},
		},
	}
	tests := []struct {
		name     string
		meta     []domain.MetadataField
		decision Decision
		region   domain.HiringRegion
	}{
		{"boolean positive", []domain.MetadataField{{Name: "Remote Eligible", Value: true}}, Relevant, domain.RegionGlobal},
		{"boolean other value rejects remote eligible", []domain.MetadataField{{Name: "remote eligible", Value: false}}, Irrelevant, ""},
		{"allowed latam token", []domain.MetadataField{{Name: "hiring region", Value: "LATAM"}}, Relevant, domain.RegionLatam},
		{"allowed worldwide token", []domain.MetadataField{{Name: "hiring region", Value: "Worldwide"}}, Relevant, domain.RegionGlobal},
		{"allowed region-locked token rejects", []domain.MetadataField{{Name: "hiring region", Value: "US"}}, Irrelevant, ""},
		{"allowed generic remote token", []domain.MetadataField{{Name: "work location", Value: "Remote"}}, Relevant, domain.RegionGlobal},
		{"allowed remote latam token", []domain.MetadataField{{Name: "work location", Value: "Remote - LATAM"}}, Relevant, domain.RegionLatam},
		{"positive value accepts global", []domain.MetadataField{{Name: "work setup", Value: "Distributed"}}, Relevant, domain.RegionGlobal},
		{"disallowed value rejects", []domain.MetadataField{{Name: "work setup", Value: "Onsite"}}, Irrelevant, ""},
		{"array values checked element-wise", []domain.MetadataField{{Name: "hiring region", Value: []any{"emea", "latam"}}}, Relevant, domain.RegionLatam},
		{"reject wins inside one field", []domain.MetadataField{{Name: "work setup", Value: []any{"distributed", "onsite"}}}, Irrelevant, ""},
		{"unmatched field is silent", []domain.MetadataField{{Name: "team size", Value: "12"}}, Irrelevant, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := &domain.RawPosting{Kind: domain.KindGreenhouse, Title: "Engineer", Metadata: tc.meta}
			got := Assess(raw, cfg, testLogger())
			assert.Equal(t, tc.decision, got.Decision)
			if tc.decision == Relevant {
				assert.Equal(t, tc.region, got.Region)
			}
		})
	}
}

func TestAssessHybridNeedsReview(t *testing.T) {
	raw := &domain.RawPosting{
		Kind:          domain.KindLever,
		Title:         "Engineering Manager",
		LocationName:  "Remote - Brazil",
		WorkplaceType: "hybrid",
	}

	got := Assess(raw, latamLocationConfig(), testLogger())

	assert.Equal(t, NeedsReview, got.Decision)
	assert.Equal(t, domain.RegionLatam, got.Region)
}

func TestAssessRejectBeatsAccept(t *testing.T) {
	// Location accepts LATAM but the body carries a hard restriction; the
	// posting must stay out.
	raw := &domain.RawPosting{
		Kind:            domain.KindGreenhouse,
		Title:           "Account Executive",
		LocationName:    "Remote - Brazil",
		DescriptionHTML: "<p>Open only to US citizens due to contract requirements.</p>",
	}

	got := Assess(raw, latamLocationConfig(), testLogger())

	assert.Equal(t, Irrelevant, got.Decision)
}

func TestAssessCaseInsensitive(t *testing.T) {
	cfg := latamLocationConfig()
	lower := &domain.RawPosting{Kind: domain.KindLever, Title: "engineer", LocationName: "remote - brazil"}
	upper := &domain.RawPosting{Kind: domain.KindLever, Title: "ENGINEER", LocationName: "REMOTE - BRAZIL"}

	a := Assess(lower, cfg, testLogger())
	b := Assess(upper, cfg, testLogger())

	assert.Equal(t, a.Decision, b.Decision)
	assert.Equal(t, a.Region, b.Region)
	assert.Equal(t, Relevant, a.Decision)
}

func TestAssessContentBrazilTerm(t *testing.T) {
	raw := &domain.RawPosting{
		Kind:             domain.KindAshby,
		Title:            "QA Analyst",
		DescriptionPlain: "Our engineering hub serves customers across Brazil and beyond.",
	}

	got := Assess(raw, latamLocationConfig(), testLogger())

	assert.Equal(t, Relevant, got.Decision)
	assert.Equal(t, domain.RegionLatam, got.Region)
}
