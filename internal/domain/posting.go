package domain

import (
	"strings"
	"time"
)

type SourceKind string

const (
	KindGreenhouse SourceKind = "greenhouse"
	KindAshby      SourceKind = "ashby"
	KindLever      SourceKind = "lever"
)

type HiringRegion string

const (
	RegionGlobal HiringRegion = "GLOBAL"
	RegionLatam  HiringRegion = "LATAM"
)

type WorkplaceType string

const (
	WorkplaceRemote WorkplaceType = "remote"
	WorkplaceHybrid WorkplaceType = "hybrid"
	WorkplaceOnsite WorkplaceType = "onsite"
)

type PostingStatus string

const (
	StatusActive PostingStatus = "ACTIVE"
	StatusClosed PostingStatus = "CLOSED"
)

// MetadataField is one provider metadata item (Greenhouse exposes these as
// an array of name/value pairs; value may be a bool, string, number, list
// or null depending on how the board is configured).
type MetadataField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type SalaryRange struct {
	Min      int64
	Max      int64
	Currency string
	Cycle    string // e.g. "year", "month", "hour"
}

// RawPosting is the provider-shaped record a fetcher hands to the relevance
// engine and the adapter. It lives in memory for the duration of one fetch
// and never escapes it.
type RawPosting struct {
	Kind       SourceKind
	ProviderID string

	Title              string
	LocationName       string
	SecondaryLocations []string
	AddressParts       []string // locality / region / country, when supplied

	DescriptionHTML  string
	DescriptionPlain string

	PublishedAt *time.Time
	UpdatedAt   *time.Time

	// Listed is nil when the provider has no listing flag (treated as listed).
	Listed *bool
	// Remote is the provider's own remote hint, nil when absent.
	Remote *bool
	// WorkplaceType is Lever's enum: remote, hybrid, onsite or unspecified.
	WorkplaceType string

	// Metadata carries Greenhouse custom fields; empty for other providers.
	Metadata []MetadataField

	CompanyName    string
	CompanyWebsite string
	CompanyLogoURL string

	HostedURL        string
	ApplyURL         string
	ApplicationEmail string

	EmploymentType string
	SkillTags      []string
	// Taxonomies holds provider labels like departments or teams.
	Taxonomies   []string
	Compensation *SalaryRange
	// CompensationText is a display string like "$90K – $120K" for providers
	// that do not expose a structured range.
	CompensationText string
}

// IsListed treats a missing provider flag as listed.
func (p *RawPosting) IsListed() bool {
	return p.Listed == nil || *p.Listed
}

// IsRemote reports the provider's remote hint; false when absent.
func (p *RawPosting) IsRemote() bool {
	return p.Remote != nil && *p.Remote
}

// LocationText joins every location field the provider supplied into the
// lower-cased, semicolon-separated text the location check runs against.
func (p *RawPosting) LocationText() string {
	parts := make([]string, 0, 1+len(p.SecondaryLocations)+len(p.AddressParts))
	if s := strings.TrimSpace(p.LocationName); s != "" {
		parts = append(parts, s)
	}
	for _, s := range p.SecondaryLocations {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	for _, s := range p.AddressParts {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToLower(strings.Join(parts, "; "))
}
