package domain

import "time"

// CanonicalPosting is the normalized, persisted form of a job posting.
// (sourceKind, providerPostingID) is unique; NormalizedFingerprint is the
// lower-cased punctuation-stripped title+company used for cross-source dedup.
type CanonicalPosting struct {
	ID                int64
	SourceKind        SourceKind
	ProviderPostingID string
	CompanyID         int64

	Title            string
	DescriptionHTML  string
	Requirements     string
	Responsibilities string
	Benefits         string

	Location      string
	Country       string
	WorkplaceType WorkplaceType
	HiringRegion  HiringRegion

	JobType         string
	ExperienceLevel string
	Skills          []string
	Tags            []string

	SalaryMin   int64
	SalaryMax   int64
	Currency    string
	SalaryCycle string

	ApplicationURL   string
	ApplicationEmail string

	PublishedAt time.Time
	UpdatedAt   time.Time

	Status      PostingStatus
	NeedsReview bool

	NormalizedFingerprint string

	CreatedAt time.Time
	ClosedAt  *time.Time
}
