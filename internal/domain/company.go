package domain

import "time"

// Company is created on demand the first time a posting mentions it and may
// be referenced by collaborators outside the ingestion core.
type Company struct {
	ID         int64
	Name       string
	LogoURL    string
	WebsiteURL string
	CreatedAt  time.Time
}
