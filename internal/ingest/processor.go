package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/store"
)

// Processor persists relevant postings. It resolves the owning company,
// maps the raw posting to its canonical form and upserts it.
type Processor struct {
	db *store.DB
}

func NewProcessor(db *store.DB) *Processor {
	return &Processor{db: db}
}

// Process stores one posting the relevance engine kept. It returns
// saved=false when the posting was skipped as a cross-source duplicate.
// Storage errors propagate; the fetcher counts them without aborting its
// batch.
func (p *Processor) Process(ctx context.Context, raw *domain.RawPosting, region domain.HiringRegion, needsReview bool, src *domain.SourceDescriptor, log *logrus.Entry) (bool, error) {
	companyName := strings.TrimSpace(raw.CompanyName)
	if companyName == "" {
		companyName = src.Name
	}

	var companyID int64
	if src.CompanyID != nil {
		companyID = *src.CompanyID
		// The fingerprint should carry the curated company name when the
		// source is pinned to a company.
		if c, err := p.db.GetCompany(ctx, companyID); err == nil && c.Name != "" {
			companyName = c.Name
		}
	} else {
		id, err := p.db.ResolveCompany(ctx, companyName, raw.CompanyWebsite, raw.CompanyLogoURL)
		if err != nil {
			return false, fmt.Errorf("resolve company: %w", err)
		}
		companyID = id
	}

	canonical := MapPosting(raw, region, needsReview, companyName)
	canonical.CompanyID = companyID

	saved, err := p.db.UpsertPosting(ctx, canonical)
	if err != nil {
		return false, fmt.Errorf("upsert posting: %w", err)
	}
	if saved {
		log.WithFields(logrus.Fields{
			"postingId": canonical.ID,
			"companyId": companyID,
			"region":    canonical.HiringRegion,
		}).Debug("posting persisted")
	} else {
		log.WithField("fingerprint", canonical.NormalizedFingerprint).Debug("cross-source duplicate skipped")
	}
	return saved, nil
}
