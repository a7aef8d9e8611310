// Package ashby fetches postings through the public Ashby job-board API
// (api.ashbyhq.com/posting-api). Ashby is the only provider with explicit
// isListed/isRemote flags and structured address parts.
package ashby

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/ats"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/textutil"
)

// Config is the ashby slice of a source's config blob.
type Config struct {
	JobBoardName string `json:"jobBoardName"`
}

const defaultBaseURL = "https://api.ashbyhq.com"

type Fetcher struct {
	hc      *http.Client
	pipe    *ats.Pipeline
	limiter *ats.HostLimiter

	// BaseURL is the API origin; tests point it at a local server.
	BaseURL string
}

func New(pipe *ats.Pipeline, limiter *ats.HostLimiter) *Fetcher {
	return &Fetcher{
		hc:      ats.NewClient(30 * time.Second),
		pipe:    pipe,
		limiter: limiter,
		BaseURL: defaultBaseURL,
	}
}

func (f *Fetcher) Kind() domain.SourceKind { return domain.KindAshby }

type board struct {
	Jobs []posting `json:"jobs"`
}

type posting struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Department         string `json:"department"`
	Team               string `json:"team"`
	Location           string `json:"location"`
	SecondaryLocations []struct {
		Location string `json:"location"`
	} `json:"secondaryLocations"`
	Address *struct {
		PostalAddress struct {
			AddressLocality string `json:"addressLocality"`
			AddressRegion   string `json:"addressRegion"`
			AddressCountry  string `json:"addressCountry"`
		} `json:"postalAddress"`
	} `json:"address"`
	IsListed        *bool  `json:"isListed"`
	IsRemote        *bool  `json:"isRemote"`
	DescriptionHTML string `json:"descriptionHtml"`
	PublishedAt     string `json:"publishedAt"`
	EmploymentType  string `json:"employmentType"`
	JobURL          string `json:"jobUrl"`
	ApplyURL        string `json:"applyUrl"`
	Compensation    *struct {
		CompensationTierSummary string `json:"compensationTierSummary"`
	} `json:"compensation"`
}

func (f *Fetcher) Process(ctx context.Context, src *domain.SourceDescriptor, log *logrus.Entry) ats.Result {
	start := time.Now()

	var cfg Config
	if len(src.Config) > 0 {
		if err := json.Unmarshal(src.Config, &cfg); err != nil {
			return ats.ConfigFailure(start, fmt.Sprintf("ashby config: %v", err))
		}
	}
	name := strings.TrimSpace(cfg.JobBoardName)
	if name == "" {
		return ats.ConfigFailure(start, "ashby config missing jobBoardName")
	}

	apiURL := fmt.Sprintf("%s/posting-api/job-board/%s?includeCompensation=true", f.BaseURL, url.PathEscape(name))
	var b board
	if err := ats.GetJSON(ctx, f.hc, f.limiter, apiURL, &b); err != nil {
		log.WithError(err).Error("ashby listing fetch failed")
		return ats.FetchFailure(start, err)
	}

	ids := make([]string, 0, len(b.Jobs))
	raws := make([]*domain.RawPosting, 0, len(b.Jobs))
	for _, p := range b.Jobs {
		if p.ID == "" {
			log.WithField("jobTitle", p.Title).Warn("discarding posting without a provider id")
			continue
		}
		ids = append(ids, p.ID)
		raws = append(raws, mapPosting(p))
	}

	stats := f.pipe.Run(ctx, src, raws, log)
	return ats.Result{
		JobsFound:        len(b.Jobs),
		JobsRelevant:     stats.Relevant,
		JobsProcessed:    stats.Processed,
		JobsErrored:      stats.Errored,
		FoundProviderIDs: ids,
		Duration:         time.Since(start),
		ErrMsg:           stats.FirstErr,
		FetchSucceeded:   true,
	}
}

func mapPosting(p posting) *domain.RawPosting {
	raw := &domain.RawPosting{
		Kind:            domain.KindAshby,
		ProviderID:      p.ID,
		Title:           strings.TrimSpace(p.Title),
		LocationName:    p.Location,
		DescriptionHTML: p.DescriptionHTML,
		Listed:          p.IsListed,
		Remote:          p.IsRemote,
		EmploymentType:  p.EmploymentType,
		HostedURL:       p.JobURL,
		ApplyURL:        p.ApplyURL,
	}
	for _, s := range p.SecondaryLocations {
		if strings.TrimSpace(s.Location) != "" {
			raw.SecondaryLocations = append(raw.SecondaryLocations, s.Location)
		}
	}
	if p.Address != nil {
		for _, part := range []string{
			p.Address.PostalAddress.AddressLocality,
			p.Address.PostalAddress.AddressRegion,
			p.Address.PostalAddress.AddressCountry,
		} {
			if strings.TrimSpace(part) != "" {
				raw.AddressParts = append(raw.AddressParts, part)
			}
		}
	}
	for _, tag := range []string{p.Department, p.Team} {
		if strings.TrimSpace(tag) != "" {
			raw.Taxonomies = append(raw.Taxonomies, tag)
		}
	}
	if t, ok := textutil.ParseDate(p.PublishedAt); ok {
		raw.PublishedAt = &t
	}
	if p.Compensation != nil {
		raw.CompensationText = p.Compensation.CompensationTierSummary
	}
	return raw
}
