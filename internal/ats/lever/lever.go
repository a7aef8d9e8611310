// Package lever fetches postings through the public Lever postings API
// (api.lever.co/v0). Lever exposes a workplace-type enum next to free-text
// locations; hybrid postings come out of the engine as NEEDS_REVIEW.
package lever

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
)

// Config is the lever slice of a source's config blob.
type Config struct {
	CompanyIdentifier string `json:"companyIdentifier"`
}

const defaultBaseURL = "https://api.lever.co"

type Fetcher struct {
	hc      *http.Client
	pipe    *ats.Pipeline
	limiter *ats.HostLimiter

	// BaseURL is the API origin; tests point it at a local server.
	BaseURL string
}

func New(pipe *ats.Pipeline, limiter *ats.HostLimiter) *Fetcher {
	return &Fetcher{
		hc:      ats.NewClient(45 * time.Second),
		pipe:    pipe,
		limiter: limiter,
		BaseURL: defaultBaseURL,
	}
}

func (f *Fetcher) Kind() domain.SourceKind { return domain.KindLever }

type posting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	Country    string `json:"country"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location     string   `json:"location"`
		AllLocations []string `json:"allLocations"`
		Commitment   string   `json:"commitment"`
		Team         string   `json:"team"`
		Department   string   `json:"department"`
	} `json:"categories"`
	WorkplaceType    string `json:"workplaceType"`
	Description      string `json:"description"` // html
	DescriptionPlain string `json:"descriptionPlain"`
	Additional       string `json:"additional"` // html closing section
	Lists            []struct {
		Text    string `json:"text"`
		Content string `json:"content"` // html <li> items
	} `json:"lists"`
	Tags        []string `json:"tags"`
	HostedURL   string   `json:"hostedUrl"`
	ApplyURL    string   `json:"applyUrl"`
	SalaryRange *struct {
		Min      int64  `json:"min"`
		Max      int64  `json:"max"`
		Currency string `json:"currency"`
		Interval string `json:"interval"`
	} `json:"salaryRange"`
}

func (f *Fetcher) Process(ctx context.Context, src *domain.SourceDescriptor, log *logrus.Entry) ats.Result {
	start := time.Now()

	var cfg Config
	if len(src.Config) > 0 {
		if err := json.Unmarshal(src.Config, &cfg); err != nil {
			return ats.ConfigFailure(start, fmt.Sprintf("lever config: %v", err))
		}
	}
	site := strings.TrimSpace(cfg.CompanyIdentifier)
	if site == "" {
		return ats.ConfigFailure(start, "lever config missing companyIdentifier")
	}

	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", f.BaseURL, url.PathEscape(site))
	var postings []posting
	if err := ats.GetJSON(ctx, f.hc, f.limiter, apiURL, &postings); err != nil {
		log.WithError(err).Error("lever listing fetch failed")
		return ats.FetchFailure(start, err)
	}

	ids := make([]string, 0, len(postings))
	raws := make([]*domain.RawPosting, 0, len(postings))
	for _, p := range postings {
		if p.ID == "" {
			log.WithField("jobTitle", p.Text).Warn("discarding posting without a provider id")
			continue
		}
		ids = append(ids, p.ID)
		raws = append(raws, mapPosting(p))
	}

	stats := f.pipe.Run(ctx, src, raws, log)
	return ats.Result{
		JobsFound:        len(postings),
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
		Kind:             domain.KindLever,
		ProviderID:       p.ID,
		Title:            strings.TrimSpace(p.Text),
		LocationName:     p.Categories.Location,
		DescriptionHTML:  joinSections(p),
		DescriptionPlain: p.DescriptionPlain,
		WorkplaceType:    strings.ToLower(p.WorkplaceType),
		EmploymentType:   p.Categories.Commitment,
		SkillTags:        p.Tags,
		HostedURL:        p.HostedURL,
		ApplyURL:         p.ApplyURL,
	}
	for _, loc := range p.Categories.AllLocations {
		if strings.TrimSpace(loc) != "" && !strings.EqualFold(loc, p.Categories.Location) {
			raw.SecondaryLocations = append(raw.SecondaryLocations, loc)
		}
	}
	if strings.TrimSpace(p.Country) != "" {
		raw.AddressParts = append(raw.AddressParts, p.Country)
	}
	for _, tag := range []string{p.Categories.Department, p.Categories.Team} {
		if strings.TrimSpace(tag) != "" {
			raw.Taxonomies = append(raw.Taxonomies, tag)
		}
	}
	if raw.WorkplaceType == string(domain.WorkplaceRemote) {
		remote := true
		raw.Remote = &remote
	}
	if p.CreatedAt > 0 {
		t := time.UnixMilli(p.CreatedAt).UTC()
		raw.PublishedAt = &t
	}
	if p.SalaryRange != nil {
		raw.Compensation = &domain.SalaryRange{
			Min:      p.SalaryRange.Min,
			Max:      p.SalaryRange.Max,
			Currency: p.SalaryRange.Currency,
			Cycle:    p.SalaryRange.Interval,
		}
	}
	return raw
}

// joinSections rebuilds the full job description: Lever splits it into an
// opening blurb, titled list sections and a closing paragraph.
func joinSections(p posting) string {
	var b strings.Builder
	b.WriteString(p.Description)
	for _, l := range p.Lists {
		if strings.TrimSpace(l.Text) != "" {
			b.WriteString("<h3>")
			b.WriteString(l.Text)
			b.WriteString("</h3>")
		}
		if strings.TrimSpace(l.Content) != "" {
			b.WriteString("<ul>")
			b.WriteString(l.Content)
			b.WriteString("</ul>")
		}
	}
	b.WriteString(p.Additional)
	return b.String()
}
