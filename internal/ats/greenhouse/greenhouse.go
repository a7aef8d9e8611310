// Package greenhouse fetches postings through the public Greenhouse boards
// API (boards-api.greenhouse.io). Its structured metadata array is what the
// relevance engine's metadata sub-check runs on.
package greenhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/ats"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/textutil"
)

// Config is the greenhouse slice of a source's config blob.
type Config struct {
	BoardToken string `json:"boardToken"`
}

const defaultBaseURL = "https://boards-api.greenhouse.io"

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

func (f *Fetcher) Kind() domain.SourceKind { return domain.KindGreenhouse }

type board struct {
	Jobs []job `json:"jobs"`
}

type job struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	AbsoluteURL    string `json:"absolute_url"`
	UpdatedAt      string `json:"updated_at"`
	FirstPublished string `json:"first_published"`
	CompanyName    string `json:"company_name"`
	Location       struct {
		Name string `json:"name"`
	} `json:"location"`
	Offices     []office               `json:"offices"`
	Departments []department           `json:"departments"`
	Metadata    []domain.MetadataField `json:"metadata"`
}

type department struct {
	Name string `json:"name"`
}

type office struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (f *Fetcher) Process(ctx context.Context, src *domain.SourceDescriptor, log *logrus.Entry) ats.Result {
	start := time.Now()

	var cfg Config
	if len(src.Config) > 0 {
		if err := json.Unmarshal(src.Config, &cfg); err != nil {
			return ats.ConfigFailure(start, fmt.Sprintf("greenhouse config: %v", err))
		}
	}
	token := strings.TrimSpace(cfg.BoardToken)
	if token == "" {
		return ats.ConfigFailure(start, "greenhouse config missing boardToken")
	}

	apiURL := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", f.BaseURL, url.PathEscape(token))
	var b board
	if err := ats.GetJSON(ctx, f.hc, f.limiter, apiURL, &b); err != nil {
		log.WithError(err).Error("greenhouse listing fetch failed")
		return ats.FetchFailure(start, err)
	}

	ids := make([]string, 0, len(b.Jobs))
	raws := make([]*domain.RawPosting, 0, len(b.Jobs))
	for _, j := range b.Jobs {
		if j.ID == 0 {
			log.WithField("jobTitle", j.Title).Warn("discarding posting without a provider id")
			continue
		}
		id := strconv.FormatInt(j.ID, 10)
		ids = append(ids, id)
		raws = append(raws, mapJob(id, j))
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

func mapJob(id string, j job) *domain.RawPosting {
	raw := &domain.RawPosting{
		Kind:       domain.KindGreenhouse,
		ProviderID: id,
		Title:      strings.TrimSpace(j.Title),
		// The boards API double-escapes the job HTML.
		DescriptionHTML: html.UnescapeString(j.Content),
		LocationName:    j.Location.Name,
		Metadata:        j.Metadata,
		CompanyName:     strings.TrimSpace(j.CompanyName),
		HostedURL:       j.AbsoluteURL,
	}
	for _, o := range j.Offices {
		loc := strings.TrimSpace(o.Location)
		if loc == "" {
			loc = strings.TrimSpace(o.Name)
		}
		if loc != "" {
			raw.SecondaryLocations = append(raw.SecondaryLocations, loc)
		}
	}
	for _, d := range j.Departments {
		if strings.TrimSpace(d.Name) != "" {
			raw.Taxonomies = append(raw.Taxonomies, d.Name)
		}
	}
	if t, ok := textutil.ParseDate(j.UpdatedAt); ok {
		raw.UpdatedAt = &t
	}
	if t, ok := textutil.ParseDate(j.FirstPublished); ok {
		raw.PublishedAt = &t
	}
	return raw
}
