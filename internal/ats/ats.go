// Package ats defines the contract every provider fetcher implements and the
// shared plumbing they run on: one HTTP helper, one per-host rate limiter and
// one posting pipeline that filters and dispatches what a fetch brought back.
package ats

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

// Fetcher pulls one source's full listing from its provider and runs every
// posting through the relevance pipeline. Implementations never return an
// error: everything that goes wrong is folded into the Result so one broken
// source cannot cancel its siblings.
type Fetcher interface {
	Kind() domain.SourceKind
	Process(ctx context.Context, src *domain.SourceDescriptor, log *logrus.Entry) Result
}

// Result is the outcome of processing one source in one run.
type Result struct {
	JobsFound     int
	JobsRelevant  int
	JobsProcessed int
	JobsErrored   int

	// FoundProviderIDs holds every posting id the provider returned,
	// including irrelevant ones. Deactivation needs the full set.
	FoundProviderIDs []string

	Duration time.Duration
	ErrMsg   string

	// FetchSucceeded is true once the provider listing was retrieved and
	// decoded, regardless of per-posting failures afterwards. Deactivation
	// for a provider kind is only safe when at least one of its sources
	// fetched successfully.
	FetchSucceeded bool
}

// Status derives the telemetry status for this result.
func (r Result) Status() domain.RunStatus {
	switch {
	case r.FetchSucceeded && r.JobsErrored == 0:
		return domain.RunSuccess
	case r.JobsErrored > 0 && (r.JobsProcessed > 0 || r.JobsRelevant > 0):
		return domain.RunPartialSuccess
	default:
		return domain.RunFailure
	}
}

// ConfigFailure is the result of a source whose config cannot produce a URL.
// No HTTP call is made for such a source.
func ConfigFailure(start time.Time, msg string) Result {
	return Result{JobsErrored: 1, ErrMsg: msg, Duration: time.Since(start)}
}

// FetchFailure is the result of a source whose listing could not be
// retrieved or decoded.
func FetchFailure(start time.Time, err error) Result {
	return Result{JobsErrored: 1, ErrMsg: err.Error(), Duration: time.Since(start)}
}

// Registry holds the fetcher for each provider kind.
type Registry struct {
	fetchers map[domain.SourceKind]Fetcher
}

func NewRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{fetchers: make(map[domain.SourceKind]Fetcher, len(fetchers))}
	for _, f := range fetchers {
		r.fetchers[f.Kind()] = f
	}
	return r
}

func (r *Registry) Lookup(kind domain.SourceKind) (Fetcher, bool) {
	f, ok := r.fetchers[kind]
	return f, ok
}

// Kinds returns the registered provider kinds in stable order.
func (r *Registry) Kinds() []domain.SourceKind {
	kinds := make([]domain.SourceKind, 0, len(r.fetchers))
	for k := range r.fetchers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
