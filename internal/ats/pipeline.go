package ats

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/filter"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/relevance"
)

// DefaultPostingWorkers bounds per-posting concurrency inside one source.
const DefaultPostingWorkers = 5

// Sink persists one posting that survived the relevance engine. Implemented
// by the ingest processor.
type Sink interface {
	Process(ctx context.Context, raw *domain.RawPosting, region domain.HiringRegion, needsReview bool, src *domain.SourceDescriptor, log *logrus.Entry) (saved bool, err error)
}

// Pipeline runs fetched postings through the relevance engine and hands the
// keepers to the sink. One Pipeline is shared by all fetchers.
type Pipeline struct {
	Filters *filter.Loader
	Sink    Sink
	Workers int
}

// BatchStats aggregates one source's posting outcomes.
type BatchStats struct {
	Relevant  int
	Processed int
	Errored   int
	FirstErr  string
}

// Run assesses and dispatches every posting with bounded concurrency. A
// posting that fails to process is counted and logged but never aborts the
// batch; the first error message is kept for telemetry.
func (p *Pipeline) Run(ctx context.Context, src *domain.SourceDescriptor, raws []*domain.RawPosting, log *logrus.Entry) BatchStats {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultPostingWorkers
	}
	cfg := p.Filters.ForProvider(src.Kind)

	var (
		mu    sync.Mutex
		stats BatchStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, raw := range raws {
		raw := raw
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			jlog := log.WithFields(logrus.Fields{
				"jobId":    raw.ProviderID,
				"jobTitle": raw.Title,
			})
			// A panic in one posting must not take the batch down.
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					stats.Errored++
					if stats.FirstErr == "" {
						stats.FirstErr = fmt.Sprintf("posting %s: panic: %v", raw.ProviderID, r)
					}
					mu.Unlock()
					jlog.WithField("panic", fmt.Sprint(r)).Error("posting processing panicked")
				}
			}()

			a := relevance.Assess(raw, cfg, jlog)
			if a.Decision == relevance.Irrelevant {
				jlog.WithField("reason", a.Reason).Debug("posting filtered out")
				return nil
			}

			mu.Lock()
			stats.Relevant++
			mu.Unlock()

			saved, err := p.Sink.Process(gctx, raw, a.Region, a.Decision == relevance.NeedsReview, src, jlog)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Errored++
				if stats.FirstErr == "" {
					stats.FirstErr = err.Error()
				}
				jlog.WithError(err).Error("posting processing failed")
				return nil
			}
			if saved {
				stats.Processed++
			} else {
				jlog.Debug("posting skipped as cross-source duplicate")
			}
			return nil
		})
	}
	_ = g.Wait()
	return stats
}
