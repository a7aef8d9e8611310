// Package orchestrator drives one whole harvest: it loads the enabled
// sources, fans them out to their provider fetchers, closes postings that
// disappeared from their boards and writes per-source telemetry.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/ats"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/metrics"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/store"
)

// defaultConcurrency bounds parallel source harvests when the caller
// does not say otherwise.
const defaultConcurrency = 5

type Orchestrator struct {
	DB       *store.DB
	Registry *ats.Registry

	// Cache, when set, is flushed after every run so health and metrics
	// readers see the fresh state immediately.
	Cache *store.ReadCache

	// Concurrency bounds how many sources harvest at once. Values below 1
	// fall back to the configured default.
	Concurrency int

	Log *logrus.Entry
}

// Summary aggregates one run across all sources.
type Summary struct {
	RunID         string
	Sources       int
	JobsFound     int
	JobsRelevant  int
	JobsProcessed int
	JobsErrored   int
	Deactivated   int64
	Failures      int
	Duration      time.Duration
}

type outcome struct {
	src domain.SourceDescriptor
	res ats.Result
}

// Run executes one harvest. Per-source failures are folded into the
// summary and telemetry; only orchestrator-level problems (loading the
// source list, writing telemetry) return an error.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := o.Log.WithField("runId", runID)

	sources, err := o.DB.ListEnabledSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("load job sources: %w", err)
	}
	log.WithField("sources", len(sources)).Info("harvest run starting")

	conc := o.Concurrency
	if conc < 1 {
		conc = defaultConcurrency
	}

	outcomes := make([]outcome, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conc)
	for i := range sources {
		i, src := i, sources[i]
		g.Go(func() error {
			slog := log.WithFields(logrus.Fields{
				"fetcher":    src.Kind,
				"sourceName": src.Name,
				"sourceId":   src.ID,
			})
			res := o.processSource(gctx, &src, slog)
			outcomes[i] = outcome{src: src, res: res}
			slog.WithFields(logrus.Fields{
				"status":    res.Status(),
				"found":     res.JobsFound,
				"relevant":  res.JobsRelevant,
				"processed": res.JobsProcessed,
				"errors":    res.JobsErrored,
				"duration":  res.Duration.Round(time.Millisecond),
			}).Info("source finished")
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{RunID: runID, Sources: len(sources)}
	seen := make(map[domain.SourceKind][]string)
	succeeded := make(map[domain.SourceKind]bool)
	for _, oc := range outcomes {
		summary.JobsFound += oc.res.JobsFound
		summary.JobsRelevant += oc.res.JobsRelevant
		summary.JobsProcessed += oc.res.JobsProcessed
		summary.JobsErrored += oc.res.JobsErrored
		if oc.res.Status() == domain.RunFailure {
			summary.Failures++
		}
		// Deactivation only trusts sets from successful fetches. A kind
		// whose every source failed keeps all its postings as they are.
		if oc.res.FetchSucceeded {
			succeeded[oc.src.Kind] = true
			seen[oc.src.Kind] = append(seen[oc.src.Kind], oc.res.FoundProviderIDs...)
		}
	}

	for _, kind := range o.Registry.Kinds() {
		if !succeeded[kind] {
			continue
		}
		n, err := o.DB.DeactivateMissing(ctx, kind, seen[kind])
		if err != nil {
			log.WithField("fetcher", kind).WithError(err).Error("deactivation failed; postings left as they are")
			continue
		}
		if n > 0 {
			log.WithFields(logrus.Fields{"fetcher": kind, "closed": n}).Info("postings closed")
		}
		summary.Deactivated += n
		metrics.RecordDeactivated(string(kind), n)
	}

	for _, oc := range outcomes {
		ended := time.Now()
		rec := &domain.SourceRunStats{
			JobSourceID:   oc.src.ID,
			RunID:         runID,
			RunStartedAt:  ended.Add(-oc.res.Duration),
			RunEndedAt:    ended,
			Status:        oc.res.Status(),
			JobsFound:     oc.res.JobsFound,
			JobsRelevant:  oc.res.JobsRelevant,
			JobsProcessed: oc.res.JobsProcessed,
			JobsErrored:   oc.res.JobsErrored,
			ErrorMessage:  oc.res.ErrMsg,
			DurationMs:    oc.res.Duration.Milliseconds(),
		}
		if err := o.DB.InsertRunStats(ctx, rec); err != nil {
			return nil, fmt.Errorf("write run telemetry: %w", err)
		}
		metrics.RecordSourceRun(string(oc.src.Kind), string(rec.Status))
		metrics.RecordPostings(string(oc.src.Kind), rec.JobsFound, rec.JobsRelevant, rec.JobsProcessed, rec.JobsErrored)
	}

	if o.Cache != nil {
		o.Cache.Flush()
	}

	summary.Duration = time.Since(start)
	metrics.ObserveRunDuration(summary.Duration)
	log.WithFields(logrus.Fields{
		"sources":     summary.Sources,
		"found":       summary.JobsFound,
		"relevant":    summary.JobsRelevant,
		"processed":   summary.JobsProcessed,
		"errors":      summary.JobsErrored,
		"deactivated": summary.Deactivated,
		"failures":    summary.Failures,
		"duration":    summary.Duration.Round(time.Millisecond),
	}).Info("harvest run complete")
	return summary, nil
}

func (o *Orchestrator) processSource(ctx context.Context, src *domain.SourceDescriptor, log *logrus.Entry) ats.Result {
	f, ok := o.Registry.Lookup(src.Kind)
	if !ok {
		log.Error("no fetcher registered for this source kind")
		return ats.ConfigFailure(time.Now(), fmt.Sprintf("no fetcher registered for kind %q", src.Kind))
	}
	return f.Process(ctx, src, log)
}
