package orchestrator

import (
	"github.com/sirupsen/logrus"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/ats"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/ats/ashby"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/ats/greenhouse"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/ats/lever"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/filter"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/ingest"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/store"
)

// Options carries the harvest knobs the binaries read from config.
type Options struct {
	FilterConfigDir string
	HostRatePerSec  float64
	HostRateBurst   int
	Concurrency     int
	Cache           *store.ReadCache
}

// New assembles the standard engine: the three provider fetchers sharing
// one pipeline, one host limiter and one ingest sink backed by db.
func New(db *store.DB, opts Options, log *logrus.Entry) *Orchestrator {
	limiter := ats.NewHostLimiter(opts.HostRatePerSec, opts.HostRateBurst)
	pipe := &ats.Pipeline{
		Filters: filter.NewLoader(opts.FilterConfigDir, log),
		Sink:    ingest.NewProcessor(db),
	}
	registry := ats.NewRegistry(
		greenhouse.New(pipe, limiter),
		ashby.New(pipe, limiter),
		lever.New(pipe, limiter),
	)
	return &Orchestrator{
		DB:          db,
		Registry:    registry,
		Cache:       opts.Cache,
		Concurrency: opts.Concurrency,
		Log:         log,
	}
}
