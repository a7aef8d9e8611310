// Command harvestd keeps the ingestion engine running: it harvests on a
// cron schedule and serves the ops endpoints (/healthz, /metrics).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/config"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/logging"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/metrics"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/orchestrator"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/store"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Error("harvestd failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, v, err := config.Boot(filepath.Join("config", "app.yml"))
	if err != nil {
		return err
	}
	log := logging.Setup("harvestd", cfg.LogLevel)
	for _, w := range v.Warnings {
		log.Warn(w)
	}
	if err := v.Err(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(filepath.Join(cfg.App.DataDir, "ingest.db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err := syncSources(ctx, db, cfg, log); err != nil {
		return err
	}

	cache := store.NewReadCache(db, time.Duration(cfg.Harvest.CacheTTLSeconds)*time.Second)
	orch := orchestrator.New(db, orchestrator.Options{
		FilterConfigDir: cfg.Paths.FilterConfigDir,
		HostRatePerSec:  cfg.Harvest.HostRatePerSec,
		HostRateBurst:   cfg.Harvest.HostRateBurst,
		Concurrency:     cfg.Harvest.Concurrency,
		Cache:           cache,
	}, log)

	lockPath := filepath.Join(cfg.App.DataDir, "harvest.lock")
	harvest := func() {
		lock := flock.New(lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			log.WithError(err).Error("acquire run lock")
			return
		}
		if !locked {
			log.Warn("previous harvest still running; skipping this fire")
			return
		}
		defer func() { _ = lock.Unlock() }()

		if _, err := orch.Run(ctx); err != nil {
			log.WithError(err).Error("harvest run failed")
			return
		}
		if n, err := cache.ActiveCount(ctx); err == nil {
			metrics.SetActivePostings(n)
		}
	}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Harvest.Schedule, harvest); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Harvest.Schedule, err)
	}
	sched.Start()

	// The cron only covers subsequent fires; harvest once right away.
	go harvest()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.OpsPort),
		Handler:           opsMux(cache),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.WithFields(logrus.Fields{"addr": srv.Addr, "schedule": cfg.Harvest.Schedule}).Info("harvestd up")

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		// Wait out a harvest that is mid-flight.
		<-sched.Stop().Done()
		return nil
	case err := <-errCh:
		return fmt.Errorf("ops server: %w", err)
	}
}

func opsMux(cache *store.ReadCache) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		type health struct {
			OK             bool   `json:"ok"`
			ActivePostings int64  `json:"activePostings"`
			LastRunStatus  string `json:"lastRunStatus,omitempty"`
			LastRunEndedAt string `json:"lastRunEndedAt,omitempty"`
		}
		h := health{OK: true}
		if n, err := cache.ActiveCount(r.Context()); err == nil {
			h.ActivePostings = n
		} else {
			h.OK = false
		}
		if rec, err := cache.LastRun(r.Context()); err == nil && rec != nil {
			h.LastRunStatus = string(rec.Status)
			h.LastRunEndedAt = rec.RunEndedAt.UTC().Format(time.RFC3339)
		}
		w.Header().Set("Content-Type", "application/json")
		if !h.OK {
			w.WriteHeader(http.StatusInternalServerError)
		}
		_ = json.NewEncoder(w).Encode(h)
	})
	return mux
}

// syncSources mirrors the operator's sources.yml into the database at
// startup. A missing file is tolerated; previously synced sources keep
// running.
func syncSources(ctx context.Context, db *store.DB, cfg config.Config, log *logrus.Entry) error {
	path := cfg.Paths.SourcesFile
	if path == "" {
		return nil
	}
	descs, err := config.LoadSources(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", path).Debug("no sources file; keeping the database source list")
			return nil
		}
		return fmt.Errorf("load sources file: %w", err)
	}
	disabled, err := db.SyncSources(ctx, descs)
	if err != nil {
		return fmt.Errorf("sync sources: %w", err)
	}
	log.WithFields(logrus.Fields{"sources": len(descs), "disabled": disabled}).Info("source list synced")
	return nil
}
