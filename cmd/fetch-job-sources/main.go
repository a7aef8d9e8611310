// Command fetch-job-sources runs one harvest over every enabled job
// source and exits. Exit code 1 means the run itself could not complete;
// per-source failures land in telemetry and keep the exit code at 0.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/config"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/logging"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/orchestrator"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/store"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Error("harvest failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, v, err := config.Boot(filepath.Join("config", "app.yml"))
	if err != nil {
		return err
	}
	log := logging.Setup("fetch-job-sources", cfg.LogLevel)
	for _, w := range v.Warnings {
		log.Warn(w)
	}
	if err := v.Err(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One harvest at a time per data dir, across processes.
	lock := flock.New(filepath.Join(cfg.App.DataDir, "harvest.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		log.Warn("another harvest holds the run lock; nothing to do")
		return nil
	}
	defer func() { _ = lock.Unlock() }()

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

	orch := orchestrator.New(db, orchestrator.Options{
		FilterConfigDir: cfg.Paths.FilterConfigDir,
		HostRatePerSec:  cfg.Harvest.HostRatePerSec,
		HostRateBurst:   cfg.Harvest.HostRateBurst,
		Concurrency:     cfg.Harvest.Concurrency,
	}, log)

	started := time.Now()
	summary, err := orch.Run(ctx)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"runId":    summary.RunID,
		"duration": time.Since(started).Round(time.Millisecond),
	}).Info("done")
	return nil
}

// syncSources mirrors the operator's sources.yml into the database before
// the run. A missing file is tolerated; previously synced sources keep
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
