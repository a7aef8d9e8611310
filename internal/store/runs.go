package store

import (
	"context"
	"fmt"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

// maxErrorMessageLen bounds what one run can write into telemetry; provider
// bodies embedded in error strings can be huge.
const maxErrorMessageLen = 1000

// InsertRunStats writes one telemetry row. The error message is truncated.
func (d *DB) InsertRunStats(ctx context.Context, s *domain.SourceRunStats) error {
	msg := s.ErrorMessage
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	res, err := d.Pool.ExecContext(ctx, `
INSERT INTO source_runs (
  job_source_id, run_id, run_started_at, run_ended_at, status,
  jobs_found, jobs_relevant, jobs_processed, jobs_errored,
  error_message, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		s.JobSourceID, s.RunID, fmtTime(s.RunStartedAt), fmtTime(s.RunEndedAt), string(s.Status),
		s.JobsFound, s.JobsRelevant, s.JobsProcessed, s.JobsErrored,
		msg, s.DurationMs)
	if err != nil {
		return fmt.Errorf("insert run stats for source %d: %w", s.JobSourceID, err)
	}
	s.ID, _ = res.LastInsertId()
	return nil
}

// ListRunStats returns the telemetry rows for one run id, ordered by source.
func (d *DB) ListRunStats(ctx context.Context, runID string) ([]domain.SourceRunStats, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, job_source_id, run_id, run_started_at, run_ended_at, status,
       jobs_found, jobs_relevant, jobs_processed, jobs_errored,
       error_message, duration_ms
FROM source_runs
WHERE run_id = ?
ORDER BY job_source_id;`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run stats: %w", err)
	}
	defer rows.Close()

	var out []domain.SourceRunStats
	for rows.Next() {
		var (
			rec            domain.SourceRunStats
			started, ended string
			status         string
		)
		if err := rows.Scan(&rec.ID, &rec.JobSourceID, &rec.RunID, &started, &ended, &status,
			&rec.JobsFound, &rec.JobsRelevant, &rec.JobsProcessed, &rec.JobsErrored,
			&rec.ErrorMessage, &rec.DurationMs); err != nil {
			return nil, err
		}
		rec.RunStartedAt = parseTime(started)
		rec.RunEndedAt = parseTime(ended)
		rec.Status = domain.RunStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LastRun returns the most recent telemetry row, or nil when none exist.
func (d *DB) LastRun(ctx context.Context) (*domain.SourceRunStats, error) {
	rows, err := d.ListRunStatsLimit(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListRunStatsLimit returns the newest telemetry rows across all runs.
func (d *DB) ListRunStatsLimit(ctx context.Context, limit int) ([]domain.SourceRunStats, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, job_source_id, run_id, run_started_at, run_ended_at, status,
       jobs_found, jobs_relevant, jobs_processed, jobs_errored,
       error_message, duration_ms
FROM source_runs
ORDER BY id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("list run stats: %w", err)
	}
	defer rows.Close()

	var out []domain.SourceRunStats
	for rows.Next() {
		var (
			rec            domain.SourceRunStats
			started, ended string
			status         string
		)
		if err := rows.Scan(&rec.ID, &rec.JobSourceID, &rec.RunID, &started, &ended, &status,
			&rec.JobsFound, &rec.JobsRelevant, &rec.JobsProcessed, &rec.JobsErrored,
			&rec.ErrorMessage, &rec.DurationMs); err != nil {
			return nil, err
		}
		rec.RunStartedAt = parseTime(started)
		rec.RunEndedAt = parseTime(ended)
		rec.Status = domain.RunStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
