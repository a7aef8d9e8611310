package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

// ListEnabledSources returns every source the orchestrator should run,
// ordered by kind then name so runs are deterministic.
func (d *DB) ListEnabledSources(ctx context.Context) ([]domain.SourceDescriptor, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, kind, name, company_id, config, enabled
FROM job_sources
WHERE enabled = 1
ORDER BY kind, name;`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var out []domain.SourceDescriptor
	for rows.Next() {
		var (
			src       domain.SourceDescriptor
			kind      string
			companyID sql.NullInt64
			config    string
			enabled   int
		)
		if err := rows.Scan(&src.ID, &kind, &src.Name, &companyID, &config, &enabled); err != nil {
			return nil, err
		}
		src.Kind = domain.SourceKind(kind)
		if companyID.Valid {
			src.CompanyID = &companyID.Int64
		}
		src.Config = json.RawMessage(config)
		src.Enabled = enabled != 0
		out = append(out, src)
	}
	return out, rows.Err()
}

// UpsertSource inserts or refreshes one configured source, keyed by
// (kind, name). Returns the source's id.
func (d *DB) UpsertSource(ctx context.Context, src domain.SourceDescriptor) (int64, error) {
	config := string(src.Config)
	if config == "" {
		config = "{}"
	}
	enabled := 0
	if src.Enabled {
		enabled = 1
	}
	var companyID any
	if src.CompanyID != nil {
		companyID = *src.CompanyID
	}
	now := fmtTime(time.Now())

	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO job_sources (kind, name, company_id, config, enabled, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(kind, name) DO UPDATE SET
  company_id = excluded.company_id,
  config     = excluded.config,
  enabled    = excluded.enabled,
  updated_at = excluded.updated_at;`,
		string(src.Kind), src.Name, companyID, config, enabled, now, now)
	if err != nil {
		return 0, fmt.Errorf("upsert source %s/%s: %w", src.Kind, src.Name, err)
	}

	var id int64
	if err := d.Pool.QueryRowContext(ctx, `
SELECT id FROM job_sources WHERE kind = ? AND name = ?;`, string(src.Kind), src.Name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup source %s/%s: %w", src.Kind, src.Name, err)
	}
	return id, nil
}

// SyncSources makes job_sources mirror the operator's source list: every
// entry is upserted by (kind, name), and enabled rows that are no longer
// listed get disabled. Returns how many rows were disabled.
func (d *DB) SyncSources(ctx context.Context, descs []domain.SourceDescriptor) (int64, error) {
	keep := make(map[string]bool, len(descs))
	for _, src := range descs {
		if _, err := d.UpsertSource(ctx, src); err != nil {
			return 0, err
		}
		if src.Enabled {
			keep[string(src.Kind)+"/"+src.Name] = true
		}
	}
	return d.DisableSourcesExcept(ctx, keep)
}

// DisableSourcesExcept turns off every source of any kind whose (kind, name)
// is not in keep. Used by the config sync so removing a source from the
// sources file stops future runs without losing its history.
func (d *DB) DisableSourcesExcept(ctx context.Context, keep map[string]bool) (int64, error) {
	rows, err := d.Pool.QueryContext(ctx, `SELECT id, kind, name FROM job_sources WHERE enabled = 1;`)
	if err != nil {
		return 0, fmt.Errorf("list sources for sync: %w", err)
	}
	defer rows.Close()

	var stale []int64
	for rows.Next() {
		var (
			id         int64
			kind, name string
		)
		if err := rows.Scan(&id, &kind, &name); err != nil {
			return 0, err
		}
		if !keep[kind+"/"+name] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	now := fmtTime(time.Now())
	for _, id := range stale {
		if _, err := d.Pool.ExecContext(ctx, `
UPDATE job_sources SET enabled = 0, updated_at = ? WHERE id = ?;`, now, id); err != nil {
			return 0, fmt.Errorf("disable source %d: %w", id, err)
		}
	}
	return int64(len(stale)), nil
}
