package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

// UpsertPosting writes one canonical posting keyed by
// (source_kind, provider_posting_id).
//
// Seeing a known key again refreshes the row and resurrects it to ACTIVE if
// it had been closed. A new key whose fingerprint already exists on an
// ACTIVE row is a cross-source duplicate and is skipped (saved=false).
// p.ID is set on return when the row was written.
func (d *DB) UpsertPosting(ctx context.Context, p *domain.CanonicalPosting) (saved bool, err error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		existingID int64
		status     string
	)
	err = tx.QueryRowContext(ctx, `
SELECT id, status FROM job_postings
WHERE source_kind = ? AND provider_posting_id = ?;`,
		string(p.SourceKind), p.ProviderPostingID).Scan(&existingID, &status)

	now := time.Now()
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx, `
UPDATE job_postings SET
  company_id = ?, title = ?, description_html = ?,
  requirements = ?, responsibilities = ?, benefits = ?,
  location_raw = ?, country = ?, workplace_type = ?, hiring_region = ?,
  job_type = ?, experience_level = ?, skills = ?, tags = ?,
  salary_min = ?, salary_max = ?, salary_currency = ?, salary_cycle = ?,
  application_url = ?, application_email = ?, published_at = ?,
  status = 'ACTIVE', needs_review = ?, normalized_fingerprint = ?,
  updated_at = ?, closed_at = NULL
WHERE id = ?;`,
			p.CompanyID, p.Title, p.DescriptionHTML,
			p.Requirements, p.Responsibilities, p.Benefits,
			p.Location, p.Country, string(p.WorkplaceType), string(p.HiringRegion),
			p.JobType, p.ExperienceLevel, marshalStrings(p.Skills), marshalStrings(p.Tags),
			p.SalaryMin, p.SalaryMax, p.Currency, p.SalaryCycle,
			p.ApplicationURL, p.ApplicationEmail, fmtNullableTime(p.PublishedAt),
			boolToInt(p.NeedsReview), p.NormalizedFingerprint,
			fmtTime(now), existingID); err != nil {
			return false, fmt.Errorf("update posting %d: %w", existingID, err)
		}
		p.ID = existingID
		return true, tx.Commit()

	case errors.Is(err, sql.ErrNoRows):
		var dupID int64
		err := tx.QueryRowContext(ctx, `
SELECT id FROM job_postings
WHERE normalized_fingerprint = ? AND status = 'ACTIVE'
LIMIT 1;`, p.NormalizedFingerprint).Scan(&dupID)
		if err == nil {
			return false, tx.Commit()
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("fingerprint lookup: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO job_postings (
  source_kind, provider_posting_id, company_id, title, description_html,
  requirements, responsibilities, benefits,
  location_raw, country, workplace_type, hiring_region,
  job_type, experience_level, skills, tags,
  salary_min, salary_max, salary_currency, salary_cycle,
  application_url, application_email, published_at,
  status, needs_review, normalized_fingerprint, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'ACTIVE', ?, ?, ?, ?);`,
			string(p.SourceKind), p.ProviderPostingID, p.CompanyID, p.Title, p.DescriptionHTML,
			p.Requirements, p.Responsibilities, p.Benefits,
			p.Location, p.Country, string(p.WorkplaceType), string(p.HiringRegion),
			p.JobType, p.ExperienceLevel, marshalStrings(p.Skills), marshalStrings(p.Tags),
			p.SalaryMin, p.SalaryMax, p.Currency, p.SalaryCycle,
			p.ApplicationURL, p.ApplicationEmail, fmtNullableTime(p.PublishedAt),
			boolToInt(p.NeedsReview), p.NormalizedFingerprint, fmtTime(now), fmtTime(now))
		if err != nil {
			return false, fmt.Errorf("insert posting %s/%s: %w", p.SourceKind, p.ProviderPostingID, err)
		}
		p.ID, _ = res.LastInsertId()
		return true, tx.Commit()

	default:
		return false, fmt.Errorf("posting lookup: %w", err)
	}
}

// DeactivateMissing closes every ACTIVE posting of the given kind whose
// provider id was not observed in this run. Returns how many rows changed.
func (d *DB) DeactivateMissing(ctx context.Context, kind domain.SourceKind, seen []string) (int64, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS run_seen (id TEXT PRIMARY KEY);`); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_seen;`); err != nil {
		return 0, err
	}
	for start := 0; start < len(seen); start += 400 {
		end := start + 400
		if end > len(seen) {
			end = len(seen)
		}
		stmt := `INSERT OR IGNORE INTO run_seen (id) VALUES `
		args := make([]any, 0, end-start)
		for i, id := range seen[start:end] {
			if i > 0 {
				stmt += ", "
			}
			stmt += "(?)"
			args = append(args, id)
		}
		stmt += ";"
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return 0, fmt.Errorf("stage seen ids: %w", err)
		}
	}

	now := fmtTime(time.Now())
	if _, err := tx.ExecContext(ctx, `
UPDATE job_postings
SET status = 'CLOSED', closed_at = ?, updated_at = ?
WHERE source_kind = ?
  AND status = 'ACTIVE'
  AND provider_posting_id NOT IN (SELECT id FROM run_seen);`,
		now, now, string(kind)); err != nil {
		return 0, fmt.Errorf("deactivate %s: %w", kind, err)
	}

	var changed int64
	if err := tx.QueryRowContext(ctx, `SELECT changes();`).Scan(&changed); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_seen;`); err != nil {
		return 0, err
	}
	return changed, tx.Commit()
}

// GetPostingByProvider loads one posting by its natural key.
func (d *DB) GetPostingByProvider(ctx context.Context, kind domain.SourceKind, providerID string) (*domain.CanonicalPosting, error) {
	row := d.Pool.QueryRowContext(ctx, `
SELECT id, source_kind, provider_posting_id, company_id, title, description_html,
       requirements, responsibilities, benefits,
       location_raw, country, workplace_type, hiring_region,
       job_type, experience_level, skills, tags,
       salary_min, salary_max, salary_currency, salary_cycle,
       application_url, application_email, published_at,
       status, needs_review, normalized_fingerprint, created_at, updated_at, closed_at
FROM job_postings
WHERE source_kind = ? AND provider_posting_id = ?;`, string(kind), providerID)
	return scanPosting(row)
}

// CountActivePostings reports how many postings are currently ACTIVE.
func (d *DB) CountActivePostings(ctx context.Context) (int64, error) {
	var n int64
	err := d.Pool.QueryRowContext(ctx, `
SELECT COUNT(*) FROM job_postings WHERE status = 'ACTIVE';`).Scan(&n)
	return n, err
}

func scanPosting(row *sql.Row) (*domain.CanonicalPosting, error) {
	var (
		p           domain.CanonicalPosting
		kind        string
		workplace   string
		region      string
		skills      string
		tags        string
		status      string
		needsReview int
		published   string
		created     string
		updated     string
		closed      sql.NullString
	)
	if err := row.Scan(
		&p.ID, &kind, &p.ProviderPostingID, &p.CompanyID, &p.Title, &p.DescriptionHTML,
		&p.Requirements, &p.Responsibilities, &p.Benefits,
		&p.Location, &p.Country, &workplace, &region,
		&p.JobType, &p.ExperienceLevel, &skills, &tags,
		&p.SalaryMin, &p.SalaryMax, &p.Currency, &p.SalaryCycle,
		&p.ApplicationURL, &p.ApplicationEmail, &published,
		&status, &needsReview, &p.NormalizedFingerprint, &created, &updated, &closed,
	); err != nil {
		return nil, err
	}
	p.SourceKind = domain.SourceKind(kind)
	p.WorkplaceType = domain.WorkplaceType(workplace)
	p.HiringRegion = domain.HiringRegion(region)
	p.Status = domain.PostingStatus(status)
	p.NeedsReview = needsReview != 0
	_ = json.Unmarshal([]byte(skills), &p.Skills)
	_ = json.Unmarshal([]byte(tags), &p.Tags)
	if published != "" {
		p.PublishedAt = parseTime(published)
	}
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	if closed.Valid && closed.String != "" {
		t := parseTime(closed.String)
		p.ClosedAt = &t
	}
	return &p, nil
}

func marshalStrings(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func fmtNullableTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmtTime(t)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
