package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

// ResolveCompany returns the id of the company with the given name,
// creating it when unseen. Matching is case-insensitive. A website or logo
// supplied by the provider fills in columns that are still empty; it never
// overwrites operator-curated values.
func (d *DB) ResolveCompany(ctx context.Context, name, websiteURL, logoURL string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("company name is empty")
	}

	var (
		id      int64
		website string
		logo    string
	)
	err := d.Pool.QueryRowContext(ctx, `
SELECT id, website_url, logo_url
FROM companies
WHERE name = ? COLLATE NOCASE
LIMIT 1;`, name).Scan(&id, &website, &logo)
	switch {
	case err == nil:
		if (website == "" && websiteURL != "") || (logo == "" && logoURL != "") {
			if website == "" {
				website = websiteURL
			}
			if logo == "" {
				logo = logoURL
			}
			if _, err := d.Pool.ExecContext(ctx, `
UPDATE companies SET website_url = ?, logo_url = ? WHERE id = ?;`, website, logo, id); err != nil {
				return 0, fmt.Errorf("update company %d: %w", id, err)
			}
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		res, err := d.Pool.ExecContext(ctx, `
INSERT INTO companies (name, website_url, logo_url, created_at)
VALUES (?, ?, ?, ?);`, name, websiteURL, logoURL, fmtTime(time.Now()))
		if err != nil {
			return 0, fmt.Errorf("insert company %q: %w", name, err)
		}
		return res.LastInsertId()
	default:
		return 0, fmt.Errorf("lookup company %q: %w", name, err)
	}
}

// GetCompany fetches one company row.
func (d *DB) GetCompany(ctx context.Context, id int64) (domain.Company, error) {
	var (
		c       domain.Company
		created string
	)
	err := d.Pool.QueryRowContext(ctx, `
SELECT id, name, logo_url, website_url, created_at
FROM companies
WHERE id = ?;`, id).Scan(&c.ID, &c.Name, &c.LogoURL, &c.WebsiteURL, &created)
	if err != nil {
		return domain.Company{}, fmt.Errorf("get company %d: %w", id, err)
	}
	c.CreatedAt = parseTime(created)
	return c, nil
}
