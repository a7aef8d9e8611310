package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const userAgent = "RemoteJobsBR/1.0 (+local)"

// NewClient returns the HTTP client a fetcher should use. Providers choose
// their own overall timeout; there is no in-run retry, a transient failure
// surfaces in telemetry and the next run tries again.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// GetJSON fetches url and decodes the JSON body into v, waiting on the
// per-host limiter first. Any status >= 400 is an error.
func GetJSON(ctx context.Context, hc *http.Client, limiter *HostLimiter, url string, v any) error {
	if limiter != nil {
		if err := limiter.WaitURL(ctx, url); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("get %s: status %d", url, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
