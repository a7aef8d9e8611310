package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the collected errors into one, or nil when the config is
// usable. Warnings are the caller's to log.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("invalid configuration:\n- %s", strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of cfg plus everything
// wrong with it. Out-of-range values that have a safe floor are clamped
// with a warning; the rest become errors.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	if out.Harvest.Concurrency < 1 {
		res.addWarn("harvest.concurrency %d is below the minimum; using 1", out.Harvest.Concurrency)
		out.Harvest.Concurrency = 1
	} else if out.Harvest.Concurrency > 32 {
		res.addWarn("harvest.concurrency is very high (%d); providers may throttle you.", out.Harvest.Concurrency)
	}

	if out.Harvest.HostRatePerSec <= 0 {
		res.addErr("harvest.host_rate_per_sec must be > 0")
	}
	if out.Harvest.HostRateBurst < 1 {
		res.addErr("harvest.host_rate_burst must be >= 1")
	}
	if out.Harvest.CacheTTLSeconds < 1 {
		res.addWarn("harvest.cache_ttl_seconds %d is below the minimum; using 60", out.Harvest.CacheTTLSeconds)
		out.Harvest.CacheTTLSeconds = 60
	}

	if out.Harvest.Schedule != "" {
		if _, err := cron.ParseStandard(out.Harvest.Schedule); err != nil {
			res.addErr("harvest.schedule %q is not a valid cron expression: %v", out.Harvest.Schedule, err)
		}
	}

	if out.App.OpsPort < 1 || out.App.OpsPort > 65535 {
		res.addErr("app.ops_port must be between 1 and 65535")
	}

	out.LogLevel = strings.ToLower(strings.TrimSpace(out.LogLevel))
	if _, err := logrus.ParseLevel(out.LogLevel); err != nil {
		res.addErr("log_level %q is not a logrus level", out.LogLevel)
	}

	if strings.TrimSpace(out.Paths.FilterConfigDir) == "" {
		res.addErr("paths.filter_config_dir is required")
	}
	if strings.TrimSpace(out.Paths.SourcesFile) == "" {
		res.addWarn("paths.sources_file is empty; the source list in the database will not be synced.")
	}

	return out, res
}
