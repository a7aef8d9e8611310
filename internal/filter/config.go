package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/textutil"
)

// LocationKeywords drives the location sub-check. Lists are ordered: the
// config author's ranking decides tie-breaks.
type LocationKeywords struct {
	StrongPositiveGlobal      []string `json:"STRONG_POSITIVE_GLOBAL"`
	StrongPositiveLatam       []string `json:"STRONG_POSITIVE_LATAM"`
	StrongNegativeRestriction []string `json:"STRONG_NEGATIVE_RESTRICTION"`
	Ambiguous                 []string `json:"AMBIGUOUS"`
	AcceptExactLatamCountries []string `json:"ACCEPT_EXACT_LATAM_COUNTRIES"`
	AcceptExactBrazilTerms    []string `json:"ACCEPT_EXACT_BRAZIL_TERMS"`
}

// ContentKeywords drives the content sub-check over title+body text.
type ContentKeywords struct {
	StrongPositiveGlobal   []string `json:"STRONG_POSITIVE_GLOBAL"`
	StrongPositiveLatam    []string `json:"STRONG_POSITIVE_LATAM"`
	StrongNegativeRegion   []string `json:"STRONG_NEGATIVE_REGION"`
	StrongNegativeTimezone []string `json:"STRONG_NEGATIVE_TIMEZONE"`
	AcceptExactBrazilTerms []string `json:"ACCEPT_EXACT_BRAZIL_TERMS"`
}

// MetadataRule maps one provider metadata field onto a relevance outcome.
type MetadataRule struct {
	Type             string   `json:"type"` // "boolean" or "string"
	PositiveValue    any      `json:"positiveValue,omitempty"`
	NegativeValue    any      `json:"negativeValue,omitempty"`
	PositiveValues   []string `json:"positiveValues,omitempty"`
	AllowedValues    []string `json:"allowedValues,omitempty"`
	DisallowedValues []string `json:"disallowedValues,omitempty"`
}

// Config is one parsed per-provider filter configuration. A nil section
// means "skip that class of check"; a nil *Config means only the provider's
// own remote hint can make a posting relevant.
type Config struct {
	Location             *LocationKeywords       `json:"LOCATION_KEYWORDS"`
	Content              *ContentKeywords        `json:"CONTENT_KEYWORDS"`
	RemoteMetadataFields map[string]MetadataRule `json:"REMOTE_METADATA_FIELDS"`
	ProcessUpdatedAfter  string                  `json:"PROCESS_JOBS_UPDATED_AFTER_DATE,omitempty"`
}

// UpdatedAfter parses the optional PROCESS_JOBS_UPDATED_AFTER_DATE threshold.
func (c *Config) UpdatedAfter() (time.Time, bool) {
	if c == nil || c.ProcessUpdatedAfter == "" {
		return time.Time{}, false
	}
	return textutil.ParseDate(c.ProcessUpdatedAfter)
}

// Loader resolves and caches per-provider filter configs from
// <dir>/<provider>-filter-config.json. A missing or malformed file is
// logged once and cached as absent; callers never see an error.
type Loader struct {
	dir string
	log *logrus.Entry

	mu    sync.Mutex
	cache map[domain.SourceKind]*Config
}

func NewLoader(dir string, log *logrus.Entry) *Loader {
	return &Loader{
		dir:   dir,
		log:   log,
		cache: make(map[domain.SourceKind]*Config),
	}
}

// ForProvider returns the cached config for kind, loading it on first use.
func (l *Loader) ForProvider(kind domain.SourceKind) *Config {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cfg, ok := l.cache[kind]; ok {
		return cfg
	}
	cfg := l.load(kind)
	l.cache[kind] = cfg
	return cfg
}

func (l *Loader) load(kind domain.SourceKind) *Config {
	path := filepath.Join(l.dir, fmt.Sprintf("%s-filter-config.json", kind))
	raw, err := os.ReadFile(path)
	if err != nil {
		l.log.WithField("path", path).WithError(err).Error("filter config unavailable; relevance falls back to provider remote hints")
		return nil
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		l.log.WithField("path", path).WithError(err).Error("filter config malformed; relevance falls back to provider remote hints")
		return nil
	}
	l.vet(&cfg, path)
	return &cfg
}

// vet drops metadata rules with an unknown type so the metadata check never
// has to worry about them, and normalizes rule keys to the lower-cased form
// the engine looks up.
func (l *Loader) vet(cfg *Config, path string) {
	if len(cfg.RemoteMetadataFields) > 0 {
		vetted := make(map[string]MetadataRule, len(cfg.RemoteMetadataFields))
		for name, rule := range cfg.RemoteMetadataFields {
			if rule.Type != "boolean" && rule.Type != "string" {
				l.log.WithFields(logrus.Fields{
					"path":  path,
					"field": name,
					"type":  rule.Type,
				}).Warn("dropping metadata rule with unsupported type")
				continue
			}
			vetted[strings.ToLower(strings.TrimSpace(name))] = rule
		}
		cfg.RemoteMetadataFields = vetted
	}
	if cfg.ProcessUpdatedAfter != "" {
		if _, ok := textutil.ParseDate(cfg.ProcessUpdatedAfter); !ok {
			l.log.WithFields(logrus.Fields{
				"path":  path,
				"value": cfg.ProcessUpdatedAfter,
			}).Warn("ignoring unparseable PROCESS_JOBS_UPDATED_AFTER_DATE")
			cfg.ProcessUpdatedAfter = ""
		}
	}
}
