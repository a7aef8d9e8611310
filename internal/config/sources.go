package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

type sourcesFile struct {
	Sources []sourceEntry `yaml:"sources"`
}

type sourceEntry struct {
	Kind      string         `yaml:"kind"`
	Name      string         `yaml:"name"`
	CompanyID *int64         `yaml:"company_id"`
	Enabled   *bool          `yaml:"enabled"`
	Config    map[string]any `yaml:"config"`
}

// LoadSources parses the operator's source list. Entries default to
// enabled; their per-kind config blob is carried opaquely as JSON for
// the fetcher to decode.
func LoadSources(path string) ([]domain.SourceDescriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f sourcesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]domain.SourceDescriptor, 0, len(f.Sources))
	for i, e := range f.Sources {
		kind := strings.TrimSpace(strings.ToLower(e.Kind))
		name := strings.TrimSpace(e.Name)
		if kind == "" || name == "" {
			return nil, fmt.Errorf("%s: sources[%d] needs both kind and name", path, i)
		}

		raw := json.RawMessage(`{}`)
		if len(e.Config) > 0 {
			raw, err = json.Marshal(e.Config)
			if err != nil {
				return nil, fmt.Errorf("%s: sources[%d] config: %w", path, i, err)
			}
		}

		out = append(out, domain.SourceDescriptor{
			Kind:      domain.SourceKind(kind),
			Name:      name,
			CompanyID: e.CompanyID,
			Config:    raw,
			Enabled:   e.Enabled == nil || *e.Enabled,
		})
	}
	return out, nil
}
