package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a feature view from a YAML or TOML file and validates it.
// An empty path returns the built-in view.
func Load(path string) (*FeatureView, error) {
	if path == "" {
		return Default(), nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml", ".toml":
	default:
		return nil, errors.Errorf("unsupported catalog format %q (use .yaml, .yml or .toml)", filepath.Ext(path))
	}

	data, err := os.ReadFile(path) // #nosec G304 - path comes from operator configuration
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog")
	}

	var view FeatureView
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &view); err != nil {
			return nil, errors.Wrap(err, "failed to parse catalog YAML")
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &view); err != nil {
			return nil, errors.Wrap(err, "failed to parse catalog TOML")
		}
	}

	if len(view.Entities) == 0 {
		view.Entities = []Entity{SessionEntity}
	}
	for i := range view.Features {
		if view.Features[i].Scope == "" {
			view.Features[i].Scope = ScopeSession
		}
	}

	if err := view.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid catalog %s", path)
	}
	return &view, nil
}

// ToYAML renders the view in the format Load reads.
func (v *FeatureView) ToYAML() ([]byte, error) {
	return yaml.Marshal(v)
}
