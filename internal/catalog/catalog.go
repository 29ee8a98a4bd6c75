// Package catalog declares the behavioral features the server can report and
// groups them into the feature view that is fetched for each session.
package catalog

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Scope determines how a feature's events are grouped.
type Scope string

const (
	ScopeSession Scope = "session"
	ScopeUser    Scope = "user"
)

// DType is the value shape the feature store serves for a feature.
type DType string

const (
	DTypeInt32      DType = "INT32"
	DTypeInt64      DType = "INT64"
	DTypeFloat      DType = "FLOAT"
	DTypeDouble     DType = "DOUBLE"
	DTypeBool       DType = "BOOL"
	DTypeString     DType = "STRING"
	DTypeStringList DType = "STRING_LIST"
	DTypeInt32List  DType = "INT32_LIST"
)

// AggregationKind is how the feature store folds matching events into a value.
type AggregationKind string

const (
	AggregationCounter    AggregationKind = "counter"
	AggregationUniqueList AggregationKind = "unique_list"
	AggregationList       AggregationKind = "list"
	AggregationSum        AggregationKind = "sum"
	AggregationMin        AggregationKind = "min"
	AggregationMax        AggregationKind = "max"
	AggregationMean       AggregationKind = "mean"
	AggregationFirst      AggregationKind = "first"
	AggregationLast       AggregationKind = "last"
)

// NeedsProperty reports whether the aggregation reads a per-event field.
func (k AggregationKind) NeedsProperty() bool {
	switch k {
	case AggregationCounter:
		return false
	case AggregationUniqueList, AggregationList, AggregationSum, AggregationMin,
		AggregationMax, AggregationMean, AggregationFirst, AggregationLast:
		return true
	}
	return false
}

func (k AggregationKind) valid() bool {
	return k == AggregationCounter || k.NeedsProperty()
}

// Entity is the subject features are computed for.
type Entity struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	// Key is the column the feature store echoes back to identify the entity instance.
	Key string `json:"key" yaml:"key" toml:"key"`
}

var (
	SessionEntity = Entity{Name: "session", Key: "domain_sessionid"}
	UserEntity    = Entity{Name: "user", Key: "domain_userid"}
)

// Feature is a named, precomputed behavioral metric.
type Feature struct {
	Name        string          `json:"name" yaml:"name" toml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Scope       Scope           `json:"scope,omitempty" yaml:"scope,omitempty" toml:"scope,omitempty"`
	DType       DType           `json:"dtype" yaml:"dtype" toml:"dtype"`
	Events      []string        `json:"events" yaml:"events" toml:"events"`
	Type        AggregationKind `json:"type" yaml:"type" toml:"type"`
	Property    string          `json:"property,omitempty" yaml:"property,omitempty" toml:"property,omitempty"`
}

// FeatureView groups the features fetched together for one entity type.
type FeatureView struct {
	Name     string    `json:"name" yaml:"name" toml:"name"`
	Version  int       `json:"version" yaml:"version" toml:"version"`
	Entities []Entity  `json:"entities" yaml:"entities" toml:"entities"`
	Features []Feature `json:"features" yaml:"features" toml:"features"`
}

// Ref returns the versioned view reference understood by the feature store.
func (v *FeatureView) Ref() string {
	return fmt.Sprintf("%s_v%d", v.Name, v.Version)
}

// FeatureRefs returns "view_vN:feature" for every feature, in declaration order.
func (v *FeatureView) FeatureRefs() []string {
	ref := v.Ref()
	refs := make([]string, 0, len(v.Features))
	for _, f := range v.Features {
		refs = append(refs, ref+":"+f.Name)
	}
	return refs
}

// Entity returns the bound entity with the given name.
func (v *FeatureView) Entity(name string) (Entity, bool) {
	for _, e := range v.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// Feature returns the feature with the given name.
func (v *FeatureView) Feature(name string) (Feature, bool) {
	for _, f := range v.Features {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// Validate checks the feature and the property/aggregation invariant.
func (f *Feature) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("feature name is required")
	}
	if len(f.Events) == 0 {
		return errors.Errorf("feature %q: at least one event is required", f.Name)
	}
	for _, ev := range f.Events {
		if strings.TrimSpace(ev) == "" {
			return errors.Errorf("feature %q: empty event schema", f.Name)
		}
	}
	if f.DType == "" {
		return errors.Errorf("feature %q: dtype is required", f.Name)
	}
	switch f.Scope {
	case "", ScopeSession, ScopeUser:
	default:
		return errors.Errorf("feature %q: unsupported scope %q", f.Name, f.Scope)
	}
	if !f.Type.valid() {
		return errors.Errorf("feature %q: unsupported aggregation %q", f.Name, f.Type)
	}
	if f.Type.NeedsProperty() && f.Property == "" {
		return errors.Errorf("feature %q: %s aggregation requires a property", f.Name, f.Type)
	}
	if !f.Type.NeedsProperty() && f.Property != "" {
		return errors.Errorf("feature %q: %s aggregation must not set a property", f.Name, f.Type)
	}
	return nil
}

// Validate checks the view and every feature in it.
func (v *FeatureView) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return errors.New("feature view name is required")
	}
	if v.Version < 1 {
		return errors.Errorf("feature view %q: version must be positive, got %d", v.Name, v.Version)
	}
	if len(v.Entities) == 0 {
		return errors.Errorf("feature view %q: at least one entity is required", v.Name)
	}
	for _, e := range v.Entities {
		if e.Name == "" || e.Key == "" {
			return errors.Errorf("feature view %q: entity name and key are required", v.Name)
		}
	}
	if len(v.Features) == 0 {
		return errors.Errorf("feature view %q: at least one feature is required", v.Name)
	}

	seen := make(map[string]bool, len(v.Features))
	for i := range v.Features {
		f := &v.Features[i]
		if err := f.Validate(); err != nil {
			return errors.Wrapf(err, "feature view %q", v.Name)
		}
		if seen[f.Name] {
			return errors.Errorf("feature view %q: duplicate feature %q", v.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
