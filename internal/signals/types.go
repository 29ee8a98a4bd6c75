package signals

import (
	"context"
	"fmt"

	"github.com/fastertools/signals-mcp/internal/catalog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

//go:generate mockgen -source=types.go -destination=../../mocks/mocksignals/signals_mock.gen.go -package mocksignals

// FeatureStore fetches materialized feature values.
type FeatureStore interface {
	// GetOnlineFeatures returns the current values of a feature view for one entity.
	// A nil result with a nil error means the store returned no result object.
	GetOnlineFeatures(ctx context.Context, req *OnlineFeaturesRequest) (*OnlineFeatures, error)
}

// TokenSource supplies bearer tokens for the feature store API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// OnlineFeaturesRequest identifies the view and entity instance to look up.
type OnlineFeaturesRequest struct {
	View       *catalog.FeatureView
	EntityID   string
	EntityType string
}

// OnlineFeatures holds the values returned for one entity, in response order.
// The entity key echo (e.g. domain_sessionid) is kept as returned.
type OnlineFeatures struct {
	Data *orderedmap.OrderedMap[string, any]
}

// NewOnlineFeatures builds a result from key/value pairs, preserving their order.
func NewOnlineFeatures(pairs ...orderedmap.Pair[string, any]) *OnlineFeatures {
	return &OnlineFeatures{
		Data: orderedmap.New[string, any](orderedmap.WithInitialData(pairs...)),
	}
}

// Len returns the number of keys in the result.
func (r *OnlineFeatures) Len() int {
	if r == nil || r.Data == nil {
		return 0
	}
	return r.Data.Len()
}

// Empty reports whether the result carries no data.
func (r *OnlineFeatures) Empty() bool {
	return r.Len() == 0
}

// APIError is returned when the feature store answers with an unexpected status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("feature store returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("feature store returned status %d: %s", e.StatusCode, e.Body)
}
