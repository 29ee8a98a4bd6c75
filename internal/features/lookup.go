// Package features looks up a session's behavioral features in the feature
// store and renders them as text for an agent.
package features

import (
	"context"
	"time"

	"github.com/effective-security/xlog"
	"github.com/fastertools/signals-mcp/internal/catalog"
	"github.com/fastertools/signals-mcp/internal/signals"
	"github.com/fastertools/signals-mcp/internal/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var logger = xlog.NewPackageLogger("github.com/fastertools/signals-mcp/internal", "features")

// Adapter fetches the catalog's feature view for one session per call.
// It holds no mutable state and is safe for concurrent use.
type Adapter struct {
	store  signals.FeatureStore
	view   *catalog.FeatureView
	entity catalog.Entity
}

// NewAdapter creates an adapter for the given view, which must be bound to
// the session entity. A nil view selects the built-in one.
func NewAdapter(store signals.FeatureStore, view *catalog.FeatureView) (*Adapter, error) {
	if store == nil {
		return nil, errors.New("feature store is required")
	}
	if view == nil {
		view = catalog.Default()
	}
	entity, ok := view.Entity(catalog.SessionEntity.Name)
	if !ok {
		return nil, errors.Errorf("feature view %q is not bound to the %s entity", view.Name, catalog.SessionEntity.Name)
	}
	return &Adapter{
		store:  store,
		view:   view,
		entity: entity,
	}, nil
}

// View returns the feature view the adapter fetches.
func (a *Adapter) View() *catalog.FeatureView {
	return a.view
}

// Lookup issues one online features request for sessionID. The id is
// forwarded as given. Store failures are returned, never masked.
func (a *Adapter) Lookup(ctx context.Context, sessionID string) (Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "features.Lookup",
		trace.WithAttributes(
			attribute.String("feature_view", a.view.Ref()),
			attribute.String("entity_type", a.entity.Name),
		))
	defer span.End()

	started := time.Now()
	res, err := a.store.GetOnlineFeatures(ctx, &signals.OnlineFeaturesRequest{
		View:       a.view,
		EntityID:   sessionID,
		EntityType: a.entity.Name,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		telemetry.ObserveLookup(telemetry.OutcomeError, time.Since(started))
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "lookup_failed",
			"view", a.view.Ref(),
			"err", err.Error(),
		)
		return nil, errors.Wrap(err, "failed to fetch online features")
	}

	if res.Empty() {
		telemetry.ObserveLookup(telemetry.OutcomeEmpty, time.Since(started))
		logger.ContextKV(ctx, xlog.DEBUG, "status", "empty", "view", a.view.Ref())
		return Empty{}, nil
	}

	entries := make([]Entry, 0, res.Len())
	for pair := res.Data.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == a.entity.Key {
			continue
		}
		entries = append(entries, Entry{Name: pair.Key, Value: pair.Value})
	}

	span.SetAttributes(attribute.Int("features", len(entries)))
	telemetry.ObserveLookup(telemetry.OutcomeReport, time.Since(started))
	logger.ContextKV(ctx, xlog.DEBUG, "status", "report", "view", a.view.Ref(), "features", len(entries))
	return Report{Entries: entries}, nil
}

// GetFeatures returns the rendered feature report for sessionID, or
// FallbackText when the store has nothing for it.
func (a *Adapter) GetFeatures(ctx context.Context, sessionID string) (string, error) {
	res, err := a.Lookup(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return Render(res), nil
}
