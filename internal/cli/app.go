package cli

import (
	"github.com/fastertools/signals-mcp/internal/auth"
	"github.com/fastertools/signals-mcp/internal/catalog"
	"github.com/fastertools/signals-mcp/internal/config"
	"github.com/fastertools/signals-mcp/internal/features"
	"github.com/fastertools/signals-mcp/internal/signals"
	"github.com/pkg/errors"
)

// Allow overriding for tests
var (
	newCredentialStore = func() auth.CredentialStore { return auth.NewKeyringStore() }
	newFeatureStore    = newFeatureStoreImpl
)

func newFeatureStoreImpl(cfg *config.Config) (signals.FeatureStore, error) {
	opts := []signals.Option{
		signals.WithTimeout(cfg.Timeout),
		signals.WithUserAgent("signals-mcp/" + version),
	}

	creds, err := auth.Resolve(cfg.Credentials(), newCredentialStore())
	if err != nil {
		Debug("Ignoring stored credentials: %v", err)
		creds = cfg.Credentials()
	}
	if !creds.IsZero() {
		tokens, err := auth.NewManager(creds, cfg.AuthURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, signals.WithTokenSource(tokens))
	} else {
		Debug("No API credentials configured, calling %s without authorization", cfg.APIURL)
	}

	return signals.NewClient(cfg.APIURL, opts...)
}

// newAdapter builds the lookup adapter for the configured catalog and store.
func newAdapter(cfg *config.Config) (*features.Adapter, error) {
	view, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	store, err := newFeatureStore(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create feature store client")
	}
	return features.NewAdapter(store, view)
}
