package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fastertools/signals-mcp/internal/auth"
	"github.com/fastertools/signals-mcp/internal/config"
	"github.com/fastertools/signals-mcp/internal/signals"
	"github.com/fastertools/signals-mcp/mocks/mocksignals"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/mock/gomock"
	"gopkg.in/yaml.v3"
)

func noSpinner(t *testing.T) {
	old := showSpinner
	showSpinner = func() bool { return false }
	t.Cleanup(func() { showSpinner = old })
}

func TestRootCommand(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "features", "catalog", "auth"} {
		assert.True(t, names[want], "Subcommand %s not found", want)
	}

	for _, flag := range []string{"config", "verbose", "no-color", "api-url", "catalog"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "flag %s", flag)
	}
}

func TestFeaturesGet(t *testing.T) {
	noSpinner(t)
	ctrl := gomock.NewController(t)
	store := mocksignals.NewMockFeatureStore(ctrl)
	StubFeatureStore(t, store)
	SetConfig(t, config.KeyAPIURL, "https://signals.example.com")

	store.EXPECT().GetOnlineFeatures(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *signals.OnlineFeaturesRequest) (*signals.OnlineFeatures, error) {
			assert.Equal(t, "sess-1", req.EntityID)
			return signals.NewOnlineFeatures(
				orderedmap.Pair[string, any]{Key: "domain_sessionid", Value: "sess-1"},
				orderedmap.Pair[string, any]{Key: "num_page_views", Value: 5},
			), nil
		})

	ExecuteCommandTest(t, TestCommandExecution{
		Command: newFeaturesCmd(),
		Args:    []string{"get", "sess-1"},
		Validate: func(t *testing.T, output string, err error) {
			assert.Equal(t, "num_page_views: 5\n", output)
		},
	})
}

func TestFeaturesGet_Fallback(t *testing.T) {
	noSpinner(t)
	ctrl := gomock.NewController(t)
	store := mocksignals.NewMockFeatureStore(ctrl)
	StubFeatureStore(t, store)
	SetConfig(t, config.KeyAPIURL, "https://signals.example.com")

	store.EXPECT().GetOnlineFeatures(gomock.Any(), gomock.Any()).Return(nil, nil)

	ExecuteCommandTest(t, TestCommandExecution{
		Command:      newFeaturesCmd(),
		Args:         []string{"get", "unknown"},
		ExpectOutput: []string{"Unable to fetch attributes for the session"},
	})
}

func TestFeaturesGet_Errors(t *testing.T) {
	noSpinner(t)

	t.Run("missing api url", func(t *testing.T) {
		SetConfig(t, config.KeyAPIURL, "")
		AssertCommandError(t, newFeaturesCmd(), []string{"get", "abc"}, "api_url is required")
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocksignals.NewMockFeatureStore(ctrl)
		StubFeatureStore(t, store)
		SetConfig(t, config.KeyAPIURL, "https://signals.example.com")
		store.EXPECT().GetOnlineFeatures(gomock.Any(), gomock.Any()).
			Return(nil, &signals.APIError{StatusCode: 503, Body: "unavailable"})

		AssertCommandError(t, newFeaturesCmd(), []string{"get", "abc"},
			"failed to fetch online features: feature store returned status 503: unavailable")
	})

	t.Run("bad catalog", func(t *testing.T) {
		SetConfig(t, config.KeyAPIURL, "https://signals.example.com")
		SetConfig(t, config.KeyCatalogFile, "catalog.json")
		AssertCommandError(t, newFeaturesCmd(), []string{"get", "abc"}, "unsupported catalog format")
	})

	t.Run("no session id", func(t *testing.T) {
		AssertCommandError(t, newFeaturesCmd(), []string{"get"}, "accepts 1 arg")
	})
}

func TestCatalogShow(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		ExecuteCommandTest(t, TestCommandExecution{
			Command: newCatalogCmd(),
			Args:    []string{"show"},
			ExpectOutput: []string{
				"Feature View",
				"demo_web_event_features_v1",
				"session (domain_sessionid)",
				"built-in",
				"FEATURE", "num_page_views", "performed_events", "engaged_10s_periods", "visited_pages",
				"page_view,submit_form,ready_event,link_click",
			},
		})
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runCatalogShow(&buf, "", OutputFormatJSON))

		var view struct {
			Name     string `json:"name"`
			Features []struct {
				Name string `json:"name"`
			} `json:"features"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
		assert.Equal(t, "demo_web_event_features", view.Name)
		assert.Len(t, view.Features, 4)
	})

	t.Run("yaml from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "view.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
name: checkout
version: 2
features:
  - name: cart_adds
    dtype: INT32
    type: counter
    events: ["iglu:com.acme/add_to_cart/jsonschema/1-0-0"]
`), 0o600))

		var buf bytes.Buffer
		require.NoError(t, runCatalogShow(&buf, path, OutputFormatYAML))

		var view map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &view))
		assert.Equal(t, "checkout", view["name"])
		assert.Equal(t, 2, view["version"])
	})

	t.Run("bad format", func(t *testing.T) {
		AssertCommandError(t, newCatalogCmd(), []string{"show", "-o", "xml"}, `unsupported output format "xml"`)
	})
}

func TestAuthCommand(t *testing.T) {
	cmd := newAuthCmd()
	assert.Equal(t, "auth", cmd.Use)

	expectedSubcommands := []string{"login", "logout", "status"}
	for _, subcmd := range expectedSubcommands {
		t.Run("has_"+subcmd, func(t *testing.T) {
			found := false
			for _, c := range cmd.Commands() {
				if c.Name() == subcmd {
					found = true
					break
				}
			}
			assert.True(t, found, "Subcommand %s not found", subcmd)
		})
	}

	login := newAuthLoginCmd()
	openFlag := login.Flags().Lookup("open")
	require.NotNil(t, openFlag)
	assert.Equal(t, "false", openFlag.DefValue)
	verifyFlag := login.Flags().Lookup("verify")
	require.NotNil(t, verifyFlag)
	assert.Equal(t, "true", verifyFlag.DefValue)
}

type recordingOpener struct {
	urls []string
}

func (r *recordingOpener) OpenURL(url string) error {
	r.urls = append(r.urls, url)
	return nil
}

func TestAuthLogin(t *testing.T) {
	store := auth.NewMockStore(nil, nil)
	StubCredentialStore(t, store)
	StubSurvey(t, "org-1", "key-id", "key-secret")

	opener := &recordingOpener{}
	oldOpener := browserOpener
	browserOpener = opener
	t.Cleanup(func() { browserOpener = oldOpener })

	ExecuteCommandTest(t, TestCommandExecution{
		Command:      newAuthCmd(),
		Args:         []string{"login", "--verify=false", "--open"},
		ExpectOutput: []string{"Credentials saved for organization org-1"},
	})

	assert.Equal(t, []string{auth.ConsoleURL}, opener.urls)
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, auth.Credentials{APIKey: "key-secret", APIKeyID: "key-id", OrgID: "org-1"}, *saved)
}

func TestAuthStatus(t *testing.T) {
	for _, k := range []string{config.KeyAPIKey, config.KeyAPIKeyID, config.KeyOrgID} {
		SetConfig(t, k, "")
	}

	t.Run("not configured", func(t *testing.T) {
		StubCredentialStore(t, auth.NewMockStore(nil, nil))
		ExecuteCommandTest(t, TestCommandExecution{
			Command:      newAuthCmd(),
			Args:         []string{"status"},
			ExpectOutput: []string{"Not configured", "signals-mcp auth login"},
		})
	})

	t.Run("stored", func(t *testing.T) {
		StubCredentialStore(t, auth.NewMockStore(&auth.Credentials{
			APIKey: "secret-abcd", APIKeyID: "kid", OrgID: "org-9",
		}, nil))
		ExecuteCommandTest(t, TestCommandExecution{
			Command:      newAuthCmd(),
			Args:         []string{"status"},
			ExpectOutput: []string{"Signals Credentials", "keyring", "org-9", "*******abcd"},
			Validate: func(t *testing.T, output string, err error) {
				assert.NotContains(t, output, "secret-abcd")
			},
		})
	})

	t.Run("from config file", func(t *testing.T) {
		for _, k := range []string{"SIGNALS_API_KEY", "SIGNALS_API_KEY_ID", "SIGNALS_ORG_ID"} {
			t.Setenv(k, "")
		}
		SetConfig(t, config.KeyAPIKey, "file-secret-wxyz")
		SetConfig(t, config.KeyAPIKeyID, "kid")
		SetConfig(t, config.KeyOrgID, "org-file")
		StubCredentialStore(t, auth.NewMockStore(nil, nil))

		var buf bytes.Buffer
		require.NoError(t, runAuthStatus(&buf, OutputFormatJSON))

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "config", got["source"])
		assert.Equal(t, "org-file", got["org_id"])
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("SIGNALS_API_KEY", "env-secret-wxyz")
		SetConfig(t, config.KeyAPIKey, "env-secret-wxyz")
		SetConfig(t, config.KeyAPIKeyID, "kid")
		SetConfig(t, config.KeyOrgID, "org-env")
		StubCredentialStore(t, auth.NewMockStore(nil, nil))

		var buf bytes.Buffer
		require.NoError(t, runAuthStatus(&buf, OutputFormatJSON))

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "environment", got["source"])
	})

	t.Run("json", func(t *testing.T) {
		StubCredentialStore(t, auth.NewMockStore(&auth.Credentials{
			APIKey: "secret-abcd", APIKeyID: "kid", OrgID: "org-9",
		}, nil))
		var buf bytes.Buffer
		require.NoError(t, runAuthStatus(&buf, OutputFormatJSON))

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, true, got["configured"])
		assert.Equal(t, "org-9", got["org_id"])
	})

	t.Run("keyring error", func(t *testing.T) {
		StubCredentialStore(t, auth.NewMockStore(nil, errors.New("keyring locked")))
		AssertCommandError(t, newAuthCmd(), []string{"status"}, "keyring locked")
	})
}

func TestAuthLogout(t *testing.T) {
	store := auth.NewMockStore(&auth.Credentials{APIKey: "k", APIKeyID: "i", OrgID: "o"}, nil)
	StubCredentialStore(t, store)

	ExecuteCommandTest(t, TestCommandExecution{
		Command:      newAuthCmd(),
		Args:         []string{"logout"},
		ExpectOutput: []string{"Stored credentials removed"},
	})

	_, err := store.Load()
	assert.True(t, errors.Is(err, auth.ErrNotConfigured))
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in   string
		want OutputFormat
	}{
		{"", OutputFormatText},
		{"table", OutputFormatText},
		{"JSON", OutputFormatJSON},
		{"yml", OutputFormatYAML},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseOutputFormat("xml")
	assert.Error(t, err)
}
