// Package auth exchanges Snowplow console API keys for bearer tokens used by
// the Signals API, and stores the keys in the OS keyring.
package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/effective-security/xlog"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var logger = xlog.NewPackageLogger("github.com/fastertools/signals-mcp/internal", "auth")

const (
	// DefaultAuthURL is the console API base the token endpoint lives under.
	DefaultAuthURL = "https://console.snowplowanalytics.com/api/msc/v1"
	// ConsoleURL is where API keys are created.
	ConsoleURL = "https://console.snowplowanalytics.com/credentials"

	// refreshSkew is how long before expiry a token is replaced.
	refreshSkew = 60 * time.Second
)

// BrowserOpener opens URLs in a browser
type BrowserOpener interface {
	OpenURL(url string) error
}

type defaultBrowserOpener struct{}

func (defaultBrowserOpener) OpenURL(url string) error {
	return browser.OpenURL(url)
}

// DefaultBrowser returns the opener backed by the system browser.
func DefaultBrowser() BrowserOpener {
	return defaultBrowserOpener{}
}

// OpenConsole opens the page where API keys are issued.
func OpenConsole(opener BrowserOpener) error {
	if opener == nil {
		opener = DefaultBrowser()
	}
	if err := opener.OpenURL(ConsoleURL); err != nil {
		return errors.Wrap(err, "failed to open browser")
	}
	return nil
}

// Manager exchanges API credentials for access tokens and reuses a token
// until shortly before it expires. It is safe for concurrent use.
type Manager struct {
	creds   Credentials
	authURL string
	client  *http.Client
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithHTTPClient overrides the HTTP client used for the token exchange.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.client = c
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a token manager. An empty authURL selects DefaultAuthURL.
func NewManager(creds Credentials, authURL string, opts ...Option) (*Manager, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	u, err := url.Parse(authURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid auth URL %q", authURL)
	}

	m := &Manager{
		creds:   creds,
		authURL: strings.TrimSuffix(authURL, "/"),
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Token returns a valid access token, exchanging the credentials when the
// current one is missing or about to expire.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Add(refreshSkew).Before(m.expires) {
		return m.token, nil
	}

	token, err := m.exchange(ctx)
	if err != nil {
		return "", err
	}

	claims, err := ParseToken(token)
	if err != nil {
		return "", err
	}
	m.token = token
	m.expires = claims.ExpiresAt
	if m.expires.IsZero() {
		// no exp claim: reuse for the lifetime of the process
		m.expires = m.now().Add(100 * 365 * 24 * time.Hour)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "token_issued",
		"org_id", m.creds.OrgID,
		"expires", m.expires.UTC().Format(time.RFC3339),
	)
	return token, nil
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (m *Manager) exchange(ctx context.Context) (string, error) {
	tokenURL := m.authURL + "/organizations/" + url.PathEscape(m.creds.OrgID) + "/credentials/v3/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key-ID", m.creds.APIKeyID)
	req.Header.Set("X-API-Key", m.creds.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to exchange credentials")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("token exchange failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", errors.Wrap(err, "failed to parse token response")
	}
	if tr.AccessToken == "" {
		return "", errors.New("token response did not include an access token")
	}
	return tr.AccessToken, nil
}
