package auth

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the OS keyring service the credentials are stored under.
	KeyringService = "signals-mcp"
	// KeyringUsername is the keyring entry holding the credentials document.
	KeyringUsername = "api-credentials"
)

// ErrNotConfigured is returned when no API credentials are available.
var ErrNotConfigured = errors.New("signals API credentials are not configured")

// Credentials are the Snowplow console API key and the organization it belongs to.
type Credentials struct {
	APIKey   string `json:"api_key"`
	APIKeyID string `json:"api_key_id"`
	OrgID    string `json:"org_id"`
}

// IsZero reports whether no field is set.
func (c *Credentials) IsZero() bool {
	return c == nil || (c.APIKey == "" && c.APIKeyID == "" && c.OrgID == "")
}

// Validate checks that all three fields are present.
func (c *Credentials) Validate() error {
	if c.IsZero() {
		return ErrNotConfigured
	}
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.APIKeyID == "" {
		missing = append(missing, "api_key_id")
	}
	if c.OrgID == "" {
		missing = append(missing, "org_id")
	}
	if len(missing) > 0 {
		return errors.Errorf("incomplete credentials: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// MaskedKey returns the API key with all but the last four characters hidden.
func (c *Credentials) MaskedKey() string {
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}

// CredentialStore provides secure storage for API credentials
type CredentialStore interface {
	// Load returns ErrNotConfigured when nothing is stored.
	Load() (*Credentials, error)
	Save(creds *Credentials) error
	// Delete is a no-op when nothing is stored.
	Delete() error
}

// KeyringStore implements CredentialStore using the OS keyring
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Load retrieves stored credentials from the keyring
func (s *KeyringStore) Load() (*Credentials, error) {
	data, err := keyring.Get(KeyringService, KeyringUsername)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, errors.Wrap(err, "failed to load credentials")
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, errors.Wrap(err, "failed to parse credentials")
	}
	return &creds, nil
}

// Save stores credentials in the keyring
func (s *KeyringStore) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "failed to marshal credentials")
	}
	if err := keyring.Set(KeyringService, KeyringUsername, string(data)); err != nil {
		return errors.Wrap(err, "failed to save credentials")
	}
	return nil
}

// Delete removes stored credentials from the keyring
func (s *KeyringStore) Delete() error {
	err := keyring.Delete(KeyringService, KeyringUsername)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errors.Wrap(err, "failed to delete credentials")
	}
	return nil
}

// MockStore implements CredentialStore for testing
type MockStore struct {
	creds *Credentials
	err   error
}

// NewMockStore creates a mock credential store for testing
func NewMockStore(creds *Credentials, err error) *MockStore {
	return &MockStore{creds: creds, err: err}
}

func (m *MockStore) Load() (*Credentials, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.creds == nil {
		return nil, ErrNotConfigured
	}
	c := *m.creds
	return &c, nil
}

func (m *MockStore) Save(creds *Credentials) error {
	if m.err != nil {
		return m.err
	}
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}
	c := *creds
	m.creds = &c
	return nil
}

func (m *MockStore) Delete() error {
	if m.err != nil {
		return m.err
	}
	m.creds = nil
	return nil
}

// Resolve merges explicitly configured credentials over the stored ones.
// Configured values win field by field; a store without an entry is not an
// error. The result may be zero.
func Resolve(configured Credentials, store CredentialStore) (Credentials, error) {
	if configured.APIKey != "" && configured.APIKeyID != "" && configured.OrgID != "" {
		return configured, nil
	}
	if store == nil {
		return configured, nil
	}

	stored, err := store.Load()
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return configured, nil
		}
		return configured, err
	}
	if configured.APIKey == "" {
		configured.APIKey = stored.APIKey
	}
	if configured.APIKeyID == "" {
		configured.APIKeyID = stored.APIKeyID
	}
	if configured.OrgID == "" {
		configured.OrgID = stored.OrgID
	}
	return configured, nil
}
