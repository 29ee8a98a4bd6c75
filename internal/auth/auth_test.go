package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

var testCreds = Credentials{APIKey: "key-secret-1234", APIKeyID: "key-id", OrgID: "org-1"}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "svc"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return s
}

type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newTokenServer(t *testing.T, token func() string) *tokenServer {
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/msc/v1/organizations/org-1/credentials/v3/token", r.URL.Path)
		assert.Equal(t, "key-id", r.Header.Get("X-API-Key-ID"))
		assert.Equal(t, "key-secret-1234", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"` + token() + `"}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestManager_TokenReuse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	exp := now.Add(10 * time.Minute)

	srv := newTokenServer(t, func() string { return signedToken(t, exp) })
	m, err := NewManager(testCreds, srv.URL+"/api/msc/v1", WithClock(clock))
	require.NoError(t, err)

	first, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), srv.calls.Load())

	// inside the refresh window
	now = exp.Add(-30 * time.Second)
	exp = now.Add(time.Hour)
	third, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.Equal(t, int32(2), srv.calls.Load())
}

func TestManager_TokenConcurrent(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	srv := newTokenServer(t, func() string { return signedToken(t, exp) })
	m, err := NewManager(testCreds, srv.URL+"/api/msc/v1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Token(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestManager_TokenErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
		}))
		defer srv.Close()

		m, err := NewManager(testCreds, srv.URL)
		require.NoError(t, err)
		_, err = m.Token(context.Background())
		assert.EqualError(t, err, "token exchange failed with status 401: invalid api key")
	})

	t.Run("missing token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		m, err := NewManager(testCreds, srv.URL)
		require.NoError(t, err)
		_, err = m.Token(context.Background())
		assert.EqualError(t, err, "token response did not include an access token")
	})

	t.Run("not a jwt", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"accessToken":"opaque"}`))
		}))
		defer srv.Close()

		m, err := NewManager(testCreds, srv.URL)
		require.NoError(t, err)
		_, err = m.Token(context.Background())
		assert.ErrorContains(t, err, "failed to parse token")
	})
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(Credentials{}, "")
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = NewManager(Credentials{APIKey: "k"}, "")
	assert.EqualError(t, err, "incomplete credentials: missing api_key_id, org_id")

	_, err = NewManager(testCreds, "not a url")
	assert.EqualError(t, err, `invalid auth URL "not a url"`)

	m, err := NewManager(testCreds, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultAuthURL, m.authURL)
}

func TestParseToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := ParseToken(signedToken(t, exp))
	require.NoError(t, err)
	assert.Equal(t, "svc", claims.Subject)
	assert.True(t, exp.Equal(claims.ExpiresAt))
	assert.False(t, claims.ExpiresWithin(time.Now(), time.Minute))
	assert.True(t, claims.ExpiresWithin(time.Now(), 2*time.Hour))

	noExp, err := ParseToken(signedToken(t, time.Time{}))
	require.NoError(t, err)
	assert.False(t, noExp.ExpiresWithin(time.Now(), 24*time.Hour))
}

type recordingOpener struct {
	urls []string
}

func (r *recordingOpener) OpenURL(url string) error {
	r.urls = append(r.urls, url)
	return nil
}

func TestOpenConsole(t *testing.T) {
	o := &recordingOpener{}
	require.NoError(t, OpenConsole(o))
	assert.Equal(t, []string{ConsoleURL}, o.urls)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	s := NewKeyringStore()

	_, err := s.Load()
	assert.True(t, errors.Is(err, ErrNotConfigured))

	require.NoError(t, s.Save(&testCreds))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, testCreds, *got)

	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())
	_, err = s.Load()
	assert.True(t, errors.Is(err, ErrNotConfigured))

	assert.EqualError(t, s.Save(nil), "cannot save nil credentials")
}

func TestResolve(t *testing.T) {
	stored := NewMockStore(&testCreds, nil)

	got, err := Resolve(Credentials{OrgID: "org-override"}, stored)
	require.NoError(t, err)
	assert.Equal(t, Credentials{APIKey: "key-secret-1234", APIKeyID: "key-id", OrgID: "org-override"}, got)

	got, err = Resolve(Credentials{}, NewMockStore(nil, nil))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = Resolve(Credentials{}, NewMockStore(nil, errors.New("keyring locked")))
	assert.EqualError(t, err, "keyring locked")

	got, err = Resolve(testCreds, nil)
	require.NoError(t, err)
	assert.Equal(t, testCreds, got)
}

func TestCredentials_MaskedKey(t *testing.T) {
	assert.Equal(t, "***********1234", testCreds.MaskedKey())
	assert.Equal(t, "***", (&Credentials{APIKey: "abc"}).MaskedKey())
}
