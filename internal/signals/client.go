// Package signals is a client for the Snowplow Signals feature store.
package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/effective-security/xlog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var logger = xlog.NewPackageLogger("github.com/fastertools/signals-mcp/internal", "signals")

const (
	// DefaultTimeout bounds a single feature store request
	DefaultTimeout = 30 * time.Second

	onlineFeaturesPath = "/api/v1/get-online-features"
	requestIDHeader    = "X-Request-ID"
	defaultUserAgent   = "signals-mcp"
)

// Client calls the feature store's online features API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	userAgent  string
}

// ensure Client implements FeatureStore
var _ FeatureStore = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTokenSource authenticates every request with a bearer token
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient creates a feature store client for the given API URL
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	if apiURL == "" {
		return nil, errors.New("feature store API URL is required")
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid feature store API URL")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid feature store API URL %q: scheme and host are required", apiURL)
	}

	c := &Client{
		baseURL: strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

type onlineFeaturesBody struct {
	Features []string            `json:"features"`
	Entities map[string][]string `json:"entities"`
}

// GetOnlineFeatures fetches the current values of req.View for one entity.
// A null or empty 2xx body yields (nil, nil); any non-2xx status is an *APIError.
func (c *Client) GetOnlineFeatures(ctx context.Context, req *OnlineFeaturesRequest) (*OnlineFeatures, error) {
	if req == nil || req.View == nil {
		return nil, errors.New("feature view is required")
	}

	body, err := json.Marshal(onlineFeaturesBody{
		Features: req.View.FeatureRefs(),
		Entities: map[string][]string{req.EntityType: {req.EntityID}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+onlineFeaturesPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(requestIDHeader, requestID)

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get access token")
		}
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	logger.KV(xlog.DEBUG,
		"request_id", requestID,
		"view", req.View.Ref(),
		"entity_type", req.EntityType,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call feature store")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.KV(xlog.ERROR, "request_id", requestID, "status", resp.StatusCode)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	return decodeOnlineFeatures(data)
}

// decodeOnlineFeatures parses a name -> [value per entity] object, keeping key order.
func decodeOnlineFeatures(data []byte) (*OnlineFeatures, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(trimmed, raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse online features response")
	}

	out := orderedmap.New[string, any](raw.Len())
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		value, err := decodeValue(pair.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse value of %q", pair.Key)
		}
		out.Set(featureName(pair.Key), value)
	}
	return &OnlineFeatures{Data: out}, nil
}

// decodeValue unwraps the per-entity array; only one entity is ever requested.
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	v, err := decodeOrdered(dec)
	if err != nil {
		return nil, err
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, nil
		}
		return list[0], nil
	}
	return v, nil
}

// decodeOrdered reads the next JSON value, keeping object keys in document
// order as *orderedmap.OrderedMap[string, any].
func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := orderedmap.New[string, any]()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, errors.Errorf("unexpected object key %v", keyTok)
			}
			value, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		list := []any{}
		for dec.More() {
			value, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	}
	return nil, errors.Errorf("unexpected delimiter %v", delim)
}

// featureName strips the "view_vN:" prefix some deployments return.
func featureName(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[i+1:]
	}
	return key
}
