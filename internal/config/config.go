// Package config loads the server configuration from flags, environment
// variables and an optional signals-mcp.yaml file using Viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fastertools/signals-mcp/internal/auth"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment variable, e.g. SIGNALS_API_URL.
	EnvPrefix = "SIGNALS"
	// FileName is the config file base name looked up in the working directory.
	FileName = "signals-mcp"
)

// Keys
const (
	KeyAPIURL       = "api_url"
	KeyAPIKey       = "api_key"
	KeyAPIKeyID     = "api_key_id"
	KeyOrgID        = "org_id"
	KeyAuthURL      = "auth_url"
	KeyTimeout      = "timeout"
	KeyCatalogFile  = "catalog_file"
	KeyLogLevel     = "log_level"
	KeyMetricsAddr  = "metrics_addr"
	KeyOTelEndpoint = "otel_endpoint"
	KeyOTelSampling = "otel_sampling"
)

// Config holds the server configuration.
type Config struct {
	// APIURL is the Signals deployment base URL.
	APIURL string `mapstructure:"api_url" validate:"required,url"`

	APIKey   string `mapstructure:"api_key"`
	APIKeyID string `mapstructure:"api_key_id"`
	OrgID    string `mapstructure:"org_id"`
	// AuthURL is the console API base used for the token exchange.
	AuthURL string `mapstructure:"auth_url" validate:"omitempty,url"`

	// Timeout bounds a single feature store request.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// CatalogFile overrides the built-in feature view (.yaml, .yml or .toml).
	CatalogFile string `mapstructure:"catalog_file"`
	LogLevel    string `mapstructure:"log_level" validate:"omitempty,oneof=DEBUG INFO NOTICE WARN WARNING ERROR debug info notice warn warning error"`

	// MetricsAddr enables the Prometheus listener, e.g. 127.0.0.1:9464.
	MetricsAddr  string  `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	OTelEndpoint string  `mapstructure:"otel_endpoint"`
	OTelSampling float64 `mapstructure:"otel_sampling" validate:"gte=0,lte=1"`
}

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAuthURL, auth.DefaultAuthURL)
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyLogLevel, "INFO")
	v.SetDefault(KeyOTelSampling, 1.0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	for _, k := range []string{KeyAPIURL, KeyAPIKey, KeyAPIKeyID, KeyOrgID, KeyCatalogFile, KeyMetricsAddr, KeyOTelEndpoint} {
		_ = v.BindEnv(k)
	}
}

// Load builds and validates Config from v. Call SetDefaults first.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "invalid configuration")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	key := keyFor(fe.StructField())
	switch fe.Tag() {
	case "required":
		return key + " is required (set --" + strings.ReplaceAll(key, "_", "-") + " or " + EnvPrefix + "_" + strings.ToUpper(key) + ")"
	case "url":
		return key + " must be an absolute URL"
	default:
		return key + " is invalid (" + fe.Tag() + ")"
	}
}

func keyFor(field string) string {
	switch field {
	case "APIURL":
		return KeyAPIURL
	case "AuthURL":
		return KeyAuthURL
	case "Timeout":
		return KeyTimeout
	case "LogLevel":
		return KeyLogLevel
	case "MetricsAddr":
		return KeyMetricsAddr
	case "OTelSampling":
		return KeyOTelSampling
	default:
		return strings.ToLower(field)
	}
}

// Credentials returns the API credentials set in the configuration.
func (c *Config) Credentials() auth.Credentials {
	return auth.Credentials{
		APIKey:   c.APIKey,
		APIKeyID: c.APIKeyID,
		OrgID:    c.OrgID,
	}
}

// Credential sources reported by CredentialSource.
const (
	SourceEnvironment = "environment"
	SourceConfig      = "config"
)

// CredentialSource reports where the credentials resolved by v come from:
// SourceEnvironment when any SIGNALS_ credential variable is set, otherwise
// SourceConfig when v holds one (config file or flag), otherwise "".
func CredentialSource(v *viper.Viper) string {
	keys := []string{KeyAPIKey, KeyAPIKeyID, KeyOrgID}
	for _, k := range keys {
		if os.Getenv(EnvPrefix+"_"+strings.ToUpper(k)) != "" {
			return SourceEnvironment
		}
	}
	for _, k := range keys {
		if v.GetString(k) != "" {
			return SourceConfig
		}
	}
	return ""
}

// DetectFile returns the first signals-mcp config file found in dir, or ""
// when there is none. YAML is preferred over JSON and TOML.
func DetectFile(dir string) string {
	for _, ext := range []string{".yaml", ".yml", ".json", ".toml"} {
		p := filepath.Join(dir, FileName+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
