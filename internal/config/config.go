// Package config resolves client settings from defaults, an optional
// ~/.vigil/config.yaml file, a .env file and the process environment, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL      = "https://api.vigil.club"
	defaultHTTPTimeout = 30 * time.Second
	defaultVerifyRate  = 2.0

	// PendingReplace keeps only the latest gated action.
	PendingReplace = "replace"
	// PendingReject refuses a gated action while another one is pending.
	PendingReject = "reject"
)

// Config is the resolved client configuration.
type Config struct {
	APIURL  string
	BaseURL string
	Home    string

	// Token overrides the stored credentials for scripted use.
	Token string

	LogLevel  string
	LogFormat string

	// RequireUSN adds the university serial number to the profile
	// completeness rule.
	RequireUSN    bool
	PendingPolicy string

	HTTPTimeout time.Duration
	// VerifyRate is the max ticket verifications per second.
	VerifyRate float64
}

// fileConfig mirrors config.yaml.
type fileConfig struct {
	APIURL        string  `yaml:"api_url"`
	BaseURL       string  `yaml:"base_url"`
	LogLevel      string  `yaml:"log_level"`
	LogFormat     string  `yaml:"log_format"`
	RequireUSN    *bool   `yaml:"require_usn"`
	PendingPolicy string  `yaml:"pending_policy"`
	HTTPTimeout   string  `yaml:"http_timeout"`
	VerifyRate    float64 `yaml:"verify_rate"`
}

// Load builds the Config. A missing .env or config.yaml is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	home, err := resolveHome()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		APIURL:        defaultAPIURL,
		Home:          home,
		LogLevel:      "info",
		LogFormat:     "text",
		PendingPolicy: PendingReplace,
		HTTPTimeout:   defaultHTTPTimeout,
		VerifyRate:    defaultVerifyRate,
	}

	if err := cfg.applyFile(filepath.Join(home, "config.yaml")); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = deriveBaseURL(cfg.APIURL)
	}
	return cfg, nil
}

// CredentialsPath is where the token store persists credentials.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.Home, "credentials.json")
}

// LogPath is the default log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Home, "vigil.log")
}

func resolveHome() (string, error) {
	if h := os.Getenv("VIGIL_HOME"); h != "" {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".vigil"), nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if fc.APIURL != "" {
		c.APIURL = fc.APIURL
	}
	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		c.LogFormat = fc.LogFormat
	}
	if fc.RequireUSN != nil {
		c.RequireUSN = *fc.RequireUSN
	}
	if fc.PendingPolicy != "" {
		c.PendingPolicy = fc.PendingPolicy
	}
	if fc.HTTPTimeout != "" {
		d, err := time.ParseDuration(fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout: %w", err)
		}
		c.HTTPTimeout = d
	}
	if fc.VerifyRate > 0 {
		c.VerifyRate = fc.VerifyRate
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("VIGIL_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("VIGIL_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("VIGIL_TOKEN"); v != "" {
		c.Token = strings.TrimSpace(v)
	}
	if v := os.Getenv("VIGIL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("VIGIL_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("VIGIL_REQUIRE_USN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid VIGIL_REQUIRE_USN: %w", err)
		}
		c.RequireUSN = b
	}
	if v := os.Getenv("VIGIL_PENDING_POLICY"); v != "" {
		c.PendingPolicy = strings.ToLower(v)
	}
	if v := os.Getenv("VIGIL_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid VIGIL_HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	return nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api url %q", c.APIURL)
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	switch c.PendingPolicy {
	case PendingReplace, PendingReject:
	default:
		return fmt.Errorf("invalid pending policy %q (want %q or %q)", c.PendingPolicy, PendingReplace, PendingReject)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	return nil
}

// deriveBaseURL maps api.example.org to example.org for browser links.
func deriveBaseURL(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil {
		return apiURL
	}
	host, port := u.Hostname(), u.Port()
	if strings.HasPrefix(host, "api.") {
		u.Host = strings.TrimPrefix(host, "api.")
		if port != "" {
			u.Host += ":" + port
		}
	}
	return u.String()
}
