package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"VIGIL_API_URL", "VIGIL_BASE_URL", "VIGIL_TOKEN", "VIGIL_LOG_LEVEL",
		"VIGIL_LOG_FORMAT", "VIGIL_REQUIRE_USN", "VIGIL_PENDING_POLICY", "VIGIL_HTTP_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("VIGIL_HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultAPIURL, cfg.APIURL)
	assert.Equal(t, "https://vigil.club", cfg.BaseURL)
	assert.Equal(t, PendingReplace, cfg.PendingPolicy)
	assert.False(t, cfg.RequireUSN)
	assert.Equal(t, defaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, filepath.Join(cfg.Home, "credentials.json"), cfg.CredentialsPath())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	home := os.Getenv("VIGIL_HOME")
	yaml := []byte("api_url: https://api.file.example\nrequire_usn: true\npending_policy: reject\nhttp_timeout: 5s\n")
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), yaml, 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.file.example", cfg.APIURL)
	assert.True(t, cfg.RequireUSN)
	assert.Equal(t, PendingReject, cfg.PendingPolicy)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)

	t.Setenv("VIGIL_API_URL", "http://localhost:8000/")
	t.Setenv("VIGIL_REQUIRE_USN", "false")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.False(t, cfg.RequireUSN)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad url", "VIGIL_API_URL", "not a url"},
		{"bad policy", "VIGIL_PENDING_POLICY", "queue"},
		{"bad bool", "VIGIL_REQUIRE_USN", "maybe"},
		{"bad timeout", "VIGIL_HTTP_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDeriveBaseURL(t *testing.T) {
	assert.Equal(t, "https://club.example", deriveBaseURL("https://api.club.example"))
	assert.Equal(t, "http://club.example:8080", deriveBaseURL("http://api.club.example:8080"))
	assert.Equal(t, "http://localhost:8000", deriveBaseURL("http://localhost:8000"))
}
