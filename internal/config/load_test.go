package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"version": "v0.0.1"}`))
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.Server.MaxBodyBytes)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Validation.CheckDisposable)
	assert.Equal(t, DefaultMaxBatchSize, cfg.Validation.MaxBatchSize)
	assert.Nil(t, cfg.MCP)
	assert.Empty(t, cfg.ServiceAuths)
}

func TestParse_FullConfig(t *testing.T) {
	t.Setenv("MAILGATE_TEST_ADDR", ":9090")
	t.Setenv("MAILGATE_TEST_TOKEN", "token-123")
	t.Setenv("MAILGATE_TEST_PASSWORD", "'hunter2'")

	cfg, err := Parse([]byte(`{
		"version": "v0.0.1",
		"server": {
			"addr": {"$env": "MAILGATE_TEST_ADDR"},
			"baseURL": "https://mailgate.example.com",
			"allowedOrigins": ["https://chat.example.com"],
			"maxBodyBytes": 1024,
			"shutdownTimeout": "5s"
		},
		"validation": {
			"checkDisposable": false,
			"extraDisposableDomains": ["burner.example"],
			"maxBatchSize": 10
		},
		"mcp": {"enabled": true},
		"serviceAuths": [
			{"type": "bearer", "tokens": [{"$env": "MAILGATE_TEST_TOKEN"}, "static-token"]},
			{"type": "basic", "username": "auth-service", "password": {"$env": "MAILGATE_TEST_PASSWORD"}}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "https://mailgate.example.com", cfg.Server.BaseURL)
	assert.Equal(t, []string{"https://chat.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)

	assert.False(t, cfg.Validation.CheckDisposable)
	assert.Equal(t, []string{"burner.example"}, cfg.Validation.ExtraDisposableDomains)
	assert.Equal(t, 10, cfg.Validation.MaxBatchSize)

	require.NotNil(t, cfg.MCP)
	assert.Equal(t, DefaultMCPName, cfg.MCP.Name)
	assert.Equal(t, MCPTransportStreamable, cfg.MCP.TransportType)

	require.Len(t, cfg.ServiceAuths, 2)
	assert.Equal(t, []Secret{"token-123", "static-token"}, cfg.ServiceAuths[0].Tokens)
	assert.Equal(t, "service", cfg.ServiceAuths[0].Name)

	basic := cfg.ServiceAuths[1]
	assert.Equal(t, "auth-service", basic.Name)
	// Quotes around env values are stripped before hashing
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(basic.HashedPassword), []byte("hunter2")))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		json        string
		expectError string
	}{
		{
			name:        "invalid json",
			json:        `{`,
			expectError: "parsing config JSON",
		},
		{
			name:        "missing version",
			json:        `{}`,
			expectError: "config version is required",
		},
		{
			name:        "unsupported version",
			json:        `{"version": "v9"}`,
			expectError: "unsupported config version: v9",
		},
		{
			name:        "literal password",
			json:        `{"version": "v0.0.1", "serviceAuths": [{"type": "basic", "username": "u", "password": "plain"}]}`,
			expectError: "must use environment variable reference",
		},
		{
			name:        "unset env var",
			json:        `{"version": "v0.0.1", "server": {"addr": {"$env": "MAILGATE_TEST_UNSET_VAR"}}}`,
			expectError: "environment variable MAILGATE_TEST_UNSET_VAR not set",
		},
		{
			name:        "bad duration",
			json:        `{"version": "v0.0.1", "server": {"shutdownTimeout": "soon"}}`,
			expectError: "parsing shutdownTimeout",
		},
		{
			name:        "zero batch size",
			json:        `{"version": "v0.0.1", "validation": {"maxBatchSize": 0}}`,
			expectError: "validation.maxBatchSize must be positive",
		},
		{
			name:        "bad extra domain",
			json:        `{"version": "v0.0.1", "validation": {"extraDisposableDomains": ["not a domain"]}}`,
			expectError: "is not a valid domain",
		},
		{
			name:        "bad mcp transport",
			json:        `{"version": "v0.0.1", "mcp": {"enabled": true, "transportType": "stdio"}}`,
			expectError: "invalid transportType: stdio",
		},
		{
			name:        "bad mcp name",
			json:        `{"version": "v0.0.1", "mcp": {"enabled": true, "name": "Mail Gate"}}`,
			expectError: "must be lowercase letters",
		},
		{
			name:        "unknown service auth",
			json:        `{"version": "v0.0.1", "serviceAuths": [{"type": "digest"}]}`,
			expectError: "unknown service auth type: digest",
		},
		{
			name:        "bearer without tokens",
			json:        `{"version": "v0.0.1", "serviceAuths": [{"type": "bearer"}]}`,
			expectError: "at least one token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestParse_DisabledMCPIsNotValidated(t *testing.T) {
	cfg, err := Parse([]byte(`{"version": "v0.0.1", "mcp": {"enabled": false, "transportType": "stdio"}}`))
	require.NoError(t, err)
	assert.False(t, cfg.MCP.Enabled)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "v0.0.1", "server": {"addr": ":7000"}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestSecretRedaction(t *testing.T) {
	assert.Equal(t, "***", Secret("super-secret").String())
	assert.Equal(t, "", Secret("").String())

	data, err := Secret("super-secret").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"***"`, string(data))
}
