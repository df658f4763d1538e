package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// MCPTransportType is the transport the MCP tool server is exposed on
type MCPTransportType string

const (
	MCPTransportStreamable MCPTransportType = "streamable-http"
	MCPTransportSSE        MCPTransportType = "sse"
)

// ServiceAuthType represents the type of service authentication
type ServiceAuthType string

const (
	ServiceAuthTypeBearer ServiceAuthType = "bearer"
	ServiceAuthTypeBasic  ServiceAuthType = "basic"
)

const (
	DefaultAddr            = ":8080"
	DefaultMaxBodyBytes    = 64 << 10
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBatchSize    = 100
	DefaultMCPName         = "mailgate"
)

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string
	BaseURL         string
	AllowedOrigins  []string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// ValidationConfig configures the email validator
type ValidationConfig struct {
	CheckDisposable        bool
	ExtraDisposableDomains []string
	MaxBatchSize           int
}

// MCPConfig configures the MCP tool endpoint
type MCPConfig struct {
	Enabled       bool             `json:"enabled"`
	Name          string           `json:"name,omitempty"`
	TransportType MCPTransportType `json:"transportType,omitempty"`
}

// ServiceAuth represents service-to-service authentication configuration
type ServiceAuth struct {
	Type ServiceAuthType `json:"type"`
	Name string          `json:"name,omitempty"`

	// For basic auth
	Username    string          `json:"username,omitempty"`
	PasswordRaw json.RawMessage `json:"password,omitempty"`

	// For bearer auth
	TokensRaw []json.RawMessage `json:"tokens,omitempty"`

	// Computed fields
	HashedPassword Secret   `json:"-"` // bcrypt hash for basic auth
	Tokens         []Secret `json:"-"`
}

// Config is the top-level configuration
type Config struct {
	Version      string           `json:"version"`
	Server       ServerConfig     `json:"server"`
	Validation   ValidationConfig `json:"validation"`
	MCP          *MCPConfig       `json:"mcp,omitempty"`
	ServiceAuths []ServiceAuth    `json:"serviceAuths,omitempty"`
}

// Default returns a config with every default applied
func Default() Config {
	return Config{
		Version: SupportedVersion,
		Server: ServerConfig{
			Addr:            DefaultAddr,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Validation: ValidationConfig{
			CheckDisposable: true,
			MaxBatchSize:    DefaultMaxBatchSize,
		},
	}
}

// ParseConfigValue parses a config value that is either a plain string
// or an {"$env": "VAR"} reference, resolving the reference immediately.
func ParseConfigValue(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}

	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return "", fmt.Errorf("unknown reference type in config value")
	}
	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", envVar)
	}
	// Strip surrounding quotes if present (only matching pairs)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return value, nil
}

// ParseConfigValueSlice parses a slice that may contain references
func ParseConfigValueSlice(raw []json.RawMessage) ([]string, error) {
	values := make([]string, len(raw))
	for i, item := range raw {
		value, err := ParseConfigValue(item)
		if err != nil {
			return nil, fmt.Errorf("parsing item %d: %w", i, err)
		}
		values[i] = value
	}
	return values, nil
}
