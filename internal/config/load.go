package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dgellow/mailgate/internal/emailutil"
	"github.com/dgellow/mailgate/internal/envutil"
	"github.com/dgellow/mailgate/internal/log"
)

// SupportedVersion is the config version this build reads
const SupportedVersion = "v0.0.1"

// ErrVersionRequired is returned when the config has no version field
var ErrVersionRequired = errors.New("config version is required")

var mcpNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses config JSON, applies defaults and validates the result
func Parse(data []byte) (Config, error) {
	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, ErrVersionRequired
	}
	if !strings.HasPrefix(version, SupportedVersion) {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	// Sections absent from the file keep their defaults; present sections
	// are filled by the custom UnmarshalJSON methods, which resolve env refs.
	config := Default()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateRawConfig validates the config structure before environment resolution
func validateRawConfig(rawConfig map[string]any) error {
	auths, ok := rawConfig["serviceAuths"].([]any)
	if !ok {
		return nil
	}
	for i, entry := range auths {
		auth, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		// Basic auth passwords must come from the environment
		if value, exists := auth["password"]; exists {
			if _, isString := value.(string); isString {
				return fmt.Errorf("serviceAuths[%d].password must use environment variable reference for security", i)
			}
			if refMap, isMap := value.(map[string]any); isMap {
				if _, hasEnv := refMap["$env"]; !hasEnv {
					return fmt.Errorf("serviceAuths[%d].password must use {\"$env\": \"VAR_NAME\"} format", i)
				}
			}
		}
	}
	return nil
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	if config.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.maxBodyBytes must be positive")
	}
	if config.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdownTimeout cannot be negative")
	}
	if len(config.Server.AllowedOrigins) == 0 && !envutil.IsDev() {
		log.LogWarn("No server.allowedOrigins configured - CORS will allow any origin")
	}

	if config.Validation.MaxBatchSize <= 0 {
		return fmt.Errorf("validation.maxBatchSize must be positive")
	}
	for _, domain := range config.Validation.ExtraDisposableDomains {
		if !isDomain(domain) {
			return fmt.Errorf("validation.extraDisposableDomains: %q is not a valid domain", domain)
		}
	}
	if !config.Validation.CheckDisposable {
		log.LogWarn("Disposable domain check is disabled by default for all requests")
	}

	if mcp := config.MCP; mcp != nil && mcp.Enabled {
		if err := validateMCPConfig(mcp); err != nil {
			return fmt.Errorf("mcp config: %w", err)
		}
		if len(config.ServiceAuths) == 0 {
			log.LogWarn("MCP tools are enabled without serviceAuths - the endpoint is unauthenticated")
		}
	}

	return nil
}

func validateMCPConfig(mcp *MCPConfig) error {
	if mcp.Name == "" {
		mcp.Name = DefaultMCPName
	}
	if !mcpNamePattern.MatchString(mcp.Name) {
		return fmt.Errorf("name %q must be lowercase letters, digits and hyphens", mcp.Name)
	}
	switch mcp.TransportType {
	case "":
		mcp.TransportType = MCPTransportStreamable
	case MCPTransportStreamable, MCPTransportSSE:
	default:
		return fmt.Errorf("invalid transportType: %s (use streamable-http or sse)", mcp.TransportType)
	}
	return nil
}

// isDomain accepts anything the address syntax check would accept after '@'
func isDomain(domain string) bool {
	return emailutil.CheckSyntax("x@" + strings.ToLower(strings.TrimRight(strings.TrimSpace(domain), ".")))
}
