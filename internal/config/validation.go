package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dgellow/mailgate/internal/envutil"
)

// ValidationResult holds validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidationError represents a validation issue
type ValidationError struct {
	Path    string
	Message string
}

// IsValid returns true if there are no errors
func (v *ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

func (v *ValidationResult) addError(path, format string, args ...any) {
	v.Errors = append(v.Errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *ValidationResult) addWarning(path, format string, args ...any) {
	v.Warnings = append(v.Warnings, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// ValidateFile validates a config file structure without requiring env vars
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ValidateBytes(data), nil
}

// ValidateBytes validates config JSON structure without resolving env vars
func ValidateBytes(data []byte) *ValidationResult {
	result := &ValidationResult{}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		result.addError("", "invalid JSON: %v", err)
		return result
	}

	checkBashStyleSyntax(rawConfig, "", result)

	version, ok := rawConfig["version"].(string)
	if !ok {
		result.addError("version", "version field is required. Hint: Add \"version\": %q", SupportedVersion)
	} else if !strings.HasPrefix(version, SupportedVersion) {
		result.addError("version", "unsupported version '%s' - use '%s'", version, SupportedVersion)
	}

	validateServerStructure(rawConfig, result)
	validateValidationStructure(rawConfig, result)
	validateMCPStructure(rawConfig, result)
	validateServiceAuthsStructure(rawConfig, result)

	return result
}

func validateServerStructure(rawConfig map[string]any, result *ValidationResult) {
	raw, exists := rawConfig["server"]
	if !exists {
		result.addWarning("server", "server section missing - listening on %s with defaults", DefaultAddr)
		return
	}
	server, ok := raw.(map[string]any)
	if !ok {
		result.addError("server", "server must be an object")
		return
	}

	if origins, ok := server["allowedOrigins"].([]any); !ok || len(origins) == 0 {
		if !envutil.IsDev() {
			result.addWarning("server.allowedOrigins", "no allowed origins - any website can call the validation API from a browser")
		}
	}

	if v, ok := server["maxBodyBytes"]; ok {
		if n, isNum := v.(float64); !isNum || n <= 0 {
			result.addError("server.maxBodyBytes", "maxBodyBytes must be a positive number")
		}
	}

	if v, ok := server["shutdownTimeout"]; ok {
		if s, isString := v.(string); !isString {
			result.addError("server.shutdownTimeout", "shutdownTimeout must be a duration string like \"30s\"")
		} else if !durationRegex.MatchString(s) {
			result.addError("server.shutdownTimeout", "invalid duration '%s'. Example: \"30s\"", s)
		}
	}
}

var durationRegex = regexp.MustCompile(`^(\d+(\.\d+)?(ns|us|µs|ms|s|m|h))+$`)

func validateValidationStructure(rawConfig map[string]any, result *ValidationResult) {
	validation, ok := rawConfig["validation"].(map[string]any)
	if !ok {
		return
	}

	if v, ok := validation["checkDisposable"]; ok {
		enabled, isBool := v.(bool)
		if !isBool {
			result.addError("validation.checkDisposable", "checkDisposable must be a boolean")
		} else if !enabled {
			result.addWarning("validation.checkDisposable", "disposable domain check is disabled by default")
		}
	}

	if v, ok := validation["maxBatchSize"]; ok {
		if n, isNum := v.(float64); !isNum || n <= 0 {
			result.addError("validation.maxBatchSize", "maxBatchSize must be a positive number")
		}
	}

	if domains, ok := validation["extraDisposableDomains"].([]any); ok {
		for i, d := range domains {
			path := fmt.Sprintf("validation.extraDisposableDomains[%d]", i)
			s, isString := d.(string)
			if !isString || !isDomain(s) {
				result.addError(path, "%v is not a valid domain", d)
			}
		}
	}
}

func validateMCPStructure(rawConfig map[string]any, result *ValidationResult) {
	mcp, ok := rawConfig["mcp"].(map[string]any)
	if !ok {
		return
	}

	if name, ok := mcp["name"].(string); ok && !mcpNamePattern.MatchString(name) {
		result.addError("mcp.name", "name '%s' must be lowercase letters, digits and hyphens", name)
	}

	if transport, ok := mcp["transportType"].(string); ok {
		switch MCPTransportType(transport) {
		case MCPTransportStreamable, MCPTransportSSE:
		default:
			result.addError("mcp.transportType", "invalid transportType '%s'. Options: streamable-http, sse", transport)
		}
	}

	if enabled, _ := mcp["enabled"].(bool); enabled {
		if auths, ok := rawConfig["serviceAuths"].([]any); !ok || len(auths) == 0 {
			result.addWarning("mcp", "MCP tools are enabled without serviceAuths - the endpoint is unauthenticated")
		}
	}
}

func validateServiceAuthsStructure(rawConfig map[string]any, result *ValidationResult) {
	auths, ok := rawConfig["serviceAuths"].([]any)
	if !ok {
		return
	}

	for i, entry := range auths {
		path := fmt.Sprintf("serviceAuths[%d]", i)
		auth, ok := entry.(map[string]any)
		if !ok {
			result.addError(path, "service auth must be an object")
			continue
		}

		switch ServiceAuthType(fmt.Sprint(auth["type"])) {
		case ServiceAuthTypeBearer:
			if tokens, ok := auth["tokens"].([]any); !ok || len(tokens) == 0 {
				result.addError(path+".tokens", "at least one token is required for bearer auth")
			}
		case ServiceAuthTypeBasic:
			if _, ok := auth["username"].(string); !ok {
				result.addError(path+".username", "username is required for basic auth")
			}
			switch pw := auth["password"].(type) {
			case nil:
				result.addError(path+".password", "password is required for basic auth")
			case string:
				result.addError(path+".password", "password must use {\"$env\": \"VAR_NAME\"} format")
			case map[string]any:
				if _, hasEnv := pw["$env"]; !hasEnv {
					result.addError(path+".password", "password must use {\"$env\": \"VAR_NAME\"} format")
				}
			}
		default:
			result.addError(path+".type", "unknown service auth type '%v'. Options: bearer, basic", auth["type"])
		}
	}
}

func checkBashStyleSyntax(value any, path string, result *ValidationResult) {
	bashStyleRegex := regexp.MustCompile(`\$\{?[A-Z_][A-Z0-9_]*\}?`)

	switch v := value.(type) {
	case string:
		for _, match := range bashStyleRegex.FindAllString(v, -1) {
			varName := strings.Trim(match, "${}")
			result.addWarning(path, "found bash-style syntax '%s' - use {\"$env\": \"%s\"} instead", match, varName)
		}
	case map[string]any:
		if _, hasEnv := v["$env"]; hasEnv {
			return
		}
		for key, val := range v {
			newPath := key
			if path != "" {
				newPath = path + "." + key
			}
			checkBashStyleSyntax(val, newPath, result)
		}
	case []any:
		for i, item := range v {
			checkBashStyleSyntax(item, fmt.Sprintf("%s[%d]", path, i), result)
		}
	}
}
