package config

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dgellow/mailgate/internal/log"
)

// UnmarshalJSON implements custom unmarshaling for ServerConfig
func (s *ServerConfig) UnmarshalJSON(data []byte) error {
	type rawServer struct {
		Addr            json.RawMessage `json:"addr,omitempty"`
		BaseURL         json.RawMessage `json:"baseURL,omitempty"`
		AllowedOrigins  []string        `json:"allowedOrigins,omitempty"`
		MaxBodyBytes    *int64          `json:"maxBodyBytes,omitempty"`
		ShutdownTimeout string          `json:"shutdownTimeout,omitempty"`
	}

	var raw rawServer
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = ServerConfig{
		Addr:            DefaultAddr,
		AllowedOrigins:  raw.AllowedOrigins,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		ShutdownTimeout: DefaultShutdownTimeout,
	}

	if raw.Addr != nil {
		addr, err := ParseConfigValue(raw.Addr)
		if err != nil {
			return fmt.Errorf("parsing addr: %w", err)
		}
		s.Addr = addr
	}

	if raw.BaseURL != nil {
		baseURL, err := ParseConfigValue(raw.BaseURL)
		if err != nil {
			return fmt.Errorf("parsing baseURL: %w", err)
		}
		s.BaseURL = baseURL
	}

	if raw.MaxBodyBytes != nil {
		s.MaxBodyBytes = *raw.MaxBodyBytes
	}

	if raw.ShutdownTimeout != "" {
		timeout, err := time.ParseDuration(raw.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("parsing shutdownTimeout: %w", err)
		}
		s.ShutdownTimeout = timeout
	}

	return nil
}

// UnmarshalJSON implements custom unmarshaling for ValidationConfig.
// The disposable check defaults to on when the field is omitted.
func (v *ValidationConfig) UnmarshalJSON(data []byte) error {
	type rawValidation struct {
		CheckDisposable        *bool    `json:"checkDisposable,omitempty"`
		ExtraDisposableDomains []string `json:"extraDisposableDomains,omitempty"`
		MaxBatchSize           *int     `json:"maxBatchSize,omitempty"`
	}

	var raw rawValidation
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*v = ValidationConfig{
		CheckDisposable:        true,
		ExtraDisposableDomains: raw.ExtraDisposableDomains,
		MaxBatchSize:           DefaultMaxBatchSize,
	}
	if raw.CheckDisposable != nil {
		v.CheckDisposable = *raw.CheckDisposable
	}
	if raw.MaxBatchSize != nil {
		v.MaxBatchSize = *raw.MaxBatchSize
	}

	return nil
}

// UnmarshalJSON resolves credentials and hashes basic auth passwords
func (s *ServiceAuth) UnmarshalJSON(data []byte) error {
	// Use type alias to avoid recursion
	type rawServiceAuth ServiceAuth
	var raw rawServiceAuth

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = ServiceAuth(raw)

	log.LogTraceWithFields("config", "Unmarshaling service auth", map[string]any{
		"type": s.Type,
	})

	switch s.Type {
	case ServiceAuthTypeBasic:
		if s.Username == "" {
			return fmt.Errorf("username is required for basic auth")
		}
		if s.PasswordRaw == nil {
			return fmt.Errorf("password is required for basic auth")
		}
		password, err := ParseConfigValue(s.PasswordRaw)
		if err != nil {
			return fmt.Errorf("parsing password: %w", err)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		s.HashedPassword = Secret(hashed)
		if s.Name == "" {
			s.Name = s.Username
		}
	case ServiceAuthTypeBearer:
		if len(s.TokensRaw) == 0 {
			return fmt.Errorf("at least one token is required for bearer auth")
		}
		tokens, err := ParseConfigValueSlice(s.TokensRaw)
		if err != nil {
			return fmt.Errorf("parsing tokens: %w", err)
		}
		s.Tokens = make([]Secret, 0, len(tokens))
		for _, token := range tokens {
			if token == "" {
				return fmt.Errorf("bearer tokens cannot be empty")
			}
			s.Tokens = append(s.Tokens, Secret(token))
		}
		if s.Name == "" {
			s.Name = "service"
		}
	default:
		return fmt.Errorf("unknown service auth type: %s", s.Type)
	}

	return nil
}
