// Package config provides configuration loading and defaults for the
// harmonic-mcp server and CLI.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by ApplyEnvOverrides.
const (
	EnvAPIToken     = "HARMONIC_API_TOKEN"
	EnvGraphQLURL   = "HARMONIC_GRAPHQL_URL"
	EnvMCPAuthToken = "HARMONIC_MCP_AUTH_TOKEN"
)

// DefaultGraphQLURL is the public Harmonic GraphQL endpoint.
const DefaultGraphQLURL = "https://api.harmonic.ai/graphql"

// ResourceFilter holds allowlist and denylist entries for a resource category.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig groups resource filters exposed to MCP callers.
type SafetyConfig struct {
	SavedSearches ResourceFilter `yaml:"saved_searches"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// ServerConfig holds network and authentication settings for the MCP listener.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// GraphQLConfig holds connection details for the Harmonic GraphQL API.
type GraphQLConfig struct {
	URL string `yaml:"url"`
	// Token is sent verbatim as the Authorization header, e.g. "Bearer eyJ...".
	Token string `yaml:"token"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int               `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// NotifyConfig controls the daily failure notices written by the server.
type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Safety  SafetyConfig  `yaml:"safety"`
	Audit   AuditConfig   `yaml:"audit"`
	GraphQL GraphQLConfig `yaml:"graphql"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// LoadConfig reads a YAML configuration file from the given path and layers
// it over DefaultConfig. Keys absent from the file keep their defaults, and
// graphql.headers entries are merged into the default headers.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultHeaders returns the browser-console headers Harmonic expects on
// GraphQL requests. Each call returns a distinct map.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Origin":                    "https://console.harmonic.ai",
		"Referer":                   "https://console.harmonic.ai/",
		"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
		"x-harmonic-request-source": "frontend",
		"version":                   "FE",
	}
}

// DefaultConfig returns a new Config populated with default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/config/audit.log",
		},
		GraphQL: GraphQLConfig{
			URL:     DefaultGraphQLURL,
			Timeout: 30,
			Headers: DefaultHeaders(),
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
	}
}

// LoadDotEnv loads KEY=value pairs from the given .env files into the process
// environment. Variables already set in the environment are left untouched and
// missing files are skipped. It returns the paths that were loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - HARMONIC_API_TOKEN overrides cfg.GraphQL.Token
//   - HARMONIC_GRAPHQL_URL overrides cfg.GraphQL.URL
//   - HARMONIC_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv(EnvAPIToken); token != "" {
		cfg.GraphQL.Token = token
	}
	if url := os.Getenv(EnvGraphQLURL); url != "" {
		cfg.GraphQL.URL = url
	}
	if token := os.Getenv(EnvMCPAuthToken); token != "" {
		cfg.Server.AuthToken = token
	}
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
