package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader builds a Config from defaults, an optional file and the environment.
// Later sources override earlier ones:
//  1. Default values (in code)
//  2. Config file (CONFIG_FILE, yaml or json)
//  3. Environment variables
type Loader struct {
	path        string
	lookupEnv   func(string) (string, bool)
	fileLoaders map[string]FileLoader
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extensions() []string
}

// NewLoader creates a loader for the file at path. An empty path skips the file layer.
func NewLoader(path string) *Loader {
	l := &Loader{
		path:        path,
		lookupEnv:   os.LookupEnv,
		fileLoaders: make(map[string]FileLoader),
	}
	l.RegisterLoader(&YAMLLoader{})
	l.RegisterLoader(&JSONLoader{})
	return l
}

// WithLookupEnv replaces the environment source, used by tests.
func (l *Loader) WithLookupEnv(fn func(string) (string, bool)) *Loader {
	l.lookupEnv = fn
	return l
}

// RegisterLoader registers a decoder for its file extensions.
func (l *Loader) RegisterLoader(loader FileLoader) {
	for _, ext := range loader.Extensions() {
		l.fileLoaders[ext] = loader
	}
}

// Load applies every source and validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()
	sources := []string{"defaults"}

	if l.path != "" {
		if err := l.loadFile(cfg); err != nil {
			return nil, err
		}
		sources = append(sources, l.path)
	}

	l.loadEnvironmentVariables(cfg)
	sources = append(sources, "environment")

	cfg.applyEnvironmentDefaults()
	cfg.LoadedFrom = sources

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(l.path)), ".")
	loader, ok := l.fileLoaders[ext]
	if !ok {
		return fmt.Errorf("unsupported config file format %q", l.path)
	}

	file, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := loader.Load(file, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", l.path, err)
	}
	return nil
}

func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	// NODE_ENV is honoured so existing deployment manifests keep working.
	if val, ok := l.env("NODE_ENV"); ok {
		cfg.Environment = Environment(val)
	}
	if val, ok := l.env("ENVIRONMENT"); ok {
		cfg.Environment = Environment(val)
	}

	// Server
	if val, ok := l.env("PORT"); ok {
		if port := parseInt(val); port > 0 {
			cfg.Server.Port = port
		}
	}
	if val, ok := l.env("HOST"); ok {
		cfg.Server.Host = val
	}

	// Database
	if val, ok := l.env("DATABASE_DRIVER"); ok {
		cfg.Database.Driver = strings.ToLower(val)
	}
	if val, ok := l.env("DATABASE_URL"); ok {
		cfg.Database.URL = val
		// A postgres URL without an explicit driver selects the postgres store.
		if _, explicit := l.env("DATABASE_DRIVER"); !explicit && isPostgresURL(val) {
			cfg.Database.Driver = DriverPostgres
		}
	}
	if val, ok := l.env("SQLITE_PATH"); ok {
		cfg.Database.Path = val
	}
	if val, ok := l.env("TABLE_NAME"); ok {
		cfg.Database.TableName = val
	}
	if val, ok := l.env("AWS_REGION"); ok {
		cfg.Database.Region = val
	}
	if val, ok := l.env("DYNAMODB_ENDPOINT"); ok {
		cfg.Database.Endpoint = val
	}
	if val, ok := l.env("AUTO_MIGRATE"); ok {
		cfg.Database.AutoMigrate = parseBool(val)
	}

	// Tracing
	if val, ok := l.env("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		cfg.Tracing.Endpoint = stripScheme(val)
		cfg.Tracing.Enabled = true
	}
	if val, ok := l.env("OTEL_SERVICE_NAME"); ok {
		cfg.Tracing.ServiceName = val
	}
	if val, ok := l.env("TRACING_ENABLED"); ok {
		cfg.Tracing.Enabled = parseBool(val)
	}

	// Logging
	if val, ok := l.env("LOG_LEVEL"); ok {
		cfg.Logging.Level = strings.ToLower(val)
	}

	// Events
	if val, ok := l.env("EVENT_BUS_NAME"); ok {
		cfg.Events.EventBusName = val
	}

	// CORS
	if val, ok := l.env("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = splitList(val)
	}

	// Circuit breaker
	if val, ok := l.env("CIRCUIT_BREAKER_ENABLED"); ok {
		cfg.CircuitBreaker.Enabled = parseBool(val)
	}
	if val, ok := l.env("DB_MAX_RETRIES"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Retry.MaxRetries = n
		}
	}
}

func (l *Loader) env(key string) (string, bool) {
	val, ok := l.lookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}
	return strings.TrimSpace(val), true
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	err := yaml.NewDecoder(reader).Decode(target)
	if err == io.EOF {
		return nil
	}
	return err
}

func (y *YAMLLoader) Extensions() []string {
	return []string{"yaml", "yml"}
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extensions() []string {
	return []string{"json"}
}

func parseInt(s string) int {
	val, _ := strconv.Atoi(s)
	return val
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stripScheme(endpoint string) string {
	for _, prefix := range []string{"http://", "https://", "grpc://"} {
		endpoint = strings.TrimPrefix(endpoint, prefix)
	}
	return endpoint
}

func isPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// Load reads configuration from CONFIG_FILE (if set) and the process environment.
func Load() (*Config, error) {
	return NewLoader(os.Getenv("CONFIG_FILE")).Load()
}

// MustLoad loads configuration and panics on error.
// Use this only in main() or init() functions.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
