// Package config loads runtime configuration for the todo API and its clients.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment is the deployment environment name.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Database drivers understood by persistence.NewRepository.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
)

// Config is the full application configuration.
type Config struct {
	Environment    Environment    `yaml:"environment" validate:"required,oneof=development test staging production"`
	Server         Server         `yaml:"server"`
	Database       Database       `yaml:"database"`
	Tracing        Tracing        `yaml:"tracing"`
	Metrics        Metrics        `yaml:"metrics"`
	Logging        Logging        `yaml:"logging"`
	Events         Events         `yaml:"events"`
	CORS           CORS           `yaml:"cors"`
	CircuitBreaker CircuitBreaker `yaml:"circuit_breaker"`
	Retry          Retry          `yaml:"retry"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-"`
}

type Server struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// Addr returns host:port for net/http.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Database struct {
	Driver      string `yaml:"driver" validate:"required,oneof=memory postgres sqlite dynamodb"`
	URL         string `yaml:"url" validate:"required_if=Driver postgres"`
	Path        string `yaml:"path" validate:"required_if=Driver sqlite"`
	TableName   string `yaml:"table_name" validate:"required"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	AutoMigrate bool   `yaml:"auto_migrate"`
	MaxConns    int32  `yaml:"max_conns" validate:"min=0"`
}

type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name" validate:"required"`
	SampleRate  float64 `yaml:"sample_rate" validate:"min=0,max=1"`
	Insecure    bool    `yaml:"insecure"`
}

type Metrics struct {
	Namespace string `yaml:"namespace" validate:"required"`
	Path      string `yaml:"path" validate:"required,startswith=/"`
}

type Logging struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type Events struct {
	// EventBusName enables forwarding of tracked client events when set.
	EventBusName string `yaml:"event_bus_name"`
	Source       string `yaml:"source"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	MaxAge         int      `yaml:"max_age"`
}

type CircuitBreaker struct {
	Enabled         bool          `yaml:"enabled"`
	MaxRequests     uint32        `yaml:"max_requests"`
	Interval        time.Duration `yaml:"interval"`
	Timeout         time.Duration `yaml:"timeout"`
	FailureRatio    float64       `yaml:"failure_ratio" validate:"min=0,max=1"`
	MinimumRequests uint32        `yaml:"minimum_requests"`
}

// Retry bounds re-attempts of idempotent reads against the database.
type Retry struct {
	MaxRetries    int           `yaml:"max_retries" validate:"min=0,max=10"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" validate:"min=1"`
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Database.Driver == DriverDynamoDB && c.Database.Region == "" {
		return fmt.Errorf("invalid configuration: database.region is required for dynamodb")
	}
	return nil
}

// Default returns the configuration used when no file or environment is present.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            4003,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Database: Database{
			Driver:      DriverMemory,
			Path:        "todos.db",
			TableName:   "todos",
			Region:      "us-east-1",
			AutoMigrate: true,
			MaxConns:    10,
		},
		Tracing: Tracing{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "cursor-todo-api",
			SampleRate:  1.0,
			Insecure:    true,
		},
		Metrics: Metrics{
			Namespace: "api",
			Path:      "/metrics",
		},
		Logging: Logging{
			Level: "info",
		},
		Events: Events{
			Source: "cursor-todo.web",
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			MaxAge:         300,
		},
		CircuitBreaker: CircuitBreaker{
			Enabled:         false,
			MaxRequests:     3,
			Interval:        10 * time.Second,
			Timeout:         30 * time.Second,
			FailureRatio:    0.6,
			MinimumRequests: 5,
		},
		Retry: Retry{
			MaxRetries:    2,
			InitialDelay:  50 * time.Millisecond,
			MaxDelay:      time.Second,
			BackoffFactor: 2,
		},
	}
}

// applyEnvironmentDefaults adjusts values that depend on the environment.
func (c *Config) applyEnvironmentDefaults() {
	c.Environment = Environment(strings.ToLower(string(c.Environment)))
	switch c.Environment {
	case Production:
		if c.Tracing.SampleRate == 1.0 {
			c.Tracing.SampleRate = 0.1
		}
	case Test:
		c.Logging.Level = "error"
	}
}
