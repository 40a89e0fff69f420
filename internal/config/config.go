// Package config loads the service configuration from defaults, YAML or
// JSON files and environment variables, and hot reloads it in development.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment is the deployment stage.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Traversal modes for tree building.
const (
	TraversalCypher = "cypher"
	TraversalAPOC   = "apoc"
)

// Config is the complete service configuration.
type Config struct {
	Environment    Environment    `yaml:"environment" json:"environment"`
	Server         Server         `yaml:"server" json:"server"`
	Neo4j          Neo4j          `yaml:"neo4j" json:"neo4j"`
	Graph          Graph          `yaml:"graph" json:"graph"`
	Logging        Logging        `yaml:"logging" json:"logging"`
	CORS           CORS           `yaml:"cors" json:"cors"`
	Metrics        Metrics        `yaml:"metrics" json:"metrics"`
	Tracing        Tracing        `yaml:"tracing" json:"tracing"`
	CircuitBreaker CircuitBreaker `yaml:"circuit_breaker" json:"circuit_breaker"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-" json:"-"`
}

// Server holds HTTP listener settings.
type Server struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// Address returns host:port.
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Neo4j holds database connection settings.
type Neo4j struct {
	URI                string        `yaml:"uri" json:"uri"`
	User               string        `yaml:"user" json:"user"`
	Password           string        `yaml:"password" json:"password"`
	Database           string        `yaml:"database" json:"database"`
	MaxPoolSize        int           `yaml:"max_pool_size" json:"max_pool_size"`
	AcquireTimeout     time.Duration `yaml:"acquire_timeout" json:"acquire_timeout"`
	TransactionTimeout time.Duration `yaml:"transaction_timeout" json:"transaction_timeout"`
}

// Graph holds tree traversal settings.
type Graph struct {
	TreeMaxDepth  int    `yaml:"tree_max_depth" json:"tree_max_depth"`
	TreeTraversal string `yaml:"tree_traversal" json:"tree_traversal"`
}

// Logging holds logger settings.
type Logging struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// CORS holds cross-origin settings.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

// Metrics holds Prometheus settings.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Path      string `yaml:"path" json:"path"`
}

// Tracing holds OpenTelemetry settings.
type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	ServiceName string  `yaml:"service_name" json:"service_name"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate"`
}

// CircuitBreaker holds database breaker settings.
type CircuitBreaker struct {
	Enabled          bool          `yaml:"enabled" json:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests" json:"max_requests"`
	Interval         time.Duration `yaml:"interval" json:"interval"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold" json:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests" json:"min_requests"`
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var problems []string

	switch c.Environment {
	case Development, Staging, Production, Test:
	default:
		problems = append(problems, fmt.Sprintf("unknown environment %q", c.Environment))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server port out of range: %d", c.Server.Port))
	}
	if c.Neo4j.URI == "" {
		problems = append(problems, "neo4j uri is required")
	}
	if c.Environment == Production && c.Neo4j.Password == "" {
		problems = append(problems, "neo4j password is required in production")
	}
	if c.Graph.TreeMaxDepth < 1 || c.Graph.TreeMaxDepth > 10 {
		problems = append(problems, fmt.Sprintf("tree max depth must be between 1 and 10, got %d", c.Graph.TreeMaxDepth))
	}
	if c.Graph.TreeTraversal != TraversalCypher && c.Graph.TreeTraversal != TraversalAPOC {
		problems = append(problems, fmt.Sprintf("unknown tree traversal %q", c.Graph.TreeTraversal))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		problems = append(problems, "tracing endpoint is required when tracing is enabled")
	}
	if c.CircuitBreaker.Enabled && (c.CircuitBreaker.FailureThreshold <= 0 || c.CircuitBreaker.FailureThreshold > 1) {
		problems = append(problems, "circuit breaker failure threshold must be in (0, 1]")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}
