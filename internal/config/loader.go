package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader layers configuration sources. From lowest to highest priority:
//  1. defaults
//  2. <dir>/base.{yaml,json}
//  3. <dir>/<environment>.{yaml,json}
//  4. <dir>/local.{yaml,json}, development only
//  5. environment variables
type Loader struct {
	basePath    string
	environment Environment
	sources     []string
	fileLoaders map[string]FileLoader
	getenv      func(string) string
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a loader reading files from basePath.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}

	loader := &Loader{
		basePath:    basePath,
		environment: env,
		fileLoaders: make(map[string]FileLoader),
		getenv:      os.Getenv,
	}
	loader.RegisterLoader(&YAMLLoader{})
	loader.RegisterLoader(&JSONLoader{})
	return loader
}

// RegisterLoader registers a new file loader for a specific format.
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders[loader.Extension()] = loader
}

// Load builds and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	l.sources = l.sources[:0]

	cfg := l.defaultConfig()
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load local config: %v\n", err)
		}
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	l.sources = append(l.sources, "environment")
	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile applies the first <name>.<ext> found, trying extensions in
// sorted order.
func (l *Loader) loadFile(name string, cfg *Config) error {
	exts := make([]string, 0, len(l.fileLoaders))
	for ext := range l.fileLoaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	for _, ext := range exts {
		path := filepath.Join(l.basePath, fmt.Sprintf("%s.%s", name, ext))

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		err = l.fileLoaders[ext].Load(file, cfg)
		file.Close()
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}
	return os.ErrNotExist
}

// loadEnvironmentVariables applies overrides. A numeric or boolean variable
// that does not parse fails the load instead of falling back to zero.
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	if val := l.getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if err := l.envInt("SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}

	if val := l.getenv("NEO4J_URI"); val != "" {
		cfg.Neo4j.URI = val
	}
	if val := l.getenv("NEO4J_USER"); val != "" {
		cfg.Neo4j.User = val
	}
	if val := l.getenv("NEO4J_PASSWORD"); val != "" {
		cfg.Neo4j.Password = val
	}
	if val := l.getenv("NEO4J_DATABASE"); val != "" {
		cfg.Neo4j.Database = val
	}

	if val := l.getenv("API_CORS_ORIGINS"); val != "" {
		cfg.CORS.AllowedOrigins = splitList(val)
	}
	if val := l.getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}

	if err := l.envInt("TREE_MAX_DEPTH", &cfg.Graph.TreeMaxDepth); err != nil {
		return err
	}
	if val := l.getenv("TREE_TRAVERSAL"); val != "" {
		cfg.Graph.TreeTraversal = strings.ToLower(val)
	}

	for name, target := range map[string]*bool{
		"ENABLE_METRICS":         &cfg.Metrics.Enabled,
		"ENABLE_TRACING":         &cfg.Tracing.Enabled,
		"ENABLE_CIRCUIT_BREAKER": &cfg.CircuitBreaker.Enabled,
	} {
		if err := l.envBool(name, target); err != nil {
			return err
		}
	}
	if val := l.getenv("OTLP_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}
	return nil
}

func (l *Loader) envInt(name string, target *int) error {
	val := strings.TrimSpace(l.getenv(name))
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer: %w", name, val, err)
	}
	*target = n
	return nil
}

func (l *Loader) envBool(name string, target *bool) error {
	val := strings.TrimSpace(l.getenv(name))
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("%s: %q is not a boolean: %w", name, val, err)
	}
	*target = b
	return nil
}

func (l *Loader) defaultConfig() *Config {
	return &Config{
		Environment: l.environment,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Neo4j: Neo4j{
			URI:                "neo4j://localhost:7687",
			User:               "neo4j",
			Database:           "neo4j",
			MaxPoolSize:        50,
			AcquireTimeout:     30 * time.Second,
			TransactionTimeout: 15 * time.Second,
		},
		Graph: Graph{
			TreeMaxDepth:  5,
			TreeTraversal: TraversalCypher,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		CORS: CORS{
			AllowedOrigins: []string{"http://localhost:5173"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "devaccountbook",
			Path:      "/metrics",
		},
		Tracing: Tracing{
			ServiceName: "devaccountbook-backend",
			SampleRate:  0.1,
		},
		CircuitBreaker: CircuitBreaker{
			MaxRequests:      3,
			Interval:         30 * time.Second,
			Timeout:          15 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
	}
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnvironment reads ENVIRONMENT, defaulting to development.
func GetEnvironment() Environment {
	switch env := Environment(strings.ToLower(os.Getenv("ENVIRONMENT"))); env {
	case Staging, Production, Test:
		return env
	default:
		return Development
	}
}

// ConfigDir is where configuration files are read from.
func ConfigDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}

// Load reads the configuration for the current environment.
func Load() (*Config, error) {
	return NewLoader(ConfigDir(), GetEnvironment()).Load()
}
