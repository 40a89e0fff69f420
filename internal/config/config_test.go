package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func newTestLoader(dir string, env Environment, vars map[string]string) *Loader {
	l := NewLoader(dir, env)
	l.getenv = func(key string) string { return vars[key] }
	return l
}

func TestLoader_Defaults(t *testing.T) {
	cfg, err := newTestLoader(t.TempDir(), Development, nil).Load()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Graph.TreeMaxDepth)
	assert.Equal(t, TraversalCypher, cfg.Graph.TreeTraversal)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

func TestLoader_FileLayers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: 9000
  read_timeout: 5s
graph:
  tree_max_depth: 3
`)
	writeFile(t, dir, "staging.yaml", `
graph:
  tree_traversal: apoc
neo4j:
  uri: neo4j://graph.staging:7687
`)
	writeFile(t, dir, "local.json", `{"server": {"port": 1}}`)

	cfg, err := newTestLoader(dir, Staging, nil).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port, "local overrides apply in development only")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 3, cfg.Graph.TreeMaxDepth)
	assert.Equal(t, TraversalAPOC, cfg.Graph.TreeTraversal)
	assert.Equal(t, "neo4j://graph.staging:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.User, "untouched defaults survive")
	assert.Len(t, cfg.LoadedFrom, 4)
}

func TestLoader_EnvironmentVariablesWin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: 9000\n")

	cfg, err := newTestLoader(dir, Development, map[string]string{
		"SERVER_PORT":            "7000",
		"NEO4J_URI":              "bolt://db:7687",
		"NEO4J_PASSWORD":         "secret",
		"API_CORS_ORIGINS":       "http://a.test, http://b.test,",
		"LOG_LEVEL":              "DEBUG",
		"TREE_MAX_DEPTH":         "8",
		"TREE_TRAVERSAL":         "APOC",
		"ENABLE_TRACING":         "true",
		"OTLP_ENDPOINT":          "collector:4317",
		"ENABLE_CIRCUIT_BREAKER": "1",
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "bolt://db:7687", cfg.Neo4j.URI)
	assert.Equal(t, "secret", cfg.Neo4j.Password)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Graph.TreeMaxDepth)
	assert.Equal(t, TraversalAPOC, cfg.Graph.TreeTraversal)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "collector:4317", cfg.Tracing.Endpoint)
	assert.True(t, cfg.CircuitBreaker.Enabled)
}

func TestLoader_MalformedEnvironmentVariables(t *testing.T) {
	tests := map[string]string{
		"TREE_MAX_DEPTH": "abc",
		"SERVER_PORT":    "80a",
		"ENABLE_METRICS": "maybe",
	}

	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newTestLoader(t.TempDir(), Development, map[string]string{name: value}).Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
			assert.Contains(t, err.Error(), value)
		})
	}
}

func TestLoader_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server: [not, a, map")

	_, err := newTestLoader(dir, Development, nil).Load()
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		cfg, err := newTestLoader(t.TempDir(), Development, nil).Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "depth too deep", mutate: func(c *Config) { c.Graph.TreeMaxDepth = 11 }, errMsg: "tree max depth"},
		{name: "depth zero", mutate: func(c *Config) { c.Graph.TreeMaxDepth = 0 }, errMsg: "tree max depth"},
		{name: "unknown traversal", mutate: func(c *Config) { c.Graph.TreeTraversal = "bfs" }, errMsg: "traversal"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, errMsg: "port"},
		{name: "missing uri", mutate: func(c *Config) { c.Neo4j.URI = "" }, errMsg: "neo4j uri"},
		{name: "production needs password", mutate: func(c *Config) { c.Environment = Production }, errMsg: "password"},
		{name: "tracing needs endpoint", mutate: func(c *Config) { c.Tracing.Enabled = true }, errMsg: "tracing endpoint"},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, errMsg: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfigWatcher_Reload(t *testing.T) {
	initial := &Config{Environment: Production, Logging: Logging{Level: "info"}}
	next := &Config{Environment: Production, Logging: Logging{Level: "debug"}}

	loads := 0
	w, err := NewConfigWatcher(initial, t.TempDir(), func() (*Config, error) {
		loads++
		return next, nil
	}, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	var seen []string
	w.OnChange(func(c *Config) { seen = append(seen, c.Logging.Level) })
	w.OnChange(func(*Config) { panic("bad callback") })

	w.reload()
	w.reload()

	assert.Equal(t, 2, loads)
	assert.Equal(t, []string{"debug"}, seen, "second reload is a no-op")
	assert.Same(t, next, w.GetConfig())
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "PRODUCTION")
	assert.Equal(t, Production, GetEnvironment())

	t.Setenv("ENVIRONMENT", "")
	assert.Equal(t, Development, GetEnvironment())
}
