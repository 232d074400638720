package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv fills the secrets that have no defaults so validation can
// pass.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINERVA_NEO4J_PASSWORD", "secret")
	t.Setenv("MINERVA_ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("MINERVA_EMBEDDING_API_KEY", "emb-test")
	t.Setenv("MINERVA_VAULT_DIR", t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "minerva-pipeline", cfg.Temporal.TaskQueue)
	assert.Equal(t, "minerva-concepts", cfg.Temporal.ConceptTaskQueue)
	assert.Equal(t, 75, cfg.Extraction.FuzzyThreshold)
	assert.Equal(t, 30*time.Second, cfg.Extraction.PollInterval)
	assert.Equal(t, ":9464", cfg.MetricsAddr)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
temporal:
  host_port: temporal.internal:7233
  namespace: minerva
  task_queue: minerva-pipeline
  concept_task_queue: minerva-concepts
extraction:
  fuzzy_threshold: 85
  poll_interval: 15s
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "temporal.internal:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "minerva", cfg.Temporal.Namespace)
	assert.Equal(t, 85, cfg.Extraction.FuzzyThreshold)
	assert.Equal(t, 15*time.Second, cfg.Extraction.PollInterval)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MINERVA_TEMPORAL_HOST_PORT", "override:7233")
	t.Setenv("MINERVA_POLL_INTERVAL", "45s")
	t.Setenv("MINERVA_OTLP_ENDPOINT", "collector:4317")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "override:7233", cfg.Temporal.HostPort)
	assert.Equal(t, 45*time.Second, cfg.Extraction.PollInterval)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfig_RejectsShortPollInterval(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MINERVA_POLL_INTERVAL", "2s")

	_, err := LoadConfig("")
	assert.Error(t, err, "poll interval below 10s must fail validation")
}

func TestLoadConfig_MissingSecrets(t *testing.T) {
	t.Setenv("MINERVA_NEO4J_PASSWORD", "")
	t.Setenv("MINERVA_ANTHROPIC_API_KEY", "")
	t.Setenv("MINERVA_EMBEDDING_API_KEY", "")
	t.Setenv("MINERVA_VAULT_DIR", "")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	setRequiredEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
