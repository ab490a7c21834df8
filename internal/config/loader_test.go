package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8080
  mode: "release"
database:
  host: "localhost"
  port: 5432
  user: "submap"
  password: "secret"
  db_name: "submap"
redis:
  addr: "localhost:6379"
kafka:
  brokers: ["localhost:9092"]
  group_id: "submap-workers"
vocabulary:
  source: "http"
  url: "https://example.org/substanz.csv"
matcher:
  threshold: 0.8
  only_first_match: false
  max_per_match_id: 2
log:
  level: "info"
  format: "json"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 0.8, cfg.Matcher.Threshold)
	assert.Equal(t, 2, cfg.Matcher.MaxPerMatchID)
	assert.Equal(t, "https://example.org/substanz.csv", cfg.Vocabulary.URL)
}

func TestLoad_DefaultsAppliedForUnsetFields(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	// Not present in the YAML; defaults kick in.
	assert.Equal(t, DefaultJoinDelimiter, cfg.Matcher.JoinDelimiter)
	assert.Equal(t, DefaultMatcherWorkers, cfg.Matcher.Workers)
	assert.Equal(t, DefaultVocabularyIDColumn, cfg.Vocabulary.IDColumn)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "matcher: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	invalid := `
server:
  port: 8080
  mode: "release"
matcher:
  threshold: 1.5
`
	path := createTempConfigFile(t, invalid)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv_DefaultsOnly(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultMatchThreshold, cfg.Matcher.Threshold)
}

func TestMustLoad_PanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() { MustLoad("does_not_exist.yaml") })
}

func TestMustLoad_ReturnsConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg := MustLoad(path)
	assert.NotNil(t, cfg)
}
