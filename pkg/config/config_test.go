package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 100, cfg.Engine.MaxRecursionDepth)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("YGGDRASIL_MAX_RECURSION_DEPTH", "42")
	t.Setenv("YGGDRASIL_COLLATION_LOCALE", "nb")
	t.Setenv("YGGDRASIL_SCHEMA_FILE", "/etc/ygg/schema.yaml")
	t.Setenv("YGGDRASIL_GRAPH_FILE", "/var/ygg/graph.json")

	cfg := LoadFromEnv()
	assert.Equal(t, 42, cfg.Engine.MaxRecursionDepth)
	assert.Equal(t, "nb", cfg.Engine.CollationLocale)
	assert.Equal(t, "/etc/ygg/schema.yaml", cfg.Paths.SchemaFile)
	assert.Equal(t, "/var/ygg/graph.json", cfg.Paths.GraphFile)
}

func TestLoadFromEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("YGGDRASIL_MAX_RECURSION_DEPTH", "not-a-number")
	cfg := LoadFromEnv()
	assert.Equal(t, 100, cfg.Engine.MaxRecursionDepth)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  maxRecursionDepth: 25
  collationLocale: en
paths:
  graphFile: graph.json
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Engine.MaxRecursionDepth)
	assert.Equal(t, "en", cfg.Engine.CollationLocale)
	assert.Equal(t, "graph.json", cfg.Paths.GraphFile)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadDepth(t *testing.T) {
	cfg := Default()
	cfg.Engine.MaxRecursionDepth = 0
	assert.Error(t, cfg.Validate())
}
