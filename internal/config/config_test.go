package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads; t.Setenv restores them after
// the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CONFIG_PATH", "ENV", "STORAGE_BACKEND", "STORAGE_PATH", "CONFIRM_WORD"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "csv", cfg.Storage.Backend)
	assert.Equal(t, "dados_alunos.csv", cfg.Storage.Path)
	assert.Equal(t, "YES", cfg.ConfirmWord)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
env: prod
storage:
  backend: sqlite
  path: /var/lib/students/students.db
confirm_word: SIM
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/students/students.db", cfg.Storage.Path)
	assert.Equal(t, "SIM", cfg.ConfirmWord)
}

func TestLoadFromConfigPathEnvWithOverride(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "env: staging\nstorage:\n  path: from-file.csv\n")
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("STORAGE_PATH", "from-env.csv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "from-env.csv", cfg.Storage.Path)
	assert.Equal(t, "csv", cfg.Storage.Backend)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "does not exist")

	_, err = Load(writeConfig(t, "storage:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, "invalid config")

	_, err = Load(writeConfig(t, "env: [not, a, string\n"))
	assert.ErrorContains(t, err, "cannot read config")
}
