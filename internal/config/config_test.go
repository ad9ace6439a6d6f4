package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "openrouter", c.DefaultProvider)
	assert.Equal(t, "substring", c.MatchMode)
	assert.Equal(t, "first", c.TableMode)
	assert.Equal(t, 3, c.RetryMaxAttempts)
	assert.Zero(t, c.EnrichRPS)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_model: llama3:latest\ntable_mode: all\nmax_tokens: 900\n"), 0o600))
	t.Setenv("FINMODEL_MAX_TOKENS", "1234")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "llama3:latest", c.DefaultModel)
	assert.Equal(t, "all", c.TableMode)
	assert.Equal(t, 1234, c.MaxTokens, "env wins over file")
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("match_mode: fuzzy\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MatchMode must be one of: substring, word")
}

func TestSetValidates(t *testing.T) {
	c := &Global{DefaultProvider: "openrouter", MatchMode: "substring"}

	require.NoError(t, c.Set("default_provider", "Ollama"))
	assert.Equal(t, "ollama", c.DefaultProvider)
	require.NoError(t, c.Set("enrich_rps", "0.5"))
	assert.Equal(t, 0.5, c.EnrichRPS)

	assert.Error(t, c.Set("default_provider", "azure"))
	assert.Equal(t, "ollama", c.DefaultProvider, "failed set leaves config unchanged")
	assert.Error(t, c.Set("max_tokens", "lots"))
	assert.Error(t, c.Set("temperature", "3"))
	assert.Error(t, c.Set("table_mode", "some"))
	assert.Error(t, c.Set("ollama_host", "not a url"))
	assert.Error(t, c.Set("nope", "1"))
}

func TestGetRoundTrip(t *testing.T) {
	c := &Global{}
	for _, k := range Keys {
		_, err := c.Get(k)
		require.NoError(t, err, k)
	}
	require.NoError(t, c.Set("temperature", "0.3"))
	v, err := c.Get("temperature")
	require.NoError(t, err)
	assert.Equal(t, "0.3", v)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := &Global{APIKey: "sk-test", DefaultModel: "m", MatchMode: "word", TableMode: "all", MaxTokens: 10}
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", got.APIKey)
	assert.Equal(t, "word", got.MatchMode)
	assert.Equal(t, 10, got.MaxTokens)
}

func TestResolveAPIKey(t *testing.T) {
	c := &Global{APIKey: "from-config"}
	t.Setenv("OPENROUTER_API_KEY", "")
	assert.Equal(t, "from-config", c.ResolveAPIKey())
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	assert.Equal(t, "from-env", c.ResolveAPIKey())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINMODEL_TEST_DOTENV=hello\n"), 0o600))
	t.Setenv("FINMODEL_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("FINMODEL_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "absent.env")))
	assert.Equal(t, "hello", os.Getenv("FINMODEL_TEST_DOTENV"))
}
