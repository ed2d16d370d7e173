package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "http://localhost:5000", cfg.Extraction.BaseURL)
	assert.Zero(t, cfg.Extraction.Timeout)
	assert.Equal(t, "DEFAULT", cfg.Batch.DefaultCustomerCode)
	assert.True(t, cfg.Batch.SupportsDefaultCustomerBranch)
	assert.Equal(t, ScopeFullDirectory, cfg.Batch.UnassignedScopePolicy)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionIdle)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "po.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
extraction:
  base_url: http://extract:5000
  timeout: 45s
batch:
  unassigned_scope_policy: empty
  min_interval: 250ms
log:
  level: debug
`), 0o644))
	t.Setenv("EXTRACTION_BASE_URL", "http://override:9000/")
	t.Setenv("SUPPORTS_DEFAULT_CUSTOMER_BRANCH", "false")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")

	cfg, err := LoadConfigFile(path)

	require.NoError(t, err)
	assert.Equal(t, "http://override:9000/", cfg.Extraction.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, ScopeEmpty, cfg.Batch.UnassignedScopePolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.Batch.MinInterval)
	assert.False(t, cfg.Batch.SupportsDefaultCustomerBranch)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Minute, cfg.Server.SessionIdle)
	assert.Equal(t, "http://override:9000", TrimmedBaseURL(cfg.Extraction.BaseURL))
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.Directory.BaseURL = "localhost:5000"
	cfg.Batch.UnassignedScopePolicy = "anyone"
	cfg.Batch.MinInterval = -time.Second
	cfg.Server.SessionIdle = -time.Minute

	err := cfg.Validate()

	require.Error(t, err)
	assert.Equal(t, CodeConfig, CodeOf(err))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	msg := UserMessage(err)
	assert.Contains(t, msg, "directory.base_url")
	assert.Contains(t, msg, "batch.unassigned_scope_policy")
	assert.Contains(t, msg, "batch.min_interval")
	assert.Contains(t, msg, "server.session_idle")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	wrapped := WrapError(NewAppError(CodePrecondition, "Please select a customer", ErrNoCustomer), "submit")
	assert.Equal(t, "Please select a customer", UserMessage(wrapped))
	assert.Equal(t, CodePrecondition, CodeOf(wrapped))
	assert.ErrorIs(t, wrapped, ErrNoCustomer)
}
