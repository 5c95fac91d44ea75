package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "swisspipe.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("SP_JWT_SECRET", "jwt-from-env")
	t.Setenv("SP_ENCRYPTION_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := NewConfig("")
	assert.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HttpBindAddress)
	assert.Equal(t, []byte("jwt-from-env"), cfg.JwtSecret)
	assert.Equal(t, DefaultKeyID, cfg.ActiveKeyID)
	assert.True(t, cfg.UsingDevelopmentKey)
	assert.Len(t, cfg.EncryptionKeys[DefaultKeyID], 32)

	assert.Equal(t, "https://api.anthropic.com", cfg.AI.Endpoint)
	assert.Equal(t, 4096, cfg.AI.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "2023-06-01", cfg.AI.AnthropicVersion)

	assert.EqualValues(t, 50, cfg.MaxVersionsPerWorkflow)
}

func TestNewConfigRequiresJwtSecret(t *testing.T) {
	t.Setenv("SP_JWT_SECRET", "")

	_, err := NewConfig("")
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestEncryptionKeyFromEnv(t *testing.T) {
	t.Setenv("SP_JWT_SECRET", "s")
	t.Setenv("SP_ENCRYPTION_KEY", "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")

	cfg, err := NewConfig("")
	assert.NoError(t, err)
	assert.False(t, cfg.UsingDevelopmentKey)
	assert.Equal(t, byte(0x1f), cfg.EncryptionKeys[DefaultKeyID][31])
}

func TestEncryptionKeyRejectsBadHex(t *testing.T) {
	t.Setenv("SP_JWT_SECRET", "s")
	t.Setenv("SP_ENCRYPTION_KEY", "not-hex")

	_, err := NewConfig("")
	assert.ErrorContains(t, err, "SP_ENCRYPTION_KEY")
}

func TestEncryptionKeyRejectsWrongLength(t *testing.T) {
	t.Setenv("SP_JWT_SECRET", "s")
	t.Setenv("SP_ENCRYPTION_KEY", "abcd")

	_, err := NewConfig("")
	assert.ErrorContains(t, err, "32 bytes")
}

func TestConfigFileParsing(t *testing.T) {
	t.Setenv("SP_JWT_SECRET", "")
	t.Setenv("SP_ENCRYPTION_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	path := writeConfigFile(t, `
environment: production
http_bind_address: "127.0.0.1:9090"
db_path: /var/lib/swisspipe
jwt_secret: file-secret

encryption:
  active_key_id: k2
  keys:
    k1: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
    k2: "1f1e1d1c1b1a191817161514131211100f0e0d0c0b0a09080706050403020100"

macro_vars:
  REGION: eu-west-1

ai:
  api_key: config-ai-key
  max_tokens: 2048
  timeout_seconds: 30

retention:
  max_versions_per_workflow: 10
  sweep_interval_minutes: 5
`)

	cfg, err := NewConfig(path)
	assert.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.HttpBindAddress)
	assert.Equal(t, "/var/lib/swisspipe", cfg.DbPath)
	assert.Equal(t, []byte("file-secret"), cfg.JwtSecret)

	assert.Equal(t, "k2", cfg.ActiveKeyID)
	assert.Len(t, cfg.EncryptionKeys, 2)
	assert.False(t, cfg.UsingDevelopmentKey)

	assert.Equal(t, "eu-west-1", cfg.MacroVars["REGION"])

	assert.Equal(t, "config-ai-key", cfg.AI.APIKey)
	assert.Equal(t, 2048, cfg.AI.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)

	assert.EqualValues(t, 10, cfg.MaxVersionsPerWorkflow)
	assert.Equal(t, 5*time.Minute, cfg.RetentionSweepInterval)
}

func TestActiveKeyMustBeInRing(t *testing.T) {
	t.Setenv("SP_JWT_SECRET", "s")
	t.Setenv("SP_ENCRYPTION_KEY", "")

	path := writeConfigFile(t, `
encryption:
  active_key_id: missing
  keys:
    k1: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
`)

	_, err := NewConfig(path)
	assert.ErrorContains(t, err, "not in the keyring")
}

func TestEnvOverridesAnthropicKey(t *testing.T) {
	t.Setenv("SP_JWT_SECRET", "s")
	t.Setenv("ANTHROPIC_API_KEY", "env-ai-key")

	path := writeConfigFile(t, `
ai:
  api_key: config-ai-key
`)

	cfg, err := NewConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "env-ai-key", cfg.AI.APIKey)
}
