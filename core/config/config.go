package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/swisspipe/swisspipe/pkg/logger"
)

const (
	// DefaultKeyID names the key created from SP_ENCRYPTION_KEY or the
	// built-in development key.
	DefaultKeyID = "default"

	// Built-in development key. Sealing with it is loudly warned about at
	// startup; it exists so a fresh checkout runs without any setup.
	devEncryptionKeyHex = "167a1d8d680d5021324256b7700feefb8a433abfc8805c04937a346dff67530f"
)

// Config is the parsed and validated runtime configuration shared by the
// server and CLI commands.
type Config struct {
	Environment logger.LogLevel
	Logger      logger.Logger

	HttpBindAddress string
	DbPath          string

	JwtSecret []byte

	// Encryption keyring: every known key by id, plus the id used for new seals
	EncryptionKeys    map[string][]byte
	ActiveKeyID       string
	UsingDevelopmentKey bool

	// MacroVars are static variables from the config file, merged below
	// stored variables during template resolution.
	MacroVars map[string]string

	AI AIConfig

	BackupEnabled  bool
	BackupDir      string
	BackupInterval time.Duration

	// Version history retention
	MaxVersionsPerWorkflow int64
	RetentionSweepInterval time.Duration
}

type AIConfig struct {
	Endpoint       string
	APIKey         string
	Model          string
	MaxTokens      int
	Temperature    float64
	Timeout        time.Duration
	RetryCount     int
	AnthropicVersion string
}

// ConfigRaw mirrors the yaml layout of the config file.
type ConfigRaw struct {
	Environment     string `yaml:"environment"`
	HttpBindAddress string `yaml:"http_bind_address"`
	DbPath          string `yaml:"db_path"`
	JwtSecret       string `yaml:"jwt_secret"`

	Encryption struct {
		ActiveKeyID string            `yaml:"active_key_id"`
		Keys        map[string]string `yaml:"keys"`
	} `yaml:"encryption"`

	MacroVars map[string]string `yaml:"macro_vars"`

	AI struct {
		Endpoint       string  `yaml:"endpoint"`
		APIKey         string  `yaml:"api_key"`
		Model          string  `yaml:"model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RetryCount     int     `yaml:"retry_count"`
	} `yaml:"ai"`

	Backup struct {
		Enabled         bool   `yaml:"enabled"`
		Dir             string `yaml:"dir"`
		IntervalMinutes int    `yaml:"interval_minutes"`
	} `yaml:"backup"`

	Retention struct {
		MaxVersionsPerWorkflow int64 `yaml:"max_versions_per_workflow"`
		SweepIntervalMinutes   int   `yaml:"sweep_interval_minutes"`
	} `yaml:"retention"`
}

// NewConfig parses the yaml config file, applies environment overrides and
// fills in defaults. The returned config carries a ready-to-use logger.
func NewConfig(configFilePath string) (*Config, error) {
	raw := ConfigRaw{}

	if configFilePath != "" {
		data, err := os.ReadFile(configFilePath)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", configFilePath, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("config file %s is not valid yaml: %w", configFilePath, err)
		}
	}

	env := logger.Development
	if raw.Environment == string(logger.Production) {
		env = logger.Production
	}

	l, err := logger.NewZapLogger(env)
	if err != nil {
		return nil, err
	}

	c := &Config{
		Environment:     env,
		Logger:          l,
		HttpBindAddress: withDefault(raw.HttpBindAddress, ":8080"),
		DbPath:          withDefault(raw.DbPath, "/tmp/swisspipe"),
		MacroVars:       raw.MacroVars,
	}

	if c.MacroVars == nil {
		c.MacroVars = map[string]string{}
	}

	jwtSecret := firstNonEmpty(os.Getenv("SP_JWT_SECRET"), raw.JwtSecret)
	if jwtSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required, set it in the config file or via SP_JWT_SECRET")
	}
	c.JwtSecret = []byte(jwtSecret)

	if err := c.loadEncryptionKeys(&raw); err != nil {
		return nil, err
	}

	c.AI = AIConfig{
		Endpoint:         withDefault(raw.AI.Endpoint, "https://api.anthropic.com"),
		APIKey:           firstNonEmpty(os.Getenv("ANTHROPIC_API_KEY"), raw.AI.APIKey),
		Model:            withDefault(raw.AI.Model, "claude-sonnet-4-20250514"),
		MaxTokens:        withDefaultInt(raw.AI.MaxTokens, 4096),
		Temperature:      raw.AI.Temperature,
		Timeout:          time.Duration(withDefaultInt(raw.AI.TimeoutSeconds, 60)) * time.Second,
		RetryCount:       withDefaultInt(raw.AI.RetryCount, 3),
		AnthropicVersion: "2023-06-01",
	}

	c.BackupEnabled = raw.Backup.Enabled
	c.BackupDir = withDefault(raw.Backup.Dir, "/tmp/swisspipe-backup")
	c.BackupInterval = time.Duration(withDefaultInt(raw.Backup.IntervalMinutes, 60)) * time.Minute

	c.MaxVersionsPerWorkflow = raw.Retention.MaxVersionsPerWorkflow
	if c.MaxVersionsPerWorkflow <= 0 {
		c.MaxVersionsPerWorkflow = 50
	}
	c.RetentionSweepInterval = time.Duration(withDefaultInt(raw.Retention.SweepIntervalMinutes, 60)) * time.Minute

	return c, nil
}

// loadEncryptionKeys builds the keyring. Precedence: config file keyring,
// then SP_ENCRYPTION_KEY, then the insecure development key.
func (c *Config) loadEncryptionKeys(raw *ConfigRaw) error {
	c.EncryptionKeys = map[string][]byte{}

	for id, keyHex := range raw.Encryption.Keys {
		key, err := parseKeyHex(keyHex)
		if err != nil {
			return fmt.Errorf("encryption key %q: %w", id, err)
		}
		c.EncryptionKeys[id] = key
	}

	if envKey := os.Getenv("SP_ENCRYPTION_KEY"); envKey != "" {
		key, err := parseKeyHex(envKey)
		if err != nil {
			return fmt.Errorf("SP_ENCRYPTION_KEY: %w", err)
		}
		c.EncryptionKeys[DefaultKeyID] = key
	}

	if len(c.EncryptionKeys) == 0 {
		key, _ := parseKeyHex(devEncryptionKeyHex)
		c.EncryptionKeys[DefaultKeyID] = key
		c.UsingDevelopmentKey = true
		c.Logger.Warn("SP_ENCRYPTION_KEY not set, using default key (NOT SECURE FOR PRODUCTION)")
		c.Logger.Warn("IMPORTANT: Set SP_ENCRYPTION_KEY in your environment for production use")
	}

	c.ActiveKeyID = raw.Encryption.ActiveKeyID
	if c.ActiveKeyID == "" {
		c.ActiveKeyID = DefaultKeyID
	}
	if _, ok := c.EncryptionKeys[c.ActiveKeyID]; !ok {
		return fmt.Errorf("active encryption key %q is not in the keyring", c.ActiveKeyID)
	}

	return nil
}

func parseKeyHex(keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func withDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
