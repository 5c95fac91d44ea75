package testutil

import (
	"encoding/hex"
	"os"
	"time"

	"github.com/swisspipe/swisspipe/core/config"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/pkg/logger"
	"github.com/swisspipe/swisspipe/storage"
)

// Deterministic 32-byte test key, never used outside tests
const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// Shortcut to initialize a storage at a temp path, panic if we cannot create db
func TestMustDB() storage.Storage {
	dir, err := os.MkdirTemp("", "sptest")
	if err != nil {
		panic(err)
	}

	db, err := storage.NewWithPath(dir)
	if err != nil {
		panic(err)
	}
	return db
}

func GetLogger() logger.Logger {
	return logger.NewNoOpLogger()
}

// TestEncryptionKeys returns a single-key keyring for tests.
func TestEncryptionKeys() map[string][]byte {
	key, err := hex.DecodeString(testKeyHex)
	if err != nil {
		panic(err)
	}
	return map[string][]byte{config.DefaultKeyID: key}
}

// GetTestConfig returns a config wired for tests: temp storage path, test
// keyring, short intervals, no-op logger.
func GetTestConfig() *config.Config {
	dir, err := os.MkdirTemp("", "spconfig")
	if err != nil {
		panic(err)
	}

	return &config.Config{
		Environment:            logger.Development,
		Logger:                 GetLogger(),
		HttpBindAddress:        "127.0.0.1:0",
		DbPath:                 dir,
		JwtSecret:              []byte("test-jwt-secret"),
		EncryptionKeys:         TestEncryptionKeys(),
		ActiveKeyID:            config.DefaultKeyID,
		MacroVars:              map[string]string{},
		MaxVersionsPerWorkflow: 50,
		RetentionSweepInterval: time.Hour,
	}
}

func TestUser1() *model.User {
	return &model.User{Sub: "tester@swisspipe.dev"}
}
