package variables

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/swisspipe/swisspipe/metrics"
)

// payloadPrefix versions the sealed format so the scheme can evolve without
// breaking stored values.
const payloadPrefix = "enc:v1:"

const (
	nonceSize     = 12
	masterKeySize = 32
)

// EncryptionService seals and unseals secret variable values with
// AES-256-GCM. Payloads are self-describing: enc:v1:<keyID>:<base64(nonce||ciphertext)>,
// so unsealing needs nothing beyond the keyring.
//
// The GCM key is not the master key itself: it is derived per key context
// (the variable's scope) with HKDF-SHA256, so a payload sealed under one
// workflow will not unseal under another even with the same master key.
type EncryptionService struct {
	keys        map[string][]byte
	activeKeyID string
}

// NewEncryptionService builds a service over the given keyring. New seals use
// activeKeyID; any key in the ring can unseal.
func NewEncryptionService(keys map[string][]byte, activeKeyID string) (*EncryptionService, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("encryption keyring is empty")
	}

	for id, key := range keys {
		if len(key) != masterKeySize {
			return nil, fmt.Errorf("encryption key %q must be %d bytes, got %d", id, masterKeySize, len(key))
		}
		if strings.Contains(id, ":") {
			return nil, fmt.Errorf("encryption key id %q must not contain ':'", id)
		}
	}

	if _, ok := keys[activeKeyID]; !ok {
		return nil, NewKeyNotFoundError(activeKeyID)
	}

	return &EncryptionService{keys: keys, activeKeyID: activeKeyID}, nil
}

// Seal encrypts plaintext for the given key context and returns the
// self-describing payload string.
func (s *EncryptionService) Seal(plaintext string, keyContext string) (string, error) {
	gcm, err := s.cipherFor(s.activeKeyID, keyContext)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cannot generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	metrics.IncSeal()
	return payloadPrefix + s.activeKeyID + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Unseal decrypts a payload produced by Seal. Tampered ciphertext or a wrong
// key context fails with a DecryptionError; an unknown key id fails with
// KeyNotFound.
func (s *EncryptionService) Unseal(payload string, keyContext string) (string, error) {
	keyID, combined, err := parsePayload(payload)
	if err != nil {
		metrics.IncUnsealFailure()
		return "", err
	}

	gcm, err := s.cipherFor(keyID, keyContext)
	if err != nil {
		metrics.IncUnsealFailure()
		return "", err
	}

	nonce, ciphertext := combined[:nonceSize], combined[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		metrics.IncUnsealFailure()
		return "", NewDecryptionError(err.Error())
	}

	metrics.IncUnseal()
	return string(plaintext), nil
}

// IsSealed reports whether value carries the sealed payload marker.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, payloadPrefix)
}

func (s *EncryptionService) cipherFor(keyID string, keyContext string) (cipher.AEAD, error) {
	master, ok := s.keys[keyID]
	if !ok {
		return nil, NewKeyNotFoundError(keyID)
	}

	derived := make([]byte, masterKeySize)
	kdf := hkdf.New(sha256.New, master, nil, []byte("swisspipe/variables/"+keyContext))
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

func parsePayload(payload string) (keyID string, combined []byte, err error) {
	if !IsSealed(payload) {
		return "", nil, NewDecryptionError("value is not a sealed payload")
	}

	rest := payload[len(payloadPrefix):]
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", nil, NewDecryptionError("malformed payload")
	}

	combined, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, NewDecryptionError("payload is not valid base64")
	}
	if len(combined) < nonceSize+1 {
		return "", nil, NewDecryptionError("payload too short")
	}

	return parts[0], combined, nil
}

// GenerateKey returns a fresh random master key as 64 hex chars, suitable for
// SP_ENCRYPTION_KEY or the config keyring.
func GenerateKey() (string, error) {
	key := make([]byte, masterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
