package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testSecret = []byte("test-jwt-secret")

func TestCreateAndVerifyAPIKey(t *testing.T) {
	token, err := CreateAPIKey(testSecret, "alice@example.com", []ApiRole{AdminRole}, time.Hour)
	assert.NoError(t, err)

	user, err := VerifyToken(testSecret, token)
	assert.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Sub)
	assert.True(t, CanWrite(user))
}

func TestReadonlyRoleCannotWrite(t *testing.T) {
	token, err := CreateAPIKey(testSecret, "bob@example.com", []ApiRole{ReadonlyRole}, time.Hour)
	assert.NoError(t, err)

	user, err := VerifyToken(testSecret, token)
	assert.NoError(t, err)
	assert.False(t, CanWrite(user))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := CreateAPIKey(testSecret, "alice@example.com", []ApiRole{AdminRole}, time.Hour)
	assert.NoError(t, err)

	_, err = VerifyToken([]byte("other-secret"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := CreateAPIKey(testSecret, "alice@example.com", []ApiRole{AdminRole}, -time.Minute)
	assert.NoError(t, err)

	_, err = VerifyToken(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := VerifyToken(testSecret, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCreateAPIKeyValidation(t *testing.T) {
	_, err := CreateAPIKey(testSecret, "", []ApiRole{AdminRole}, time.Hour)
	assert.Error(t, err)

	_, err = CreateAPIKey(testSecret, "alice@example.com", nil, time.Hour)
	assert.Error(t, err)
}
