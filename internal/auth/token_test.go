package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-key")

func TestIssueAndParseToken(t *testing.T) {
	raw, err := IssueToken(testSecret, "print-service", time.Hour)
	require.NoError(t, err)

	userID, err := ParseToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, "print-service", userID)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := IssueToken(testSecret, "u1", -time.Minute)
	require.NoError(t, err)

	otherKey, err := IssueToken([]byte("other"), "u1", time.Hour)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u1"}).SignedString(testSecret)
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong key":    otherKey,
		"missing exp":  noExp,
		"wrong alg":    wrongAlg,
		"missing user": noUser,
		"garbage":      "not.a.token",
		"empty":        "",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(testSecret, raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseToken_NumericUserID(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	userID, err := ParseToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, "42", userID)
}

func TestAPIKeys(t *testing.T) {
	hash, err := HashAPIKey("print-service-key-0001")
	require.NoError(t, err)

	assert.NoError(t, CheckAPIKey([]string{"junk", hash}, "print-service-key-0001"))
	assert.ErrorIs(t, CheckAPIKey([]string{hash}, "print-service-key-0002"), ErrInvalidKey)
	assert.ErrorIs(t, CheckAPIKey([]string{hash}, ""), ErrInvalidKey)

	_, err = HashAPIKey("short")
	assert.Error(t, err)
}
