package actor

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FromContext(ctx))

	ctx = WithActor(ctx, "user-1")
	assert.Equal(t, "user-1", FromContext(ctx))
}

func TestWithActorIgnoresEmptyID(t *testing.T) {
	ctx := WithActor(context.Background(), "")
	assert.Empty(t, FromContext(ctx))
}

func signToken(t *testing.T, key []byte, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestFromTokenExtractsSubject(t *testing.T) {
	key := []byte("test-signing-key")
	token := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	actorID, err := FromToken(token, key)
	require.NoError(t, err)
	assert.Equal(t, "user-1", actorID)
}

func TestFromTokenRejectsBadSignature(t *testing.T) {
	token := signToken(t, []byte("key-a"), jwt.RegisteredClaims{Subject: "user-1"})

	_, err := FromToken(token, []byte("key-b"))
	assert.Error(t, err)
}

func TestFromTokenRejectsMissingSubject(t *testing.T) {
	key := []byte("test-signing-key")
	token := signToken(t, key, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := FromToken(token, key)
	assert.Error(t, err)
}
