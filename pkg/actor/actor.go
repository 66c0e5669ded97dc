// Package actor carries the identity that triggered a save cycle. The
// audit core never infers who acted; callers resolve the actor at their
// boundary (request context, bearer token) and pass it down.
package actor

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

var actorKey = contextKey{}

// WithActor stores the acting identity in context for downstream save calls.
func WithActor(ctx context.Context, actorID string) context.Context {
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey, actorID)
}

// FromContext extracts the acting identity from context if present.
func FromContext(ctx context.Context) string {
	actorID, ok := ctx.Value(actorKey).(string)
	if !ok {
		return ""
	}
	return actorID
}

// FromToken extracts the actor identity from a bearer token's subject
// claim, for callers that sit behind an HMAC-signed JWT boundary.
func FromToken(tokenString string, signingKey []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse actor token: %w", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject claim: %w", err)
	}
	if sub == "" {
		return "", errors.New("actor token has no subject")
	}
	return sub, nil
}
