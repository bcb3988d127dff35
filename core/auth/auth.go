// Package auth exposes the identity of the user on whose behalf a request runs.
package auth

import "context"

type ctxKey int

const userIDKey ctxKey = iota

// Provider supplies the current user. No user is a valid answer (guest mode), not an error.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// ContextProvider reads the user set by WithUserID.
type ContextProvider struct{}

func (ContextProvider) CurrentUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// Anonymous never has a user; everything runs in local-only mode.
type Anonymous struct{}

func (Anonymous) CurrentUserID(context.Context) (string, bool) { return "", false }
