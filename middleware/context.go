package middleware

import (
	"context"

	"github.com/google/uuid"
)

// Context key type to avoid collisions
type contextKey string

// AccountIDKey is the context key for the authenticated account id
const AccountIDKey contextKey = "account_id"

// GetAccountIDFromContext retrieves the authenticated account id from context
func GetAccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(AccountIDKey).(uuid.UUID)
	return id, ok
}

// WithAccountID adds the authenticated account id to the context
func WithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, AccountIDKey, id)
}
