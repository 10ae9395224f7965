package auth

import (
	"context"
)

// Context keys for authentication data
type contextKey string

// ContextKeyClaims is the context key for the validated operator claims
const ContextKeyClaims contextKey = "operator_claims"

// WithClaims adds the operator claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

// ClaimsFromContext retrieves the operator claims from the context
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*Claims)
	return claims, ok && claims != nil
}
