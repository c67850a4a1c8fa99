package auth

import "context"

type contextKey string

const claimsKey contextKey = "staffClaims"

// WithClaims stores verified claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// FromContext returns the verified claims if the request passed the auth
// middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
