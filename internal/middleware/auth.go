package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/treasury/internal/auth"
	"github.com/mmynk/treasury/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// CallerKey is the context key for storing the authenticated wallet address.
const CallerKey contextKey = "caller"

// WithCaller returns a copy of ctx carrying the caller's address.
func WithCaller(ctx context.Context, caller models.Address) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// GetCaller extracts the authenticated wallet address from the context.
// Returns false if the request carried no valid token.
func GetCaller(ctx context.Context) (models.Address, bool) {
	caller, ok := ctx.Value(CallerKey).(models.Address)
	return caller, ok && !caller.IsZero()
}

// bearerToken returns the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the caller's address to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithCaller(ctx, claims.Address), req)
		}
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication. Read-only treasury queries are public.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Invalid tokens are ignored here; restricted handlers reject the
				// anonymous request themselves.
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithCaller(ctx, claims.Address)
				}
			}
			return next(ctx, req)
		}
	}
}

// Authenticate applies RequireAuth to the restricted procedures and
// OptionalAuth to everything else, so a bad token on a mutating call is
// refused before the handler runs.
func Authenticate(jwtManager *auth.JWTManager, restricted ...string) connect.UnaryInterceptorFunc {
	required := make(map[string]bool, len(restricted))
	for _, p := range restricted {
		required[p] = true
	}
	requireAuth := RequireAuth(jwtManager)
	optionalAuth := OptionalAuth(jwtManager)

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		strict, lenient := requireAuth(next), optionalAuth(next)
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if required[req.Spec().Procedure] {
				return strict(ctx, req)
			}
			return lenient(ctx, req)
		}
	}
}
