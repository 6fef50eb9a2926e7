package middleware

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/stayledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// OperatorKey is the context key for storing the authenticated operator.
	OperatorKey contextKey = "operator"
	// RoleKey is the context key for storing the operator's role.
	RoleKey contextKey = "role"
)

var errForbidden = errors.New("procedure requires the admin role")

// GetOperator extracts the operator from the context.
// Returns empty string if not found.
func GetOperator(ctx context.Context) string {
	operator, _ := ctx.Value(OperatorKey).(string)
	return operator
}

// GetRole extracts the operator role from the context.
// Returns empty string if not found.
func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

// WithOperator returns ctx carrying the operator and role.
func WithOperator(ctx context.Context, operator, role string) context.Context {
	ctx = context.WithValue(ctx, OperatorKey, operator)
	return context.WithValue(ctx, RoleKey, role)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth returns a middleware that validates operator tokens and
// requires authentication. Procedures listed in adminOnly also require the
// admin role.
func RequireAuth(jwtManager *auth.JWTManager, adminOnly ...string) connect.UnaryInterceptorFunc {
	admin := make(map[string]bool, len(adminOnly))
	for _, p := range adminOnly {
		admin[p] = true
	}

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

			if admin[req.Spec().Procedure] && claims.Role != auth.RoleAdmin {
				return nil, connect.NewError(connect.CodePermissionDenied, errForbidden)
			}

			return next(WithOperator(ctx, claims.Operator, claims.Role), req)
		}
	}
}

// OptionalAuth returns a middleware that validates operator tokens if
// present, but allows requests without authentication. Used when the API
// runs without enforced auth so that logs still name the operator.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Validate token (ignore errors - optional auth)
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithOperator(ctx, claims.Operator, claims.Role)
				}
			}
			return next(ctx, req)
		}
	}
}
