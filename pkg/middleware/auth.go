package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"carpool-api/internal/data/entity"
	"carpool-api/pkg/token"
	"carpool-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenValidator parses a bearer token into its claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// SessionFinder reports the live session for a token id, or nil when it was
// revoked or has expired.
type SessionFinder interface {
	FindValid(ctx context.Context, tokenID uuid.UUID) (*entity.Session, error)
}

// Auth validates the bearer JWT and its backing session, then stores the
// caller's id, role and token id in the request context.
func Auth(tokens TokenValidator, sessions SessionFinder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, raw, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := tokens.Validate(strings.TrimSpace(raw))
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}
			tokenID, err := claims.TokenID()
			if err != nil {
				logger.Warn("Token carries no valid id", zap.Error(err))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			session, err := sessions.FindValid(r.Context(), tokenID)
			if err != nil {
				logger.Error("Failed to validate session",
					zap.String("token_id", tokenID.String()),
					zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if session == nil || session.UserID != claims.UserID {
				logger.Warn("Revoked or unknown session", zap.String("token_id", tokenID.String()))
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Role)
			ctx = utils.SetTokenIDContext(ctx, tokenID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through only callers whose role is one of roles.
func RequireRole(logger *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := utils.GetRoleFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if !slices.Contains(roles, entity.UserRole(role)) {
				userID, _ := utils.GetUserIDFromContext(r.Context())
				logger.Warn("Role check failed",
					zap.String("user_id", userID.String()),
					zap.String("role", role),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Insufficient role for this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
