package middleware

import (
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

// AdminOnly rejects requests without a valid admin token and stores the
// admin identity in the request context.
func AdminOnly(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				utils.WriteJSONError(w, "missing token", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Info("admin token rejected", zap.Error(err))
				utils.WriteJSONError(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if claims.Role != auth.RoleAdmin {
				utils.WriteJSONError(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := utils.SetAdminContext(r.Context(), claims.Email)
			ctx = logger.WithFields(ctx, zap.String("admin", claims.Email))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
