package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/chainsafe/billing-bridge/pkg/app/errors"
	apphttp "github.com/chainsafe/billing-bridge/pkg/app/http"
)

// Middleware rejects requests without a valid operator bearer token and puts
// the claims on the request context. When the validator has no secret every
// request passes through unauthenticated.
func Middleware(v *JWTValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !v.IsConfigured() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(ErrMissingToken, "missing bearer token"))
				return
			}
			claims, err := v.ValidateToken(token)
			if err != nil {
				logger.Warn("Rejected operator token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
