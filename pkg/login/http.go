package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/billing-bridge/pkg/app/errors"
	apphttp "github.com/chainsafe/billing-bridge/pkg/app/http"
	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

// Service authenticates a sign-in
type Service interface {
	Authenticate(ctx context.Context, email, password string) (*bridge.LocalUser, error)
}

// Request is the login request body
type Request struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response is the signed-in local user
type Response struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Groups   []int64 `json:"groups"`
}

type handler struct {
	svc    Service
	logger *zap.Logger
}

// RegisterRoutes registers POST /login on r
func RegisterRoutes(r chi.Router, svc Service, logger *zap.Logger) {
	h := &handler{svc: svc, logger: logger}
	r.Post("/login", apphttp.HandleError(h.login))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) error {
	var req Request
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return apperrors.UnAuthorizedError(err, "invalid email or password")
	case errors.Is(err, ErrUserBlocked):
		return apperrors.ForbiddenError(err, "account is blocked")
	case errors.Is(err, ErrNoLocalUser):
		return apperrors.ForbiddenError(err, "no local account for this client")
	case errors.Is(err, whmcs.ErrNotConfigured):
		return apperrors.DependencyError(err, "billing API not configured")
	case err != nil:
		h.logger.Error("Login failed", zap.Error(err))
		return apperrors.GeneralError(err)
	}

	groups := user.Groups
	if groups == nil {
		groups = []int64{}
	}
	apphttp.WriteJSON(w, http.StatusOK, &Response{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
		Groups:   groups,
	})
	return nil
}
