// Package login authenticates local sign-ins against the billing system and
// keeps the signing-in client's local records current.
package login

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chainsafe/billing-bridge/internal/metrics"
	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
	"github.com/chainsafe/billing-bridge/pkg/config"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserBlocked        = errors.New("local user is blocked")
	ErrNoLocalUser        = errors.New("no local user for this client")
)

// Remote validates credentials against the billing system.
type Remote interface {
	IsConfigured() bool
	ValidateLogin(ctx context.Context, email, password string) (*whmcs.ClientDetail, error)
}

// Users looks up local identities.
type Users interface {
	GetLocalUserByEmail(ctx context.Context, email string) (*bridge.LocalUser, error)
}

// Syncer is the part of syncer.Engine used at sign-in.
type Syncer interface {
	ProvisionClient(ctx context.Context, detail *whmcs.ClientDetail) (*bridge.LocalUser, error)
	SyncClient(ctx context.Context, detail *whmcs.ClientDetail) error
	SyncClientProducts(ctx context.Context, clientID int64) (int, error)
}

// Settings controls what happens after a successful remote login.
type Settings struct {
	SyncOnLogin       bool
	AutoCreateOnLogin bool
}

// SettingsFromConfig translates the sync config section.
func SettingsFromConfig(cfg config.SyncConfig) Settings {
	return Settings{
		SyncOnLogin:       cfg.SyncOnLogin,
		AutoCreateOnLogin: cfg.AutoCreateOnLogin,
	}
}

// Authenticator resolves a remote login into a local identity.
type Authenticator struct {
	remote   Remote
	users    Users
	syncer   Syncer
	settings Settings
	logger   *zap.Logger
}

// New creates an Authenticator
func New(remote Remote, users Users, syncer Syncer, settings Settings, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		remote:   remote,
		users:    users,
		syncer:   syncer,
		settings: settings,
		logger:   logger,
	}
}

// Authenticate validates email and password with the billing system and
// returns the matching local user, creating it when allowed.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*bridge.LocalUser, error) {
	user, outcome, err := a.authenticate(ctx, strings.TrimSpace(email), password)
	metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	return user, err
}

func (a *Authenticator) authenticate(ctx context.Context, email, password string) (*bridge.LocalUser, string, error) {
	if email == "" || password == "" {
		return nil, "invalid", ErrInvalidCredentials
	}
	if !a.remote.IsConfigured() {
		return nil, "unavailable", fmt.Errorf("failed to validate login: %w", whmcs.ErrNotConfigured)
	}

	detail, err := a.remote.ValidateLogin(ctx, email, password)
	if err != nil {
		a.logger.Info("Remote login rejected", zap.String("email", email), zap.Error(err))
		return nil, "invalid", ErrInvalidCredentials
	}

	provisioned := false
	local, err := a.users.GetLocalUserByEmail(ctx, email)
	switch {
	case errors.Is(err, bridgestore.ErrLocalUserNotFound):
		if !a.settings.AutoCreateOnLogin {
			return nil, "no_local_user", ErrNoLocalUser
		}
		local, err = a.syncer.ProvisionClient(ctx, detail)
		if err != nil {
			return nil, "error", fmt.Errorf("failed to provision local user: %w", err)
		}
		provisioned = true
	case err != nil:
		return nil, "error", fmt.Errorf("failed to look up local user: %w", err)
	}

	if local.Blocked {
		return nil, "blocked", ErrUserBlocked
	}

	if a.settings.SyncOnLogin {
		a.syncOnLogin(ctx, detail, provisioned)
	}
	if provisioned {
		return local, "provisioned", nil
	}
	return local, "success", nil
}

// syncOnLogin refreshes the client's bridge row, groups and products. A
// provisioned client already has a fresh bridge row and groups.
func (a *Authenticator) syncOnLogin(ctx context.Context, detail *whmcs.ClientDetail, provisioned bool) {
	var err error
	if provisioned {
		_, err = a.syncer.SyncClientProducts(ctx, detail.RemoteID())
	} else {
		err = a.syncer.SyncClient(ctx, detail)
	}
	if err != nil {
		a.logger.Warn("Sync on login failed",
			zap.Int64("client_id", detail.RemoteID()),
			zap.String("email", detail.Email),
			zap.Error(err))
	}
}
