// Package syncer reconciles the billing system's clients and services into the
// local directory. Runs are sequential: one remote call is in flight at a time
// and records are processed in the order the remote listing returns them.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/billing-bridge/internal/metrics"
	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
	"github.com/chainsafe/billing-bridge/pkg/config"
	"github.com/chainsafe/billing-bridge/pkg/runlog"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

// LockKey is the advisory lock serializing sync runs across processes.
const LockKey = "billing-bridge:sync"

var (
	// ErrSyncInProgress is returned when another run holds the sync lock.
	ErrSyncInProgress = errors.New("a sync run is already in progress")
	// ErrInvalidRecord is returned for a remote client without email or id.
	ErrInvalidRecord = errors.New("client missing email or id")
)

// API is the part of the billing client the engine calls.
type API interface {
	IsConfigured() bool
	TestConnection(ctx context.Context) bool
	LastError() *whmcs.Error
	GetClients(ctx context.Context, q whmcs.ClientQuery) (*whmcs.ClientPage, error)
	GetClientByID(ctx context.Context, clientID int64) (*whmcs.ClientDetail, error)
	GetClientProducts(ctx context.Context, clientID int64, offset, limit int) (*whmcs.ProductPage, error)
}

// Store is the part of the local directory the engine writes.
type Store interface {
	GetLocalUserByEmail(ctx context.Context, email string) (*bridge.LocalUser, error)
	CreateLocalUser(ctx context.Context, u *bridge.LocalUser, candidates bridgestore.UsernameCandidates) (*bridge.LocalUser, error)
	GetUserGroups(ctx context.Context, userID int64) ([]int64, error)
	AddUserGroups(ctx context.Context, userID int64, groups []int64) error
	GetBridgeUser(ctx context.Context, opts ...bridgestore.QueryOption) (*bridge.BridgeUser, error)
	UpsertBridgeUser(ctx context.Context, u *bridge.BridgeUser) (bool, error)
	ListBridgeUsers(ctx context.Context, opts bridgestore.ListOptions) ([]*bridge.BridgeUser, error)
	UpsertBridgeProduct(ctx context.Context, p *bridge.BridgeProduct) (bool, error)
	ListGroupMappings(ctx context.Context, publishedOnly bool) ([]*bridge.GroupMapping, error)
}

// Tracker brackets a run with its log row.
type Tracker interface {
	Start(ctx context.Context, syncType bridge.SyncType, initiatedBy string) (uuid.UUID, error)
	Complete(ctx context.Context, id uuid.UUID, counts runlog.Counts) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
}

// Locker hands out the cross-process sync lock.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// Settings tune a sync pass.
type Settings struct {
	AutoCreateUsers bool
	DefaultGroupID  int64
	PageSize        int
	// MaxPages caps pagination when the remote total never converges.
	MaxPages int
}

// SettingsFromConfig builds Settings from the sync section of the config.
func SettingsFromConfig(cfg config.SyncConfig) Settings {
	return Settings{
		AutoCreateUsers: cfg.AutoCreateUsers,
		DefaultGroupID:  cfg.DefaultGroupID,
		PageSize:        cfg.PageSize,
		MaxPages:        cfg.MaxPages,
	}
}

func (s Settings) withDefaults() Settings {
	if s.PageSize <= 0 {
		s.PageSize = 100
	}
	if s.MaxPages <= 0 {
		s.MaxPages = 1000
	}
	return s
}

// Action is the outcome of one client upsert.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionFailed    Action = "failed"
)

// UserSyncResult summarizes SyncAllUsers.
type UserSyncResult struct {
	Success bool   `json:"success"`
	RunID   string `json:"run_id,omitempty"`
	Total   int    `json:"total"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

func (r *UserSyncResult) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// ProductSyncResult summarizes SyncAllProducts.
type ProductSyncResult struct {
	Success bool   `json:"success"`
	RunID   string `json:"run_id,omitempty"`
	Total   int    `json:"total"`
	Synced  int    `json:"synced"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

func (r *ProductSyncResult) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// Engine runs reconciliation passes.
type Engine struct {
	api      API
	store    Store
	tracker  Tracker
	locker   Locker
	settings Settings
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	lastError error
}

// New creates an Engine.
func New(api API, store Store, tracker Tracker, locker Locker, settings Settings, logger *zap.Logger) *Engine {
	return &Engine{
		api:      api,
		store:    store,
		tracker:  tracker,
		locker:   locker,
		settings: settings.withDefaults(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// LastError returns the failure of the latest SyncSingleUser or
// TestAPIConnection call, or nil.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

func (e *Engine) setLastError(err error) {
	e.mu.Lock()
	e.lastError = err
	e.mu.Unlock()
}

// TestAPIConnection reports whether the billing API answers. On false the
// reason is available from APIError.
func (e *Engine) TestAPIConnection(ctx context.Context) bool {
	e.setLastError(nil)
	ok := e.api.TestConnection(ctx)
	if !ok {
		if apiErr := e.api.LastError(); apiErr != nil {
			e.setLastError(apiErr)
		}
	}
	return ok
}

// APIError returns the billing client's most recent failure.
func (e *Engine) APIError() *whmcs.Error {
	return e.api.LastError()
}

// lock takes the sync lock or returns ErrSyncInProgress.
func (e *Engine) lock(ctx context.Context) (func(), error) {
	release, ok, err := e.locker.TryLock(ctx, LockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}
	return release, nil
}

// failRun marks the run failed. It outlives ctx so a cancelled run still
// reaches a terminal state.
func (e *Engine) failRun(ctx context.Context, runID uuid.UUID, err error) {
	if ferr := e.tracker.Fail(context.WithoutCancel(ctx), runID, err.Error()); ferr != nil {
		e.logger.Error("Failed to record sync run failure", zap.String("run_id", runID.String()), zap.Error(ferr))
	}
}

// SyncAllUsers fetches every remote client and upserts each one. A failure
// while fetching fails the run; a failure on one record is counted and the run
// continues. Cancelling ctx stops the pass and fails the run.
func (e *Engine) SyncAllUsers(ctx context.Context, actor string) UserSyncResult {
	var result UserSyncResult

	release, err := e.lock(ctx)
	if err != nil {
		result.fail(err)
		return result
	}
	defer release()

	metrics.SyncInProgress.WithLabelValues(string(bridge.SyncTypeUsers)).Set(1)
	defer metrics.SyncInProgress.WithLabelValues(string(bridge.SyncTypeUsers)).Set(0)

	runID, err := e.tracker.Start(ctx, bridge.SyncTypeUsers, actor)
	if err != nil {
		result.fail(err)
		return result
	}
	result.RunID = runID.String()

	clients, err := e.fetchAllClients(ctx)
	if err != nil {
		result.fail(err)
		e.failRun(ctx, runID, err)
		return result
	}

	result.Total = len(clients)
	for i := range clients {
		if err := ctx.Err(); err != nil {
			err = fmt.Errorf("sync run interrupted after %d of %d clients: %w", i, len(clients), err)
			result.fail(err)
			e.failRun(ctx, runID, err)
			return result
		}
		client := &clients[i]
		action, err := e.UpsertClient(ctx, client)
		if err != nil {
			result.Failed++
			metrics.SyncRecordsTotal.WithLabelValues(string(bridge.SyncTypeUsers), string(ActionFailed)).Inc()
			e.logger.Error("Failed to sync client",
				zap.Int64("client_id", client.ID.Int64()),
				zap.String("email", client.Email),
				zap.Error(err))
			continue
		}
		metrics.SyncRecordsTotal.WithLabelValues(string(bridge.SyncTypeUsers), string(action)).Inc()
		switch action {
		case ActionCreated:
			result.Created++
		case ActionUpdated:
			result.Updated++
		}
	}

	result.Success = true
	counts := runlog.Counts{Total: result.Total, Created: result.Created, Updated: result.Updated, Failed: result.Failed}
	if err := e.tracker.Complete(context.WithoutCancel(ctx), runID, counts); err != nil {
		e.logger.Error("Failed to record sync run completion", zap.String("run_id", result.RunID), zap.Error(err))
	}
	return result
}

// fetchAllClients pages through the remote listing until the reported total
// is reached, a page comes back empty, or MaxPages pages were read.
func (e *Engine) fetchAllClients(ctx context.Context) ([]whmcs.ClientSummary, error) {
	var all []whmcs.ClientSummary
	offset := 0
	for page := 0; ; page++ {
		if page >= e.settings.MaxPages {
			e.logger.Warn("Stopped client pagination at page cap",
				zap.Int("max_pages", e.settings.MaxPages),
				zap.Int("fetched", len(all)))
			return all, nil
		}

		resp, err := e.api.GetClients(ctx, whmcs.ClientQuery{Offset: offset, Limit: e.settings.PageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch clients from WHMCS: %w", err)
		}

		records := resp.Records()
		all = append(all, records...)
		offset += e.settings.PageSize

		if len(records) == 0 || offset >= int(resp.TotalResults.Int64()) {
			return all, nil
		}
	}
}

// SyncSingleUser refreshes one client and its products. On failure the cause
// is also kept for LastError.
func (e *Engine) SyncSingleUser(ctx context.Context, clientID int64) error {
	e.setLastError(nil)
	detail, err := e.api.GetClientByID(ctx, clientID)
	if err != nil {
		e.setLastError(err)
		return err
	}

	client := summaryFromDetail(detail)
	if client.ID == 0 {
		client.ID = whmcs.FlexInt(clientID)
	}
	action, err := e.UpsertClient(ctx, &client)
	if err != nil {
		e.logger.Error("Failed to sync single user", zap.Int64("client_id", clientID), zap.Error(err))
		e.setLastError(err)
		return err
	}
	metrics.SyncRecordsTotal.WithLabelValues(string(bridge.SyncTypeUsers), string(action)).Inc()

	if _, err := e.SyncClientProducts(ctx, clientID); err != nil {
		e.logger.Error("Failed to sync single user products", zap.Int64("client_id", clientID), zap.Error(err))
		e.setLastError(err)
		return err
	}
	return nil
}

func summaryFromDetail(d *whmcs.ClientDetail) whmcs.ClientSummary {
	return whmcs.ClientSummary{
		ID:          whmcs.FlexInt(d.RemoteID()),
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		CompanyName: d.CompanyName,
		Email:       d.Email,
		GroupID:     d.GroupID,
		Status:      d.Status,
	}
}

// SyncAllProducts refreshes the products of every known bridge user. Clients
// without a bridge user are not visited. Cancelling ctx stops the pass and
// fails the run.
func (e *Engine) SyncAllProducts(ctx context.Context, actor string) ProductSyncResult {
	var result ProductSyncResult

	release, err := e.lock(ctx)
	if err != nil {
		result.fail(err)
		return result
	}
	defer release()

	metrics.SyncInProgress.WithLabelValues(string(bridge.SyncTypeProducts)).Set(1)
	defer metrics.SyncInProgress.WithLabelValues(string(bridge.SyncTypeProducts)).Set(0)

	runID, err := e.tracker.Start(ctx, bridge.SyncTypeProducts, actor)
	if err != nil {
		result.fail(err)
		return result
	}
	result.RunID = runID.String()

	var afterID int64
	for {
		users, err := e.store.ListBridgeUsers(ctx, bridgestore.ListOptions{AfterID: afterID, Limit: e.settings.PageSize})
		if err != nil {
			err = fmt.Errorf("failed to list bridge users: %w", err)
			result.fail(err)
			e.failRun(ctx, runID, err)
			return result
		}
		if len(users) == 0 {
			break
		}

		for _, u := range users {
			if err := ctx.Err(); err != nil {
				err = fmt.Errorf("sync run interrupted after %d users: %w", result.Total, err)
				result.fail(err)
				e.failRun(ctx, runID, err)
				return result
			}
			result.Total++
			if _, err := e.syncProductsFor(ctx, u); err != nil {
				result.Failed++
				metrics.SyncRecordsTotal.WithLabelValues(string(bridge.SyncTypeProducts), string(ActionFailed)).Inc()
				e.logger.Error("Failed to sync products for user",
					zap.Int64("client_id", u.ClientID),
					zap.String("email", u.Email),
					zap.Error(err))
				continue
			}
			result.Synced++
		}
		afterID = users[len(users)-1].ID
	}

	result.Success = true
	counts := runlog.Counts{Total: result.Total, Updated: result.Synced, Failed: result.Failed}
	if err := e.tracker.Complete(context.WithoutCancel(ctx), runID, counts); err != nil {
		e.logger.Error("Failed to record sync run completion", zap.String("run_id", result.RunID), zap.Error(err))
	}
	return result
}
