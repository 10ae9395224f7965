// Package service exposes the sync engine and the mapping rules to operators.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/billing-bridge/pkg/app/errors"
	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
	"github.com/chainsafe/billing-bridge/pkg/syncer"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

const (
	recentRuns      = 10
	defaultRunLimit = 20
	maxRunLimit     = 200

	statusActive = "Active"
)

// Engine is the part of syncer.Engine the service drives.
type Engine interface {
	SyncAllUsers(ctx context.Context, actor string) syncer.UserSyncResult
	SyncAllProducts(ctx context.Context, actor string) syncer.ProductSyncResult
	SyncSingleUser(ctx context.Context, clientID int64) error
	TestAPIConnection(ctx context.Context) bool
	APIError() *whmcs.Error
}

// Catalog is the part of the billing client used for the product views.
type Catalog interface {
	IsConfigured() bool
	GetProducts(ctx context.Context) ([]whmcs.CatalogProduct, error)
	GetProductGroups(ctx context.Context) ([]whmcs.ProductGroup, error)
}

// Store is the narrow data-access interface for the operator service.
type Store interface {
	CountBridgeUsers(ctx context.Context, status *bridge.SyncStatus) (int, error)
	CountBridgeProducts(ctx context.Context, status *string) (int, error)
	CountGroupMappings(ctx context.Context, publishedOnly bool) (int, error)
	LastSyncRun(ctx context.Context) (*bridge.SyncRun, error)
	ListSyncRuns(ctx context.Context, limit int) ([]*bridge.SyncRun, error)
	ListGroupMappings(ctx context.Context, publishedOnly bool) ([]*bridge.GroupMapping, error)
	CreateGroupMapping(ctx context.Context, m *bridge.GroupMapping) error
	UpdateGroupMapping(ctx context.Context, m *bridge.GroupMapping) error
	DeleteGroupMapping(ctx context.Context, id int64) error
	ReplaceProductMappings(ctx context.Context, productID int64, name string, groupIDs []int64) error
}

// Service defines the operator operations
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	SyncUsers(ctx context.Context, actor string) (*syncer.UserSyncResult, error)
	SyncProducts(ctx context.Context, actor string) (*syncer.ProductSyncResult, error)
	SyncUser(ctx context.Context, clientID int64) error
	TestConnection(ctx context.Context) (*APIStatus, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
	ListRuns(ctx context.Context, limit int) ([]*bridge.SyncRun, error)
	ListGroupMappings(ctx context.Context) ([]*bridge.GroupMapping, error)
	CreateGroupMapping(ctx context.Context, m *bridge.GroupMapping) (*bridge.GroupMapping, error)
	UpdateGroupMapping(ctx context.Context, m *bridge.GroupMapping) (*bridge.GroupMapping, error)
	DeleteGroupMapping(ctx context.Context, id int64) error
	ListProductGroups(ctx context.Context) ([]whmcs.ProductGroup, error)
	ListProductsWithMappings(ctx context.Context) ([]ProductMappings, error)
	SetProductMappings(ctx context.Context, productID int64, groupIDs []int64) error
}

// APIStatus reports whether the billing API is usable.
type APIStatus struct {
	Configured bool         `json:"configured"`
	Connected  bool         `json:"connected"`
	Error      string       `json:"error,omitempty"`
	Detail     *whmcs.Error `json:"detail,omitempty"`
}

// Dashboard is the operator overview.
type Dashboard struct {
	SyncedUsers    int               `json:"synced_users"`
	TotalProducts  int               `json:"total_products"`
	ActiveProducts int               `json:"active_products"`
	GroupMappings  int               `json:"group_mappings"`
	LastSync       *bridge.SyncRun   `json:"last_sync"`
	RecentRuns     []*bridge.SyncRun `json:"recent_runs"`
	API            APIStatus         `json:"api"`
}

// ProductMappings is one catalog product with the groups its published
// product mappings grant.
type ProductMappings struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	GroupID   int64   `json:"group_id"`
	GroupName string  `json:"group_name"`
	GroupIDs  []int64 `json:"group_ids"`
}

type syncService struct {
	engine     Engine
	catalog    Catalog
	store      Store
	runTimeout time.Duration
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewService creates the operator service. Full passes started through it are
// bounded by runTimeout instead of the caller's context; zero leaves them
// unbounded.
func NewService(engine Engine, catalog Catalog, store Store, runTimeout time.Duration, logger *zap.Logger) Service {
	return &syncService{
		engine:     engine,
		catalog:    catalog,
		store:      store,
		runTimeout: runTimeout,
		validate:   validator.New(),
		logger:     logger,
	}
}

// runContext detaches a full pass from the request that started it. Values
// such as the request id are kept.
func (s *syncService) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.runTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.runTimeout)
}

// SyncUsers runs a full user pass. A run that failed while fetching is still
// returned as a result; only an overlapping run is an error.
func (s *syncService) SyncUsers(ctx context.Context, actor string) (*syncer.UserSyncResult, error) {
	ctx, cancel := s.runContext(ctx)
	defer cancel()
	res := s.engine.SyncAllUsers(ctx, actor)
	if errors.Is(res.Err, syncer.ErrSyncInProgress) {
		return nil, apperrors.ConflictError(res.Err, "a sync run is already in progress")
	}
	return &res, nil
}

func (s *syncService) SyncProducts(ctx context.Context, actor string) (*syncer.ProductSyncResult, error) {
	ctx, cancel := s.runContext(ctx)
	defer cancel()
	res := s.engine.SyncAllProducts(ctx, actor)
	if errors.Is(res.Err, syncer.ErrSyncInProgress) {
		return nil, apperrors.ConflictError(res.Err, "a sync run is already in progress")
	}
	return &res, nil
}

func (s *syncService) SyncUser(ctx context.Context, clientID int64) error {
	if clientID <= 0 {
		return apperrors.BadRequestError(nil, "client id must be positive")
	}
	err := s.engine.SyncSingleUser(ctx, clientID)
	if err == nil {
		return nil
	}
	if apiErr, ok := whmcs.AsError(err); ok {
		if apiErr.Code == whmcs.CodeNotConfigured {
			return apperrors.DependencyError(err, apiErr.Message)
		}
		return apperrors.DependencyError(err, "billing API error: "+apiErr.Message)
	}
	if errors.Is(err, syncer.ErrInvalidRecord) {
		return apperrors.BadRequestError(err, "client record is missing email or id")
	}
	return err
}

func (s *syncService) TestConnection(ctx context.Context) (*APIStatus, error) {
	st := s.apiStatus(ctx)
	return &st, nil
}

func (s *syncService) apiStatus(ctx context.Context) APIStatus {
	if !s.catalog.IsConfigured() {
		return APIStatus{Error: "API not configured"}
	}
	st := APIStatus{Configured: true, Connected: s.engine.TestAPIConnection(ctx)}
	if !st.Connected {
		st.Detail = s.engine.APIError()
		st.Error = "Unknown error"
		if st.Detail != nil {
			st.Error = st.Detail.Message
		}
	}
	return st
}

func (s *syncService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	if d.SyncedUsers, err = s.store.CountBridgeUsers(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to count bridge users: %w", err)
	}
	if d.TotalProducts, err = s.store.CountBridgeProducts(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	active := statusActive
	if d.ActiveProducts, err = s.store.CountBridgeProducts(ctx, &active); err != nil {
		return nil, fmt.Errorf("failed to count active products: %w", err)
	}
	if d.GroupMappings, err = s.store.CountGroupMappings(ctx, true); err != nil {
		return nil, fmt.Errorf("failed to count group mappings: %w", err)
	}

	last, err := s.store.LastSyncRun(ctx)
	switch {
	case err == nil:
		d.LastSync = last
	case !errors.Is(err, bridgestore.ErrSyncRunNotFound):
		return nil, fmt.Errorf("failed to load last sync run: %w", err)
	}

	if d.RecentRuns, err = s.store.ListSyncRuns(ctx, recentRuns); err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	d.API = s.apiStatus(ctx)
	return &d, nil
}

func (s *syncService) ListRuns(ctx context.Context, limit int) ([]*bridge.SyncRun, error) {
	switch {
	case limit <= 0:
		limit = defaultRunLimit
	case limit > maxRunLimit:
		limit = maxRunLimit
	}
	runs, err := s.store.ListSyncRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

func (s *syncService) ListGroupMappings(ctx context.Context) ([]*bridge.GroupMapping, error) {
	mappings, err := s.store.ListGroupMappings(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list group mappings: %w", err)
	}
	return mappings, nil
}

func (s *syncService) validateMapping(m *bridge.GroupMapping) error {
	if err := s.validate.Struct(m); err != nil {
		return apperrors.BadRequestError(err, "invalid group mapping: "+err.Error())
	}
	return nil
}

func (s *syncService) CreateGroupMapping(ctx context.Context, m *bridge.GroupMapping) (*bridge.GroupMapping, error) {
	if err := s.validateMapping(m); err != nil {
		return nil, err
	}
	m.ID = 0
	if err := s.store.CreateGroupMapping(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create group mapping: %w", err)
	}
	return m, nil
}

func (s *syncService) UpdateGroupMapping(ctx context.Context, m *bridge.GroupMapping) (*bridge.GroupMapping, error) {
	if m.ID <= 0 {
		return nil, apperrors.BadRequestError(nil, "mapping id must be positive")
	}
	if err := s.validateMapping(m); err != nil {
		return nil, err
	}
	if err := s.store.UpdateGroupMapping(ctx, m); err != nil {
		if errors.Is(err, bridgestore.ErrGroupMappingNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "group mapping not found")
		}
		return nil, fmt.Errorf("failed to update group mapping: %w", err)
	}
	return m, nil
}

func (s *syncService) DeleteGroupMapping(ctx context.Context, id int64) error {
	if err := s.store.DeleteGroupMapping(ctx, id); err != nil {
		if errors.Is(err, bridgestore.ErrGroupMappingNotFound) {
			return apperrors.ResourceNotFoundError(err, "group mapping not found")
		}
		return fmt.Errorf("failed to delete group mapping: %w", err)
	}
	return nil
}

func (s *syncService) ListProductGroups(ctx context.Context) ([]whmcs.ProductGroup, error) {
	groups, err := s.catalog.GetProductGroups(ctx)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to load product groups from billing API")
	}
	return groups, nil
}

func (s *syncService) ListProductsWithMappings(ctx context.Context) ([]ProductMappings, error) {
	products, err := s.catalog.GetProducts(ctx)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to load products from billing API")
	}
	mappings, err := s.store.ListGroupMappings(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list group mappings: %w", err)
	}

	byProduct := make(map[string][]int64)
	for _, m := range mappings {
		if m.MapType == bridge.MapTypeProduct {
			byProduct[m.Identifier] = append(byProduct[m.Identifier], m.TargetGroupID)
		}
	}

	out := make([]ProductMappings, 0, len(products))
	for _, p := range products {
		pid := p.ProductID.Int64()
		groupIDs := byProduct[strconv.FormatInt(pid, 10)]
		if groupIDs == nil {
			groupIDs = []int64{}
		}
		out = append(out, ProductMappings{
			ProductID: pid,
			Name:      p.Name,
			GroupID:   p.GroupID.Int64(),
			GroupName: p.GroupName,
			GroupIDs:  groupIDs,
		})
	}
	return out, nil
}

// SetProductMappings replaces the product mappings of productID with one
// published mapping per group. The display name comes from the catalog.
func (s *syncService) SetProductMappings(ctx context.Context, productID int64, groupIDs []int64) error {
	if productID <= 0 {
		return apperrors.BadRequestError(nil, "product id must be positive")
	}
	seen := make(map[int64]struct{}, len(groupIDs))
	unique := make([]int64, 0, len(groupIDs))
	for _, g := range groupIDs {
		if g <= 0 {
			return apperrors.BadRequestError(nil, "group ids must be positive")
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		unique = append(unique, g)
	}

	name := ""
	if products, err := s.catalog.GetProducts(ctx); err == nil {
		for _, p := range products {
			if p.ProductID.Int64() == productID {
				name = p.Name
				break
			}
		}
	} else {
		s.logger.Warn("Product catalog unavailable, saving mappings without name",
			zap.Int64("product_id", productID), zap.Error(err))
	}

	if err := s.store.ReplaceProductMappings(ctx, productID, name, unique); err != nil {
		return fmt.Errorf("failed to save product mappings: %w", err)
	}
	return nil
}
