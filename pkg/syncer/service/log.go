package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/syncer"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

const serviceName = "SyncService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the operator Service.
// It logs method entry/exit, duration and errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// track logs "<method> started" and returns a func that logs the outcome.
func (ls *logService) track(method string, fields ...zap.Field) func(err error, extra ...zap.Field) {
	start := time.Now()
	base := append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
	}, fields...)
	ls.logger.Info(method+" started", base...)

	return func(err error, extra ...zap.Field) {
		out := append(append([]zap.Field{}, base...), zap.Duration("duration", time.Since(start)))
		if err != nil {
			ls.logger.Error(method+" failed", append(out, zap.Error(err))...)
			return
		}
		ls.logger.Info(method+" completed", append(out, extra...)...)
	}
}

func (ls *logService) SyncUsers(ctx context.Context, actor string) (res *syncer.UserSyncResult, err error) {
	done := ls.track("SyncUsers", zap.String("actor", actor))
	defer func() {
		if err != nil || res == nil {
			done(err)
			return
		}
		done(nil,
			zap.Bool("success", res.Success),
			zap.String("run_id", res.RunID),
			zap.Int("total", res.Total),
			zap.Int("created", res.Created),
			zap.Int("updated", res.Updated),
			zap.Int("failed", res.Failed),
		)
	}()
	return ls.svc.SyncUsers(ctx, actor)
}

func (ls *logService) SyncProducts(ctx context.Context, actor string) (res *syncer.ProductSyncResult, err error) {
	done := ls.track("SyncProducts", zap.String("actor", actor))
	defer func() {
		if err != nil || res == nil {
			done(err)
			return
		}
		done(nil,
			zap.Bool("success", res.Success),
			zap.String("run_id", res.RunID),
			zap.Int("total", res.Total),
			zap.Int("synced", res.Synced),
			zap.Int("failed", res.Failed),
		)
	}()
	return ls.svc.SyncProducts(ctx, actor)
}

func (ls *logService) SyncUser(ctx context.Context, clientID int64) (err error) {
	done := ls.track("SyncUser", zap.Int64("client_id", clientID))
	defer func() { done(err) }()
	return ls.svc.SyncUser(ctx, clientID)
}

func (ls *logService) TestConnection(ctx context.Context) (st *APIStatus, err error) {
	done := ls.track("TestConnection")
	defer func() {
		if err != nil || st == nil {
			done(err)
			return
		}
		done(nil, zap.Bool("configured", st.Configured), zap.Bool("connected", st.Connected))
	}()
	return ls.svc.TestConnection(ctx)
}

func (ls *logService) Dashboard(ctx context.Context) (d *Dashboard, err error) {
	done := ls.track("Dashboard")
	defer func() { done(err) }()
	return ls.svc.Dashboard(ctx)
}

func (ls *logService) ListRuns(ctx context.Context, limit int) (runs []*bridge.SyncRun, err error) {
	done := ls.track("ListRuns", zap.Int("limit", limit))
	defer func() { done(err, zap.Int("count", len(runs))) }()
	return ls.svc.ListRuns(ctx, limit)
}

func (ls *logService) ListGroupMappings(ctx context.Context) (mappings []*bridge.GroupMapping, err error) {
	done := ls.track("ListGroupMappings")
	defer func() { done(err, zap.Int("count", len(mappings))) }()
	return ls.svc.ListGroupMappings(ctx)
}

func (ls *logService) CreateGroupMapping(
	ctx context.Context,
	m *bridge.GroupMapping,
) (created *bridge.GroupMapping, err error) {
	done := ls.track("CreateGroupMapping",
		zap.String("map_type", string(m.MapType)),
		zap.String("identifier", m.Identifier),
		zap.Int64("target_group_id", m.TargetGroupID),
	)
	defer func() {
		if created != nil {
			done(err, zap.Int64("mapping_id", created.ID))
			return
		}
		done(err)
	}()
	return ls.svc.CreateGroupMapping(ctx, m)
}

func (ls *logService) UpdateGroupMapping(
	ctx context.Context,
	m *bridge.GroupMapping,
) (*bridge.GroupMapping, error) {
	done := ls.track("UpdateGroupMapping",
		zap.Int64("mapping_id", m.ID),
		zap.String("map_type", string(m.MapType)),
		zap.String("identifier", m.Identifier),
	)
	updated, err := ls.svc.UpdateGroupMapping(ctx, m)
	done(err)
	return updated, err
}

func (ls *logService) DeleteGroupMapping(ctx context.Context, id int64) (err error) {
	done := ls.track("DeleteGroupMapping", zap.Int64("mapping_id", id))
	defer func() { done(err) }()
	return ls.svc.DeleteGroupMapping(ctx, id)
}

func (ls *logService) ListProductGroups(ctx context.Context) (groups []whmcs.ProductGroup, err error) {
	done := ls.track("ListProductGroups")
	defer func() { done(err, zap.Int("count", len(groups))) }()
	return ls.svc.ListProductGroups(ctx)
}

func (ls *logService) ListProductsWithMappings(ctx context.Context) (products []ProductMappings, err error) {
	done := ls.track("ListProductsWithMappings")
	defer func() { done(err, zap.Int("count", len(products))) }()
	return ls.svc.ListProductsWithMappings(ctx)
}

func (ls *logService) SetProductMappings(ctx context.Context, productID int64, groupIDs []int64) (err error) {
	done := ls.track("SetProductMappings",
		zap.Int64("product_id", productID),
		zap.Int64s("group_ids", groupIDs),
	)
	defer func() { done(err) }()
	return ls.svc.SetProductMappings(ctx, productID, groupIDs)
}
