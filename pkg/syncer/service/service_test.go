package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/billing-bridge/pkg/app/errors"
	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
	"github.com/chainsafe/billing-bridge/pkg/syncer"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

type fakeEngine struct {
	users      syncer.UserSyncResult
	products   syncer.ProductSyncResult
	singleErr  error
	connected  bool
	apiErr     *whmcs.Error
	lastActor  string
	lastClient int64
	runCtxErr  error
	runDue     time.Time
}

func (f *fakeEngine) observe(ctx context.Context) {
	f.runCtxErr = ctx.Err()
	f.runDue, _ = ctx.Deadline()
}

func (f *fakeEngine) SyncAllUsers(ctx context.Context, actor string) syncer.UserSyncResult {
	f.lastActor = actor
	f.observe(ctx)
	return f.users
}

func (f *fakeEngine) SyncAllProducts(ctx context.Context, actor string) syncer.ProductSyncResult {
	f.lastActor = actor
	f.observe(ctx)
	return f.products
}

func (f *fakeEngine) SyncSingleUser(_ context.Context, clientID int64) error {
	f.lastClient = clientID
	return f.singleErr
}

func (f *fakeEngine) TestAPIConnection(context.Context) bool { return f.connected }
func (f *fakeEngine) APIError() *whmcs.Error                 { return f.apiErr }

type fakeCatalog struct {
	configured bool
	products   []whmcs.CatalogProduct
	err        error
}

func (f *fakeCatalog) IsConfigured() bool { return f.configured }

func (f *fakeCatalog) GetProducts(context.Context) ([]whmcs.CatalogProduct, error) {
	return f.products, f.err
}

func (f *fakeCatalog) GetProductGroups(context.Context) ([]whmcs.ProductGroup, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []whmcs.ProductGroup{{ID: 1, Name: "Hosting"}}, nil
}

type replaceCall struct {
	productID int64
	name      string
	groupIDs  []int64
}

type fakeStore struct {
	bridgeUsers    int
	products       map[string]int
	mappings       []*bridge.GroupMapping
	runs           []*bridge.SyncRun
	nextID         int64
	replaced       []replaceCall
	runLimit       int
	countMappingsP bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: map[string]int{}}
}

func (f *fakeStore) CountBridgeUsers(context.Context, *bridge.SyncStatus) (int, error) {
	return f.bridgeUsers, nil
}

func (f *fakeStore) CountBridgeProducts(_ context.Context, status *string) (int, error) {
	if status == nil {
		total := 0
		for _, n := range f.products {
			total += n
		}
		return total, nil
	}
	return f.products[*status], nil
}

func (f *fakeStore) CountGroupMappings(_ context.Context, publishedOnly bool) (int, error) {
	f.countMappingsP = publishedOnly
	n := 0
	for _, m := range f.mappings {
		if m.Published || !publishedOnly {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) LastSyncRun(context.Context) (*bridge.SyncRun, error) {
	if len(f.runs) == 0 {
		return nil, bridgestore.ErrSyncRunNotFound
	}
	return f.runs[0], nil
}

func (f *fakeStore) ListSyncRuns(_ context.Context, limit int) ([]*bridge.SyncRun, error) {
	f.runLimit = limit
	if limit > len(f.runs) {
		limit = len(f.runs)
	}
	return f.runs[:limit], nil
}

func (f *fakeStore) ListGroupMappings(_ context.Context, publishedOnly bool) ([]*bridge.GroupMapping, error) {
	out := make([]*bridge.GroupMapping, 0, len(f.mappings))
	for _, m := range f.mappings {
		if m.Published || !publishedOnly {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateGroupMapping(_ context.Context, m *bridge.GroupMapping) error {
	f.nextID++
	m.ID = f.nextID
	f.mappings = append(f.mappings, m)
	return nil
}

func (f *fakeStore) UpdateGroupMapping(_ context.Context, m *bridge.GroupMapping) error {
	for i, existing := range f.mappings {
		if existing.ID == m.ID {
			f.mappings[i] = m
			return nil
		}
	}
	return bridgestore.ErrGroupMappingNotFound
}

func (f *fakeStore) DeleteGroupMapping(_ context.Context, id int64) error {
	for i, m := range f.mappings {
		if m.ID == id {
			f.mappings = append(f.mappings[:i], f.mappings[i+1:]...)
			return nil
		}
	}
	return bridgestore.ErrGroupMappingNotFound
}

func (f *fakeStore) ReplaceProductMappings(_ context.Context, productID int64, name string, groupIDs []int64) error {
	f.replaced = append(f.replaced, replaceCall{productID: productID, name: name, groupIDs: groupIDs})
	return nil
}

func newTestService() (Service, *fakeEngine, *fakeCatalog, *fakeStore) {
	engine := &fakeEngine{connected: true}
	catalog := &fakeCatalog{configured: true}
	store := newFakeStore()
	return NewService(engine, catalog, store, testRunTimeout, zap.NewNop()), engine, catalog, store
}

const testRunTimeout = 30 * time.Minute

func TestSyncService_RunOutlivesRequest(t *testing.T) {
	svc, engine, _, _ := newTestService()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	cancel()

	_, err := svc.SyncUsers(ctx, "alice")
	require.NoError(t, err)
	assert.NoError(t, engine.runCtxErr)
	assert.WithinDuration(t, time.Now().Add(testRunTimeout), engine.runDue, time.Minute)

	engine.runDue = time.Time{}
	_, err = svc.SyncProducts(ctx, "alice")
	require.NoError(t, err)
	assert.NoError(t, engine.runCtxErr)
	assert.WithinDuration(t, time.Now().Add(testRunTimeout), engine.runDue, time.Minute)
}

func TestSyncService_SyncUsers(t *testing.T) {
	svc, engine, _, _ := newTestService()
	engine.users = syncer.UserSyncResult{Success: true, Total: 2, Created: 1, Updated: 1}

	res, err := svc.SyncUsers(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, "alice", engine.lastActor)
}

func TestSyncService_SyncUsers_FailedRunIsAResult(t *testing.T) {
	svc, engine, _, _ := newTestService()
	engine.users = syncer.UserSyncResult{Error: "failed to fetch clients", Err: errors.New("failed to fetch clients")}

	res, err := svc.SyncUsers(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "failed to fetch clients", res.Error)
}

func TestSyncService_InProgressIsConflict(t *testing.T) {
	svc, engine, _, _ := newTestService()
	engine.users = syncer.UserSyncResult{Error: syncer.ErrSyncInProgress.Error(), Err: syncer.ErrSyncInProgress}
	engine.products = syncer.ProductSyncResult{Error: syncer.ErrSyncInProgress.Error(), Err: syncer.ErrSyncInProgress}

	_, err := svc.SyncUsers(context.Background(), "alice")
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataConflict))

	_, err = svc.SyncProducts(context.Background(), "alice")
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataConflict))
}

func TestSyncService_SyncUser_ErrorMapping(t *testing.T) {
	svc, engine, _, _ := newTestService()

	err := svc.SyncUser(context.Background(), 0)
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))

	engine.singleErr = fmt.Errorf("failed to fetch client: %w", &whmcs.Error{Code: whmcs.CodeAPI, Message: "Client Not Found"})
	err = svc.SyncUser(context.Background(), 5)
	assert.True(t, apperrors.Is(err, apperrors.CategoryDependencyFailure))
	assert.Equal(t, int64(5), engine.lastClient)

	engine.singleErr = fmt.Errorf("client 5: %w", syncer.ErrInvalidRecord)
	err = svc.SyncUser(context.Background(), 5)
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))

	engine.singleErr = errors.New("db down")
	err = svc.SyncUser(context.Background(), 5)
	require.Error(t, err)
	var svcErr *apperrors.ServiceError
	assert.False(t, errors.As(err, &svcErr))
}

func TestSyncService_TestConnection(t *testing.T) {
	svc, engine, catalog, _ := newTestService()

	st, err := svc.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, APIStatus{Configured: true, Connected: true}, *st)

	engine.connected = false
	engine.apiErr = &whmcs.Error{Code: whmcs.CodeHTTP, Message: "HTTP 503", Status: 503}
	st, err = svc.TestConnection(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Connected)
	assert.Equal(t, "HTTP 503", st.Error)
	assert.Equal(t, engine.apiErr, st.Detail)

	catalog.configured = false
	st, err = svc.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, APIStatus{Error: "API not configured"}, *st)
}

func TestSyncService_Dashboard(t *testing.T) {
	svc, _, _, store := newTestService()
	store.bridgeUsers = 4
	store.products = map[string]int{"Active": 3, "Suspended": 1}
	store.mappings = []*bridge.GroupMapping{{ID: 1, Published: true}, {ID: 2}}
	for i := 0; i < 12; i++ {
		store.runs = append(store.runs, &bridge.SyncRun{ID: uuid.New(), StartedAt: time.Now()})
	}

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, d.SyncedUsers)
	assert.Equal(t, 4, d.TotalProducts)
	assert.Equal(t, 3, d.ActiveProducts)
	assert.Equal(t, 1, d.GroupMappings)
	assert.True(t, store.countMappingsP)
	assert.Equal(t, store.runs[0], d.LastSync)
	assert.Len(t, d.RecentRuns, 10)
	assert.True(t, d.API.Connected)
}

func TestSyncService_Dashboard_NoRuns(t *testing.T) {
	svc, _, _, _ := newTestService()

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Nil(t, d.LastSync)
	assert.Empty(t, d.RecentRuns)
}

func TestSyncService_ListRunsLimit(t *testing.T) {
	svc, _, _, store := newTestService()

	for _, tc := range []struct{ in, want int }{{0, 20}, {-1, 20}, {50, 50}, {5000, 200}} {
		_, err := svc.ListRuns(context.Background(), tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, store.runLimit, "limit %d", tc.in)
	}
}

func TestSyncService_GroupMappingValidation(t *testing.T) {
	svc, _, _, store := newTestService()

	invalid := []*bridge.GroupMapping{
		{MapType: "colour", Identifier: "x", TargetGroupID: 1},
		{MapType: bridge.MapTypeProduct, Identifier: "", TargetGroupID: 1},
		{MapType: bridge.MapTypeStatus, Identifier: "Active", TargetGroupID: 0},
	}
	for _, m := range invalid {
		_, err := svc.CreateGroupMapping(context.Background(), m)
		assert.True(t, apperrors.Is(err, apperrors.CategoryDataError), "%+v", m)
	}
	assert.Empty(t, store.mappings)

	created, err := svc.CreateGroupMapping(context.Background(), &bridge.GroupMapping{
		ID: 55, MapType: bridge.MapTypeProductGroup, Identifier: "Hosting", TargetGroupID: 3, Published: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestSyncService_UpdateDeleteNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	m := &bridge.GroupMapping{ID: 9, MapType: bridge.MapTypeStatus, Identifier: "Active", TargetGroupID: 3}

	_, err := svc.UpdateGroupMapping(context.Background(), m)
	assert.True(t, apperrors.Is(err, apperrors.CategoryResourceNotFound))

	err = svc.DeleteGroupMapping(context.Background(), 9)
	assert.True(t, apperrors.Is(err, apperrors.CategoryResourceNotFound))

	_, err = svc.UpdateGroupMapping(context.Background(), &bridge.GroupMapping{MapType: bridge.MapTypeStatus, Identifier: "x", TargetGroupID: 1})
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))
}

func TestSyncService_ListProductsWithMappings(t *testing.T) {
	svc, _, catalog, store := newTestService()
	catalog.products = []whmcs.CatalogProduct{
		{ProductID: 12, GroupID: 1, Name: "VPS", GroupName: "Hosting"},
		{ProductID: 13, GroupID: 1, Name: "Dedicated", GroupName: "Hosting"},
	}
	store.mappings = []*bridge.GroupMapping{
		{ID: 1, MapType: bridge.MapTypeProduct, Identifier: "12", TargetGroupID: 5, Published: true},
		{ID: 2, MapType: bridge.MapTypeProduct, Identifier: "12", TargetGroupID: 7, Published: true},
		{ID: 3, MapType: bridge.MapTypeProduct, Identifier: "13", TargetGroupID: 8},
		{ID: 4, MapType: bridge.MapTypeProductGroup, Identifier: "12", TargetGroupID: 9, Published: true},
	}

	out, err := svc.ListProductsWithMappings(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []int64{5, 7}, out[0].GroupIDs)
	assert.Equal(t, "Hosting", out[0].GroupName)
	assert.Equal(t, []int64{}, out[1].GroupIDs)
}

func TestSyncService_ListProductsCatalogFailure(t *testing.T) {
	svc, _, catalog, _ := newTestService()
	catalog.err = &whmcs.Error{Code: whmcs.CodeTransport, Message: "connection refused"}

	_, err := svc.ListProductsWithMappings(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.CategoryDependencyFailure))

	_, err = svc.ListProductGroups(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.CategoryDependencyFailure))
}

func TestSyncService_SetProductMappings(t *testing.T) {
	svc, _, catalog, store := newTestService()
	catalog.products = []whmcs.CatalogProduct{{ProductID: 12, Name: "VPS"}}

	require.NoError(t, svc.SetProductMappings(context.Background(), 12, []int64{5, 7, 5}))
	require.Len(t, store.replaced, 1)
	assert.Equal(t, replaceCall{productID: 12, name: "VPS", groupIDs: []int64{5, 7}}, store.replaced[0])

	require.NoError(t, svc.SetProductMappings(context.Background(), 12, nil))
	assert.Empty(t, store.replaced[1].groupIDs)

	catalog.err = errors.New("down")
	require.NoError(t, svc.SetProductMappings(context.Background(), 12, []int64{5}))
	assert.Equal(t, "", store.replaced[2].name)

	err := svc.SetProductMappings(context.Background(), 12, []int64{0})
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))
	err = svc.SetProductMappings(context.Background(), 0, []int64{1})
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))
	assert.Len(t, store.replaced, 3)
}

func TestLogService_PassesThrough(t *testing.T) {
	inner, engine, _, _ := newTestService()
	engine.users = syncer.UserSyncResult{Success: true, Total: 1}
	svc := NewLog(inner, zap.NewNop())

	res, err := svc.SyncUsers(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = svc.UpdateGroupMapping(context.Background(), &bridge.GroupMapping{ID: 1, MapType: bridge.MapTypeStatus, Identifier: "x", TargetGroupID: 1})
	assert.True(t, apperrors.Is(err, apperrors.CategoryResourceNotFound))
}
