package syncer

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

// MockAPI is a function-field implementation of API
type MockAPI struct {
	IsConfiguredFunc      func() bool
	TestConnectionFunc    func(ctx context.Context) bool
	LastErrorFunc         func() *whmcs.Error
	GetClientsFunc        func(ctx context.Context, q whmcs.ClientQuery) (*whmcs.ClientPage, error)
	GetClientByIDFunc     func(ctx context.Context, clientID int64) (*whmcs.ClientDetail, error)
	GetClientProductsFunc func(ctx context.Context, clientID int64, offset, limit int) (*whmcs.ProductPage, error)
}

func (m *MockAPI) IsConfigured() bool {
	if m.IsConfiguredFunc != nil {
		return m.IsConfiguredFunc()
	}
	return true
}

func (m *MockAPI) TestConnection(ctx context.Context) bool {
	if m.TestConnectionFunc != nil {
		return m.TestConnectionFunc(ctx)
	}
	return true
}

func (m *MockAPI) LastError() *whmcs.Error {
	if m.LastErrorFunc != nil {
		return m.LastErrorFunc()
	}
	return nil
}

func (m *MockAPI) GetClients(ctx context.Context, q whmcs.ClientQuery) (*whmcs.ClientPage, error) {
	if m.GetClientsFunc != nil {
		return m.GetClientsFunc(ctx, q)
	}
	return &whmcs.ClientPage{}, nil
}

func (m *MockAPI) GetClientByID(ctx context.Context, clientID int64) (*whmcs.ClientDetail, error) {
	if m.GetClientByIDFunc != nil {
		return m.GetClientByIDFunc(ctx, clientID)
	}
	return nil, &whmcs.Error{Code: whmcs.CodeAPI, Message: "Client Not Found"}
}

func (m *MockAPI) GetClientProducts(ctx context.Context, clientID int64, offset, limit int) (*whmcs.ProductPage, error) {
	if m.GetClientProductsFunc != nil {
		return m.GetClientProductsFunc(ctx, clientID, offset, limit)
	}
	return &whmcs.ProductPage{}, nil
}

// listing serves clients page by page and records every query.
type listing struct {
	mu      sync.Mutex
	clients []whmcs.ClientSummary
	total   int
	queries []whmcs.ClientQuery
}

func newListing(clients []whmcs.ClientSummary) *listing {
	return &listing{clients: clients, total: len(clients)}
}

func (l *listing) GetClients(_ context.Context, q whmcs.ClientQuery) (*whmcs.ClientPage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries = append(l.queries, q)

	page := &whmcs.ClientPage{TotalResults: whmcs.FlexInt(l.total)}
	if q.Offset < len(l.clients) {
		end := q.Offset + q.Limit
		if end > len(l.clients) {
			end = len(l.clients)
		}
		page.Clients.Client = append(whmcs.List[whmcs.ClientSummary]{}, l.clients[q.Offset:end]...)
	}
	return page, nil
}

func (l *listing) offsets() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, 0, len(l.queries))
	for _, q := range l.queries {
		out = append(out, q.Offset)
	}
	return out
}

func productPage(products ...whmcs.Product) *whmcs.ProductPage {
	page := &whmcs.ProductPage{TotalResults: whmcs.FlexInt(len(products))}
	page.Products.Product = products
	return page
}

// MockLocker is a function-field implementation of Locker
type MockLocker struct {
	TryLockFunc func(ctx context.Context, key string) (func(), bool, error)
}

func (m *MockLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key)
	}
	return func() {}, true, nil
}

// memDirectory is an in-memory Store that also backs a runlog.Tracker.
type memDirectory struct {
	mu sync.Mutex

	nextID      int64
	users       map[int64]*bridge.LocalUser
	groups      map[int64][]int64
	bridgeUsers map[int64]*bridge.BridgeUser // by client id
	products    map[int64]*bridge.BridgeProduct
	mappings    []*bridge.GroupMapping
	runs        map[uuid.UUID]bridge.SyncRun

	upsertBridgeErr map[int64]error
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		users:           map[int64]*bridge.LocalUser{},
		groups:          map[int64][]int64{},
		bridgeUsers:     map[int64]*bridge.BridgeUser{},
		products:        map[int64]*bridge.BridgeProduct{},
		runs:            map[uuid.UUID]bridge.SyncRun{},
		upsertBridgeErr: map[int64]error{},
	}
}

func (m *memDirectory) id() int64 {
	m.nextID++
	return m.nextID
}

// addUser seeds a local identity.
func (m *memDirectory) addUser(username, email string, groups ...int64) *bridge.LocalUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &bridge.LocalUser{ID: m.id(), Username: username, Email: email}
	m.users[u.ID] = u
	m.groups[u.ID] = append([]int64{}, groups...)
	return u
}

func (m *memDirectory) userByEmail(email string) *bridge.LocalUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (m *memDirectory) GetLocalUserByEmail(_ context.Context, email string) (*bridge.LocalUser, error) {
	if u := m.userByEmail(email); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, bridgestore.ErrLocalUserNotFound
}

func (m *memDirectory) CreateLocalUser(_ context.Context, u *bridge.LocalUser, candidates bridgestore.UsernameCandidates) (*bridge.LocalUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := map[string]bool{}
	for _, existing := range m.users {
		taken[existing.Username] = true
	}
	for attempt := 0; attempt < bridgestore.MaxUsernameAttempts; attempt++ {
		name := candidates(attempt)
		if taken[name] {
			continue
		}
		created := *u
		created.ID = m.id()
		created.Username = name
		created.Groups = []int64{}
		m.users[created.ID] = &created
		cp := created
		return &cp, nil
	}
	return nil, bridgestore.ErrUsernameTaken
}

func (m *memDirectory) GetUserGroups(_ context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64{}, m.groups[userID]...), nil
}

func (m *memDirectory) AddUserGroups(_ context.Context, userID int64, groups []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	have := map[int64]bool{}
	for _, g := range m.groups[userID] {
		have[g] = true
	}
	for _, g := range groups {
		if !have[g] {
			m.groups[userID] = append(m.groups[userID], g)
			have[g] = true
		}
	}
	return nil
}

func (m *memDirectory) userGroups(userID int64) []int64 {
	groups, _ := m.GetUserGroups(context.Background(), userID)
	return groups
}

func (m *memDirectory) GetBridgeUser(_ context.Context, opts ...bridgestore.QueryOption) (*bridge.BridgeUser, error) {
	var q bridgestore.QueryOptions
	for _, opt := range opts {
		opt(&q)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ClientID != nil {
		if bu, ok := m.bridgeUsers[*q.ClientID]; ok {
			cp := *bu
			return &cp, nil
		}
	}
	return nil, bridgestore.ErrBridgeUserNotFound
}

func (m *memDirectory) UpsertBridgeUser(_ context.Context, u *bridge.BridgeUser) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.upsertBridgeErr[u.ClientID]; err != nil {
		return false, err
	}
	if cur, ok := m.bridgeUsers[u.ClientID]; ok {
		cur.Email = u.Email
		cur.FirstName = u.FirstName
		cur.LastName = u.LastName
		cur.ClientStatus = u.ClientStatus
		cur.LastSync = u.LastSync
		cur.SyncStatus = u.SyncStatus
		u.ID = cur.ID
		u.LocalUserID = cur.LocalUserID
		return false, nil
	}
	row := *u
	row.ID = m.id()
	m.bridgeUsers[u.ClientID] = &row
	u.ID = row.ID
	return true, nil
}

func (m *memDirectory) ListBridgeUsers(_ context.Context, opts bridgestore.ListOptions) ([]*bridge.BridgeUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*bridge.BridgeUser, 0, len(m.bridgeUsers))
	for _, bu := range m.bridgeUsers {
		if bu.ID > opts.AfterID {
			cp := *bu
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (m *memDirectory) bridgeUserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bridgeUsers)
}

func (m *memDirectory) UpsertBridgeProduct(_ context.Context, p *bridge.BridgeProduct) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	if cur, ok := m.products[p.ServiceID]; ok {
		cp.ID = cur.ID
		m.products[p.ServiceID] = &cp
		p.ID = cur.ID
		return false, nil
	}
	cp.ID = m.id()
	m.products[p.ServiceID] = &cp
	p.ID = cp.ID
	return true, nil
}

func (m *memDirectory) product(serviceID int64) *bridge.BridgeProduct {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[serviceID]
}

func (m *memDirectory) ListGroupMappings(_ context.Context, publishedOnly bool) ([]*bridge.GroupMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*bridge.GroupMapping, 0, len(m.mappings))
	for _, gm := range m.mappings {
		if publishedOnly && !gm.Published {
			continue
		}
		cp := *gm
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memDirectory) addMapping(gm bridge.GroupMapping) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gm.ID = m.id()
	m.mappings = append(m.mappings, &gm)
}

func (m *memDirectory) InsertSyncRun(_ context.Context, run *bridge.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *memDirectory) FinishSyncRun(_ context.Context, run *bridge.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.runs[run.ID]
	if !ok {
		return bridgestore.ErrSyncRunNotFound
	}
	if cur.Status != bridge.RunStatusRunning {
		return bridgestore.ErrRunAlreadyFinished
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *memDirectory) GetSyncRun(_ context.Context, id uuid.UUID) (*bridge.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, bridgestore.ErrSyncRunNotFound
	}
	return &run, nil
}

func (m *memDirectory) run(id string) bridge.SyncRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[uuid.MustParse(id)]
}

func (m *memDirectory) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}
