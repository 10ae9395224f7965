package bridgestore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/chainsafe/billing-bridge/pkg/bridge"
)

var (
	// ErrLocalUserNotFound is returned when no local identity matches the lookup.
	ErrLocalUserNotFound = errors.New("local user not found")
	// ErrUsernameTaken is returned when every username candidate collided.
	ErrUsernameTaken = errors.New("unable to allocate a unique username")
	// ErrBridgeUserNotFound is returned when no bridge user matches the lookup.
	ErrBridgeUserNotFound = errors.New("bridge user not found")
	// ErrBridgeProductNotFound is returned when no bridge product matches the lookup.
	ErrBridgeProductNotFound = errors.New("bridge product not found")
	// ErrGroupMappingNotFound is returned when a mapping id does not exist.
	ErrGroupMappingNotFound = errors.New("group mapping not found")
	// ErrSyncRunNotFound is returned when a run id does not exist.
	ErrSyncRunNotFound = errors.New("sync run not found")
	// ErrRunAlreadyFinished is returned when a run is terminated a second time.
	ErrRunAlreadyFinished = errors.New("sync run already finished")
)

// MaxUsernameAttempts bounds the candidates CreateLocalUser tries.
const MaxUsernameAttempts = 1000

// UsernameCandidates yields the username to try on attempt n (0-based).
type UsernameCandidates func(attempt int) string

// LocalUserStore persists local identities and their group memberships.
type LocalUserStore interface {
	GetLocalUser(ctx context.Context, id int64) (*bridge.LocalUser, error)
	GetLocalUserByEmail(ctx context.Context, email string) (*bridge.LocalUser, error)
	// CreateLocalUser inserts u under the first candidate username that is not
	// taken. Uniqueness is enforced by the database, so concurrent creators
	// never end up sharing a name.
	CreateLocalUser(ctx context.Context, u *bridge.LocalUser, candidates UsernameCandidates) (*bridge.LocalUser, error)
	GetUserGroups(ctx context.Context, userID int64) ([]int64, error)
	// AddUserGroups grants groups to userID; existing memberships are left alone.
	AddUserGroups(ctx context.Context, userID int64, groups []int64) error
}

// BridgeUserStore persists the client-to-identity links.
type BridgeUserStore interface {
	GetBridgeUser(ctx context.Context, opts ...QueryOption) (*bridge.BridgeUser, error)
	// UpsertBridgeUser inserts u or refreshes the mirrored fields of the row with
	// the same client id. It reports whether a new row was inserted.
	UpsertBridgeUser(ctx context.Context, u *bridge.BridgeUser) (bool, error)
	ListBridgeUsers(ctx context.Context, opts ListOptions) ([]*bridge.BridgeUser, error)
	CountBridgeUsers(ctx context.Context, status *bridge.SyncStatus) (int, error)
	UpdateBridgeUserSyncStatus(ctx context.Context, clientID int64, status bridge.SyncStatus) error
}

// BridgeProductStore persists the mirrored service instances.
type BridgeProductStore interface {
	// UpsertBridgeProduct inserts p or overwrites every mirrored field of the row
	// with the same service id. It reports whether a new row was inserted.
	UpsertBridgeProduct(ctx context.Context, p *bridge.BridgeProduct) (bool, error)
	ListBridgeProducts(ctx context.Context, bridgeUserID int64) ([]*bridge.BridgeProduct, error)
	CountBridgeProducts(ctx context.Context, status *string) (int, error)
}

// GroupMappingStore persists operator-owned mapping rules.
type GroupMappingStore interface {
	ListGroupMappings(ctx context.Context, publishedOnly bool) ([]*bridge.GroupMapping, error)
	GetGroupMapping(ctx context.Context, id int64) (*bridge.GroupMapping, error)
	CreateGroupMapping(ctx context.Context, m *bridge.GroupMapping) error
	UpdateGroupMapping(ctx context.Context, m *bridge.GroupMapping) error
	DeleteGroupMapping(ctx context.Context, id int64) error
	CountGroupMappings(ctx context.Context, publishedOnly bool) (int, error)
	// ReplaceProductMappings swaps every product mapping of productID for one
	// published mapping per group id.
	ReplaceProductMappings(ctx context.Context, productID int64, name string, groupIDs []int64) error
}

// SyncRunStore persists the sync run log.
type SyncRunStore interface {
	InsertSyncRun(ctx context.Context, run *bridge.SyncRun) error
	// FinishSyncRun writes the terminal state of a running run. It returns
	// ErrRunAlreadyFinished when the run is no longer running.
	FinishSyncRun(ctx context.Context, run *bridge.SyncRun) error
	GetSyncRun(ctx context.Context, id uuid.UUID) (*bridge.SyncRun, error)
	ListSyncRuns(ctx context.Context, limit int) ([]*bridge.SyncRun, error)
	LastSyncRun(ctx context.Context) (*bridge.SyncRun, error)
}

// Store is the full local directory.
type Store interface {
	LocalUserStore
	BridgeUserStore
	BridgeProductStore
	GroupMappingStore
	SyncRunStore
}

// QueryOptions defines options for looking up a bridge user
type QueryOptions struct {
	ClientID    *int64
	LocalUserID *int64
	Email       *string
}

// QueryOption is a functional option for looking up a bridge user
type QueryOption func(*QueryOptions)

// WithClientID filters by remote client id
func WithClientID(clientID int64) QueryOption {
	return func(opts *QueryOptions) {
		opts.ClientID = &clientID
	}
}

// WithLocalUserID filters by local identity id
func WithLocalUserID(id int64) QueryOption {
	return func(opts *QueryOptions) {
		opts.LocalUserID = &id
	}
}

// WithEmail filters by remote email
func WithEmail(email string) QueryOption {
	return func(opts *QueryOptions) {
		opts.Email = &email
	}
}

// ListOptions pages through bridge users in id order.
type ListOptions struct {
	AfterID int64
	Limit   int
}
