// Package bridge defines the records mirrored from the billing system into the
// local directory, and the operator-owned rules that drive group membership.
package bridge

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SyncStatus is the per-record synchronization state of a BridgeUser.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusPending SyncStatus = "pending"
)

// DefaultCurrency is stored on every BridgeProduct; the billing API does not report
// a per-service currency.
const DefaultCurrency = "USD"

// LocalUser is an account in the local identity directory.
type LocalUser struct {
	ID           int64
	Name         string
	Username     string
	Email        string
	PasswordHash string
	Blocked      bool
	RegisteredAt time.Time
	Groups       []int64
}

// BridgeUser links one remote client to one local identity.
type BridgeUser struct {
	ID           int64
	LocalUserID  int64
	ClientID     int64
	Email        string
	FirstName    string
	LastName     string
	ClientStatus string
	LastSync     *time.Time
	SyncStatus   SyncStatus
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// BridgeProduct mirrors one remote service instance owned by a client.
type BridgeProduct struct {
	ID               int64
	BridgeUserID     int64
	ServiceID        int64
	ProductID        int64
	Name             string
	GroupName        string
	Domain           *string
	Status           string
	BillingCycle     string
	NextDueDate      *time.Time
	Amount           decimal.Decimal
	Currency         string
	RegistrationDate *time.Time
	LastSync         *time.Time
	CreatedAt        time.Time
	ModifiedAt       time.Time
}

// MapType selects which product attribute a GroupMapping is matched against.
type MapType string

const (
	MapTypeProduct      MapType = "product"
	MapTypeProductGroup MapType = "product_group"
	MapTypeStatus       MapType = "status"
)

// Valid reports whether t is one of the known map types.
func (t MapType) Valid() bool {
	switch t {
	case MapTypeProduct, MapTypeProductGroup, MapTypeStatus:
		return true
	}
	return false
}

// GroupMapping grants TargetGroupID to any local identity whose client holds a
// product matching Identifier under MapType. Unpublished mappings are inert.
type GroupMapping struct {
	ID            int64   `json:"id"`
	MapType       MapType `json:"map_type" validate:"required,oneof=product product_group status"`
	Identifier    string  `json:"identifier" validate:"required"`
	DisplayName   string  `json:"display_name"`
	TargetGroupID int64   `json:"target_group_id" validate:"gt=0"`
	Published     bool    `json:"published"`
	Priority      int     `json:"priority"`
}

// SyncType identifies what a sync run reconciled.
type SyncType string

const (
	SyncTypeUsers    SyncType = "users"
	SyncTypeProducts SyncType = "products"
)

// SyncDirection is fixed: data only flows from the billing system to the local directory.
const SyncDirection = "whmcs_to_local"

// RunStatus is the lifecycle state of a SyncRun.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SyncRun is the log row for one reconciliation invocation.
type SyncRun struct {
	ID          uuid.UUID  `json:"id"`
	SyncType    SyncType   `json:"sync_type"`
	Direction   string     `json:"direction"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      RunStatus  `json:"status"`
	Total       int        `json:"total"`
	Created     int        `json:"created"`
	Updated     int        `json:"updated"`
	Failed      int        `json:"failed"`
	ErrorDetail string     `json:"error_detail,omitempty"`
	InitiatedBy string     `json:"initiated_by"`
}
