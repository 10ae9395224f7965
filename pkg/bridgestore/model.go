package bridgestore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/chainsafe/billing-bridge/pkg/bridge"
)

// LocalUserDao is a data access object that maps directly to the 'local_users' table in PostgreSQL.
type LocalUserDao struct {
	bun.BaseModel `bun:"table:local_users,alias:lu"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull,type:varchar(400)"`
	Username      string    `bun:"username,unique,notnull,type:varchar(150)"`
	Email         string    `bun:"email,notnull,type:varchar(255)"`
	PasswordHash  string    `bun:"password_hash,notnull,type:varchar(100)"`
	Blocked       bool      `bun:"blocked,notnull,default:false"`
	RegisteredAt  time.Time `bun:"registered_at,nullzero,notnull,default:current_timestamp"`
}

// LocalUserGroupDao maps to 'local_user_groups', one row per membership.
type LocalUserGroupDao struct {
	bun.BaseModel `bun:"table:local_user_groups,alias:lug"`
	UserID        int64 `bun:"user_id,pk"`
	GroupID       int64 `bun:"group_id,pk"`
}

func toLocalUserDao(u *bridge.LocalUser) *LocalUserDao {
	return &LocalUserDao{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Blocked:      u.Blocked,
		RegisteredAt: u.RegisteredAt,
	}
}

func fromLocalUserDao(dao *LocalUserDao) *bridge.LocalUser {
	return &bridge.LocalUser{
		ID:           dao.ID,
		Name:         dao.Name,
		Username:     dao.Username,
		Email:        dao.Email,
		PasswordHash: dao.PasswordHash,
		Blocked:      dao.Blocked,
		RegisteredAt: dao.RegisteredAt,
	}
}

// BridgeUserDao maps to 'bridge_users'. client_id is unique: one row per remote client.
type BridgeUserDao struct {
	bun.BaseModel `bun:"table:bridge_users,alias:bu"`
	ID            int64      `bun:"id,pk,autoincrement"`
	LocalUserID   int64      `bun:"local_user_id,notnull"`
	ClientID      int64      `bun:"client_id,unique,notnull"`
	Email         string     `bun:"email,notnull,type:varchar(255)"`
	FirstName     string     `bun:"first_name,notnull,type:varchar(255)"`
	LastName      string     `bun:"last_name,notnull,type:varchar(255)"`
	ClientStatus  string     `bun:"client_status,notnull,type:varchar(50)"`
	LastSync      *time.Time `bun:"last_sync"`
	SyncStatus    string     `bun:"sync_status,notnull,type:varchar(20)"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ModifiedAt    time.Time  `bun:"modified_at,nullzero,notnull,default:current_timestamp"`

	Inserted bool `bun:"inserted,scanonly"`
}

func toBridgeUserDao(u *bridge.BridgeUser) *BridgeUserDao {
	return &BridgeUserDao{
		ID:           u.ID,
		LocalUserID:  u.LocalUserID,
		ClientID:     u.ClientID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ClientStatus: u.ClientStatus,
		LastSync:     u.LastSync,
		SyncStatus:   string(u.SyncStatus),
		CreatedAt:    u.CreatedAt,
		ModifiedAt:   u.ModifiedAt,
	}
}

func fromBridgeUserDao(dao *BridgeUserDao) *bridge.BridgeUser {
	return &bridge.BridgeUser{
		ID:           dao.ID,
		LocalUserID:  dao.LocalUserID,
		ClientID:     dao.ClientID,
		Email:        dao.Email,
		FirstName:    dao.FirstName,
		LastName:     dao.LastName,
		ClientStatus: dao.ClientStatus,
		LastSync:     dao.LastSync,
		SyncStatus:   bridge.SyncStatus(dao.SyncStatus),
		CreatedAt:    dao.CreatedAt,
		ModifiedAt:   dao.ModifiedAt,
	}
}

// BridgeProductDao maps to 'bridge_products'. service_id is unique: one row per service instance.
type BridgeProductDao struct {
	bun.BaseModel    `bun:"table:bridge_products,alias:bp"`
	ID               int64           `bun:"id,pk,autoincrement"`
	BridgeUserID     int64           `bun:"bridge_user_id,notnull"`
	ServiceID        int64           `bun:"service_id,unique,notnull"`
	ProductID        int64           `bun:"product_id,notnull"`
	Name             string          `bun:"name,notnull,type:varchar(255)"`
	GroupName        string          `bun:"group_name,notnull,type:varchar(255)"`
	Domain           *string         `bun:"domain,type:varchar(255)"`
	Status           string          `bun:"status,notnull,type:varchar(50)"`
	BillingCycle     string          `bun:"billing_cycle,notnull,type:varchar(50)"`
	NextDueDate      *time.Time      `bun:"next_due_date,type:date"`
	Amount           decimal.Decimal `bun:"amount,notnull,type:numeric(12,2)"`
	Currency         string          `bun:"currency,notnull,type:varchar(3)"`
	RegistrationDate *time.Time      `bun:"registration_date,type:date"`
	LastSync         *time.Time      `bun:"last_sync"`
	CreatedAt        time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ModifiedAt       time.Time       `bun:"modified_at,nullzero,notnull,default:current_timestamp"`

	Inserted bool `bun:"inserted,scanonly"`
}

func toBridgeProductDao(p *bridge.BridgeProduct) *BridgeProductDao {
	return &BridgeProductDao{
		ID:               p.ID,
		BridgeUserID:     p.BridgeUserID,
		ServiceID:        p.ServiceID,
		ProductID:        p.ProductID,
		Name:             p.Name,
		GroupName:        p.GroupName,
		Domain:           p.Domain,
		Status:           p.Status,
		BillingCycle:     p.BillingCycle,
		NextDueDate:      p.NextDueDate,
		Amount:           p.Amount,
		Currency:         p.Currency,
		RegistrationDate: p.RegistrationDate,
		LastSync:         p.LastSync,
		CreatedAt:        p.CreatedAt,
		ModifiedAt:       p.ModifiedAt,
	}
}

func fromBridgeProductDao(dao *BridgeProductDao) *bridge.BridgeProduct {
	return &bridge.BridgeProduct{
		ID:               dao.ID,
		BridgeUserID:     dao.BridgeUserID,
		ServiceID:        dao.ServiceID,
		ProductID:        dao.ProductID,
		Name:             dao.Name,
		GroupName:        dao.GroupName,
		Domain:           dao.Domain,
		Status:           dao.Status,
		BillingCycle:     dao.BillingCycle,
		NextDueDate:      dao.NextDueDate,
		Amount:           dao.Amount,
		Currency:         dao.Currency,
		RegistrationDate: dao.RegistrationDate,
		LastSync:         dao.LastSync,
		CreatedAt:        dao.CreatedAt,
		ModifiedAt:       dao.ModifiedAt,
	}
}

// GroupMappingDao maps to 'group_mappings'.
type GroupMappingDao struct {
	bun.BaseModel `bun:"table:group_mappings,alias:gm"`
	ID            int64     `bun:"id,pk,autoincrement"`
	MapType       string    `bun:"map_type,notnull,type:varchar(20)"`
	Identifier    string    `bun:"identifier,notnull,type:varchar(255)"`
	DisplayName   string    `bun:"display_name,notnull,type:varchar(255)"`
	TargetGroupID int64     `bun:"target_group_id,notnull"`
	Published     bool      `bun:"published,notnull,default:false"`
	Priority      int       `bun:"priority,notnull,default:0"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ModifiedAt    time.Time `bun:"modified_at,nullzero,notnull,default:current_timestamp"`
}

func toGroupMappingDao(m *bridge.GroupMapping) *GroupMappingDao {
	return &GroupMappingDao{
		ID:            m.ID,
		MapType:       string(m.MapType),
		Identifier:    m.Identifier,
		DisplayName:   m.DisplayName,
		TargetGroupID: m.TargetGroupID,
		Published:     m.Published,
		Priority:      m.Priority,
	}
}

func fromGroupMappingDao(dao *GroupMappingDao) *bridge.GroupMapping {
	return &bridge.GroupMapping{
		ID:            dao.ID,
		MapType:       bridge.MapType(dao.MapType),
		Identifier:    dao.Identifier,
		DisplayName:   dao.DisplayName,
		TargetGroupID: dao.TargetGroupID,
		Published:     dao.Published,
		Priority:      dao.Priority,
	}
}

// SyncRunDao maps to 'sync_runs'.
type SyncRunDao struct {
	bun.BaseModel `bun:"table:sync_runs,alias:sr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	SyncType      string     `bun:"sync_type,notnull,type:varchar(20)"`
	Direction     string     `bun:"direction,notnull,type:varchar(30)"`
	StartedAt     time.Time  `bun:"started_at,notnull"`
	CompletedAt   *time.Time `bun:"completed_at"`
	Status        string     `bun:"status,notnull,type:varchar(20)"`
	TotalCount    int        `bun:"total_count,notnull,default:0"`
	CreatedCount  int        `bun:"created_count,notnull,default:0"`
	UpdatedCount  int        `bun:"updated_count,notnull,default:0"`
	FailedCount   int        `bun:"failed_count,notnull,default:0"`
	ErrorDetail   *string    `bun:"error_detail,type:text"`
	InitiatedBy   string     `bun:"initiated_by,notnull,type:varchar(255)"`
}

func toSyncRunDao(r *bridge.SyncRun) *SyncRunDao {
	dao := &SyncRunDao{
		ID:           r.ID,
		SyncType:     string(r.SyncType),
		Direction:    r.Direction,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
		Status:       string(r.Status),
		TotalCount:   r.Total,
		CreatedCount: r.Created,
		UpdatedCount: r.Updated,
		FailedCount:  r.Failed,
		InitiatedBy:  r.InitiatedBy,
	}
	if r.ErrorDetail != "" {
		dao.ErrorDetail = &r.ErrorDetail
	}
	return dao
}

func fromSyncRunDao(dao *SyncRunDao) *bridge.SyncRun {
	run := &bridge.SyncRun{
		ID:          dao.ID,
		SyncType:    bridge.SyncType(dao.SyncType),
		Direction:   dao.Direction,
		StartedAt:   dao.StartedAt,
		CompletedAt: dao.CompletedAt,
		Status:      bridge.RunStatus(dao.Status),
		Total:       dao.TotalCount,
		Created:     dao.CreatedCount,
		Updated:     dao.UpdatedCount,
		Failed:      dao.FailedCount,
		InitiatedBy: dao.InitiatedBy,
	}
	if dao.ErrorDetail != nil {
		run.ErrorDetail = *dao.ErrorDetail
	}
	return run
}
