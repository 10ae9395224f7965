package bridgestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/chainsafe/billing-bridge/pkg/bridge"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the local directory store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.IntegrityViolation() && pgErr.Field('C') == "23505"
}

func (s *pgStore) GetLocalUser(ctx context.Context, id int64) (*bridge.LocalUser, error) {
	dao := new(LocalUserDao)
	err := s.db.NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocalUserNotFound
		}
		return nil, fmt.Errorf("failed to get local user: %w", err)
	}
	return s.withGroups(ctx, dao)
}

func (s *pgStore) GetLocalUserByEmail(ctx context.Context, email string) (*bridge.LocalUser, error) {
	dao := new(LocalUserDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("lower(email) = lower(?)", email).
		OrderExpr("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocalUserNotFound
		}
		return nil, fmt.Errorf("failed to get local user by email: %w", err)
	}
	return s.withGroups(ctx, dao)
}

func (s *pgStore) withGroups(ctx context.Context, dao *LocalUserDao) (*bridge.LocalUser, error) {
	usr := fromLocalUserDao(dao)
	groups, err := s.GetUserGroups(ctx, dao.ID)
	if err != nil {
		return nil, err
	}
	usr.Groups = groups
	return usr, nil
}

func (s *pgStore) CreateLocalUser(ctx context.Context, u *bridge.LocalUser, candidates UsernameCandidates) (*bridge.LocalUser, error) {
	for attempt := 0; attempt < MaxUsernameAttempts; attempt++ {
		dao := toLocalUserDao(u)
		dao.ID = 0
		dao.Username = candidates(attempt)

		_, err := s.db.NewInsert().
			Model(dao).
			Returning("id, registered_at").
			Exec(ctx)
		if err == nil {
			created := fromLocalUserDao(dao)
			created.Groups = []int64{}
			return created, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create local user: %w", err)
		}
	}
	return nil, ErrUsernameTaken
}

func (s *pgStore) GetUserGroups(ctx context.Context, userID int64) ([]int64, error) {
	groups := make([]int64, 0)
	err := s.db.NewSelect().
		Model((*LocalUserGroupDao)(nil)).
		Column("group_id").
		Where("user_id = ?", userID).
		OrderExpr("group_id ASC").
		Scan(ctx, &groups)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}
	return groups, nil
}

func (s *pgStore) AddUserGroups(ctx context.Context, userID int64, groups []int64) error {
	if len(groups) == 0 {
		return nil
	}
	rows := make([]LocalUserGroupDao, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, LocalUserGroupDao{UserID: userID, GroupID: g})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (user_id, group_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add user groups: %w", err)
	}
	return nil
}

func (s *pgStore) GetBridgeUser(ctx context.Context, opts ...QueryOption) (*bridge.BridgeUser, error) {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	dao := new(BridgeUserDao)
	query := s.db.NewSelect().Model(dao)

	if options.ClientID != nil {
		query = query.Where("client_id = ?", *options.ClientID)
	}
	if options.LocalUserID != nil {
		query = query.Where("local_user_id = ?", *options.LocalUserID)
	}
	if options.Email != nil {
		query = query.Where("lower(email) = lower(?)", *options.Email)
	}

	err := query.OrderExpr("id ASC").Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBridgeUserNotFound
		}
		return nil, fmt.Errorf("failed to get bridge user: %w", err)
	}
	return fromBridgeUserDao(dao), nil
}

func (s *pgStore) UpsertBridgeUser(ctx context.Context, u *bridge.BridgeUser) (bool, error) {
	dao := toBridgeUserDao(u)
	dao.ID = 0
	now := time.Now().UTC()
	dao.ModifiedAt = now
	if dao.CreatedAt.IsZero() {
		dao.CreatedAt = now
	}

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (client_id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("first_name = EXCLUDED.first_name").
		Set("last_name = EXCLUDED.last_name").
		Set("client_status = EXCLUDED.client_status").
		Set("last_sync = EXCLUDED.last_sync").
		Set("sync_status = EXCLUDED.sync_status").
		Set("modified_at = EXCLUDED.modified_at").
		Returning("id, local_user_id, created_at, (xmax = 0) AS inserted").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to upsert bridge user: %w", err)
	}

	u.ID = dao.ID
	u.LocalUserID = dao.LocalUserID
	u.CreatedAt = dao.CreatedAt
	u.ModifiedAt = dao.ModifiedAt
	return dao.Inserted, nil
}

func (s *pgStore) ListBridgeUsers(ctx context.Context, opts ListOptions) ([]*bridge.BridgeUser, error) {
	var daos []BridgeUserDao
	query := s.db.NewSelect().
		Model(&daos).
		Where("id > ?", opts.AfterID).
		OrderExpr("id ASC")
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list bridge users: %w", err)
	}

	users := make([]*bridge.BridgeUser, len(daos))
	for i := range daos {
		users[i] = fromBridgeUserDao(&daos[i])
	}
	return users, nil
}

func (s *pgStore) CountBridgeUsers(ctx context.Context, status *bridge.SyncStatus) (int, error) {
	query := s.db.NewSelect().Model((*BridgeUserDao)(nil))
	if status != nil {
		query = query.Where("sync_status = ?", string(*status))
	}
	n, err := query.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count bridge users: %w", err)
	}
	return n, nil
}

func (s *pgStore) UpdateBridgeUserSyncStatus(ctx context.Context, clientID int64, status bridge.SyncStatus) error {
	res, err := s.db.NewUpdate().
		Model((*BridgeUserDao)(nil)).
		Set("sync_status = ?", string(status)).
		Set("modified_at = NOW()").
		Where("client_id = ?", clientID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update bridge user sync status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBridgeUserNotFound
	}
	return nil
}

func (s *pgStore) UpsertBridgeProduct(ctx context.Context, p *bridge.BridgeProduct) (bool, error) {
	dao := toBridgeProductDao(p)
	dao.ID = 0
	now := time.Now().UTC()
	dao.ModifiedAt = now
	if dao.CreatedAt.IsZero() {
		dao.CreatedAt = now
	}

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (service_id) DO UPDATE").
		Set("bridge_user_id = EXCLUDED.bridge_user_id").
		Set("product_id = EXCLUDED.product_id").
		Set("name = EXCLUDED.name").
		Set("group_name = EXCLUDED.group_name").
		Set("domain = EXCLUDED.domain").
		Set("status = EXCLUDED.status").
		Set("billing_cycle = EXCLUDED.billing_cycle").
		Set("next_due_date = EXCLUDED.next_due_date").
		Set("amount = EXCLUDED.amount").
		Set("currency = EXCLUDED.currency").
		Set("registration_date = EXCLUDED.registration_date").
		Set("last_sync = EXCLUDED.last_sync").
		Set("modified_at = EXCLUDED.modified_at").
		Returning("id, created_at, (xmax = 0) AS inserted").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to upsert bridge product: %w", err)
	}

	p.ID = dao.ID
	p.CreatedAt = dao.CreatedAt
	p.ModifiedAt = dao.ModifiedAt
	return dao.Inserted, nil
}

func (s *pgStore) ListBridgeProducts(ctx context.Context, bridgeUserID int64) ([]*bridge.BridgeProduct, error) {
	var daos []BridgeProductDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("bridge_user_id = ?", bridgeUserID).
		OrderExpr("service_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bridge products: %w", err)
	}

	products := make([]*bridge.BridgeProduct, len(daos))
	for i := range daos {
		products[i] = fromBridgeProductDao(&daos[i])
	}
	return products, nil
}

func (s *pgStore) CountBridgeProducts(ctx context.Context, status *string) (int, error) {
	query := s.db.NewSelect().Model((*BridgeProductDao)(nil))
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	n, err := query.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count bridge products: %w", err)
	}
	return n, nil
}

func (s *pgStore) ListGroupMappings(ctx context.Context, publishedOnly bool) ([]*bridge.GroupMapping, error) {
	var daos []GroupMappingDao
	query := s.db.NewSelect().Model(&daos)
	if publishedOnly {
		query = query.Where("published = TRUE")
	}
	if err := query.OrderExpr("priority DESC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list group mappings: %w", err)
	}

	mappings := make([]*bridge.GroupMapping, len(daos))
	for i := range daos {
		mappings[i] = fromGroupMappingDao(&daos[i])
	}
	return mappings, nil
}

func (s *pgStore) GetGroupMapping(ctx context.Context, id int64) (*bridge.GroupMapping, error) {
	dao := new(GroupMappingDao)
	err := s.db.NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupMappingNotFound
		}
		return nil, fmt.Errorf("failed to get group mapping: %w", err)
	}
	return fromGroupMappingDao(dao), nil
}

func (s *pgStore) CreateGroupMapping(ctx context.Context, m *bridge.GroupMapping) error {
	dao := toGroupMappingDao(m)
	dao.ID = 0

	_, err := s.db.NewInsert().
		Model(dao).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create group mapping: %w", err)
	}
	m.ID = dao.ID
	return nil
}

func (s *pgStore) UpdateGroupMapping(ctx context.Context, m *bridge.GroupMapping) error {
	dao := toGroupMappingDao(m)
	dao.ModifiedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().
		Model(dao).
		Column("map_type", "identifier", "display_name", "target_group_id", "published", "priority", "modified_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update group mapping: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrGroupMappingNotFound
	}
	return nil
}

func (s *pgStore) DeleteGroupMapping(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().
		Model((*GroupMappingDao)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete group mapping: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrGroupMappingNotFound
	}
	return nil
}

func (s *pgStore) CountGroupMappings(ctx context.Context, publishedOnly bool) (int, error) {
	query := s.db.NewSelect().Model((*GroupMappingDao)(nil))
	if publishedOnly {
		query = query.Where("published = TRUE")
	}
	n, err := query.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count group mappings: %w", err)
	}
	return n, nil
}

func (s *pgStore) ReplaceProductMappings(ctx context.Context, productID int64, name string, groupIDs []int64) error {
	identifier := strconv.FormatInt(productID, 10)

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*GroupMappingDao)(nil)).
			Where("map_type = ?", string(bridge.MapTypeProduct)).
			Where("identifier = ?", identifier).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete product mappings: %w", err)
		}
		if len(groupIDs) == 0 {
			return nil
		}

		rows := make([]GroupMappingDao, 0, len(groupIDs))
		for _, g := range groupIDs {
			rows = append(rows, GroupMappingDao{
				MapType:       string(bridge.MapTypeProduct),
				Identifier:    identifier,
				DisplayName:   name,
				TargetGroupID: g,
				Published:     true,
			})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert product mappings: %w", err)
		}
		return nil
	})
}

func (s *pgStore) InsertSyncRun(ctx context.Context, run *bridge.SyncRun) error {
	_, err := s.db.NewInsert().
		Model(toSyncRunDao(run)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

func (s *pgStore) FinishSyncRun(ctx context.Context, run *bridge.SyncRun) error {
	dao := toSyncRunDao(run)
	res, err := s.db.NewUpdate().
		Model(dao).
		Column("completed_at", "status", "total_count", "created_count", "updated_count", "failed_count", "error_detail").
		WherePK().
		Where("status = ?", string(bridge.RunStatusRunning)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	if n == 0 {
		exists, err := s.db.NewSelect().Model((*SyncRunDao)(nil)).Where("id = ?", run.ID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check sync run: %w", err)
		}
		if !exists {
			return ErrSyncRunNotFound
		}
		return ErrRunAlreadyFinished
	}
	return nil
}

func (s *pgStore) GetSyncRun(ctx context.Context, id uuid.UUID) (*bridge.SyncRun, error) {
	dao := new(SyncRunDao)
	err := s.db.NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSyncRunNotFound
		}
		return nil, fmt.Errorf("failed to get sync run: %w", err)
	}
	return fromSyncRunDao(dao), nil
}

func (s *pgStore) ListSyncRuns(ctx context.Context, limit int) ([]*bridge.SyncRun, error) {
	var daos []SyncRunDao
	query := s.db.NewSelect().Model(&daos).OrderExpr("started_at DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}

	runs := make([]*bridge.SyncRun, len(daos))
	for i := range daos {
		runs[i] = fromSyncRunDao(&daos[i])
	}
	return runs, nil
}

func (s *pgStore) LastSyncRun(ctx context.Context) (*bridge.SyncRun, error) {
	runs, err := s.ListSyncRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrSyncRunNotFound
	}
	return runs[0], nil
}
