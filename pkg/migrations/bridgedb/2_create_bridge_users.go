package bridgedb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
	mghelper "github.com/chainsafe/billing-bridge/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if err := mghelper.CreateSchema(ctx, db, &bridgestore.BridgeUserDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &bridgestore.BridgeUserDao{}, "local_user_id", "email", "sync_status")
	}, func(ctx context.Context, db *bun.DB) error {
		return mghelper.DropTables(ctx, db, &bridgestore.BridgeUserDao{})
	})
}
