package bridgedb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
	mghelper "github.com/chainsafe/billing-bridge/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if err := mghelper.CreateSchema(ctx, db, &bridgestore.GroupMappingDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &bridgestore.GroupMappingDao{}, "map_type, identifier", "published")
	}, func(ctx context.Context, db *bun.DB) error {
		return mghelper.DropTables(ctx, db, &bridgestore.GroupMappingDao{})
	})
}
