// Package bridgedb holds all the migrations for the billing bridge database
package bridgedb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the billing bridge database
var Migrations = migrate.NewMigrations()
