package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/pkg/config"
)

// Open connects to the SQL backend selected by the store driver.
func Open(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		return NewPostgres(ctx, cfg.Database)
	case config.StoreDriverSQLite:
		return NewSQLite(ctx, cfg.SQLite)
	default:
		return nil, fmt.Errorf("store driver %q has no sql backend", cfg.Store.Driver)
	}
}
