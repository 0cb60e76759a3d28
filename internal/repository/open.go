package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grocerytrack/receipt-parser/internal/common"
)

// Open picks the store implementation from the configured driver.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return OpenSQLite(ctx, cfg.DSN, logger)
	case "postgres":
		return OpenPostgres(ctx, PostgresConfig{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
			DialTimeout:     cfg.DialTimeout,
		}, logger)
	default:
		return nil, common.WrapError(common.ErrInvalidInput,
			fmt.Sprintf("unknown database driver %q", cfg.Driver))
	}
}
