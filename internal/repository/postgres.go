package repository

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grocerytrack/receipt-parser/constants"
	"github.com/grocerytrack/receipt-parser/internal/common"
	"github.com/grocerytrack/receipt-parser/internal/parser"
)

// PostgresConfig tunes the connection pool.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS receipts (
	id          UUID PRIMARY KEY,
	store_name  TEXT NOT NULL,
	tx_date     DATE,
	tx_time     TEXT,
	subtotal    NUMERIC(12,2),
	tax         NUMERIC(12,2),
	total       NUMERIC(12,2) NOT NULL,
	method      TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	source_path TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS receipt_items (
	id          BIGSERIAL PRIMARY KEY,
	receipt_id  UUID NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
	name        VARCHAR(200) NOT NULL,
	quantity    DOUBLE PRECISION NOT NULL,
	unit_price  NUMERIC(12,2) NOT NULL,
	total_price NUMERIC(12,2) NOT NULL,
	category    VARCHAR(100) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_receipts_tx_date ON receipts(tx_date);
CREATE INDEX IF NOT EXISTS idx_receipt_items_receipt ON receipt_items(receipt_id);
`

// PostgresStore persists receipts in a shared Postgres database.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects a pool, applies the schema, and returns the store.
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("store.connecting", "driver", "postgres")

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("store.dsn_invalid", "error", err)
		return nil, common.WrapError(common.ErrDatabase, "parse postgres dsn")
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "receipt-parser"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("store.connect_failed", "error", err)
		return nil, common.WrapError(common.ErrDatabase, "connect postgres")
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		logger.Error("store.migrate_failed", "error", err)
		return nil, common.WrapError(common.ErrDatabase, "apply postgres schema")
	}

	logger.Info("store.open", "driver", "postgres")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// HealthCheck pings the pool to catch DSN and network issues early.
func (s *PostgresStore) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Save(ctx context.Context, req SaveRequest) (uuid.UUID, error) {
	id := uuid.New()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, common.WrapError(common.ErrDatabase, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec := req.Record
	_, err = tx.Exec(ctx,
		`INSERT INTO receipts (id, store_name, tx_date, tx_time, subtotal, tax, total, method, confidence, source_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, rec.StoreName, rec.Date, rec.Time, rec.Subtotal, rec.Tax,
		rec.Total, string(req.Method), req.Confidence, req.SourcePath)
	if err != nil {
		s.logger.Error("store.save_failed", "error", err)
		return uuid.Nil, common.WrapError(common.ErrDatabase, "insert receipt")
	}

	for _, it := range rec.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO receipt_items (receipt_id, name, quantity, unit_price, total_price, category)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, it.Name, it.Quantity, it.UnitPrice, it.TotalPrice, it.Category)
		if err != nil {
			s.logger.Error("store.save_item_failed", "error", err)
			return uuid.Nil, common.WrapError(common.ErrDatabase, "insert receipt item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, common.WrapError(common.ErrDatabase, "commit tx")
	}
	s.logger.Info("store.saved", "receipt_id", id, "items", len(rec.Items))
	return id, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]StoredReceipt, error) {
	query := `SELECT id, store_name, tx_date::text, tx_time, subtotal::float8, tax::float8, total::float8, method, confidence, source_path, created_at
	          FROM receipts WHERE 1=1`
	args := []any{}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND tx_date >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND tx_date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, "list receipts")
	}
	defer rows.Close()

	var out []StoredReceipt
	for rows.Next() {
		var r StoredReceipt
		var method string
		var sourcePath *string
		if err := rows.Scan(&r.ID, &r.StoreName, &r.Date, &r.Time, &r.Subtotal, &r.Tax,
			&r.Total, &method, &r.Confidence, &sourcePath, &r.CreatedAt); err != nil {
			return nil, common.WrapError(common.ErrDatabase, "scan receipt")
		}
		r.Method = constants.Method(method)
		if sourcePath != nil {
			r.SourcePath = *sourcePath
		}
		if r.Items, err = s.listItems(ctx, r.ID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) listItems(ctx context.Context, receiptID uuid.UUID) ([]parser.LineItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, quantity, unit_price::float8, total_price::float8, category
		 FROM receipt_items WHERE receipt_id = $1 ORDER BY id`, receiptID)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, "list items")
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[parser.LineItem])
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, "scan items")
	}
	return items, nil
}

func (s *PostgresStore) Close() error {
	s.logger.Info("store.close", "driver", "postgres")
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
