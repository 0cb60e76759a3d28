package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/grocerytrack/receipt-parser/constants"
	"github.com/grocerytrack/receipt-parser/internal/common"
	"github.com/grocerytrack/receipt-parser/internal/parser"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS receipts (
	id          TEXT PRIMARY KEY,
	store_name  TEXT NOT NULL,
	tx_date     TEXT,
	tx_time     TEXT,
	subtotal    REAL,
	tax         REAL,
	total       REAL NOT NULL,
	method      TEXT NOT NULL,
	confidence  REAL NOT NULL,
	source_path TEXT,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS receipt_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	receipt_id  TEXT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	quantity    REAL NOT NULL,
	unit_price  REAL NOT NULL,
	total_price REAL NOT NULL,
	category    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_receipts_tx_date ON receipts(tx_date);
CREATE INDEX IF NOT EXISTS idx_receipt_items_receipt ON receipt_items(receipt_id);
`

// SQLiteStore persists receipts in a single local database file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and migrates) a SQLite database at path. ":memory:"
// gives an ephemeral store.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("store.open_failed", "path", path, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		logger.Error("store.migrate_failed", "error", err)
		return nil, common.WrapError(common.ErrDatabase, "apply sqlite schema")
	}
	logger.Info("store.open", "driver", "sqlite", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, req SaveRequest) (uuid.UUID, error) {
	id := uuid.New()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, common.WrapError(common.ErrDatabase, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	rec := req.Record
	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (id, store_name, tx_date, tx_time, subtotal, tax, total, method, confidence, source_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), rec.StoreName, rec.Date, rec.Time, rec.Subtotal, rec.Tax,
		rec.Total, string(req.Method), req.Confidence, req.SourcePath)
	if err != nil {
		s.logger.Error("store.save_failed", "error", err)
		return uuid.Nil, common.WrapError(common.ErrDatabase, "insert receipt")
	}

	for _, it := range rec.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_items (receipt_id, name, quantity, unit_price, total_price, category)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id.String(), it.Name, it.Quantity, it.UnitPrice, it.TotalPrice, it.Category)
		if err != nil {
			s.logger.Error("store.save_item_failed", "error", err)
			return uuid.Nil, common.WrapError(common.ErrDatabase, "insert receipt item")
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, common.WrapError(common.ErrDatabase, "commit tx")
	}
	s.logger.Info("store.saved", "receipt_id", id, "items", len(rec.Items))
	return id, nil
}

func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]StoredReceipt, error) {
	query := `SELECT id, store_name, tx_date, tx_time, subtotal, tax, total, method, confidence, source_path, created_at
	          FROM receipts WHERE 1=1`
	args := []any{}
	if filter.From != nil {
		query += ` AND tx_date >= ?`
		args = append(args, filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		query += ` AND tx_date <= ?`
		args = append(args, filter.To.Format("2006-01-02"))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, "list receipts")
	}
	defer rows.Close()

	var out []StoredReceipt
	for rows.Next() {
		var r StoredReceipt
		var idStr, method string
		var sourcePath sql.NullString
		if err := rows.Scan(&idStr, &r.StoreName, &r.Date, &r.Time, &r.Subtotal, &r.Tax,
			&r.Total, &method, &r.Confidence, &sourcePath, &r.CreatedAt); err != nil {
			return nil, common.WrapError(common.ErrDatabase, "scan receipt")
		}
		r.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, common.WrapError(common.ErrDatabase, "parse receipt id")
		}
		r.Method = constants.Method(method)
		r.SourcePath = sourcePath.String
		if r.Items, err = s.listItems(ctx, idStr); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) listItems(ctx context.Context, receiptID string) ([]parser.LineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, quantity, unit_price, total_price, category
		 FROM receipt_items WHERE receipt_id = ? ORDER BY id`, receiptID)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, "list items")
	}
	defer rows.Close()

	items := []parser.LineItem{}
	for rows.Next() {
		var it parser.LineItem
		if err := rows.Scan(&it.Name, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Category); err != nil {
			return nil, common.WrapError(common.ErrDatabase, "scan item")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.logger.Info("store.close", "driver", "sqlite")
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
