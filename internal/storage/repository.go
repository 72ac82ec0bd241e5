package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"fhm/internal/core"

	_ "modernc.org/sqlite"
)

const txDateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUpload records a new upload with its raw payload. CreatedAt and
// UpdatedAt are assigned by the database.
func (r *SQLiteRepository) CreateUpload(ctx context.Context, u Upload) error {
	status := u.Status
	if status == "" {
		status = StatusPending
	}
	if !ValidStatus(status) {
		return fmt.Errorf("invalid upload status: %s", status)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO uploads (id, filename, size, status, payload, error) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Filename, u.Size, status, u.Payload, u.Error)
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}

	slog.InfoContext(ctx, "Upload recorded",
		"upload_id", u.ID,
		"filename", u.Filename,
		"size", u.Size,
		"status", status)

	return nil
}

// UpdateUploadStatus moves an upload through its lifecycle. errMsg is
// stored for failed uploads and cleared otherwise.
func (r *SQLiteRepository) UpdateUploadStatus(ctx context.Context, id, status, errMsg string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid upload status: %s", status)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE uploads SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, errMsg, id)
	if err != nil {
		return fmt.Errorf("update upload status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update upload status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update upload %s: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Upload status updated", "upload_id", id, "status", status)
	return nil
}

// GetUpload returns one upload including its payload.
func (r *SQLiteRepository) GetUpload(ctx context.Context, id string) (Upload, error) {
	var u Upload
	err := r.db.QueryRowContext(ctx,
		`SELECT id, filename, size, status, payload, error, created_at, updated_at FROM uploads WHERE id = ?`,
		id).Scan(&u.ID, &u.Filename, &u.Size, &u.Status, &u.Payload, &u.Error, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Upload{}, fmt.Errorf("get upload %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Upload{}, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

// ListUploads returns the most recent uploads without their payloads.
func (r *SQLiteRepository) ListUploads(ctx context.Context, limit int) ([]Upload, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, size, status, error, created_at, updated_at FROM uploads ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.Filename, &u.Size, &u.Status, &u.Error, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return uploads, nil
}

// ListStaleUploads returns uploads stuck in pending or processing for
// longer than age, oldest first. The worker sweeper requeues these.
func (r *SQLiteRepository) ListStaleUploads(ctx context.Context, age time.Duration, limit int) ([]Upload, error) {
	cutoff := fmt.Sprintf("-%d seconds", int64(age.Seconds()))
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, size, status, error, created_at, updated_at FROM uploads
		 WHERE status IN (?, ?) AND updated_at < datetime('now', ?)
		 ORDER BY updated_at ASC LIMIT ?`,
		StatusPending, StatusProcessing, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.Filename, &u.Size, &u.Status, &u.Error, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stale uploads: %w", err)
	}
	return uploads, nil
}

// InsertTransactions persists the normalized transactions of one upload
// in a single database transaction, preserving their order.
func (r *SQLiteRepository) InsertTransactions(ctx context.Context, uploadID string, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, tx := range txs {
		_, err := dbTx.ExecContext(ctx,
			`INSERT INTO transactions (upload_id, tx_date, category, amount, description, account) VALUES (?, ?, ?, ?, ?, ?)`,
			uploadID, tx.Date.Format(txDateLayout), tx.Category, tx.Amount.String(), tx.Description, tx.Account)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions recorded", "upload_id", uploadID, "count", len(txs))
	return nil
}

// ListTransactions returns one upload's transactions in insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, uploadID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tx_date, category, amount, description, account FROM transactions WHERE upload_id = ? ORDER BY id ASC`,
		uploadID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var dateText, amountText string
		var tx core.Transaction
		if err := rows.Scan(&dateText, &tx.Category, &amountText, &tx.Description, &tx.Account); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date, err = time.Parse(txDateLayout, dateText)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", dateText, err)
		}
		tx.Amount, err = decimal.NewFromString(amountText)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amountText, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
