// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/treasury/internal/models"
	"github.com/mmynk/treasury/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers; SQLite allows only one anyway.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTreasury persists a new treasury and its genesis event.
func (s *SQLiteStore) CreateTreasury(ctx context.Context, t *models.Treasury, genesis models.Event) error {
	if err := storage.CheckChain(0, t, []models.Event{genesis}); err != nil {
		return fmt.Errorf("failed to create treasury: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM treasuries WHERE id = ?", t.ID).Scan(&exists)
	if err == nil {
		return fmt.Errorf("treasury %s: %w", t.ID, storage.ErrConflict)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check treasury existence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO treasuries (id, account, asset, admin, balance, seq, head, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Account.Hex(), t.Asset, t.Admin.Hex(), models.FormatAmount(t.Balance),
		t.Seq, t.Head, string(t.Status), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert treasury: %w", err)
	}

	if err := insertEvent(ctx, tx, genesis); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTreasury retrieves a treasury by ID.
func (s *SQLiteStore) GetTreasury(ctx context.Context, id string) (*models.Treasury, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, account, asset, admin, balance, seq, head, status, created_at, updated_at
		 FROM treasuries WHERE id = ?`,
		id,
	)
	t, err := scanTreasury(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("treasury %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treasury: %w", err)
	}
	return t, nil
}

// ListTreasuries retrieves every treasury, oldest first.
func (s *SQLiteStore) ListTreasuries(ctx context.Context) ([]*models.Treasury, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account, asset, admin, balance, seq, head, status, created_at, updated_at
		 FROM treasuries ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list treasuries: %w", err)
	}
	defer rows.Close()

	var treasuries []*models.Treasury
	for rows.Next() {
		t, err := scanTreasury(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan treasury: %w", err)
		}
		treasuries = append(treasuries, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate treasuries: %w", err)
	}
	return treasuries, nil
}

// Commit saves the treasury state and appends events in one transaction.
func (s *SQLiteStore) Commit(ctx context.Context, t *models.Treasury, events ...models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedSeq uint64
	err = tx.QueryRowContext(ctx, "SELECT seq FROM treasuries WHERE id = ?", t.ID).Scan(&storedSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("treasury %s: %w", t.ID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read treasury seq: %w", err)
	}
	if err := storage.CheckChain(storedSeq, t, events); err != nil {
		return fmt.Errorf("failed to commit treasury %s: %w", t.ID, err)
	}

	for _, e := range events {
		if e.Kind == models.EventSettled && e.Data.RunID != nil {
			var exists int
			err := tx.QueryRowContext(ctx,
				"SELECT 1 FROM settlement_runs WHERE treasury_id = ? AND run_id = ?",
				t.ID, e.Data.RunID.Hex(),
			).Scan(&exists)
			if err == nil {
				return fmt.Errorf("run %s: %w", e.Data.RunID, storage.ErrConflict)
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to check settlement run: %w", err)
			}
		}

		if err := insertEvent(ctx, tx, e); err != nil {
			return err
		}

		if e.Kind == models.EventSettled && e.Data.RunID != nil {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO settlement_runs (treasury_id, run_id, seq) VALUES (?, ?, ?)",
				t.ID, e.Data.RunID.Hex(), e.Seq,
			)
			if err != nil {
				return fmt.Errorf("failed to insert settlement run: %w", err)
			}
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE treasuries SET admin = ?, balance = ?, seq = ?, head = ?, status = ?, updated_at = ?
		 WHERE id = ? AND seq = ?`,
		t.Admin.Hex(), models.FormatAmount(t.Balance), t.Seq, t.Head, string(t.Status), t.UpdatedAt,
		t.ID, storedSeq,
	)
	if err != nil {
		return fmt.Errorf("failed to update treasury: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check treasury update: %w", err)
	} else if n != 1 {
		return fmt.Errorf("treasury %s: %w", t.ID, storage.ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HasRun reports whether a settlement run was already committed.
func (s *SQLiteStore) HasRun(ctx context.Context, treasuryID string, runID models.RunID) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM settlement_runs WHERE treasury_id = ? AND run_id = ?",
		treasuryID, runID.Hex(),
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check settlement run: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTreasury(row rowScanner) (*models.Treasury, error) {
	var (
		t                      models.Treasury
		account, admin, amount string
		status                 string
	)
	if err := row.Scan(&t.ID, &account, &t.Asset, &admin, &amount, &t.Seq, &t.Head, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if t.Account, err = models.ParseAddress(account); err != nil {
		return nil, err
	}
	if t.Admin, err = models.ParseAddress(admin); err != nil {
		return nil, err
	}
	if t.Balance, err = models.ParseAmount(amount); err != nil {
		return nil, err
	}
	t.Status = models.TreasuryStatus(status)
	return &t, nil
}
