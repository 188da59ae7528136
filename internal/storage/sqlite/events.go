package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmynk/treasury/internal/models"
	"github.com/mmynk/treasury/internal/storage"
)

// insertEvent appends one event inside tx.
func insertEvent(ctx context.Context, tx *sql.Tx, e models.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (treasury_id, seq, kind, at, data, prev_hash, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TreasuryID, e.Seq, string(e.Kind), e.At.UnixNano(), string(data), e.PrevHash, e.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// ListEvents retrieves events after afterSeq, oldest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, treasuryID string, afterSeq uint64, limit int) ([]models.Event, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM treasuries WHERE id = ?", treasuryID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("treasury %s: %w", treasuryID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check treasury existence: %w", err)
	}

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT treasury_id, seq, kind, at, data, prev_hash, hash
		 FROM events WHERE treasury_id = ? AND seq > ? ORDER BY seq LIMIT ?`,
		treasuryID, afterSeq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			e    models.Event
			kind string
			at   int64
			data string
		)
		if err := rows.Scan(&e.TreasuryID, &e.Seq, &kind, &at, &data, &e.PrevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("failed to decode event %d data: %w", e.Seq, err)
		}
		e.Kind = models.EventKind(kind)
		e.At = time.Unix(0, at)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
