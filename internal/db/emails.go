package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/placement-tracker/internal/types"
)

// EmailRecord is the audit row for one ingested message.
type EmailRecord struct {
	ExternalID   string    `json:"external_id"`
	Sender       string    `json:"sender"`
	Subject      string    `json:"subject"`
	Status       string    `json:"status"`
	StatusReason string    `json:"status_reason,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// SaveMessage upserts the audit record for a message. Reprocessing the same
// message overwrites the prior status; the raw body is kept from the first
// ingestion.
func (db *DB) SaveMessage(ctx context.Context, msg types.RawMessage, status, reason string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO emails (external_id, sender, subject, raw_body, received_at, status, status_reason, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (external_id) DO UPDATE SET status = $6, status_reason = $7, processed_at = NOW()`,
		msg.ExternalID, msg.Sender, msg.Subject, msg.RawBody, msg.ReceivedAt, status, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to save message %s: %w", msg.ExternalID, err)
	}
	return nil
}

// GetMessageStatus returns the stored status for a message, or "" when the
// message was never seen.
func (db *DB) GetMessageStatus(ctx context.Context, externalID string) (string, error) {
	var status string
	err := db.pool.QueryRow(ctx,
		`SELECT status FROM emails WHERE external_id = $1`,
		externalID,
	).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get message status: %w", err)
	}
	return status, nil
}

// ListRecentMessages retrieves the latest audit records.
func (db *DB) ListRecentMessages(ctx context.Context, limit int) ([]EmailRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT external_id, sender, subject, status, COALESCE(status_reason, ''), received_at, processed_at
		 FROM emails ORDER BY processed_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var records []EmailRecord
	for rows.Next() {
		var r EmailRecord
		if err := rows.Scan(&r.ExternalID, &r.Sender, &r.Subject, &r.Status, &r.StatusReason, &r.ReceivedAt, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}
