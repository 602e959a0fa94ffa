package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
)

// AuditRepository appends immutable edit entries. Entries are never
// updated or deleted.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates the repository.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO fleet_audit (id, record_id, actor, action, changed_fields, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		entry.ID, entry.RecordID, entry.Actor, entry.Action, entry.ChangedFields,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListByRecord returns the audit trail for one record, oldest first.
func (r *AuditRepository) ListByRecord(ctx context.Context, recordID string) ([]*models.AuditEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, record_id, actor, action, changed_fields, created_at
		FROM fleet_audit WHERE record_id = $1 ORDER BY created_at`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry := &models.AuditEntry{}
		if err := rows.Scan(&entry.ID, &entry.RecordID, &entry.Actor, &entry.Action, &entry.ChangedFields, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
