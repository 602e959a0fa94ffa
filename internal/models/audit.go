package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// FieldChange is one before/after pair inside an audit entry.
type FieldChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// FieldChanges is stored as JSONB.
type FieldChanges []FieldChange

// Value implements driver.Valuer.
func (c FieldChanges) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *FieldChanges) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, c)
}

// AuditEntry is an immutable record of one structured edit to a fleet
// record. Entries are append-only; failures to write one never block the
// primary mutation.
type AuditEntry struct {
	ID            string       `json:"id" db:"id"`
	RecordID      string       `json:"record_id" db:"record_id"`
	Actor         string       `json:"actor" db:"actor"`
	Action        string       `json:"action" db:"action"`
	ChangedFields FieldChanges `json:"changed_fields" db:"changed_fields"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}
