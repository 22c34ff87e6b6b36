package domain

import "time"

// Idempotency records the response produced for a submission carrying an
// Idempotency-Key, keyed by (scope, key). A retry with the same pair before
// ExpiresAt is answered from Body without classifying or storing again.
//
// Scope is the caller identity (X-User-ID header, or "anonymous").
type Idempotency struct {
	ID          string    `json:"id"           gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope       string    `json:"scope"        gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1"`
	Key         string    `json:"key"          gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2"`
	ComplaintID string    `json:"complaint_id" gorm:"type:TEXT NOT NULL"`
	Status      int       `json:"status"       gorm:"type:INTEGER NOT NULL"`
	Body        []byte    `json:"body"         gorm:"type:BLOB"`
	CreatedAt   time.Time `json:"created_at"   gorm:"type:DATETIME NOT NULL"`
	ExpiresAt   time.Time `json:"expires_at"   gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// Expired reports whether the record can no longer be replayed at now.
func (r Idempotency) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
