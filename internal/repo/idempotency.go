package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

// IdempotencyStore remembers the response to a keyed submission so a retry
// can be answered without classifying or storing the complaint again.
type IdempotencyStore interface {
	// Get returns the unexpired record for (scope, key) or ErrNotFound.
	Get(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error)
	// Put stores rec. It returns ErrDuplicate when an unexpired record for
	// the same (scope, key) already exists.
	Put(ctx context.Context, rec *domain.Idempotency) error
}

// NewIdempotencyRecord fills in the id and timestamps for a record that
// expires ttl after now.
func NewIdempotencyRecord(scope, key, complaintID string, status int, body []byte, now time.Time, ttl time.Duration) *domain.Idempotency {
	now = now.UTC()
	return &domain.Idempotency{
		ID:          uuid.NewString(),
		Scope:       scope,
		Key:         key,
		ComplaintID: complaintID,
		Status:      status,
		Body:        body,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// GormIdempotency keeps idempotency records in the SQL "idempotency" table.
type GormIdempotency struct {
	db *gorm.DB
}

// NewGormIdempotency wraps a migrated GORM handle.
func NewGormIdempotency(db *gorm.DB) *GormIdempotency {
	return &GormIdempotency{db: db}
}

func (s *GormIdempotency) Get(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := s.db.WithContext(ctx).
		Where("scope = ? AND key = ? AND expires_at > ?", scope, key, now.UTC()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put inserts rec. An expired row for the same pair is removed first so the
// unique index only guards live records.
func (s *GormIdempotency) Put(ctx context.Context, rec *domain.Idempotency) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scope = ? AND key = ? AND expires_at <= ?", rec.Scope, rec.Key, rec.CreatedAt).
			Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
}

// isUniqueViolation matches both the translated GORM error and the plain-text
// errors glebarez/sqlite returns for UNIQUE constraint failures.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// NoIdempotency disables replay: Get never finds a record and Put discards.
type NoIdempotency struct{}

func (NoIdempotency) Get(context.Context, string, string, time.Time) (*domain.Idempotency, error) {
	return nil, ErrNotFound
}

func (NoIdempotency) Put(context.Context, *domain.Idempotency) error { return nil }
