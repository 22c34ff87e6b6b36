package repo

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

// SQLGateway stores complaints in a GORM table, "complaints" unless
// WithTable says otherwise. IDs are UUIDv4 strings.
type SQLGateway struct {
	db    *gorm.DB
	table string
}

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// NewSQLGateway wraps an open, migrated GORM handle.
func NewSQLGateway(db *gorm.DB) *SQLGateway {
	return &SQLGateway{db: db, table: domain.Complaint{}.TableName()}
}

// WithTable returns a gateway over the same handle bound to table.
func (g *SQLGateway) WithTable(table string) *SQLGateway {
	return &SQLGateway{db: g.db, table: table}
}

// Table is the table the gateway reads and writes.
func (g *SQLGateway) Table() string { return g.table }

// MigrateComplaintTable creates or updates a complaint table under a
// non-default name.
func MigrateComplaintTable(db *gorm.DB, table string) error {
	if !tableNameRE.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return db.Table(table).AutoMigrate(&domain.Complaint{})
}

func (g *SQLGateway) tx(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx).Table(g.table)
}

// DB exposes the underlying handle so other tables (idempotency) can share
// the connection pool.
func (g *SQLGateway) DB() *gorm.DB { return g.db }

// Create inserts c with a fresh UUID.
func (g *SQLGateway) Create(ctx context.Context, c *domain.Complaint) (string, error) {
	row := *c
	row.ID = uuid.NewString()
	if err := g.tx(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	c.ID = row.ID
	return row.ID, nil
}

// ListAll returns all rows, newest first when requested. Any SQL error other
// than a lost connection is treated as an ordering problem and retried
// unordered.
func (g *SQLGateway) ListAll(ctx context.Context, newestFirst bool) ([]domain.Complaint, error) {
	return listWithFallback(ctx, newestFirst, func(ordered bool) ([]domain.Complaint, error) {
		q := g.tx(ctx)
		if ordered {
			q = q.Order("created_at DESC")
		}
		var out []domain.Complaint
		err := q.Find(&out).Error
		return out, err
	}, func(error) bool { return true })
}

// Purge deletes all rows in batches.
func (g *SQLGateway) Purge(ctx context.Context, batchSize int, onDelete func(domain.Complaint)) (int, error) {
	return purgeBatches(batchSize, onDelete,
		func(limit int) ([]domain.Complaint, error) {
			var recs []domain.Complaint
			err := g.tx(ctx).Limit(limit).Find(&recs).Error
			return recs, err
		},
		func(recs []domain.Complaint) error {
			ids := make([]string, len(recs))
			for i, r := range recs {
				ids[i] = r.ID
			}
			return g.tx(ctx).Where("id IN ?", ids).Delete(&domain.Complaint{}).Error
		},
	)
}

// Close releases the connection pool.
func (g *SQLGateway) Close(context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
