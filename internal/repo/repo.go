// Package repo implements the persistence gateway for complaint records.
//
// Three backends share one contract:
//
//   - FirestoreGateway: Cloud Firestore, the production document store.
//   - MongoGateway: MongoDB, for deployments without Google Cloud.
//   - SQLGateway: GORM over pure-Go SQLite, for local development and tests.
//
// The gateway is append-only from the service's point of view: Create and
// ListAll are the only operations reachable from request handling. Purge
// exists for the maintenance command and is never wired to HTTP.
//
// Error semantics:
//   - Create returns only after the store acknowledged the write; store
//     errors are returned as-is.
//   - ListAll prefers newest-first ordering. When the ordered read fails
//     because the store cannot order (missing index, unsupported sort), it
//     retries without ordering. Failures that mean the store is unreachable
//     (cancellation, deadline, network, closed connection) are returned
//     without a retry.
package repo

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tbourn/campuspulse-backend/internal/config"
	"github.com/tbourn/campuspulse-backend/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist or has expired.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an idempotency record already exists for
	// the given (scope, key) pair.
	ErrDuplicate = errors.New("duplicate")

	// ErrBatchSize is returned by Purge for batch sizes below 1.
	ErrBatchSize = errors.New("batch size must be >= 1")
)

// Gateway stores and lists complaint records.
type Gateway interface {
	// Create appends c, sets c.ID and returns the store-assigned id.
	Create(ctx context.Context, c *domain.Complaint) (string, error)
	// ListAll returns every stored record with its id. newestFirst asks for
	// descending created_at order on a best-effort basis.
	ListAll(ctx context.Context, newestFirst bool) ([]domain.Complaint, error)
}

// Purger bulk-deletes a collection. Only the maintenance command uses it.
type Purger interface {
	// Purge deletes every record in batches of batchSize, calling onDelete
	// for each deleted record. It returns the number of non-empty batches.
	Purge(ctx context.Context, batchSize int, onDelete func(domain.Complaint)) (int, error)
}

// Store is a Gateway and Purger bound to a long-lived client.
type Store interface {
	Gateway
	Purger
	Close(ctx context.Context) error
}

// Open connects to the backend selected by cfg.Driver. The returned store
// owns its client; call Close on shutdown.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverFirestore:
		return OpenFirestore(ctx, cfg)
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.Collection)
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		g := NewSQLGateway(db)
		if cfg.Collection != "" && cfg.Collection != g.Table() {
			if err := MigrateComplaintTable(db, cfg.Collection); err != nil {
				_ = g.Close(ctx)
				return nil, fmt.Errorf("migrate %s: %w", cfg.Collection, err)
			}
			g = g.WithTable(cfg.Collection)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// orderFallbacks counts ordered listings that had to be served unordered.
var orderFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "complaint_list_order_fallbacks_total",
	Help: "Ordered complaint listings served unordered because the store could not sort.",
})

func init() {
	prometheus.MustRegister(orderFallbacks)
}

// listWithFallback runs list(true) when newestFirst is set and falls back to
// list(false) if the failure satisfies orderUnavailable and does not look
// like an unreachable store. The result is never nil.
func listWithFallback(
	ctx context.Context,
	newestFirst bool,
	list func(ordered bool) ([]domain.Complaint, error),
	orderUnavailable func(error) bool,
) ([]domain.Complaint, error) {
	if newestFirst {
		out, err := list(true)
		if err == nil {
			return nonNil(out), nil
		}
		if unreachable(ctx, err) || !orderUnavailable(err) {
			return nil, err
		}
		orderFallbacks.Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Msg("ordered listing unavailable, listing unordered")
	}

	out, err := list(false)
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// unreachable reports whether err means the store could not be reached at
// all, as opposed to rejecting the query.
func unreachable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// purgeBatches drives a batched delete: next fetches up to batchSize
// records, del removes them. The loop stops once a batch comes back short.
func purgeBatches(
	batchSize int,
	onDelete func(domain.Complaint),
	next func(limit int) ([]domain.Complaint, error),
	del func([]domain.Complaint) error,
) (int, error) {
	if batchSize < 1 {
		return 0, ErrBatchSize
	}
	batches := 0
	for {
		recs, err := next(batchSize)
		if err != nil {
			return batches, err
		}
		if len(recs) == 0 {
			return batches, nil
		}
		if err := del(recs); err != nil {
			return batches, err
		}
		batches++
		if onDelete != nil {
			for _, r := range recs {
				onDelete(r)
			}
		}
		if len(recs) < batchSize {
			return batches, nil
		}
	}
}

func nonNil(in []domain.Complaint) []domain.Complaint {
	if in == nil {
		return []domain.Complaint{}
	}
	return in
}
