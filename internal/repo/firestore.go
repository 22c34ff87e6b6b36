package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbourn/campuspulse-backend/internal/config"
	"github.com/tbourn/campuspulse-backend/internal/domain"
)

// FirestoreGateway stores complaints as documents in a Firestore collection.
// IDs are the auto-generated document IDs.
type FirestoreGateway struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
}

// OpenFirestore creates a client for cfg.ProjectID / cfg.FirestoreDatabase.
// Credentials come from cfg.CredentialsFile when set, otherwise from the
// environment (Application Default Credentials or FIRESTORE_EMULATOR_HOST).
func OpenFirestore(ctx context.Context, cfg config.StoreConfig) (*FirestoreGateway, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	project := cfg.ProjectID
	if project == "" {
		project = firestore.DetectProjectID
	}
	database := cfg.FirestoreDatabase
	if database == "" {
		database = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, project, database, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return NewFirestoreGateway(client, cfg.Collection), nil
}

// NewFirestoreGateway binds client to the named collection.
func NewFirestoreGateway(client *firestore.Client, collection string) *FirestoreGateway {
	return &FirestoreGateway{client: client, coll: client.Collection(collection)}
}

// Create adds c as a new document. Add returns after the write commits.
func (g *FirestoreGateway) Create(ctx context.Context, c *domain.Complaint) (string, error) {
	ref, _, err := g.coll.Add(ctx, *c)
	if err != nil {
		return "", err
	}
	c.ID = ref.ID
	return ref.ID, nil
}

// ListAll streams the whole collection, ordered by created_at descending
// when requested. A FailedPrecondition (the ordering index is missing)
// degrades to an unordered read.
func (g *FirestoreGateway) ListAll(ctx context.Context, newestFirst bool) ([]domain.Complaint, error) {
	return listWithFallback(ctx, newestFirst, func(ordered bool) ([]domain.Complaint, error) {
		q := g.coll.Query
		if ordered {
			q = g.coll.OrderBy("created_at", firestore.Desc)
		}
		return g.read(ctx, q)
	}, firestoreOrderUnavailable)
}

func (g *FirestoreGateway) read(ctx context.Context, q firestore.Query) ([]domain.Complaint, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Complaint, 0, len(docs))
	for _, d := range docs {
		var c domain.Complaint
		if err := d.DataTo(&c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.Ref.ID, err)
		}
		c.ID = d.Ref.ID
		out = append(out, c)
	}
	return out, nil
}

func firestoreOrderUnavailable(err error) bool {
	return status.Code(err) == codes.FailedPrecondition
}

// Purge deletes all documents in batches, one delete per document.
func (g *FirestoreGateway) Purge(ctx context.Context, batchSize int, onDelete func(domain.Complaint)) (int, error) {
	return purgeBatches(batchSize, onDelete,
		func(limit int) ([]domain.Complaint, error) {
			return g.read(ctx, g.coll.Limit(limit))
		},
		func(recs []domain.Complaint) error {
			for _, r := range recs {
				if _, err := g.coll.Doc(r.ID).Delete(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// Close releases the client.
func (g *FirestoreGateway) Close(context.Context) error {
	return g.client.Close()
}
