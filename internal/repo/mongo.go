package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

// MongoGateway stores complaints as documents in a MongoDB collection. IDs
// are ObjectID hex strings.
type MongoGateway struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoComplaint adds the _id field to the stored document.
type mongoComplaint struct {
	ObjectID         primitive.ObjectID `bson:"_id,omitempty"`
	domain.Complaint `bson:",inline"`
}

func (m mongoComplaint) record() domain.Complaint {
	c := m.Complaint
	c.ID = m.ObjectID.Hex()
	return c
}

// OpenMongo connects to uri, verifies the connection and returns a gateway
// on database.collection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoGateway, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	g := NewMongoGateway(client.Database(database).Collection(collection))
	g.client = client
	return g, nil
}

// NewMongoGateway wraps an existing collection. The gateway does not own the
// client and Close is a no-op.
func NewMongoGateway(coll *mongo.Collection) *MongoGateway {
	return &MongoGateway{coll: coll}
}

// Create inserts c and returns the generated ObjectID as hex.
func (g *MongoGateway) Create(ctx context.Context, c *domain.Complaint) (string, error) {
	res, err := g.coll.InsertOne(ctx, mongoComplaint{Complaint: *c})
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	c.ID = oid.Hex()
	return c.ID, nil
}

// ListAll returns every document, newest first when requested. Server-side
// query errors (e.g. a sort exceeding memory limits) degrade to an unsorted
// read; network errors and timeouts do not.
func (g *MongoGateway) ListAll(ctx context.Context, newestFirst bool) ([]domain.Complaint, error) {
	return listWithFallback(ctx, newestFirst, func(ordered bool) ([]domain.Complaint, error) {
		opts := options.Find()
		if ordered {
			opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
		}
		return g.find(ctx, opts)
	}, mongoOrderUnavailable)
}

func (g *MongoGateway) find(ctx context.Context, opts *options.FindOptions) ([]domain.Complaint, error) {
	cur, err := g.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []mongoComplaint
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Complaint, len(docs))
	for i, d := range docs {
		out[i] = d.record()
	}
	return out, nil
}

func mongoOrderUnavailable(err error) bool {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return false
	}
	var se mongo.ServerError
	return errors.As(err, &se)
}

// Purge deletes all documents in batches.
func (g *MongoGateway) Purge(ctx context.Context, batchSize int, onDelete func(domain.Complaint)) (int, error) {
	return purgeBatches(batchSize, onDelete,
		func(limit int) ([]domain.Complaint, error) {
			return g.find(ctx, options.Find().SetLimit(int64(limit)))
		},
		func(recs []domain.Complaint) error {
			ids := make([]primitive.ObjectID, 0, len(recs))
			for _, r := range recs {
				oid, err := primitive.ObjectIDFromHex(r.ID)
				if err != nil {
					return err
				}
				ids = append(ids, oid)
			}
			_, err := g.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
			return err
		},
	)
}

// Close disconnects the client when the gateway owns it.
func (g *MongoGateway) Close(ctx context.Context) error {
	if g.client == nil {
		return nil
	}
	return g.client.Disconnect(ctx)
}
