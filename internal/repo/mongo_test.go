package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

func mongoDoc(id primitive.ObjectID, text, createdAt string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "complaint_text", Value: text},
		{Key: "user_id", Value: domain.AnonymousUserID},
		{Key: "created_at", Value: createdAt},
		{Key: "status", Value: domain.StatusOpen},
		{Key: "category", Value: string(domain.CategoryInfrastructure)},
		{Key: "urgency", Value: string(domain.UrgencyHigh)},
		{Key: "sentiment", Value: string(domain.SentimentNegative)},
		{Key: "summary", Value: "Broken heater."},
		{Key: "suggested_action", Value: "Send maintenance."},
	}
}

func TestMongoGateway(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create returns object id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		g := NewMongoGateway(mt.Coll)

		c := complaintAt("heater broken", testNow)
		id, err := g.Create(context.Background(), &c)
		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(id)
		assert.NoError(mt, err)
		assert.Equal(mt, id, c.ID)
	})

	mt.Run("create error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		g := NewMongoGateway(mt.Coll)

		c := complaintAt("heater broken", testNow)
		_, err := g.Create(context.Background(), &c)
		assert.Error(mt, err)
	})

	mt.Run("list decodes records with ids", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			mongoDoc(b, "newer", "2025-04-02T10:31:00.000000Z"),
			mongoDoc(a, "older", "2025-04-02T10:30:00.000000Z"),
		))
		g := NewMongoGateway(mt.Coll)

		out, err := g.ListAll(context.Background(), true)
		require.NoError(mt, err)
		require.Len(mt, out, 2)
		assert.Equal(mt, b.Hex(), out[0].ID)
		assert.Equal(mt, "newer", out[0].ComplaintText)
		assert.Equal(mt, domain.CategoryInfrastructure, out[0].Category)
		assert.Equal(mt, a.Hex(), out[1].ID)
	})

	mt.Run("sort failure degrades to unordered", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    292,
				Name:    "QueryExceededMemoryLimitNoDiskUseAllowed",
				Message: "Sort exceeded memory limit",
			}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				mongoDoc(primitive.NewObjectID(), "only", "2025-04-02T10:30:00.000000Z"),
			),
		)
		g := NewMongoGateway(mt.Coll)

		out, err := g.ListAll(context.Background(), true)
		require.NoError(mt, err)
		assert.Len(mt, out, 1)
	})

	mt.Run("network error is returned", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    6,
			Name:    "HostUnreachable",
			Message: "connection lost",
			Labels:  []string{"NetworkError"},
		}))
		g := NewMongoGateway(mt.Coll)

		_, err := g.ListAll(context.Background(), true)
		assert.Error(mt, err)
	})

	mt.Run("empty collection lists as empty slice", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		g := NewMongoGateway(mt.Coll)

		out, err := g.ListAll(context.Background(), false)
		require.NoError(mt, err)
		assert.NotNil(mt, out)
		assert.Empty(mt, out)
	})

	mt.Run("purge deletes in batches", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				mongoDoc(primitive.NewObjectID(), "one", "2025-04-02T10:30:00.000000Z"),
				mongoDoc(primitive.NewObjectID(), "two", "2025-04-02T10:31:00.000000Z"),
			),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				mongoDoc(primitive.NewObjectID(), "three", "2025-04-02T10:32:00.000000Z"),
			),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)
		g := NewMongoGateway(mt.Coll)

		var deleted []string
		batches, err := g.Purge(context.Background(), 2, func(c domain.Complaint) {
			deleted = append(deleted, c.ComplaintText)
		})
		require.NoError(mt, err)
		assert.Equal(mt, 2, batches)
		assert.Equal(mt, []string{"one", "two", "three"}, deleted)
	})

	mt.Run("close without owned client", func(mt *mtest.T) {
		assert.NoError(mt, NewMongoGateway(mt.Coll).Close(context.Background()))
	})
}
