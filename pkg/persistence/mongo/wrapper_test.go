package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

func TestCollectionWrapper_AppliesQueryTimeout(t *testing.T) {
	var deadline time.Time
	coll := &fakeCollection{
		insertOne: func(ctx context.Context, _ any) (*mongodriver.InsertOneResult, error) {
			var ok bool
			deadline, ok = ctx.Deadline()
			require.True(t, ok)
			return &mongodriver.InsertOneResult{InsertedID: "1"}, nil
		},
	}
	w := NewCollectionWrapper(coll, time.Second, nil)

	start := time.Now()
	res, err := w.InsertOne(context.Background(), bson.D{})

	require.NoError(t, err)
	assert.Equal(t, "1", res.InsertedID)
	assert.WithinDuration(t, start.Add(time.Second), deadline, 100*time.Millisecond)
}

func TestCollectionWrapper_ZeroTimeoutKeepsCallerDeadline(t *testing.T) {
	coll := &fakeCollection{
		countDocuments: func(ctx context.Context, _ any) (int64, error) {
			_, ok := ctx.Deadline()
			assert.False(t, ok)
			return 3, nil
		},
	}
	w := NewCollectionWrapper(coll, 0, nil)

	n, err := w.CountDocuments(context.Background(), bson.D{})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCollectionWrapper_FindOneLoadsDocumentBeforeReturning(t *testing.T) {
	coll := &fakeCollection{
		findOne: func(ctx context.Context, _ any) *mongodriver.SingleResult {
			return mongodriver.NewSingleResultFromDocument(bson.D{{Key: "name", Value: "Studio"}}, nil, nil)
		},
	}
	w := NewCollectionWrapper(coll, time.Second, nil)

	var doc struct {
		Name string `bson:"name"`
	}
	require.NoError(t, w.FindOne(context.Background(), bson.D{}).Decode(&doc))
	assert.Equal(t, "Studio", doc.Name)
}

func TestCollectionWrapper_Bulkhead(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	coll := &fakeCollection{
		deleteMany: func(ctx context.Context, _ any) (*mongodriver.DeleteResult, error) {
			close(entered)
			<-release
			return &mongodriver.DeleteResult{DeletedCount: 1}, nil
		},
		countDocuments: func(context.Context, any) (int64, error) {
			return 0, nil
		},
	}
	w := NewCollectionWrapper(coll, 50*time.Millisecond, NewBulkhead(1, zap.NewNop()))

	done := make(chan error, 1)
	go func() {
		_, err := w.DeleteMany(context.Background(), bson.D{})
		done <- err
	}()
	<-entered

	_, err := w.CountDocuments(context.Background(), bson.D{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)

	_, err = w.CountDocuments(context.Background(), bson.D{})
	assert.NoError(t, err)
}

func TestNewBulkhead_DisabledWithoutLimit(t *testing.T) {
	assert.Nil(t, NewBulkhead(0, zap.NewNop()))
}
