package mongo

import (
	"context"

	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type fakeCollection struct {
	findOne        func(ctx context.Context, filter any) *mongodriver.SingleResult
	find           func(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongodriver.Cursor, error)
	insertOne      func(ctx context.Context, document any) (*mongodriver.InsertOneResult, error)
	deleteMany     func(ctx context.Context, filter any) (*mongodriver.DeleteResult, error)
	countDocuments func(ctx context.Context, filter any) (int64, error)
}

func (f *fakeCollection) FindOne(ctx context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongodriver.SingleResult {
	return f.findOne(ctx, filter)
}

func (f *fakeCollection) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongodriver.Cursor, error) {
	return f.find(ctx, filter, opts...)
}

func (f *fakeCollection) InsertOne(ctx context.Context, document any, _ ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error) {
	return f.insertOne(ctx, document)
}

func (f *fakeCollection) DeleteMany(ctx context.Context, filter any, _ ...options.Lister[options.DeleteManyOptions]) (*mongodriver.DeleteResult, error) {
	return f.deleteMany(ctx, filter)
}

func (f *fakeCollection) CountDocuments(ctx context.Context, filter any, _ ...options.Lister[options.CountOptions]) (int64, error) {
	return f.countDocuments(ctx, filter)
}

func (f *fakeCollection) Name() string {
	return "fake"
}
