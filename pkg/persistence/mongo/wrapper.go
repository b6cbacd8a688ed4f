package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionWrapper bounds every call with the query timeout and, when set, the bulkhead.
//
// Cursors returned by Find are bound to the caller's context, not the query timeout,
// so iteration is not cut short after Find returns.
type CollectionWrapper struct {
	coll     Collection
	timeout  time.Duration
	bulkhead *Bulkhead
}

func NewCollectionWrapper(coll Collection, timeout time.Duration, bulkhead *Bulkhead) *CollectionWrapper {
	return &CollectionWrapper{
		coll:     coll,
		timeout:  timeout,
		bulkhead: bulkhead,
	}
}

func (w *CollectionWrapper) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.timeout)
}

func (w *CollectionWrapper) run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := w.withTimeout(ctx)
	defer cancel()
	if w.bulkhead == nil {
		return fn(ctx)
	}
	return w.bulkhead.Execute(ctx, func() error { return fn(ctx) })
}

func (w *CollectionWrapper) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongodriver.SingleResult {
	var res *mongodriver.SingleResult
	err := w.run(ctx, func(ctx context.Context) error {
		res = w.coll.FindOne(ctx, filter, opts...)
		// the result reads lazily with this context, so load the document before it is cancelled
		_, err := res.Raw()
		return err
	})
	if res == nil {
		return mongodriver.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	return res
}

func (w *CollectionWrapper) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongodriver.Cursor, error) {
	var cur *mongodriver.Cursor
	err := w.run(ctx, func(tctx context.Context) error {
		var err error
		cur, err = w.coll.Find(tctx, filter, opts...)
		return err
	})
	return cur, err
}

func (w *CollectionWrapper) InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongodriver.InsertOneResult, error) {
	var res *mongodriver.InsertOneResult
	err := w.run(ctx, func(ctx context.Context) error {
		var err error
		res, err = w.coll.InsertOne(ctx, document, opts...)
		return err
	})
	return res, err
}

func (w *CollectionWrapper) DeleteMany(ctx context.Context, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongodriver.DeleteResult, error) {
	var res *mongodriver.DeleteResult
	err := w.run(ctx, func(ctx context.Context) error {
		var err error
		res, err = w.coll.DeleteMany(ctx, filter, opts...)
		return err
	})
	return res, err
}

func (w *CollectionWrapper) CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error) {
	var n int64
	err := w.run(ctx, func(ctx context.Context) error {
		var err error
		n, err = w.coll.CountDocuments(ctx, filter, opts...)
		return err
	})
	return n, err
}

func (w *CollectionWrapper) Name() string {
	return w.coll.Name()
}
