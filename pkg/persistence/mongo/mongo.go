package mongo

import (
	"context"
	"fmt"

	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Mongo is what repositories depend on.
type Mongo interface {
	Collection(name string) Collection
}

// Admin is used by infrastructure code (migrations, tests).
type Admin interface {
	Mongo
	Database() *mongodriver.Database
}

type mongo struct {
	client   *mongodriver.Client
	database *mongodriver.Database
	bulkhead *Bulkhead
	conf     Config
	log      *zap.Logger
}

func newMongo(log *zap.Logger, conf Config, tracer trace.TracerProvider) (*mongo, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	clientOptions := options.Client().
		ApplyURI(conf.URI()).
		SetAppName(conf.Database).
		SetMaxPoolSize(conf.MaxPoolSize).
		SetMinPoolSize(conf.MinPoolSize).
		SetMaxConnIdleTime(conf.MaxConnIdleTime).
		SetConnectTimeout(conf.ConnectTimeout).
		SetServerSelectionTimeout(conf.ConnectTimeout)
	if tracer != nil {
		clientOptions.SetMonitor(otelmongo.NewMonitor(otelmongo.WithTracerProvider(tracer)))
	}

	// Connect only builds the client; the first round trip happens in connect.
	client, err := mongodriver.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &mongo{
		client:   client,
		database: client.Database(conf.Database),
		bulkhead: NewBulkhead(conf.MaxConcurrentQueries, log),
		conf:     conf,
		log:      log,
	}, nil
}

func (m *mongo) connect(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, m.conf.ConnectTimeout)
	defer cancel()

	if err := m.client.Ping(c, nil); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}

	m.log.Info("connected to mongo",
		zap.String("database", m.conf.Database),
		zap.Uint64("max-pool-size", m.conf.MaxPoolSize),
		zap.Uint64("min-pool-size", m.conf.MinPoolSize),
		zap.Duration("query-timeout", m.conf.QueryTimeout),
	)
	return nil
}

// Collection returns name wrapped with the query timeout and bulkhead.
func (m *mongo) Collection(name string) Collection {
	return NewCollectionWrapper(m.database.Collection(name), m.conf.QueryTimeout, m.bulkhead)
}

func (m *mongo) Database() *mongodriver.Database {
	return m.database
}

func (m *mongo) disconnect(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, m.conf.ConnectTimeout)
	defer cancel()
	if err := m.client.Disconnect(c); err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}
	m.log.Info("disconnected from mongo")
	return nil
}
