package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sokol111/student-housing/pkg/persistence"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EntityMapper converts between domain models and stored documents.
type EntityMapper[Domain any, Entity any] interface {
	ToEntity(domain *Domain) *Entity
	ToDomain(entity *Entity) *Domain
}

// GenericRepository provides the CRUD operations shared by the service repositories.
type GenericRepository[Domain any, Entity any] struct {
	coll   Collection
	mapper EntityMapper[Domain, Entity]
}

func NewGenericRepository[Domain any, Entity any](
	coll Collection,
	mapper EntityMapper[Domain, Entity],
) (*GenericRepository[Domain, Entity], error) {
	if coll == nil {
		return nil, fmt.Errorf("collection is required")
	}
	if mapper == nil {
		return nil, fmt.Errorf("mapper is required")
	}
	return &GenericRepository[Domain, Entity]{
		coll:   coll,
		mapper: mapper,
	}, nil
}

// Insert stores a new document. A unique index violation yields persistence.ErrDuplicate.
func (r *GenericRepository[Domain, Entity]) Insert(ctx context.Context, domain *Domain) error {
	if _, err := r.coll.InsertOne(ctx, r.mapper.ToEntity(domain)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %w", persistence.ErrDuplicate, err)
		}
		return fmt.Errorf("failed to insert entity: %w", err)
	}
	return nil
}

// FindByID returns persistence.ErrEntityNotFound when no document has the id.
func (r *GenericRepository[Domain, Entity]) FindByID(ctx context.Context, id string) (*Domain, error) {
	return r.FindOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// FindOne returns the first document matching filter.
func (r *GenericRepository[Domain, Entity]) FindOne(ctx context.Context, filter bson.D) (*Domain, error) {
	var entity Entity
	if err := r.coll.FindOne(ctx, filter).Decode(&entity); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, persistence.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to decode entity: %w", err)
	}
	return r.mapper.ToDomain(&entity), nil
}

// Find returns every document matching filter, ordered by sort when given.
func (r *GenericRepository[Domain, Entity]) Find(ctx context.Context, filter bson.D, sort bson.D) ([]*Domain, error) {
	if filter == nil {
		filter = bson.D{}
	}
	findOpts := options.Find()
	if len(sort) > 0 {
		findOpts.SetSort(sort)
	}

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var entities []Entity
	if err = cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}

	domains := make([]*Domain, 0, len(entities))
	for i := range entities {
		domains = append(domains, r.mapper.ToDomain(&entities[i]))
	}
	return domains, nil
}

// Exists reports whether any document matches filter.
func (r *GenericRepository[Domain, Entity]) Exists(ctx context.Context, filter bson.D) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check entity existence: %w", err)
	}
	return count > 0, nil
}

// DeleteAll removes every document and returns how many were deleted.
func (r *GenericRepository[Domain, Entity]) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete entities: %w", err)
	}
	return res.DeletedCount, nil
}
