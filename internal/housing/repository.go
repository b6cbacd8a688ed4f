package housing

import (
	"context"
	"regexp"

	"github.com/Sokol111/student-housing/pkg/persistence/mongo"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const listingsCollection = "listings"

type ListingRepository interface {
	Insert(ctx context.Context, l *Listing) error
	// FindByID returns persistence.ErrEntityNotFound for an unknown id.
	FindByID(ctx context.Context, id string) (*Listing, error)
	// Search returns the matching listings, newest first.
	Search(ctx context.Context, f ListingFilter) ([]*Listing, error)
}

type listingRepository struct {
	*mongo.GenericRepository[Listing, listingEntity]
}

func newListingRepository(m mongo.Mongo) (ListingRepository, error) {
	generic, err := mongo.NewGenericRepository[Listing, listingEntity](m.Collection(listingsCollection), listingMapper{})
	if err != nil {
		return nil, err
	}
	return &listingRepository{GenericRepository: generic}, nil
}

func (r *listingRepository) Search(ctx context.Context, f ListingFilter) ([]*Listing, error) {
	return r.Find(ctx, searchFilter(f), bson.D{{Key: "createdAt", Value: -1}})
}

func searchFilter(f ListingFilter) bson.D {
	filter := bson.D{}
	if f.Location != "" {
		filter = append(filter, bson.E{Key: "location", Value: bson.Regex{Pattern: regexp.QuoteMeta(f.Location), Options: "i"}})
	}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: f.Type})
	}

	price := bson.D{}
	if f.MinPrice != nil {
		price = append(price, bson.E{Key: "$gte", Value: *f.MinPrice})
	}
	if f.MaxPrice != nil {
		price = append(price, bson.E{Key: "$lte", Value: *f.MaxPrice})
	}
	if len(price) > 0 {
		filter = append(filter, bson.E{Key: "price", Value: price})
	}
	return filter
}
