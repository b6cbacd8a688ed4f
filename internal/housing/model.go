package housing

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Listing struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Location  string    `json:"location"`
	Type      string    `json:"type"`
	OwnerID   string    `json:"ownerId"`
	Amenities []string  `json:"amenities"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListingFilter narrows a search. Zero values match everything.
type ListingFilter struct {
	// Location matches case-insensitively anywhere in the listing location.
	Location string   `json:"location"`
	Type     string   `json:"type"`
	MinPrice *float64 `json:"minPrice"`
	MaxPrice *float64 `json:"maxPrice"`
}

type listingEntity struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Price     float64   `bson:"price"`
	Location  string    `bson:"location"`
	Type      string    `bson:"type"`
	OwnerID   string    `bson:"ownerId"`
	Amenities []string  `bson:"amenities"`
	CreatedAt time.Time `bson:"createdAt"`
}

type listingMapper struct{}

func (listingMapper) ToEntity(l *Listing) *listingEntity {
	e := listingEntity(*l)
	return &e
}

func (listingMapper) ToDomain(e *listingEntity) *Listing {
	l := Listing(*e)
	if l.Amenities == nil {
		l.Amenities = []string{}
	}
	return &l
}

func newListingID() string {
	return bson.NewObjectID().Hex()
}
