package booking

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const StatusPending = "pending"

type Booking struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	ListingID string    `json:"listingId"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type bookingEntity struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	ListingID string    `bson:"listingId"`
	Date      string    `bson:"date"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
}

type bookingMapper struct{}

func (bookingMapper) ToEntity(b *Booking) *bookingEntity {
	e := bookingEntity(*b)
	return &e
}

func (bookingMapper) ToDomain(e *bookingEntity) *Booking {
	b := Booking(*e)
	return &b
}

func newBookingID() string {
	return bson.NewObjectID().Hex()
}
