package booking

import (
	"context"

	"github.com/Sokol111/student-housing/pkg/persistence/mongo"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const bookingsCollection = "bookings"

type BookingRepository interface {
	Insert(ctx context.Context, b *Booking) error
	// FindAll returns every booking in insertion order.
	FindAll(ctx context.Context) ([]*Booking, error)
}

type bookingRepository struct {
	*mongo.GenericRepository[Booking, bookingEntity]
}

func newBookingRepository(m mongo.Mongo) (BookingRepository, error) {
	generic, err := mongo.NewGenericRepository[Booking, bookingEntity](m.Collection(bookingsCollection), bookingMapper{})
	if err != nil {
		return nil, err
	}
	return &bookingRepository{GenericRepository: generic}, nil
}

func (r *bookingRepository) FindAll(ctx context.Context) ([]*Booking, error) {
	return r.Find(ctx, nil, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}
