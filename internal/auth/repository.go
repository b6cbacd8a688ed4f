package auth

import (
	"context"
	"errors"

	"github.com/Sokol111/student-housing/pkg/persistence"
	"github.com/Sokol111/student-housing/pkg/persistence/mongo"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const usersCollection = "users"

// UserRepository stores users keyed by a unique email.
type UserRepository interface {
	// Insert returns ErrEmailExists when the email is taken.
	Insert(ctx context.Context, u *User) error
	// FindByEmail returns persistence.ErrEntityNotFound for an unknown email.
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type userRepository struct {
	*mongo.GenericRepository[User, userEntity]
}

func newUserRepository(m mongo.Mongo) (UserRepository, error) {
	generic, err := mongo.NewGenericRepository[User, userEntity](m.Collection(usersCollection), userMapper{})
	if err != nil {
		return nil, err
	}
	return &userRepository{GenericRepository: generic}, nil
}

func (r *userRepository) Insert(ctx context.Context, u *User) error {
	err := r.GenericRepository.Insert(ctx, u)
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrEmailExists
	}
	return err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.FindOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.Exists(ctx, bson.D{{Key: "email", Value: email}})
}
