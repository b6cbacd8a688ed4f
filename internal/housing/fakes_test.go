package housing

import (
	"context"
	"sync"

	"github.com/Sokol111/student-housing/pkg/persistence"
)

type fakeRepository struct {
	mu         sync.Mutex
	listings   map[string]*Listing
	searchFunc func(ctx context.Context, f ListingFilter) ([]*Listing, error)
	insertErr  error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{listings: map[string]*Listing{}}
}

func (r *fakeRepository) Insert(_ context.Context, l *Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.listings[l.ID] = l
	return nil
}

func (r *fakeRepository) FindByID(_ context.Context, id string) (*Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, persistence.ErrEntityNotFound
	}
	return l, nil
}

func (r *fakeRepository) Search(ctx context.Context, f ListingFilter) ([]*Listing, error) {
	if r.searchFunc != nil {
		return r.searchFunc(ctx, f)
	}
	return []*Listing{}, nil
}
