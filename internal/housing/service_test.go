package housing

import (
	"context"
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(repo ListingRepository) *service {
	svc := newService(repo).(*service)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func ptr(v float64) *float64 { return &v }

func TestCreate(t *testing.T) {
	t.Run("stores listing", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo)

		listing, err := svc.Create(context.Background(), CreateListingCommand{
			Title:     " Room near campus ",
			Price:     1500,
			Location:  "Nasr City",
			Type:      "room",
			OwnerID:   "o1",
			Amenities: []string{"wifi", " wifi", "ac"},
		})

		require.NoError(t, err)
		assert.Len(t, listing.ID, 24)
		assert.Equal(t, "Room near campus", listing.Title)
		assert.Equal(t, []string{"wifi", "ac"}, listing.Amenities)
		assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), listing.CreatedAt)

		stored, err := repo.FindByID(context.Background(), listing.ID)
		require.NoError(t, err)
		assert.Equal(t, listing, stored)
	})

	t.Run("no amenities renders as empty list", func(t *testing.T) {
		listing, err := newTestService(newFakeRepository()).Create(context.Background(), CreateListingCommand{Title: "Flat"})

		require.NoError(t, err)
		assert.NotNil(t, listing.Amenities)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := newTestService(newFakeRepository()).Create(context.Background(), CreateListingCommand{Price: -1, Amenities: []string{" "}})

		var verr validation.Errors
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr, "title")
		assert.Contains(t, verr, "price")
		assert.Contains(t, verr, "amenities")
	})

	t.Run("store failure", func(t *testing.T) {
		repo := newFakeRepository()
		repo.insertErr = errors.New("boom")

		_, err := newTestService(repo).Create(context.Background(), CreateListingCommand{Title: "Flat"})

		assert.EqualError(t, err, "boom")
	})
}

func TestGet(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	created, err := svc.Create(context.Background(), CreateListingCommand{Title: "Flat"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestSearch_Validation(t *testing.T) {
	tests := []struct {
		name    string
		filter  ListingFilter
		wantErr bool
	}{
		{name: "empty", filter: ListingFilter{}},
		{name: "range", filter: ListingFilter{MinPrice: ptr(100), MaxPrice: ptr(200)}},
		{name: "equal bounds", filter: ListingFilter{MinPrice: ptr(100), MaxPrice: ptr(100)}},
		{name: "inverted range", filter: ListingFilter{MinPrice: ptr(300), MaxPrice: ptr(200)}, wantErr: true},
		{name: "negative min", filter: ListingFilter{MinPrice: ptr(-1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			called := false
			repo.searchFunc = func(context.Context, ListingFilter) ([]*Listing, error) {
				called = true
				return nil, nil
			}

			_, err := newTestService(repo).Search(context.Background(), tt.filter)

			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, called)
				return
			}
			assert.NoError(t, err)
			assert.True(t, called)
		})
	}
}
