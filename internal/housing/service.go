package housing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Sokol111/student-housing/pkg/persistence"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
)

var ErrListingNotFound = errors.New("listing not found")

type CreateListingCommand struct {
	Title     string   `json:"title"`
	Price     float64  `json:"price"`
	Location  string   `json:"location"`
	Type      string   `json:"type"`
	OwnerID   string   `json:"ownerId"`
	Amenities []string `json:"amenities"`
}

func (c CreateListingCommand) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Price, validation.Min(0.0)),
		validation.Field(&c.Location, validation.Length(0, 200)),
		validation.Field(&c.Amenities, validation.Each(validation.Required)),
	)
}

func (f ListingFilter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.MinPrice, validation.Min(0.0)),
		validation.Field(&f.MaxPrice, validation.Min(0.0), validation.When(f.MinPrice != nil,
			validation.By(func(any) error {
				if f.MaxPrice != nil && *f.MaxPrice < *f.MinPrice {
					return errors.New("must not be less than minPrice")
				}
				return nil
			}),
		)),
	)
}

type Service interface {
	Create(ctx context.Context, cmd CreateListingCommand) (*Listing, error)
	Get(ctx context.Context, id string) (*Listing, error)
	Search(ctx context.Context, f ListingFilter) ([]*Listing, error)
}

type service struct {
	repo ListingRepository
	now  func() time.Time
}

func newService(repo ListingRepository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, cmd CreateListingCommand) (*Listing, error) {
	cmd.Title = strings.TrimSpace(cmd.Title)
	cmd.Amenities = lo.Map(cmd.Amenities, func(a string, _ int) string { return strings.TrimSpace(a) })
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	listing := &Listing{
		ID:        newListingID(),
		Title:     cmd.Title,
		Price:     cmd.Price,
		Location:  strings.TrimSpace(cmd.Location),
		Type:      cmd.Type,
		OwnerID:   cmd.OwnerID,
		Amenities: lo.Uniq(cmd.Amenities),
		CreatedAt: s.now().UTC(),
	}
	if listing.Amenities == nil {
		listing.Amenities = []string{}
	}
	if err := s.repo.Insert(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *service) Get(ctx context.Context, id string) (*Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, persistence.ErrEntityNotFound) {
		return nil, ErrListingNotFound
	}
	return listing, err
}

func (s *service) Search(ctx context.Context, f ListingFilter) ([]*Listing, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, f)
}
