package listings

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
	apperrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
	"github.com/pixelfair/pixelfair-backend/pkg/visibility"
)

// Service exposes the listing operations available to controllers and the
// ledger engine.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, dto CreateListingDTO) (*models.Listing, error)
	Get(ctx context.Context, requesterID, id uuid.UUID) (*models.Listing, error)
	Search(ctx context.Context, requesterID uuid.UUID, params SearchParams) ([]models.Listing, error)
	Update(ctx context.Context, requesterID, id uuid.UUID, dto UpdateListingDTO) (*models.Listing, error)
	SoftDelete(ctx context.Context, requesterID, id uuid.UUID) error
}

type service struct {
	repo     *Repository
	validate *validator.Validate
}

// NewService wires a listings service with the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	return &service{
		repo:     repo,
		validate: validator.New(),
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, dto CreateListingDTO) (*models.Listing, error) {
	if ownerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "owner identity required")
	}
	if err := s.validate.Struct(dto); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid listing payload")
	}

	listing := dto.ToModel(ownerID)
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating listing")
	}
	return listing, nil
}

func (s *service) Get(ctx context.Context, requesterID, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// Access is settled before lifecycle so a stranger probing a private
	// listing cannot learn whether it was deleted.
	if !listing.Public && listing.OwnerID != requesterID {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "listing is private")
	}
	if err := visibility.EnsureQueryable(listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *service) Search(ctx context.Context, requesterID uuid.UUID, params SearchParams) ([]models.Listing, error) {
	results, err := s.repo.Search(ctx, requesterID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "searching listings")
	}
	return results, nil
}

func (s *service) Update(ctx context.Context, requesterID, id uuid.UUID, dto UpdateListingDTO) (*models.Listing, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid listing patch")
	}

	listing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != requesterID {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "only the owner may update a listing")
	}
	if err := visibility.EnsureQueryable(listing); err != nil {
		return nil, err
	}
	if dto.Empty() {
		return listing, nil
	}

	if dto.Name != nil {
		listing.Name = *dto.Name
	}
	if dto.Description != nil {
		listing.Description = *dto.Description
	}
	if dto.Public != nil {
		listing.Public = *dto.Public
	}
	if dto.Discount != nil {
		listing.Discount = *dto.Discount
	}
	if dto.Inventory != nil {
		listing.Inventory = *dto.Inventory
	}
	if dto.IsAvailable != nil {
		listing.IsAvailable = *dto.IsAvailable
	}

	if dto.Tags != nil {
		if err := s.repo.ReplaceTags(ctx, listing.ID, *dto.Tags); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDependency, err, "replacing listing tags")
		}
		listing.Tags = nil
	}

	// Save without the association so tag rows are not duplicated.
	saved := *listing
	saved.Tags = nil
	if err := s.repo.Save(ctx, &saved); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "saving listing")
	}

	return s.load(ctx, id)
}

func (s *service) SoftDelete(ctx context.Context, requesterID, id uuid.UUID) error {
	listing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if listing.OwnerID != requesterID {
		return apperrors.New(apperrors.CodeUnauthorized, "only the owner may delete a listing")
	}
	if err := visibility.EnsureQueryable(listing); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "deleting listing")
	}
	return nil
}

// load fetches a listing regardless of lifecycle state. Callers settle
// authorization first and then check queryability, so tombstones are only
// observable by users allowed to see the listing at all.
func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "listing not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading listing")
	}
	return listing, nil
}
