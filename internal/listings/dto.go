package listings

import (
	"github.com/google/uuid"

	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
	"github.com/pixelfair/pixelfair-backend/pkg/pagination"
)

// CreateListingDTO captures the fields accepted when publishing a listing.
type CreateListingDTO struct {
	Name             string   `json:"name" validate:"required"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	Public           bool     `json:"public"`
	Discount         float64  `json:"discount" validate:"gte=0"`
	Inventory        int      `json:"inventory" validate:"gte=0"`
	ImageData        []byte   `json:"-"`
	ImageContentType string   `json:"-"`
}

// ToModel maps the DTO onto a persistable listing owned by ownerID.
func (d CreateListingDTO) ToModel(ownerID uuid.UUID) *models.Listing {
	tags := make([]models.ListingTag, 0, len(d.Tags))
	for _, tag := range d.Tags {
		tags = append(tags, models.ListingTag{Tag: tag})
	}
	return &models.Listing{
		ID:               uuid.New(),
		Name:             d.Name,
		Description:      d.Description,
		Tags:             tags,
		Public:           d.Public,
		OwnerID:          ownerID,
		Discount:         d.Discount,
		Inventory:        d.Inventory,
		ImageData:        d.ImageData,
		ImageContentType: d.ImageContentType,
		IsAvailable:      true,
	}
}

// UpdateListingDTO is a partial patch; nil fields are left untouched.
type UpdateListingDTO struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Public      *bool     `json:"public"`
	Discount    *float64  `json:"discount" validate:"omitempty,gte=0"`
	Inventory   *int      `json:"inventory" validate:"omitempty,gte=0"`
	IsAvailable *bool     `json:"is_available"`
}

// Empty reports whether the patch carries no changes.
func (d UpdateListingDTO) Empty() bool {
	return d.Name == nil && d.Description == nil && d.Tags == nil &&
		d.Public == nil && d.Discount == nil && d.Inventory == nil &&
		d.IsAvailable == nil
}

// SearchFilters narrows a listing search. String filters match substrings
// case-insensitively; all populated filters must hold at once.
type SearchFilters struct {
	Name         string
	Description  string
	Tag          string
	OwnerID      *uuid.UUID
	MinDiscount  *float64
	MinInventory *int
}

// SearchParams bundles filters with pagination.
type SearchParams struct {
	Filters SearchFilters
	Page    pagination.Params
}
