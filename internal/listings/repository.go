package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
)

// Repository exposes listing persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a listings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the listing together with its tag rows.
func (r *Repository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// FindByID loads a listing in any lifecycle state, tags included.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// Save persists the full listing row.
func (r *Repository) Save(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

// ReplaceTags swaps the listing's tag rows for the provided set.
func (r *Repository) ReplaceTags(ctx context.Context, listingID uuid.UUID, tags []string) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("listing_id = ?", listingID).Delete(&models.ListingTag{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]models.ListingTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, models.ListingTag{ListingID: listingID, Tag: tag})
	}
	return tx.Create(&rows).Error
}

// Search returns visible listings matching the filters, newest first. A
// listing is visible to requester when it is available, not deleted, and
// either public or owned by the requester.
func (r *Repository) Search(ctx context.Context, requesterID uuid.UUID, params SearchParams) ([]models.Listing, error) {
	page := params.Page.Normalize()

	q := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Preload("Tags").
		Where("is_available = ? AND is_deleted = ?", true, false).
		Where("(public = ? OR owner_id = ?)", true, requesterID)

	q = applyFilters(q, params.Filters)

	var results []models.Listing
	if err := q.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func applyFilters(q *gorm.DB, f SearchFilters) *gorm.DB {
	if f.Name != "" {
		q = q.Where("lower(name) LIKE lower(?)", "%"+f.Name+"%")
	}
	if f.Tag != "" {
		q = q.Where(
			"EXISTS (SELECT 1 FROM listing_tags WHERE listing_tags.listing_id = listings.id AND lower(listing_tags.tag) LIKE lower(?))",
			"%"+f.Tag+"%",
		)
	}
	if f.Description != "" {
		q = q.Where("lower(description) LIKE lower(?)", "%"+f.Description+"%")
	}
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	if f.MinDiscount != nil {
		q = q.Where("discount >= ?", *f.MinDiscount)
	}
	if f.MinInventory != nil {
		q = q.Where("inventory >= ?", *f.MinInventory)
	}
	return q
}

// DecrementInventory atomically removes quantity units when the listing is
// live and has enough stock. Returns the number of rows updated; zero means
// the guard failed.
func (r *Repository) DecrementInventory(ctx context.Context, id uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND is_deleted = ? AND is_available = ? AND inventory >= ?", id, false, true, quantity).
		UpdateColumn("inventory", gorm.Expr("inventory - ?", quantity))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// IncrementInventory restores quantity units, used when a purchase is
// reversed. The row is updated even if the listing was soft deleted since
// the stock still belongs to its owner.
func (r *Repository) IncrementInventory(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("inventory", gorm.Expr("inventory + ?", quantity)).Error
}

// SoftDelete hides the listing without removing the row.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("is_deleted", true).Error
}
