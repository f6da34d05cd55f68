package transactions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
)

// Repository exposes transaction persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a transactions repo bound to the provided GORM DB.
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

// Create inserts the transaction row.
func (r *Repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// FindByID loads a transaction in any lifecycle state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// Save persists the full transaction row.
func (r *Repository) Save(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

// Search returns non-deleted transactions where the requester is buyer or
// seller, newest first.
func (r *Repository) Search(ctx context.Context, requesterID uuid.UUID, params SearchParams) ([]models.Transaction, error) {
	page := params.Page.Normalize()

	q := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("is_deleted = ?", false).
		Where("(buyer_id = ? OR seller_id = ?)", requesterID, requesterID)

	f := params.Filters
	if f.ListingID != nil {
		q = q.Where("listing_id = ?", *f.ListingID)
	}
	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.DateFrom != nil {
		q = q.Where("date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("date <= ?", *f.DateTo)
	}

	var results []models.Transaction
	if err := q.
		Order("date DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SoftDelete hides the transaction without removing the row.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		UpdateColumn("is_deleted", true).Error
}
