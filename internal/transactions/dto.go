package transactions

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
	"github.com/pixelfair/pixelfair-backend/pkg/enums"
	"github.com/pixelfair/pixelfair-backend/pkg/pagination"
)

// Patch is a partial transaction update; nil fields are left untouched.
// Any tagged field may be patched, the ledger engine decides whether a
// status change triggers compensation.
type Patch struct {
	Status   *int       `json:"status" validate:"omitempty,gte=0,lte=3"`
	Price    *float64   `json:"price" validate:"omitempty,gte=0"`
	Quantity *int       `json:"quantity" validate:"omitempty,gt=0"`
	Date     *time.Time `json:"date"`
}

// Empty reports whether the patch carries no changes.
func (p Patch) Empty() bool {
	return p.Status == nil && p.Price == nil && p.Quantity == nil && p.Date == nil
}

// Apply copies the populated fields onto the transaction.
func (p Patch) Apply(txn *models.Transaction) {
	if p.Status != nil {
		txn.Status = enums.TransactionStatus(*p.Status)
	}
	if p.Price != nil {
		txn.Price = *p.Price
	}
	if p.Quantity != nil {
		txn.Quantity = *p.Quantity
	}
	if p.Date != nil {
		txn.Date = *p.Date
	}
}

// SearchFilters narrows a transaction search. All populated filters must
// hold at once; results are always scoped to rows where the requester is
// the buyer or the seller.
type SearchFilters struct {
	ListingID *uuid.UUID
	BuyerID   *uuid.UUID
	SellerID  *uuid.UUID
	Status    *int
	DateFrom  *time.Time
	DateTo    *time.Time
}

// SearchParams bundles filters with pagination.
type SearchParams struct {
	Filters SearchFilters
	Page    pagination.Params
}
