package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixelfair/pixelfair-backend/pkg/enums"
	"github.com/pixelfair/pixelfair-backend/pkg/visibility"
)

// Transaction is the immutable record of one purchase. Price and Quantity
// are captured at sale time and drive the return compensation; Status is the
// only field with guarded transition semantics.
type Transaction struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BuyerID   uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;index" json:"buyer"`
	SellerID  uuid.UUID               `gorm:"column:seller_id;type:uuid;not null;index" json:"seller"`
	ListingID uuid.UUID               `gorm:"column:listing_id;type:uuid;not null;index" json:"image"`
	Price     float64                 `gorm:"column:price;not null" json:"price"`
	Quantity  int                     `gorm:"column:quantity;not null" json:"quantity"`
	Date      time.Time               `gorm:"column:date;not null" json:"date"`
	Status    enums.TransactionStatus `gorm:"column:status;not null;default:0" json:"status"`
	IsDeleted bool                    `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Total is the amount moved between buyer and seller at sale time.
func (t Transaction) Total() float64 {
	return t.Price * float64(t.Quantity)
}

// Lifecycle implements visibility.Record.
func (t Transaction) Lifecycle() visibility.Lifecycle {
	if t.IsDeleted {
		return visibility.LifecycleDeleted
	}
	return visibility.LifecycleActive
}
