package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixelfair/pixelfair-backend/pkg/enums"
)

// LedgerEvent is an append-only audit record written in the same database
// transaction as the balance/inventory mutations it describes.
type LedgerEvent struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TransactionID uuid.UUID             `gorm:"column:transaction_id;type:uuid;not null;index" json:"transaction"`
	ListingID     uuid.UUID             `gorm:"column:listing_id;type:uuid;not null" json:"image"`
	BuyerID       uuid.UUID             `gorm:"column:buyer_id;type:uuid;not null" json:"buyer"`
	SellerID      uuid.UUID             `gorm:"column:seller_id;type:uuid;not null" json:"seller"`
	Type          enums.LedgerEventType `gorm:"column:type;not null" json:"type"`
	Amount        float64               `gorm:"column:amount;not null" json:"amount"`
	Quantity      int                   `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
