package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixelfair/pixelfair-backend/pkg/visibility"
)

// Listing is a sellable image record. Inventory is mutated only by the
// ledger engine; the row survives deletion as a hidden tombstone.
type Listing struct {
	ID               uuid.UUID    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name             string       `gorm:"column:name;not null" json:"name"`
	Description      string       `gorm:"column:description" json:"description"`
	Tags             []ListingTag `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"tags"`
	Public           bool         `gorm:"column:public;not null;default:false" json:"public"`
	OwnerID          uuid.UUID    `gorm:"column:owner_id;type:uuid;not null;index" json:"owner"`
	Discount         float64      `gorm:"column:discount;not null;default:0" json:"discount"`
	Inventory        int          `gorm:"column:inventory;not null;default:0" json:"inventory"`
	ImageData        []byte       `gorm:"column:image_data" json:"-"`
	ImageContentType string       `gorm:"column:image_content_type" json:"image_content_type,omitempty"`
	// No gorm default here: a default:true tag makes gorm skip the column
	// when the field is false, so false would never reach the database.
	IsAvailable bool      `gorm:"column:is_available;not null" json:"is_available"`
	IsDeleted   bool      `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Lifecycle implements visibility.Record.
func (l Listing) Lifecycle() visibility.Lifecycle {
	if l.IsDeleted {
		return visibility.LifecycleDeleted
	}
	return visibility.LifecycleActive
}

// ListingTag is one tag attached to a listing. Tags live in their own table
// so substring filters work the same on Postgres and the sqlite test DBs.
type ListingTag struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index" json:"-"`
	Tag       string    `gorm:"column:tag;not null" json:"tag"`
}

// TagStrings flattens the tag rows into plain strings for responses.
func (l Listing) TagStrings() []string {
	out := make([]string, 0, len(l.Tags))
	for _, t := range l.Tags {
		out = append(out, t.Tag)
	}
	return out
}
