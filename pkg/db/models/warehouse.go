package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/types"
)

// Warehouse is a seller pickup location. CourierPickupName is the alias the
// courier assigned when the location was registered; empty until then.
type Warehouse struct {
	ID                uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	SellerOrgID       uuid.UUID     `gorm:"column:seller_org_id;type:uuid;not null;index"`
	Name              string        `gorm:"column:name;not null"`
	Address           types.Address `gorm:"column:address;type:jsonb;serializer:json;not null"`
	CourierPickupName string        `gorm:"column:courier_pickup_name;not null;default:''"`
	CreatedAt         time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Warehouse) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	return nil
}
