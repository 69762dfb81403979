package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

// DiscountCode is stored uppercased; lookups normalise before querying.
type DiscountCode struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code          string              `gorm:"column:code;not null;uniqueIndex"`
	Type          enums.DiscountType  `gorm:"column:type;type:text;not null"`
	Value         decimal.Decimal     `gorm:"column:value;type:numeric(12,2);not null"`
	MinOrderValue *decimal.Decimal    `gorm:"column:min_order_value;type:numeric(12,2)"`
	MaxDiscount   *decimal.Decimal    `gorm:"column:max_discount;type:numeric(12,2)"`
	UsageLimit    *int                `gorm:"column:usage_limit"`
	UsedCount     int                 `gorm:"column:used_count;not null;default:0"`
	ExpiresAt     *time.Time          `gorm:"column:expires_at"`
	IsActive      bool                `gorm:"column:is_active;not null;default:true"`
	Scope         enums.DiscountScope `gorm:"column:scope;type:text;not null;default:'store'"`
	SellerOrgID   *uuid.UUID          `gorm:"column:seller_org_id;type:uuid;index"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *DiscountCode) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}
