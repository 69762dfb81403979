package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

// SellerOrg is a tenant that owns products, warehouses, discount codes and staff.
type SellerOrg struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	Name               string                   `gorm:"column:name;not null"`
	OwnerID            uuid.UUID                `gorm:"column:owner_id;type:uuid;not null;index"`
	PlanTier           enums.PlanTier           `gorm:"column:plan_tier;type:text;not null;default:'free'"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;type:text;not null;default:'inactive'"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (SellerOrg) TableName() string { return "seller_orgs" }

func (s *SellerOrg) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
