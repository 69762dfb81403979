package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

// User is a platform identity. Subscription fields describe the seller plan the
// user pays for and are written only by payment settlement.
type User struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	Email              string                   `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name               string                   `gorm:"column:name;not null;default:''"`
	Phone              *string                  `gorm:"column:phone"`
	SystemRole         enums.SystemRole         `gorm:"column:system_role;type:text;not null;default:'buyer'"`
	SubscriptionID     *string                  `gorm:"column:subscription_id;uniqueIndex"`
	SubscriptionPlan   *string                  `gorm:"column:subscription_plan"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;type:text;not null;default:'inactive'"`
	NextBillingDate    *time.Time               `gorm:"column:next_billing_date"`
	BillingCycle       *enums.BillingCycle      `gorm:"column:billing_cycle;type:text"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
