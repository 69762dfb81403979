package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

// Membership grants a user one role inside one seller organization.
type Membership struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SellerOrgID uuid.UUID        `gorm:"column:seller_org_id;type:uuid;not null;uniqueIndex:memberships_seller_user_key"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:memberships_seller_user_key;index"`
	Role        enums.MemberRole `gorm:"column:role;type:text;not null"`
	InvitedBy   *uuid.UUID       `gorm:"column:invited_by;type:uuid"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Membership) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
