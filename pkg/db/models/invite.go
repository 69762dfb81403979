package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

// Invite is a pending offer of membership addressed to an email.
type Invite struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SellerOrgID uuid.UUID          `gorm:"column:seller_org_id;type:uuid;not null;index"`
	Email       string             `gorm:"column:email;not null"`
	Role        enums.MemberRole   `gorm:"column:role;type:text;not null"`
	Status      enums.InviteStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	InvitedBy   uuid.UUID          `gorm:"column:invited_by;type:uuid;not null"`
	AcceptedBy  *uuid.UUID         `gorm:"column:accepted_by;type:uuid"`
	AcceptedAt  *time.Time         `gorm:"column:accepted_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Invite) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
