package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

// Member is a membership joined with the member's profile.
type Member struct {
	MembershipID uuid.UUID        `json:"membership_id"`
	UserID       uuid.UUID        `json:"user_id"`
	Email        string           `json:"email"`
	Name         string           `json:"name"`
	Role         enums.MemberRole `json:"role"`
	CreatedAt    time.Time        `json:"created_at"`
}

// CreateSellerInput describes a new seller organization.
type CreateSellerInput struct {
	Name     string         `json:"name" validate:"required,min=2,max=120"`
	PlanTier enums.PlanTier `json:"plan_tier" validate:"omitempty,oneof=free basic pro"`
}

// InviteInput offers a role in a seller organization to an email address.
type InviteInput struct {
	Email string           `json:"email" validate:"required,email"`
	Role  enums.MemberRole `json:"role" validate:"required,enum"`
}

// AssignRoleInput changes an existing member's role.
type AssignRoleInput struct {
	Role enums.MemberRole `json:"role" validate:"required,enum"`
}
