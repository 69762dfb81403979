package enums

import "fmt"

// InviteStatus is the state of a team invitation.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
)

var validInviteStatuses = []InviteStatus{
	InviteStatusPending,
	InviteStatusAccepted,
	InviteStatusRevoked,
}

// String implements fmt.Stringer.
func (v InviteStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known InviteStatus.
func (v InviteStatus) IsValid() bool {
	for _, candidate := range validInviteStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseInviteStatus converts raw input into a InviteStatus.
func ParseInviteStatus(value string) (InviteStatus, error) {
	for _, candidate := range validInviteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invite status %q", value)
}
