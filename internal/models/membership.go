package models

import "time"

// StaffMembership associates a user with a business and the capabilities
// granted to them. Accepting an invitation creates or widens it.
type StaffMembership struct {
	BusinessID  string           `json:"businessId"`
	UserID      string           `json:"userId"`
	Role        string           `json:"role"`
	Permissions StaffPermissions `json:"permissions"`
	InvitedBy   *string          `json:"invitedBy,omitempty"`
	JoinedAt    time.Time        `json:"joinedAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}
