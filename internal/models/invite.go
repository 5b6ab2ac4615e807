package models

import "time"

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
	InviteStatusExpired  InviteStatus = "expired"
)

// RoleStaff is the only role an invitation can grant.
const RoleStaff = "staff"

func IsValidInviteStatus(status InviteStatus) bool {
	switch status {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusDeclined, InviteStatusExpired:
		return true
	}
	return false
}

// StaffPermissions is the fixed set of capability flags an invitation can
// grant to a staff membership.
type StaffPermissions struct {
	CanManageServices  bool `json:"canManageServices"`
	CanManageBookings  bool `json:"canManageBookings"`
	CanManageCustomers bool `json:"canManageCustomers"`
	CanViewReports     bool `json:"canViewReports"`
	CanManageStaff     bool `json:"canManageStaff"`
	CanManageBusiness  bool `json:"canManageBusiness"`
}

// Merge unions two permission sets. Accepting an invite never revokes a
// capability the member already holds.
func (p StaffPermissions) Merge(other StaffPermissions) StaffPermissions {
	return StaffPermissions{
		CanManageServices:  p.CanManageServices || other.CanManageServices,
		CanManageBookings:  p.CanManageBookings || other.CanManageBookings,
		CanManageCustomers: p.CanManageCustomers || other.CanManageCustomers,
		CanViewReports:     p.CanViewReports || other.CanViewReports,
		CanManageStaff:     p.CanManageStaff || other.CanManageStaff,
		CanManageBusiness:  p.CanManageBusiness || other.CanManageBusiness,
	}
}

// Invitation grants a prospective staff member the right, via its token,
// to join a business with the recorded permissions.
type Invitation struct {
	ID           string           `json:"id"`
	BusinessID   string           `json:"businessId"`
	BusinessName string           `json:"businessName,omitempty"`
	InvitedBy    string           `json:"invitedBy"`
	Email        string           `json:"email"`
	Role         string           `json:"role"`
	Permissions  StaffPermissions `json:"permissions"`
	Status       InviteStatus     `json:"status"`
	Token        string           `json:"token"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	AcceptedAt   *time.Time       `json:"acceptedAt,omitempty"`
	DeclinedAt   *time.Time       `json:"declinedAt,omitempty"`
	AcceptedBy   *string          `json:"acceptedBy,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// IsExpired reports whether the invite is past its deadline. Expiry is
// evaluated against now at every use, regardless of the stored status.
func (i Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsTerminal reports whether the invite can no longer transition.
func (i Invitation) IsTerminal() bool {
	return i.Status != InviteStatusPending
}
