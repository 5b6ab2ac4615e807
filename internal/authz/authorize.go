package authz

import "github.com/bookwell/bookwell-api/internal/models"

// CanManageStaff reports whether a user may issue or cancel invites for a
// business: the owner always can, otherwise the caller's membership must
// carry the manage-staff capability.
func CanManageStaff(business models.Business, membership models.StaffMembership, userID string) bool {
	if business.OwnerID == userID {
		return true
	}
	if membership.BusinessID != business.ID || membership.UserID != userID {
		return false
	}
	return membership.Permissions.CanManageStaff
}
