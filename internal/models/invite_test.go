package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvitationIsExpired(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	invite := Invitation{ExpiresAt: deadline}

	assert.False(t, invite.IsExpired(deadline.Add(-time.Second)))
	// now == expiresAt counts as expired.
	assert.True(t, invite.IsExpired(deadline))
	assert.True(t, invite.IsExpired(deadline.Add(time.Second)))
}

func TestInvitationIsTerminal(t *testing.T) {
	assert.False(t, Invitation{Status: InviteStatusPending}.IsTerminal())
	assert.True(t, Invitation{Status: InviteStatusAccepted}.IsTerminal())
	assert.True(t, Invitation{Status: InviteStatusDeclined}.IsTerminal())
	assert.True(t, Invitation{Status: InviteStatusExpired}.IsTerminal())
}

func TestIsValidInviteStatus(t *testing.T) {
	for _, status := range []InviteStatus{InviteStatusPending, InviteStatusAccepted, InviteStatusDeclined, InviteStatusExpired} {
		assert.True(t, IsValidInviteStatus(status), string(status))
	}
	assert.False(t, IsValidInviteStatus("cancelled"))
	assert.False(t, IsValidInviteStatus(""))
}

func TestStaffPermissionsMerge(t *testing.T) {
	existing := StaffPermissions{CanManageBookings: true, CanViewReports: true}
	granted := StaffPermissions{CanManageServices: true, CanViewReports: true}

	merged := existing.Merge(granted)

	assert.True(t, merged.CanManageBookings, "existing capability kept")
	assert.True(t, merged.CanManageServices, "granted capability added")
	assert.True(t, merged.CanViewReports)
	assert.False(t, merged.CanManageStaff)
	assert.False(t, merged.CanManageBusiness)
	assert.False(t, merged.CanManageCustomers)
}
