package models

// AdminStats aggregates record counts for the admin dashboard.
type AdminStats struct {
	Businesses       int `json:"businesses"`
	Users            int `json:"users"`
	StaffMemberships int `json:"staffMemberships"`
	PendingInvites   int `json:"pendingInvites"`
	AcceptedInvites  int `json:"acceptedInvites"`
	DeclinedInvites  int `json:"declinedInvites"`
	ExpiredInvites   int `json:"expiredInvites"`
}
