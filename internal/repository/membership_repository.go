package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bookwell/bookwell-api/internal/errs"
	"github.com/bookwell/bookwell-api/internal/models"
)

// MembershipRepository reads staff memberships. Writes happen inside the
// invite accept transaction; see InviteRepository.AcceptInvite.
type MembershipRepository interface {
	GetMembership(ctx context.Context, businessID, userID string) (models.StaffMembership, error)
	ListByBusiness(ctx context.Context, businessID string) ([]models.StaffMembership, error)
}

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) GetMembership(ctx context.Context, businessID, userID string) (models.StaffMembership, error) {
	const query = `
		SELECT business_id, user_id, role,
			can_manage_services, can_manage_bookings, can_manage_customers,
			can_view_reports, can_manage_staff, can_manage_business,
			invited_by, joined_at, updated_at
		FROM booking.staff_memberships
		WHERE business_id = $1 AND user_id = $2;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	membership, err := scanMembership(r.db.QueryRowContext(ctx, query, businessID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StaffMembership{}, errs.NotFound("membership not found")
		}
		return models.StaffMembership{}, storageErr(err, "get membership")
	}
	return membership, nil
}

func (r *membershipRepository) ListByBusiness(ctx context.Context, businessID string) ([]models.StaffMembership, error) {
	const query = `
		SELECT business_id, user_id, role,
			can_manage_services, can_manage_bookings, can_manage_customers,
			can_view_reports, can_manage_staff, can_manage_business,
			invited_by, joined_at, updated_at
		FROM booking.staff_memberships
		WHERE business_id = $1
		ORDER BY joined_at;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, storageErr(err, "list memberships")
	}
	defer rows.Close()

	var memberships []models.StaffMembership
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, storageErr(err, "scan membership")
		}
		memberships = append(memberships, membership)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "list memberships")
	}
	return memberships, nil
}

func scanMembership(s scanner) (models.StaffMembership, error) {
	var (
		membership models.StaffMembership
		invitedBy  sql.NullString
	)

	if err := s.Scan(
		&membership.BusinessID,
		&membership.UserID,
		&membership.Role,
		&membership.Permissions.CanManageServices,
		&membership.Permissions.CanManageBookings,
		&membership.Permissions.CanManageCustomers,
		&membership.Permissions.CanViewReports,
		&membership.Permissions.CanManageStaff,
		&membership.Permissions.CanManageBusiness,
		&invitedBy,
		&membership.JoinedAt,
		&membership.UpdatedAt,
	); err != nil {
		return models.StaffMembership{}, err
	}

	if invitedBy.Valid {
		membership.InvitedBy = &invitedBy.String
	}
	return membership, nil
}
