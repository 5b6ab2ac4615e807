package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bookwell/bookwell-api/internal/errs"
	"github.com/bookwell/bookwell-api/internal/models"
)

// inviteColumns is the scan order shared by every invite query.
const inviteColumns = `i.id, i.business_id, i.invited_by, i.email, i.role,
		i.can_manage_services, i.can_manage_bookings, i.can_manage_customers,
		i.can_view_reports, i.can_manage_staff, i.can_manage_business,
		i.status, i.token, i.expires_at, i.accepted_at, i.declined_at, i.accepted_by,
		i.created_at, i.updated_at`

type InviteRepository interface {
	CreateInvite(ctx context.Context, invite models.Invitation, now time.Time) (models.Invitation, error)
	GetInviteByToken(ctx context.Context, token string) (models.Invitation, error)
	ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]models.Invitation, error)
	ListByBusiness(ctx context.Context, businessID string) ([]models.Invitation, error)
	AcceptInvite(ctx context.Context, inviteID, userID string, perms models.StaffPermissions, now time.Time) (models.Invitation, error)
	DeclineInvite(ctx context.Context, inviteID string, now time.Time) (models.Invitation, error)
	CancelInvite(ctx context.Context, inviteID, businessID string) error
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

type inviteRepository struct {
	db *sql.DB
}

func NewInviteRepository(db *sql.DB) InviteRepository {
	return &inviteRepository{db: db}
}

// CreateInvite persists a new pending invite. The partial unique index on
// active invites guards (business, email) uniqueness, but a pending row
// the sweep has not rewritten yet is not active anymore, so stale rows are
// expired first in the same transaction.
func (r *inviteRepository) CreateInvite(ctx context.Context, invite models.Invitation, now time.Time) (models.Invitation, error) {
	const expireStale = `
		UPDATE booking.invites
		SET status = 'expired', updated_at = $3
		WHERE business_id = $1 AND email = $2 AND status = 'pending' AND expires_at <= $3;
	`

	const query = `
		INSERT INTO booking.invites (business_id, invited_by, email, role,
			can_manage_services, can_manage_bookings, can_manage_customers,
			can_view_reports, can_manage_staff, can_manage_business,
			status, token, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, business_id, invited_by, email, role,
			can_manage_services, can_manage_bookings, can_manage_customers,
			can_view_reports, can_manage_staff, can_manage_business,
			status, token, expires_at, accepted_at, declined_at, accepted_by,
			created_at, updated_at;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Invitation{}, storageErr(err, "begin issue transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, expireStale, invite.BusinessID, invite.Email, now); err != nil {
		return models.Invitation{}, storageErr(err, "expire stale invite")
	}

	row := tx.QueryRowContext(ctx, query,
		invite.BusinessID,
		invite.InvitedBy,
		invite.Email,
		invite.Role,
		invite.Permissions.CanManageServices,
		invite.Permissions.CanManageBookings,
		invite.Permissions.CanManageCustomers,
		invite.Permissions.CanViewReports,
		invite.Permissions.CanManageStaff,
		invite.Permissions.CanManageBusiness,
		invite.Status,
		invite.Token,
		invite.ExpiresAt,
	)

	created, err := scanInvite(row)
	if err != nil {
		if isUniqueViolation(err, "invites_active_email_key") {
			return models.Invitation{}, errs.Conflict("an active invite already exists for this email")
		}
		if isUniqueViolation(err, "invites_token_key") {
			return models.Invitation{}, ErrTokenCollision
		}
		return models.Invitation{}, storageErr(err, "create invite")
	}

	if err := tx.Commit(); err != nil {
		return models.Invitation{}, storageErr(err, "commit issue transaction")
	}
	return created, nil
}

func (r *inviteRepository) GetInviteByToken(ctx context.Context, token string) (models.Invitation, error) {
	const query = `
		SELECT ` + inviteColumns + `, b.name
		FROM booking.invites i
		JOIN booking.businesses b ON b.id = i.business_id
		WHERE i.token = $1;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	invite, err := scanInviteWithBusiness(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invitation{}, errs.NotFound("invite not found")
		}
		return models.Invitation{}, storageErr(err, "get invite by token")
	}
	return invite, nil
}

func (r *inviteRepository) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]models.Invitation, error) {
	const query = `
		SELECT ` + inviteColumns + `, b.name
		FROM booking.invites i
		JOIN booking.businesses b ON b.id = i.business_id
		WHERE i.email = $1 AND i.status = 'pending' AND i.expires_at > $2
		ORDER BY i.created_at DESC;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, email, now)
	if err != nil {
		return nil, storageErr(err, "list pending invites")
	}
	defer rows.Close()

	var invites []models.Invitation
	for rows.Next() {
		invite, err := scanInviteWithBusiness(rows)
		if err != nil {
			return nil, storageErr(err, "scan pending invite")
		}
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "list pending invites")
	}
	return invites, nil
}

func (r *inviteRepository) ListByBusiness(ctx context.Context, businessID string) ([]models.Invitation, error) {
	const query = `
		SELECT ` + inviteColumns + `
		FROM booking.invites i
		WHERE i.business_id = $1
		ORDER BY i.created_at DESC;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, storageErr(err, "list business invites")
	}
	defer rows.Close()

	var invites []models.Invitation
	for rows.Next() {
		invite, err := scanInvite(rows)
		if err != nil {
			return nil, storageErr(err, "scan business invite")
		}
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "list business invites")
	}
	return invites, nil
}

// AcceptInvite transitions a pending invite to accepted and grants its
// permissions to the (business, user) membership in one transaction. The
// conditional UPDATE serializes racing responders: the loser sees zero rows
// and gets an invalid-state error.
func (r *inviteRepository) AcceptInvite(ctx context.Context, inviteID, userID string, perms models.StaffPermissions, now time.Time) (models.Invitation, error) {
	const transition = `
		UPDATE booking.invites i
		SET status = 'accepted', accepted_at = $2, accepted_by = $3, updated_at = $2
		WHERE i.id = $1 AND i.status = 'pending'
		RETURNING ` + inviteColumns + `;
	`

	const grant = `
		INSERT INTO booking.staff_memberships (business_id, user_id, role,
			can_manage_services, can_manage_bookings, can_manage_customers,
			can_view_reports, can_manage_staff, can_manage_business,
			invited_by, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (business_id, user_id) DO UPDATE SET
			can_manage_services = booking.staff_memberships.can_manage_services OR EXCLUDED.can_manage_services,
			can_manage_bookings = booking.staff_memberships.can_manage_bookings OR EXCLUDED.can_manage_bookings,
			can_manage_customers = booking.staff_memberships.can_manage_customers OR EXCLUDED.can_manage_customers,
			can_view_reports = booking.staff_memberships.can_view_reports OR EXCLUDED.can_view_reports,
			can_manage_staff = booking.staff_memberships.can_manage_staff OR EXCLUDED.can_manage_staff,
			can_manage_business = booking.staff_memberships.can_manage_business OR EXCLUDED.can_manage_business,
			updated_at = EXCLUDED.updated_at;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Invitation{}, storageErr(err, "begin accept transaction")
	}
	defer tx.Rollback()

	invite, err := scanInvite(tx.QueryRowContext(ctx, transition, inviteID, now, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invitation{}, errs.InvalidState("invite is no longer pending")
		}
		return models.Invitation{}, storageErr(err, "accept invite")
	}

	if _, err := tx.ExecContext(ctx, grant,
		invite.BusinessID,
		userID,
		invite.Role,
		perms.CanManageServices,
		perms.CanManageBookings,
		perms.CanManageCustomers,
		perms.CanViewReports,
		perms.CanManageStaff,
		perms.CanManageBusiness,
		invite.InvitedBy,
		now,
	); err != nil {
		return models.Invitation{}, storageErr(err, "grant membership")
	}

	if err := tx.Commit(); err != nil {
		return models.Invitation{}, storageErr(err, "commit accept transaction")
	}
	return invite, nil
}

func (r *inviteRepository) DeclineInvite(ctx context.Context, inviteID string, now time.Time) (models.Invitation, error) {
	const query = `
		UPDATE booking.invites i
		SET status = 'declined', declined_at = $2, updated_at = $2
		WHERE i.id = $1 AND i.status = 'pending'
		RETURNING ` + inviteColumns + `;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	invite, err := scanInvite(r.db.QueryRowContext(ctx, query, inviteID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invitation{}, errs.InvalidState("invite is no longer pending")
		}
		return models.Invitation{}, storageErr(err, "decline invite")
	}
	return invite, nil
}

func (r *inviteRepository) CancelInvite(ctx context.Context, inviteID, businessID string) error {
	const query = `
		DELETE FROM booking.invites
		WHERE id = $1 AND business_id = $2 AND status = 'pending';
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, inviteID, businessID)
	if err != nil {
		return storageErr(err, "cancel invite")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr(err, "cancel invite")
	}
	if rows == 0 {
		return errs.NotFound("pending invite not found")
	}
	return nil
}

// MarkExpired rewrites pending invites past their deadline to
// status=expired. Purely an optimization for tenant listings; read paths
// never rely on the sweep having run.
func (r *inviteRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE booking.invites
		SET status = 'expired', updated_at = $1
		WHERE status = 'pending' AND expires_at <= $1;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, storageErr(err, "mark expired invites")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, storageErr(err, "mark expired invites")
	}
	return rows, nil
}

func scanInvite(s scanner) (models.Invitation, error) {
	var (
		invite     models.Invitation
		acceptedAt sql.NullTime
		declinedAt sql.NullTime
		acceptedBy sql.NullString
	)

	if err := s.Scan(
		&invite.ID,
		&invite.BusinessID,
		&invite.InvitedBy,
		&invite.Email,
		&invite.Role,
		&invite.Permissions.CanManageServices,
		&invite.Permissions.CanManageBookings,
		&invite.Permissions.CanManageCustomers,
		&invite.Permissions.CanViewReports,
		&invite.Permissions.CanManageStaff,
		&invite.Permissions.CanManageBusiness,
		&invite.Status,
		&invite.Token,
		&invite.ExpiresAt,
		&acceptedAt,
		&declinedAt,
		&acceptedBy,
		&invite.CreatedAt,
		&invite.UpdatedAt,
	); err != nil {
		return models.Invitation{}, err
	}

	if acceptedAt.Valid {
		invite.AcceptedAt = &acceptedAt.Time
	}
	if declinedAt.Valid {
		invite.DeclinedAt = &declinedAt.Time
	}
	if acceptedBy.Valid {
		invite.AcceptedBy = &acceptedBy.String
	}
	return invite, nil
}

func scanInviteWithBusiness(s scanner) (models.Invitation, error) {
	var (
		invite     models.Invitation
		acceptedAt sql.NullTime
		declinedAt sql.NullTime
		acceptedBy sql.NullString
	)

	if err := s.Scan(
		&invite.ID,
		&invite.BusinessID,
		&invite.InvitedBy,
		&invite.Email,
		&invite.Role,
		&invite.Permissions.CanManageServices,
		&invite.Permissions.CanManageBookings,
		&invite.Permissions.CanManageCustomers,
		&invite.Permissions.CanViewReports,
		&invite.Permissions.CanManageStaff,
		&invite.Permissions.CanManageBusiness,
		&invite.Status,
		&invite.Token,
		&invite.ExpiresAt,
		&acceptedAt,
		&declinedAt,
		&acceptedBy,
		&invite.CreatedAt,
		&invite.UpdatedAt,
		&invite.BusinessName,
	); err != nil {
		return models.Invitation{}, err
	}

	if acceptedAt.Valid {
		invite.AcceptedAt = &acceptedAt.Time
	}
	if declinedAt.Valid {
		invite.DeclinedAt = &declinedAt.Time
	}
	if acceptedBy.Valid {
		invite.AcceptedBy = &acceptedBy.String
	}
	return invite, nil
}
