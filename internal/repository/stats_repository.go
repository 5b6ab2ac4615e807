package repository

import (
	"context"
	"database/sql"

	"github.com/bookwell/bookwell-api/internal/models"
)

type StatsRepository interface {
	CountAll(ctx context.Context) (models.AdminStats, error)
}

type statsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) CountAll(ctx context.Context) (models.AdminStats, error) {
	const query = `
		SELECT
			(SELECT count(*) FROM booking.businesses),
			(SELECT count(*) FROM booking.users),
			(SELECT count(*) FROM booking.staff_memberships),
			(SELECT count(*) FROM booking.invites WHERE status = 'pending'),
			(SELECT count(*) FROM booking.invites WHERE status = 'accepted'),
			(SELECT count(*) FROM booking.invites WHERE status = 'declined'),
			(SELECT count(*) FROM booking.invites WHERE status = 'expired');
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var stats models.AdminStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Businesses,
		&stats.Users,
		&stats.StaffMemberships,
		&stats.PendingInvites,
		&stats.AcceptedInvites,
		&stats.DeclinedInvites,
		&stats.ExpiredInvites,
	)
	if err != nil {
		return models.AdminStats{}, storageErr(err, "count records")
	}
	return stats, nil
}
