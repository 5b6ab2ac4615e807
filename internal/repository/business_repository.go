package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bookwell/bookwell-api/internal/errs"
	"github.com/bookwell/bookwell-api/internal/models"
)

type BusinessRepository interface {
	CreateBusiness(ctx context.Context, name, ownerID string) (models.Business, error)
	GetBusinessByID(ctx context.Context, businessID string) (models.Business, error)
}

type businessRepository struct {
	db *sql.DB
}

func NewBusinessRepository(db *sql.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) CreateBusiness(ctx context.Context, name, ownerID string) (models.Business, error) {
	const query = `
		INSERT INTO booking.businesses (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, name, owner_id, created_at, updated_at;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var business models.Business
	err := r.db.QueryRowContext(ctx, query, name, ownerID).Scan(
		&business.ID,
		&business.Name,
		&business.OwnerID,
		&business.CreatedAt,
		&business.UpdatedAt,
	)
	if err != nil {
		return models.Business{}, storageErr(err, "create business")
	}
	return business, nil
}

func (r *businessRepository) GetBusinessByID(ctx context.Context, businessID string) (models.Business, error) {
	const query = `
		SELECT id, name, owner_id, created_at, updated_at
		FROM booking.businesses
		WHERE id = $1;
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var business models.Business
	err := r.db.QueryRowContext(ctx, query, businessID).Scan(
		&business.ID,
		&business.Name,
		&business.OwnerID,
		&business.CreatedAt,
		&business.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Business{}, errs.NotFound("business not found")
		}
		return models.Business{}, storageErr(err, "get business by id")
	}
	return business, nil
}
