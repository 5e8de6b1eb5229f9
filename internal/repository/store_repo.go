package repository

import (
	"context"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

type StoreRepository struct {
	db DBTX
}

func NewStoreRepository(db DBTX) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) CreateEmpty(ctx context.Context, ownerID int64) error {
	query := `INSERT INTO stores (owner_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, ownerID)
	return err
}

func (r *StoreRepository) GetByOwnerID(ctx context.Context, ownerID int64) (*models.Store, error) {
	query := `
		SELECT id, owner_id, name, description, address, latitude, longitude, phone,
			   photo_url, onboarding_complete, created_at, updated_at
		FROM stores
		WHERE owner_id = $1
	`
	return r.scanStore(r.db.QueryRow(ctx, query, ownerID))
}

func (r *StoreRepository) GetByID(ctx context.Context, storeID int64) (*models.Store, error) {
	query := `
		SELECT id, owner_id, name, description, address, latitude, longitude, phone,
			   photo_url, onboarding_complete, created_at, updated_at
		FROM stores
		WHERE id = $1
	`
	return r.scanStore(r.db.QueryRow(ctx, query, storeID))
}

type StoreOnboardingInput struct {
	Name        string
	Description string
	Address     string
	Latitude    float64
	Longitude   float64
	Phone       string
}

func (r *StoreRepository) UpdateOnboarding(ctx context.Context, ownerID int64, req StoreOnboardingInput) (*models.Store, error) {
	query := `
		UPDATE stores
		SET name = $1,
			description = $2,
			address = $3,
			latitude = $4,
			longitude = $5,
			phone = $6,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE owner_id = $7
		RETURNING id, owner_id, name, description, address, latitude, longitude, phone,
				  photo_url, onboarding_complete, created_at, updated_at
	`
	return r.scanStore(r.db.QueryRow(ctx, query,
		req.Name,
		req.Description,
		req.Address,
		req.Latitude,
		req.Longitude,
		req.Phone,
		ownerID,
	))
}

type UpdateStoreInput struct {
	Name        *string
	Description *string
	Address     *string
	Latitude    *float64
	Longitude   *float64
	Phone       *string
	PhotoURL    *string
}

func (r *StoreRepository) UpdatePartial(ctx context.Context, ownerID int64, req UpdateStoreInput) (*models.Store, error) {
	query := `
		UPDATE stores
		SET name = COALESCE($1, name),
			description = COALESCE($2, description),
			address = COALESCE($3, address),
			latitude = COALESCE($4, latitude),
			longitude = COALESCE($5, longitude),
			phone = COALESCE($6, phone),
			photo_url = COALESCE($7, photo_url),
			updated_at = NOW()
		WHERE owner_id = $8
		RETURNING id, owner_id, name, description, address, latitude, longitude, phone,
				  photo_url, onboarding_complete, created_at, updated_at
	`
	return r.scanStore(r.db.QueryRow(ctx, query,
		req.Name,
		req.Description,
		req.Address,
		req.Latitude,
		req.Longitude,
		req.Phone,
		req.PhotoURL,
		ownerID,
	))
}

func (r *StoreRepository) scanStore(row pgx.Row) (*models.Store, error) {
	var store models.Store
	err := row.Scan(
		&store.ID,
		&store.OwnerID,
		&store.Name,
		&store.Description,
		&store.Address,
		&store.Latitude,
		&store.Longitude,
		&store.Phone,
		&store.PhotoURL,
		&store.OnboardingComplete,
		&store.CreatedAt,
		&store.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &store, nil
}
