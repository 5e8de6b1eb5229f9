package repository

import (
	"context"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

type ServiceRepository struct {
	db DBTX
}

func NewServiceRepository(db DBTX) *ServiceRepository {
	return &ServiceRepository{db: db}
}

type CreateServiceInput struct {
	StoreID     int64
	ExpertID    *int64
	Name        string
	Description *string
	Price       float64
	DurationMin int
}

func (r *ServiceRepository) Create(ctx context.Context, input CreateServiceInput) (*models.Service, error) {
	query := `
		INSERT INTO services (store_id, expert_id, name, description, price, duration_min)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, store_id, expert_id, name, description, price, duration_min, is_active, created_at, updated_at
	`
	return r.scanService(r.db.QueryRow(ctx, query,
		input.StoreID,
		input.ExpertID,
		input.Name,
		input.Description,
		input.Price,
		input.DurationMin,
	))
}

func (r *ServiceRepository) GetByIDForStore(ctx context.Context, serviceID, storeID int64) (*models.Service, error) {
	query := `
		SELECT id, store_id, expert_id, name, description, price, duration_min, is_active, created_at, updated_at
		FROM services
		WHERE id = $1 AND store_id = $2
	`
	return r.scanService(r.db.QueryRow(ctx, query, serviceID, storeID))
}

func (r *ServiceRepository) GetByID(ctx context.Context, serviceID int64) (*models.Service, error) {
	query := `
		SELECT id, store_id, expert_id, name, description, price, duration_min, is_active, created_at, updated_at
		FROM services
		WHERE id = $1
	`
	return r.scanService(r.db.QueryRow(ctx, query, serviceID))
}

func (r *ServiceRepository) ListByStore(ctx context.Context, storeID int64, includeInactive bool) ([]models.Service, error) {
	query := `
		SELECT id, store_id, expert_id, name, description, price, duration_min, is_active, created_at, updated_at
		FROM services
		WHERE store_id = $1 AND (is_active OR $2)
		ORDER BY name ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, storeID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]models.Service, 0)
	for rows.Next() {
		var service models.Service
		if err := rows.Scan(
			&service.ID,
			&service.StoreID,
			&service.ExpertID,
			&service.Name,
			&service.Description,
			&service.Price,
			&service.DurationMin,
			&service.IsActive,
			&service.CreatedAt,
			&service.UpdatedAt,
		); err != nil {
			return nil, err
		}
		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return services, nil
}

type UpdateServiceInput struct {
	ExpertID    *int64
	Name        *string
	Description *string
	Price       *float64
	DurationMin *int
	IsActive    *bool
}

func (r *ServiceRepository) UpdatePartial(ctx context.Context, serviceID, storeID int64, req UpdateServiceInput) (*models.Service, error) {
	query := `
		UPDATE services
		SET expert_id = COALESCE($1, expert_id),
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			duration_min = COALESCE($5, duration_min),
			is_active = COALESCE($6, is_active),
			updated_at = NOW()
		WHERE id = $7 AND store_id = $8
		RETURNING id, store_id, expert_id, name, description, price, duration_min, is_active, created_at, updated_at
	`
	return r.scanService(r.db.QueryRow(ctx, query,
		req.ExpertID,
		req.Name,
		req.Description,
		req.Price,
		req.DurationMin,
		req.IsActive,
		serviceID,
		storeID,
	))
}

func (r *ServiceRepository) scanService(row pgx.Row) (*models.Service, error) {
	var service models.Service
	err := row.Scan(
		&service.ID,
		&service.StoreID,
		&service.ExpertID,
		&service.Name,
		&service.Description,
		&service.Price,
		&service.DurationMin,
		&service.IsActive,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &service, nil
}
