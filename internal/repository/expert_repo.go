package repository

import (
	"context"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

type ExpertRepository struct {
	db DBTX
}

func NewExpertRepository(db DBTX) *ExpertRepository {
	return &ExpertRepository{db: db}
}

type CreateExpertInput struct {
	StoreID int64
	Name    string
	Title   *string
	Bio     *string
}

func (r *ExpertRepository) Create(ctx context.Context, input CreateExpertInput) (*models.Expert, error) {
	query := `
		INSERT INTO experts (store_id, name, title, bio)
		VALUES ($1, $2, $3, $4)
		RETURNING id, store_id, name, title, bio, avatar_url, is_active, created_at, updated_at
	`
	return r.scanExpert(r.db.QueryRow(ctx, query, input.StoreID, input.Name, input.Title, input.Bio))
}

func (r *ExpertRepository) GetByIDForStore(ctx context.Context, expertID, storeID int64) (*models.Expert, error) {
	query := `
		SELECT id, store_id, name, title, bio, avatar_url, is_active, created_at, updated_at
		FROM experts
		WHERE id = $1 AND store_id = $2
	`
	return r.scanExpert(r.db.QueryRow(ctx, query, expertID, storeID))
}

func (r *ExpertRepository) ListByStore(ctx context.Context, storeID int64, includeInactive bool) ([]models.Expert, error) {
	query := `
		SELECT id, store_id, name, title, bio, avatar_url, is_active, created_at, updated_at
		FROM experts
		WHERE store_id = $1 AND (is_active OR $2)
		ORDER BY name ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, storeID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	experts := make([]models.Expert, 0)
	for rows.Next() {
		var expert models.Expert
		if err := rows.Scan(
			&expert.ID,
			&expert.StoreID,
			&expert.Name,
			&expert.Title,
			&expert.Bio,
			&expert.AvatarURL,
			&expert.IsActive,
			&expert.CreatedAt,
			&expert.UpdatedAt,
		); err != nil {
			return nil, err
		}
		experts = append(experts, expert)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return experts, nil
}

type UpdateExpertInput struct {
	Name      *string
	Title     *string
	Bio       *string
	AvatarURL *string
	IsActive  *bool
}

func (r *ExpertRepository) UpdatePartial(ctx context.Context, expertID, storeID int64, req UpdateExpertInput) (*models.Expert, error) {
	query := `
		UPDATE experts
		SET name = COALESCE($1, name),
			title = COALESCE($2, title),
			bio = COALESCE($3, bio),
			avatar_url = COALESCE($4, avatar_url),
			is_active = COALESCE($5, is_active),
			updated_at = NOW()
		WHERE id = $6 AND store_id = $7
		RETURNING id, store_id, name, title, bio, avatar_url, is_active, created_at, updated_at
	`
	return r.scanExpert(r.db.QueryRow(ctx, query,
		req.Name,
		req.Title,
		req.Bio,
		req.AvatarURL,
		req.IsActive,
		expertID,
		storeID,
	))
}

func (r *ExpertRepository) scanExpert(row pgx.Row) (*models.Expert, error) {
	var expert models.Expert
	err := row.Scan(
		&expert.ID,
		&expert.StoreID,
		&expert.Name,
		&expert.Title,
		&expert.Bio,
		&expert.AvatarURL,
		&expert.IsActive,
		&expert.CreatedAt,
		&expert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &expert, nil
}
