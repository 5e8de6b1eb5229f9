package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

type CreateReservationInput struct {
	Code        string
	StoreID     int64
	ServiceID   int64
	ExpertID    int64
	CustomerID  int64
	ScheduledAt time.Time
	DurationMin int
	Note        *string
}

type ReservationListFilter struct {
	StoreID    int64
	CustomerID int64
	Status     string
	Query      string
	Limit      int
	Offset     int
}

type ReservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, code, store_id, service_id, expert_id, customer_id,
		scheduled_at, duration_min, status, note, created_at, updated_at`

func (r *ReservationRepository) Create(
	ctx context.Context,
	input CreateReservationInput,
) (*models.Reservation, error) {
	query := `
		INSERT INTO reservations (code, store_id, service_id, expert_id, customer_id, scheduled_at, duration_min, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'PENDING_APPROVAL', $8)
		RETURNING ` + reservationColumns

	return r.scanReservation(r.db.QueryRow(
		ctx,
		query,
		input.Code,
		input.StoreID,
		input.ServiceID,
		input.ExpertID,
		input.CustomerID,
		input.ScheduledAt,
		input.DurationMin,
		input.Note,
	))
}

func (r *ReservationRepository) GetByID(ctx context.Context, reservationID int64) (*models.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = $1
	`
	return r.scanReservation(r.db.QueryRow(ctx, query, reservationID))
}

// List returns reservation details joined with the customer, service and
// expert names the dashboard renders, filtered by status and an optional
// free-text query over customer name and booking code.
func (r *ReservationRepository) List(
	ctx context.Context,
	filter ReservationListFilter,
) ([]models.ReservationDetail, int, error) {
	args := []any{}
	whereParts := []string{}

	if filter.StoreID > 0 {
		args = append(args, filter.StoreID)
		whereParts = append(whereParts, fmt.Sprintf("r.store_id = $%d", len(args)))
	}
	if filter.CustomerID > 0 {
		args = append(args, filter.CustomerID)
		whereParts = append(whereParts, fmt.Sprintf("r.customer_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		whereParts = append(
			whereParts,
			fmt.Sprintf("(u.full_name ILIKE $%d OR r.code ILIKE $%d)", len(args), len(args)),
		)
	}
	if len(whereParts) == 0 {
		whereParts = append(whereParts, "TRUE")
	}

	fromClause := `
		FROM reservations r
		JOIN users u ON u.id = r.customer_id
		JOIN services s ON s.id = r.service_id
		JOIN experts e ON e.id = r.expert_id
		WHERE ` + strings.Join(whereParts, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*)"+fromClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	limitClause += fmt.Sprintf(" OFFSET $%d", len(args))

	query := `
		SELECT r.id, r.code, r.store_id, r.service_id, r.expert_id, r.customer_id,
			   r.scheduled_at, r.duration_min, r.status, r.note, r.created_at, r.updated_at,
			   u.full_name, s.name, e.name, s.price` +
		fromClause + `
		ORDER BY r.scheduled_at ASC, r.id ASC` + limitClause

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details := make([]models.ReservationDetail, 0)
	for rows.Next() {
		var detail models.ReservationDetail
		if err := rows.Scan(
			&detail.ID,
			&detail.Code,
			&detail.StoreID,
			&detail.ServiceID,
			&detail.ExpertID,
			&detail.CustomerID,
			&detail.ScheduledAt,
			&detail.DurationMin,
			&detail.Status,
			&detail.Note,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&detail.CustomerName,
			&detail.ServiceName,
			&detail.ExpertName,
			&detail.ServicePrice,
		); err != nil {
			return nil, 0, err
		}
		details = append(details, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return details, total, nil
}

func (r *ReservationRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	reservationID int64,
	currentStatus string,
	nextStatus string,
) (*models.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + reservationColumns

	return r.scanReservation(r.db.QueryRow(ctx, query, reservationID, currentStatus, nextStatus))
}

// LapseExpired moves reservations whose scheduled window has fully passed into
// their lapsed terminal status. PENDING_APPROVAL that was never answered lapses
// unaccepted; ACCEPTED that was never started lapses as paid. Idempotent.
func (r *ReservationRepository) LapseExpired(ctx context.Context, storeID int64, now time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE reservations
		SET status = 'LAPSED_NOT_ACCEPTED', updated_at = NOW()
		WHERE store_id = $1
		  AND status = 'PENDING_APPROVAL'
		  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) <= $2
	`, storeID, now)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		UPDATE reservations
		SET status = 'LAPSED_PAID', updated_at = NOW()
		WHERE store_id = $1
		  AND status = 'ACCEPTED'
		  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) <= $2
	`, storeID, now)
	return err
}

func (r *ReservationRepository) HasExpertConflict(
	ctx context.Context,
	expertID int64,
	requestedTime time.Time,
	durationMin int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM reservations
			WHERE expert_id = $1
			  AND status IN ('PENDING_APPROVAL', 'ACCEPTED', 'ACTIVE_SERVICE')
			  AND scheduled_at < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
			  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, expertID, requestedTime, durationMin).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

func (r *ReservationRepository) scanReservation(row pgx.Row) (*models.Reservation, error) {
	var reservation models.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.Code,
		&reservation.StoreID,
		&reservation.ServiceID,
		&reservation.ExpertID,
		&reservation.CustomerID,
		&reservation.ScheduledAt,
		&reservation.DurationMin,
		&reservation.Status,
		&reservation.Note,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}
