package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/Morris-wambua/fabs-store-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidFilter          = errors.New("invalid filter")
	ErrInvalidAction          = errors.New("invalid action")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrStoreNotFound          = errors.New("store not found")
)

// Dashboard filter names mapped to stored statuses. IN_PROGRESS deliberately
// maps to ACTIVE_SERVICE; the names diverged long ago and clients depend on
// both sides of the mismatch.
var filterStatus = map[string]string{
	"PENDING_APPROVAL":    models.ReservationPendingApproval,
	"UPCOMING":            models.ReservationAccepted,
	"IN_PROGRESS":         models.ReservationActiveService,
	"COMPLETED":           models.ReservationServed,
	"CANCELLED":           models.ReservationCancelled,
	"LAPSED_PAID":         models.ReservationLapsedPaid,
	"LAPSED_NOT_ACCEPTED": models.ReservationLapsedNotAccepted,
}

// StatusForFilter resolves a dashboard filter name to the stored status it
// selects. An empty filter selects every status.
func StatusForFilter(filter string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(filter))
	if trimmed == "" {
		return "", nil
	}
	status, ok := filterStatus[trimmed]
	if !ok {
		return "", ErrInvalidFilter
	}
	return status, nil
}

type storeReader interface {
	GetByOwnerID(ctx context.Context, ownerID int64) (*models.Store, error)
	GetByID(ctx context.Context, storeID int64) (*models.Store, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// feedNotifier lets the service nudge live reservation feeds after a
// transition so open dashboards re-fetch.
type feedNotifier interface {
	NotifyStore(storeID int64)
}

type ReservationService struct {
	db              *pgxpool.Pool
	reservationRepo *repository.ReservationRepository
	serviceRepo     *repository.ServiceRepository
	expertRepo      *repository.ExpertRepository
	storeRepo       storeReader
	notifier        feedNotifier
}

func NewReservationService(
	db *pgxpool.Pool,
	reservationRepo *repository.ReservationRepository,
	serviceRepo *repository.ServiceRepository,
	expertRepo *repository.ExpertRepository,
	storeRepo storeReader,
	notifier feedNotifier,
) *ReservationService {
	return &ReservationService{
		db:              db,
		reservationRepo: reservationRepo,
		serviceRepo:     serviceRepo,
		expertRepo:      expertRepo,
		storeRepo:       storeRepo,
		notifier:        notifier,
	}
}

type BookReservationInput struct {
	StoreID     int64
	ServiceID   int64
	ExpertID    int64
	ScheduledAt time.Time
	Note        *string
}

func (s *ReservationService) Book(
	ctx context.Context,
	customerID int64,
	input BookReservationInput,
) (*models.Reservation, error) {
	if input.StoreID <= 0 || input.ServiceID <= 0 || input.ExpertID <= 0 {
		return nil, ErrInvalidInput
	}
	if input.ScheduledAt.Before(time.Now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}

	store, err := s.storeRepo.GetByID(ctx, input.StoreID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	if !store.OnboardingComplete {
		return nil, ErrStoreNotFound
	}

	service, err := s.serviceRepo.GetByIDForStore(ctx, input.ServiceID, input.StoreID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	if !service.IsActive {
		return nil, ErrInvalidInput
	}

	expert, err := s.expertRepo.GetByIDForStore(ctx, input.ExpertID, input.StoreID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	if !expert.IsActive {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txReservationRepo := repository.NewReservationRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", input.ExpertID); err != nil {
		return nil, err
	}

	hasConflict, err := txReservationRepo.HasExpertConflict(
		ctx,
		input.ExpertID,
		input.ScheduledAt.UTC(),
		service.DurationMin,
	)
	if err != nil {
		return nil, err
	}
	if hasConflict {
		return nil, ErrConflict
	}

	reservation, err := txReservationRepo.Create(ctx, repository.CreateReservationInput{
		Code:        ulid.Make().String(),
		StoreID:     input.StoreID,
		ServiceID:   input.ServiceID,
		ExpertID:    input.ExpertID,
		CustomerID:  customerID,
		ScheduledAt: input.ScheduledAt.UTC(),
		DurationMin: service.DurationMin,
		Note:        input.Note,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyStore(input.StoreID)
	}

	return reservation, nil
}

type OwnerListInput struct {
	Filter string
	Query  string
	Page   int
	Limit  int
}

// ListForOwner sweeps expired reservations into their lapsed statuses and then
// returns the owner's filtered page.
func (s *ReservationService) ListForOwner(
	ctx context.Context,
	ownerID int64,
	input OwnerListInput,
) ([]models.ReservationDetail, int, error) {
	store, err := s.storeRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrStoreNotFound
		}
		return nil, 0, err
	}

	status, err := StatusForFilter(input.Filter)
	if err != nil {
		return nil, 0, err
	}

	if err := s.reservationRepo.LapseExpired(ctx, store.ID, time.Now().UTC()); err != nil {
		return nil, 0, err
	}

	page := input.Page
	if page <= 0 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	return s.reservationRepo.List(ctx, repository.ReservationListFilter{
		StoreID: store.ID,
		Status:  status,
		Query:   input.Query,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	})
}

func (s *ReservationService) ListForCustomer(
	ctx context.Context,
	customerID int64,
	page int,
	limit int,
) ([]models.ReservationDetail, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return s.reservationRepo.List(ctx, repository.ReservationListFilter{
		CustomerID: customerID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
}

func (s *ReservationService) Get(
	ctx context.Context,
	actorID int64,
	role string,
	reservationID int64,
) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, role, reservation); err != nil {
		return nil, err
	}
	return reservation, nil
}

// UpdateStatus executes an owner- or customer-requested transition as a
// compare-and-set against the status the actor last saw. Losing a concurrent
// race surfaces as an invalid transition; the caller reconciles by
// re-fetching, never by optimistic rollback.
func (s *ReservationService) UpdateStatus(
	ctx context.Context,
	actorID int64,
	role string,
	reservationID int64,
	requestedAction string,
) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, role, reservation); err != nil {
		return nil, err
	}

	nextStatus, err := normalizeAction(role, requestedAction)
	if err != nil {
		return nil, err
	}
	if err := validateTransition(reservation.Status, nextStatus); err != nil {
		return nil, err
	}

	updated, err := s.reservationRepo.UpdateStatusIfCurrent(ctx, reservationID, reservation.Status, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyStore(reservation.StoreID)
	}

	return updated, nil
}

func (s *ReservationService) authorize(
	ctx context.Context,
	actorID int64,
	role string,
	reservation *models.Reservation,
) error {
	switch role {
	case "customer":
		if reservation.CustomerID != actorID {
			return ErrForbidden
		}
		return nil
	case "owner":
		store, err := s.storeRepo.GetByOwnerID(ctx, actorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrForbidden
			}
			return err
		}
		if reservation.StoreID != store.ID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func normalizeAction(role string, action string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(action))

	switch role {
	case "owner":
		switch normalized {
		case "approve":
			return models.ReservationAccepted, nil
		case "reject":
			return models.ReservationCancelled, nil
		case "start":
			return models.ReservationActiveService, nil
		case "complete":
			return models.ReservationServed, nil
		}
	case "customer":
		if normalized == "cancel" {
			return models.ReservationCancelled, nil
		}
	}

	return "", ErrInvalidAction
}

func validateTransition(currentStatus string, nextStatus string) error {
	switch nextStatus {
	case models.ReservationAccepted:
		if currentStatus != models.ReservationPendingApproval {
			return ErrInvalidStateTransition
		}
	case models.ReservationActiveService:
		if currentStatus != models.ReservationAccepted {
			return ErrInvalidStateTransition
		}
	case models.ReservationServed:
		if currentStatus != models.ReservationActiveService {
			return ErrInvalidStateTransition
		}
	case models.ReservationCancelled:
		if currentStatus != models.ReservationPendingApproval &&
			currentStatus != models.ReservationAccepted {
			return ErrInvalidStateTransition
		}
	default:
		return ErrInvalidAction
	}
	return nil
}
