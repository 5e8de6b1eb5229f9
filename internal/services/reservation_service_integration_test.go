package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/Morris-wambua/fabs-store-sub000/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

type reservationFixture struct {
	ownerID    int64
	customerID int64
	storeID    int64
	expertID   int64
	serviceID  int64
}

func TestReservationServiceBookAndApproveFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationReservationService(pool)

	fx := createReservationFixture(t, ctx, pool)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, fx.ownerID, fx.customerID) })

	scheduledAt := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	reservation, err := service.Book(ctx, fx.customerID, BookReservationInput{
		StoreID:     fx.storeID,
		ServiceID:   fx.serviceID,
		ExpertID:    fx.expertID,
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if reservation.Status != models.ReservationPendingApproval {
		t.Fatalf("new reservation status = %q", reservation.Status)
	}
	if reservation.Code == "" {
		t.Fatal("new reservation has no code")
	}

	accepted, err := service.UpdateStatus(ctx, fx.ownerID, "owner", reservation.ID, "approve")
	if err != nil {
		t.Fatalf("UpdateStatus approve: %v", err)
	}
	if accepted.Status != models.ReservationAccepted {
		t.Fatalf("approved status = %q", accepted.Status)
	}

	started, err := service.UpdateStatus(ctx, fx.ownerID, "owner", reservation.ID, "start")
	if err != nil {
		t.Fatalf("UpdateStatus start: %v", err)
	}
	if started.Status != models.ReservationActiveService {
		t.Fatalf("started status = %q", started.Status)
	}

	if _, err := service.UpdateStatus(ctx, fx.customerID, "customer", reservation.ID, "cancel"); err != ErrInvalidStateTransition {
		t.Fatalf("cancel of active service err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestReservationServiceRejectsOverlappingExpertBookings(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationReservationService(pool)

	fx := createReservationFixture(t, ctx, pool)
	secondCustomerID := createTestAccount(t, ctx, pool, "customer")
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, fx.ownerID, fx.customerID, secondCustomerID) })

	scheduledAt := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	if _, err := service.Book(ctx, fx.customerID, BookReservationInput{
		StoreID:     fx.storeID,
		ServiceID:   fx.serviceID,
		ExpertID:    fx.expertID,
		ScheduledAt: scheduledAt,
	}); err != nil {
		t.Fatalf("first Book: %v", err)
	}

	_, err := service.Book(ctx, secondCustomerID, BookReservationInput{
		StoreID:     fx.storeID,
		ServiceID:   fx.serviceID,
		ExpertID:    fx.expertID,
		ScheduledAt: scheduledAt.Add(30 * time.Minute),
	})
	if err != ErrConflict {
		t.Fatalf("overlapping Book err = %v, want ErrConflict", err)
	}
}

func TestReservationServiceOwnerListFiltersAndSearches(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationReservationService(pool)

	fx := createReservationFixture(t, ctx, pool)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, fx.ownerID, fx.customerID) })

	scheduledAt := time.Now().Add(96 * time.Hour).UTC().Truncate(time.Second)
	booked, err := service.Book(ctx, fx.customerID, BookReservationInput{
		StoreID:     fx.storeID,
		ServiceID:   fx.serviceID,
		ExpertID:    fx.expertID,
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	pending, total, err := service.ListForOwner(ctx, fx.ownerID, OwnerListInput{
		Filter: "PENDING_APPROVAL",
	})
	if err != nil {
		t.Fatalf("ListForOwner pending: %v", err)
	}
	if total != 1 || len(pending) != 1 || pending[0].ID != booked.ID {
		t.Fatalf("pending list = %+v total %d", pending, total)
	}

	byCode, total, err := service.ListForOwner(ctx, fx.ownerID, OwnerListInput{
		Query: booked.Code,
	})
	if err != nil {
		t.Fatalf("ListForOwner by code: %v", err)
	}
	if total != 1 || len(byCode) != 1 {
		t.Fatalf("code search found %d rows, want 1", total)
	}

	inProgress, total, err := service.ListForOwner(ctx, fx.ownerID, OwnerListInput{
		Filter: "IN_PROGRESS",
	})
	if err != nil {
		t.Fatalf("ListForOwner in progress: %v", err)
	}
	if total != 0 || len(inProgress) != 0 {
		t.Fatalf("IN_PROGRESS tab not empty: %+v", inProgress)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationReservationService(pool *pgxpool.Pool) *ReservationService {
	return NewReservationService(
		pool,
		repository.NewReservationRepository(pool),
		repository.NewServiceRepository(pool),
		repository.NewExpertRepository(pool),
		repository.NewStoreRepository(pool),
		nil,
	)
}

func createTestAccount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role string) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("reservation-test-%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "test-hash",
		FullName:     fmt.Sprintf("Test %s", role),
		Role:         role,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s): %v", role, err)
	}
	return user.ID
}

func createReservationFixture(t *testing.T, ctx context.Context, pool *pgxpool.Pool) reservationFixture {
	t.Helper()

	ownerID := createTestAccount(t, ctx, pool, "owner")
	customerID := createTestAccount(t, ctx, pool, "customer")

	storeRepo := repository.NewStoreRepository(pool)
	if err := storeRepo.CreateEmpty(ctx, ownerID); err != nil {
		t.Fatalf("CreateEmpty store: %v", err)
	}
	store, err := storeRepo.UpdateOnboarding(ctx, ownerID, repository.StoreOnboardingInput{
		Name:        "Test Nails",
		Description: "Test store",
		Address:     "1 Test Street",
		Latitude:    -1.28,
		Longitude:   36.82,
		Phone:       "+254700000000",
	})
	if err != nil {
		t.Fatalf("UpdateOnboarding store: %v", err)
	}

	expert, err := repository.NewExpertRepository(pool).Create(ctx, repository.CreateExpertInput{
		StoreID: store.ID,
		Name:    "Test Expert",
	})
	if err != nil {
		t.Fatalf("Create expert: %v", err)
	}

	service, err := repository.NewServiceRepository(pool).Create(ctx, repository.CreateServiceInput{
		StoreID:     store.ID,
		ExpertID:    &expert.ID,
		Name:        "Test Manicure",
		Price:       25,
		DurationMin: 60,
	})
	if err != nil {
		t.Fatalf("Create service: %v", err)
	}

	return reservationFixture{
		ownerID:    ownerID,
		customerID: customerID,
		storeID:    store.ID,
		expertID:   expert.ID,
		serviceID:  service.ID,
	}
}

func cleanupTestUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	for _, userID := range userIDs {
		if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID); err != nil {
			t.Logf("cleanup user %d: %v", userID, err)
		}
	}
}
