package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/Morris-wambua/fabs-store-sub000/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type reservationApplicationService interface {
	Book(ctx context.Context, customerID int64, input services.BookReservationInput) (*models.Reservation, error)
	ListForOwner(ctx context.Context, ownerID int64, input services.OwnerListInput) ([]models.ReservationDetail, int, error)
	ListForCustomer(ctx context.Context, customerID int64, page, limit int) ([]models.ReservationDetail, int, error)
	Get(ctx context.Context, actorID int64, role string, reservationID int64) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, actorID int64, role string, reservationID int64, requestedAction string) (*models.Reservation, error)
}

type ReservationHandler struct {
	service reservationApplicationService
}

func NewReservationHandler(service *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

type bookReservationRequest struct {
	StoreID     int64   `json:"store_id"`
	ServiceID   int64   `json:"service_id"`
	ExpertID    int64   `json:"expert_id"`
	ScheduledAt string  `json:"scheduled_at"`
	Note        *string `json:"note"`
}

type updateReservationStatusRequest struct {
	Action string `json:"action"`
}

func (h *ReservationHandler) Book(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "customer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	customerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}
	if req.Note != nil && strings.TrimSpace(*req.Note) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "note must not be empty"})
	}

	reservation, err := h.service.Book(c.Context(), customerID, services.BookReservationInput{
		StoreID:     req.StoreID,
		ServiceID:   req.ServiceID,
		ExpertID:    req.ExpertID,
		ScheduledAt: scheduledAt,
		Note:        req.Note,
	})
	if err != nil {
		return mapReservationError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reservation": reservation})
}

// ListMine serves the owner dashboard list: filter tab, free-text search over
// customer name and reservation code, and pagination.
func (h *ReservationHandler) ListMine(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "owner" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	ownerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	reservations, total, err := h.service.ListForOwner(c.Context(), ownerID, services.OwnerListInput{
		Filter: c.Query("filter"),
		Query:  c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return mapReservationError(c, err)
	}

	return c.JSON(fiber.Map{
		"reservations": reservations,
		"pagination":   buildPaginationMeta(page, limit, total),
	})
}

func (h *ReservationHandler) ListForCustomer(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "customer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	customerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	reservations, total, err := h.service.ListForCustomer(c.Context(), customerID, page, limit)
	if err != nil {
		return mapReservationError(c, err)
	}

	return c.JSON(fiber.Map{
		"reservations": reservations,
		"pagination":   buildPaginationMeta(page, limit, total),
	})
}

func (h *ReservationHandler) Get(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	reservationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || reservationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reservation id"})
	}

	reservation, err := h.service.Get(c.Context(), actorID, role, reservationID)
	if err != nil {
		return mapReservationError(c, err)
	}

	return c.JSON(fiber.Map{"reservation": reservation})
}

func (h *ReservationHandler) UpdateStatus(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	reservationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || reservationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reservation id"})
	}

	var req updateReservationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	reservation, err := h.service.UpdateStatus(c.Context(), actorID, role, reservationID, req.Action)
	if err != nil {
		return mapReservationError(c, err)
	}

	return c.JSON(fiber.Map{"reservation": reservation})
}

func mapReservationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidFilter),
		errors.Is(err, services.ErrInvalidAction):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error": "Requested time conflicts with another reservation"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStoreNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reservation not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process reservation request"})
	}
}
