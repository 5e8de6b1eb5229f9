package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/Morris-wambua/fabs-store-sub000/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type serviceStore interface {
	Create(ctx context.Context, input repository.CreateServiceInput) (*models.Service, error)
	ListByStore(ctx context.Context, storeID int64, includeInactive bool) ([]models.Service, error)
	UpdatePartial(ctx context.Context, serviceID, storeID int64, req repository.UpdateServiceInput) (*models.Service, error)
}

type serviceExpertChecker interface {
	GetByIDForStore(ctx context.Context, expertID, storeID int64) (*models.Expert, error)
}

type ServiceHandler struct {
	serviceRepo serviceStore
	expertRepo  serviceExpertChecker
	storeRepo   storeLookup
}

func NewServiceHandler(serviceRepo serviceStore, expertRepo serviceExpertChecker, storeRepo storeLookup) *ServiceHandler {
	return &ServiceHandler{
		serviceRepo: serviceRepo,
		expertRepo:  expertRepo,
		storeRepo:   storeRepo,
	}
}

type createServiceRequest struct {
	ExpertID    *int64  `json:"expert_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	DurationMin int     `json:"duration_min"`
}

type updateServiceRequest struct {
	ExpertID    *int64   `json:"expert_id"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	DurationMin *int     `json:"duration_min"`
	IsActive    *bool    `json:"is_active"`
}

func (h *ServiceHandler) Create(c *fiber.Ctx) error {
	store, ok := h.requireOwnedStore(c)
	if !ok {
		return nil
	}

	var req createServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must be 0 or greater"})
	}
	if req.DurationMin <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_min must be greater than 0"})
	}

	if req.ExpertID != nil {
		if _, err := h.expertRepo.GetByIDForStore(c.Context(), *req.ExpertID, store.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expert_id does not belong to this store"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify expert"})
		}
	}

	service, err := h.serviceRepo.Create(c.Context(), repository.CreateServiceInput{
		StoreID:     store.ID,
		ExpertID:    req.ExpertID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		DurationMin: req.DurationMin,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create service"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"service": service})
}

func (h *ServiceHandler) ListMine(c *fiber.Ctx) error {
	store, ok := h.requireOwnedStore(c)
	if !ok {
		return nil
	}

	services, err := h.serviceRepo.ListByStore(c.Context(), store.ID, true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch services"})
	}

	return c.JSON(fiber.Map{"services": services})
}

func (h *ServiceHandler) ListForStore(c *fiber.Ctx) error {
	storeID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || storeID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid store id"})
	}

	store, err := h.storeRepo.GetByID(c.Context(), storeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch store"})
	}
	if !store.OnboardingComplete {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
	}

	services, err := h.serviceRepo.ListByStore(c.Context(), store.ID, false)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch services"})
	}

	return c.JSON(fiber.Map{"services": services})
}

func (h *ServiceHandler) Update(c *fiber.Ctx) error {
	store, ok := h.requireOwnedStore(c)
	if !ok {
		return nil
	}

	serviceID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || serviceID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service id"})
	}

	var req updateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name must not be empty"})
	}
	if req.Price != nil && *req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must be 0 or greater"})
	}
	if req.DurationMin != nil && *req.DurationMin <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_min must be greater than 0"})
	}

	if req.ExpertID != nil {
		if _, err := h.expertRepo.GetByIDForStore(c.Context(), *req.ExpertID, store.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expert_id does not belong to this store"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify expert"})
		}
	}

	service, err := h.serviceRepo.UpdatePartial(c.Context(), serviceID, store.ID, repository.UpdateServiceInput{
		ExpertID:    req.ExpertID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		DurationMin: req.DurationMin,
		IsActive:    req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update service"})
	}

	return c.JSON(fiber.Map{"service": service})
}

func (h *ServiceHandler) requireOwnedStore(c *fiber.Ctx) (*models.Store, bool) {
	role, ok := c.Locals("role").(string)
	if !ok || role != "owner" {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return nil, false
	}

	ownerID, err := parseActorID(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return nil, false
	}

	store, err := h.storeRepo.GetByOwnerID(c.Context(), ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
			return nil, false
		}
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch store"})
		return nil, false
	}

	return store, true
}
