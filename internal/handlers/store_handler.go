package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/Morris-wambua/fabs-store-sub000/internal/repository"
	"github.com/Morris-wambua/fabs-store-sub000/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const maxStorePhotoSizeBytes = 5 * 1024 * 1024

type storeProfileStore interface {
	GetByOwnerID(ctx context.Context, ownerID int64) (*models.Store, error)
	GetByID(ctx context.Context, storeID int64) (*models.Store, error)
	UpdateOnboarding(ctx context.Context, ownerID int64, req repository.StoreOnboardingInput) (*models.Store, error)
	UpdatePartial(ctx context.Context, ownerID int64, req repository.UpdateStoreInput) (*models.Store, error)
}

type StoreHandler struct {
	storeRepo      storeProfileStore
	storageService services.StorageService
}

func NewStoreHandler(storeRepo storeProfileStore, storageService services.StorageService) *StoreHandler {
	return &StoreHandler{
		storeRepo:      storeRepo,
		storageService: storageService,
	}
}

type storeOnboardingRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Phone       string  `json:"phone"`
}

type updateStoreRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Address     *string  `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Phone       *string  `json:"phone"`
}

func (h *StoreHandler) CompleteOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "owner" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	ownerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req storeOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateStoreOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	store, err := h.storeRepo.UpdateOnboarding(c.Context(), ownerID, repository.StoreOnboardingInput{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Address:     strings.TrimSpace(req.Address),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Phone:       strings.TrimSpace(req.Phone),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete onboarding"})
	}

	return c.JSON(fiber.Map{
		"store":               store,
		"onboarding_complete": store.OnboardingComplete,
	})
}

func (h *StoreHandler) GetMyStore(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "owner" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	ownerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	store, err := h.storeRepo.GetByOwnerID(c.Context(), ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch store"})
	}

	return c.JSON(fiber.Map{
		"store":               store,
		"onboarding_complete": store.OnboardingComplete,
	})
}

// GetStore is the public lookup used by customers. Stores that have not
// finished onboarding stay invisible.
func (h *StoreHandler) GetStore(c *fiber.Ctx) error {
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

	return c.JSON(fiber.Map{"store": store})
}

func (h *StoreHandler) UpdateStore(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "owner" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	ownerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateUpdateStoreRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	store, err := h.storeRepo.UpdatePartial(c.Context(), ownerID, repository.UpdateStoreInput{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Phone:       req.Phone,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Store not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update store"})
	}

	return c.JSON(fiber.Map{"store": store})
}

func (h *StoreHandler) UploadStorePhoto(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "owner" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	if h.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}

	ownerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file is empty"})
	}
	if fileHeader.Size > maxStorePhotoSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file exceeds 5MB limit"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open photo file"})
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo must be a jpg, jpeg, png, or webp file"})
	}

	filename := fmt.Sprintf("%d-%s%s", ownerID, uuid.NewString(), ext)
	photoURL, err := h.storageService.UploadFile(c.Context(), file, filename, "stores/photos")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload photo"})
	}

	currentStore, err := h.storeRepo.GetByOwnerID(c.Context(), ownerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch store"})
	}
	if currentStore.PhotoURL != nil && *currentStore.PhotoURL != "" && *currentStore.PhotoURL != photoURL {
		_ = h.storageService.DeleteFile(c.Context(), *currentStore.PhotoURL)
	}

	store, err := h.storeRepo.UpdatePartial(c.Context(), ownerID, repository.UpdateStoreInput{
		PhotoURL: &photoURL,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update store"})
	}

	return c.JSON(fiber.Map{
		"photo_url": photoURL,
		"store":     store,
	})
}
