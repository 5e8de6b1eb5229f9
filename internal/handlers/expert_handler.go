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

type expertStore interface {
	Create(ctx context.Context, input repository.CreateExpertInput) (*models.Expert, error)
	GetByIDForStore(ctx context.Context, expertID, storeID int64) (*models.Expert, error)
	ListByStore(ctx context.Context, storeID int64, includeInactive bool) ([]models.Expert, error)
	UpdatePartial(ctx context.Context, expertID, storeID int64, req repository.UpdateExpertInput) (*models.Expert, error)
}

type storeLookup interface {
	GetByOwnerID(ctx context.Context, ownerID int64) (*models.Store, error)
	GetByID(ctx context.Context, storeID int64) (*models.Store, error)
}

type ExpertHandler struct {
	expertRepo     expertStore
	storeRepo      storeLookup
	storageService services.StorageService
}

func NewExpertHandler(expertRepo expertStore, storeRepo storeLookup, storageService services.StorageService) *ExpertHandler {
	return &ExpertHandler{
		expertRepo:     expertRepo,
		storeRepo:      storeRepo,
		storageService: storageService,
	}
}

type createExpertRequest struct {
	Name  string  `json:"name"`
	Title *string `json:"title"`
	Bio   *string `json:"bio"`
}

type updateExpertRequest struct {
	Name     *string `json:"name"`
	Title    *string `json:"title"`
	Bio      *string `json:"bio"`
	IsActive *bool   `json:"is_active"`
}

func (h *ExpertHandler) Create(c *fiber.Ctx) error {
	store, ok := h.requireOwnedStore(c)
	if !ok {
		return nil
	}

	var req createExpertRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	expert, err := h.expertRepo.Create(c.Context(), repository.CreateExpertInput{
		StoreID: store.ID,
		Name:    req.Name,
		Title:   req.Title,
		Bio:     req.Bio,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create expert"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"expert": expert})
}

// ListMine returns all of the owner's experts, inactive ones included.
func (h *ExpertHandler) ListMine(c *fiber.Ctx) error {
	store, ok := h.requireOwnedStore(c)
	if !ok {
		return nil
	}

	experts, err := h.expertRepo.ListByStore(c.Context(), store.ID, true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch experts"})
	}

	return c.JSON(fiber.Map{"experts": experts})
}

// ListForStore is the public listing customers browse. Only active experts of
// onboarded stores show up.
func (h *ExpertHandler) ListForStore(c *fiber.Ctx) error {
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

	experts, err := h.expertRepo.ListByStore(c.Context(), store.ID, false)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch experts"})
	}

	return c.JSON(fiber.Map{"experts": experts})
}

func (h *ExpertHandler) Update(c *fiber.Ctx) error {
	store, ok := h.requireOwnedStore(c)
	if !ok {
		return nil
	}

	expertID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || expertID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expert id"})
	}

	var req updateExpertRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name must not be empty"})
	}

	expert, err := h.expertRepo.UpdatePartial(c.Context(), expertID, store.ID, repository.UpdateExpertInput{
		Name:     req.Name,
		Title:    req.Title,
		Bio:      req.Bio,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Expert not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update expert"})
	}

	return c.JSON(fiber.Map{"expert": expert})
}

func (h *ExpertHandler) UploadAvatar(c *fiber.Ctx) error {
	store, ok := h.requireOwnedStore(c)
	if !ok {
		return nil
	}
	if h.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}

	expertID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || expertID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expert id"})
	}

	expert, err := h.expertRepo.GetByIDForStore(c.Context(), expertID, store.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Expert not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch expert"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is empty"})
	}
	if fileHeader.Size > maxStorePhotoSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file exceeds 5MB limit"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open avatar file"})
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar must be a jpg, jpeg, png, or webp file"})
	}

	filename := fmt.Sprintf("%d-%s%s", expert.ID, uuid.NewString(), ext)
	avatarURL, err := h.storageService.UploadFile(c.Context(), file, filename, "experts/avatars")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload avatar"})
	}

	if expert.AvatarURL != nil && *expert.AvatarURL != "" && *expert.AvatarURL != avatarURL {
		_ = h.storageService.DeleteFile(c.Context(), *expert.AvatarURL)
	}

	updated, err := h.expertRepo.UpdatePartial(c.Context(), expertID, store.ID, repository.UpdateExpertInput{
		AvatarURL: &avatarURL,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update expert"})
	}

	return c.JSON(fiber.Map{
		"avatar_url": avatarURL,
		"expert":     updated,
	})
}

func (h *ExpertHandler) requireOwnedStore(c *fiber.Ctx) (*models.Store, bool) {
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
