package routes

import (
	"github.com/Morris-wambua/fabs-store-sub000/internal/config"
	"github.com/gofiber/fiber/v2"
)

type docsEndpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var docsEndpoints = []docsEndpoint{
	{Method: "POST", Path: "/api/auth/register", Description: "Register an owner or customer account"},
	{Method: "POST", Path: "/api/auth/login", Description: "Exchange credentials for a JWT"},
	{Method: "GET", Path: "/api/auth/me", Description: "Current user, plus the store for owners"},
	{Method: "POST", Path: "/api/v1/stores/onboarding", Description: "Complete store onboarding"},
	{Method: "GET", Path: "/api/v1/stores/me", Description: "Owner's store profile"},
	{Method: "PUT", Path: "/api/v1/stores/me", Description: "Partially update the store profile"},
	{Method: "POST", Path: "/api/v1/stores/me/photo", Description: "Upload the store photo"},
	{Method: "GET", Path: "/api/v1/stores/:id", Description: "Public store profile"},
	{Method: "GET", Path: "/api/v1/stores/:id/experts", Description: "Active experts of a store"},
	{Method: "GET", Path: "/api/v1/stores/:id/services", Description: "Active services of a store"},
	{Method: "POST", Path: "/api/v1/experts", Description: "Create an expert"},
	{Method: "GET", Path: "/api/v1/experts", Description: "All experts of the owner's store"},
	{Method: "PUT", Path: "/api/v1/experts/:id", Description: "Partially update an expert"},
	{Method: "POST", Path: "/api/v1/experts/:id/avatar", Description: "Upload an expert avatar"},
	{Method: "POST", Path: "/api/v1/services", Description: "Create a service"},
	{Method: "GET", Path: "/api/v1/services", Description: "All services of the owner's store"},
	{Method: "PUT", Path: "/api/v1/services/:id", Description: "Partially update a service"},
	{Method: "POST", Path: "/api/v1/reservations/book", Description: "Book a reservation"},
	{Method: "GET", Path: "/api/v1/reservations", Description: "Owner reservation list with filter, search and pagination"},
	{Method: "GET", Path: "/api/v1/reservations/mine", Description: "Customer reservation list"},
	{Method: "GET", Path: "/api/v1/reservations/:id", Description: "Single reservation"},
	{Method: "PUT", Path: "/api/v1/reservations/:id/status", Description: "Approve, reject, start, complete or cancel"},
	{Method: "GET", Path: "/api/v1/conversations", Description: "Conversation inbox"},
	{Method: "POST", Path: "/api/v1/conversations", Description: "Get or create the conversation with a store"},
	{Method: "GET", Path: "/api/v1/conversations/:id/messages", Description: "Message history page, marks the page read"},
	{Method: "POST", Path: "/api/v1/conversations/:id/read", Description: "Mark the whole conversation read"},
	{Method: "GET", Path: "/api/v1/ws", Description: "Chat socket"},
	{Method: "GET", Path: "/api/v1/ws/reservations", Description: "Owner reservation feed socket"},
	{Method: "GET", Path: "/api/v1/ws/conversations", Description: "Owner inbox snapshot feed socket"},
	{Method: "GET", Path: "/api/v1/ws/conversations/:id/messages", Description: "Conversation snapshot feed socket"},
}

func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c)
		return c.JSON(fiber.Map{
			"name":      "fabs-store API",
			"endpoints": docsEndpoints,
		})
	})

	return nil
}

func applyDocsBaseHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "no-store, max-age=0")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set("Referrer-Policy", "no-referrer")
	c.Set("X-Robots-Tag", "noindex, nofollow")
}
