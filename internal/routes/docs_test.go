package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Morris-wambua/fabs-store-sub000/internal/config"
	"github.com/gofiber/fiber/v2"
)

func TestRegisterDocsRoutesServesEndpointIndex(t *testing.T) {
	app := fiber.New()
	cfg := &config.Config{AppEnv: "development", EnableDocs: true}

	if err := registerDocsRoutes(app, cfg); err != nil {
		t.Fatalf("registerDocsRoutes: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test docs index: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected docs index status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderCacheControl); got != "no-store, max-age=0" {
		t.Fatalf("expected no-store cache control, got %q", got)
	}

	var body struct {
		Name      string         `json:"name"`
		Endpoints []docsEndpoint `json:"endpoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode docs index: %v", err)
	}
	if len(body.Endpoints) == 0 {
		t.Fatal("docs index lists no endpoints")
	}

	var sawReservationFeed bool
	for _, endpoint := range body.Endpoints {
		if endpoint.Path == "/api/v1/ws/reservations" {
			sawReservationFeed = true
		}
	}
	if !sawReservationFeed {
		t.Fatal("docs index is missing the reservation feed socket")
	}
}

func TestRegisterDocsRoutesSkipsWhenDisabled(t *testing.T) {
	cases := []*config.Config{
		{AppEnv: "production", EnableDocs: true},
		{AppEnv: "development", EnableDocs: false},
	}

	for _, cfg := range cases {
		app := fiber.New()
		if err := registerDocsRoutes(app, cfg); err != nil {
			t.Fatalf("registerDocsRoutes: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/docs", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test docs index: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("docs served with env %q enable %t, status %d",
				cfg.AppEnv, cfg.EnableDocs, resp.StatusCode)
		}
	}
}
