package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/Morris-wambua/fabs-store-sub000/internal/services"
	ws "github.com/Morris-wambua/fabs-store-sub000/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/jackc/pgx/v5"
)

type feedStoreReader interface {
	GetByOwnerID(ctx context.Context, ownerID int64) (*models.Store, error)
}

// FeedHandler upgrades owner dashboard sockets into live reservation feeds.
type FeedHandler struct {
	service   *services.ReservationService
	storeRepo feedStoreReader
	hub       *ws.FeedHub
}

func NewFeedHandler(service *services.ReservationService, storeRepo feedStoreReader, hub *ws.FeedHub) *FeedHandler {
	return &FeedHandler{
		service:   service,
		storeRepo: storeRepo,
		hub:       hub,
	}
}

func (h *FeedHandler) HandleReservationFeed(conn *websocket.Conn) {
	defer conn.Close()

	role, _ := conn.Locals("role").(string)
	if role != "owner" {
		writeFeedClose(conn, "Forbidden")
		return
	}

	userIDStr, _ := conn.Locals("user_id").(string)
	ownerID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		writeFeedClose(conn, "Invalid token")
		return
	}

	store, err := h.storeRepo.GetByOwnerID(context.Background(), ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeFeedClose(conn, "Store not found")
			return
		}
		writeFeedClose(conn, "Failed to fetch store")
		return
	}

	session := ws.NewFeedSession(h.hub, conn, h.service, ownerID, store.ID)
	session.Run()
}

func writeFeedClose(conn *websocket.Conn, reason string) {
	_ = conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
	)
}
