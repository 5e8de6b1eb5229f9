package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/Morris-wambua/fabs-store-sub000/internal/chatfeed"
	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/jackc/pgx/v5"
)

type conversationAccessChecker interface {
	GetByIDForParticipant(ctx context.Context, conversationID int64, participantID int64) (*models.Conversation, error)
}

// ChatFeedHandler serves snapshot streams over websockets: the store inbox
// feed and the per-conversation message feed. Every frame is the full current
// snapshot, so a client renders the frame as-is and never patches state.
type ChatFeedHandler struct {
	broker           *chatfeed.Broker
	storeRepo        feedStoreReader
	conversationRepo conversationAccessChecker
}

func NewChatFeedHandler(
	broker *chatfeed.Broker,
	storeRepo feedStoreReader,
	conversationRepo conversationAccessChecker,
) *ChatFeedHandler {
	return &ChatFeedHandler{
		broker:           broker,
		storeRepo:        storeRepo,
		conversationRepo: conversationRepo,
	}
}

type conversationFeedFrame struct {
	Type          string                `json:"type"`
	Conversations []models.Conversation `json:"conversations"`
}

type messageFeedFrame struct {
	Type     string               `json:"type"`
	Messages []models.ChatMessage `json:"messages"`
}

func (h *ChatFeedHandler) HandleConversationFeed(conn *websocket.Conn) {
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := h.storeRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeFeedClose(conn, "Store not found")
			return
		}
		writeFeedClose(conn, "Failed to fetch store")
		return
	}

	snapshots, err := h.broker.ObserveConversations(ctx, store.ID)
	if err != nil {
		writeFeedClose(conn, "Failed to load conversations")
		return
	}

	go discardInbound(conn, cancel)

	for snapshot := range snapshots {
		frame := conversationFeedFrame{Type: "conversations", Conversations: snapshot}
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

func (h *ChatFeedHandler) HandleMessageFeed(conn *websocket.Conn) {
	defer conn.Close()

	role, _ := conn.Locals("role").(string)
	if role != "owner" && role != "customer" {
		writeFeedClose(conn, "Forbidden")
		return
	}

	userIDStr, _ := conn.Locals("user_id").(string)
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		writeFeedClose(conn, "Invalid token")
		return
	}

	conversationID, err := strconv.ParseInt(conn.Params("id"), 10, 64)
	if err != nil || conversationID <= 0 {
		writeFeedClose(conn, "Invalid conversation id")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := h.conversationRepo.GetByIDForParticipant(ctx, conversationID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeFeedClose(conn, "Forbidden")
			return
		}
		writeFeedClose(conn, "Failed to fetch conversation")
		return
	}

	snapshots, err := h.broker.ObserveMessages(ctx, conversationID)
	if err != nil {
		writeFeedClose(conn, "Failed to load messages")
		return
	}

	go discardInbound(conn, cancel)

	for snapshot := range snapshots {
		frame := messageFeedFrame{Type: "messages", Messages: snapshot}
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

// discardInbound drains the socket so pings are answered and a peer close
// tears the stream down.
func discardInbound(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
