package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Morris-wambua/fabs-store-sub000/internal/feed"
	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/Morris-wambua/fabs-store-sub000/internal/services"
	websocket "github.com/gofiber/contrib/websocket"
)

// ReservationPage is the payload the reservation feed emits.
type ReservationPage struct {
	Reservations []models.ReservationDetail `json:"reservations"`
	Pagination   models.PaginationMeta      `json:"pagination"`
}

// FeedHub tracks the live reservation-feed sessions per store so reservation
// transitions can nudge every open dashboard to re-fetch.
type FeedHub struct {
	mu       sync.Mutex
	sessions map[int64]map[*FeedSession]struct{}
}

func NewFeedHub() *FeedHub {
	return &FeedHub{sessions: make(map[int64]map[*FeedSession]struct{})}
}

// NotifyStore refreshes every live feed for the store. Implements the
// services feed notifier.
func (h *FeedHub) NotifyStore(storeID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for session := range h.sessions[storeID] {
		session.controller.Refresh()
	}
}

func (h *FeedHub) attach(session *FeedSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[session.storeID]
	if !ok {
		set = make(map[*FeedSession]struct{})
		h.sessions[session.storeID] = set
	}
	set[session] = struct{}{}
}

func (h *FeedHub) detach(session *FeedSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[session.storeID]
	if !ok {
		return
	}
	delete(set, session)
	if len(set) == 0 {
		delete(h.sessions, session.storeID)
	}
}

// FeedSession binds one owner dashboard socket to a debounced feed
// controller: inbound frames change the query or force a refresh, outbound
// frames are the fetch lifecycle states.
type FeedSession struct {
	hub        *FeedHub
	conn       *websocket.Conn
	storeID    int64
	controller *feed.Controller[services.OwnerListInput, ReservationPage]
	cancel     context.CancelFunc
}

type reservationLister interface {
	ListForOwner(ctx context.Context, ownerID int64, input services.OwnerListInput) ([]models.ReservationDetail, int, error)
}

func NewFeedSession(
	hub *FeedHub,
	conn *websocket.Conn,
	service reservationLister,
	ownerID int64,
	storeID int64,
) *FeedSession {
	ctx, cancel := context.WithCancel(context.Background())

	fetch := func(ctx context.Context, input services.OwnerListInput) (ReservationPage, error) {
		reservations, total, err := service.ListForOwner(ctx, ownerID, input)
		if err != nil {
			return ReservationPage{}, err
		}
		page := input.Page
		if page <= 0 {
			page = 1
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 10
		}
		totalPages := 0
		if total > 0 {
			totalPages = (total + limit - 1) / limit
		}
		return ReservationPage{
			Reservations: reservations,
			Pagination: models.PaginationMeta{
				Page:       page,
				Limit:      limit,
				Total:      total,
				TotalPages: totalPages,
			},
		}, nil
	}

	return &FeedSession{
		hub:        hub,
		conn:       conn,
		storeID:    storeID,
		controller: feed.NewController(ctx, fetch, 0),
		cancel:     cancel,
	}
}

// Run services the socket until the peer disconnects. It starts the write
// side, registers with the hub, and consumes inbound frames.
func (s *FeedSession) Run() {
	s.hub.attach(s)
	defer func() {
		s.hub.detach(s)
		s.cancel()
		_ = s.conn.Close()
	}()

	go s.writePump()

	var query services.OwnerListInput
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame struct {
			Type   string `json:"type"`
			Filter string `json:"filter"`
			Search string `json:"search"`
			Page   int    `json:"page"`
			Limit  int    `json:"limit"`
		}
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "query":
			query = services.OwnerListInput{
				Filter: frame.Filter,
				Query:  frame.Search,
				Page:   frame.Page,
				Limit:  frame.Limit,
			}
			s.controller.Set(query)
		case "refresh":
			s.controller.Refresh()
		}
	}
}

func (s *FeedSession) writePump() {
	for state := range s.controller.States() {
		frame := struct {
			Type       string          `json:"type"`
			Phase      feed.Phase      `json:"phase"`
			Data       ReservationPage `json:"data,omitempty"`
			Err        string          `json:"error,omitempty"`
			Refreshing bool            `json:"refreshing,omitempty"`
		}{
			Type:       "state",
			Phase:      state.Phase,
			Data:       state.Data,
			Err:        state.Err,
			Refreshing: state.Refreshing,
		}

		encoded, err := json.Marshal(frame)
		if err != nil {
			continue
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
			return
		}
	}
}
