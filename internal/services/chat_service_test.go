package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

type stubConversationStore struct {
	conversations map[int64]*models.Conversation
	participants  map[int64][]int64
	nextID        int64

	summaryErr     error
	summaryApplied bool
	summaryText    string
	summaryRole    string
	summaryAt      time.Time
}

func newStubConversationStore() *stubConversationStore {
	return &stubConversationStore{
		conversations: make(map[int64]*models.Conversation),
		participants:  make(map[int64][]int64),
		nextID:        1,
	}
}

func (s *stubConversationStore) add(conversation *models.Conversation, participantIDs ...int64) {
	s.conversations[conversation.ID] = conversation
	s.participants[conversation.ID] = participantIDs
}

func (s *stubConversationStore) CreateOrGet(_ context.Context, storeID int64, storeName string, customerID int64, customerName string) (*models.Conversation, error) {
	for _, conversation := range s.conversations {
		if conversation.StoreID == storeID && conversation.CustomerID == customerID {
			return conversation, nil
		}
	}
	conversation := &models.Conversation{
		ID:           s.nextID,
		StoreID:      storeID,
		CustomerID:   customerID,
		StoreName:    storeName,
		CustomerName: customerName,
	}
	s.nextID++
	s.conversations[conversation.ID] = conversation
	return conversation, nil
}

func (s *stubConversationStore) GetByIDForParticipant(_ context.Context, conversationID int64, participantID int64) (*models.Conversation, error) {
	conversation, ok := s.conversations[conversationID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	for _, id := range s.participants[conversationID] {
		if id == participantID {
			return conversation, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubConversationStore) ListForStore(_ context.Context, storeID int64) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, conversation := range s.conversations {
		if conversation.StoreID == storeID {
			out = append(out, *conversation)
		}
	}
	return out, nil
}

func (s *stubConversationStore) ListForCustomer(_ context.Context, customerID int64) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, conversation := range s.conversations {
		if conversation.CustomerID == customerID {
			out = append(out, *conversation)
		}
	}
	return out, nil
}

func (s *stubConversationStore) ApplySummary(_ context.Context, _ int64, text string, sentAt time.Time, senderRole string) error {
	if s.summaryErr != nil {
		return s.summaryErr
	}
	s.summaryApplied = true
	s.summaryText = text
	s.summaryRole = senderRole
	s.summaryAt = sentAt
	return nil
}

type stubMessageStore struct {
	messages []models.ChatMessage
	nextID   int64
}

func (s *stubMessageStore) Create(_ context.Context, conversationID int64, senderID int64, senderRole string, content string) (*models.ChatMessage, error) {
	s.nextID++
	message := models.ChatMessage{
		ID:             s.nextID,
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderRole:     senderRole,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	s.messages = append(s.messages, message)
	return &message, nil
}

type stubStoreReader struct {
	stores map[int64]*models.Store
}

func (s *stubStoreReader) GetByOwnerID(_ context.Context, ownerID int64) (*models.Store, error) {
	for _, store := range s.stores {
		if store.OwnerID == ownerID {
			return store, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubStoreReader) GetByID(_ context.Context, storeID int64) (*models.Store, error) {
	store, ok := s.stores[storeID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return store, nil
}

type stubUserReader struct {
	users map[int64]*models.User
}

func (s *stubUserReader) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

type recordingChatNotifier struct {
	conversationStores []int64
	messageFeeds       []int64
}

func (n *recordingChatNotifier) NotifyConversations(storeID int64) {
	n.conversationStores = append(n.conversationStores, storeID)
}

func (n *recordingChatNotifier) NotifyMessages(conversationID int64) {
	n.messageFeeds = append(n.messageFeeds, conversationID)
}

func storeName(name string) *string {
	return &name
}

func newChatFixture() (*ChatService, *stubConversationStore, *stubMessageStore, *recordingChatNotifier) {
	conversations := newStubConversationStore()
	messages := &stubMessageStore{}
	notifier := &recordingChatNotifier{}
	stores := &stubStoreReader{stores: map[int64]*models.Store{
		7: {ID: 7, OwnerID: 100, Name: storeName("Polished"), OnboardingComplete: true},
	}}
	users := &stubUserReader{users: map[int64]*models.User{
		100: {ID: 100, FullName: "Dana Owner", Role: "owner"},
		3:   {ID: 3, FullName: "Casey Customer", Role: "customer"},
	}}
	service := NewChatService(nil, conversations, messages, stores, users, notifier)
	return service, conversations, messages, notifier
}

func TestSendMessageReportsPartialSuccessWhenSummaryFails(t *testing.T) {
	service, conversations, messages, notifier := newChatFixture()
	conversations.add(&models.Conversation{ID: 42, StoreID: 7, CustomerID: 3}, 100, 3)
	conversations.summaryErr = errors.New("summary write failed")

	outcome, err := service.SendMessage(context.Background(), 3, "customer", 42, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if outcome.Message == nil || outcome.Message.Content != "hello" {
		t.Fatalf("message not persisted: %+v", outcome.Message)
	}
	if len(messages.messages) != 1 {
		t.Fatalf("message store holds %d messages, want 1", len(messages.messages))
	}
	if outcome.SummaryUpdated {
		t.Fatal("SummaryUpdated = true despite summary failure")
	}
	if outcome.SummaryErr == nil {
		t.Fatal("SummaryErr not set on summary failure")
	}
	if len(notifier.messageFeeds) != 1 || notifier.messageFeeds[0] != 42 {
		t.Fatalf("message feed notifications = %v, want [42]", notifier.messageFeeds)
	}
	// The inbox list draws from the stale summary, so no snapshot is pushed.
	if len(notifier.conversationStores) != 0 {
		t.Fatalf("conversation notifications = %v, want none", notifier.conversationStores)
	}
}

func TestSendMessageUpdatesSummaryAfterMessage(t *testing.T) {
	service, conversations, _, notifier := newChatFixture()
	conversations.add(&models.Conversation{ID: 42, StoreID: 7, CustomerID: 3}, 100, 3)

	outcome, err := service.SendMessage(context.Background(), 3, "customer", 42, "  see you at 5  ")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if !outcome.SummaryUpdated {
		t.Fatal("SummaryUpdated = false on success")
	}
	if !conversations.summaryApplied {
		t.Fatal("summary not applied")
	}
	if conversations.summaryText != "see you at 5" {
		t.Fatalf("summary text = %q, want trimmed content", conversations.summaryText)
	}
	if conversations.summaryRole != "customer" {
		t.Fatalf("summary sender role = %q, want customer", conversations.summaryRole)
	}
	if !conversations.summaryAt.Equal(outcome.Message.CreatedAt) {
		t.Fatal("summary timestamp differs from message timestamp")
	}
	if len(notifier.conversationStores) != 1 || notifier.conversationStores[0] != 7 {
		t.Fatalf("conversation notifications = %v, want [7]", notifier.conversationStores)
	}
}

func TestSendMessageResolvesRecipientPerSenderSide(t *testing.T) {
	service, conversations, _, _ := newChatFixture()
	conversations.add(&models.Conversation{ID: 42, StoreID: 7, CustomerID: 3}, 100, 3)

	fromCustomer, err := service.SendMessage(context.Background(), 3, "customer", 42, "hi")
	if err != nil {
		t.Fatalf("SendMessage as customer: %v", err)
	}
	if fromCustomer.Message.SenderRole != "customer" || fromCustomer.RecipientID != 100 {
		t.Fatalf("customer send: role %q recipient %d, want customer -> 100",
			fromCustomer.Message.SenderRole, fromCustomer.RecipientID)
	}

	fromOwner, err := service.SendMessage(context.Background(), 100, "owner", 42, "hi back")
	if err != nil {
		t.Fatalf("SendMessage as owner: %v", err)
	}
	if fromOwner.Message.SenderRole != "owner" || fromOwner.RecipientID != 3 {
		t.Fatalf("owner send: role %q recipient %d, want owner -> 3",
			fromOwner.Message.SenderRole, fromOwner.RecipientID)
	}
}

func TestSendMessageRejectsNonParticipantsAndBlankContent(t *testing.T) {
	service, conversations, _, _ := newChatFixture()
	conversations.add(&models.Conversation{ID: 42, StoreID: 7, CustomerID: 3}, 100, 3)

	if _, err := service.SendMessage(context.Background(), 999, "customer", 42, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-participant err = %v, want ErrForbidden", err)
	}
	if _, err := service.SendMessage(context.Background(), 3, "customer", 42, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank content err = %v, want ErrInvalidInput", err)
	}
	if _, err := service.SendMessage(context.Background(), 3, "admin", 42, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unknown role err = %v, want ErrForbidden", err)
	}
}

func TestGetOrCreateConversationIsIdempotent(t *testing.T) {
	service, _, _, notifier := newChatFixture()

	first, err := service.GetOrCreateConversation(context.Background(), 3, "customer", 7)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	second, err := service.GetOrCreateConversation(context.Background(), 3, "customer", 7)
	if err != nil {
		t.Fatalf("GetOrCreateConversation (repeat): %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("repeat call created a second conversation: %d then %d", first.ID, second.ID)
	}
	if first.StoreName != "Polished" || first.CustomerName != "Casey Customer" {
		t.Fatalf("cached names = %q / %q", first.StoreName, first.CustomerName)
	}
	if len(notifier.conversationStores) != 2 {
		t.Fatalf("conversation notifications = %v, want one per call", notifier.conversationStores)
	}
}

func TestGetOrCreateConversationGuards(t *testing.T) {
	service, _, _, _ := newChatFixture()

	if _, err := service.GetOrCreateConversation(context.Background(), 100, "owner", 7); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner-initiated err = %v, want ErrForbidden", err)
	}
	if _, err := service.GetOrCreateConversation(context.Background(), 3, "customer", 999); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("unknown store err = %v, want ErrStoreNotFound", err)
	}
	if _, err := service.GetOrCreateConversation(context.Background(), 3, "customer", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero store id err = %v, want ErrInvalidInput", err)
	}
}

func TestListConversationsByRole(t *testing.T) {
	service, conversations, _, _ := newChatFixture()
	conversations.add(&models.Conversation{ID: 1, StoreID: 7, CustomerID: 3}, 100, 3)
	conversations.add(&models.Conversation{ID: 2, StoreID: 7, CustomerID: 4}, 100, 4)

	forOwner, err := service.ListConversations(context.Background(), 100, "owner")
	if err != nil {
		t.Fatalf("ListConversations owner: %v", err)
	}
	if len(forOwner) != 2 {
		t.Fatalf("owner inbox has %d conversations, want 2", len(forOwner))
	}

	forCustomer, err := service.ListConversations(context.Background(), 3, "customer")
	if err != nil {
		t.Fatalf("ListConversations customer: %v", err)
	}
	if len(forCustomer) != 1 || forCustomer[0].ID != 1 {
		t.Fatalf("customer inbox = %v", forCustomer)
	}

	if _, err := service.ListConversations(context.Background(), 3, "admin"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unknown role err = %v, want ErrForbidden", err)
	}
}
