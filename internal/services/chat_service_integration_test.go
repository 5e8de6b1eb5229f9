package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/Morris-wambua/fabs-store-sub000/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type chatFixture struct {
	ownerID    int64
	customerID int64
	storeID    int64
}

func TestChatServiceMarkConversationReadFlipsMessagesAndResetsCounter(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	fx := createChatFixture(t, ctx, pool)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, fx.ownerID, fx.customerID) })

	conversation, err := service.GetOrCreateConversation(ctx, fx.customerID, "customer", fx.storeID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}

	for i := 1; i <= 3; i++ {
		outcome, err := service.SendMessage(ctx, fx.customerID, "customer", conversation.ID, fmt.Sprintf("hello %d", i))
		if err != nil {
			t.Fatalf("SendMessage %d: %v", i, err)
		}
		if !outcome.SummaryUpdated {
			t.Fatalf("SendMessage %d did not update summary: %v", i, outcome.SummaryErr)
		}
	}
	if _, err := service.SendMessage(ctx, fx.ownerID, "owner", conversation.ID, "be right with you"); err != nil {
		t.Fatalf("SendMessage owner: %v", err)
	}

	conversationRepo := repository.NewConversationRepository(pool)
	before, err := conversationRepo.GetByID(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("GetByID before: %v", err)
	}
	if before.UnreadStore != 3 {
		t.Fatalf("unread_store before read = %d, want 3", before.UnreadStore)
	}
	if before.UnreadCustomer != 1 {
		t.Fatalf("unread_customer before read = %d, want 1", before.UnreadCustomer)
	}

	if err := service.MarkConversationRead(ctx, fx.ownerID, "owner", conversation.ID); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}

	messages, err := repository.NewMessageRepository(pool).ListAllAscending(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("ListAllAscending: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("message count = %d, want 4", len(messages))
	}
	for _, message := range messages {
		if message.SenderID == fx.customerID && !message.IsRead {
			t.Fatalf("customer message %d still unread after owner read", message.ID)
		}
		if message.SenderID == fx.ownerID && message.IsRead {
			t.Fatalf("owner's own message %d was flipped to read", message.ID)
		}
	}

	after, err := conversationRepo.GetByID(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("GetByID after: %v", err)
	}
	if after.UnreadStore != 0 {
		t.Fatalf("unread_store after read = %d, want 0", after.UnreadStore)
	}
	if after.UnreadCustomer != 1 {
		t.Fatalf("unread_customer after owner read = %d, want 1", after.UnreadCustomer)
	}
}

func TestChatServiceListMessagesIsAReadReceipt(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationChatService(pool)

	fx := createChatFixture(t, ctx, pool)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, fx.ownerID, fx.customerID) })

	conversation, err := service.GetOrCreateConversation(ctx, fx.customerID, "customer", fx.storeID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	for i := 1; i <= 2; i++ {
		if _, err := service.SendMessage(ctx, fx.customerID, "customer", conversation.ID, fmt.Sprintf("ping %d", i)); err != nil {
			t.Fatalf("SendMessage %d: %v", i, err)
		}
	}

	messages, total, err := service.ListMessages(ctx, fx.ownerID, "owner", conversation.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != 2 || len(messages) != 2 {
		t.Fatalf("ListMessages returned %d of %d, want 2 of 2", len(messages), total)
	}
	for _, message := range messages {
		if !message.IsRead {
			t.Fatalf("message %d not reported read in the returned page", message.ID)
		}
	}

	after, err := repository.NewConversationRepository(pool).GetByID(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("GetByID after: %v", err)
	}
	if after.UnreadStore != 0 {
		t.Fatalf("unread_store after owner page read = %d, want 0", after.UnreadStore)
	}
}

func newIntegrationChatService(pool *pgxpool.Pool) *ChatService {
	return NewChatService(
		pool,
		repository.NewConversationRepository(pool),
		repository.NewMessageRepository(pool),
		repository.NewStoreRepository(pool),
		repository.NewUserRepository(pool),
		nil,
	)
}

func createChatFixture(t *testing.T, ctx context.Context, pool *pgxpool.Pool) chatFixture {
	t.Helper()

	ownerID := createTestAccount(t, ctx, pool, "owner")
	customerID := createTestAccount(t, ctx, pool, "customer")

	storeRepo := repository.NewStoreRepository(pool)
	if err := storeRepo.CreateEmpty(ctx, ownerID); err != nil {
		t.Fatalf("CreateEmpty store: %v", err)
	}
	store, err := storeRepo.UpdateOnboarding(ctx, ownerID, repository.StoreOnboardingInput{
		Name:        "Test Chat Salon",
		Description: "Test store",
		Address:     "1 Test Street",
		Latitude:    -1.28,
		Longitude:   36.82,
		Phone:       "+254700000000",
	})
	if err != nil {
		t.Fatalf("UpdateOnboarding store: %v", err)
	}

	return chatFixture{
		ownerID:    ownerID,
		customerID: customerID,
		storeID:    store.ID,
	}
}
