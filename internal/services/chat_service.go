package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/Morris-wambua/fabs-store-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type conversationStore interface {
	CreateOrGet(ctx context.Context, storeID int64, storeName string, customerID int64, customerName string) (*models.Conversation, error)
	GetByIDForParticipant(ctx context.Context, conversationID int64, participantID int64) (*models.Conversation, error)
	ListForStore(ctx context.Context, storeID int64) ([]models.Conversation, error)
	ListForCustomer(ctx context.Context, customerID int64) ([]models.Conversation, error)
	ApplySummary(ctx context.Context, conversationID int64, text string, sentAt time.Time, senderRole string) error
}

type messageStore interface {
	Create(ctx context.Context, conversationID int64, senderID int64, senderRole string, content string) (*models.ChatMessage, error)
}

// chatNotifier fans fresh snapshots out to live observers after a mutation.
type chatNotifier interface {
	NotifyConversations(storeID int64)
	NotifyMessages(conversationID int64)
}

type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo conversationStore
	messageRepo      messageStore
	storeRepo        storeReader
	userRepo         userReader
	notifier         chatNotifier
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo conversationStore,
	messageRepo messageStore,
	storeRepo storeReader,
	userRepo userReader,
	notifier chatNotifier,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		storeRepo:        storeRepo,
		userRepo:         userRepo,
		notifier:         notifier,
	}
}

// SendOutcome reports the result of the two-step send. The message write and
// the conversation-summary write are separate; a failed summary step leaves
// the message persisted and visible, which the outcome reports as partial
// success instead of hiding it behind a single error.
type SendOutcome struct {
	Message        *models.ChatMessage  `json:"message"`
	Conversation   *models.Conversation `json:"-"`
	SummaryUpdated bool                 `json:"summary_updated"`
	SummaryErr     error                `json:"-"`
	RecipientID    int64                `json:"-"`
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	actorID int64,
	role string,
) ([]models.Conversation, error) {
	switch role {
	case "owner":
		store, err := s.storeRepo.GetByOwnerID(ctx, actorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrStoreNotFound
			}
			return nil, err
		}
		return s.conversationRepo.ListForStore(ctx, store.ID)
	case "customer":
		return s.conversationRepo.ListForCustomer(ctx, actorID)
	default:
		return nil, ErrForbidden
	}
}

// GetOrCreateConversation resolves the single conversation between the store
// and the customer, creating it atomically if absent. Concurrent first
// messages converge on one conversation.
func (s *ChatService) GetOrCreateConversation(
	ctx context.Context,
	actorID int64,
	role string,
	storeID int64,
) (*models.Conversation, error) {
	if role != "customer" {
		return nil, ErrForbidden
	}
	if storeID <= 0 {
		return nil, ErrInvalidInput
	}

	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	if !store.OnboardingComplete || store.Name == nil {
		return nil, ErrStoreNotFound
	}

	customer, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	conversation, err := s.conversationRepo.CreateOrGet(ctx, store.ID, *store.Name, customer.ID, customer.FullName)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyConversations(store.ID)
	}

	return conversation, nil
}

// SendMessage appends the message, then updates the conversation summary.
// The two writes are deliberately not atomic: the message is durable and
// observable as soon as step one commits, and a summary failure is reported
// in the outcome rather than rolling the message back.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
	content string,
) (*SendOutcome, error) {
	if role != "owner" && role != "customer" {
		return nil, ErrForbidden
	}
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	senderRole := "owner"
	recipientID := conversation.CustomerID
	if actorID == conversation.CustomerID {
		senderRole = "customer"
		store, err := s.storeRepo.GetByID(ctx, conversation.StoreID)
		if err != nil {
			return nil, err
		}
		recipientID = store.OwnerID
	}

	message, err := s.messageRepo.Create(ctx, conversationID, actorID, senderRole, trimmed)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyMessages(conversationID)
	}

	outcome := &SendOutcome{
		Message:      message,
		Conversation: conversation,
		RecipientID:  recipientID,
	}

	if err := s.conversationRepo.ApplySummary(ctx, conversationID, trimmed, message.CreatedAt, senderRole); err != nil {
		outcome.SummaryErr = err
		return outcome, nil
	}
	outcome.SummaryUpdated = true

	if s.notifier != nil {
		s.notifier.NotifyConversations(conversation.StoreID)
	}

	return outcome, nil
}

// ListMessages returns one page of history and, in the same transaction,
// marks the returned counterpart messages read and resets the reader's unread
// counter. Reading a page is the read receipt.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
	page int,
	limit int,
) ([]models.ChatMessage, int, error) {
	if role != "owner" && role != "customer" {
		return nil, 0, ErrForbidden
	}
	if conversationID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	messages, total, err := txMessageRepo.ListByConversation(
		ctx,
		conversationID,
		limit,
		(page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}

	readerRole := "owner"
	if actorID == conversation.CustomerID {
		readerRole = "customer"
	}

	changed, err := txMessageRepo.MarkConversationRead(ctx, conversationID, actorID)
	if err != nil {
		return nil, 0, err
	}
	if err := txConversationRepo.ResetUnread(ctx, conversationID, readerRole); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}

	for i := range messages {
		if messages[i].SenderID != actorID {
			messages[i].IsRead = true
		}
	}

	if changed > 0 && s.notifier != nil {
		s.notifier.NotifyMessages(conversationID)
		s.notifier.NotifyConversations(conversation.StoreID)
	}

	return messages, total, nil
}

// MarkConversationRead flips every counterpart message to read and resets the
// reader's unread counter, atomically.
func (s *ChatService) MarkConversationRead(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
) error {
	if role != "owner" && role != "customer" {
		return ErrForbidden
	}
	if conversationID <= 0 {
		return ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrForbidden
		}
		return err
	}

	readerRole := "owner"
	if actorID == conversation.CustomerID {
		readerRole = "customer"
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	changed, err := txMessageRepo.MarkConversationRead(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	if err := txConversationRepo.ResetUnread(ctx, conversationID, readerRole); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if changed > 0 && s.notifier != nil {
		s.notifier.NotifyMessages(conversationID)
	}
	if s.notifier != nil {
		s.notifier.NotifyConversations(conversation.StoreID)
	}

	return nil
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
