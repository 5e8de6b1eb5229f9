package repository

import (
	"context"
	"time"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `id, store_id, customer_id, store_name, customer_name,
		last_message_text, last_message_at, unread_store, unread_customer, created_at, updated_at`

// CreateOrGet resolves the conversation for a (store, customer) pair, creating
// it if absent. The unique index on the pair makes concurrent callers converge
// on a single row instead of racing a lookup against an insert.
func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	storeID int64,
	storeName string,
	customerID int64,
	customerName string,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (store_id, customer_id, store_name, customer_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (store_id, customer_id)
		DO UPDATE SET store_name = EXCLUDED.store_name, customer_name = EXCLUDED.customer_name
		RETURNING ` + conversationColumns

	return r.scanConversation(r.db.QueryRow(ctx, query, storeID, customerID, storeName, customerName))
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE id = $1
	`
	return r.scanConversation(r.db.QueryRow(ctx, query, conversationID))
}

func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	conversationID int64,
	participantID int64,
) (*models.Conversation, error) {
	query := `
		SELECT c.id, c.store_id, c.customer_id, c.store_name, c.customer_name,
			   c.last_message_text, c.last_message_at, c.unread_store, c.unread_customer,
			   c.created_at, c.updated_at
		FROM conversations c
		JOIN stores s ON s.id = c.store_id
		WHERE c.id = $1 AND (c.customer_id = $2 OR s.owner_id = $2)
	`
	return r.scanConversation(r.db.QueryRow(ctx, query, conversationID, participantID))
}

func (r *ConversationRepository) ListForStore(ctx context.Context, storeID int64) ([]models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE store_id = $1
		ORDER BY last_message_at DESC NULLS LAST, id DESC
	`
	return r.list(ctx, query, storeID)
}

func (r *ConversationRepository) ListForCustomer(ctx context.Context, customerID int64) ([]models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE customer_id = $1
		ORDER BY last_message_at DESC NULLS LAST, id DESC
	`
	return r.list(ctx, query, customerID)
}

// ApplySummary records a newly sent message on the conversation: last-message
// fields and the recipient side's unread counter.
func (r *ConversationRepository) ApplySummary(
	ctx context.Context,
	conversationID int64,
	text string,
	sentAt time.Time,
	senderRole string,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_text = $2,
			last_message_at = $3,
			unread_store = unread_store + CASE WHEN $4 = 'customer' THEN 1 ELSE 0 END,
			unread_customer = unread_customer + CASE WHEN $4 = 'owner' THEN 1 ELSE 0 END,
			updated_at = NOW()
		WHERE id = $1
	`, conversationID, text, sentAt, senderRole)
	return err
}

// ResetUnread zeroes one side's unread counter.
func (r *ConversationRepository) ResetUnread(ctx context.Context, conversationID int64, readerRole string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET unread_store = CASE WHEN $2 = 'owner' THEN 0 ELSE unread_store END,
			unread_customer = CASE WHEN $2 = 'customer' THEN 0 ELSE unread_customer END,
			updated_at = NOW()
		WHERE id = $1
	`, conversationID, readerRole)
	return err
}

func (r *ConversationRepository) list(ctx context.Context, query string, arg any) ([]models.Conversation, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conversation models.Conversation
		if err := rows.Scan(
			&conversation.ID,
			&conversation.StoreID,
			&conversation.CustomerID,
			&conversation.StoreName,
			&conversation.CustomerName,
			&conversation.LastMessageText,
			&conversation.LastMessageAt,
			&conversation.UnreadStore,
			&conversation.UnreadCustomer,
			&conversation.CreatedAt,
			&conversation.UpdatedAt,
		); err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return conversations, nil
}

func (r *ConversationRepository) scanConversation(row pgx.Row) (*models.Conversation, error) {
	var conversation models.Conversation
	err := row.Scan(
		&conversation.ID,
		&conversation.StoreID,
		&conversation.CustomerID,
		&conversation.StoreName,
		&conversation.CustomerName,
		&conversation.LastMessageText,
		&conversation.LastMessageAt,
		&conversation.UnreadStore,
		&conversation.UnreadCustomer,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}
