package models

import "time"

type Conversation struct {
	ID              int64      `json:"id"`
	StoreID         int64      `json:"store_id"`
	CustomerID      int64      `json:"customer_id"`
	StoreName       string     `json:"store_name"`
	CustomerName    string     `json:"customer_name"`
	LastMessageText *string    `json:"last_message_text"`
	LastMessageAt   *time.Time `json:"last_message_at"`
	UnreadStore     int        `json:"unread_store"`
	UnreadCustomer  int        `json:"unread_customer"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UnreadFor reports the unread counter for one side of the conversation.
func (c *Conversation) UnreadFor(participantID int64) int {
	if participantID == c.CustomerID {
		return c.UnreadCustomer
	}
	return c.UnreadStore
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderRole     string    `json:"sender_role"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}
