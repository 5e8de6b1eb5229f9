package chatfeed

import (
	"context"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
)

type ConversationLister interface {
	ListForStore(ctx context.Context, storeID int64) ([]models.Conversation, error)
}

type MessageLister interface {
	ListAllAscending(ctx context.Context, conversationID int64) ([]models.ChatMessage, error)
}

// RepoLoader adapts the chat repositories to the SnapshotLoader the broker
// reads from.
type RepoLoader struct {
	Conversations ConversationLister
	Messages      MessageLister
}

func (l RepoLoader) ConversationsForStore(ctx context.Context, storeID int64) ([]models.Conversation, error) {
	return l.Conversations.ListForStore(ctx, storeID)
}

func (l RepoLoader) MessagesForConversation(ctx context.Context, conversationID int64) ([]models.ChatMessage, error) {
	return l.Messages.ListAllAscending(ctx, conversationID)
}
