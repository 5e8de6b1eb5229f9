// Package chatfeed bridges chat mutations to pull-based snapshot streams.
// Every mutation re-reads the affected result set in full and fans it out to
// subscribers; consumers never see incremental diffs, only whole snapshots.
package chatfeed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
)

const loadTimeout = 10 * time.Second

// SnapshotLoader reads the current state a snapshot is built from.
type SnapshotLoader interface {
	ConversationsForStore(ctx context.Context, storeID int64) ([]models.Conversation, error)
	MessagesForConversation(ctx context.Context, conversationID int64) ([]models.ChatMessage, error)
}

type subscriber[T any] struct {
	ch chan T
}

// push delivers the latest snapshot without blocking. When the subscriber has
// not consumed the previous snapshot it is discarded: a newer snapshot always
// supersedes an older one.
func (s *subscriber[T]) push(snapshot T) {
	for {
		select {
		case s.ch <- snapshot:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

type Broker struct {
	loader SnapshotLoader

	// mu guards both subscriber maps. Channel closes and pushes happen under
	// mu so a teardown can never race a fan-out into a closed channel.
	mu               sync.Mutex
	conversationSubs map[int64]map[*subscriber[[]models.Conversation]]struct{}
	messageSubs      map[int64]map[*subscriber[[]models.ChatMessage]]struct{}
}

func NewBroker(loader SnapshotLoader) *Broker {
	return &Broker{
		loader:           loader,
		conversationSubs: make(map[int64]map[*subscriber[[]models.Conversation]]struct{}),
		messageSubs:      make(map[int64]map[*subscriber[[]models.ChatMessage]]struct{}),
	}
}

// ObserveConversations returns a live stream of conversation-list snapshots
// for the store, newest-message first. The current snapshot is delivered
// immediately; the stream is torn down and its channel closed when ctx is
// cancelled.
func (b *Broker) ObserveConversations(ctx context.Context, storeID int64) (<-chan []models.Conversation, error) {
	initial, err := b.loader.ConversationsForStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	sub := &subscriber[[]models.Conversation]{ch: make(chan []models.Conversation, 1)}
	sub.ch <- initial

	b.mu.Lock()
	set, ok := b.conversationSubs[storeID]
	if !ok {
		set = make(map[*subscriber[[]models.Conversation]]struct{})
		b.conversationSubs[storeID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if set, ok := b.conversationSubs[storeID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(b.conversationSubs, storeID)
			}
		}
		close(sub.ch)
		b.mu.Unlock()
	}()

	return sub.ch, nil
}

// ObserveMessages is ObserveConversations scoped to one conversation's
// messages, in ascending timestamp order.
func (b *Broker) ObserveMessages(ctx context.Context, conversationID int64) (<-chan []models.ChatMessage, error) {
	initial, err := b.loader.MessagesForConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	sub := &subscriber[[]models.ChatMessage]{ch: make(chan []models.ChatMessage, 1)}
	sub.ch <- initial

	b.mu.Lock()
	set, ok := b.messageSubs[conversationID]
	if !ok {
		set = make(map[*subscriber[[]models.ChatMessage]]struct{})
		b.messageSubs[conversationID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if set, ok := b.messageSubs[conversationID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(b.messageSubs, conversationID)
			}
		}
		close(sub.ch)
		b.mu.Unlock()
	}()

	return sub.ch, nil
}

// NotifyConversations re-reads the store's conversation list and fans the new
// snapshot out. No-op when nobody is observing the store.
func (b *Broker) NotifyConversations(storeID int64) {
	b.mu.Lock()
	active := len(b.conversationSubs[storeID]) > 0
	b.mu.Unlock()
	if !active {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	snapshot, err := b.loader.ConversationsForStore(ctx, storeID)
	if err != nil {
		log.Printf("chatfeed: load conversations for store %d: %v", storeID, err)
		return
	}

	b.mu.Lock()
	for sub := range b.conversationSubs[storeID] {
		sub.push(snapshot)
	}
	b.mu.Unlock()
}

// NotifyMessages re-reads one conversation's messages and fans the new
// snapshot out. No-op when nobody is observing the conversation.
func (b *Broker) NotifyMessages(conversationID int64) {
	b.mu.Lock()
	active := len(b.messageSubs[conversationID]) > 0
	b.mu.Unlock()
	if !active {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	snapshot, err := b.loader.MessagesForConversation(ctx, conversationID)
	if err != nil {
		log.Printf("chatfeed: load messages for conversation %d: %v", conversationID, err)
		return
	}

	b.mu.Lock()
	for sub := range b.messageSubs[conversationID] {
		sub.push(snapshot)
	}
	b.mu.Unlock()
}
