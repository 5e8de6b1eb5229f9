package chatfeed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
)

type fakeLoader struct {
	mu            sync.Mutex
	conversations map[int64][]models.Conversation
	messages      map[int64][]models.ChatMessage
	err           error
}

func (l *fakeLoader) ConversationsForStore(_ context.Context, storeID int64) ([]models.Conversation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return l.conversations[storeID], nil
}

func (l *fakeLoader) MessagesForConversation(_ context.Context, conversationID int64) ([]models.ChatMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return l.messages[conversationID], nil
}

func (l *fakeLoader) setMessages(conversationID int64, messages []models.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages[conversationID] = messages
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		conversations: make(map[int64][]models.Conversation),
		messages:      make(map[int64][]models.ChatMessage),
	}
}

func receiveSnapshot[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case snapshot, ok := <-ch:
		if !ok {
			t.Fatal("snapshot channel closed unexpectedly")
		}
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	panic("unreachable")
}

func TestObserveConversationsDeliversCurrentSnapshotImmediately(t *testing.T) {
	loader := newFakeLoader()
	loader.conversations[7] = []models.Conversation{{ID: 1, StoreID: 7, CustomerID: 3}}
	broker := NewBroker(loader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := broker.ObserveConversations(ctx, 7)
	if err != nil {
		t.Fatalf("ObserveConversations: %v", err)
	}

	snapshot := receiveSnapshot(t, snapshots)
	if len(snapshot) != 1 || snapshot[0].ID != 1 {
		t.Fatalf("initial snapshot = %v", snapshot)
	}
}

func TestObserveConversationsSurfacesLoadError(t *testing.T) {
	loader := newFakeLoader()
	loader.err = errors.New("db down")
	broker := NewBroker(loader)

	if _, err := broker.ObserveConversations(context.Background(), 7); err == nil {
		t.Fatal("expected error from failed initial load")
	}
}

func TestNotifyMessagesFansOutFreshSnapshot(t *testing.T) {
	loader := newFakeLoader()
	loader.setMessages(42, []models.ChatMessage{{ID: 1, ConversationID: 42}})
	broker := NewBroker(loader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := broker.ObserveMessages(ctx, 42)
	if err != nil {
		t.Fatalf("ObserveMessages: %v", err)
	}
	receiveSnapshot(t, snapshots)

	loader.setMessages(42, []models.ChatMessage{
		{ID: 1, ConversationID: 42},
		{ID: 2, ConversationID: 42},
	})
	broker.NotifyMessages(42)

	snapshot := receiveSnapshot(t, snapshots)
	if len(snapshot) != 2 {
		t.Fatalf("snapshot after notify has %d messages, want 2", len(snapshot))
	}
}

func TestNewerSnapshotSupersedesUnconsumedOne(t *testing.T) {
	loader := newFakeLoader()
	loader.setMessages(42, []models.ChatMessage{{ID: 1}})
	broker := NewBroker(loader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := broker.ObserveMessages(ctx, 42)
	if err != nil {
		t.Fatalf("ObserveMessages: %v", err)
	}

	// Never consume the initial snapshot; push two more.
	loader.setMessages(42, []models.ChatMessage{{ID: 1}, {ID: 2}})
	broker.NotifyMessages(42)
	loader.setMessages(42, []models.ChatMessage{{ID: 1}, {ID: 2}, {ID: 3}})
	broker.NotifyMessages(42)

	snapshot := receiveSnapshot(t, snapshots)
	if len(snapshot) != 3 {
		t.Fatalf("consumer saw %d messages, want the latest snapshot with 3", len(snapshot))
	}
}

func TestCancellingObserverClosesChannelAndStopsFanOut(t *testing.T) {
	loader := newFakeLoader()
	loader.setMessages(42, []models.ChatMessage{{ID: 1}})
	broker := NewBroker(loader)

	ctx, cancel := context.WithCancel(context.Background())
	snapshots, err := broker.ObserveMessages(ctx, 42)
	if err != nil {
		t.Fatalf("ObserveMessages: %v", err)
	}
	receiveSnapshot(t, snapshots)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-snapshots:
			if !ok {
				// Channel closed; a notify after teardown must not panic.
				broker.NotifyMessages(42)
				return
			}
		case <-deadline:
			t.Fatal("snapshot channel not closed after context cancel")
		}
	}
}

func TestNotifyWithoutObserversSkipsLoad(t *testing.T) {
	loader := newFakeLoader()
	loader.err = errors.New("should not be called")
	broker := NewBroker(loader)

	// Must not log-spam or panic; with no subscribers the loader stays idle.
	broker.NotifyConversations(7)
	broker.NotifyMessages(42)
}
