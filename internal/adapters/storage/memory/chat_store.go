package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/krishimitra/krishi-agent/internal/domain"
)

// ChatStore is an in-memory implementation of domain.ChatStore. It is NOT
// persistent and is only suitable for development and tests. It honors the
// same contract as the Firestore store: AppendTurns is atomic per call and
// is the only write path for conversation content.
type ChatStore struct {
	mu    sync.RWMutex
	chats map[domain.ChatID]*domain.Chat
}

func NewChatStore() *ChatStore {
	return &ChatStore{
		chats: make(map[domain.ChatID]*domain.Chat),
	}
}

func (s *ChatStore) Create(ctx context.Context, chat *domain.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chats[chat.ID]; exists {
		return errors.New("chat already exists")
	}
	s.chats[chat.ID] = copyChat(chat)
	return nil
}

func (s *ChatStore) Get(ctx context.Context, id domain.ChatID) (*domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyChat(chat), nil
}

func (s *ChatStore) AppendTurns(ctx context.Context, id domain.ChatID, owner domain.UserID, turns []domain.Turn, at time.Time) (*domain.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if chat.OwnerID != owner {
		return nil, domain.ErrAccessDenied
	}

	chat.History = append(chat.History, turns...)
	chat.LastUpdated = at
	return copyChat(chat), nil
}

func (s *ChatStore) Delete(ctx context.Context, id domain.ChatID, owner domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return domain.ErrNotFound
	}
	if chat.OwnerID != owner {
		return domain.ErrAccessDenied
	}
	delete(s.chats, id)
	return nil
}

// ListByOwner returns the owner's chats sorted most recently updated
// first. The ordering is a user-facing contract, not incidental.
func (s *ChatStore) ListByOwner(ctx context.Context, owner domain.UserID) ([]domain.ChatSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ChatSummary, 0)
	for _, chat := range s.chats {
		if chat.OwnerID != owner {
			continue
		}
		out = append(out, domain.ChatSummary{
			ID:          chat.ID,
			Title:       chat.Title,
			LastUpdated: chat.LastUpdated,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out, nil
}

// copyChat detaches the stored aggregate from the caller, so a returned
// chat can never be mutated into the store behind AppendTurns' back.
func copyChat(c *domain.Chat) *domain.Chat {
	out := *c
	out.History = make([]domain.Turn, len(c.History))
	for i, t := range c.History {
		parts := make([]domain.Part, len(t.Parts))
		copy(parts, t.Parts)
		out.History[i] = domain.Turn{Role: t.Role, Parts: parts}
	}
	return &out
}
