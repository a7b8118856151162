// Package chat implements the conversational session workflow: create,
// list, read, delete chats, and the send pipeline that turns a user
// message into a persisted user/model turn pair.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/krishimitra/krishi-agent/internal/adapters/llm"
	"github.com/krishimitra/krishi-agent/internal/domain"
	"github.com/krishimitra/krishi-agent/internal/observability"
	"github.com/krishimitra/krishi-agent/internal/retry"
)

// Service orchestrates chat persistence and model calls. It owns no
// retry logic of its own; model calls go through retry.Do with the
// domain classifier, so auth failures abort and transient ones back off.
type Service struct {
	store   domain.ChatStore
	model   domain.ModelClient
	persona domain.Turn

	retryOpts []retry.Option
	now       func() time.Time
	newID     func() domain.ChatID
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator injects chat ID generation.
func WithIDGenerator(f func() domain.ChatID) Option {
	return func(s *Service) { s.newID = f }
}

// WithRetryOptions sets the retry policy for model calls.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(s *Service) { s.retryOpts = opts }
}

func NewService(store domain.ChatStore, model domain.ModelClient, persona domain.Turn, opts ...Option) *Service {
	s := &Service{
		store:   store,
		model:   model,
		persona: persona,
		now:     time.Now,
		newID:   func() domain.ChatID { return domain.ChatID(uuid.NewString()) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create starts a new, empty chat for the owner and returns it.
func (s *Service) Create(ctx context.Context, owner domain.UserID) (*domain.Chat, error) {
	now := s.now()
	chat := &domain.Chat{
		ID:          s.newID(),
		OwnerID:     owner,
		Title:       "Chat - " + now.Format("1/2/2006"),
		History:     []domain.Turn{},
		LastUpdated: now,
	}
	if err := s.store.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("chat created",
		"chat_id", chat.ID, "owner_id", owner)
	return chat, nil
}

// Send runs the full pipeline for one user message: load the chat,
// assemble [persona, history, message], call the model through the retry
// policy, then persist the user turn and the model turn as one atomic
// append. A chat never ends up with a user turn and no model turn: if
// the model call fails, nothing is written.
func (s *Service) Send(ctx context.Context, id domain.ChatID, owner domain.UserID, message string) (string, error) {
	chat, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if chat.OwnerID != owner {
		return "", domain.ErrAccessDenied
	}

	userTurn := domain.NewTurn(domain.RoleUser, message)
	prompt := llm.Assemble(s.persona, chat.History, userTurn)

	var reply string
	opts := append([]retry.Option{retry.WithClassifier(domain.Retryable)}, s.retryOpts...)
	err = retry.Do(ctx, func(ctx context.Context) error {
		var genErr error
		reply, genErr = s.model.GenerateText(ctx, prompt)
		return genErr
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("generating reply: %w", err)
	}

	pair := []domain.Turn{userTurn, domain.NewTurn(domain.RoleModel, reply)}
	if _, err := s.store.AppendTurns(ctx, id, owner, pair, s.now()); err != nil {
		return "", fmt.Errorf("persisting turns: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("message exchanged",
		"chat_id", id, "history_delta", len(pair))
	return reply, nil
}

// History returns the full turn list of a chat. Any authenticated caller
// holding the chat ID may read it; only mutation is owner-gated.
func (s *Service) History(ctx context.Context, id domain.ChatID) ([]domain.Turn, error) {
	chat, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return chat.History, nil
}

// List returns the owner's chats, most recently updated first.
func (s *Service) List(ctx context.Context, owner domain.UserID) ([]domain.ChatSummary, error) {
	return s.store.ListByOwner(ctx, owner)
}

// Delete removes a chat the owner holds.
func (s *Service) Delete(ctx context.Context, id domain.ChatID, owner domain.UserID) error {
	if err := s.store.Delete(ctx, id, owner); err != nil {
		return err
	}
	observability.LoggerFromContext(ctx).Info("chat deleted", "chat_id", id)
	return nil
}
