package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/krishimitra/krishi-agent/internal/domain"
)

// Store persists chats in Firestore, one document per chat aggregate. The
// whole history lives inside the document, so an append is a single
// document update and two concurrent appenders can never interleave below
// turn granularity.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) chatsCol() *firestore.CollectionRef {
	return s.client.Collection("chats")
}

func (s *Store) chatDocRef(id domain.ChatID) *firestore.DocumentRef {
	return s.chatsCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore types
// ─────────────────────────────────────────

type partDoc struct {
	Text string `firestore:"text"`
}

type turnDoc struct {
	Role  string    `firestore:"role"`
	Parts []partDoc `firestore:"parts"`
}

type chatDoc struct {
	OwnerID     string    `firestore:"owner_id"`
	Title       string    `firestore:"title"`
	History     []turnDoc `firestore:"history"`
	LastUpdated time.Time `firestore:"last_updated"`
}

func toTurnDocs(turns []domain.Turn) []turnDoc {
	out := make([]turnDoc, 0, len(turns))
	for _, t := range turns {
		parts := make([]partDoc, 0, len(t.Parts))
		for _, p := range t.Parts {
			parts = append(parts, partDoc{Text: p.Text})
		}
		out = append(out, turnDoc{Role: string(t.Role), Parts: parts})
	}
	return out
}

func fromTurnDocs(docs []turnDoc) []domain.Turn {
	out := make([]domain.Turn, 0, len(docs))
	for _, d := range docs {
		parts := make([]domain.Part, 0, len(d.Parts))
		for _, p := range d.Parts {
			parts = append(parts, domain.Part{Text: p.Text})
		}
		out = append(out, domain.Turn{Role: domain.Role(d.Role), Parts: parts})
	}
	return out
}

func fromChatDoc(id domain.ChatID, doc chatDoc) *domain.Chat {
	return &domain.Chat{
		ID:          id,
		OwnerID:     domain.UserID(doc.OwnerID),
		Title:       doc.Title,
		History:     fromTurnDocs(doc.History),
		LastUpdated: doc.LastUpdated,
	}
}

// ─────────────────────────────────────────
// ChatStore implementation
// ─────────────────────────────────────────

func (s *Store) Create(ctx context.Context, chat *domain.Chat) error {
	doc := chatDoc{
		OwnerID:     string(chat.OwnerID),
		Title:       chat.Title,
		History:     toTurnDocs(chat.History),
		LastUpdated: chat.LastUpdated,
	}
	if doc.History == nil {
		doc.History = []turnDoc{}
	}

	if _, err := s.chatDocRef(chat.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore Create: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.ChatID) (*domain.Chat, error) {
	snap, err := s.chatDocRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore Get: %w", err)
	}

	var doc chatDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore Get decode: %w", err)
	}
	return fromChatDoc(id, doc), nil
}

// AppendTurns appends the turns in order and bumps last_updated, inside a
// transaction so the read-check-write is a single atomic document update.
// Either the whole batch lands or none of it does.
func (s *Store) AppendTurns(ctx context.Context, id domain.ChatID, owner domain.UserID, turns []domain.Turn, at time.Time) (*domain.Chat, error) {
	ref := s.chatDocRef(id)
	var updated *domain.Chat

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return domain.ErrNotFound
			}
			return err
		}

		var doc chatDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode chatDoc: %w", err)
		}
		if doc.OwnerID != string(owner) {
			return domain.ErrAccessDenied
		}

		doc.History = append(doc.History, toTurnDocs(turns)...)
		doc.LastUpdated = at

		if err := tx.Update(ref, []firestore.Update{
			{Path: "history", Value: doc.History},
			{Path: "last_updated", Value: at},
		}); err != nil {
			return err
		}

		updated = fromChatDoc(id, doc)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAccessDenied) {
			return nil, err
		}
		return nil, fmt.Errorf("firestore AppendTurns: %w", err)
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id domain.ChatID, owner domain.UserID) error {
	ref := s.chatDocRef(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return domain.ErrNotFound
			}
			return err
		}

		var doc chatDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode chatDoc: %w", err)
		}
		if doc.OwnerID != string(owner) {
			return domain.ErrAccessDenied
		}
		return tx.Delete(ref)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAccessDenied) {
			return err
		}
		return fmt.Errorf("firestore Delete: %w", err)
	}
	return nil
}

// ListByOwner needs a composite index on (owner_id, last_updated desc).
func (s *Store) ListByOwner(ctx context.Context, owner domain.UserID) ([]domain.ChatSummary, error) {
	q := s.chatsCol().
		Where("owner_id", "==", string(owner)).
		OrderBy("last_updated", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := make([]domain.ChatSummary, 0)
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListByOwner: %w", err)
		}

		var doc chatDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode chatDoc: %w", err)
		}
		out = append(out, domain.ChatSummary{
			ID:          domain.ChatID(snap.Ref.ID),
			Title:       doc.Title,
			LastUpdated: doc.LastUpdated,
		})
	}
	return out, nil
}
