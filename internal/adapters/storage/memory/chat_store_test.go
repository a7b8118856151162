package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/krishimitra/krishi-agent/internal/adapters/storage/memory"
	"github.com/krishimitra/krishi-agent/internal/domain"
)

func newChat(id, owner string, at time.Time) *domain.Chat {
	return &domain.Chat{
		ID:          domain.ChatID(id),
		OwnerID:     domain.UserID(owner),
		Title:       "Chat - " + id,
		LastUpdated: at,
	}
}

func TestAppendTurnsGrowsHistoryAndBumpsLastUpdated(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChatStore()

	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if err := store.Create(ctx, newChat("c1", "farmer-1", t0)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pair := []domain.Turn{
		domain.NewTurn(domain.RoleUser, "my wheat has yellow spots"),
		domain.NewTurn(domain.RoleModel, "that sounds like leaf rust"),
	}
	t1 := t0.Add(time.Minute)
	got, err := store.AppendTurns(ctx, "c1", "farmer-1", pair, t1)
	if err != nil {
		t.Fatalf("AppendTurns failed: %v", err)
	}

	if len(got.History) != 2 {
		t.Fatalf("expected history to grow by 2, got %d", len(got.History))
	}
	if !got.LastUpdated.After(t0) {
		t.Fatalf("LastUpdated must strictly increase: %v -> %v", t0, got.LastUpdated)
	}
	if got.History[0].Role != domain.RoleUser || got.History[1].Role != domain.RoleModel {
		t.Fatal("turns must be appended in the given order")
	}
}

func TestAppendTurnsUnknownChat(t *testing.T) {
	store := memory.NewChatStore()
	_, err := store.AppendTurns(context.Background(), "missing", "farmer-1", nil, time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendTurnsWrongOwner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChatStore()
	if err := store.Create(ctx, newChat("c1", "farmer-1", time.Now())); err != nil {
		t.Fatal(err)
	}

	_, err := store.AppendTurns(ctx, "c1", "intruder",
		[]domain.Turn{domain.NewTurn(domain.RoleUser, "hi")}, time.Now())
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	chat, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chat.History) != 0 {
		t.Fatal("store must be unchanged after a denied append")
	}
}

func TestDeleteByNonOwnerLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChatStore()
	if err := store.Create(ctx, newChat("c1", "farmer-1", time.Now())); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, "c1", "intruder"); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := store.Get(ctx, "c1"); err != nil {
		t.Fatalf("chat must still exist after denied delete: %v", err)
	}

	if err := store.Delete(ctx, "c1", "farmer-1"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChatStore()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	t1, t2, t3 := base, base.Add(time.Hour), base.Add(2*time.Hour)

	for id, at := range map[string]time.Time{"a": t2, "b": t1, "c": t3} {
		if err := store.Create(ctx, newChat(id, "farmer-1", at)); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Create(ctx, newChat("other", "farmer-2", t3.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListByOwner(ctx, "farmer-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 chats, got %d", len(got))
	}
	want := []domain.ChatID{"c", "a", "b"} // T3 > T2 > T1
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestGetReturnsDetachedCopy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChatStore()
	if err := store.Create(ctx, newChat("c1", "farmer-1", time.Now())); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendTurns(ctx, "c1", "farmer-1",
		[]domain.Turn{domain.NewTurn(domain.RoleUser, "hi")}, time.Now()); err != nil {
		t.Fatal(err)
	}

	chat, _ := store.Get(ctx, "c1")
	chat.History[0].Parts[0].Text = "tampered"
	chat.History = append(chat.History, domain.NewTurn(domain.RoleModel, "sneaky"))

	fresh, _ := store.Get(ctx, "c1")
	if len(fresh.History) != 1 {
		t.Fatal("mutating a returned chat must not grow the stored history")
	}
	if fresh.History[0].Parts[0].Text != "hi" {
		t.Fatal("mutating a returned chat must not edit stored turns")
	}
}
