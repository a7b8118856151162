package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/krishimitra/krishi-agent/internal/client"
)

func TestBeginInsertsOptimisticPair(t *testing.T) {
	conv := client.NewConversation("c1", []client.Turn{
		{Role: "user", Parts: []client.Part{{Text: "earlier question"}}},
		{Role: "model", Parts: []client.Part{{Text: "earlier answer"}}},
	})

	if err := conv.Begin("new question"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	turns := conv.Turns()
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns after Begin, got %d", len(turns))
	}
	if turns[2].Text() != "new question" {
		t.Fatalf("optimistic user turn missing: %+v", turns[2])
	}
	if turns[3].Text() != client.PendingText {
		t.Fatalf("pending placeholder missing: %+v", turns[3])
	}
	if conv.State() != client.StateSending {
		t.Fatal("conversation must be in StateSending")
	}
}

func TestBeginRejectsBlankMessage(t *testing.T) {
	conv := client.NewConversation("c1", nil)

	for _, msg := range []string{"", "   ", "\n\t"} {
		if err := conv.Begin(msg); !errors.Is(err, client.ErrEmptyMessage) {
			t.Fatalf("Begin(%q): expected ErrEmptyMessage, got %v", msg, err)
		}
	}
	if len(conv.Turns()) != 0 {
		t.Fatal("a rejected Begin must not insert optimistic turns")
	}
	if conv.State() != client.StateIdle {
		t.Fatal("a rejected Begin must leave the conversation Idle")
	}
}

func TestBeginRejectedWhileSending(t *testing.T) {
	conv := client.NewConversation("c1", nil)

	if err := conv.Begin("first"); err != nil {
		t.Fatal(err)
	}
	if err := conv.Begin("second"); !errors.Is(err, client.ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}
	if len(conv.Turns()) != 2 {
		t.Fatal("a rejected Begin must not touch the view")
	}
}

func TestCompleteReplacesPlaceholder(t *testing.T) {
	conv := client.NewConversation("c1", nil)
	if err := conv.Begin("question"); err != nil {
		t.Fatal(err)
	}

	conv.Complete("answer")

	turns := conv.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[1].Text() != "answer" {
		t.Fatalf("placeholder not replaced: %+v", turns[1])
	}
	if conv.State() != client.StateIdle {
		t.Fatal("conversation must return to StateIdle")
	}
	if err := conv.Begin("next"); err != nil {
		t.Fatalf("Begin must be allowed again after Complete: %v", err)
	}
}

func TestFailRollsBackBothTurns(t *testing.T) {
	conv := client.NewConversation("c1", []client.Turn{
		{Role: "user", Parts: []client.Part{{Text: "kept"}}},
	})
	if err := conv.Begin("doomed"); err != nil {
		t.Fatal(err)
	}

	conv.Fail()

	turns := conv.Turns()
	if len(turns) != 1 || turns[0].Text() != "kept" {
		t.Fatalf("rollback must restore the pre-send view, got %+v", turns)
	}
	if conv.State() != client.StateIdle {
		t.Fatal("conversation must return to StateIdle after Fail")
	}
}

func TestSendTrackedSingleFlightOverWire(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "response": "slow answer"})
	}))
	defer srv.Close()

	c := client.NewClient(srv.URL, "tok", noSleep())
	conv := client.NewConversation("c1", nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.SendTracked(context.Background(), conv, "first")
		done <- err
	}()
	<-started

	// Second send while the first is on the wire: rejected locally, no
	// second request reaches the server.
	if _, err := c.SendTracked(context.Background(), conv, "second"); !errors.Is(err, client.ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 request on the wire, got %d", got)
	}

	turns := conv.Turns()
	if len(turns) != 2 || turns[1].Text() != "slow answer" {
		t.Fatalf("unexpected final view: %+v", turns)
	}
}

func TestSendTrackedRollsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Chat not found"})
	}))
	defer srv.Close()

	c := client.NewClient(srv.URL, "tok", noSleep())
	conv := client.NewConversation("gone", nil)

	if _, err := c.SendTracked(context.Background(), conv, "hello"); err == nil {
		t.Fatal("expected an error")
	}
	if len(conv.Turns()) != 0 {
		t.Fatalf("failed send must leave no optimistic turns, got %+v", conv.Turns())
	}
	if conv.State() != client.StateIdle {
		t.Fatal("conversation must be Idle after a failed send")
	}
}
