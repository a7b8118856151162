package client

import (
	"errors"
	"strings"
	"sync"
)

// State is the send-cycle state of a Conversation.
type State int

const (
	// StateIdle: no request in flight; Begin is allowed.
	StateIdle State = iota

	// StateSending: a request is in flight; Begin is rejected until
	// Complete or Fail runs.
	StateSending
)

// ErrSendInFlight is returned by Begin while a send is outstanding.
var ErrSendInFlight = errors.New("a message is already being sent")

// ErrEmptyMessage is returned by Begin for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// PendingText is the placeholder shown for the model turn while the
// reply is in flight.
const PendingText = "..."

// Conversation is the client-side view of one chat during sends. It
// enforces single-flight: exactly zero or one request is outstanding at
// any moment. On Begin the user turn and a placeholder model turn are
// inserted optimistically; Complete fills the placeholder in place and
// Fail removes both, restoring the view to its pre-send state.
type Conversation struct {
	mu     sync.Mutex
	chatID string
	state  State
	turns  []Turn
}

// NewConversation builds a view over a chat, seeded with its known
// history (from a prior History call; may be nil for a fresh chat).
func NewConversation(chatID string, history []Turn) *Conversation {
	turns := make([]Turn, len(history))
	copy(turns, history)
	return &Conversation{chatID: chatID, state: StateIdle, turns: turns}
}

func (c *Conversation) ChatID() string { return c.chatID }

// State reports whether a send is in flight.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Turns returns a snapshot of the current view, including any
// optimistic turns.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Begin starts a send cycle. Blank input is rejected, and while another
// send is outstanding it returns ErrSendInFlight; in both cases nothing
// changes. Otherwise it appends the user's turn and a pending model turn
// and moves to StateSending.
func (c *Conversation) Begin(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSending {
		return ErrSendInFlight
	}
	c.turns = append(c.turns,
		Turn{Role: "user", Parts: []Part{{Text: message}}},
		Turn{Role: "model", Parts: []Part{{Text: PendingText}}},
	)
	c.state = StateSending
	return nil
}

// Complete resolves the in-flight send: the placeholder becomes the
// real reply and the view returns to StateIdle.
func (c *Conversation) Complete(reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSending {
		return
	}
	c.turns[len(c.turns)-1] = Turn{Role: "model", Parts: []Part{{Text: reply}}}
	c.state = StateIdle
}

// Fail rolls the in-flight send back: the optimistic user turn and the
// placeholder are removed, so the view matches what the server holds.
func (c *Conversation) Fail() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSending {
		return
	}
	c.turns = c.turns[:len(c.turns)-2]
	c.state = StateIdle
}
