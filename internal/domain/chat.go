package domain

// Part is one piece of a turn. Persisted turns only ever carry Text;
// Data/MIME are set on outbound-only turns (plant photos) and are never
// written to the store.
type Part struct {
	Text string
	Data []byte
	MIME string
}

// Turn is one message in a chat, attributed to the user or the model.
// A turn always has at least one part.
type Turn struct {
	Role  Role
	Parts []Part
}

// NewTurn builds a single-part text turn.
func NewTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Text: text}}}
}

// Text concatenates the text of all parts.
func (t Turn) Text() string {
	if len(t.Parts) == 1 {
		return t.Parts[0].Text
	}
	var out string
	for _, p := range t.Parts {
		out += p.Text
	}
	return out
}

// Chat is one persisted conversation between a user and the model.
// History is append-only from the outside: the only mutation is an atomic
// "append N turns and bump LastUpdated" against the store.
type Chat struct {
	ID          ChatID
	OwnerID     UserID
	Title       string
	History     []Turn
	LastUpdated Timestamp
}

// ChatSummary is the list-view projection of a chat.
type ChatSummary struct {
	ID          ChatID
	Title       string
	LastUpdated Timestamp
}
