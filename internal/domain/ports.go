package domain

import (
	"context"
	"time"
)

// ChatStore defines chat persistence. AppendTurns is the only write path
// for conversation content: turns land atomically as one document update,
// in the given order, or not at all.
type ChatStore interface {
	Create(ctx context.Context, chat *Chat) error
	Get(ctx context.Context, id ChatID) (*Chat, error)
	AppendTurns(ctx context.Context, id ChatID, owner UserID, turns []Turn, at time.Time) (*Chat, error)
	Delete(ctx context.Context, id ChatID, owner UserID) error
	ListByOwner(ctx context.Context, owner UserID) ([]ChatSummary, error)
}

// ModelClient is the single abstraction point for calling the generative
// model. It classifies failures (see ModelError) but never loops: retry
// policy lives in the retry package so it can wrap both model calls and
// client-to-backend calls.
type ModelClient interface {
	// GenerateText sends the ordered turns and returns the reply text.
	GenerateText(ctx context.Context, turns []Turn) (string, error)

	// GenerateJSON requests strict JSON output and unmarshals it into out.
	// An unparseable reply is a ModelErrMalformedOutput.
	GenerateJSON(ctx context.Context, turns []Turn, out any) error
}

// WeatherSnapshot is the minimal weather view the crop recommender needs.
type WeatherSnapshot struct {
	Location string
	TempC    float64
	Humidity float64
}

// WeatherProvider is an external collaborator; lookups are out of scope
// beyond this port.
type WeatherProvider interface {
	Snapshot(ctx context.Context, latitude, longitude float64) (WeatherSnapshot, error)
}
