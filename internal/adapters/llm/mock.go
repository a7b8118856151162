package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/krishimitra/krishi-agent/internal/domain"
)

// MockModel is a canned domain.ModelClient for dev mode and tests. The
// function fields, when set, override the default behavior.
type MockModel struct {
	TextFunc func(ctx context.Context, turns []domain.Turn) (string, error)
	JSONFunc func(ctx context.Context, turns []domain.Turn, out any) error
}

func NewMockModel() *MockModel {
	return &MockModel{}
}

func (m *MockModel) GenerateText(ctx context.Context, turns []domain.Turn) (string, error) {
	if m.TextFunc != nil {
		return m.TextFunc(ctx, turns)
	}
	last := ""
	if len(turns) > 0 {
		last = turns[len(turns)-1].Text()
	}
	return fmt.Sprintf("I hear you, friend. You said %q. Tell me a little more about your field.", last), nil
}

func (m *MockModel) GenerateJSON(ctx context.Context, turns []domain.Turn, out any) error {
	if m.JSONFunc != nil {
		return m.JSONFunc(ctx, turns, out)
	}
	return json.Unmarshal([]byte(`[]`), out)
}
