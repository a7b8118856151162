// Package plant implements photo-based plant diagnosis: one model call
// with the analyzer persona and the photo, then structuring of the free
// text reply into a fixed record.
package plant

import (
	"context"
	"fmt"

	"github.com/krishimitra/krishi-agent/internal/adapters/llm"
	"github.com/krishimitra/krishi-agent/internal/diagnose"
	"github.com/krishimitra/krishi-agent/internal/domain"
	"github.com/krishimitra/krishi-agent/internal/observability"
	"github.com/krishimitra/krishi-agent/internal/retry"
)

// AnalyzeInput is one diagnosis request. Image is the raw photo bytes;
// it rides the request only and is never persisted.
type AnalyzeInput struct {
	Description string
	Image       []byte
	ImageMIME   string
	Language    string
}

type Service struct {
	model     domain.ModelClient
	retryOpts []retry.Option
}

type Option func(*Service)

// WithRetryOptions sets the retry policy for model calls.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(s *Service) { s.retryOpts = opts }
}

func NewService(model domain.ModelClient, opts ...Option) *Service {
	s := &Service{model: model}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Analyze asks the model to diagnose the plant and structures the reply.
// The model call can fail; the structuring step never does.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (diagnose.Diagnosis, error) {
	question := in.Description
	if question == "" {
		question = "Please look at this plant photo and tell me what is wrong."
	}
	if in.Language == "hi" {
		question += "\n\nIMPORTANT: Write your entire answer in simple Hindi."
	}

	userTurn := domain.Turn{Role: domain.RoleUser, Parts: []domain.Part{{Text: question}}}
	if len(in.Image) > 0 {
		userTurn.Parts = append(userTurn.Parts, domain.Part{Data: in.Image, MIME: in.ImageMIME})
	}
	prompt := llm.Assemble(llm.PersonaTurn(llm.PhotoAnalyzerPersona), nil, userTurn)

	var raw string
	opts := append([]retry.Option{retry.WithClassifier(domain.Retryable)}, s.retryOpts...)
	err := retry.Do(ctx, func(ctx context.Context) error {
		var genErr error
		raw, genErr = s.model.GenerateText(ctx, prompt)
		return genErr
	}, opts...)
	if err != nil {
		return diagnose.Diagnosis{}, fmt.Errorf("analyzing plant: %w", err)
	}

	d := diagnose.Structure(raw, in.Language)
	observability.LoggerFromContext(ctx).Info("plant analyzed",
		"problem", d.Name, "has_image", len(in.Image) > 0)
	return d, nil
}
