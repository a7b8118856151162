package plant_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/krishimitra/krishi-agent/internal/adapters/llm"
	"github.com/krishimitra/krishi-agent/internal/app/plant"
	"github.com/krishimitra/krishi-agent/internal/domain"
	"github.com/krishimitra/krishi-agent/internal/retry"
)

func noSleep() plant.Option {
	return plant.WithRetryOptions(
		retry.WithClassifier(domain.Retryable),
		retry.WithSleep(func(time.Duration) {}),
	)
}

func TestAnalyzeStructuresModelReply(t *testing.T) {
	model := &llm.MockModel{
		TextFunc: func(_ context.Context, turns []domain.Turn) (string, error) {
			if turns[0].Text() != llm.PhotoAnalyzerPersona {
				t.Error("prompt must start with the analyzer persona")
			}
			return "**1. What is Wrong with Your Plant?**\nLeaf Rust\n" +
				"**2. Why I Think So (Looking at the Photo)**\nYellow spots\n" +
				"**3. Simple, Cheap Fix**\nUse ash", nil
		},
	}
	svc := plant.NewService(model, noSleep())

	d, err := svc.Analyze(context.Background(), plant.AnalyzeInput{
		Description: "my wheat leaves look sick",
		Language:    "en",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if d.Name != "Leaf Rust" || d.Solution != "Use ash" {
		t.Fatalf("unexpected diagnosis: %+v", d)
	}
}

func TestAnalyzeAttachesImagePart(t *testing.T) {
	var seen domain.Turn
	model := &llm.MockModel{
		TextFunc: func(_ context.Context, turns []domain.Turn) (string, error) {
			seen = turns[len(turns)-1]
			return "looks fine", nil
		},
	}
	svc := plant.NewService(model, noSleep())

	_, err := svc.Analyze(context.Background(), plant.AnalyzeInput{
		Image:     []byte{0xFF, 0xD8},
		ImageMIME: "image/jpeg",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen.Parts) != 2 {
		t.Fatalf("expected a text part and an image part, got %d parts", len(seen.Parts))
	}
	if seen.Parts[1].MIME != "image/jpeg" || len(seen.Parts[1].Data) == 0 {
		t.Fatalf("image part not forwarded: %+v", seen.Parts[1])
	}
}

func TestAnalyzeHindiLanguageInstruction(t *testing.T) {
	var prompt string
	model := &llm.MockModel{
		TextFunc: func(_ context.Context, turns []domain.Turn) (string, error) {
			prompt = turns[len(turns)-1].Text()
			return "ok", nil
		},
	}
	svc := plant.NewService(model, noSleep())

	if _, err := svc.Analyze(context.Background(), plant.AnalyzeInput{Language: "hi"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompt, "Hindi") {
		t.Fatalf("expected Hindi instruction in prompt, got %q", prompt)
	}
}

func TestAnalyzeRetriesTransient(t *testing.T) {
	calls := 0
	model := &llm.MockModel{
		TextFunc: func(context.Context, []domain.Turn) (string, error) {
			calls++
			if calls == 1 {
				return "", domain.NewModelError(domain.ModelErrTransient, errors.New("503"))
			}
			return "recovered", nil
		},
	}
	svc := plant.NewService(model, noSleep())

	d, err := svc.Analyze(context.Background(), plant.AnalyzeInput{Description: "spots"})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if d.RawResponse != "recovered" {
		t.Fatalf("unexpected raw response %q", d.RawResponse)
	}
}

func TestAnalyzeAuthErrorNotRetried(t *testing.T) {
	calls := 0
	model := &llm.MockModel{
		TextFunc: func(context.Context, []domain.Turn) (string, error) {
			calls++
			return "", domain.NewModelError(domain.ModelErrAuth, errors.New("401"))
		},
	}
	svc := plant.NewService(model, noSleep())

	if _, err := svc.Analyze(context.Background(), plant.AnalyzeInput{}); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Fatalf("auth failure must abort after 1 call, got %d", calls)
	}
}
