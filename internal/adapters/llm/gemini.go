package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/krishimitra/krishi-agent/internal/domain"
)

// GeminiConfig selects the backend: an API key uses the Gemini API
// directly, otherwise Project/Location select Vertex AI.
type GeminiConfig struct {
	APIKey   string
	Project  string
	Location string
	Model    string
}

// GeminiClient implements domain.ModelClient against Gemini. It classifies
// failures but never retries; the retry package owns that policy.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "" && cfg.Location != "":
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("gemini: either APIKey or Project+Location must be set")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// GenerateText implements domain.ModelClient.
func (g *GeminiClient) GenerateText(ctx context.Context, turns []domain.Turn) (string, error) {
	return g.generate(ctx, turns, nil)
}

// GenerateJSON requests strict JSON output and decodes it into out. A
// reply that is not valid JSON is classified ModelErrMalformedOutput: the
// input was fine, the model simply ignored the format request, so the same
// call may succeed on retry.
func (g *GeminiClient) GenerateJSON(ctx context.Context, turns []domain.Turn, out any) error {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	text, err := g.generate(ctx, turns, cfg)
	if err != nil {
		return err
	}
	return decodeStrictJSON(text, out)
}

func decodeStrictJSON(text string, out any) error {
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return domain.NewModelError(domain.ModelErrMalformedOutput,
			fmt.Errorf("reply was not valid JSON: %w", err))
	}
	return nil
}

func (g *GeminiClient) generate(ctx context.Context, turns []domain.Turn, cfg *genai.GenerateContentConfig) (string, error) {
	contents := toContents(turns)

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", classify(err)
	}

	text := res.Text()
	if text == "" {
		return "", domain.NewModelError(domain.ModelErrTransient,
			errors.New("gemini returned empty text"))
	}
	return text, nil
}

func toContents(turns []domain.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		var role genai.Role = genai.RoleUser
		if t.Role == domain.RoleModel {
			role = genai.RoleModel
		}

		parts := make([]*genai.Part, 0, len(t.Parts))
		for _, p := range t.Parts {
			if len(p.Data) > 0 {
				parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIME))
				continue
			}
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents
}

// classify normalizes a failed call into a domain.ModelError. Credential
// and quota rejections are terminal; everything else is assumed transient,
// which errs on the side of retrying.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return domain.NewModelError(domain.ModelErrAuth, err)
		}
		return domain.NewModelError(domain.ModelErrTransient, err)
	}

	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied, codes.ResourceExhausted:
		return domain.NewModelError(domain.ModelErrAuth, err)
	}
	return domain.NewModelError(domain.ModelErrTransient, err)
}
