package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"ai-thumbnail-pro/internal/prompt"
	"ai-thumbnail-pro/internal/thumb"
)

const (
	DefaultTextModel = "gemini-2.5-flash"
	enhancementCount = 3
)

// ContentGenerator is the slice of the genai Models service the enhancer
// needs. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type EnhancerOptions struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
	// Generator replaces the SDK client; used by tests.
	Generator ContentGenerator
}

// Enhancer turns a pro-mode draft into three richer editing prompts.
type Enhancer struct {
	models ContentGenerator
	model  string
	logger zerolog.Logger
}

func NewEnhancer(ctx context.Context, opts EnhancerOptions) (*Enhancer, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultTextModel
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "enhancer").Logger()
	}

	models := opts.Generator
	if models == nil {
		cfg := &genai.ClientConfig{
			APIKey:     opts.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: opts.HTTPClient,
		}
		if opts.BaseURL != "" {
			cfg.HTTPOptions.BaseURL = strings.TrimRight(opts.BaseURL, "/") + "/"
		}
		if opts.APIVersion != "" {
			cfg.HTTPOptions.APIVersion = opts.APIVersion
		}

		client, err := genai.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		models = client.Models
	}

	return &Enhancer{models: models, model: model, logger: logger}, nil
}

// Enhance returns exactly three prompts built on a.CustomPrompt. A blank
// draft returns nothing without calling the model.
func (e *Enhancer) Enhance(ctx context.Context, a thumb.Answers, numFiles int) ([]string, error) {
	if strings.TrimSpace(a.CustomPrompt) == "" {
		return nil, nil
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	}

	instruction := prompt.EnhancementInstruction(a, numFiles)
	resp, err := e.models.GenerateContent(ctx, e.model, genai.Text(instruction), cfg)
	if err != nil {
		e.logger.Error().Err(err).Str("model", e.model).Msg("enhancement request failed")
		return nil, fmt.Errorf("%w: enhance prompts: %w", thumb.ErrGenerationFailed, err)
	}
	if resp == nil {
		return nil, thumb.ErrInvalidEnhancementFormat
	}

	prompts, err := ParseEnhancements(resp.Text())
	if err != nil {
		e.logger.Warn().Err(err).Str("text", truncate(resp.Text(), 200)).Msg("unusable enhancement reply")
		return nil, err
	}

	e.logger.Debug().Int("prompts", len(prompts)).Msg("prompts enhanced")
	return prompts, nil
}

// ParseEnhancements validates the model's JSON array. A top-level object,
// fewer than three entries or any non-string entry is rejected; extra entries
// are dropped.
func ParseEnhancements(raw string) ([]string, error) {
	raw = trimCodeFence(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("%w: reply is an object, not an array", thumb.ErrInvalidEnhancementFormat)
	}
	if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %w", thumb.ErrInvalidEnhancementFormat, err)
	}
	if len(items) < enhancementCount {
		return nil, fmt.Errorf("%w: got %d suggestions", thumb.ErrInvalidEnhancementFormat, len(items))
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: suggestion %d is not a string", thumb.ErrInvalidEnhancementFormat, i+1)
		}
		out = append(out, s)
	}
	return out[:enhancementCount], nil
}

func trimCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
