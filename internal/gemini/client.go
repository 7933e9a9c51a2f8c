// Package gemini talks to the generative model: image edits over the REST
// generateContent endpoint and prompt enhancement through the genai SDK.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"ai-thumbnail-pro/internal/thumb"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
	DefaultImageModel = "gemini-2.5-flash-image"
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client performs image edits. It is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultImageModel
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "gemini").Logger()
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// EditImage sends the images in order followed by the instruction and
// returns the first inline image of the reply. A reply without an image
// yields thumb.ErrNoImageReturned; transport and HTTP failures wrap
// thumb.ErrGenerationFailed.
func (c *Client) EditImage(ctx context.Context, images []Image, instruction string) (Image, error) {
	parts := make([]part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, part{InlineData: &blob{MimeType: img.MimeType, Data: img.Data}})
	}
	parts = append(parts, part{Text: instruction})

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	resp, err := c.generateContent(ctx, req)
	if err != nil {
		return Image{}, err
	}

	img, text, ok := firstImage(resp)
	if !ok {
		event := c.logger.Warn().Str("model", c.model).Str("text", truncate(text, 200))
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			event = event.Str("block_reason", resp.PromptFeedback.BlockReason)
		}
		event.Msg("edit returned no image")
		return Image{}, thumb.ErrNoImageReturned
	}

	c.logger.Debug().
		Int("sources", len(images)).
		Str("mime", img.MimeType).
		Int("bytes", len(img.Data)).
		Msg("image edited")
	return img, nil
}

func (c *Client) generateContent(ctx context.Context, payload generateContentRequest) (generateContentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return generateContentResponse{}, err
		}
		return generateContentResponse{}, fmt.Errorf("%w: %w", thumb.ErrGenerationFailed, err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("%w: read response: %w", thumb.ErrGenerationFailed, err)
	}

	if httpResp.StatusCode >= 400 {
		return generateContentResponse{}, fmt.Errorf("%w: gemini API %s: %s",
			thumb.ErrGenerationFailed, httpResp.Status, truncate(strings.TrimSpace(string(rawBody)), 500))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return generateContentResponse{}, fmt.Errorf("%w: decode response: %w", thumb.ErrGenerationFailed, err)
	}
	return decoded, nil
}

func firstImage(resp generateContentResponse) (Image, string, bool) {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				mime := p.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return Image{MimeType: mime, Data: p.InlineData.Data}, "", true
			}
			text.WriteString(p.Text)
		}
	}
	return Image{}, text.String(), false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
