package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/slide-editor/pkg/types"
)

// DefaultTimeout bounds a single chat call when the caller's context
// carries no deadline. Vision models on CPU can be slow.
const DefaultTimeout = 120 * time.Second

// Client wraps the Ollama API client behind the VisionClient interface.
type Client struct {
	client  *api.Client
	timeout time.Duration
}

// NewClient creates a new Ollama client. A timeout of zero selects
// DefaultTimeout.
func NewClient(ollamaURL string, timeout time.Duration) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// Strip any path like /api/chat; the SDK appends its own.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		timeout: timeout,
	}, nil
}

// SimpleQuery sends a prompt with an image and returns the raw model
// response text.
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	return responseContent, nil
}

// DetectRegions asks the model to enumerate slide components and parses
// the structured response.
func (c *Client) DetectRegions(ctx context.Context, model, prompt, imgB64 string) (*types.Detection, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
		// No Format field: the prompt demands JSON, and fenced or
		// comment-laden replies are repaired during parsing.
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}

	if responseContent == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	return parseDetection(responseContent)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// parseDetection parses the JSON response from the vision model. A
// response without any usable JSON yields an empty detection rather
// than an error: a model that saw nothing to segment is not a failure.
func parseDetection(raw string) (*types.Detection, error) {
	raw = sanitizeModelJSON(raw)

	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return &types.Detection{}, nil
	}

	var result types.Detection
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// Conservative brace-slice retry before giving up.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return &types.Detection{}, nil
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &result); err2 != nil {
			return &types.Detection{}, nil
		}
	}

	return &result, nil
}

// sanitizeModelJSON removes code fences, comments, and trailing commas
// from a model response that is supposed to be JSON.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	reBlock := regexp.MustCompile(`(?s)/\*.*?\*/`)
	raw = reBlock.ReplaceAllString(raw, "")

	reLine := regexp.MustCompile(`(?m)^\s*//.*$`)
	raw = reLine.ReplaceAllString(raw, "")

	reTrailing := regexp.MustCompile(`,(\s*[}\]])`)
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
