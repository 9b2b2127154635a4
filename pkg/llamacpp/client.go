package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/menta2k/slide-editor/pkg/types"
)

// DefaultTimeout bounds a single completion call when the caller's
// context carries no deadline.
const DefaultTimeout = 120 * time.Second

// Client talks to a llama.cpp server through its OpenAI-compatible
// chat-completions endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Message is the OpenAI-compatible message format.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []ContentPart
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// NewClient creates a client for the given llama.cpp server URL. A
// timeout of zero selects DefaultTimeout.
func NewClient(serverURL string, timeout time.Duration) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout + 30*time.Second,
		},
		timeout: timeout,
	}, nil
}

// SimpleQuery sends a prompt with an image and returns the raw model
// response text.
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := ChatCompletionRequest{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: buildContent(prompt, imgB64)}},
		Temperature: 0.7,
		MaxTokens:   2048,
		TopP:        0.9,
	}

	respBody, err := c.sendRequest(ctx, "/v1/chat/completions", req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	text, err := extractResponseText(respBody)
	if err != nil {
		return "", err
	}
	return text, nil
}

// DetectRegions asks the model to enumerate slide components and parses
// the structured response.
func (c *Client) DetectRegions(ctx context.Context, model, prompt, imgB64 string) (*types.Detection, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := ChatCompletionRequest{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: buildContent(prompt, imgB64)}},
		Temperature: 0.7,
		MaxTokens:   4096,
		TopP:        0.8,
	}

	respBody, err := c.sendRequest(ctx, "/v1/chat/completions", req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	text, err := extractResponseText(respBody)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("empty response from llama.cpp server")
	}

	return parseDetection(text)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func buildContent(prompt, imgB64 string) []ContentPart {
	content := []ContentPart{{Type: "text", Text: prompt}}
	if imgB64 != "" {
		content = append(content, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + imgB64},
		})
	}
	return content
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// extractResponseText pulls the text out of a chat completion response,
// handling both string and content-part array formats.
func extractResponseText(respBody []byte) (string, error) {
	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	switch content := resp.Choices[0].Message.Content.(type) {
	case string:
		return content, nil
	case []interface{}:
		for _, item := range content {
			if partMap, ok := item.(map[string]interface{}); ok {
				if text, ok := partMap["text"].(string); ok && text != "" {
					return text, nil
				}
			}
		}
	}
	return "", fmt.Errorf("no text content in response")
}

// parseDetection parses the model's JSON into a Detection. Responses
// without usable JSON yield an empty detection rather than an error.
func parseDetection(raw string) (*types.Detection, error) {
	raw = sanitizeModelJSON(raw)

	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return &types.Detection{}, nil
	}

	var result types.Detection
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
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

func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
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

	// Remove /* ... */ block comments
	reBlock := regexp.MustCompile(`(?s)/\*.*?\*/`)
	raw = reBlock.ReplaceAllString(raw, "")

	// Remove // line comments
	reLine := regexp.MustCompile(`(?m)^\s*//.*$`)
	raw = reLine.ReplaceAllString(raw, "")

	// Remove trailing commas before } or ]
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
