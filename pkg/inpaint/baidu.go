package inpaint

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/menta2k/slide-editor/pkg/processing"
	"github.com/menta2k/slide-editor/pkg/types"
)

const (
	baiduTokenURL     = "https://aip.baidubce.com/oauth/2.0/token"
	baiduInpaintURL   = "https://aip.baidubce.com/rest/2.0/image-process/v1/inpainting"
	baiduTokenExpiry  = 25 * 24 * time.Hour // tokens last 30 days; refresh early
	defaultBaiduGrace = 60 * time.Second
)

// BaiduProvider inpaints through Baidu's image-process API. It is the
// specialized backend: fast and crisp on small text regions.
type BaiduProvider struct {
	apiKey     string
	secretKey  string
	httpClient *http.Client
	timeout    time.Duration
	processor  *processing.Processor

	mu          sync.Mutex
	accessToken string
	tokenUntil  time.Time
}

// NewBaidu creates a Baidu inpainting provider. Both credentials are
// required; a missing credential is a construction error so callers can
// fall back to another provider before any image is processed.
func NewBaidu(apiKey, secretKey string, timeout time.Duration) (*BaiduProvider, error) {
	if apiKey == "" || secretKey == "" {
		return nil, fmt.Errorf("baidu inpainting requires api key and secret key")
	}
	if timeout <= 0 {
		timeout = DefaultGenerativeTimeout
	}
	return &BaiduProvider{
		apiKey:    apiKey,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout + defaultBaiduGrace,
		},
		timeout:   timeout,
		processor: processing.NewProcessor(),
	}, nil
}

// Name identifies the backend in logs.
func (b *BaiduProvider) Name() string { return "baidu" }

// Inpaint sends the full image with the region rectangle to the Baidu
// API and crops the returned image back to the region.
func (b *BaiduProvider) Inpaint(ctx context.Context, img image.Image, region types.Box) (image.Image, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	token, err := b.token(ctx)
	if err != nil {
		return nil, err
	}

	imgPNG, err := b.processor.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"image": base64.StdEncoding.EncodeToString(imgPNG),
		"rectangle": []map[string]int{{
			"left":   region.X,
			"top":    region.Y,
			"width":  region.W,
			"height": region.H,
		}},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := baiduInpaintURL + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("baidu returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Image    string `json:"image"`
		ErrorMsg string `json:"error_msg"`
		ErrorNo  int    `json:"error_code"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.ErrorNo != 0 {
		return nil, fmt.Errorf("baidu error %d: %s", parsed.ErrorNo, parsed.ErrorMsg)
	}
	if parsed.Image == "" {
		return nil, fmt.Errorf("no image in baidu response")
	}

	editedBytes, err := base64.StdEncoding.DecodeString(parsed.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to decode baidu image: %w", err)
	}
	edited, err := b.processor.Decode(editedBytes)
	if err != nil {
		return nil, err
	}

	return b.processor.Crop(edited, region)
}

// token returns a cached OAuth access token, fetching a fresh one when
// the cache is empty or near expiry.
func (b *BaiduProvider) token(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.accessToken != "" && time.Now().Before(b.tokenUntil) {
		return b.accessToken, nil
	}

	params := url.Values{}
	params.Set("grant_type", "client_credentials")
	params.Set("client_id", b.apiKey)
	params.Set("client_secret", b.secretKey)

	req, err := http.NewRequestWithContext(ctx, "POST", baiduTokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch baidu token: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("empty access token from baidu")
	}

	b.accessToken = parsed.AccessToken
	b.tokenUntil = time.Now().Add(baiduTokenExpiry)
	return b.accessToken, nil
}
