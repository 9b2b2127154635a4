package inpaint

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/menta2k/slide-editor/pkg/processing"
	"github.com/menta2k/slide-editor/pkg/types"
)

// DefaultGenerativeTimeout bounds one image edit call when the caller's
// context carries no deadline.
const DefaultGenerativeTimeout = 120 * time.Second

const generativePrompt = "Remove everything inside the transparent masked area " +
	"and reconstruct the slide background behind it. Match the surrounding " +
	"colors, gradients and patterns exactly. Do not add new content."

// GenerativeProvider inpaints via an OpenAI-compatible image edit
// endpoint (/v1/images/edits): full image plus a mask marking the
// region, prompt instructing background reconstruction.
type GenerativeProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	timeout    time.Duration
	processor  *processing.Processor
}

// NewGenerative creates a generative edit provider. A timeout of zero
// selects DefaultGenerativeTimeout.
func NewGenerative(baseURL, apiKey, model string, timeout time.Duration) *GenerativeProvider {
	if timeout <= 0 {
		timeout = DefaultGenerativeTimeout
	}
	return &GenerativeProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout + 30*time.Second,
		},
		timeout:   timeout,
		processor: processing.NewProcessor(),
	}
}

// Name identifies the backend in logs.
func (g *GenerativeProvider) Name() string { return "generative" }

// Inpaint sends the image and a region mask to the edit endpoint and
// crops the returned image back to the region.
func (g *GenerativeProvider) Inpaint(ctx context.Context, img image.Image, region types.Box) (image.Image, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	imgPNG, err := g.processor.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	maskPNG, err := g.processor.EncodePNG(regionMask(img.Bounds(), region))
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if g.model != "" {
		if err := writer.WriteField("model", g.model); err != nil {
			return nil, err
		}
	}
	if err := writer.WriteField("prompt", generativePrompt); err != nil {
		return nil, err
	}
	if err := writer.WriteField("response_format", "b64_json"); err != nil {
		return nil, err
	}

	imgPart, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, err
	}
	if _, err := imgPart.Write(imgPNG); err != nil {
		return nil, err
	}

	maskPart, err := writer.CreateFormFile("mask", "mask.png")
	if err != nil {
		return nil, err
	}
	if _, err := maskPart.Write(maskPNG); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/v1/images/edits", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edit endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("no image in edit response")
	}

	editedBytes, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode edited image: %w", err)
	}
	edited, err := g.processor.Decode(editedBytes)
	if err != nil {
		return nil, err
	}

	// The endpoint may return a different resolution; map the region
	// back before cropping the patch.
	eb := edited.Bounds()
	ib := img.Bounds()
	if eb.Dx() != ib.Dx() || eb.Dy() != ib.Dy() {
		edited = imaging.Resize(edited, ib.Dx(), ib.Dy(), imaging.Lanczos)
	}

	return g.processor.Crop(edited, region)
}

// regionMask builds an opaque mask with the region cut transparent,
// the convention the edit endpoint uses for "edit here".
func regionMask(bounds image.Rectangle, region types.Box) *image.NRGBA {
	mask := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	opaque := color.NRGBA{0, 0, 0, 255}
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			mask.SetNRGBA(x, y, opaque)
		}
	}
	clear := color.NRGBA{0, 0, 0, 0}
	rect := region.Rect().Intersect(mask.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			mask.SetNRGBA(x, y, clear)
		}
	}
	return mask
}
