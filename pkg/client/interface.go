package client

import (
	"context"

	"github.com/menta2k/slide-editor/pkg/types"
)

// VisionClient is implemented by vision-model backends (Ollama,
// llama.cpp). Implementations must be safe for concurrent use.
type VisionClient interface {
	// SimpleQuery sends a free-form prompt with an image and returns the
	// raw model response.
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)

	// DetectRegions asks the model to enumerate slide components and
	// returns the parsed structured result.
	DetectRegions(ctx context.Context, model, prompt, imgB64 string) (*types.Detection, error)
}
