package video

import (
	"context"
	"fmt"
	"net/http"

	"brandforge/internal/domain"
	"brandforge/internal/providers"
	"brandforge/internal/providers/openai"
)

// OpenAIGenerator adapts the OpenAI videos API to the Generator contract.
// The underlying client drives the submit-then-poll protocol.
type OpenAIGenerator struct {
	client     *openai.Client
	httpClient *http.Client
}

// NewOpenAIGenerator wraps an OpenAI client. httpClient is used to resolve
// the source image and may be nil.
func NewOpenAIGenerator(client *openai.Client, httpClient *http.Client) *OpenAIGenerator {
	return &OpenAIGenerator{client: client, httpClient: httpClient}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	var source openai.ReferenceImage
	if req.SourceImageURL != "" {
		data, mime, err := providers.FetchSource(ctx, g.httpClient, req.SourceImageURL)
		if err != nil {
			return nil, fmt.Errorf("load source image: %w", err)
		}
		source = openai.ReferenceImage{Name: "input.png", MIME: mime, Data: data}
	}

	data, err := g.client.GenerateVideo(ctx, openai.VideoRequest{
		Prompt:      req.Prompt,
		SourceImage: source,
		Duration:    req.Duration,
		Size:        sizeForAspect(req.AspectRatio),
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:     data,
		Format:   "video/mp4",
		Provider: domain.ProviderOpenAI,
	}, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
