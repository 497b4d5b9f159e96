package video

import (
	"context"
	"fmt"
	"net/http"

	"brandforge/internal/domain"
	"brandforge/internal/providers"
	"brandforge/internal/providers/fal"
)

// FalGenerator adapts the fal.ai image-to-video queue app to the Generator
// contract.
type FalGenerator struct {
	client     *fal.Client
	httpClient *http.Client
}

// NewFalGenerator wraps a fal client. httpClient is used to inline the local
// source image and may be nil.
func NewFalGenerator(client *fal.Client, httpClient *http.Client) *FalGenerator {
	return &FalGenerator{client: client, httpClient: httpClient}
}

func (g *FalGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	source, err := providers.SourceAsDataURI(ctx, g.httpClient, req.SourceImageURL)
	if err != nil {
		return nil, fmt.Errorf("load source image: %w", err)
	}

	url, err := g.client.GenerateVideo(ctx, fal.VideoRequest{
		Prompt:         req.Prompt,
		SourceImageURL: source,
		Duration:       req.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("fal video generation failed: %w", err)
	}
	return &Result{
		URL:      url,
		Format:   "video/mp4",
		Provider: domain.ProviderFal,
	}, nil
}

var _ Generator = (*FalGenerator)(nil)
