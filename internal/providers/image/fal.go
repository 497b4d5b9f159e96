package image

import (
	"context"
	"fmt"
	"net/http"

	"brandforge/internal/domain"
	"brandforge/internal/providers"
	"brandforge/internal/providers/fal"
)

// FalGenerator adapts the fal.ai queue API to the Generator contract.
type FalGenerator struct {
	client     *fal.Client
	httpClient *http.Client
}

// NewFalGenerator wraps a fal client. httpClient is used to inline local
// reference images and may be nil.
func NewFalGenerator(client *fal.Client, httpClient *http.Client) *FalGenerator {
	return &FalGenerator{client: client, httpClient: httpClient}
}

func (g *FalGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	var refs []string
	for _, url := range req.ReferenceURLs {
		// The hosted queue cannot reach local files; inline them.
		ref, err := providers.SourceAsDataURI(ctx, g.httpClient, url)
		if err != nil {
			return nil, fmt.Errorf("load reference image: %w", err)
		}
		refs = append(refs, ref)
	}

	url, err := g.client.GenerateImage(ctx, fal.ImageRequest{
		Prompt:        req.Prompt + promptSuffix,
		Size:          sizeForAspect(req.AspectRatio),
		Quality:       req.Quality,
		ReferenceURLs: refs,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		URL:      url,
		Format:   "image/png",
		Provider: domain.ProviderFal,
	}, nil
}

var _ Generator = (*FalGenerator)(nil)
