package image

import (
	"context"
	"fmt"
	"net/http"

	"brandforge/internal/domain"
	"brandforge/internal/providers"
	"brandforge/internal/providers/openai"
)

// OpenAIGenerator adapts the OpenAI images API to the Generator contract.
type OpenAIGenerator struct {
	client     *openai.Client
	httpClient *http.Client
}

// NewOpenAIGenerator wraps an OpenAI client. httpClient is used to resolve
// reference images and may be nil.
func NewOpenAIGenerator(client *openai.Client, httpClient *http.Client) *OpenAIGenerator {
	return &OpenAIGenerator{client: client, httpClient: httpClient}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	var refs []openai.ReferenceImage
	for i, url := range req.ReferenceURLs {
		data, mime, err := providers.FetchSource(ctx, g.httpClient, url)
		if err != nil {
			return nil, fmt.Errorf("load reference image: %w", err)
		}
		refs = append(refs, openai.ReferenceImage{
			Name: fmt.Sprintf("reference-%d.png", i),
			MIME: mime,
			Data: data,
		})
	}

	data, err := g.client.GenerateImage(ctx, openai.ImageRequest{
		Prompt:     req.Prompt + promptSuffix,
		Size:       sizeForAspect(req.AspectRatio),
		Quality:    req.Quality,
		References: refs,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:     data,
		Format:   "image/png",
		Provider: domain.ProviderOpenAI,
	}, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
