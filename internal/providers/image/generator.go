package image

import (
	"context"

	"brandforge/internal/domain"
)

// Request describes a normalized request passed to any image provider.
type Request struct {
	Prompt        string
	AspectRatio   domain.AspectRatio
	ReferenceURLs []string
	Quality       string
}

// Result is one generated image and which provider served it. Data holds the
// rendered bytes when the provider returns them inline; URL is set when the
// provider hosts the result itself.
type Result struct {
	URL      string
	Data     []byte
	Format   string
	Provider domain.Provider
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// sizeForAspect maps target aspect ratios onto the provider size grid.
func sizeForAspect(aspect domain.AspectRatio) string {
	switch aspect {
	case domain.AspectVertical, domain.AspectPortrait:
		return "1024x1536"
	case domain.AspectLandscape:
		return "1536x1024"
	default:
		return "1024x1024"
	}
}

// promptSuffix is appended to every image prompt as a technical requirement;
// creative direction already lives in the prompt itself.
const promptSuffix = ". No text, no words, no typography."
