package video

import (
	"context"

	"brandforge/internal/domain"
)

// Request describes a normalized request passed to any video provider. The
// source image anchors the first frame of the clip.
type Request struct {
	Prompt         string
	SourceImageURL string
	Duration       int
	AspectRatio    domain.AspectRatio
}

// Result is one generated video and which provider served it.
type Result struct {
	URL      string
	Data     []byte
	Format   string
	Provider domain.Provider
}

// Generator is the contract implemented by all video providers.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

func sizeForAspect(aspect domain.AspectRatio) string {
	switch aspect {
	case domain.AspectVertical:
		return "720x1280"
	default:
		return "1280x720"
	}
}
