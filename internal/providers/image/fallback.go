package image

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
)

// FallbackGenerator tries the primary provider once and, only if that fails
// and a secondary is configured, tries the secondary once. No retry loops.
type FallbackGenerator struct {
	primary   Generator
	secondary Generator
	logger    infra.Logger
}

// NewFallbackGenerator builds the primary-then-secondary policy. Either
// generator may be nil when its credential is absent.
func NewFallbackGenerator(primary, secondary Generator, logger *infra.Logger) *FallbackGenerator {
	l := zerolog.New(io.Discard)
	if logger != nil {
		l = *logger
	}
	return &FallbackGenerator{primary: primary, secondary: secondary, logger: l}
}

func (f *FallbackGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	var primaryErr error
	if f.primary != nil {
		res, err := f.primary.Generate(ctx, req)
		if err == nil {
			return res, nil
		}
		primaryErr = err
		f.logger.Warn().Err(err).Msg("image: primary provider failed, trying fallback")
	}

	if f.secondary != nil {
		return f.secondary.Generate(ctx, req)
	}

	if primaryErr != nil {
		return nil, fmt.Errorf("image generation failed: %w", primaryErr)
	}
	return nil, fmt.Errorf("image generation: %w", domain.ErrProviderUnavailable)
}

var _ Generator = (*FallbackGenerator)(nil)
