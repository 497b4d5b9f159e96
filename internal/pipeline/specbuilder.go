package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
)

// BuildAssets flattens a creative brief into the initial pending asset list.
// Prompt lists are capped at domain.MaxPerType, carousel slides are grouped
// into sets of domain.SlidesPerCarousel in returned order, and an empty brief
// with a non-zero request yields generic placeholder image jobs so the run
// still produces the requested number of assets.
func BuildAssets(specs *domain.AssetSpecs, counts domain.AssetCounts, logger *infra.Logger) []domain.Asset {
	var assets []domain.Asset
	now := time.Now()

	add := func(prompts []string, indices []int, kind domain.AssetKind, aspect domain.AspectRatio) {
		if len(prompts) > domain.MaxPerType {
			prompts = prompts[:domain.MaxPerType]
		}
		for i, prompt := range prompts {
			asset := domain.Asset{
				ID:          uuid.NewString(),
				Kind:        kind,
				AspectRatio: aspect,
				Status:      domain.AssetStatusPending,
				Description: prompt,
				Provider:    domain.ProviderOpenAI,
				CreatedAt:   now,
			}
			if i < len(indices) {
				idx := indices[i]
				asset.SourceImageIndex = &idx
			}
			assets = append(assets, asset)
		}
	}

	if specs != nil {
		add(specs.VerticalPrompts, specs.VerticalIndices, domain.AssetKindImage, domain.AspectVertical)
		add(specs.PortraitPrompts, specs.PortraitIndices, domain.AssetKindImage, domain.AspectPortrait)
		add(specs.SquarePrompts, specs.SquareIndices, domain.AssetKindImage, domain.AspectSquare)
		add(specs.LandscapePrompts, specs.LandscapeIndices, domain.AssetKindImage, domain.AspectLandscape)
		add(specs.VideoPrompts, specs.VideoIndices, domain.AssetKindVideo, domain.AspectLandscape)

		if counts.Carousel > 0 && len(specs.CarouselSlides) > 0 {
			for start := 0; start < len(specs.CarouselSlides); start += domain.SlidesPerCarousel {
				end := start + domain.SlidesPerCarousel
				if end > len(specs.CarouselSlides) {
					end = len(specs.CarouselSlides)
				}
				group := specs.CarouselSlides[start:end]
				slides := make([]domain.CarouselSlide, 0, len(group))
				for _, spec := range group {
					slides = append(slides, domain.CarouselSlide{
						ID:     uuid.NewString(),
						Prompt: spec.Prompt,
						Role:   spec.Role,
						Overlay: &domain.TextOverlay{
							Headline:  spec.SuggestedHeadline,
							Body:      spec.SuggestedBody,
							Position:  "bottom",
							TextColor: "#ffffff",
							FontSize:  "md",
						},
					})
				}
				headline := group[0].SuggestedHeadline
				if headline == "" {
					headline = "Multi-slide"
				}
				assets = append(assets, domain.Asset{
					ID:          uuid.NewString(),
					Kind:        domain.AssetKindCarousel,
					AspectRatio: domain.AspectSquare,
					Status:      domain.AssetStatusPending,
					Description: fmt.Sprintf("Carousel: %s", headline),
					Provider:    domain.ProviderOpenAI,
					CreatedAt:   now,
					Slides:      slides,
				})
			}
		}
	}

	if len(assets) == 0 && counts.Total() > 0 {
		if logger != nil {
			logger.Warn().
				Int("requested", counts.Total()).
				Msg("pipeline: creative brief returned no prompts, building placeholder jobs")
		}
		for i := 0; i < counts.Total(); i++ {
			assets = append(assets, domain.Asset{
				ID:          uuid.NewString(),
				Kind:        domain.AssetKindImage,
				AspectRatio: domain.AspectSquare,
				Status:      domain.AssetStatusPending,
				Description: "Generated asset",
				Provider:    domain.ProviderOpenAI,
				CreatedAt:   now,
			})
		}
	}

	return assets
}
