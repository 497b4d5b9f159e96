package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"brandforge/internal/domain"
)

func TestBuildAssetsFlattensBrief(t *testing.T) {
	specs := &domain.AssetSpecs{
		VerticalPrompts:  []string{"v1", "v2"},
		VerticalIndices:  []int{1, 0},
		SquarePrompts:    []string{"s1"},
		LandscapePrompts: []string{"l1"},
		VideoPrompts:     []string{"vid1"},
	}
	assets := BuildAssets(specs, domain.AssetCounts{Vertical: 2, Square: 1, Landscape: 1, Video: 1}, nil)
	if len(assets) != 5 {
		t.Fatalf("assets = %d, want 5", len(assets))
	}

	if assets[0].AspectRatio != domain.AspectVertical || assets[0].Description != "v1" {
		t.Fatalf("assets[0] = %+v", assets[0])
	}
	if assets[0].SourceImageIndex == nil || *assets[0].SourceImageIndex != 1 {
		t.Fatalf("assets[0] source index = %v, want 1", assets[0].SourceImageIndex)
	}
	if assets[2].SourceImageIndex != nil {
		t.Fatalf("square prompt without index got %v", *assets[2].SourceImageIndex)
	}
	last := assets[4]
	if last.Kind != domain.AssetKindVideo || last.AspectRatio != domain.AspectLandscape {
		t.Fatalf("video asset = %+v", last)
	}
	for _, a := range assets {
		if a.ID == "" {
			t.Fatalf("asset without id: %+v", a)
		}
		if a.Status != domain.AssetStatusPending {
			t.Fatalf("asset status = %q, want pending", a.Status)
		}
	}
}

func TestBuildAssetsCapsPromptsPerType(t *testing.T) {
	var prompts []string
	for i := 0; i < domain.MaxPerType+3; i++ {
		prompts = append(prompts, fmt.Sprintf("p%d", i))
	}
	assets := BuildAssets(&domain.AssetSpecs{SquarePrompts: prompts}, domain.AssetCounts{Square: domain.MaxPerType}, nil)
	if len(assets) != domain.MaxPerType {
		t.Fatalf("assets = %d, want cap %d", len(assets), domain.MaxPerType)
	}
}

func TestBuildAssetsGroupsCarouselSlides(t *testing.T) {
	var slides []domain.CarouselSlideSpec
	for i := 0; i < domain.SlidesPerCarousel+2; i++ {
		slides = append(slides, domain.CarouselSlideSpec{
			Prompt:            fmt.Sprintf("slide %d", i+1),
			Role:              domain.SlideRoleHook,
			SuggestedHeadline: fmt.Sprintf("headline %d", i+1),
		})
	}
	assets := BuildAssets(&domain.AssetSpecs{CarouselSlides: slides}, domain.AssetCounts{Carousel: 2}, nil)
	if len(assets) != 2 {
		t.Fatalf("carousels = %d, want 2", len(assets))
	}
	if len(assets[0].Slides) != domain.SlidesPerCarousel {
		t.Fatalf("first carousel slides = %d, want %d", len(assets[0].Slides), domain.SlidesPerCarousel)
	}
	if len(assets[1].Slides) != 2 {
		t.Fatalf("second carousel slides = %d, want remainder 2", len(assets[1].Slides))
	}
	if !strings.HasPrefix(assets[0].Description, "Carousel: headline 1") {
		t.Fatalf("carousel description = %q", assets[0].Description)
	}

	overlay := assets[0].Slides[0].Overlay
	if overlay == nil {
		t.Fatalf("slide overlay missing")
	}
	if overlay.Position != "bottom" || overlay.TextColor != "#ffffff" || overlay.FontSize != "md" {
		t.Fatalf("overlay defaults = %+v", overlay)
	}
}

func TestBuildAssetsSkipsCarouselWhenNotRequested(t *testing.T) {
	specs := &domain.AssetSpecs{
		SquarePrompts:  []string{"s1"},
		CarouselSlides: []domain.CarouselSlideSpec{{Prompt: "slide", Role: domain.SlideRoleHook}},
	}
	assets := BuildAssets(specs, domain.AssetCounts{Square: 1}, nil)
	for _, a := range assets {
		if a.Kind == domain.AssetKindCarousel {
			t.Fatalf("carousel built despite zero carousel count")
		}
	}
}

func TestBuildAssetsFallsBackToPlaceholders(t *testing.T) {
	counts := domain.AssetCounts{Square: 2, Landscape: 1}
	assets := BuildAssets(&domain.AssetSpecs{}, counts, nil)
	if len(assets) != counts.Total() {
		t.Fatalf("placeholder assets = %d, want %d", len(assets), counts.Total())
	}
	for _, a := range assets {
		if a.Kind != domain.AssetKindImage || a.AspectRatio != domain.AspectSquare {
			t.Fatalf("placeholder = %+v, want square image", a)
		}
		if a.Description != "Generated asset" {
			t.Fatalf("placeholder description = %q", a.Description)
		}
	}
}

func TestBuildAssetsNilBriefYieldsPlaceholders(t *testing.T) {
	assets := BuildAssets(nil, domain.AssetCounts{Square: 1}, nil)
	if len(assets) != 1 {
		t.Fatalf("assets = %d, want 1 placeholder", len(assets))
	}
}

func TestBuildAssetsEmptyRequestYieldsNothing(t *testing.T) {
	if assets := BuildAssets(&domain.AssetSpecs{}, domain.AssetCounts{}, nil); len(assets) != 0 {
		t.Fatalf("assets = %d, want 0", len(assets))
	}
}
