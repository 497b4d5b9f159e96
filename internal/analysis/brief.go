package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"brandforge/internal/domain"
	"brandforge/internal/providers/openai"
)

var creativeBriefTool = openai.ToolDefinition{
	Type:        "function",
	Name:        "generate_creative_brief",
	Description: "Generates creative prompts and assigns which source image (by index) to use for each prompt. imageIndices arrays must match prompt array lengths.",
	Strict:      true,
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"socialPrompts": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Prompts for 9:16 vertical social media assets (no text)."
			},
			"portrait34Prompts": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Prompts for 3:4 portrait format (no text)."
			},
			"squarePrompts": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Prompts for 1:1 square feed posts (no text)."
			},
			"landscapePrompts": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Prompts for 16:9 landscape images (no text)."
			},
			"videoPrompts": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Prompts for 16:9 cinematic video content, product-focused."
			},
			"carouselSlides": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"prompt": {"type": "string", "description": "Image generation prompt for this slide. MUST include generous negative space (top or bottom 40%) for text overlay."},
						"slideType": {"type": "string", "enum": ["hook", "problem", "solution", "proof", "cta"], "description": "Narrative role of this slide."},
						"suggestedHeadline": {"type": "string", "description": "Short punchy headline (3-6 words) for text overlay."},
						"suggestedBody": {"type": ["string", "null"], "description": "Optional supporting text (10-15 words max). Can be null."}
					},
					"required": ["prompt", "slideType", "suggestedHeadline", "suggestedBody"],
					"additionalProperties": false
				},
				"description": "5-slide carousel with narrative arc: hook, problem, solution, proof, cta. Each slide needs negative space for text overlay."
			},
			"socialImageIndices": {
				"type": "array",
				"items": {"type": "number"},
				"description": "Source image index (0-based) for each social prompt. Same length as socialPrompts."
			},
			"portrait34ImageIndices": {
				"type": "array",
				"items": {"type": "number"},
				"description": "Source image index for each portrait 3:4 prompt. Same length as portrait34Prompts."
			},
			"squareImageIndices": {
				"type": "array",
				"items": {"type": "number"},
				"description": "Source image index for each square prompt. Same length as squarePrompts."
			},
			"landscapeImageIndices": {
				"type": "array",
				"items": {"type": "number"},
				"description": "Source image index for each landscape prompt. Same length as landscapePrompts."
			},
			"videoImageIndices": {
				"type": "array",
				"items": {"type": "number"},
				"description": "Source image index for each video prompt. Same length as videoPrompts."
			}
		},
		"required": ["socialPrompts", "portrait34Prompts", "squarePrompts", "landscapePrompts", "videoPrompts", "carouselSlides", "socialImageIndices", "portrait34ImageIndices", "squareImageIndices", "landscapeImageIndices", "videoImageIndices"],
		"additionalProperties": false
	}`),
}

const briefSystemMessage = `You're a creative director at an ad agency. You'll receive context about a product, then write image prompts for a photo shoot.

YOUR JOB: Use the context as INSPIRATION to understand the product, then write YOUR OWN creative prompts. Don't just copy-paste the context data.

GOOD PROMPTS (narrative, descriptive, ~30-40 words):
"A high-fashion medium shot of a refreshing glass Coca-Cola bottle centered on a cool marble countertop. The composition uses depth with a blurred kitchen window in the background. Lighting: Soft morning light filtering through, creating a cozy breakfast atmosphere."
"A cinematic close-up of an iPhone 15 Pro held against a vibrant city skyline at sunset. The lighting is golden hour, reflecting off the titanium edges, with a shallow depth of field blurring the urban lights behind."
"A dynamic action shot of a white Nike sneaker splashing through a rain puddle on asphalt. The scene captures frozen water droplets in mid-air. Lighting: High-contrast cinematic lighting emphasizing the texture and motion."

WHAT MAKES THESE GOOD:
- Camera angle and shot type: "medium shot", "cinematic close-up", "dynamic action shot"
- Composition and depth: "uses depth with...", "blurred background", "shallow depth of field"
- Lighting specifics: "Rembrandt lighting", "golden hour", "high-contrast"
- Narrative context: describes the scene, not just the object.

VARY YOUR SHOTS:
- Different angles: overhead, eye-level, low angle, close-up, wide
- Different settings: studio, lifestyle, outdoor, abstract
- Different moods: clean minimal, warm cozy, dramatic, energetic

AVOID:
- Hex color codes (#FF0000)
- Technical photography jargon
- Robotic descriptions
- Repeating the same setup
- Changing the product's core identity (logos, text, shape must stay identical)

CRITICAL:
- If the product has text/logos (e.g. "Coca-Cola"), mention them explicitly so the AI attempts to render them: "visible 'Coca-Cola' script logo".`

// GenerateAssetSpecs turns the brand analysis and requested counts into a
// creative brief. The brief may come back sparse or empty; the spec builder
// downstream is responsible for padding.
func (a *Analyzer) GenerateAssetSpecs(ctx context.Context, brand *domain.BrandAnalysis, instruction string, counts domain.AssetCounts) (*domain.AssetSpecs, error) {
	if brand == nil {
		return nil, domain.ErrNoAnalysis
	}

	var sb strings.Builder
	sb.WriteString("CONTEXT (use as inspiration, don't copy literally):\n")
	fmt.Fprintf(&sb, "- Product: %s\n", coalesce(brand.Subject, "product"))
	fmt.Fprintf(&sb, "- Vibe: %s\n", coalesce(brand.Mood, "modern"))
	fmt.Fprintf(&sb, "- Industry: %s\n", coalesce(brand.Industry, "lifestyle"))
	if brand.PersonDescription != "" {
		fmt.Fprintf(&sb, "- Features a person: %s\n", brand.PersonDescription)
	}
	sb.WriteString("\nDELIVERABLES:\n")
	fmt.Fprintf(&sb, "- %d vertical images (9:16 for stories)\n", counts.Vertical)
	fmt.Fprintf(&sb, "- %d portrait images (3:4)\n", counts.Portrait)
	fmt.Fprintf(&sb, "- %d square images (1:1 for feed)\n", counts.Square)
	fmt.Fprintf(&sb, "- %d landscape images (16:9)\n", counts.Landscape)
	fmt.Fprintf(&sb, "- %d video clips\n", counts.Video)
	if counts.Carousel > 0 {
		fmt.Fprintf(&sb, "- %d carousel set (5 slides each with text space)\n", counts.Carousel)
	}
	if instruction != "" {
		fmt.Fprintf(&sb, "\nCLIENT NOTE: %q\n", instruction)
	}
	sb.WriteString("\nNow write creative prompts for this shoot. Make each one visually distinct - vary the setting, angle, lighting, and mood. Use rich, narrative descriptions (~30-40 words) that specify camera angle, composition, and lighting. Include the product name/logo in the prompt if visible.")

	raw, err := a.client.CallTool(ctx, openai.ToolCallRequest{
		Input: []openai.InputMessage{
			{Role: "system", Content: briefSystemMessage},
			{Role: "user", Content: sb.String()},
		},
		Tool:   creativeBriefTool,
		Effort: effortMedium,
	})
	if err != nil {
		return nil, fmt.Errorf("creative brief: %w", err)
	}

	var specs domain.AssetSpecs
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("creative brief: decode tool arguments: %w", err)
	}
	a.logger.Info().
		Int("vertical", len(specs.VerticalPrompts)).
		Int("portrait", len(specs.PortraitPrompts)).
		Int("square", len(specs.SquarePrompts)).
		Int("landscape", len(specs.LandscapePrompts)).
		Int("video", len(specs.VideoPrompts)).
		Int("carousel_slides", len(specs.CarouselSlides)).
		Msg("analysis: creative brief generated")
	return &specs, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
