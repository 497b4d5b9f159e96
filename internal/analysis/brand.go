package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"brandforge/internal/domain"
	"brandforge/internal/providers/openai"
)

var analyzeBrandTool = openai.ToolDefinition{
	Type:        "function",
	Name:        "analyze_brand_identity",
	Description: "Analyzes all images to extract brand identity and, for each image, its view angle and a short description. Use this to inform which image (front, back, detail, etc.) to use for each generated asset.",
	Strict:      true,
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"colors": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Simple color NAMES of dominant brand/product colors. Use plain English: 'red', 'dark brown', 'forest green', 'matte black', 'rose gold'. NO hex codes."
			},
			"mood": {
				"type": "string",
				"description": "The emotional tone (e.g., Energetic, Serene, Luxury, Minimalist)."
			},
			"subject": {
				"type": "string",
				"description": "The main subject/product with SPECIFIC visual details: exact color (e.g., 'sage green iPhone', 'matte black headphones', 'rose gold watch'), material, finish. Be precise, this anchors all generated imagery."
			},
			"personDescription": {
				"type": ["string", "null"],
				"description": "If a person is present: their apparent skin tone, hair style/color, and any distinctive features. Set to null if no person."
			},
			"brandName": {
				"type": ["string", "null"],
				"description": "Brand name if visible or inferable. Null if unknown."
			},
			"slogan": {
				"type": ["string", "null"],
				"description": "Suggested marketing slogan based on brand identity. Can be null."
			},
			"hasLogo": {
				"type": "boolean",
				"description": "Whether a distinct logo is visible in any image."
			},
			"industry": {
				"type": ["string", "null"],
				"description": "Industry vertical (Fashion, Tech, Food, Beauty, etc.). Null if unclear."
			},
			"imageAttributes": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"index": {"type": "number", "description": "0-based image index."},
						"viewAngle": {
							"type": "string",
							"enum": ["front", "back", "detail", "side", "other"],
							"description": "View angle of this image."
						},
						"description": {
							"type": "string",
							"description": "Short description (e.g. 'front product shot'). Can be empty."
						}
					},
					"required": ["index", "viewAngle", "description"],
					"additionalProperties": false
				},
				"description": "One entry per image: its 0-based index, view angle and short description."
			}
		},
		"required": ["colors", "mood", "subject", "imageAttributes", "personDescription", "brandName", "slogan", "hasLogo", "industry"],
		"additionalProperties": false
	}`),
}

// AnalyzeBrand runs the vision analysis over the uploaded product images,
// given as data URIs or hosted URLs. Identical image sets hit the cache.
func (a *Analyzer) AnalyzeBrand(ctx context.Context, imageURLs []string) (*domain.BrandAnalysis, error) {
	if len(imageURLs) == 0 {
		return nil, domain.ErrNoSourceImages
	}

	key := "brand:" + imagesDigest(imageURLs)
	if cached, ok := a.cache.Get(key); ok {
		if analysis, ok := cached.(*domain.BrandAnalysis); ok {
			a.logger.Debug().Msg("analysis: brand analysis cache hit")
			return analysis, nil
		}
	}

	parts := make([]openai.ContentPart, 0, len(imageURLs)+1)
	parts = append(parts, openai.ContentPart{
		Type: "input_text",
		Text: fmt.Sprintf(`You are given %d images in order (index 0, 1, ...).

Extract details that will be used to generate ad photography:

1. SUBJECT: Describe the product simply but specifically. "glass Coca-Cola bottle", "matte black headphones", "white Nike sneaker". Include color and material.

2. PERSON (if present): Describe appearance naturally. "woman with dark skin and natural curly hair", "man with light skin and beard".

3. COLORS: Use simple color names a photographer would say: "red", "dark brown", "cream white", "forest green". NO HEX CODES - just plain color words.

For each image, note its view angle (front, back, detail, side, other).

Call analyze_brand_identity.`, len(imageURLs)),
	})
	for _, url := range imageURLs {
		parts = append(parts, openai.ContentPart{Type: "input_image", ImageURL: url})
	}

	raw, err := a.client.CallTool(ctx, openai.ToolCallRequest{
		Input:  []openai.InputMessage{{Role: "user", Content: parts}},
		Tool:   analyzeBrandTool,
		Effort: effortMedium,
	})
	if err != nil {
		return nil, fmt.Errorf("brand analysis: %w", err)
	}

	var analysis domain.BrandAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("brand analysis: decode tool arguments: %w", err)
	}
	if strings.TrimSpace(analysis.Subject) == "" {
		return nil, fmt.Errorf("brand analysis: model returned no subject")
	}

	a.cache.SetDefault(key, &analysis)
	a.logger.Info().
		Str("subject", analysis.Subject).
		Str("mood", analysis.Mood).
		Int("images", len(imageURLs)).
		Msg("analysis: brand analysis complete")
	return &analysis, nil
}
