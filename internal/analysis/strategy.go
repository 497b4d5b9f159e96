package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"brandforge/internal/domain"
	"brandforge/internal/providers/openai"
)

var brandStrategyTool = openai.ToolDefinition{
	Type:        "function",
	Name:        "analyze_brand_strategy",
	Description: "Analyzes a brand image to create a comprehensive brand strategy including target audience, messaging, content themes, and sample posts.",
	Strict:      true,
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"targetAudience": {
				"type": "object",
				"properties": {
					"demographics": {"type": "string", "description": "Age range, gender, location, income level."},
					"psychographics": {"type": "string", "description": "Values, attitudes, lifestyle."},
					"interests": {"type": "array", "items": {"type": "string"}, "description": "5-7 key interests."},
					"painPoints": {"type": "array", "items": {"type": "string"}, "description": "3-5 problems this audience faces that the brand solves"},
					"aspirations": {"type": "array", "items": {"type": "string"}, "description": "3-5 goals or desires this audience has"}
				},
				"required": ["demographics", "psychographics", "interests", "painPoints", "aspirations"],
				"additionalProperties": false
			},
			"brandArchetype": {
				"type": "string",
				"enum": ["The Creator", "The Hero", "The Explorer", "The Sage", "The Rebel", "The Magician", "The Lover", "The Caregiver", "The Ruler", "The Innocent", "The Jester", "The Everyman"],
				"description": "Which of the 12 brand archetypes best fits this brand"
			},
			"archetypeDescription": {
				"type": "string",
				"description": "2-3 sentences explaining why this archetype fits and what it means for the brand"
			},
			"positioningStatement": {
				"type": "string",
				"description": "One powerful sentence positioning the brand. Format: 'For [target], [brand] is the [category] that [unique benefit] because [reason to believe]'"
			},
			"messagingPillars": {
				"type": "array",
				"items": {"type": "string"},
				"description": "3-4 core messaging themes to repeat across all content"
			},
			"contentThemes": {
				"type": "array",
				"items": {"type": "string"},
				"description": "5-7 recurring content ideas"
			},
			"samplePosts": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"platform": {"type": "string", "enum": ["Instagram", "LinkedIn", "Twitter/X", "TikTok", "Facebook"]},
						"caption": {"type": "string", "description": "Full post caption"},
						"hooks": {"type": "array", "items": {"type": "string"}, "description": "3 alternative opening lines to grab attention"},
						"hashtags": {"type": "array", "items": {"type": "string"}, "description": "5-10 relevant hashtags without the # symbol"},
						"bestTime": {"type": "string", "description": "Best posting time for this platform and audience."}
					},
					"required": ["platform", "caption", "hooks", "hashtags", "bestTime"],
					"additionalProperties": false
				},
				"description": "5 sample posts (one for each major platform)"
			},
			"competitiveAdvantage": {
				"type": "string",
				"description": "What makes this brand stand out from competitors in 2-3 sentences"
			}
		},
		"required": ["targetAudience", "brandArchetype", "archetypeDescription", "positioningStatement", "messagingPillars", "contentThemes", "samplePosts", "competitiveAdvantage"],
		"additionalProperties": false
	}`),
}

const strategySystem = `You are a senior brand strategist with 20 years of experience building iconic brands across industries.

BRAND ARCHETYPES (choose the best fit):
1. The Creator: Innovation, imagination, self-expression (e.g., Apple, Adobe, LEGO)
2. The Hero: Courage, achievement, proving worth (e.g., Nike, FedEx, Duracell)
3. The Explorer: Freedom, discovery, adventure (e.g., Jeep, Patagonia, Red Bull)
4. The Sage: Knowledge, truth, wisdom (e.g., Google, PBS, The Economist)
5. The Rebel: Revolution, disruption, liberation (e.g., Harley-Davidson, Virgin, Diesel)
6. The Magician: Transformation, vision, making dreams come true (e.g., Disney, Tesla, MasterCard)
7. The Lover: Intimacy, beauty, sensuality (e.g., Chanel, Godiva)
8. The Caregiver: Service, compassion, nurturing (e.g., Johnson & Johnson, UNICEF, Volvo)
9. The Ruler: Control, leadership, power (e.g., Mercedes-Benz, Rolex, Microsoft)
10. The Innocent: Optimism, simplicity, purity (e.g., Dove, Coca-Cola, Aveeno)
11. The Jester: Joy, fun, living in the moment (e.g., Old Spice, M&M's, Dollar Shave Club)
12. The Everyman: Belonging, connection, authenticity (e.g., IKEA, Target, Budweiser)

YOUR TASK:
Analyze the brand image deeply. Look beyond surface aesthetics to understand:
- Who is this brand FOR? (be specific with demographics and psychographics)
- What emotional territory does it own?
- What archetype naturally emerges?
- What makes it different/better?

Create actionable, specific recommendations. Avoid generic advice.`

// AnalyzeBrandStrategy builds the long-form strategy report from one brand
// image.
func (a *Analyzer) AnalyzeBrandStrategy(ctx context.Context, imageURL string) (*domain.BrandStrategy, error) {
	raw, err := a.client.CallTool(ctx, openai.ToolCallRequest{
		Input: []openai.InputMessage{
			{Role: "system", Content: strategySystem},
			{Role: "user", Content: []openai.ContentPart{
				{Type: "input_text", Text: "Analyze this brand image to create a comprehensive brand strategy. Include target audience profile, brand archetype, messaging pillars, content themes, and platform-specific sample posts with hooks and hashtags."},
				{Type: "input_image", ImageURL: imageURL, Detail: "high"},
			}},
		},
		Tool:   brandStrategyTool,
		Effort: effortHigh,
	})
	if err != nil {
		return nil, fmt.Errorf("brand strategy: %w", err)
	}

	var strategy domain.BrandStrategy
	if err := json.Unmarshal(raw, &strategy); err != nil {
		return nil, fmt.Errorf("brand strategy: decode tool arguments: %w", err)
	}
	return &strategy, nil
}
