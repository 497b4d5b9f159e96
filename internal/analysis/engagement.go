package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"brandforge/internal/domain"
	"brandforge/internal/providers/openai"
)

var engagementTool = openai.ToolDefinition{
	Type:        "function",
	Name:        "analyze_engagement_potential",
	Description: "Analyzes an image asset to predict engagement potential across different social media platforms and provides actionable insights.",
	Strict:      true,
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"overallScore": {
				"type": "number",
				"description": "Overall engagement potential score from 0-100, considering visual appeal, clarity, emotional impact, and brand consistency."
			},
			"platformScores": {
				"type": "object",
				"properties": {
					"instagram": {"type": "number", "description": "Engagement score for Instagram (0-100)"},
					"linkedin": {"type": "number", "description": "Engagement score for LinkedIn (0-100)"},
					"twitter": {"type": "number", "description": "Engagement score for Twitter/X (0-100)"},
					"tiktok": {"type": "number", "description": "Engagement score for TikTok (0-100)"},
					"facebook": {"type": "number", "description": "Engagement score for Facebook (0-100)"}
				},
				"required": ["instagram", "linkedin", "twitter", "tiktok", "facebook"],
				"additionalProperties": false
			},
			"platformReasonings": {
				"type": "object",
				"properties": {
					"instagram": {"type": "string", "description": "Why this score for Instagram"},
					"linkedin": {"type": "string", "description": "Why this score for LinkedIn"},
					"twitter": {"type": "string", "description": "Why this score for Twitter/X"},
					"tiktok": {"type": "string", "description": "Why this score for TikTok"},
					"facebook": {"type": "string", "description": "Why this score for Facebook"}
				},
				"required": ["instagram", "linkedin", "twitter", "tiktok", "facebook"],
				"additionalProperties": false
			},
			"strengths": {
				"type": "array",
				"items": {"type": "string"},
				"description": "3-5 key strengths of this asset"
			},
			"improvements": {
				"type": "array",
				"items": {"type": "string"},
				"description": "2-4 actionable improvements"
			},
			"keyInsights": {
				"type": "string",
				"description": "One concise sentence summarizing the asset's engagement potential and best use case."
			}
		},
		"required": ["overallScore", "platformScores", "platformReasonings", "strengths", "improvements", "keyInsights"],
		"additionalProperties": false
	}`),
}

const engagementSystem = `You are a social media engagement expert with deep knowledge of platform algorithms, user behavior, and visual content performance.

SCORING CRITERIA (0-100):
- 90-100: Viral potential, exceptional visual appeal, perfect for platform
- 75-89: High engagement likely, strong visual/emotional impact
- 60-74: Good performance expected, solid content
- 40-59: Average performance, needs optimization
- 0-39: Low engagement likely, significant improvements needed

PLATFORM CHARACTERISTICS:
Instagram: Aesthetic appeal, lifestyle imagery, bright colors, aspirational content, faces/people perform well
LinkedIn: Professional imagery, clear messaging, educational/inspirational, business context, thought leadership
Twitter/X: Bold statements, controversy/emotion, quick visual impact, memes/trends, text-friendly
TikTok: Dynamic/energetic, authentic/raw, trend-aligned, youth appeal, behind-the-scenes
Facebook: Relatable/nostalgic, community-focused, family-friendly, longer-form storytelling

Consider visual composition, color psychology, emotional resonance, clarity, text readability, brand consistency and platform best practices.`

type engagementToolResult struct {
	OverallScore int `json:"overallScore"`
	Scores       struct {
		Instagram int `json:"instagram"`
		LinkedIn  int `json:"linkedin"`
		Twitter   int `json:"twitter"`
		TikTok    int `json:"tiktok"`
		Facebook  int `json:"facebook"`
	} `json:"platformScores"`
	Reasonings struct {
		Instagram string `json:"instagram"`
		LinkedIn  string `json:"linkedin"`
		Twitter   string `json:"twitter"`
		TikTok    string `json:"tiktok"`
		Facebook  string `json:"facebook"`
	} `json:"platformReasonings"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	KeyInsights  string   `json:"keyInsights"`
}

// AnalyzeEngagement predicts how one generated image will perform per
// platform. The imageURL must be reachable by the model (hosted or data URI).
func (a *Analyzer) AnalyzeEngagement(ctx context.Context, imageURL string) (*domain.EngagementReport, error) {
	raw, err := a.client.CallTool(ctx, openai.ToolCallRequest{
		Input: []openai.InputMessage{
			{Role: "system", Content: engagementSystem},
			{Role: "user", Content: []openai.ContentPart{
				{Type: "input_text", Text: "Analyze this image asset for engagement potential across social media platforms. Provide scores, reasoning, strengths, improvements, and key insights."},
				{Type: "input_image", ImageURL: imageURL, Detail: "high"},
			}},
		},
		Tool:   engagementTool,
		Effort: effortHigh,
	})
	if err != nil {
		return nil, fmt.Errorf("engagement analysis: %w", err)
	}

	var result engagementToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("engagement analysis: decode tool arguments: %w", err)
	}

	predictions := []domain.PlatformPrediction{
		{Platform: "Instagram", Score: result.Scores.Instagram, Reasoning: result.Reasonings.Instagram},
		{Platform: "LinkedIn", Score: result.Scores.LinkedIn, Reasoning: result.Reasonings.LinkedIn},
		{Platform: "Twitter/X", Score: result.Scores.Twitter, Reasoning: result.Reasonings.Twitter},
		{Platform: "TikTok", Score: result.Scores.TikTok, Reasoning: result.Reasonings.TikTok},
		{Platform: "Facebook", Score: result.Scores.Facebook, Reasoning: result.Reasonings.Facebook},
	}
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Score > predictions[j].Score
	})

	return &domain.EngagementReport{
		OverallScore:        result.OverallScore,
		PlatformPredictions: predictions,
		Strengths:           result.Strengths,
		Improvements:        result.Improvements,
		KeyInsights:         result.KeyInsights,
	}, nil
}
