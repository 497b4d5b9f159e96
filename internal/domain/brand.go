package domain

// ImageAttribute captures what one uploaded image shows, so the brief
// generator can pick the right source for each prompt.
type ImageAttribute struct {
	Index       int    `json:"index"`
	ViewAngle   string `json:"viewAngle"`
	Description string `json:"description,omitempty"`
}

// BrandAnalysis is the output of the brand-analysis call. It is read-only
// input to the rest of the pipeline.
type BrandAnalysis struct {
	Colors            []string         `json:"colors"`
	Mood              string           `json:"mood"`
	Subject           string           `json:"subject"`
	PersonDescription string           `json:"personDescription,omitempty"`
	BrandName         string           `json:"brandName,omitempty"`
	Slogan            string           `json:"slogan,omitempty"`
	HasLogo           bool             `json:"hasLogo"`
	Industry          string           `json:"industry,omitempty"`
	ImageAttributes   []ImageAttribute `json:"imageAttributes,omitempty"`
}

// AdCopy is the set of written deliverables produced alongside the visuals.
type AdCopy struct {
	Headline         string   `json:"headline"`
	Tagline          string   `json:"tagline,omitempty"`
	Description      string   `json:"description"`
	CTA              string   `json:"cta"`
	Hashtags         []string `json:"hashtags"`
	InstagramCaption string   `json:"instagramCaption,omitempty"`
	FacebookCaption  string   `json:"facebookCaption,omitempty"`
	TwitterCaption   string   `json:"twitterCaption,omitempty"`
	LinkedInCaption  string   `json:"linkedinCaption,omitempty"`
	TikTokCaption    string   `json:"tiktokCaption,omitempty"`
}

// PlatformPrediction scores expected engagement for one social platform.
type PlatformPrediction struct {
	Platform  string `json:"platform"`
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// EngagementReport predicts how the generated campaign will perform.
type EngagementReport struct {
	OverallScore        int                  `json:"overallScore"`
	PlatformPredictions []PlatformPrediction `json:"platformPredictions"`
	Strengths           []string             `json:"strengths"`
	Improvements        []string             `json:"improvements"`
	KeyInsights         string               `json:"keyInsights"`
}

// TargetAudience profiles who the brand should speak to.
type TargetAudience struct {
	Demographics   string   `json:"demographics"`
	Psychographics string   `json:"psychographics"`
	Interests      []string `json:"interests"`
	PainPoints     []string `json:"painPoints"`
	Aspirations    []string `json:"aspirations"`
}

// SamplePost is a ready-to-adapt post for one platform.
type SamplePost struct {
	Platform string   `json:"platform"`
	Caption  string   `json:"caption"`
	Hooks    []string `json:"hooks"`
	Hashtags []string `json:"hashtags"`
	BestTime string   `json:"bestTime"`
}

// BrandStrategy is the long-form strategy report.
type BrandStrategy struct {
	TargetAudience       TargetAudience `json:"targetAudience"`
	BrandArchetype       string         `json:"brandArchetype"`
	ArchetypeDescription string         `json:"archetypeDescription"`
	PositioningStatement string         `json:"positioningStatement"`
	MessagingPillars     []string       `json:"messagingPillars"`
	ContentThemes        []string       `json:"contentThemes"`
	SamplePosts          []SamplePost   `json:"samplePosts"`
	CompetitiveAdvantage string         `json:"competitiveAdvantage"`
}
