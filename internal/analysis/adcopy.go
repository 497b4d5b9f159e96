package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"brandforge/internal/domain"
	"brandforge/internal/providers/openai"
)

const adCopySystem = `You are an expert advertising copywriter with 20+ years of experience.
You write compelling, conversion-focused copy that resonates with target audiences.
Your copy is always brand-aligned, platform-appropriate, and action-oriented.`

// GenerateAdCopy produces the written deliverables for the campaign. An
// optional instruction steers tone or content on regeneration.
func (a *Analyzer) GenerateAdCopy(ctx context.Context, brand *domain.BrandAnalysis, instruction string) (*domain.AdCopy, error) {
	if brand == nil {
		return nil, domain.ErrNoAnalysis
	}

	var sb strings.Builder
	sb.WriteString("Create advertising copy for this brand:\n\n")
	fmt.Fprintf(&sb, "Brand: %s\n", coalesce(brand.BrandName, "Premium Brand"))
	fmt.Fprintf(&sb, "Product/Subject: %s\n", brand.Subject)
	fmt.Fprintf(&sb, "Brand Mood: %s\n", brand.Mood)
	fmt.Fprintf(&sb, "Brand Colors: %s\n", strings.Join(brand.Colors, ", "))
	fmt.Fprintf(&sb, "Industry: %s\n", coalesce(brand.Industry, "Lifestyle"))
	if instruction != "" {
		fmt.Fprintf(&sb, "\nSpecial Instructions: %s\n", instruction)
	}
	if a.locale != language.English {
		fmt.Fprintf(&sb, "\nWrite all copy in %s.\n", display.English.Languages().Name(a.locale))
	}
	sb.WriteString(`
Generate JSON with:
headline (max 10 words), tagline, description (2-3 sentences), cta,
hashtags (5-8), instagramCaption, facebookCaption, twitterCaption,
linkedinCaption, tiktokCaption.`)

	raw, err := a.client.JSONResponse(ctx, []openai.InputMessage{
		{Role: "system", Content: adCopySystem},
		{Role: "user", Content: sb.String()},
	}, effortLow)
	if err != nil {
		return nil, fmt.Errorf("ad copy: %w", err)
	}

	var adCopy domain.AdCopy
	if err := json.Unmarshal(raw, &adCopy); err != nil {
		return nil, fmt.Errorf("ad copy: decode response: %w", err)
	}
	if strings.TrimSpace(adCopy.Headline) == "" {
		return nil, fmt.Errorf("ad copy: model returned no headline")
	}
	a.logger.Info().Str("headline", adCopy.Headline).Msg("analysis: ad copy generated")
	return &adCopy, nil
}
