package domain

import "time"

// AssetKind enumerates asset types.
type AssetKind string

const (
	AssetKindImage    AssetKind = "image"
	AssetKindVideo    AssetKind = "video"
	AssetKindCarousel AssetKind = "carousel"
)

// AssetStatus enumerates the asset lifecycle states.
type AssetStatus string

const (
	AssetStatusPending    AssetStatus = "pending"
	AssetStatusGenerating AssetStatus = "generating"
	AssetStatusCompleted  AssetStatus = "completed"
	AssetStatusFailed     AssetStatus = "failed"
)

// AspectRatio enumerates the target formats supported by the providers.
type AspectRatio string

const (
	AspectVertical  AspectRatio = "9:16"
	AspectPortrait  AspectRatio = "3:4"
	AspectSquare    AspectRatio = "1:1"
	AspectLandscape AspectRatio = "16:9"
)

// Provider identifies which back-end served a generation request.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderFal    Provider = "fal"
)

// SlideRole is the narrative role a slide plays inside a carousel.
type SlideRole string

const (
	SlideRoleHook     SlideRole = "hook"
	SlideRoleProblem  SlideRole = "problem"
	SlideRoleSolution SlideRole = "solution"
	SlideRoleProof    SlideRole = "proof"
	SlideRoleCTA      SlideRole = "cta"
)

// TextOverlay describes text rendered on top of a carousel slide.
type TextOverlay struct {
	Headline  string `json:"headline,omitempty"`
	Body      string `json:"body,omitempty"`
	CTA       string `json:"cta,omitempty"`
	Position  string `json:"position"`
	TextColor string `json:"textColor"`
	FontSize  string `json:"fontSize"`
}

// CarouselSlide belongs to exactly one carousel asset. An empty ImageURL
// means the slide has not been generated yet or its generation failed.
type CarouselSlide struct {
	ID       string       `json:"id"`
	ImageURL string       `json:"imageUrl"`
	Prompt   string       `json:"prompt"`
	Role     SlideRole    `json:"slideType"`
	Overlay  *TextOverlay `json:"textOverlay,omitempty"`
}

// Asset is one user-visible generated output.
type Asset struct {
	ID               string          `json:"id"`
	Kind             AssetKind       `json:"type"`
	AspectRatio      AspectRatio     `json:"aspectRatio"`
	Status           AssetStatus     `json:"status"`
	Description      string          `json:"description"`
	URL              string          `json:"url"`
	Provider         Provider        `json:"provider"`
	Error            string          `json:"error,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	SourceImageIndex *int            `json:"sourceImageIndex,omitempty"`
	Slides           []CarouselSlide `json:"slides,omitempty"`
}

// Completed reports whether the asset reached a successful terminal state.
func (a Asset) Completed() bool {
	return a.Status == AssetStatusCompleted
}

// Terminal reports whether the asset can no longer change during a run.
func (a Asset) Terminal() bool {
	return a.Status == AssetStatusCompleted || a.Status == AssetStatusFailed
}
