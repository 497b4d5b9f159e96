package domain

// MaxPerType caps how many assets of a single format one run may generate.
const MaxPerType = 5

// SlidesPerCarousel is the fixed size of one carousel slide set. A remainder
// shorter than this forms a final, smaller carousel.
const SlidesPerCarousel = 5

// AssetCounts holds the per-format quantities requested by the user.
type AssetCounts struct {
	Vertical  int `json:"vertical"`
	Portrait  int `json:"portrait"`
	Square    int `json:"square"`
	Landscape int `json:"landscape"`
	Video     int `json:"video"`
	Carousel  int `json:"carousel"`
}

// Total returns the sum of all requested quantities.
func (c AssetCounts) Total() int {
	return c.Vertical + c.Portrait + c.Square + c.Landscape + c.Video + c.Carousel
}

// DefaultCounts returns the out-of-the-box request mix.
func DefaultCounts() AssetCounts {
	return AssetCounts{
		Vertical:  2,
		Portrait:  1,
		Square:    2,
		Landscape: 1,
		Video:     1,
		Carousel:  0,
	}
}

// CarouselSlideSpec is one slide of the creative brief's carousel plan.
type CarouselSlideSpec struct {
	Prompt            string    `json:"prompt"`
	Role              SlideRole `json:"slideType"`
	SuggestedHeadline string    `json:"suggestedHeadline,omitempty"`
	SuggestedBody     string    `json:"suggestedBody,omitempty"`
}

// AssetSpecs is the creative brief returned by the upstream prompt generator.
// Each index slice, when present, is parallel to its prompt slice and names
// the 0-based source image each prompt should be conditioned on.
type AssetSpecs struct {
	VerticalPrompts  []string `json:"socialPrompts"`
	PortraitPrompts  []string `json:"portrait34Prompts"`
	SquarePrompts    []string `json:"squarePrompts"`
	LandscapePrompts []string `json:"landscapePrompts"`
	VideoPrompts     []string `json:"videoPrompts"`

	CarouselSlides []CarouselSlideSpec `json:"carouselSlides,omitempty"`

	VerticalIndices  []int `json:"socialImageIndices,omitempty"`
	PortraitIndices  []int `json:"portrait34ImageIndices,omitempty"`
	SquareIndices    []int `json:"squareImageIndices,omitempty"`
	LandscapeIndices []int `json:"landscapeImageIndices,omitempty"`
	VideoIndices     []int `json:"videoImageIndices,omitempty"`
}

// Empty reports whether the brief carries no prompts at all.
func (s AssetSpecs) Empty() bool {
	return len(s.VerticalPrompts) == 0 &&
		len(s.PortraitPrompts) == 0 &&
		len(s.SquarePrompts) == 0 &&
		len(s.LandscapePrompts) == 0 &&
		len(s.VideoPrompts) == 0 &&
		len(s.CarouselSlides) == 0
}
