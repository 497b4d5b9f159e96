// Package analysis wraps the text-model calls of the pipeline: brand
// analysis, creative briefs, ad copy and the long-form reports. Results are
// treated as opaque model output; this package only validates shape.
package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"brandforge/internal/infra"
	"brandforge/internal/providers/openai"
)

const (
	cacheTTL     = 30 * time.Minute
	cacheSweep   = 10 * time.Minute
	effortLow    = "low"
	effortMedium = "medium"
	effortHigh   = "high"
)

// Options configures the Analyzer.
type Options struct {
	Client *openai.Client
	Logger *infra.Logger

	// Locale selects the output language for ad copy. Defaults to English
	// when empty or unparseable.
	Locale string
}

// Analyzer issues the analysis and copywriting calls against the primary
// text model. Brand analyses are cached by source-image digest so a
// regeneration of the same upload skips the vision call.
type Analyzer struct {
	client *openai.Client
	logger infra.Logger
	cache  *gocache.Cache
	locale language.Tag
}

var supportedTags = []language.Tag{
	language.English, // first entry is the fallback
	language.Indonesian,
	language.Spanish,
	language.Portuguese,
	language.French,
	language.German,
	language.Japanese,
}

var supportedLocales = language.NewMatcher(supportedTags)

// NewAnalyzer constructs an Analyzer around the given client.
func NewAnalyzer(opts Options) *Analyzer {
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	tag := language.English
	if opts.Locale != "" {
		if parsed, err := language.Parse(opts.Locale); err == nil {
			// Match can return a tag carrying pieces of the input; index
			// into the supported set so the result is always canonical.
			_, idx, _ := supportedLocales.Match(parsed)
			tag = supportedTags[idx]
		}
	}
	return &Analyzer{
		client: opts.Client,
		logger: logger,
		cache:  gocache.New(cacheTTL, cacheSweep),
		locale: tag,
	}
}

// Locale returns the normalized output language tag.
func (a *Analyzer) Locale() language.Tag {
	return a.locale
}

func imagesDigest(images []string) string {
	h := sha256.New()
	for _, img := range images {
		h.Write([]byte(img))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
