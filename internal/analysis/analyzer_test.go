package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"golang.org/x/text/language"

	"brandforge/internal/domain"
	"brandforge/internal/providers/openai"
)

// toolTransport answers every responses-API call with the same tool-call
// arguments and records how often it was hit.
type toolTransport struct {
	mu       sync.Mutex
	args     any
	message  any
	hits     int
	lastBody []byte
}

func (t *toolTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	t.mu.Lock()
	t.hits++
	t.lastBody = body
	args := t.args
	message := t.message
	t.mu.Unlock()

	var payload []byte
	if message != nil {
		raw, _ := json.Marshal(message)
		payload, _ = json.Marshal(map[string]any{
			"output": []map[string]any{{
				"type": "message",
				"content": []map[string]any{{
					"type": "output_text",
					"text": string(raw),
				}},
			}},
		})
	} else {
		raw, _ := json.Marshal(args)
		payload, _ = json.Marshal(map[string]any{
			"output": []map[string]any{{
				"type":      "function_call",
				"name":      "tool",
				"arguments": string(raw),
			}},
		})
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(payload)),
	}, nil
}

func (t *toolTransport) requestBody() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastBody
}

func (t *toolTransport) hitCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hits
}

func newTestAnalyzer(t *testing.T, transport *toolTransport, locale string) *Analyzer {
	t.Helper()
	client, err := openai.NewClient(openai.Options{
		APIKey:     "test-key",
		BaseURL:    "https://openai.test/v1",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewAnalyzer(Options{Client: client, Locale: locale})
}

func TestAnalyzeBrand(t *testing.T) {
	transport := &toolTransport{args: domain.BrandAnalysis{
		Colors:  []string{"sage green"},
		Mood:    "Serene",
		Subject: "sage green ceramic teapot",
		ImageAttributes: []domain.ImageAttribute{
			{Index: 0, ViewAngle: "front", Description: "front shot"},
		},
	}}
	analyzer := newTestAnalyzer(t, transport, "")

	analysis, err := analyzer.AnalyzeBrand(context.Background(), []string{"data:image/png;base64,AAAA"})
	if err != nil {
		t.Fatalf("analyze brand: %v", err)
	}
	if analysis.Subject != "sage green ceramic teapot" {
		t.Fatalf("subject = %q", analysis.Subject)
	}
	if len(analysis.ImageAttributes) != 1 || analysis.ImageAttributes[0].ViewAngle != "front" {
		t.Fatalf("image attributes = %+v", analysis.ImageAttributes)
	}
	if !bytes.Contains(transport.requestBody(), []byte("analyze_brand_identity")) {
		t.Fatalf("request does not carry the analysis tool")
	}
}

func TestAnalyzeBrandCachesByImageSet(t *testing.T) {
	transport := &toolTransport{args: domain.BrandAnalysis{Subject: "mug"}}
	analyzer := newTestAnalyzer(t, transport, "")

	images := []string{"data:image/png;base64,AAAA", "data:image/png;base64,BBBB"}
	if _, err := analyzer.AnalyzeBrand(context.Background(), images); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := analyzer.AnalyzeBrand(context.Background(), images); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if transport.hitCount() != 1 {
		t.Fatalf("model calls = %d, want 1 with cache hit", transport.hitCount())
	}

	if _, err := analyzer.AnalyzeBrand(context.Background(), images[:1]); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if transport.hitCount() != 2 {
		t.Fatalf("model calls = %d, want 2 for a different image set", transport.hitCount())
	}
}

func TestAnalyzeBrandRejectsEmptySubject(t *testing.T) {
	transport := &toolTransport{args: domain.BrandAnalysis{Mood: "Serene"}}
	analyzer := newTestAnalyzer(t, transport, "")

	_, err := analyzer.AnalyzeBrand(context.Background(), []string{"data:image/png;base64,AAAA"})
	if err == nil || !strings.Contains(err.Error(), "no subject") {
		t.Fatalf("err = %v, want missing subject", err)
	}
}

func TestAnalyzeBrandRequiresImages(t *testing.T) {
	analyzer := newTestAnalyzer(t, &toolTransport{}, "")
	if _, err := analyzer.AnalyzeBrand(context.Background(), nil); !errors.Is(err, domain.ErrNoSourceImages) {
		t.Fatalf("err = %v, want ErrNoSourceImages", err)
	}
}

func TestGenerateAssetSpecs(t *testing.T) {
	transport := &toolTransport{args: domain.AssetSpecs{
		VerticalPrompts: []string{"vertical shot"},
		SquarePrompts:   []string{"square shot"},
		VerticalIndices: []int{0},
	}}
	analyzer := newTestAnalyzer(t, transport, "")

	brand := &domain.BrandAnalysis{Subject: "mug", Mood: "Energetic"}
	counts := domain.AssetCounts{Vertical: 1, Square: 1, Video: 2}
	specs, err := analyzer.GenerateAssetSpecs(context.Background(), brand, "outdoor scenes", counts)
	if err != nil {
		t.Fatalf("generate specs: %v", err)
	}
	if len(specs.VerticalPrompts) != 1 || len(specs.SquarePrompts) != 1 {
		t.Fatalf("specs = %+v", specs)
	}

	body := string(transport.requestBody())
	if !strings.Contains(body, "2 video clips") {
		t.Fatalf("request does not carry requested counts")
	}
	if !strings.Contains(body, "outdoor scenes") {
		t.Fatalf("request does not carry the instruction")
	}
}

func TestGenerateAssetSpecsRequiresAnalysis(t *testing.T) {
	analyzer := newTestAnalyzer(t, &toolTransport{}, "")
	_, err := analyzer.GenerateAssetSpecs(context.Background(), nil, "", domain.DefaultCounts())
	if !errors.Is(err, domain.ErrNoAnalysis) {
		t.Fatalf("err = %v, want ErrNoAnalysis", err)
	}
}

func TestGenerateAdCopy(t *testing.T) {
	transport := &toolTransport{message: domain.AdCopy{
		Headline: "Calm in a Cup",
		CTA:      "Shop now",
		Hashtags: []string{"#tea"},
	}}
	analyzer := newTestAnalyzer(t, transport, "")

	adCopy, err := analyzer.GenerateAdCopy(context.Background(), &domain.BrandAnalysis{Subject: "teapot"}, "")
	if err != nil {
		t.Fatalf("generate ad copy: %v", err)
	}
	if adCopy.Headline != "Calm in a Cup" {
		t.Fatalf("headline = %q", adCopy.Headline)
	}
}

func TestGenerateAdCopyLocale(t *testing.T) {
	transport := &toolTransport{message: domain.AdCopy{Headline: "Tenang"}}
	analyzer := newTestAnalyzer(t, transport, "id")

	if _, err := analyzer.GenerateAdCopy(context.Background(), &domain.BrandAnalysis{Subject: "teapot"}, ""); err != nil {
		t.Fatalf("generate ad copy: %v", err)
	}
	if !strings.Contains(string(transport.requestBody()), "Write all copy in Indonesian") {
		t.Fatalf("request does not carry the locale instruction")
	}
}

func TestGenerateAdCopyUnknownLocaleStaysEnglish(t *testing.T) {
	transport := &toolTransport{message: domain.AdCopy{Headline: "Calm in a Cup"}}
	analyzer := newTestAnalyzer(t, transport, "not-a-locale")

	if _, err := analyzer.GenerateAdCopy(context.Background(), &domain.BrandAnalysis{Subject: "teapot"}, ""); err != nil {
		t.Fatalf("generate ad copy: %v", err)
	}
	if strings.Contains(string(transport.requestBody()), "Write all copy in") {
		t.Fatalf("unrecognized locale injected a language instruction")
	}
}

func TestGenerateAdCopyRejectsEmptyHeadline(t *testing.T) {
	transport := &toolTransport{message: domain.AdCopy{CTA: "Shop now"}}
	analyzer := newTestAnalyzer(t, transport, "")

	_, err := analyzer.GenerateAdCopy(context.Background(), &domain.BrandAnalysis{Subject: "teapot"}, "")
	if err == nil || !strings.Contains(err.Error(), "no headline") {
		t.Fatalf("err = %v, want missing headline", err)
	}
}

func TestAnalyzeEngagementSortsPlatforms(t *testing.T) {
	transport := &toolTransport{args: map[string]any{
		"overallScore": 78,
		"platformScores": map[string]int{
			"instagram": 70,
			"linkedin":  40,
			"twitter":   55,
			"tiktok":    90,
			"facebook":  60,
		},
		"platformReasonings": map[string]string{
			"instagram": "aesthetic",
			"linkedin":  "too casual",
			"twitter":   "okay",
			"tiktok":    "dynamic",
			"facebook":  "fine",
		},
		"strengths":    []string{"bold colors"},
		"improvements": []string{"add a person"},
		"keyInsights":  "Best suited for short-form video platforms.",
	}}
	analyzer := newTestAnalyzer(t, transport, "")

	report, err := analyzer.AnalyzeEngagement(context.Background(), "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("analyze engagement: %v", err)
	}
	if report.OverallScore != 78 {
		t.Fatalf("overall score = %d", report.OverallScore)
	}
	if len(report.PlatformPredictions) != 5 {
		t.Fatalf("predictions = %d, want 5", len(report.PlatformPredictions))
	}
	if report.PlatformPredictions[0].Platform != "TikTok" {
		t.Fatalf("top platform = %q, want TikTok", report.PlatformPredictions[0].Platform)
	}
	for i := 1; i < len(report.PlatformPredictions); i++ {
		if report.PlatformPredictions[i].Score > report.PlatformPredictions[i-1].Score {
			t.Fatalf("predictions not sorted: %+v", report.PlatformPredictions)
		}
	}
}

func TestLocaleNormalization(t *testing.T) {
	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"", language.English},
		{"id", language.Indonesian},
		{"ja", language.Japanese},
		{"not-a-locale", language.English},
	}
	for _, tt := range tests {
		analyzer := newTestAnalyzer(t, &toolTransport{}, tt.locale)
		if got := analyzer.Locale(); got != tt.want {
			t.Fatalf("Locale(%q) = %v, want %v", tt.locale, got, tt.want)
		}
	}
}
