package image

import (
	"context"
	"errors"
	"strings"
	"testing"

	"brandforge/internal/domain"
)

type stubGenerator struct {
	calls int
	res   *Result
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, _ Request) (*Result, error) {
	g.calls++
	return g.res, g.err
}

func TestFallbackUsesPrimaryFirst(t *testing.T) {
	primary := &stubGenerator{res: &Result{Data: []byte("png"), Provider: domain.ProviderOpenAI}}
	secondary := &stubGenerator{res: &Result{URL: "https://fal/out.png", Provider: domain.ProviderFal}}
	f := NewFallbackGenerator(primary, secondary, nil)

	res, err := f.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Provider != domain.ProviderOpenAI {
		t.Fatalf("provider = %q, want openai", res.Provider)
	}
	if primary.calls != 1 || secondary.calls != 0 {
		t.Fatalf("calls = %d/%d, want 1/0", primary.calls, secondary.calls)
	}
}

func TestFallbackTriesSecondaryOnce(t *testing.T) {
	primary := &stubGenerator{err: errors.New("openai status 429: rate limit exceeded")}
	secondary := &stubGenerator{res: &Result{URL: "https://fal/out.png", Provider: domain.ProviderFal}}
	f := NewFallbackGenerator(primary, secondary, nil)

	res, err := f.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Provider != domain.ProviderFal {
		t.Fatalf("provider = %q, want fal", res.Provider)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("calls = %d/%d, want exactly one attempt each", primary.calls, secondary.calls)
	}
}

func TestFallbackWithoutSecondaryWrapsPrimaryError(t *testing.T) {
	primaryErr := errors.New("openai status 500: internal error")
	f := NewFallbackGenerator(&stubGenerator{err: primaryErr}, nil, nil)

	_, err := f.Generate(context.Background(), Request{Prompt: "p"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, primaryErr) {
		t.Fatalf("err = %v, want wrapped primary error", err)
	}
	if !strings.Contains(err.Error(), "image generation failed") {
		t.Fatalf("err = %v, want wrap prefix", err)
	}
}

func TestFallbackSecondaryErrorSurfaces(t *testing.T) {
	secondaryErr := errors.New("fal job failed")
	f := NewFallbackGenerator(
		&stubGenerator{err: errors.New("openai status 500")},
		&stubGenerator{err: secondaryErr},
		nil,
	)
	if _, err := f.Generate(context.Background(), Request{}); !errors.Is(err, secondaryErr) {
		t.Fatalf("err = %v, want secondary error", err)
	}
}

func TestFallbackWithoutAnyProvider(t *testing.T) {
	f := NewFallbackGenerator(nil, nil, nil)
	if _, err := f.Generate(context.Background(), Request{}); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}
