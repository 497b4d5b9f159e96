// Package pipeline contains the asset-generation core: the session state
// store, the spec builder, the bounded-concurrency scheduler and the
// top-level orchestrator that sequences the phases.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"brandforge/internal/analysis"
	"brandforge/internal/domain"
	"brandforge/internal/infra"
	"brandforge/internal/providers"
	"brandforge/internal/providers/image"
	"brandforge/internal/providers/video"
	"brandforge/internal/storage"
)

const defaultSinglePrompt = "Create a high-end product image."

// OrchestratorOptions wires the orchestrator's collaborators.
type OrchestratorOptions struct {
	Analyzer *analysis.Analyzer
	Images   image.Generator
	Videos   video.Generator
	Store    *storage.FileStore
	State    *Store
	Logger   *infra.Logger

	// HasPrimaryCredential gates the run precondition; without the primary
	// provider no pipeline can start.
	HasPrimaryCredential bool

	HTTPClient *http.Client
}

// Orchestrator is the top-level phase sequencer: upload, analyze, build
// specs, schedule generation, generate ad copy, complete. It is the sole
// owner of the session state store.
type Orchestrator struct {
	analyzer   *analysis.Analyzer
	images     image.Generator
	videos     video.Generator
	store      *storage.FileStore
	state      *Store
	scheduler  *Scheduler
	logger     infra.Logger
	httpClient *http.Client

	hasPrimary bool
}

// NewOrchestrator constructs the orchestrator and its scheduler.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	o := &Orchestrator{
		analyzer:   opts.Analyzer,
		images:     opts.Images,
		videos:     opts.Videos,
		store:      opts.Store,
		state:      opts.State,
		logger:     logger,
		httpClient: httpClient,
		hasPrimary: opts.HasPrimaryCredential,
	}
	o.scheduler = NewScheduler(SchedulerOptions{
		Images:     opts.Images,
		Videos:     opts.Videos,
		Store:      opts.Store,
		Logger:     opts.Logger,
		OnUpdate:   o.state.UpdateAsset,
		OnProgress: o.state.SetProgress,
		OnFatal:    o.state.SetError,
	})
	return o
}

// State exposes the session state store for observers.
func (o *Orchestrator) State() *Store {
	return o.state
}

// GenerateRequest is the input of one full pipeline run.
type GenerateRequest struct {
	SourcePaths []string
	Instruction string
	Counts      domain.AssetCounts
}

// RunResult is the completed run's output, handed to the caller so it can
// snapshot a history entry.
type RunResult struct {
	SessionID string
	Analysis  *domain.BrandAnalysis
	Assets    []domain.Asset
	AdCopy    *domain.AdCopy
}

// Run executes the full pipeline. Preconditions are validated synchronously
// before any network call; a violation leaves the phase at idle. Errors in
// the upload, analysis or brief phases abort the run with the phase left
// where it was. Fatal generation failures stop dispatch but the run still
// proceeds to ad copy with whatever assets settled.
func (o *Orchestrator) Run(ctx context.Context, req GenerateRequest) (*RunResult, error) {
	if !o.hasPrimary {
		o.state.SetError(domain.ErrMissingCredential.Error())
		return nil, domain.ErrMissingCredential
	}
	if len(req.SourcePaths) == 0 {
		o.state.SetError(domain.ErrNoSourceImages.Error())
		return nil, domain.ErrNoSourceImages
	}
	if req.Counts.Total() <= 0 {
		o.state.SetError(domain.ErrNoAssetsRequested.Error())
		return nil, domain.ErrNoAssetsRequested
	}

	sessionID := uuid.NewString()
	o.state.BeginRun()
	o.state.SetPhase(PhaseUploading, "Uploading images...")
	o.state.SetProgress(5)
	o.logger.Info().
		Str("session_id", sessionID).
		Int("images", len(req.SourcePaths)).
		Int("requested", req.Counts.Total()).
		Msg("pipeline: run started")

	sourceKeys, err := o.store.UploadSources(ctx, sessionID, req.SourcePaths)
	if err != nil {
		return nil, o.abort(fmt.Errorf("upload images: %w", err))
	}
	sourceRefs := make([]string, 0, len(sourceKeys))
	for _, key := range sourceKeys {
		path, err := o.store.AbsolutePath(key)
		if err != nil {
			return nil, o.abort(fmt.Errorf("resolve upload: %w", err))
		}
		sourceRefs = append(sourceRefs, path)
	}
	o.state.SetSourceURLs(sourceRefs)

	o.state.SetPhase(PhaseAnalyzing, "Analyzing brand...")
	o.state.SetProgress(15)
	analysisRefs, err := o.dataURIs(ctx, sourceRefs)
	if err != nil {
		return nil, o.abort(err)
	}
	brand, err := o.analyzer.AnalyzeBrand(ctx, analysisRefs)
	if err != nil {
		return nil, o.abort(err)
	}
	o.state.SetAnalysis(brand)

	o.state.SetPhase(PhaseGenerating, "Generating prompts...")
	o.state.SetProgress(25)
	specs, err := o.analyzer.GenerateAssetSpecs(ctx, brand, req.Instruction, req.Counts)
	if err != nil {
		return nil, o.abort(err)
	}

	o.state.SetPhase(PhaseGenerating, "Creating assets...")
	assets := BuildAssets(specs, req.Counts, &o.logger)
	o.state.SetAssets(assets)

	if err := o.scheduler.Run(ctx, sessionID, assets, sourceRefs); err != nil {
		return nil, o.abort(err)
	}

	o.state.SetPhase(PhaseGenerating, "Generating ad copy...")
	o.state.SetProgress(90)
	adCopy, err := o.analyzer.GenerateAdCopy(ctx, brand, req.Instruction)
	if err != nil {
		return nil, o.abort(err)
	}
	o.state.SetAdCopy(adCopy)

	o.state.SetProgress(100)
	o.state.SetPhase(PhaseCompleted, "All assets generated.")

	snap := o.state.Snapshot()
	o.logger.Info().
		Str("session_id", sessionID).
		Int("assets", len(snap.Assets)).
		Msg("pipeline: run completed")
	return &RunResult{
		SessionID: sessionID,
		Analysis:  brand,
		Assets:    snap.Assets,
		AdCopy:    adCopy,
	}, nil
}

func (o *Orchestrator) abort(err error) error {
	o.state.SetError(err.Error())
	o.logger.Error().Err(err).Msg("pipeline: run aborted")
	return err
}

func (o *Orchestrator) dataURIs(ctx context.Context, refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		uri, err := providers.SourceAsDataURI(ctx, o.httpClient, ref)
		if err != nil {
			return nil, fmt.Errorf("prepare analysis input: %w", err)
		}
		out = append(out, uri)
	}
	return out, nil
}

// RegenerateAsset runs one generation job outside the scheduler: a fresh
// asset of the given kind and aspect ratio, described by the instruction (or
// a generic prompt), referencing the session's uploaded images. The new
// asset is prepended to the state's asset list.
func (o *Orchestrator) RegenerateAsset(ctx context.Context, kind domain.AssetKind, aspect domain.AspectRatio, instruction string) (*domain.Asset, error) {
	if !o.hasPrimary {
		return nil, domain.ErrMissingCredential
	}
	snap := o.state.Snapshot()
	if kind == domain.AssetKindVideo && len(snap.SourceURLs) == 0 {
		o.state.SetError(domain.ErrNoSourceImages.Error())
		return nil, domain.ErrNoSourceImages
	}

	prompt := instruction
	if prompt == "" {
		prompt = defaultSinglePrompt
	}
	asset := domain.Asset{
		ID:          uuid.NewString(),
		Kind:        kind,
		AspectRatio: aspect,
		Status:      domain.AssetStatusGenerating,
		Description: prompt,
		Provider:    domain.ProviderOpenAI,
		CreatedAt:   time.Now(),
	}
	o.state.UpdateAsset(asset)

	sessionID := uuid.NewString()
	var (
		url      string
		provider domain.Provider
		err      error
	)
	switch kind {
	case domain.AssetKindVideo:
		var res *video.Result
		res, err = o.videos.Generate(ctx, video.Request{
			Prompt:         prompt,
			SourceImageURL: snap.SourceURLs[0],
			Duration:       videoDurationSeconds,
			AspectRatio:    domain.AspectLandscape,
		})
		if err == nil {
			url, err = persistResult(ctx, o.store, sessionID, asset.ID, res.URL, res.Data, "mp4")
			provider = res.Provider
		}
	default:
		var res *image.Result
		res, err = o.images.Generate(ctx, image.Request{
			Prompt:        prompt,
			AspectRatio:   aspect,
			ReferenceURLs: snap.SourceURLs,
			Quality:       "high",
		})
		if err == nil {
			url, err = persistResult(ctx, o.store, sessionID, asset.ID, res.URL, res.Data, "png")
			provider = res.Provider
		}
	}
	if err != nil {
		asset.Status = domain.AssetStatusFailed
		asset.Error = err.Error()
		o.state.UpdateAsset(asset)
		return nil, err
	}

	asset.Status = domain.AssetStatusCompleted
	asset.URL = url
	asset.Provider = provider
	o.state.UpdateAsset(asset)
	o.logger.Info().
		Str("asset_id", asset.ID).
		Str("kind", string(kind)).
		Str("provider", string(provider)).
		Msg("pipeline: single asset generated")
	return &asset, nil
}

// GenerateVariant regenerates an existing asset's creative in a new kind and
// aspect ratio by reusing its description.
func (o *Orchestrator) GenerateVariant(ctx context.Context, assetID string, kind domain.AssetKind, aspect domain.AspectRatio) (*domain.Asset, error) {
	source, ok := o.state.Asset(assetID)
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", assetID, domain.ErrNotFound)
	}
	return o.RegenerateAsset(ctx, kind, aspect, source.Description)
}

// RegenerateAdCopy reruns only the ad-copy call against the stored brand
// analysis, optionally steered by a new instruction.
func (o *Orchestrator) RegenerateAdCopy(ctx context.Context, instruction string) (*domain.AdCopy, error) {
	snap := o.state.Snapshot()
	if snap.Analysis == nil {
		return nil, domain.ErrNoAnalysis
	}
	adCopy, err := o.analyzer.GenerateAdCopy(ctx, snap.Analysis, instruction)
	if err != nil {
		return nil, err
	}
	o.state.SetAdCopy(adCopy)
	return adCopy, nil
}

// Reset clears the session back to idle.
func (o *Orchestrator) Reset() {
	o.state.Reset()
}
