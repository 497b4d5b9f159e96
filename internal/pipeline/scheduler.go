package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"brandforge/internal/domain"
	"brandforge/internal/infra"
	"brandforge/internal/providers"
	"brandforge/internal/providers/image"
	"brandforge/internal/providers/video"
)

// imageConcurrency is the fixed width of the image worker pool. Videos and
// carousel slides are always generated one at a time.
const imageConcurrency = 2

const videoDurationSeconds = 8

// BlobStore persists generated bytes under a storage key and resolves keys
// to local paths. Satisfied by storage.FileStore.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	AbsolutePath(key string) (string, error)
}

// SchedulerOptions wires the scheduler's collaborators. The three callbacks
// are how generation results reach the session state; the scheduler never
// touches the state store directly.
type SchedulerOptions struct {
	Images image.Generator
	Videos video.Generator
	Store  BlobStore
	Logger *infra.Logger

	OnUpdate   func(domain.Asset)
	OnProgress func(int)
	OnFatal    func(string)
}

// Scheduler drives every pending asset to a terminal status: images first
// through a width-2 worker pool, then videos strictly sequentially, then
// carousels with strictly sequential slides. A fatal-class failure stops new
// dispatch while in-flight jobs settle.
type Scheduler struct {
	images image.Generator
	videos video.Generator
	store  BlobStore
	logger infra.Logger

	onUpdate   func(domain.Asset)
	onProgress func(int)
	onFatal    func(string)
}

// NewScheduler constructs a scheduler; nil callbacks become no-ops.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	s := &Scheduler{
		images:     opts.Images,
		videos:     opts.Videos,
		store:      opts.Store,
		logger:     logger,
		onUpdate:   opts.OnUpdate,
		onProgress: opts.OnProgress,
		onFatal:    opts.OnFatal,
	}
	if s.onUpdate == nil {
		s.onUpdate = func(domain.Asset) {}
	}
	if s.onProgress == nil {
		s.onProgress = func(int) {}
	}
	if s.onFatal == nil {
		s.onFatal = func(string) {}
	}
	return s
}

// run carries the mutable bookkeeping of one Run invocation.
type run struct {
	sessionID  string
	sourceRefs []string
	total      int

	completed atomic.Int64
	fatal     atomic.Bool

	mu              sync.Mutex
	fatalMsg        string
	completedImages []string
}

func (r *run) setFatal(msg string) bool {
	first := r.fatal.CompareAndSwap(false, true)
	if first {
		r.mu.Lock()
		r.fatalMsg = msg
		r.mu.Unlock()
	}
	return first
}

func (r *run) addCompletedImage(url string) {
	r.mu.Lock()
	r.completedImages = append(r.completedImages, url)
	r.mu.Unlock()
}

// videoSource picks the source frame for the i-th video: completed generated
// images are preferred and rotated over, falling back to the first upload.
func (r *run) videoSource(i int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.completedImages) > 0 {
		return r.completedImages[i%len(r.completedImages)]
	}
	if len(r.sourceRefs) > 0 {
		return r.sourceRefs[0]
	}
	return ""
}

// Run processes the asset list to completion. Every asset reaches a terminal
// status unless a fatal failure or cancellation stops dispatch first, in
// which case untouched assets stay pending. The returned error is non-nil
// only on context cancellation; fatal provider failures are surfaced through
// the OnFatal callback instead.
func (s *Scheduler) Run(ctx context.Context, sessionID string, assets []domain.Asset, sourceRefs []string) error {
	if len(assets) == 0 {
		return nil
	}

	var images, videos, carousels []domain.Asset
	for _, a := range assets {
		switch a.Kind {
		case domain.AssetKindImage:
			images = append(images, a)
		case domain.AssetKindVideo:
			videos = append(videos, a)
		case domain.AssetKindCarousel:
			carousels = append(carousels, a)
		}
	}

	r := &run{
		sessionID:  sessionID,
		sourceRefs: sourceRefs,
		total:      len(assets),
	}

	if err := s.runImages(ctx, r, images); err != nil {
		return err
	}
	if err := s.runVideos(ctx, r, videos); err != nil {
		return err
	}
	if err := s.runCarousels(ctx, r, carousels); err != nil {
		return err
	}
	return nil
}

type imageJob struct {
	asset domain.Asset
	index int
}

func (s *Scheduler) runImages(ctx context.Context, r *run, assets []domain.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	s.logger.Info().Int("count", len(assets)).Msg("scheduler: generating images")

	queue := make([]imageJob, len(assets))
	for i, a := range assets {
		queue[i] = imageJob{asset: a, index: i}
	}
	var qmu sync.Mutex
	next := func() (imageJob, bool) {
		qmu.Lock()
		defer qmu.Unlock()
		if len(queue) == 0 {
			return imageJob{}, false
		}
		job := queue[0]
		queue = queue[1:]
		return job, true
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < imageConcurrency; w++ {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				if r.fatal.Load() {
					return nil
				}
				job, ok := next()
				if !ok {
					return nil
				}
				s.runImageJob(gctx, r, job)
			}
		})
	}
	return g.Wait()
}

func (s *Scheduler) runImageJob(ctx context.Context, r *run, job imageJob) {
	asset := job.asset
	asset.Status = domain.AssetStatusGenerating
	s.onUpdate(asset)
	s.logger.Info().
		Str("asset_id", asset.ID).
		Str("aspect", string(asset.AspectRatio)).
		Msg("scheduler: generating image")

	res, err := s.images.Generate(ctx, image.Request{
		Prompt:        asset.Description,
		AspectRatio:   asset.AspectRatio,
		ReferenceURLs: s.referenceFor(r, asset.SourceImageIndex, job.index),
		Quality:       "high",
	})
	if err == nil {
		var url string
		url, err = persistResult(ctx, s.store, r.sessionID, asset.ID, res.URL, res.Data, "png")
		if err == nil {
			r.addCompletedImage(url)
			asset.Status = domain.AssetStatusCompleted
			asset.URL = url
			asset.Provider = res.Provider
			s.onUpdate(asset)
		}
	}
	if err != nil {
		s.failAsset(r, asset, err)
	}
	s.finishJob(r)
}

// referenceFor picks the reference upload for one image job: the brief's
// source-image index when present (clamped to range), else round-robin over
// the uploads.
func (s *Scheduler) referenceFor(r *run, sourceIndex *int, jobIndex int) []string {
	n := len(r.sourceRefs)
	if n == 0 {
		return nil
	}
	idx := jobIndex % n
	if sourceIndex != nil {
		idx = *sourceIndex
		if idx < 0 {
			idx = 0
		}
		if idx > n-1 {
			idx = n - 1
		}
	}
	return []string{r.sourceRefs[idx]}
}

func (s *Scheduler) runVideos(ctx context.Context, r *run, assets []domain.Asset) error {
	if len(assets) == 0 || r.fatal.Load() {
		return nil
	}
	r.mu.Lock()
	haveGenerated := len(r.completedImages) > 0
	r.mu.Unlock()
	if haveGenerated {
		s.logger.Info().Msg("scheduler: using generated image as video source")
	} else {
		s.logger.Info().Msg("scheduler: no generated images, using uploaded image for video")
	}

	for i, asset := range assets {
		if r.fatal.Load() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		asset.Status = domain.AssetStatusGenerating
		s.onUpdate(asset)
		s.logger.Info().Str("asset_id", asset.ID).Msg("scheduler: generating video")

		res, err := s.videos.Generate(ctx, video.Request{
			Prompt:         asset.Description,
			SourceImageURL: r.videoSource(i),
			Duration:       videoDurationSeconds,
			AspectRatio:    domain.AspectLandscape,
		})
		if err == nil {
			var url string
			url, err = persistResult(ctx, s.store, r.sessionID, asset.ID, res.URL, res.Data, "mp4")
			if err == nil {
				asset.Status = domain.AssetStatusCompleted
				asset.URL = url
				asset.Provider = res.Provider
				s.onUpdate(asset)
			}
		}
		if err != nil {
			s.failAsset(r, asset, err)
		}
		s.finishJob(r)
	}
	return nil
}

func (s *Scheduler) runCarousels(ctx context.Context, r *run, assets []domain.Asset) error {
	if len(assets) == 0 || r.fatal.Load() {
		return nil
	}
	s.logger.Info().Int("count", len(assets)).Msg("scheduler: generating carousels")

	for _, asset := range assets {
		if r.fatal.Load() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(asset.Slides) == 0 {
			continue
		}
		asset.Status = domain.AssetStatusGenerating
		s.onUpdate(asset)

		firstSlideURL := ""
		for i := range asset.Slides {
			if r.fatal.Load() {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			slide := &asset.Slides[i]
			s.logger.Info().
				Str("asset_id", asset.ID).
				Int("slide", i+1).
				Int("slides", len(asset.Slides)).
				Msg("scheduler: generating carousel slide")

			res, err := s.images.Generate(ctx, image.Request{
				Prompt:        slide.Prompt,
				AspectRatio:   domain.AspectSquare,
				ReferenceURLs: s.referenceFor(r, nil, i),
				Quality:       "high",
			})
			if err == nil {
				var url string
				url, err = persistResult(ctx, s.store, r.sessionID, slide.ID, res.URL, res.Data, "png")
				if err == nil {
					slide.ImageURL = url
					if i == 0 {
						firstSlideURL = url
					}
					continue
				}
			}
			// A failed slide keeps its empty URL; later slides still run
			// unless the failure is fatal.
			s.logger.Error().Err(err).
				Str("asset_id", asset.ID).
				Int("slide", i+1).
				Msg("scheduler: carousel slide failed")
			if kind := providers.Classify(err); kind.Fatal() {
				if r.setFatal(err.Error()) {
					s.onFatal(err.Error())
				}
				break
			}
		}

		allGenerated := true
		for _, slide := range asset.Slides {
			if slide.ImageURL == "" {
				allGenerated = false
				break
			}
		}
		asset.URL = firstSlideURL
		if allGenerated {
			asset.Status = domain.AssetStatusCompleted
			asset.Error = ""
		} else {
			asset.Status = domain.AssetStatusFailed
			asset.Error = "Some slides failed to generate"
		}
		s.onUpdate(asset)
		s.finishJob(r)
	}
	return nil
}

// failAsset records a terminal failure and escalates fatal-class errors.
func (s *Scheduler) failAsset(r *run, asset domain.Asset, err error) {
	asset.Status = domain.AssetStatusFailed
	asset.Error = err.Error()
	s.onUpdate(asset)

	kind := providers.Classify(err)
	s.logger.Error().Err(err).
		Str("asset_id", asset.ID).
		Str("kind", string(asset.Kind)).
		Str("failure", kind.String()).
		Msg("scheduler: generation failed")
	if kind.Fatal() {
		if r.setFatal(err.Error()) {
			s.onFatal(err.Error())
		}
	}
}

// finishJob counts one settled job, successful or failed, and maps overall
// completion into the generation band of the pipeline's progress scale.
func (s *Scheduler) finishJob(r *run) {
	completed := r.completed.Add(1)
	// The 60-point span tops out at 85 even though the band runs to 90;
	// the orchestrator jumps to 90 when it enters the ad-copy phase.
	progress := 25 + int(float64(completed)/float64(r.total)*60)
	if progress < 25 {
		progress = 25
	}
	if progress > 90 {
		progress = 90
	}
	s.onProgress(progress)
}

// persistResult stores generated bytes under the session's asset directory
// and returns a local path. Results that already carry a hosted URL are
// passed through untouched.
func persistResult(ctx context.Context, store BlobStore, sessionID, id, url string, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		if url == "" {
			return "", fmt.Errorf("provider returned neither url nor data")
		}
		return url, nil
	}
	key := fmt.Sprintf("%s/assets/%s.%s", sessionID, id, ext)
	stored, err := store.Write(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("persist asset: %w", err)
	}
	return store.AbsolutePath(stored)
}
