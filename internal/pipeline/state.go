package pipeline

import (
	"sync"

	"brandforge/internal/domain"
)

// Phase is one stage of the top-level pipeline state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseUploading  Phase = "uploading"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseGenerating Phase = "generating"
	PhaseCompleted  Phase = "completed"
)

// State is one observable snapshot of the session. Slices inside a snapshot
// are private copies; holders may read them freely.
type State struct {
	Phase      Phase                 `json:"currentPhase"`
	Progress   int                   `json:"progress"`
	Message    string                `json:"progressMessage"`
	Processing bool                  `json:"isProcessing"`
	SourceURLs []string              `json:"uploadedSourceUrls,omitempty"`
	Analysis   *domain.BrandAnalysis `json:"brandContext,omitempty"`
	Assets     []domain.Asset        `json:"generatedAssets"`
	AdCopy     *domain.AdCopy        `json:"adCopy,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// Store is the single-writer session state container. The orchestrator and
// the scheduler's update callbacks are the only mutators; everything else
// reads snapshots or subscribes.
type Store struct {
	mu      sync.Mutex
	state   State
	subs    map[int]chan State
	nextSub int
}

// NewStore returns a store in the idle state.
func NewStore() *Store {
	return &Store{
		state: State{Phase: PhaseIdle},
		subs:  make(map[int]chan State),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	snap := s.state
	snap.SourceURLs = append([]string(nil), s.state.SourceURLs...)
	snap.Assets = copyAssets(s.state.Assets)
	return snap
}

func copyAssets(assets []domain.Asset) []domain.Asset {
	out := make([]domain.Asset, len(assets))
	copy(out, assets)
	for i := range out {
		if len(out[i].Slides) > 0 {
			out[i].Slides = append([]domain.CarouselSlide(nil), out[i].Slides...)
		}
	}
	return out
}

// Subscribe registers an observer. Every mutation delivers a fresh snapshot;
// slow observers miss intermediate snapshots rather than block the pipeline.
// The returned cancel function must be called to release the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publishLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so the latest one can land.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// SetPhase records the phase and progress message. Processing is derived.
func (s *Store) SetPhase(phase Phase, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Phase = phase
	s.state.Message = message
	s.state.Processing = phase != PhaseIdle && phase != PhaseCompleted
	s.publishLocked()
}

// SetProgress raises the progress value. Lower values are ignored so observed
// progress is non-decreasing within a run.
func (s *Store) SetProgress(progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress <= s.state.Progress {
		return
	}
	s.state.Progress = progress
	s.publishLocked()
}

// SetSourceURLs records the stable references of the uploaded images.
func (s *Store) SetSourceURLs(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SourceURLs = append([]string(nil), urls...)
	s.publishLocked()
}

// SetAnalysis records the brand analysis.
func (s *Store) SetAnalysis(analysis *domain.BrandAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Analysis = analysis
	s.publishLocked()
}

// SetAssets replaces the asset list.
func (s *Store) SetAssets(assets []domain.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Assets = copyAssets(assets)
	s.publishLocked()
}

// UpdateAsset applies a last-write-wins update keyed by asset id. An update
// for an unknown id is prepended, which is how single-asset regeneration
// introduces its asset.
func (s *Store) UpdateAsset(asset domain.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Assets {
		if s.state.Assets[i].ID == asset.ID {
			s.state.Assets[i] = asset
			s.publishLocked()
			return
		}
	}
	s.state.Assets = append([]domain.Asset{asset}, s.state.Assets...)
	s.publishLocked()
}

// Asset returns the asset with the given id.
func (s *Store) Asset(id string) (domain.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.state.Assets {
		if a.ID == id {
			if len(a.Slides) > 0 {
				a.Slides = append([]domain.CarouselSlide(nil), a.Slides...)
			}
			return a, true
		}
	}
	return domain.Asset{}, false
}

// SetAdCopy records the written deliverables.
func (s *Store) SetAdCopy(adCopy *domain.AdCopy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AdCopy = adCopy
	s.publishLocked()
}

// SetError sets the error overlay. It overwrites any previous error.
func (s *Store) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = message
	s.publishLocked()
}

// BeginRun clears the previous run's error and progress so a fresh run
// starts from a clean overlay without touching uploaded inputs.
func (s *Store) BeginRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
	s.state.Progress = 0
	s.state.Assets = nil
	s.state.AdCopy = nil
	s.publishLocked()
}

// Reset returns the store to its initial idle state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Phase: PhaseIdle}
	s.publishLocked()
}
