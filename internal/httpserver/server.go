// Package httpserver exposes the local viewer: generated asset files, the
// live pipeline state and the run history, served to a browser on loopback.
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"brandforge/internal/domain"
	"brandforge/internal/history"
	"brandforge/internal/infra"
	"brandforge/internal/pipeline"
)

// App bundles the viewer's collaborators.
type App struct {
	State   *pipeline.Store
	History *history.Store
	// AssetDir is the storage root; its files are served under /assets/.
	AssetDir string
	Logger   *infra.Logger
}

func (a *App) logger() infra.Logger {
	if a.Logger != nil {
		return *a.Logger
	}
	return zerolog.New(io.Discard)
}

// NewRouter builds the viewer's route table.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", app.health)
	r.Get("/api/state", app.getState)
	r.Get("/api/state/stream", app.streamState)

	r.Route("/api/history", func(r chi.Router) {
		r.Get("/", app.listHistory)
		r.Delete("/", app.clearHistory)
		r.Get("/{id}", app.getHistoryEntry)
		r.Delete("/{id}", app.deleteHistoryEntry)
	})

	fileServer := http.StripPrefix("/assets/", http.FileServer(http.Dir(app.AssetDir)))
	r.Get("/assets/*", fileServer.ServeHTTP)

	return r
}

func (a *App) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.State.Snapshot())
}

// streamState pushes state snapshots as server-sent events until the client
// disconnects.
func (a *App) streamState(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	updates, cancel := a.State.Subscribe()
	defer cancel()

	send := func(snap pipeline.State) bool {
		payload, err := json.Marshal(snap)
		if err != nil {
			return false
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			return false
		}
		if _, err := w.Write(payload); err != nil {
			return false
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(a.State.Snapshot()) {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-updates:
			if !send(snap) {
				return
			}
		}
	}
}

func (a *App) listHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := a.History.List(r.Context())
	if err != nil {
		a.serverError(w, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *App) getHistoryEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := a.History.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "history entry not found"})
			return
		}
		a.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *App) deleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if err := a.History.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "history entry not found"})
			return
		}
		a.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := a.History.Clear(r.Context()); err != nil {
		a.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) serverError(w http.ResponseWriter, err error) {
	logger := a.logger()
	logger.Error().Err(err).Msg("viewer: request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
