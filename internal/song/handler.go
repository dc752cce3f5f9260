package song

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/partkeeper/partkeeper/internal/httputil"
)

// SoundtrackStorage is the object store soundtrack files are uploaded to.
type SoundtrackStorage interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string, contentLength int64, expiry time.Duration) (string, error)
	PublicURL(key string) string
	KeyFromURL(rawURL string) (string, bool)
	DeleteObject(ctx context.Context, key string) error
}

// maxSongBytes bounds a song request body; lyrics are the largest field.
const maxSongBytes = 1 << 20

type Handler struct {
	repo               Repository
	storage            SoundtrackStorage
	maxSoundtrackBytes int64
	now                func() time.Time
}

func NewHandler(repo Repository, storage SoundtrackStorage, maxSoundtrackBytes int64) *Handler {
	return &Handler{
		repo:               repo,
		storage:            storage,
		maxSoundtrackBytes: maxSoundtrackBytes,
		now:                time.Now,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	lib, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("songs: failed to list", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to read songs")
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		lib.Songs = Filter(lib.Songs, q)
	}
	httputil.WriteJSON(w, http.StatusOK, lib)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err, "failed to read song")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	s, err := h.repo.Create(r.Context(), in)
	if err != nil {
		slog.Error("songs: failed to create", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to add song")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, s)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var previous *Song
	if h.storage != nil {
		if existing, err := h.repo.Get(r.Context(), id); err == nil {
			previous = &existing
		}
	}

	s, err := h.repo.Update(r.Context(), id, in)
	if err != nil {
		h.writeRepoError(w, err, "failed to update song")
		return
	}
	if previous != nil && previous.SoundTrackURL != nil &&
		(s.SoundTrackURL == nil || *s.SoundTrackURL != *previous.SoundTrackURL) {
		h.deleteSoundtrack(r.Context(), *previous.SoundTrackURL)
	}
	httputil.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, "failed to delete song")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeRepoError(w, err, "failed to delete song")
		return
	}
	if existing.SoundTrackURL != nil {
		h.deleteSoundtrack(r.Context(), *existing.SoundTrackURL)
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteSoundtrack removes an uploaded soundtrack that is no longer
// referenced. Links to other hosts are left alone.
func (h *Handler) deleteSoundtrack(ctx context.Context, rawURL string) {
	if h.storage == nil {
		return
	}
	key, ok := h.storage.KeyFromURL(rawURL)
	if !ok {
		return
	}
	if err := h.storage.DeleteObject(ctx, key); err != nil {
		slog.Error("songs: failed to delete soundtrack", "key", key, "error", err)
	}
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "song not found")
		return
	}
	slog.Error("songs: repository error", "error", err)
	httputil.WriteError(w, http.StatusInternalServerError, message)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if !httputil.DecodeJSON(w, r, &in, maxSongBytes) {
		return Input{}, false
	}
	normalized, err := in.Normalize()
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, ValidationMessage(err))
		return Input{}, false
	}
	return normalized, true
}
