package song

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/partkeeper/partkeeper/internal/httputil"
	"github.com/partkeeper/partkeeper/internal/playback"
)

type playbackResponse struct {
	SongID      string            `json:"songId"`
	Role        Role              `json:"role"`
	MediaRef    string            `json:"mediaRef"`
	MediaID     string            `json:"mediaId"`
	StorageKey  string            `json:"storageKey"`
	Settings    playback.Settings `json:"settings"`
	DesiredRate float64           `json:"desiredRate"`
	Rate        float64           `json:"rate"`
	PitchHz     float64           `json:"pitchHz"`
	MinRate     float64           `json:"minRate"`
	MaxRate     float64           `json:"maxRate"`
	Rates       []float64         `json:"rates"`
}

// Playback resolves the embedded-player configuration for one part of a song:
// which video to load and the rate to apply for the requested settings.
func (h *Handler) Playback(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err, "failed to read song")
		return
	}

	query := r.URL.Query()
	role, ref, ok := s.PartFor(Role(query.Get("role")))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "song has no parts")
		return
	}

	settings := playback.DefaultSettings()
	for _, p := range []struct {
		name   string
		target *int
	}{
		{"transpose", &settings.TransposeSemitones},
		{"fine", &settings.FineTuneCents},
		{"speed", &settings.SpeedPercent},
	} {
		raw := query.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, p.name+" must be an integer")
			return
		}
		*p.target = v
	}
	settings = settings.Normalize()

	profile := playback.YouTubeProfile
	mediaID := playback.MediaID(ref)
	desired := settings.DesiredRate()

	httputil.WriteJSON(w, http.StatusOK, playbackResponse{
		SongID:      s.ID,
		Role:        role,
		MediaRef:    ref,
		MediaID:     mediaID,
		StorageKey:  playback.StorageKey(mediaID),
		Settings:    settings,
		DesiredRate: desired,
		Rate:        profile.Resolve(desired),
		PitchHz:     settings.PitchHz(),
		MinRate:     profile.Range.Min,
		MaxRate:     profile.Range.Max,
		Rates:       profile.Rates,
	})
}
