package song

import (
	"context"
	"math"
	"net/http"
	"testing"
)

type playbackBody struct {
	SongID      string  `json:"songId"`
	Role        Role    `json:"role"`
	MediaRef    string  `json:"mediaRef"`
	MediaID     string  `json:"mediaId"`
	StorageKey  string  `json:"storageKey"`
	DesiredRate float64 `json:"desiredRate"`
	Rate        float64 `json:"rate"`
	PitchHz     float64 `json:"pitchHz"`
	MinRate     float64 `json:"minRate"`
	MaxRate     float64 `json:"maxRate"`
	Rates       []float64
	Settings    struct {
		Transpose int `json:"transpose"`
		FineTune  int `json:"fineTune"`
		Speed     int `json:"speed"`
	} `json:"settings"`
}

func newPlaybackRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	repo := NewMemoryRepository()
	s, err := repo.Create(context.Background(), Input{
		Title:       "Lida Rose",
		DefaultRole: rolePtr(Baritone),
		Parts: map[Role]string{
			Baritone: "https://www.youtube.com/watch?v=bbbbbbbbbbb",
			Bass:     "https://youtu.be/ccccccccccc",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return newTestRouter(NewHandler(repo, nil, 0)), s.ID
}

func TestPlaybackResolvesPart(t *testing.T) {
	router, id := newPlaybackRouter(t)

	tests := []struct {
		name     string
		query    string
		wantRole Role
		wantID   string
	}{
		{"RequestedRole", "?role=bass", Bass, "ccccccccccc"},
		{"FallsBackToDefault", "?role=1st-tenor", Baritone, "bbbbbbbbbbb"},
		{"NoRole", "", Baritone, "bbbbbbbbbbb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, "/api/songs/"+id+"/playback"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			body := decodeBody[playbackBody](t, rec)
			if body.Role != tt.wantRole || body.MediaID != tt.wantID {
				t.Errorf("expected %s/%s, got %s/%s", tt.wantRole, tt.wantID, body.Role, body.MediaID)
			}
			if body.StorageKey != "partkeeper:playback:"+tt.wantID {
				t.Errorf("unexpected storage key %q", body.StorageKey)
			}
			if body.SongID != id {
				t.Errorf("expected song id %q, got %q", id, body.SongID)
			}
		})
	}
}

func TestPlaybackRate(t *testing.T) {
	router, id := newPlaybackRouter(t)

	tests := []struct {
		name        string
		query       string
		wantDesired float64
		wantRate    float64
	}{
		{"Default", "", 1, 1},
		{"OctaveDown", "?transpose=-12", 0.5, 0.5},
		{"ClampedToPlayerMax", "?transpose=12&speed=200", 4, 2},
		{"SnapsToSelectableRate", "?speed=150&fine=1", 1.5 * math.Pow(2, 1.0/1200), 1.5},
		{"OutOfRangeSettingsClamped", "?transpose=40", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, "/api/songs/"+id+"/playback"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			body := decodeBody[playbackBody](t, rec)
			if math.Abs(body.DesiredRate-tt.wantDesired) > 1e-9 {
				t.Errorf("expected desired rate %v, got %v", tt.wantDesired, body.DesiredRate)
			}
			if math.Abs(body.Rate-tt.wantRate) > 1e-9 {
				t.Errorf("expected rate %v, got %v", tt.wantRate, body.Rate)
			}
			if body.MinRate != 0.25 || body.MaxRate != 2 {
				t.Errorf("unexpected range [%v, %v]", body.MinRate, body.MaxRate)
			}
		})
	}
}

func TestPlaybackReportsSettingsAndPitch(t *testing.T) {
	router, id := newPlaybackRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/songs/"+id+"/playback?transpose=12&fine=-150&speed=10", nil)
	body := decodeBody[playbackBody](t, rec)
	if body.Settings.Transpose != 12 || body.Settings.FineTune != -100 || body.Settings.Speed != 25 {
		t.Errorf("expected clamped settings, got %+v", body.Settings)
	}
	want := 440 * math.Pow(2, 12.0/12) * math.Pow(2, -100.0/1200)
	if math.Abs(body.PitchHz-want) > 1e-6 {
		t.Errorf("expected pitch %v, got %v", want, body.PitchHz)
	}
}

func TestPlaybackBadParameters(t *testing.T) {
	router, id := newPlaybackRouter(t)

	for _, name := range []string{"transpose", "fine", "speed"} {
		rec := doRequest(t, router, http.MethodGet, "/api/songs/"+id+"/playback?"+name+"=abc", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
			continue
		}
		if body := decodeBody[map[string]string](t, rec); body["error"] != name+" must be an integer" {
			t.Errorf("%s: unexpected error %q", name, body["error"])
		}
	}
}

func TestPlaybackSongWithoutParts(t *testing.T) {
	repo := NewMemoryRepository()
	s, _ := repo.Create(context.Background(), Input{Title: "Empty"})
	router := newTestRouter(NewHandler(repo, nil, 0))

	rec := doRequest(t, router, http.MethodGet, "/api/songs/"+s.ID+"/playback", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
