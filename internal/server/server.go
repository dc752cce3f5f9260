package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/partkeeper/partkeeper/internal/auth"
	"github.com/partkeeper/partkeeper/internal/docs"
	"github.com/partkeeper/partkeeper/internal/httputil"
	"github.com/partkeeper/partkeeper/internal/playback"
	"github.com/partkeeper/partkeeper/internal/ratelimit"
	"github.com/partkeeper/partkeeper/internal/song"
	"github.com/partkeeper/partkeeper/internal/validate"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Songs song.Repository
	// Storage holds uploaded soundtracks. Leave nil to disable uploads.
	Storage            song.SoundtrackStorage
	Pinger             Pinger
	WebFS              fs.FS
	JWTSecret          string
	AccessCode         string
	AccessCodeHash     string
	BaseURL            string
	S3PublicEndpoint   string
	MaxSoundtrackBytes int64
}

type Server struct {
	router      chi.Router
	pinger      Pinger
	authHandler *auth.Handler
	songHandler *song.Handler
	webFS       fs.FS
	limits      limitsResponse
}

// New builds the router. ctx bounds the rate limiters' background sweeps.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Songs == nil {
		cfg.Songs = song.NewMemoryRepository()
	}
	if cfg.MaxSoundtrackBytes <= 0 {
		cfg.MaxSoundtrackBytes = song.DefaultMaxSoundtrackBytes
	}

	authHandler, err := auth.NewHandler(cfg.JWTSecret, cfg.AccessCode, cfg.AccessCodeHash)
	if err != nil {
		return nil, fmt.Errorf("configure access code: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.S3PublicEndpoint,
	}))

	s := &Server{
		router:      r,
		pinger:      cfg.Pinger,
		authHandler: authHandler,
		songHandler: song.NewHandler(cfg.Songs, cfg.Storage, cfg.MaxSoundtrackBytes),
		webFS:       cfg.WebFS,
		limits:      newLimits(cfg, authHandler.Enabled()),
	}
	s.routes(ctx)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(ctx context.Context) {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/limits", s.handleLimits)
	s.router.Get("/api/docs", docs.HandleDocs)
	s.router.Get("/api/docs/openapi.yaml", docs.HandleSpec)

	authLimiter := ratelimit.NewLimiter(ctx, 0.5, 5)
	s.router.Route("/api/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/login", s.authHandler.Login)
	})

	apiLimiter := ratelimit.NewLimiter(ctx, 5, 20)
	s.router.Group(func(r chi.Router) {
		r.Use(apiLimiter.Middleware)
		r.Use(s.authHandler.Middleware)

		r.Route("/api/songs", func(r chi.Router) {
			r.Get("/", s.songHandler.List)
			r.Post("/", s.songHandler.Create)
			r.Get("/{id}", s.songHandler.Get)
			r.Put("/{id}", s.songHandler.Update)
			r.Delete("/{id}", s.songHandler.Delete)
			r.Get("/{id}/playback", s.songHandler.Playback)
		})
		r.Post("/api/soundtracks/upload-url", s.songHandler.SoundtrackUploadURL)
	})

	if s.webFS != nil {
		s.router.NotFound(newSPAFileServer(s.webFS).ServeHTTP)
	} else {
		s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteError(w, http.StatusNotFound, "not found")
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type playbackLimits struct {
	MinTranspose int       `json:"minTranspose"`
	MaxTranspose int       `json:"maxTranspose"`
	MinFineTune  int       `json:"minFineTune"`
	MaxFineTune  int       `json:"maxFineTune"`
	MinSpeed     int       `json:"minSpeed"`
	MaxSpeed     int       `json:"maxSpeed"`
	MinRate      float64   `json:"minRate"`
	MaxRate      float64   `json:"maxRate"`
	Rates        []float64 `json:"rates"`
}

type limitsResponse struct {
	Fields             map[string]int `json:"fields"`
	Roles              []song.Role    `json:"roles"`
	MaxSoundtrackBytes int64          `json:"maxSoundtrackBytes"`
	SoundtrackTypes    []string       `json:"soundtrackTypes"`
	SoundtrackUploads  bool           `json:"soundtrackUploads"`
	AccessCodeRequired bool           `json:"accessCodeRequired"`
	Playback           playbackLimits `json:"playback"`
}

func newLimits(cfg Config, gated bool) limitsResponse {
	types := song.SoundtrackTypes()
	sort.Strings(types)
	profile := playback.YouTubeProfile
	return limitsResponse{
		Fields:             validate.FieldLimits(),
		Roles:              song.Roles,
		MaxSoundtrackBytes: cfg.MaxSoundtrackBytes,
		SoundtrackTypes:    types,
		SoundtrackUploads:  cfg.Storage != nil,
		AccessCodeRequired: gated,
		Playback: playbackLimits{
			MinTranspose: playback.MinTranspose,
			MaxTranspose: playback.MaxTranspose,
			MinFineTune:  playback.MinFineTune,
			MaxFineTune:  playback.MaxFineTune,
			MinSpeed:     playback.MinSpeed,
			MaxSpeed:     playback.MaxSpeed,
			MinRate:      profile.Range.Min,
			MaxRate:      profile.Range.Max,
			Rates:        profile.Rates,
		},
	}
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.limits)
}
