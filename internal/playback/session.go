package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultRateInterval = time.Second
	DefaultLoopInterval = 250 * time.Millisecond
)

type Config struct {
	// RateInterval is how often the rate is re-applied while playing. Some
	// players silently reset it on internal state changes.
	RateInterval time.Duration
	LoopInterval time.Duration
	// Range is used when the player does not report its own.
	Range  RateRange
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.RateInterval <= 0 {
		c.RateInterval = DefaultRateInterval
	}
	if c.LoopInterval <= 0 {
		c.LoopInterval = DefaultLoopInterval
	}
	if !c.Range.valid() {
		c.Range = DefaultRateRange
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Session is the practice state for one media item: its settings, its loop
// region and, while playing, the player handle they are applied to.
type Session struct {
	// lifecycle serializes Start and Stop. It is never taken by the ticker
	// goroutine, so Stop can wait for that goroutine while holding it.
	lifecycle sync.Mutex
	mu        sync.Mutex
	mediaID   string
	store     KeyValueStore
	cfg       Config
	log       *slog.Logger

	settings    Settings
	loop        LoopRegion
	player      Player
	appliedRate float64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession mounts a session for mediaID, restoring whatever the store holds
// for it. store may be nil, in which case nothing is persisted.
func NewSession(mediaID string, store KeyValueStore, cfg Config) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		mediaID:  mediaID,
		store:    store,
		cfg:      cfg,
		log:      cfg.Logger.With("media_id", mediaID),
		settings: DefaultSettings(),
	}
	s.load()
	return s
}

func (s *Session) MediaID() string { return s.mediaID }

func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Session) Loop() LoopRegion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// AppliedRate is the last rate the player accepted, or 0 if none yet.
func (s *Session) AppliedRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appliedRate
}

func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player != nil
}

// Start attaches p, applies the current rate and begins the rate
// re-assertion and loop polling tickers. A session already playing is
// stopped first.
func (s *Session) Start(ctx context.Context, p Player) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.player = p
	s.cancel = cancel
	s.done = done
	s.applyRateLocked()
	s.mu.Unlock()

	if t, ok := p.(Transport); ok {
		if err := t.Play(); err != nil {
			s.log.Debug("player play failed", "error", err)
		}
	}

	go s.run(runCtx, done)
}

// Stop cancels polling, stops and destroys the player and drops the handle.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()
}

func (s *Session) stop() {
	s.mu.Lock()
	cancel, done, p := s.cancel, s.done, s.player
	s.cancel, s.done, s.player = nil, nil, nil
	s.appliedRate = 0
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if t, ok := p.(Transport); ok {
		if err := t.Stop(); err != nil {
			s.log.Debug("player stop failed", "error", err)
		}
	}
	if d, ok := p.(Destroyer); ok {
		if err := d.Destroy(); err != nil {
			s.log.Debug("player destroy failed", "error", err)
		}
	}
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	rateTicker := time.NewTicker(s.cfg.RateInterval)
	defer rateTicker.Stop()
	loopTicker := time.NewTicker(s.cfg.LoopInterval)
	defer loopTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rateTicker.C:
			s.ApplyRate()
		case <-loopTicker.C:
			s.PollLoop()
		}
	}
}

func (s *Session) SetTranspose(semitones int) Settings {
	return s.update(func(st *Settings) { st.TransposeSemitones = semitones })
}

func (s *Session) SetFineTune(cents int) Settings {
	return s.update(func(st *Settings) { st.FineTuneCents = cents })
}

func (s *Session) SetSpeed(percent int) Settings {
	return s.update(func(st *Settings) { st.SpeedPercent = percent })
}

func (s *Session) SetSettings(next Settings) Settings {
	return s.update(func(st *Settings) { *st = next })
}

// Reset restores default settings. The loop region is kept.
func (s *Session) Reset() Settings {
	return s.update(func(st *Settings) { *st = DefaultSettings() })
}

func (s *Session) update(fn func(*Settings)) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
	s.settings = s.settings.Normalize()
	s.applyRateLocked()
	s.saveLocked()
	return s.settings
}

// ApplyRate pushes the rate derived from the current settings to the player.
// It is a no-op without a ready, rate-capable player.
func (s *Session) ApplyRate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyRateLocked()
}

func (s *Session) applyRateLocked() {
	if !playerReady(s.player) {
		return
	}
	setter, ok := s.player.(RateSetter)
	if !ok {
		return
	}
	rate := ResolveRate(s.settings.DesiredRate(), playerRates(s.player), playerRange(s.player, s.cfg.Range))
	if current, err := setter.PlaybackRate(); err == nil && current == rate {
		s.appliedRate = rate
		return
	}
	if err := setter.SetPlaybackRate(rate); err != nil {
		s.log.Debug("set playback rate failed", "rate", rate, "error", err)
		return
	}
	s.appliedRate = rate
}

// MarkStart sets the loop start to the player's current position.
func (s *Session) MarkStart() (LoopRegion, bool) {
	return s.mark(func(l *LoopRegion, pos float64) { l.SetStart(pos) })
}

// MarkEnd sets the loop end to the player's current position.
func (s *Session) MarkEnd() (LoopRegion, bool) {
	return s.mark(func(l *LoopRegion, pos float64) { l.SetEnd(pos) })
}

func (s *Session) mark(fn func(*LoopRegion, float64)) (LoopRegion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !playerReady(s.player) {
		return s.loop, false
	}
	pos, err := s.player.CurrentTime()
	if err != nil {
		s.log.Debug("read position failed", "error", err)
		return s.loop, false
	}
	fn(&s.loop, pos)
	s.saveLocked()
	return s.loop, true
}

func (s *Session) SetLoopStart(seconds float64) LoopRegion {
	return s.updateLoop(func(l *LoopRegion) { l.SetStart(seconds) })
}

func (s *Session) SetLoopEnd(seconds float64) LoopRegion {
	return s.updateLoop(func(l *LoopRegion) { l.SetEnd(seconds) })
}

func (s *Session) ClearLoop() LoopRegion {
	return s.updateLoop(func(l *LoopRegion) { l.Clear() })
}

// ToggleLoop enables or disables an Armed or Active loop. It reports false
// and changes nothing in any other state.
func (s *Session) ToggleLoop() (LoopRegion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.loop.Toggle()
	if ok {
		s.saveLocked()
	}
	return s.loop, ok
}

func (s *Session) updateLoop(fn func(*LoopRegion)) LoopRegion {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.loop)
	s.saveLocked()
	return s.loop
}

// PollLoop seeks back to the loop start once the player has reached the loop
// end. It reports whether a seek happened.
func (s *Session) PollLoop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loop.Enabled || !playerReady(s.player) {
		return false
	}
	pos, err := s.player.CurrentTime()
	if err != nil {
		s.log.Debug("read position failed", "error", err)
		return false
	}
	target, ok := s.loop.Check(pos)
	if !ok {
		return false
	}
	if err := s.player.SeekTo(target); err != nil {
		s.log.Debug("loop seek failed", "target", target, "error", err)
		return false
	}
	if t, ok := s.player.(Transport); ok {
		if err := t.Play(); err != nil {
			s.log.Debug("resume after loop failed", "error", err)
		}
	}
	return true
}

func (s *Session) load() {
	if s.store == nil {
		return
	}
	raw, ok, err := s.store.Get(StorageKey(s.mediaID))
	if err != nil {
		s.log.Debug("load playback settings failed", "error", err)
		return
	}
	if !ok {
		return
	}
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		s.log.Debug("discarding stored playback settings", "error", err)
	}
	s.settings = snap.Settings
	s.loop = snap.LoopRegion
}

func (s *Session) saveLocked() {
	if s.store == nil {
		return
	}
	raw, err := EncodeSnapshot(Snapshot{Settings: s.settings, LoopRegion: s.loop})
	if err != nil {
		s.log.Debug("encode playback settings failed", "error", err)
		return
	}
	if err := s.store.Set(StorageKey(s.mediaID), raw); err != nil {
		s.log.Debug("save playback settings failed", "error", err)
	}
}
