// Package audio plays local soundtrack files through the speaker with a
// variable playback rate, so a practice session can drive them the same way
// it drives an embedded video.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/partkeeper/partkeeper/internal/playback"
)

const defaultQuality = 4

var (
	ErrClosed           = errors.New("player closed")
	ErrUnsupportedAudio = errors.New("unsupported audio format")
)

type Config struct {
	// OutputRate is the speaker sample rate. Zero means the source's rate.
	OutputRate beep.SampleRate
	// Lock guards the stream against the audio callback. Pass a locker that
	// wraps speaker.Lock and speaker.Unlock when the player is mixed by the
	// speaker.
	Lock    sync.Locker
	Quality int
	Range   playback.RateRange
}

// Player is a seekable, rate-adjustable stream over a decoded file. Rate
// changes resample the source, so pitch moves with speed.
type Player struct {
	lock      sync.Locker
	source    beep.StreamSeekCloser
	format    beep.Format
	baseRatio float64
	quality   int
	rateRange playback.RateRange

	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	rate      float64
	ended     bool
	closed    bool
}

// Open decodes a wav or mp3 file.
func Open(path string, cfg Config) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open soundtrack: %w", err)
	}

	var (
		source beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		source, format, err = wav.Decode(f)
	case ".mp3":
		source, format, err = mp3.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAudio, filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode soundtrack: %w", err)
	}
	return New(source, format, cfg), nil
}

func New(source beep.StreamSeekCloser, format beep.Format, cfg Config) *Player {
	if cfg.OutputRate <= 0 {
		cfg.OutputRate = format.SampleRate
	}
	if cfg.Lock == nil {
		cfg.Lock = &sync.Mutex{}
	}
	if cfg.Quality <= 0 {
		cfg.Quality = defaultQuality
	}
	if cfg.Range.Min <= 0 || cfg.Range.Max < cfg.Range.Min {
		cfg.Range = playback.DefaultRateRange
	}

	p := &Player{
		lock:      cfg.Lock,
		source:    source,
		format:    format,
		baseRatio: float64(format.SampleRate) / float64(cfg.OutputRate),
		quality:   cfg.Quality,
		rateRange: cfg.Range,
		rate:      1,
		ctrl:      &beep.Ctrl{Paused: true},
	}
	p.resetResampler()
	return p
}

func (p *Player) resetResampler() {
	p.resampler = beep.ResampleRatio(p.quality, p.baseRatio*p.rate, p.source)
	p.ctrl.Streamer = p.resampler
}

// Stream fills samples with audio, or silence while paused or after the
// source has ended. It never reports the stream as drained, so the speaker
// keeps the player mixed in across pauses and loops. Callers must hold the
// player's lock; the speaker does this for its own callback.
func (p *Player) Stream(samples [][2]float64) (int, bool) {
	if p.closed || p.ended {
		clear(samples)
		return len(samples), true
	}
	n, ok := p.ctrl.Stream(samples)
	if !ok || n < len(samples) {
		clear(samples[n:])
		p.ended = true
		p.ctrl.Paused = true
	}
	return len(samples), true
}

func (p *Player) Err() error {
	return p.source.Err()
}

func (p *Player) CurrentTime() (float64, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	return p.format.SampleRate.D(p.source.Position()).Seconds(), nil
}

// Duration is the length of the source in seconds.
func (p *Player) Duration() float64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.format.SampleRate.D(p.source.Len()).Seconds()
}

func (p *Player) SeekTo(seconds float64) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.seekLocked(seconds)
}

func (p *Player) seekLocked(seconds float64) error {
	n := p.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if n < 0 {
		n = 0
	}
	if last := p.source.Len(); n > last {
		n = last
	}
	if err := p.source.Seek(n); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	p.ended = false
	p.resetResampler()
	return nil
}

func (p *Player) PlaybackRate() (float64, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	return p.rate, nil
}

func (p *Player) SetPlaybackRate(rate float64) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return ErrClosed
	}
	if rate < p.rateRange.Min || rate > p.rateRange.Max {
		return fmt.Errorf("playback rate %v outside [%v, %v]", rate, p.rateRange.Min, p.rateRange.Max)
	}
	p.rate = rate
	p.resampler.SetRatio(p.baseRatio * rate)
	return nil
}

func (p *Player) PlaybackRateRange() playback.RateRange {
	return p.rateRange
}

func (p *Player) Ready() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return !p.closed
}

// Play resumes playback. A player that ran off the end starts over.
func (p *Player) Play() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.ended || p.source.Position() >= p.source.Len() {
		if err := p.seekLocked(0); err != nil {
			return err
		}
	}
	p.ctrl.Paused = false
	return nil
}

func (p *Player) Pause() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.ctrl.Paused = true
	return nil
}

func (p *Player) Stop() error {
	return p.Pause()
}

func (p *Player) Paused() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.ctrl.Paused
}

// Ended reports whether the source has been played to its end.
func (p *Player) Ended() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.ended
}

// Destroy closes the source. The player streams silence afterwards.
func (p *Player) Destroy() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.ctrl.Paused = true
	return p.source.Close()
}
