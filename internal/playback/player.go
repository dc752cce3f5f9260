package playback

// Player is the minimum a media player handle must offer. Everything else is
// discovered through the optional interfaces below and every caller tolerates
// their absence.
type Player interface {
	CurrentTime() (float64, error)
	SeekTo(seconds float64) error
}

type RateSetter interface {
	PlaybackRate() (float64, error)
	SetPlaybackRate(rate float64) error
}

type RateLister interface {
	AvailablePlaybackRates() []float64
}

type RateRanger interface {
	PlaybackRateRange() RateRange
}

type ReadinessReporter interface {
	Ready() bool
}

type Transport interface {
	Play() error
	Stop() error
}

type Destroyer interface {
	Destroy() error
}

func playerReady(p Player) bool {
	if p == nil {
		return false
	}
	if r, ok := p.(ReadinessReporter); ok {
		return r.Ready()
	}
	return true
}

func playerRange(p Player, fallback RateRange) RateRange {
	if r, ok := p.(RateRanger); ok {
		if rng := r.PlaybackRateRange(); rng.valid() {
			return rng
		}
	}
	return fallback
}

func playerRates(p Player) []float64 {
	if l, ok := p.(RateLister); ok {
		return l.AvailablePlaybackRates()
	}
	return nil
}
