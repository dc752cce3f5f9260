package playback

import "math"

const (
	MinTranspose = -12
	MaxTranspose = 12
	MinFineTune  = -100
	MaxFineTune  = 100
	MinSpeed     = 25
	MaxSpeed     = 400

	DefaultSpeed = 100

	referencePitchHz = 440.0
)

// Settings holds the user-adjustable playback parameters for one media item.
type Settings struct {
	TransposeSemitones int `json:"transpose"`
	FineTuneCents      int `json:"fineTune"`
	SpeedPercent       int `json:"speed"`
}

func DefaultSettings() Settings {
	return Settings{SpeedPercent: DefaultSpeed}
}

// Normalize clamps every field into its legal range.
func (s Settings) Normalize() Settings {
	return Settings{
		TransposeSemitones: clampInt(s.TransposeSemitones, MinTranspose, MaxTranspose),
		FineTuneCents:      clampInt(s.FineTuneCents, MinFineTune, MaxFineTune),
		SpeedPercent:       clampInt(s.SpeedPercent, MinSpeed, MaxSpeed),
	}
}

// DesiredRate is the unclamped playback rate the settings ask for.
func (s Settings) DesiredRate() float64 {
	transpose := math.Pow(2, float64(s.TransposeSemitones)/12)
	fine := math.Pow(2, float64(s.FineTuneCents)/1200)
	return float64(s.SpeedPercent) / 100 * transpose * fine
}

// PitchHz is the display-only frequency of A4 after transposition. It is never
// applied to playback.
func (s Settings) PitchHz() float64 {
	semitones := float64(s.TransposeSemitones) + float64(s.FineTuneCents)/100
	return referencePitchHz * math.Pow(2, semitones/12)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
