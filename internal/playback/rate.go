package playback

import "math"

const (
	DefaultMinRate = 0.0625
	DefaultMaxRate = 4.0

	// snapTolerance is how close a desired rate must be to a supported
	// discrete rate for the discrete value to be used verbatim.
	snapTolerance = 0.01
)

// RateRange is the inclusive span of playback rates a player accepts.
type RateRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var DefaultRateRange = RateRange{Min: DefaultMinRate, Max: DefaultMaxRate}

// YouTubeProfile describes the embedded YouTube player: a narrower range and a
// fixed set of selectable rates.
var YouTubeProfile = Profile{
	Range: RateRange{Min: 0.25, Max: 2.0},
	Rates: []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2},
}

// Profile is the static rate capability of a player kind.
type Profile struct {
	Range RateRange
	Rates []float64
}

func (p Profile) Resolve(desired float64) float64 {
	return ResolveRate(desired, p.Rates, p.Range)
}

// ResolveRate snaps desired to the nearest supported rate when it is within
// tolerance and then clamps it to the range.
func ResolveRate(desired float64, supported []float64, r RateRange) float64 {
	rate := desired
	if nearest, ok := nearestRate(desired, supported); ok && math.Abs(nearest-desired) <= snapTolerance {
		rate = nearest
	}
	return r.Clamp(rate)
}

func (r RateRange) Clamp(rate float64) float64 {
	if r.Min > 0 && rate < r.Min {
		return r.Min
	}
	if r.Max > 0 && rate > r.Max {
		return r.Max
	}
	return rate
}

func (r RateRange) valid() bool {
	return r.Min > 0 && r.Max >= r.Min
}

func nearestRate(desired float64, supported []float64) (float64, bool) {
	if len(supported) == 0 {
		return 0, false
	}
	best := supported[0]
	for _, candidate := range supported[1:] {
		if math.Abs(candidate-desired) < math.Abs(best-desired) {
			best = candidate
		}
	}
	return best, true
}
