package playback

// LoopState is derived from a LoopRegion, never stored.
type LoopState int

const (
	NoLoop LoopState = iota
	PartialMarkers
	Armed
	Active
)

func (s LoopState) String() string {
	switch s {
	case PartialMarkers:
		return "partial"
	case Armed:
		return "armed"
	case Active:
		return "active"
	default:
		return "none"
	}
}

// LoopRegion is an A/B range for repeated playback. Enabled is only ever true
// while both bounds are set and End > Start; every mutator restores that.
type LoopRegion struct {
	Start   *float64 `json:"loopStart,omitempty"`
	End     *float64 `json:"loopEnd,omitempty"`
	Enabled bool     `json:"loopEnabled,omitempty"`
}

func (l LoopRegion) State() LoopState {
	switch {
	case l.Start == nil && l.End == nil:
		return NoLoop
	case l.Start == nil || l.End == nil:
		return PartialMarkers
	case l.Enabled:
		return Active
	default:
		return Armed
	}
}

func (l LoopRegion) ordered() bool {
	return l.Start != nil && l.End != nil && *l.End > *l.Start
}

// SetStart moves the start marker. A start at or past the end clears the end.
// NaN and infinite positions are ignored.
func (l *LoopRegion) SetStart(seconds float64) {
	if !isFinite(seconds) {
		return
	}
	start := nonNegative(seconds)
	l.Start = &start
	if l.End != nil && *l.End <= start {
		l.End = nil
	}
	l.enforce()
}

// SetEnd moves the end marker. An end at or before the start clears the start.
// NaN and infinite positions are ignored.
func (l *LoopRegion) SetEnd(seconds float64) {
	if !isFinite(seconds) {
		return
	}
	end := nonNegative(seconds)
	l.End = &end
	if l.Start != nil && end <= *l.Start {
		l.Start = nil
	}
	l.enforce()
}

func (l *LoopRegion) ClearStart() {
	l.Start = nil
	l.enforce()
}

func (l *LoopRegion) ClearEnd() {
	l.End = nil
	l.enforce()
}

func (l *LoopRegion) Clear() {
	*l = LoopRegion{}
}

// Toggle flips Enabled when the region is Armed or Active and reports whether
// it changed anything.
func (l *LoopRegion) Toggle() bool {
	if !l.ordered() {
		l.Enabled = false
		return false
	}
	l.Enabled = !l.Enabled
	return true
}

// Check reports where to seek when position has crossed the end of an active
// loop.
func (l LoopRegion) Check(position float64) (float64, bool) {
	if !l.Enabled || !l.ordered() {
		return 0, false
	}
	if position >= *l.End {
		return *l.Start, true
	}
	return 0, false
}

func (l *LoopRegion) enforce() {
	if l.Enabled && !l.ordered() {
		l.Enabled = false
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
