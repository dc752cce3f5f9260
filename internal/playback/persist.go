package playback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const storageKeyPrefix = "partkeeper:playback:"

// KeyValueStore is the local persistence capability. A missing key is not an
// error.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Snapshot is everything persisted for one media item.
type Snapshot struct {
	Settings
	LoopRegion
}

func StorageKey(mediaID string) string {
	return storageKeyPrefix + mediaID
}

func EncodeSnapshot(s Snapshot) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(b), nil
}

// DecodeSnapshot parses a stored value. Older releases stored a bare transpose
// number; that is accepted and mapped onto TransposeSemitones. Anything
// unparseable yields defaults and an error the caller may ignore.
func DecodeSnapshot(raw string) (Snapshot, error) {
	snap := Snapshot{Settings: DefaultSettings()}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return snap, nil
	}

	if n, ok := legacyTranspose(raw); ok {
		snap.TransposeSemitones = clampInt(n, MinTranspose, MaxTranspose)
		return snap, nil
	}

	if !strings.HasPrefix(raw, "{") {
		return snap, fmt.Errorf("decode snapshot: unexpected value %q", raw)
	}

	var stored storedSnapshot
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(&stored); err != nil {
		return Snapshot{Settings: DefaultSettings()}, fmt.Errorf("decode snapshot: %w", err)
	}

	if stored.Transpose != nil {
		snap.TransposeSemitones = roundInt(*stored.Transpose)
	}
	if stored.FineTune != nil {
		snap.FineTuneCents = roundInt(*stored.FineTune)
	}
	if stored.Speed != nil {
		snap.SpeedPercent = roundInt(*stored.Speed)
	}
	snap.Settings = snap.Settings.Normalize()

	if stored.LoopStart != nil && isFinite(*stored.LoopStart) {
		snap.LoopRegion.SetStart(*stored.LoopStart)
	}
	if stored.LoopEnd != nil && isFinite(*stored.LoopEnd) {
		snap.LoopRegion.SetEnd(*stored.LoopEnd)
	}
	if stored.LoopEnabled && snap.LoopRegion.ordered() {
		snap.LoopRegion.Enabled = true
	}
	return snap, nil
}

// storedSnapshot reads numbers as floats so values written by older clients
// with fractional steps still load.
type storedSnapshot struct {
	Transpose   *float64 `json:"transpose"`
	FineTune    *float64 `json:"fineTune"`
	Speed       *float64 `json:"speed"`
	LoopStart   *float64 `json:"loopStart"`
	LoopEnd     *float64 `json:"loopEnd"`
	LoopEnabled bool     `json:"loopEnabled"`
}

func legacyTranspose(raw string) (int, bool) {
	unquoted := raw
	if s, err := strconv.Unquote(raw); err == nil {
		unquoted = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(unquoted, 64)
	if err != nil || !isFinite(f) {
		return 0, false
	}
	return roundInt(f), true
}

// roundInt saturates at the int32 bounds; every caller clamps the result to a
// much narrower range afterwards.
func roundInt(f float64) int {
	switch {
	case !isFinite(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Round(f))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
