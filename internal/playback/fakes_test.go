package playback

import (
	"errors"
	"sync"
)

type fakePlayer struct {
	mu        sync.Mutex
	position  float64
	rate      float64
	rates     []float64
	rng       RateRange
	notReady  bool
	setErr    error
	seeks     []float64
	setCalls  int
	plays     int
	stops     int
	destroyed bool
}

func (p *fakePlayer) CurrentTime() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, nil
}

func (p *fakePlayer) SeekTo(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
	p.position = seconds
	return nil
}

func (p *fakePlayer) PlaybackRate() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate, nil
}

func (p *fakePlayer) SetPlaybackRate(rate float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setCalls++
	if p.setErr != nil {
		return p.setErr
	}
	p.rate = rate
	return nil
}

func (p *fakePlayer) AvailablePlaybackRates() []float64 { return p.rates }

func (p *fakePlayer) PlaybackRateRange() RateRange { return p.rng }

func (p *fakePlayer) Ready() bool { return !p.notReady }

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	return nil
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	return nil
}

func (p *fakePlayer) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
	return nil
}

func (p *fakePlayer) isDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

func (p *fakePlayer) setPosition(pos float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = pos
}

func (p *fakePlayer) currentRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// seekOnlyPlayer has no rate control at all.
type seekOnlyPlayer struct {
	position float64
	seeks    []float64
}

func (p *seekOnlyPlayer) CurrentTime() (float64, error) { return p.position, nil }

func (p *seekOnlyPlayer) SeekTo(seconds float64) error {
	p.seeks = append(p.seeks, seconds)
	return nil
}

type memStore struct {
	values map[string]string
	getErr error
	setErr error
}

func newMemStore() *memStore { return &memStore{values: map[string]string{}} }

func (m *memStore) Get(key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

var errBoom = errors.New("boom")
