package playback

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		RateInterval: time.Hour,
		LoopInterval: time.Hour,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSessionPersistenceRoundTrip(t *testing.T) {
	store := newMemStore()

	first := NewSession("X", store, testConfig())
	first.SetTranspose(3)
	first.SetFineTune(-10)
	first.SetSpeed(120)

	second := NewSession("X", store, testConfig())
	want := Settings{TransposeSemitones: 3, FineTuneCents: -10, SpeedPercent: 120}
	if got := second.Settings(); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	other := NewSession("Y", store, testConfig())
	if got := other.Settings(); got != DefaultSettings() {
		t.Errorf("expected defaults for another media id, got %+v", got)
	}
}

func TestSessionLoadsLegacyValue(t *testing.T) {
	store := newMemStore()
	store.values[StorageKey("X")] = "-4"

	s := NewSession("X", store, testConfig())
	if got := s.Settings().TransposeSemitones; got != -4 {
		t.Errorf("expected -4, got %d", got)
	}
}

func TestSessionIgnoresStoreFailures(t *testing.T) {
	store := newMemStore()
	store.getErr = errBoom
	store.setErr = errBoom

	s := NewSession("X", store, testConfig())
	if got := s.SetSpeed(150); got.SpeedPercent != 150 {
		t.Errorf("expected speed 150 despite store failure, got %d", got.SpeedPercent)
	}
}

func TestSessionKeepsSavingAfterNonFiniteLoopBound(t *testing.T) {
	store := newMemStore()

	s := NewSession("X", store, testConfig())
	s.SetLoopStart(math.NaN())
	s.SetLoopEnd(math.Inf(1))
	s.SetTranspose(3)

	reloaded := NewSession("X", store, testConfig())
	if got := reloaded.Settings().TransposeSemitones; got != 3 {
		t.Errorf("expected transpose 3 after reload, got %d", got)
	}
	if got := reloaded.Loop().State(); got != NoLoop {
		t.Errorf("expected no loop markers, got %s", got)
	}
}

func TestSessionWithoutStore(t *testing.T) {
	s := NewSession("X", nil, testConfig())
	if got := s.SetTranspose(2); got.TransposeSemitones != 2 {
		t.Errorf("expected 2, got %d", got.TransposeSemitones)
	}
}

func TestSessionSettersClamp(t *testing.T) {
	s := NewSession("X", nil, testConfig())
	if got := s.SetSpeed(1000).SpeedPercent; got != MaxSpeed {
		t.Errorf("expected %d, got %d", MaxSpeed, got)
	}
	if got := s.SetTranspose(-99).TransposeSemitones; got != MinTranspose {
		t.Errorf("expected %d, got %d", MinTranspose, got)
	}
}

func TestSessionAppliesRateOnStartAndChange(t *testing.T) {
	player := &fakePlayer{rate: 1}
	s := NewSession("X", nil, testConfig())
	s.SetTranspose(12)

	s.Start(context.Background(), player)
	defer s.Stop()

	if got := player.currentRate(); got != 2 {
		t.Errorf("expected rate 2 on start, got %v", got)
	}
	if player.plays != 1 {
		t.Errorf("expected play on start, got %d", player.plays)
	}

	s.SetSpeed(50)
	if got := player.currentRate(); got != 1 {
		t.Errorf("expected rate 1 after speed change, got %v", got)
	}
	if got := s.AppliedRate(); got != 1 {
		t.Errorf("expected applied rate 1, got %v", got)
	}
}

func TestSessionUsesPlayerRangeAndRates(t *testing.T) {
	player := &fakePlayer{
		rate:  1,
		rates: YouTubeProfile.Rates,
		rng:   YouTubeProfile.Range,
	}
	s := NewSession("X", nil, testConfig())
	s.SetSpeed(400)

	s.Start(context.Background(), player)
	defer s.Stop()

	if got := player.currentRate(); got != 2 {
		t.Errorf("expected clamp to 2, got %v", got)
	}

	s.SetSpeed(75)
	if got := player.currentRate(); got != 0.75 {
		t.Errorf("expected 0.75, got %v", got)
	}
}

func TestSessionSkipsRateWhenPlayerNotReady(t *testing.T) {
	player := &fakePlayer{rate: 1, notReady: true}
	s := NewSession("X", nil, testConfig())
	s.SetSpeed(150)

	s.Start(context.Background(), player)
	defer s.Stop()

	if player.setCalls != 0 {
		t.Errorf("expected no rate calls, got %d", player.setCalls)
	}

	player.mu.Lock()
	player.notReady = false
	player.mu.Unlock()
	s.ApplyRate()

	if got := player.currentRate(); got != 1.5 {
		t.Errorf("expected retry to apply 1.5, got %v", got)
	}
}

func TestSessionToleratesRateErrors(t *testing.T) {
	player := &fakePlayer{rate: 1, setErr: errBoom}
	s := NewSession("X", nil, testConfig())
	s.Start(context.Background(), player)
	defer s.Stop()

	s.SetSpeed(150)
	if player.setCalls == 0 {
		t.Fatal("expected a rate call")
	}
	if got := s.AppliedRate(); got != 1 {
		t.Errorf("expected applied rate to stay at 1, got %v", got)
	}
}

func TestSessionWorksWithoutRateControl(t *testing.T) {
	player := &seekOnlyPlayer{position: 21}
	s := NewSession("X", nil, testConfig())
	s.SetLoopStart(10)
	s.SetLoopEnd(20)
	s.ToggleLoop()

	s.Start(context.Background(), player)
	defer s.Stop()
	s.SetSpeed(200)

	if !s.PollLoop() {
		t.Fatal("expected loop to fire")
	}
	if len(player.seeks) != 1 || player.seeks[0] != 10 {
		t.Errorf("expected seek to 10, got %v", player.seeks)
	}
}

func TestSessionLoopFiring(t *testing.T) {
	player := &fakePlayer{rate: 1}
	s := NewSession("X", nil, testConfig())
	s.SetLoopStart(10)
	s.SetLoopEnd(20)
	if _, ok := s.ToggleLoop(); !ok {
		t.Fatal("expected toggle to succeed")
	}

	s.Start(context.Background(), player)
	defer s.Stop()

	player.setPosition(15)
	if s.PollLoop() {
		t.Error("expected no seek inside the loop")
	}

	player.setPosition(20.1)
	if !s.PollLoop() {
		t.Fatal("expected seek past loop end")
	}
	if len(player.seeks) != 1 || player.seeks[0] != 10 {
		t.Errorf("expected single seek to 10, got %v", player.seeks)
	}
	if player.plays != 2 {
		t.Errorf("expected playback resumed after seek, got %d plays", player.plays)
	}
}

func TestSessionMarksFromPlayerPosition(t *testing.T) {
	player := &fakePlayer{rate: 1, position: 5}
	s := NewSession("X", nil, testConfig())

	if _, ok := s.MarkStart(); ok {
		t.Error("expected mark to fail without a player")
	}

	s.Start(context.Background(), player)
	defer s.Stop()

	s.MarkStart()
	player.setPosition(9)
	loop, ok := s.MarkEnd()
	if !ok {
		t.Fatal("expected mark to succeed")
	}
	if loop.State() != Armed || *loop.Start != 5 || *loop.End != 9 {
		t.Errorf("expected armed loop 5-9, got %+v", loop)
	}
}

func TestSessionLoopIsPersisted(t *testing.T) {
	store := newMemStore()
	s := NewSession("X", store, testConfig())
	s.SetLoopStart(1)
	s.SetLoopEnd(2)
	s.ToggleLoop()

	reloaded := NewSession("X", store, testConfig())
	if got := reloaded.Loop().State(); got != Active {
		t.Errorf("expected active loop after reload, got %s", got)
	}
}

func TestSessionConcurrentStartsReleaseEveryPlayer(t *testing.T) {
	s := NewSession("X", nil, testConfig())

	players := make([]*fakePlayer, 16)
	var wg sync.WaitGroup
	for i := range players {
		players[i] = &fakePlayer{rate: 1}
		wg.Add(1)
		go func(p *fakePlayer) {
			defer wg.Done()
			s.Start(context.Background(), p)
		}(players[i])
	}
	wg.Wait()
	s.Stop()

	if s.Playing() {
		t.Fatal("expected no player after stop")
	}
	for i, p := range players {
		if !p.isDestroyed() {
			t.Errorf("player %d was never destroyed", i)
		}
	}
}

func TestSessionStopReleasesPlayer(t *testing.T) {
	player := &fakePlayer{rate: 1}
	s := NewSession("X", nil, testConfig())
	s.Start(context.Background(), player)

	s.Stop()

	if s.Playing() {
		t.Error("expected session not playing after stop")
	}
	if player.stops != 1 || !player.destroyed {
		t.Errorf("expected stop and destroy, got stops=%d destroyed=%v", player.stops, player.destroyed)
	}

	s.Stop()
	if player.stops != 1 {
		t.Errorf("expected second stop to be a no-op, got %d", player.stops)
	}
}

func TestSessionTickersReassertRateAndPollLoop(t *testing.T) {
	player := &fakePlayer{rate: 1}
	cfg := testConfig()
	cfg.RateInterval = 5 * time.Millisecond
	cfg.LoopInterval = 5 * time.Millisecond

	s := NewSession("X", nil, cfg)
	s.SetLoopStart(10)
	s.SetLoopEnd(20)
	s.ToggleLoop()
	s.SetSpeed(150)

	s.Start(context.Background(), player)
	defer s.Stop()

	// Simulate the player resetting its own rate and running past the loop.
	player.mu.Lock()
	player.rate = 1
	player.position = 25
	player.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		player.mu.Lock()
		done := player.rate == 1.5 && len(player.seeks) > 0
		player.mu.Unlock()
		if done {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected tickers to reassert rate and seek to loop start")
}

func TestSessionStopsWhenContextCancelled(t *testing.T) {
	player := &fakePlayer{rate: 1}
	s := NewSession("X", nil, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx, player)
	cancel()

	s.Stop()
	if !player.destroyed {
		t.Error("expected player destroyed")
	}
}
