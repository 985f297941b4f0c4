package call

import (
	"context"
	"sync"
)

// AudioPlayer starts and stops the looping warning tone. Play may block
// while the platform spins up playback; Stop silences it. Both are
// best-effort: an unsupported platform plugs in NopAudioPlayer.
type AudioPlayer interface {
	Play(ctx context.Context) error
	Stop()
}

// NopAudioPlayer is used when the platform has no audio output.
type NopAudioPlayer struct{}

func (NopAudioPlayer) Play(context.Context) error { return nil }
func (NopAudioPlayer) Stop()                      {}

// warningTone serializes start/stop of the warning sound for one call. A
// stop request issued while a play request is still in flight waits for the
// play to resolve first, so a delayed start can never override the stop.
type warningTone struct {
	player AudioPlayer

	mu       sync.Mutex
	started  bool
	inflight chan struct{}
}

func newWarningTone(player AudioPlayer) *warningTone {
	if player == nil {
		player = NopAudioPlayer{}
	}
	return &warningTone{player: player}
}

// start begins playback exactly once per call instance; repeat calls are
// no-ops.
func (w *warningTone) start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	done := make(chan struct{})
	w.inflight = done
	w.mu.Unlock()

	go func() {
		defer close(done)
		_ = w.player.Play(ctx) // playback errors are not actionable mid-ring
	}()
}

// stop silences the tone. If playback never started it does nothing.
func (w *warningTone) stop() {
	w.mu.Lock()
	started := w.started
	done := w.inflight
	w.mu.Unlock()

	if !started {
		return
	}
	if done != nil {
		<-done
	}
	w.player.Stop()
}
