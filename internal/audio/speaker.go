package audio

import (
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const speakerBuffer = 100 * time.Millisecond

// SpeakerLock exposes the speaker's mixer lock as a sync.Locker, for players
// mixed by the speaker.
type SpeakerLock struct{}

func (SpeakerLock) Lock()   { speaker.Lock() }
func (SpeakerLock) Unlock() { speaker.Unlock() }

// StartSpeaker opens the audio device at rate and mixes p into it.
func StartSpeaker(rate beep.SampleRate, p *Player) error {
	if err := speaker.Init(rate, rate.N(speakerBuffer)); err != nil {
		return err
	}
	speaker.Play(p)
	return nil
}

func CloseSpeaker() {
	speaker.Clear()
	speaker.Close()
}
