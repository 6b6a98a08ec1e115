package sequencer

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

type nullTarget struct{}

func (nullTarget) HandleMIDI([]byte) {}
func (nullTarget) Render(out []int16, n int) {}
func (nullTarget) ActiveVoices() int { return 0 }

func BenchmarkSequencerProcess(b *testing.B) {
	var events []Event
	for i := 0; i < 64; i++ {
		f := int64(i) * 700
		events = append(events,
			Event{Frame: f, Message: midi.NoteOn(0, uint8(48+i%24), 100)},
			Event{Frame: f + 600, Message: midi.NoteOff(0, uint8(48+i%24))})
	}
	buf := make([]int16, 2048*2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		seq := New(events, nullTarget{}, 48000)
		seq.Process(buf)
	}
}
