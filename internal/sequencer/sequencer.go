package sequencer

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/dx7fm-go/internal/voice"
)

// Target is the synth a sequencer drives.
type Target interface {
	HandleMIDI(msg []byte)
	Render(out []int16, frames int)
	// ActiveVoices returns the number of voices still sounding, release tails
	// included. Used to detect when playback has fully ended.
	ActiveVoices() int
}

// EventKind identifies sequencer lifecycle events.
type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
)

type Options struct {
	Loop              bool
	OnEvent           func(EventKind)
	ReleaseTailFrames int // frames rendered after the last voice ends (0 = 0.1s)
}

// Sequencer plays frame-stamped MIDI events into a Target. It always renders
// whole blocks and buffers the remainder, so callers may read any number of
// frames. Events are applied at the start of the block containing their
// frame.
type Sequencer struct {
	events     []Event
	pos        int
	end        int64
	frame      int64
	target     Target
	opts       Options
	block      [2 * voice.BlockSize]int16
	offset     int
	avail      int
	tailFrames int
	tailLeft   int
	exhausted  bool
	finished   bool
}

func New(events []Event, target Target, sampleRate int) *Sequencer {
	return NewWithOptions(events, target, sampleRate, Options{})
}

func NewWithOptions(events []Event, target Target, sampleRate int, opts Options) *Sequencer {
	tail := opts.ReleaseTailFrames
	if tail <= 0 {
		tail = sampleRate / 10
	}
	var end int64
	if n := len(events); n > 0 {
		end = events[n-1].Frame
	}
	return &Sequencer{
		events:     events,
		end:        end,
		target:     target,
		opts:       opts,
		tailFrames: tail,
		tailLeft:   tail,
	}
}

// Process fills dst with interleaved stereo samples.
func (s *Sequencer) Process(dst []int16) {
	for i := 0; i+1 < len(dst); {
		if s.avail == 0 {
			s.renderBlock()
		}
		n := min(s.avail, (len(dst)-i)/2)
		copy(dst[i:i+2*n], s.block[2*s.offset:2*(s.offset+n)])
		s.offset += n
		s.avail -= n
		i += 2 * n
	}
}

func (s *Sequencer) renderBlock() {
	s.dispatch()
	s.target.Render(s.block[:], voice.BlockSize)
	s.frame += voice.BlockSize
	s.offset = 0
	s.avail = voice.BlockSize
	s.checkEnd()
}

func (s *Sequencer) dispatch() {
	limit := s.frame + voice.BlockSize
	for s.pos < len(s.events) && s.events[s.pos].Frame < limit {
		s.target.HandleMIDI(s.events[s.pos].Message)
		s.pos++
	}
	if s.pos == len(s.events) {
		s.exhausted = true
	}
}

func (s *Sequencer) checkEnd() {
	if !s.exhausted || s.finished {
		return
	}
	if s.opts.Loop && s.end > 0 {
		if s.frame < s.end {
			return
		}
		s.target.HandleMIDI(midi.ControlChange(0, 123, 0))
		s.pos = 0
		s.frame = 0
		s.exhausted = false
		s.emit(EventLoopCompleted)
		return
	}
	if s.target.ActiveVoices() > 0 {
		s.tailLeft = s.tailFrames
		return
	}
	s.tailLeft -= voice.BlockSize
	if s.tailLeft <= 0 {
		s.finished = true
		s.emit(EventPlaybackEnded)
	}
}

func (s *Sequencer) emit(kind EventKind) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(kind)
	}
}

// Finished reports whether non-looping playback has ended, release tails
// included.
func (s *Sequencer) Finished() bool { return s.finished }

// Frame returns the number of frames rendered since the start or the last
// loop.
func (s *Sequencer) Frame() int64 { return s.frame }

// Length returns the frame of the last event.
func (s *Sequencer) Length() int64 { return s.end }
