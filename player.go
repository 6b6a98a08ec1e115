package dx7fm

import (
	"sync"

	"github.com/pkg/errors"

	intaudio "github.com/cbegin/dx7fm-go/internal/audio"
	"github.com/cbegin/dx7fm-go/internal/bank"
	intseq "github.com/cbegin/dx7fm-go/internal/sequencer"
)

const commandQueueSize = 256

// Player plays a Synth on the default audio device. Every call that touches
// the synth is queued and applied by the audio goroutine before it renders
// the next buffer, so the render path never takes a lock.
type Player struct {
	synth *Synth
	cmds  chan func()
	audio *intaudio.Player

	// Owned by the audio goroutine. Live input plays through an empty
	// sequence so reads of any size get whole blocks.
	seq *intseq.Sequencer

	mu   sync.Mutex
	done chan struct{}
}

// NewPlayer wraps s. The output stream is opened by Start.
func NewPlayer(s *Synth) (*Player, error) {
	if s == nil {
		return nil, errors.New("nil synth")
	}
	return &Player{
		synth: s,
		cmds:  make(chan func(), commandQueueSize),
		seq:   intseq.New(nil, s, s.SampleRate()),
	}, nil
}

// Process drains queued commands, then renders. It runs on the audio
// goroutine.
func (p *Player) Process(dst []int16) {
	p.drain()
	p.seq.Process(dst)
	p.synth.post.Process(dst)
}

func (p *Player) drain() {
	for {
		select {
		case fn := <-p.cmds:
			fn()
		default:
			return
		}
	}
}

// Do queues fn to run against the synth on the audio goroutine.
func (p *Player) Do(fn func(s *Synth)) {
	p.cmds <- func() { fn(p.synth) }
}

// Sync runs fn on the audio goroutine and waits for it. The stream must be
// running or Sync blocks forever.
func (p *Player) Sync(fn func(s *Synth)) {
	done := make(chan struct{})
	p.Do(func(s *Synth) {
		fn(s)
		close(done)
	})
	<-done
}

// Send queues one raw MIDI message.
func (p *Player) Send(msg []byte) {
	m := append([]byte(nil), msg...)
	p.Do(func(s *Synth) { s.HandleMIDI(m) })
}

// SetParam queues a host parameter change. Bank paths are loaded here, off
// the audio goroutine, and only the parsed bank is handed over.
func (p *Player) SetParam(key, val string) {
	if param, ok := LookupParam(key); ok && param == ParamBankPath {
		_ = p.LoadBank(val)
		return
	}
	p.Do(func(s *Synth) { s.SetParam(key, val) })
}

// LoadBank parses path on the calling goroutine and queues the swap.
func (p *Player) LoadBank(path string) error {
	b, err := bank.Load(path)
	if err != nil {
		p.Do(func(s *Synth) { s.loadFailed(path, err) })
		return err
	}
	p.Do(func(s *Synth) { s.InstallBank(b) })
	return nil
}

// PlaySMF loads a MIDI file and plays it from the start, replacing any
// sequence already playing. The returned channel closes when playback ends,
// release tails included. With loop set it never closes.
func (p *Player) PlaySMF(path string, loop bool) (<-chan struct{}, error) {
	events, err := intseq.Load(path, p.synth.SampleRate())
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	p.mu.Lock()
	if p.done != nil {
		close(p.done)
	}
	p.done = done
	p.mu.Unlock()

	p.Do(func(s *Synth) {
		s.Router().AllNotesOff()
		p.seq = intseq.NewWithOptions(events, s, s.SampleRate(), intseq.Options{
			Loop:              loop,
			ReleaseTailFrames: s.tailFrames(),
			OnEvent: func(kind intseq.EventKind) {
				if kind == intseq.EventPlaybackEnded {
					p.signalDone(done)
				}
			},
		})
	})
	return done, nil
}

// StopSMF ends the current sequence and releases its notes.
func (p *Player) StopSMF() {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
	p.Do(func(s *Synth) {
		s.Router().AllNotesOff()
		p.seq = intseq.New(nil, s, s.SampleRate())
	})
}

func (p *Player) signalDone(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == done {
		close(done)
		p.done = nil
	}
}

// Start opens the output stream on first use and starts playback.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		backend, err := intaudio.NewPlayer(p.synth.SampleRate(), p)
		if err != nil {
			return err
		}
		p.audio = backend
	}
	p.audio.Play()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a != nil {
		a.Pause()
	}
}

// Stop closes the output stream and releases any waiter.
func (p *Player) Stop() error {
	p.mu.Lock()
	a, done := p.audio, p.done
	p.audio, p.done = nil, nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
	if a == nil {
		return nil
	}
	return a.Stop()
}
