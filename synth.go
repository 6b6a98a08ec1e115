package dx7fm

import (
	"log/slog"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/dx7fm-go/internal/bank"
	"github.com/cbegin/dx7fm-go/internal/controllers"
	"github.com/cbegin/dx7fm-go/internal/effects"
	"github.com/cbegin/dx7fm-go/internal/fm"
	"github.com/cbegin/dx7fm-go/internal/lfo"
	"github.com/cbegin/dx7fm-go/internal/patch"
	"github.com/cbegin/dx7fm-go/internal/render"
	"github.com/cbegin/dx7fm-go/internal/router"
	"github.com/cbegin/dx7fm-go/internal/voice"
)

const (
	// DefaultSampleRate is the rate the synth renders at unless configured.
	DefaultSampleRate = 44100
	// Polyphony is the fixed number of voices.
	Polyphony = voice.MaxVoices
)

type Option func(*synthConfig)

type synthConfig struct {
	sampleRate int
	logger     *slog.Logger
	engine     voice.Factory
	config     *Config
}

// WithSampleRate sets the render sample rate.
func WithSampleRate(sampleRate int) Option {
	return func(c *synthConfig) {
		if sampleRate > 0 {
			c.sampleRate = sampleRate
		}
	}
}

// WithLogger sets the logger for load and preset events. The default
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *synthConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEngine replaces the FM voice with another voice.Engine.
func WithEngine(f voice.Factory) Option {
	return func(c *synthConfig) {
		c.engine = f
	}
}

// WithConfig applies startup defaults: the bank is loaded from
// cfg.BankPath() and the preset, octave and level fields are applied.
func WithConfig(cfg Config) Option {
	return func(c *synthConfig) {
		c.config = &cfg
	}
}

// Synth is one instance: a preset bank, a voice pool and everything that
// drives it. Event, parameter and render calls must come from one goroutine
// or be serialized by the caller; Player does that for live use.
type Synth struct {
	sampleRate int
	logger     *slog.Logger

	bank     atomic.Pointer[bank.Bank]
	current  patch.Patch
	preset   int
	name     string
	bankPath string
	lastErr  string

	ctrls    controllers.Controllers
	lfo      *lfo.LFO
	pool     *voice.Pool
	router   *router.Router
	renderer *render.Renderer

	// Applied by Player and the offline renderers, never by Render.
	post *effects.Chain
}

// New returns a synth holding the built-in Init bank, unless a config
// option names a bank file.
func New(opts ...Option) *Synth {
	cfg := synthConfig{sampleRate: DefaultSampleRate, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.engine == nil {
		cfg.engine = fm.Factory(cfg.sampleRate)
	}
	s := &Synth{
		sampleRate: cfg.sampleRate,
		logger:     cfg.logger,
		ctrls:      controllers.Default(),
		lfo:        lfo.New(cfg.sampleRate),
	}
	s.pool = voice.NewPool(cfg.engine, &s.ctrls, s.lfo)
	s.router = router.New(s.pool, &s.ctrls, &s.current, s)
	s.renderer = render.New(s.pool, s.lfo, &s.ctrls)
	s.bank.Store(bank.Default())
	s.SelectPreset(0)
	if cfg.config != nil {
		s.applyConfig(*cfg.config)
	}
	return s
}

func (s *Synth) applyConfig(c Config) {
	if path := c.BankPath(); path != "" {
		_ = s.LoadBank(path)
	}
	if c.Preset != nil {
		s.SelectPreset(*c.Preset)
	}
	s.router.SetOctave(c.OctaveTranspose)
	s.post = effects.NewChain(s.sampleRate, c.Effects)
	if c.OutputLevel != nil {
		s.renderer.SetOutputLevel(*c.OutputLevel)
	}
}

func (s *Synth) SampleRate() int { return s.sampleRate }

// LoadBank reads and installs a bank file. On failure the current bank,
// preset and patch are kept, the error is logged and LastError reports it.
func (s *Synth) LoadBank(path string) error {
	b, err := bank.Load(path)
	if err != nil {
		s.loadFailed(path, err)
		return err
	}
	s.InstallBank(b)
	return nil
}

func (s *Synth) loadFailed(path string, err error) {
	s.lastErr = err.Error()
	s.logger.Error("bank load failed", "path", path, "err", err)
}

// InstallBank swaps in an already parsed bank and selects its first preset.
func (s *Synth) InstallBank(b *bank.Bank) {
	s.bank.Store(b)
	s.bankPath = b.Path()
	s.lastErr = ""
	s.logger.Info("bank loaded", "path", b.Path(), "presets", b.Len())
	s.SelectPreset(0)
}

// Bank returns the installed bank. It is never nil.
func (s *Synth) Bank() *bank.Bank { return s.bank.Load() }

// SelectPreset makes preset index the patch for new notes. Indexes wrap:
// negative selects the last preset, past-the-end the first. Sounding voices
// are not touched. The shared LFO is reset from the new patch.
func (s *Synth) SelectPreset(index int) {
	b := s.bank.Load()
	index = b.Wrap(index)
	p := b.Preset(index)
	s.current = p.Patch
	s.preset = index
	s.name = p.Name
	s.lfo.Reset(s.current.LFOParams())
	s.logger.Info("preset selected", "preset", index, "name", p.Name, "alg", s.current.Algorithm()+1)
}

// HandleMIDI routes one raw MIDI message. Messages shorter than two bytes
// are ignored.
func (s *Synth) HandleMIDI(msg []byte) {
	if len(msg) < 2 {
		return
	}
	s.router.Handle(midi.Message(msg))
}

// Router gives typed access to note and controller events.
func (s *Synth) Router() *router.Router { return s.router }

// Render writes frames interleaved stereo frames into out.
func (s *Synth) Render(out []int16, frames int) {
	s.renderer.Render(out, frames)
}

// Effects returns the post-mix chain, nil when no effect is configured.
func (s *Synth) Effects() *effects.Chain { return s.post }

// ActiveVoices returns the number of voices sounding after the last block.
func (s *Synth) ActiveVoices() int { return s.renderer.ActiveVoices() }

// LastError returns the last bank load error, or "" after a successful load.
func (s *Synth) LastError() string { return s.lastErr }

func (s *Synth) Preset() int       { return s.preset }
func (s *Synth) PatchName() string { return s.name }
func (s *Synth) BankPath() string  { return s.bankPath }

// Patch returns a copy of the patch used for new notes.
func (s *Synth) Patch() patch.Patch { return s.current }
