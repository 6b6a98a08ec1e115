package router

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/dx7fm-go/internal/controllers"
	"github.com/cbegin/dx7fm-go/internal/patch"
	"github.com/cbegin/dx7fm-go/internal/voice"
)

// Octave transpose limits.
const (
	MinOctave = -4
	MaxOctave = 4
)

// Controller numbers handled by ControlChange.
const (
	CCModWheel       = 1
	CCBreath         = 2
	CCFoot           = 4
	CCPortamentoTime = 5
	CCSustain        = 64
	CCPortamento     = 65
	CCAllSoundOff    = 120
	CCAllNotesOff    = 123
)

// PresetSelector receives program changes.
type PresetSelector interface {
	SelectPreset(index int)
}

// Router maps note, pedal and controller events onto the voice pool and the
// shared controller state. It is not safe for concurrent use; callers
// serialize it with rendering.
type Router struct {
	pool    *voice.Pool
	ctrls   *controllers.Controllers
	current *patch.Patch
	presets PresetSelector
	octave  int
}

// New returns a router. current is read at every note-on, so replacing the
// patch it points to only affects notes started afterwards. presets may be
// nil, in which case program changes are ignored.
func New(pool *voice.Pool, ctrls *controllers.Controllers, current *patch.Patch, presets PresetSelector) *Router {
	return &Router{pool: pool, ctrls: ctrls, current: current, presets: presets}
}

// SetOctave sets the octave transpose, clamped to [MinOctave, MaxOctave].
func (r *Router) SetOctave(octave int) {
	r.octave = max(MinOctave, min(octave, MaxOctave))
}

func (r *Router) Octave() int { return r.octave }

func (r *Router) transpose(note int) int {
	return max(0, min(note+r.octave*12, 127))
}

// NoteOn starts a note. Velocity 0 is a note-off.
func (r *Router) NoteOn(note, velocity int) {
	if velocity <= 0 {
		r.NoteOff(note)
		return
	}
	r.pool.NoteOn(r.transpose(note), min(velocity, 127), r.current)
}

// NoteOff releases a note, or marks it sustained while the pedal is down.
func (r *Router) NoteOff(note int) {
	r.pool.NoteOff(r.transpose(note))
}

// SetSustain moves the pedal. Lifting it releases every sustained slot.
func (r *Router) SetSustain(down bool) {
	r.ctrls.Sustain = down
	if !down {
		r.pool.ReleaseSustained()
	}
}

// AllNotesOff keys up every active slot and lifts the pedal. Release tails
// keep playing.
func (r *Router) AllNotesOff() {
	r.ctrls.Sustain = false
	r.pool.AllNotesOff()
}

// Panic silences everything immediately and lifts the pedal.
func (r *Router) Panic() {
	r.ctrls.Sustain = false
	r.pool.Panic()
}

// PitchBend sets the 14-bit bend value.
func (r *Router) PitchBend(value int) {
	r.ctrls.PitchBend = max(0, min(value, 0x3fff))
}

// Aftertouch sets channel pressure.
func (r *Router) Aftertouch(pressure int) {
	r.ctrls.Aftertouch = clamp7(pressure)
	r.ctrls.Refresh()
}

// ControlChange handles the controllers listed above; others are ignored.
func (r *Router) ControlChange(cc, value int) {
	value = clamp7(value)
	switch cc {
	case CCModWheel:
		r.ctrls.ModWheel = value
		r.ctrls.Refresh()
	case CCBreath:
		r.ctrls.Breath = value
		r.ctrls.Refresh()
	case CCFoot:
		r.ctrls.Foot = value
		r.ctrls.Refresh()
	case CCPortamentoTime:
		r.ctrls.Portamento = value * 99 / 127
	case CCSustain:
		r.SetSustain(value >= 64)
	case CCPortamento:
		r.ctrls.PortamentoEnable = value >= 64
	case CCAllSoundOff:
		r.Panic()
	case CCAllNotesOff:
		r.AllNotesOff()
	}
}

// Handle decodes one MIDI message. Channels are ignored.
func (r *Router) Handle(msg midi.Message) {
	var ch, key, vel, cc, val, prog uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		r.NoteOn(int(key), int(vel))
	case msg.GetNoteEnd(&ch, &key):
		r.NoteOff(int(key))
	case msg.GetControlChange(&ch, &cc, &val):
		r.ControlChange(int(cc), int(val))
	case msg.GetPitchBend(&ch, &rel, &abs):
		r.PitchBend(int(abs))
	case msg.GetAfterTouch(&ch, &val):
		r.Aftertouch(int(val))
	case msg.GetPolyAfterTouch(&ch, &key, &val):
		// Treated as channel pressure.
		r.Aftertouch(int(val))
	case msg.GetProgramChange(&ch, &prog):
		if r.presets != nil {
			r.presets.SelectPreset(int(prog))
		}
	}
}

func clamp7(v int) int {
	return max(0, min(v, 127))
}
