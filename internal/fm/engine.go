package fm

import (
	"math"

	"github.com/cbegin/dx7fm-go/internal/controllers"
	"github.com/cbegin/dx7fm-go/internal/patch"
	"github.com/cbegin/dx7fm-go/internal/voice"
)

const (
	twoPi  = math.Pi * 2
	numOps = patch.NumOperators

	// CarrierScale is the full-scale amplitude of one carrier in the int32
	// mix buffer. 16 voices of 6 carriers stay inside int32.
	CarrierScale = 1 << 24

	lfoFull = 1 << 24

	// modIndex is the phase deviation, in radians, of a full-level modulator.
	modIndex    = twoPi
	dbPerStep   = 0.75
	detuneCents = 1.5
	velocityDB  = 24.0
)

var (
	// Pitch depth in semitones at full depth for PMS 0-7.
	pmsSemitones = [8]float64{0, 0.08, 0.16, 0.3, 0.55, 1.0, 2.0, 4.0}
	// Amplitude depth in dB at full depth for AMS 0-3.
	amsDB = [4]float64{0, 3, 10, 24}
)

var _ voice.Engine = (*Voice)(nil)
var _ voice.Resetter = (*Voice)(nil)

type operator struct {
	env      envelope
	phase    float64
	inc      float64
	ratio    float64 // multiple of the note frequency
	fixedHz  float64 // used instead of ratio when non-zero
	outLevel float64 // output level after keyboard scaling, level units
	velAtt   float64 // dB
	ams      int
	gain     float64
	lastGain float64
}

// Voice is one six-operator DX7-style FM voice.
type Voice struct {
	sampleRate   float64
	blockSec     float64
	ops          [numOps]operator
	pitchEnv     envelope
	algo         *algorithm
	fbAmount     float64
	fb1, fb2     float64
	pitchModSens int
	pitchDepth   float64 // patch LFO pitch depth 0-99
	ampDepth     float64

	pitch     float64 // current note pitch in semitones, transpose applied
	target    float64
	glideStep float64 // semitones per block, 0 = no glide
	hasPitch  bool
	gliss     bool
}

// New returns a silent voice rendering at sampleRate.
func New(sampleRate int) *Voice {
	v := &Voice{sampleRate: float64(sampleRate)}
	v.Reset()
	return v
}

// Factory returns a voice.Factory producing voices at sampleRate.
func Factory(sampleRate int) voice.Factory {
	return func() voice.Engine { return New(sampleRate) }
}

// Reset returns the voice to its freshly constructed state.
func (v *Voice) Reset() {
	sr := v.sampleRate
	if sr <= 0 {
		sr = 44100
	}
	*v = Voice{sampleRate: sr, blockSec: voice.BlockSize / sr, algo: &algorithms[0]}
	for i := range v.ops {
		v.ops[i].env.stage = envDone
	}
	v.pitchEnv.stage = envDone
	v.pitchEnv.level = 50
}

// Init starts note from p. Envelopes restart from zero, so a stolen voice
// drops whatever it was playing.
func (v *Voice) Init(p *patch.Patch, note, velocity int, c *controllers.Controllers) {
	note = clampInt(note, 0, 127)
	velocity = clampInt(velocity, 0, 127)

	v.algo = &algorithms[p.Algorithm()]
	v.fbAmount = feedbackAmount(int(p[patch.Feedback] & 7))
	v.fb1, v.fb2 = 0, 0
	v.pitchModSens = int(p[patch.PitchModSens] & 7)
	v.pitchDepth = float64(min(p[patch.LFOPitchDepth], 99))
	v.ampDepth = float64(min(p[patch.LFOAmpDepth], 99))

	target := float64(note + int(p[patch.Transpose]) - 24)
	v.startGlide(target, c)

	var pr, pl [4]byte
	copy(pr[:], p[patch.PitchRate1:patch.PitchRate1+4])
	copy(pl[:], p[patch.PitchLevel1:patch.PitchLevel1+4])
	v.pitchEnv.init(pr, pl, 0, float64(pl[3]), v.blockSec)

	sync := p[patch.OscSync] != 0
	for i := range v.ops {
		v.initOperator(&v.ops[i], p, i, note, velocity, sync)
	}
}

func (v *Voice) startGlide(target float64, c *controllers.Controllers) {
	v.target = target
	v.glideStep = 0
	v.gliss = c.PortamentoGliss
	if !v.hasPitch || !c.PortamentoEnable || c.Portamento <= 0 || v.pitch == target {
		v.pitch = target
		v.hasPitch = true
		return
	}
	// Glide time grows to about two seconds per octave at 99.
	secsPerOctave := float64(c.Portamento) / 99 * 2
	v.glideStep = 12 * v.blockSec / secsPerOctave
}

func (v *Voice) initOperator(o *operator, p *patch.Patch, op, note, velocity int, sync bool) {
	var rates, levels [4]byte
	for k := 0; k < 4; k++ {
		rates[k] = min(p.Op(op, patch.OpRate1+k), 99)
		levels[k] = min(p.Op(op, patch.OpLevel1+k), 99)
	}
	rs := int(p.Op(op, patch.OpRateScaling) & 7)
	x := clampInt(note-21, 0, 127)/3 - 7
	rateAdj := float64(rs*x) / 8 * 64 / 41
	o.env.init(rates, levels, rateAdj, 0, v.blockSec)

	scale := keyboardScale(note,
		int(p.Op(op, patch.OpBreakpoint)),
		int(p.Op(op, patch.OpLeftDepth)), int(p.Op(op, patch.OpRightDepth)),
		int(p.Op(op, patch.OpLeftCurve)&3), int(p.Op(op, patch.OpRightCurve)&3))
	o.outLevel = clamp(float64(min(p.Op(op, patch.OpOutputLevel), 99))+scale, 0, 127)

	kvs := float64(p.Op(op, patch.OpKeyVelSens) & 7)
	o.velAtt = kvs / 7 * velocityDB * float64(127-velocity) / 127
	o.ams = int(p.Op(op, patch.OpAmpModSens) & 3)

	coarse := int(p.Op(op, patch.OpFreqCoarse) & 31)
	fine := float64(min(p.Op(op, patch.OpFreqFine), 99))
	detune := float64(int(min(p.Op(op, patch.OpDetune), 14)) - 7)
	if p.Op(op, patch.OpOscMode)&1 == 1 {
		o.fixedHz = math.Pow(10, float64(coarse&3)) * math.Pow(10, fine/100)
		o.ratio = 0
	} else {
		ratio := float64(coarse)
		if coarse == 0 {
			ratio = 0.5
		}
		o.ratio = ratio * (1 + fine/100) * math.Exp2(detune*detuneCents/1200)
		o.fixedHz = 0
	}
	if sync {
		o.phase = 0
	}
	o.gain, o.lastGain = 0, 0
}

// KeyUp moves every envelope to its release stage.
func (v *Voice) KeyUp() {
	for i := range v.ops {
		v.ops[i].env.keyUp()
	}
	v.pitchEnv.keyUp()
}

// IsPlaying reports whether any operator envelope is still running.
func (v *Voice) IsPlaying() bool {
	for i := range v.ops {
		if v.ops[i].env.active() {
			return true
		}
	}
	return false
}

// Compute adds one block of output to buf. It does not allocate.
func (v *Voice) Compute(buf []int32, lfoVal, lfoDelay int32, c *controllers.Controllers) {
	if !v.IsPlaying() {
		return
	}
	v.stepPitch()
	v.pitchEnv.step()

	lfoUni := float64(lfoVal) / lfoFull
	delay := float64(lfoDelay) / lfoFull

	pmd := math.Min(v.pitchDepth*delay+float64(c.PitchMod), 127)
	semis := v.currentPitch() + pitchEnvSemitones(v.pitchEnv.level) + c.BendSemitones() +
		float64(c.MasterTune)/100 + (2*lfoUni-1)*pmsSemitones[v.pitchModSens]*pmd/99
	base := midiToFreq(semis)

	amd := math.Min(v.ampDepth*delay+float64(c.AmpMod), 127)
	egBias := float64(127-clampInt(c.EGMod, 0, 127)) / 127

	for i := range v.ops {
		o := &v.ops[i]
		o.env.step()
		freq := o.fixedHz
		if freq == 0 {
			freq = base * o.ratio
		}
		o.inc = twoPi * freq / v.sampleRate
		o.lastGain = o.gain
		att := (99-o.outLevel)*dbPerStep + (99-o.env.level)*dbPerStep + o.velAtt
		att += amsDB[o.ams] * (amd/99*lfoUni + egBias)
		if o.env.level <= 0 || o.outLevel <= 0 {
			o.gain = 0
		} else {
			o.gain = math.Pow(10, -att/20)
		}
	}

	a := v.algo
	fbOp := a.feedback
	n := min(len(buf), voice.BlockSize)
	for s := 0; s < n; s++ {
		t := float64(s+1) / voice.BlockSize
		var out [numOps]float64
		var sum float64
		for op := numOps - 1; op >= 0; op-- {
			o := &v.ops[op]
			var mod float64
			if m := a.mods[op]; m != 0 {
				for src := op + 1; src < numOps; src++ {
					if m&(1<<src) != 0 {
						mod += out[src]
					}
				}
			}
			phase := o.phase + mod*modIndex
			if op == fbOp {
				phase += v.fbAmount * (v.fb1 + v.fb2) / 2
			}
			g := o.lastGain + (o.gain-o.lastGain)*t
			y := math.Sin(phase) * g
			out[op] = y
			if op == fbOp {
				v.fb2 = v.fb1
				v.fb1 = y
			}
			o.phase += o.inc
			if o.phase >= twoPi {
				o.phase = math.Mod(o.phase, twoPi)
			}
			if a.carriers&(1<<op) != 0 {
				sum += y
			}
		}
		buf[s] += int32(sum * CarrierScale)
	}
}

func (v *Voice) stepPitch() {
	if v.glideStep == 0 {
		return
	}
	if v.pitch < v.target {
		v.pitch = math.Min(v.pitch+v.glideStep, v.target)
	} else {
		v.pitch = math.Max(v.pitch-v.glideStep, v.target)
	}
	if v.pitch == v.target {
		v.glideStep = 0
	}
}

func (v *Voice) currentPitch() float64 {
	if v.gliss && v.glideStep != 0 {
		return math.Round(v.pitch)
	}
	return v.pitch
}

// pitchEnvSemitones maps a pitch envelope level (50 = no shift) to semitones,
// spanning four octaves either way.
func pitchEnvSemitones(level float64) float64 {
	return (level - 50) * 48 / 50
}

func feedbackAmount(fb int) float64 {
	if fb == 0 {
		return 0
	}
	return math.Pi * math.Exp2(float64(fb-7))
}

// keyboardScale returns the output level offset, in level units, for note
// relative to the breakpoint. Curves: 0 -LIN, 1 -EXP, 2 +EXP, 3 +LIN.
func keyboardScale(note, breakpoint, leftDepth, rightDepth, leftCurve, rightCurve int) float64 {
	split := note - (breakpoint + 21)
	var group, depth, curve int
	if split >= 0 {
		group = (split + 2) / 3
		depth = rightDepth
		curve = rightCurve
	} else {
		group = (-split + 1) / 3
		depth = leftDepth
		curve = leftCurve
	}
	var amt float64
	if curve == 0 || curve == 3 {
		amt = float64(depth*group) / 24
	} else {
		amt = float64(depth) * (math.Exp2(float64(group)/6) - 1) / 15
	}
	amt = math.Min(amt, 127)
	if curve < 2 {
		return -amt
	}
	return amt
}

func midiToFreq(note float64) float64 {
	return 440.0 * math.Pow(2, (note-69)/12)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
