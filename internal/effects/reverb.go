package effects

// Comb lengths in samples at 44.1 kHz, scaled to the actual rate. The right
// channel is offset by a few samples to decorrelate it from the left.
var (
	combTuning    = [4]int{1116, 1277, 1422, 1557}
	allpassTuning = [2]int{556, 341}
)

const (
	stereoSpread = 23
	reverbDecay  = 0.8
	reverbDamp   = 0.25
)

// Reverb is a small Schroeder reverb with damped combs, one set per side.
type Reverb struct {
	combs   [2][4]comb
	allpass [2][2]allpass
	wet     float32
}

type comb struct {
	buf    []float32
	pos    int
	fb     float32
	damp   float32
	filter float32
}

type allpass struct {
	buf []float32
	pos int
}

func NewReverb(sampleRate int, wet float32) *Reverb {
	scale := float64(sampleRate) / 44100
	r := &Reverb{wet: clamp(wet, 0, 1)}
	for side := 0; side < 2; side++ {
		for i, n := range combTuning {
			r.combs[side][i] = comb{
				buf:  make([]float32, max(1, int(float64(n+side*stereoSpread)*scale))),
				fb:   reverbDecay,
				damp: reverbDamp,
			}
		}
		for i, n := range allpassTuning {
			r.allpass[side][i] = allpass{buf: make([]float32, max(1, int(float64(n+side*stereoSpread)*scale)))}
		}
	}
	return r
}

func (r *Reverb) Process(l, rt float32) (float32, float32) {
	in := (l + rt) * 0.25
	var out [2]float32
	for side := range out {
		for i := range r.combs[side] {
			out[side] += r.combs[side][i].process(in)
		}
		for i := range r.allpass[side] {
			out[side] = r.allpass[side][i].process(out[side])
		}
	}
	return l*(1-r.wet) + out[0]*r.wet, rt*(1-r.wet) + out[1]*r.wet
}

func (r *Reverb) Reset() {
	for side := range r.combs {
		for i := range r.combs[side] {
			clear(r.combs[side][i].buf)
			r.combs[side][i].pos = 0
			r.combs[side][i].filter = 0
		}
		for i := range r.allpass[side] {
			clear(r.allpass[side][i].buf)
			r.allpass[side][i].pos = 0
		}
	}
}

func (c *comb) process(in float32) float32 {
	out := c.buf[c.pos]
	c.filter = out*(1-c.damp) + c.filter*c.damp
	c.buf[c.pos] = in + c.filter*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpass) process(in float32) float32 {
	delayed := a.buf[a.pos]
	out := delayed - in
	a.buf[a.pos] = in + delayed*0.5
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}
