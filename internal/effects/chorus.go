package effects

import "math"

const (
	chorusBaseMs  = 12
	chorusDepthMs = 3
	chorusRateHz  = 0.8
)

// Chorus is a stereo chorus: one delay line read by two taps whose delay is
// swept in quadrature, so a mono voice comes out wide.
type Chorus struct {
	buf   []float32
	pos   int
	base  float64
	depth float64
	rate  float64
	phase float64
	wet   float32
}

func NewChorus(sampleRate int, wet float32) *Chorus {
	base := chorusBaseMs * float64(sampleRate) / 1000
	depth := chorusDepthMs * float64(sampleRate) / 1000
	return &Chorus{
		buf:   make([]float32, int(base+depth)+2),
		base:  base,
		depth: depth,
		rate:  2 * math.Pi * chorusRateHz / float64(sampleRate),
		wet:   clamp(wet, 0, 1),
	}
}

func (c *Chorus) tap(delay float64) float32 {
	n := len(c.buf)
	pos := float64(c.pos) - delay
	for pos < 0 {
		pos += float64(n)
	}
	i := int(pos)
	frac := float32(pos - float64(i))
	j := i + 1
	if j >= n {
		j = 0
	}
	return c.buf[i]*(1-frac) + c.buf[j]*frac
}

func (c *Chorus) Process(l, r float32) (float32, float32) {
	c.buf[c.pos] = (l + r) * 0.5
	tl := c.tap(c.base + c.depth*math.Sin(c.phase))
	tr := c.tap(c.base + c.depth*math.Cos(c.phase))
	c.phase += c.rate
	if c.phase > 2*math.Pi {
		c.phase -= 2 * math.Pi
	}
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return l*(1-c.wet) + tl*c.wet, r*(1-c.wet) + tr*c.wet
}

func (c *Chorus) Reset() {
	clear(c.buf)
	c.pos = 0
	c.phase = 0
}
