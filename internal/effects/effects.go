package effects

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Settings are wet amounts from 0 to 1. Zero leaves an effect out.
type Settings struct {
	Chorus  float32 `yaml:"chorus"`
	Delay   float32 `yaml:"delay"`
	DelayMs float64 `yaml:"delay_ms"`
	Reverb  float32 `yaml:"reverb"`
}

const defaultDelayMs = 320

func (s Settings) Enabled() bool {
	return s.Chorus > 0 || s.Delay > 0 || s.Reverb > 0
}

// Chain runs effects in order over interleaved 16-bit stereo. A nil *Chain
// passes audio through.
type Chain struct {
	effects []Effector
}

// NewChain builds chorus, delay and reverb in that order from s. It returns
// nil when nothing is enabled.
func NewChain(sampleRate int, s Settings) *Chain {
	if !s.Enabled() {
		return nil
	}
	c := &Chain{}
	if s.Chorus > 0 {
		c.effects = append(c.effects, NewChorus(sampleRate, s.Chorus))
	}
	if s.Delay > 0 {
		ms := s.DelayMs
		if ms <= 0 {
			ms = defaultDelayMs
		}
		c.effects = append(c.effects, NewDelay(sampleRate, ms, 0.35, s.Delay))
	}
	if s.Reverb > 0 {
		c.effects = append(c.effects, NewReverb(sampleRate, s.Reverb))
	}
	return c
}

func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.effects)
}

// Process filters buf in place.
func (c *Chain) Process(buf []int16) {
	if c == nil {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		l := float32(buf[i]) / 32768
		r := float32(buf[i+1]) / 32768
		for _, e := range c.effects {
			l, r = e.Process(l, r)
		}
		buf[i] = toInt16(l)
		buf[i+1] = toInt16(r)
	}
}

func (c *Chain) Reset() {
	if c == nil {
		return
	}
	for _, e := range c.effects {
		e.Reset()
	}
}

func toInt16(v float32) int16 {
	v *= 32768
	if v >= 32767 {
		return 32767
	}
	if v <= -32768 {
		return -32768
	}
	return int16(v)
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
