package effects

// Delay is a ping-pong echo: each repeat crosses to the other side.
type Delay struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
	wet        float32
}

func NewDelay(sampleRate int, delayMs float64, feedback, wet float32) *Delay {
	n := max(1, int(delayMs*float64(sampleRate)/1000))
	return &Delay{
		bufL:     make([]float32, n),
		bufR:     make([]float32, n),
		feedback: clamp(feedback, 0, 0.9),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	dl, dr := d.bufL[d.pos], d.bufR[d.pos]
	d.bufL[d.pos] = (l+r)*0.5 + dr*d.feedback
	d.bufR[d.pos] = dl * d.feedback
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l + dl*d.wet, r + dr*d.wet
}

func (d *Delay) Reset() {
	clear(d.bufL)
	clear(d.bufR)
	d.pos = 0
}
