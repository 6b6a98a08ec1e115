package controllers

// PitchBendCenter is the 14-bit pitch bend rest position.
const PitchBendCenter = 0x2000

// ModSource routes one performance controller to pitch, amplitude and/or
// envelope-bias modulation. Range is 0-99.
type ModSource struct {
	Range int
	Pitch bool
	Amp   bool
	EG    bool
}

func (m ModSource) apply(cc int, c *Controllers) {
	total := cc * m.Range / 100
	if m.Amp && total > c.AmpMod {
		c.AmpMod = total
	}
	if m.Pitch && total > c.PitchMod {
		c.PitchMod = total
	}
	if m.EG && total > c.EGMod {
		c.EGMod = total
	}
}

// Controllers is the performance state shared by every voice of an
// instance. Only the event router writes it; voices read it during compute.
type Controllers struct {
	PitchBend      int // 14-bit
	PitchRangeUp   int // semitones
	PitchRangeDown int
	PitchStep      int // 0 = continuous

	ModWheel   int
	Breath     int
	Foot       int
	Aftertouch int

	Sustain bool

	Portamento       int // glide time 0-99
	PortamentoEnable bool
	PortamentoGliss  bool

	MasterTune int // cents

	Wheel         ModSource
	BreathSource  ModSource
	FootSource    ModSource
	AftertouchSrc ModSource

	// Derived by Refresh.
	AmpMod   int
	PitchMod int
	EGMod    int
}

// Default returns controllers with the bend wheel centered, a two semitone
// bend range and DX7-style routing: wheel and aftertouch modulate pitch and
// amplitude, breath modulates amplitude, foot is unrouted.
func Default() Controllers {
	c := Controllers{
		PitchBend:      PitchBendCenter,
		PitchRangeUp:   2,
		PitchRangeDown: 2,
		Wheel:          ModSource{Range: 99, Pitch: true, Amp: true},
		AftertouchSrc:  ModSource{Range: 99, Pitch: true, Amp: true},
		BreathSource:   ModSource{Range: 99, Amp: true},
		FootSource:     ModSource{Range: 99},
	}
	c.Refresh()
	return c
}

// Refresh recomputes AmpMod, PitchMod and EGMod from the raw controller
// values. EGMod rests at 127 when no source is routed to the envelope.
func (c *Controllers) Refresh() {
	c.AmpMod, c.PitchMod, c.EGMod = 0, 0, 0
	c.Wheel.apply(c.ModWheel, c)
	c.BreathSource.apply(c.Breath, c)
	c.FootSource.apply(c.Foot, c)
	c.AftertouchSrc.apply(c.Aftertouch, c)
	if !(c.Wheel.EG || c.FootSource.EG || c.BreathSource.EG || c.AftertouchSrc.EG) {
		c.EGMod = 127
	}
}

// BendSemitones converts the 14-bit bend into semitones using the configured
// ranges, quantized to PitchStep when it is set.
func (c *Controllers) BendSemitones() float64 {
	d := c.PitchBend - PitchBendCenter
	var semis float64
	if d >= 0 {
		semis = float64(d) / 8191 * float64(c.PitchRangeUp)
	} else {
		semis = float64(d) / 8192 * float64(c.PitchRangeDown)
	}
	if c.PitchStep > 0 {
		step := float64(c.PitchStep)
		semis = float64(int(semis/step)) * step
	}
	return semis
}
