package lfo

import (
	"math"

	"github.com/cbegin/dx7fm-go/internal/voice"
)

// Waveform constants matching the patch LFO wave field.
const (
	WaveTriangle = iota
	WaveSawDown
	WaveSawUp
	WaveSquare
	WaveSine
	WaveSampleHold
)

// Full is the Q24 full-scale value returned by Sample and Delay.
const Full = 1 << 24

// LFO is the single low-frequency oscillator shared by every voice of an
// instance. It advances once per render block, not per voice.
type LFO struct {
	unit      uint32 // phase increment per block per speed unit
	phase     uint32
	delta     uint32
	waveform  int
	sync      bool
	delay     uint32
	delayInc  uint32
	delayInc2 uint32
	randState uint32
}

// New returns an LFO stepping once per voice.BlockSize samples at sampleRate.
func New(sampleRate int) *LFO {
	// One speed unit is 2^32 / 15.5s / 11, scaled to a whole block.
	unit := uint32(float64(voice.BlockSize)*25190424/float64(sampleRate) + 0.5)
	return &LFO{unit: unit, randState: 0}
}

// Reset loads speed, delay, pitch depth, amp depth, sync and wave from a
// patch. Only speed, delay, sync and wave affect the oscillator itself.
func (l *LFO) Reset(params [6]byte) {
	rate := int(params[0])
	sr := 1
	if rate != 0 {
		sr = (165 * rate) >> 6
	}
	if sr < 160 {
		sr *= 11
	} else {
		sr *= 11 + ((sr - 160) >> 4)
	}
	l.delta = l.unit * uint32(sr)

	a := 99 - min(int(params[1]), 99)
	if a == 99 {
		l.delayInc = math.MaxUint32
		l.delayInc2 = math.MaxUint32
	} else {
		a = (16 + (a & 15)) << (1 + (a >> 4))
		l.delayInc = l.unit * uint32(a)
		a &= 0xff80
		if a < 0x80 {
			a = 0x80
		}
		l.delayInc2 = l.unit * uint32(a)
	}
	l.sync = params[4] != 0
	l.waveform = int(params[5])
}

// KeyDown restarts the delay ramp and, when sync is on, the phase.
func (l *LFO) KeyDown() {
	if l.sync {
		l.phase = 1<<31 - 1
	}
	l.delay = 0
}

// Sample advances one block and returns the waveform in [0, Full].
func (l *LFO) Sample() int32 {
	l.phase += l.delta
	switch l.waveform {
	case WaveTriangle:
		x := int32(l.phase >> 7)
		x ^= -int32(l.phase >> 31)
		return x & (Full - 1)
	case WaveSawDown:
		return int32((^l.phase ^ 1<<31) >> 8)
	case WaveSawUp:
		return int32((l.phase ^ 1<<31) >> 8)
	case WaveSquare:
		return int32((^l.phase)>>7) & Full
	case WaveSine:
		s := math.Sin(float64(l.phase) / (1 << 32) * 2 * math.Pi)
		return Full/2 + int32(s*(Full/2-1))
	case WaveSampleHold:
		if l.phase < l.delta {
			l.randState = (l.randState*179 + 17) & 0xff
		}
		x := int32(l.randState ^ 0x80)
		return (x + 1) << 16
	}
	return Full / 2
}

// Delay advances the onset ramp one block and returns it in [0, Full].
func (l *LFO) Delay() int32 {
	inc := l.delayInc2
	if l.delay < 1<<31 {
		inc = l.delayInc
	}
	d := uint64(l.delay) + uint64(inc)
	if d > math.MaxUint32 {
		return Full
	}
	l.delay = uint32(d)
	if d < 1<<31 {
		return 0
	}
	return int32(d>>7) & (Full - 1)
}
