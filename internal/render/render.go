package render

import (
	"github.com/cbegin/dx7fm-go/internal/controllers"
	"github.com/cbegin/dx7fm-go/internal/voice"
)

const (
	// DefaultOutputLevel is the output level of a new renderer.
	DefaultOutputLevel = 50

	headroomShift = 4
	outputShift   = 9
	clipLimit     = 1 << 24
)

// Modulator is the single modulation source shared by every voice.
type Modulator interface {
	Sample() int32
	Delay() int32
}

// Renderer mixes the pool's voices in fixed blocks and converts the mix to
// 16-bit stereo. It owns its accumulation buffer and never allocates while
// rendering.
type Renderer struct {
	pool   *voice.Pool
	lfo    Modulator
	ctrls  *controllers.Controllers
	acc    [voice.BlockSize]int32
	level  int
	active int
}

// New returns a renderer driving pool with lfo as the shared modulator.
func New(pool *voice.Pool, lfo Modulator, ctrls *controllers.Controllers) *Renderer {
	return &Renderer{pool: pool, lfo: lfo, ctrls: ctrls, level: DefaultOutputLevel}
}

// SetOutputLevel sets the output level, clamped to 0-100.
func (r *Renderer) SetOutputLevel(level int) {
	r.level = max(0, min(level, 100))
}

func (r *Renderer) OutputLevel() int { return r.level }

// ActiveVoices returns the number of voices still sounding after the last
// rendered block.
func (r *Renderer) ActiveVoices() int { return r.active }

// Render writes frames interleaved stereo frames into out, which must hold at
// least 2*frames samples. The request is served as ceil(frames/BlockSize)
// blocks; the tail of a partial last block is discarded.
func (r *Renderer) Render(out []int16, frames int) {
	for done := 0; done < frames; done += voice.BlockSize {
		n := min(voice.BlockSize, frames-done)
		r.renderBlock()
		dst := out[2*done : 2*(done+n)]
		for i := 0; i < n; i++ {
			s := Downmix(r.acc[i], r.level)
			dst[2*i] = s
			dst[2*i+1] = s
		}
	}
}

func (r *Renderer) renderBlock() {
	clear(r.acc[:])
	lfoVal := r.lfo.Sample()
	lfoDelay := r.lfo.Delay()
	active := 0
	for i := 0; i < voice.MaxVoices; i++ {
		s := r.pool.Slot(i)
		e := s.Engine()
		if s.Free() && !e.IsPlaying() {
			continue
		}
		e.Compute(r.acc[:], lfoVal, lfoDelay, r.ctrls)
		if !e.IsPlaying() {
			r.pool.Free(i)
			continue
		}
		active++
	}
	r.active = active
}

// Downmix converts one accumulated sample to 16 bits: headroom shift, level
// scaling with truncation, clip to the 24-bit range, then the final shift.
func Downmix(acc int32, level int) int16 {
	v := int64(acc>>headroomShift) * int64(level) / 100
	switch {
	case v < -clipLimit:
		return -32768
	case v >= clipLimit:
		return 32767
	}
	return int16(v >> outputShift)
}
