package voice

import (
	"github.com/cbegin/dx7fm-go/internal/controllers"
	"github.com/cbegin/dx7fm-go/internal/patch"
)

const (
	// BlockSize is the number of samples an Engine renders per Compute.
	BlockSize = 64
	// MaxVoices is the fixed polyphony of a pool.
	MaxVoices = 16
)

// Engine is one single-voice synthesis instance owned by a slot.
type Engine interface {
	// Init starts a note from the given patch.
	Init(p *patch.Patch, note, velocity int, c *controllers.Controllers)
	// KeyUp moves the voice into its release phase.
	KeyUp()
	// Compute adds BlockSize samples into buf. lfoVal and lfoDelay are the
	// shared modulation source's Q24 outputs for this block.
	Compute(buf []int32, lfoVal, lfoDelay int32, c *controllers.Controllers)
	// IsPlaying reports whether the voice still produces sound.
	IsPlaying() bool
}

// Resetter is implemented by engines that can return to their freshly
// constructed state in place. Pools without it recreate the engine instead.
type Resetter interface {
	Reset()
}

// Factory constructs a fresh engine instance.
type Factory func() Engine

// Trigger receives the key-down signal for the shared modulation source.
type Trigger interface {
	KeyDown()
}
