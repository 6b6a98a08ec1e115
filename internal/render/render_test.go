package render

import (
	"testing"

	"github.com/cbegin/dx7fm-go/internal/controllers"
	"github.com/cbegin/dx7fm-go/internal/patch"
	"github.com/cbegin/dx7fm-go/internal/voice"
)

// constEngine adds a constant to every sample and stops after a fixed number
// of blocks once released.
type constEngine struct {
	value    int32
	playing  bool
	released bool
	tail     int
	computes int
}

func (e *constEngine) Init(p *patch.Patch, note, velocity int, c *controllers.Controllers) {
	e.playing = true
	e.released = false
	e.tail = 2
}
func (e *constEngine) KeyUp() { e.released = true }
func (e *constEngine) Compute(buf []int32, lfoVal, lfoDelay int32, c *controllers.Controllers) {
	e.computes++
	for i := range buf {
		buf[i] += e.value
	}
	if e.released {
		e.tail--
		if e.tail <= 0 {
			e.playing = false
		}
	}
}
func (e *constEngine) IsPlaying() bool { return e.playing }

type fakeLFO struct{ samples, delays int }

func (l *fakeLFO) Sample() int32 { l.samples++; return 0 }
func (l *fakeLFO) Delay() int32  { l.delays++; return 0 }

func newRenderer(value int32) (*Renderer, *voice.Pool, *fakeLFO) {
	c := controllers.Default()
	pool := voice.NewPool(func() voice.Engine { return &constEngine{value: value} }, &c, nil)
	lfo := &fakeLFO{}
	return New(pool, lfo, &c), pool, lfo
}

func TestDownmix(t *testing.T) {
	for _, tc := range []struct {
		name  string
		acc   int32
		level int
		want  int16
	}{
		{"zero level", 1 << 28, 0, 0},
		{"full level", 1 << 22, 100, (1 << 18) >> 9},
		{"half level", 1 << 22, 50, (1 << 17) >> 9},
		{"truncates", 100 << 4, 33, 0},
		{"negative", -(1 << 22), 100, -512},
		{"clip high", 1 << 30, 100, 32767},
		{"clip low", -(1 << 30), 100, -32768},
		{"edge high", (1 << 28) - 16, 100, 32767},
		{"edge low", -(1 << 28), 100, -32768},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := Downmix(tc.acc, tc.level); got != tc.want {
				t.Fatalf("Downmix(%d, %d) = %d, want %d", tc.acc, tc.level, got, tc.want)
			}
		})
	}
}

func TestLevelZeroIsExactSilence(t *testing.T) {
	r, pool, _ := newRenderer(1 << 24)
	p := patch.Default()
	for i := 0; i < voice.MaxVoices; i++ {
		pool.NoteOn(40+i, 127, &p)
	}
	r.SetOutputLevel(0)
	out := make([]int16, 2*300)
	for i := range out {
		out[i] = 99
	}
	r.Render(out, 300)
	for i, s := range out {
		if s != 0 {
			t.Fatalf("sample %d = %d, want 0", i, s)
		}
	}
}

func TestRenderChunksAndDuplicatesChannels(t *testing.T) {
	r, pool, lfo := newRenderer(1 << 20)
	p := patch.Default()
	pool.NoteOn(60, 100, &p)
	r.SetOutputLevel(100)
	frames := 150
	out := make([]int16, 2*frames)
	r.Render(out, frames)
	if lfo.samples != 3 || lfo.delays != 3 {
		t.Fatalf("lfo queried %d/%d times, want 3 blocks", lfo.samples, lfo.delays)
	}
	want := Downmix(1<<20, 100)
	for i := 0; i < frames; i++ {
		if out[2*i] != want || out[2*i+1] != want {
			t.Fatalf("frame %d = (%d, %d), want %d on both channels", i, out[2*i], out[2*i+1], want)
		}
	}
	if r.ActiveVoices() != 1 {
		t.Fatalf("active voices = %d, want 1", r.ActiveVoices())
	}
}

func TestFinishedVoicesAreFreed(t *testing.T) {
	r, pool, _ := newRenderer(1)
	p := patch.Default()
	pool.NoteOn(60, 100, &p)
	pool.NoteOn(62, 100, &p)
	pool.NoteOff(60)
	out := make([]int16, 2*voice.BlockSize)
	r.Render(out, voice.BlockSize)
	if pool.Slot(0).Free() {
		t.Fatal("released slot freed before its tail finished")
	}
	r.Render(out, voice.BlockSize)
	if !pool.Slot(0).Free() {
		t.Fatal("finished slot not freed")
	}
	if pool.Slot(1).Free() {
		t.Fatal("held slot freed")
	}
	if r.ActiveVoices() != 1 {
		t.Fatalf("active voices = %d, want 1", r.ActiveVoices())
	}
}

func TestIdleSlotsAreNotComputed(t *testing.T) {
	r, pool, _ := newRenderer(1)
	out := make([]int16, 2*voice.BlockSize)
	r.Render(out, voice.BlockSize)
	for i := 0; i < voice.MaxVoices; i++ {
		if n := pool.Slot(i).Engine().(*constEngine).computes; n != 0 {
			t.Fatalf("free slot %d computed %d times", i, n)
		}
	}
}

func TestSetOutputLevelClamps(t *testing.T) {
	r, _, _ := newRenderer(0)
	if r.OutputLevel() != DefaultOutputLevel {
		t.Fatalf("default level = %d", r.OutputLevel())
	}
	r.SetOutputLevel(250)
	if r.OutputLevel() != 100 {
		t.Fatalf("level = %d, want 100", r.OutputLevel())
	}
	r.SetOutputLevel(-3)
	if r.OutputLevel() != 0 {
		t.Fatalf("level = %d, want 0", r.OutputLevel())
	}
}

func TestRenderDoesNotAllocate(t *testing.T) {
	r, pool, _ := newRenderer(1 << 10)
	p := patch.Default()
	pool.NoteOn(60, 100, &p)
	out := make([]int16, 2*256)
	allocs := testing.AllocsPerRun(50, func() { r.Render(out, 256) })
	if allocs != 0 {
		t.Fatalf("render allocated %.1f times per call", allocs)
	}
}
