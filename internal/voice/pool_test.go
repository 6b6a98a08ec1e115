package voice

import (
	"testing"

	"github.com/cbegin/dx7fm-go/internal/controllers"
	"github.com/cbegin/dx7fm-go/internal/patch"
)

type fakeEngine struct {
	id       int
	note     int
	inits    int
	keyUps   int
	playing  bool
	computes int
}

func (e *fakeEngine) Init(p *patch.Patch, note, velocity int, c *controllers.Controllers) {
	e.note = note
	e.inits++
	e.playing = true
}
func (e *fakeEngine) KeyUp() { e.keyUps++ }
func (e *fakeEngine) Compute(buf []int32, lfoVal, lfoDelay int32, c *controllers.Controllers) {
	e.computes++
}
func (e *fakeEngine) IsPlaying() bool { return e.playing }

type resettableEngine struct {
	fakeEngine
	resets int
}

func (e *resettableEngine) Reset() {
	e.resets++
	e.playing = false
}

type countingTrigger struct{ n int }

func (c *countingTrigger) KeyDown() { c.n++ }

type fixture struct {
	pool    *Pool
	ctrls   *controllers.Controllers
	trigger *countingTrigger
	created int
	patch   patch.Patch
}

func newFixture() *fixture {
	f := &fixture{trigger: &countingTrigger{}, patch: patch.Default()}
	c := controllers.Default()
	f.ctrls = &c
	f.pool = NewPool(func() Engine {
		f.created++
		return &fakeEngine{id: f.created}
	}, f.ctrls, f.trigger)
	return f
}

func engineOf(p *Pool, i int) *fakeEngine {
	return p.Slot(i).Engine().(*fakeEngine)
}

func TestAllocateFirstFree(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		if got := f.pool.NoteOn(60+i, 100, &f.patch); got != i {
			t.Fatalf("note %d went to slot %d, want %d", i, got, i)
		}
	}
	f.pool.Free(2)
	if got := f.pool.Allocate(); got != 2 {
		t.Fatalf("allocate = %d, want freed slot 2", got)
	}
}

func TestSeventeenthNoteStealsOldest(t *testing.T) {
	f := newFixture()
	for i := 0; i < MaxVoices; i++ {
		f.pool.NoteOn(40+i, 100, &f.patch)
	}
	// Restart slot 0 so slot 1 becomes the oldest holder.
	f.pool.Free(0)
	f.pool.NoteOn(90, 100, &f.patch)

	got := f.pool.NoteOn(91, 100, &f.patch)
	if got != 1 {
		t.Fatalf("17th allocation stole slot %d, want 1 (smallest age)", got)
	}
	if f.pool.Slot(1).Note != 91 {
		t.Fatalf("stolen slot note = %d, want 91", f.pool.Slot(1).Note)
	}
	if engineOf(f.pool, 1).inits != 2 {
		t.Fatalf("stolen engine was not reinitialized")
	}
}

func TestStealTieGoesToLowestIndex(t *testing.T) {
	f := newFixture()
	for i := range f.pool.slots {
		f.pool.slots[i].Note = 60
		f.pool.slots[i].Age = 7
	}
	f.pool.slots[9].Age = 7
	f.pool.slots[3].Age = 8
	if got := f.pool.Allocate(); got != 0 {
		t.Fatalf("allocate = %d, want 0 on equal ages", got)
	}
}

func TestAgesStrictlyIncrease(t *testing.T) {
	f := newFixture()
	var last uint64
	for i := 0; i < 40; i++ {
		slot := f.pool.NoteOn(i%128, 100, &f.patch)
		age := f.pool.Slot(slot).Age
		if i > 0 && age <= last {
			t.Fatalf("age %d after %d", age, last)
		}
		last = age
	}
}

func TestNoteOffReleasesEveryMatchingSlot(t *testing.T) {
	f := newFixture()
	a := f.pool.NoteOn(60, 100, &f.patch)
	b := f.pool.NoteOn(60, 90, &f.patch)
	c := f.pool.NoteOn(64, 90, &f.patch)
	f.pool.NoteOff(60)
	if engineOf(f.pool, a).keyUps != 1 || engineOf(f.pool, b).keyUps != 1 {
		t.Fatalf("retriggered note not released on both slots")
	}
	if engineOf(f.pool, c).keyUps != 0 {
		t.Fatalf("unrelated note was released")
	}
	if f.pool.Slot(a).Note != 60 {
		t.Fatalf("note cleared on key-up; release tail would be cut")
	}
}

func TestSustainDefersKeyUp(t *testing.T) {
	f := newFixture()
	held := f.pool.NoteOn(60, 100, &f.patch)
	f.ctrls.Sustain = true
	f.pool.NoteOff(60)
	for i := 0; i < 5; i++ {
		f.pool.NoteOn(70+i, 100, &f.patch)
		f.pool.NoteOff(70 + i)
	}
	if got := engineOf(f.pool, held).keyUps; got != 0 {
		t.Fatalf("key-up sent %d times while pedal held", got)
	}
	if !f.pool.Slot(held).Sustained {
		t.Fatalf("slot not marked sustained")
	}
	f.ctrls.Sustain = false
	f.pool.ReleaseSustained()
	if got := engineOf(f.pool, held).keyUps; got != 1 {
		t.Fatalf("key-ups after pedal up = %d, want 1", got)
	}
	for i := 0; i < MaxVoices; i++ {
		if f.pool.Slot(i).Sustained {
			t.Fatalf("slot %d still sustained", i)
		}
	}
}

func TestKeyDownOnlyFromSilence(t *testing.T) {
	f := newFixture()
	f.pool.NoteOn(60, 100, &f.patch)
	if f.trigger.n != 1 {
		t.Fatalf("key-down count = %d, want 1", f.trigger.n)
	}
	f.pool.NoteOn(64, 100, &f.patch)
	f.pool.NoteOn(67, 100, &f.patch)
	if f.trigger.n != 1 {
		t.Fatalf("overlapping note retriggered the LFO: %d", f.trigger.n)
	}
	// A released but still-sounding voice keeps the pool non-silent.
	f.pool.NoteOff(60)
	f.pool.NoteOff(64)
	f.pool.NoteOff(67)
	f.pool.NoteOn(72, 100, &f.patch)
	if f.trigger.n != 1 {
		t.Fatalf("note during release tails retriggered the LFO")
	}
	for i := 0; i < MaxVoices; i++ {
		f.pool.Free(i)
	}
	f.pool.NoteOn(60, 100, &f.patch)
	if f.trigger.n != 2 {
		t.Fatalf("key-down count after silence = %d, want 2", f.trigger.n)
	}
}

func TestAllNotesOff(t *testing.T) {
	f := newFixture()
	f.ctrls.Sustain = true
	f.pool.NoteOn(60, 100, &f.patch)
	f.pool.NoteOn(62, 100, &f.patch)
	f.pool.NoteOff(60)
	f.pool.AllNotesOff()
	for i := 0; i < 2; i++ {
		e := engineOf(f.pool, i)
		if e.keyUps != 1 {
			t.Errorf("slot %d key-ups = %d, want 1", i, e.keyUps)
		}
		if f.pool.Slot(i).Sustained {
			t.Errorf("slot %d still sustained", i)
		}
		if f.pool.Slot(i).Note < 0 {
			t.Errorf("slot %d freed; release tail should continue", i)
		}
	}
	if engineOf(f.pool, 2).keyUps != 0 {
		t.Errorf("free slot received key-up")
	}
}

func TestPanicRecreatesEngines(t *testing.T) {
	f := newFixture()
	for i := 0; i < 20; i++ {
		f.pool.NoteOn(i, 100, &f.patch)
	}
	f.ctrls.Sustain = true
	f.pool.NoteOff(3)
	before := make([]Engine, MaxVoices)
	for i := range before {
		before[i] = f.pool.Slot(i).Engine()
	}
	for round := 0; round < 3; round++ {
		f.pool.Panic()
		for i := 0; i < MaxVoices; i++ {
			s := f.pool.Slot(i)
			if !s.Free() || s.Sustained {
				t.Fatalf("round %d slot %d: note=%d sustained=%v", round, i, s.Note, s.Sustained)
			}
		}
	}
	for i := range before {
		if f.pool.Slot(i).Engine() == before[i] {
			t.Fatalf("slot %d engine survived panic", i)
		}
	}
	if f.created != MaxVoices*4 {
		t.Fatalf("engines created = %d, want %d", f.created, MaxVoices*4)
	}
}

func TestPanicResetsInPlace(t *testing.T) {
	ctrls := controllers.Default()
	pool := NewPool(func() Engine { return &resettableEngine{} }, &ctrls, nil)
	p := patch.Default()
	pool.NoteOn(60, 100, &p)
	e := pool.Slot(0).Engine()
	pool.Panic()
	if pool.Slot(0).Engine() != e {
		t.Fatal("resettable engine was replaced")
	}
	if e.(*resettableEngine).resets != 1 {
		t.Fatal("engine not reset")
	}
	if pool.ActiveNotes() != 0 {
		t.Fatalf("active notes after panic = %d", pool.ActiveNotes())
	}
}
