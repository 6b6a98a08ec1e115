package voice

import (
	"github.com/cbegin/dx7fm-go/internal/controllers"
	"github.com/cbegin/dx7fm-go/internal/patch"
)

// Slot is one voice of the pool. Note is negative while the slot is free.
// A slot keeps its note through the release tail and is freed only once its
// engine reports it has stopped playing.
type Slot struct {
	Note      int
	Age       uint64
	Sustained bool
	engine    Engine
}

// Engine returns the slot's engine instance.
func (s *Slot) Engine() Engine { return s.engine }

// Free reports whether the slot has no note assigned.
func (s *Slot) Free() bool { return s.Note < 0 }

// Pool is a fixed array of voice slots with oldest-first stealing.
// It is not safe for concurrent use.
type Pool struct {
	slots     [MaxVoices]Slot
	nextAge   uint64
	newEngine Factory
	ctrls     *controllers.Controllers
	trigger   Trigger
}

// NewPool builds MaxVoices engines up front. ctrls is shared with the
// router; trigger is the shared modulation source.
func NewPool(newEngine Factory, ctrls *controllers.Controllers, trigger Trigger) *Pool {
	p := &Pool{newEngine: newEngine, ctrls: ctrls, trigger: trigger}
	for i := range p.slots {
		p.slots[i] = Slot{Note: -1, engine: newEngine()}
	}
	return p
}

// Slot returns slot i.
func (p *Pool) Slot(i int) *Slot { return &p.slots[i] }

// Allocate returns the first free slot, or steals the oldest one. Ties on
// age go to the lowest index. Allocation never fails.
func (p *Pool) Allocate() int {
	for i := range p.slots {
		if p.slots[i].Note < 0 {
			return i
		}
	}
	oldest := 0
	for i := 1; i < len(p.slots); i++ {
		if p.slots[i].Age < p.slots[oldest].Age {
			oldest = i
		}
	}
	return oldest
}

// ActiveNotes counts slots that currently have a note assigned.
func (p *Pool) ActiveNotes() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Note >= 0 {
			n++
		}
	}
	return n
}

// NoteOn starts note on a slot and returns its index. The modulation source
// gets a key-down only when no slot was active beforehand, so overlapping
// notes keep the LFO phase running.
func (p *Pool) NoteOn(note, velocity int, pt *patch.Patch) int {
	activeBefore := p.ActiveNotes()
	i := p.Allocate()
	s := &p.slots[i]
	s.engine.Init(pt, note, velocity, p.ctrls)
	s.Note = note
	s.Age = p.nextAge
	p.nextAge++
	s.Sustained = false
	if activeBefore == 0 && p.trigger != nil {
		p.trigger.KeyDown()
	}
	return i
}

// NoteOff releases every slot holding note, or marks it sustained while the
// pedal is down. The note number stays assigned so the release tail plays
// out and a retriggered note can still be matched.
func (p *Pool) NoteOff(note int) {
	for i := range p.slots {
		s := &p.slots[i]
		if s.Note != note {
			continue
		}
		if p.ctrls.Sustain {
			s.Sustained = true
		} else {
			s.engine.KeyUp()
			s.Sustained = false
		}
	}
}

// ReleaseSustained keys up every slot held only by the pedal.
func (p *Pool) ReleaseSustained() {
	for i := range p.slots {
		s := &p.slots[i]
		if s.Sustained {
			s.engine.KeyUp()
			s.Sustained = false
		}
	}
}

// AllNotesOff keys up every assigned slot and drops all sustain marks.
// Engines are not reset, so release tails still play.
func (p *Pool) AllNotesOff() {
	for i := range p.slots {
		s := &p.slots[i]
		if s.Note >= 0 {
			s.engine.KeyUp()
		}
		s.Sustained = false
	}
}

// Panic returns every slot to a freshly constructed, free state. Engines
// that implement Resetter are reset in place; others are recreated.
func (p *Pool) Panic() {
	for i := range p.slots {
		s := &p.slots[i]
		if r, ok := s.engine.(Resetter); ok {
			r.Reset()
		} else {
			s.engine = p.newEngine()
		}
		s.Note = -1
		s.Age = 0
		s.Sustained = false
	}
}

// Free marks slot i as free. The render engine calls it once the slot's
// engine stops playing.
func (p *Pool) Free(i int) {
	p.slots[i].Note = -1
}
