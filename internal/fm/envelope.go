package fm

import "math"

const (
	envDone    = 4
	riseFactor = 4.0
)

// envelope is a DX7-style four rate / four level generator working in level
// units (0-99). Stages 0-2 run while the key is down, stage 3 holds at L3
// until key-up and then moves to L4, after which the envelope is done.
type envelope struct {
	rates  [4]float64 // level units per block
	levels [4]float64
	level  float64
	stage  int
	down   bool
}

// rateToUnits converts a 0-99 rate into level units per block.
func rateToUnits(rate float64, blockSec float64) float64 {
	if rate < 0 {
		rate = 0
	}
	return 0.2 * math.Exp2(rate/6) * blockSec
}

func (e *envelope) init(rates, levels [4]byte, rateAdj, start, blockSec float64) {
	for i := 0; i < 4; i++ {
		e.rates[i] = rateToUnits(float64(rates[i])+rateAdj, blockSec)
		e.levels[i] = float64(levels[i])
	}
	e.level = start
	e.stage = 0
	e.down = true
}

func (e *envelope) step() {
	if e.stage >= envDone || (e.stage == 3 && e.down) {
		return
	}
	target := e.levels[e.stage]
	if e.level < target {
		e.level += e.rates[e.stage] * riseFactor
		if e.level < target {
			return
		}
	} else {
		e.level -= e.rates[e.stage]
		if e.level > target {
			return
		}
	}
	e.level = target
	e.stage++
}

func (e *envelope) keyUp() {
	if !e.down {
		return
	}
	e.down = false
	if e.stage < envDone {
		e.stage = 3
	}
}

func (e *envelope) active() bool {
	return e.stage < envDone
}
