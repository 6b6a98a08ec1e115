package lfo

import "testing"

func params(speed, delay, sync, wave byte) [6]byte {
	return [6]byte{speed, delay, 0, 0, sync, wave}
}

func TestLFOOutputsStayInRange(t *testing.T) {
	for wave := WaveTriangle; wave <= WaveSampleHold; wave++ {
		l := New(44100)
		l.Reset(params(70, 0, 0, byte(wave)))
		for i := 0; i < 2000; i++ {
			v := l.Sample()
			if v < 0 || v > Full {
				t.Fatalf("wave %d sample %d = %d out of [0, %d]", wave, i, v, Full)
			}
		}
	}
}

func TestLFOSquareShape(t *testing.T) {
	l := New(44100)
	l.Reset(params(50, 0, 0, WaveSquare))
	var lows, highs int
	for i := 0; i < 1000; i++ {
		switch l.Sample() {
		case 0:
			lows++
		case Full:
			highs++
		default:
			t.Fatalf("square produced an intermediate value")
		}
	}
	if lows == 0 || highs == 0 {
		t.Fatalf("square never toggled: lows=%d highs=%d", lows, highs)
	}
}

func TestLFOTriangleMovesBothWays(t *testing.T) {
	l := New(44100)
	l.Reset(params(60, 0, 0, WaveTriangle))
	prev := l.Sample()
	var ups, downs int
	for i := 0; i < 500; i++ {
		v := l.Sample()
		if v > prev {
			ups++
		} else if v < prev {
			downs++
		}
		prev = v
	}
	if ups == 0 || downs == 0 {
		t.Fatalf("triangle not bidirectional: ups=%d downs=%d", ups, downs)
	}
}

func TestLFOKeyDownSyncRestartsPhase(t *testing.T) {
	a := New(44100)
	b := New(44100)
	a.Reset(params(40, 0, 1, WaveTriangle))
	b.Reset(params(40, 0, 1, WaveTriangle))
	for i := 0; i < 37; i++ {
		a.Sample()
	}
	a.KeyDown()
	b.KeyDown()
	for i := 0; i < 100; i++ {
		if va, vb := a.Sample(), b.Sample(); va != vb {
			t.Fatalf("block %d: synced LFOs diverged: %d vs %d", i, va, vb)
		}
	}
}

func TestLFOKeyDownWithoutSyncKeepsPhase(t *testing.T) {
	a := New(44100)
	b := New(44100)
	a.Reset(params(40, 0, 0, WaveSawUp))
	b.Reset(params(40, 0, 0, WaveSawUp))
	for i := 0; i < 10; i++ {
		a.Sample()
		b.Sample()
	}
	a.KeyDown()
	if va, vb := a.Sample(), b.Sample(); va != vb {
		t.Fatalf("unsynced key-down moved the phase: %d vs %d", va, vb)
	}
}

func TestLFODelay(t *testing.T) {
	l := New(44100)
	l.Reset(params(35, 0, 0, WaveTriangle))
	l.KeyDown()
	l.Delay()
	if got := l.Delay(); got != Full {
		t.Fatalf("zero delay ramp = %d, want %d after two blocks", got, Full)
	}

	l.Reset(params(35, 50, 0, WaveTriangle))
	l.KeyDown()
	if got := l.Delay(); got != 0 {
		t.Fatalf("delayed LFO started at %d, want 0", got)
	}
	reached := false
	for i := 0; i < 100000; i++ {
		if l.Delay() == Full {
			reached = true
			break
		}
	}
	if !reached {
		t.Fatal("delay ramp never reached full scale")
	}
	l.KeyDown()
	if got := l.Delay(); got != 0 {
		t.Fatalf("key-down did not restart the delay: %d", got)
	}
}

func TestLFOResetClampsDelay(t *testing.T) {
	l := New(44100)
	// Out-of-range delay must not produce a negative shift.
	l.Reset(params(35, 127, 0, WaveTriangle))
	l.KeyDown()
	if got := l.Delay(); got != 0 {
		t.Fatalf("delay 127 should behave like 99 and start at 0, got %d", got)
	}
}
