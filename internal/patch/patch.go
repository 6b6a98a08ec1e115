package patch

const (
	PackedSize   = 128
	Size         = 156
	NumOperators = 6
	OperatorSize = 21
	NameLen      = 10

	packedOpSize  = 17
	packedGlobals = 102
)

// Packed is one voice in the 32-voice bulk dump layout.
type Packed [PackedSize]byte

// Patch is one voice in the normalized 156-byte layout.
type Patch [Size]byte

// Operator field offsets, relative to the operator block.
const (
	OpRate1 = iota
	OpRate2
	OpRate3
	OpRate4
	OpLevel1
	OpLevel2
	OpLevel3
	OpLevel4
	OpBreakpoint
	OpLeftDepth
	OpRightDepth
	OpLeftCurve
	OpRightCurve
	OpRateScaling
	OpAmpModSens
	OpKeyVelSens
	OpOutputLevel
	OpOscMode
	OpFreqCoarse
	OpFreqFine
	OpDetune
)

// Global field offsets.
const (
	PitchRate1    = 126
	PitchLevel1   = 130
	Algorithm     = 134
	Feedback      = 135
	OscSync       = 136
	LFOSpeed      = 137
	LFODelay      = 138
	LFOPitchDepth = 139
	LFOAmpDepth   = 140
	LFOSync       = 141
	LFOWave       = 142
	PitchModSens  = 143
	Transpose     = 144
	NameOffset    = 145
)

// OpOffset returns the offset of operator op (0 = OP1). Voice data stores
// OP6 first.
func OpOffset(op int) int {
	return (NumOperators - 1 - op) * OperatorSize
}

// Op returns a field of operator op (0 = OP1).
func (p *Patch) Op(op, field int) byte {
	return p[OpOffset(op)+field]
}

// SetOp sets a field of operator op (0 = OP1).
func (p *Patch) SetOp(op, field int, v byte) {
	p[OpOffset(op)+field] = v
}

// Algorithm returns the zero-based algorithm index (0-31).
func (p *Patch) Algorithm() int {
	return int(p[Algorithm] & 0x1f)
}

// LFOParams returns speed, delay, pitch depth, amp depth, sync and wave.
func (p *Patch) LFOParams() [6]byte {
	var out [6]byte
	copy(out[:], p[LFOSpeed:LFOSpeed+6])
	return out
}

// Name returns the patch name with non-printable bytes replaced by spaces.
func (p *Patch) Name() string {
	return SanitizeName(p[NameOffset : NameOffset+NameLen])
}

// SanitizeName maps every byte outside printable ASCII to a space.
func SanitizeName(raw []byte) string {
	var b [NameLen]byte
	n := copy(b[:], raw)
	for i := 0; i < n; i++ {
		if b[i] < 32 || b[i] > 126 {
			b[i] = ' '
		}
	}
	return string(b[:n])
}

// Default returns the built-in "Init" patch: a single sine carrier on OP1.
func Default() Patch {
	var p Patch
	for op := 0; op < NumOperators; op++ {
		base := OpOffset(op)
		for i := 0; i < 7; i++ {
			p[base+OpRate1+i] = 99
		}
		p[base+OpLevel4] = 0
		if op == 0 {
			p[base+OpOutputLevel] = 99
		}
		p[base+OpFreqCoarse] = 1
		p[base+OpDetune] = 7
	}
	for i := 0; i < 8; i++ {
		p[PitchRate1+i] = 50
	}
	p[Algorithm] = 0
	p[Feedback] = 0
	p[OscSync] = 1
	p[LFOSpeed] = 35
	p[LFODelay] = 0
	p[LFOPitchDepth] = 0
	p[LFOAmpDepth] = 0
	p[LFOSync] = 1
	p[LFOWave] = 0
	p[PitchModSens] = 3
	p[Transpose] = 24
	copy(p[NameOffset:NameOffset+NameLen], "Init      ")
	return p
}
