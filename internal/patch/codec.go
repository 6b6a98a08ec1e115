package patch

// Field describes where one normalized byte lives inside the packed layout.
// The normalized value is (packed[Packed] >> Shift) & Mask.
type Field struct {
	Name     string
	Unpacked int
	Packed   int
	Shift    uint8
	Mask     byte
}

// operatorFields is the per-operator extraction table, offsets relative to
// the operator's packed (17 byte) and unpacked (21 byte) blocks.
var operatorFields = [OperatorSize]Field{
	{"R1", OpRate1, 0, 0, 0x7f},
	{"R2", OpRate2, 1, 0, 0x7f},
	{"R3", OpRate3, 2, 0, 0x7f},
	{"R4", OpRate4, 3, 0, 0x7f},
	{"L1", OpLevel1, 4, 0, 0x7f},
	{"L2", OpLevel2, 5, 0, 0x7f},
	{"L3", OpLevel3, 6, 0, 0x7f},
	{"L4", OpLevel4, 7, 0, 0x7f},
	{"BP", OpBreakpoint, 8, 0, 0x7f},
	{"LD", OpLeftDepth, 9, 0, 0x7f},
	{"RD", OpRightDepth, 10, 0, 0x7f},
	{"LC", OpLeftCurve, 11, 0, 0x03},
	{"RC", OpRightCurve, 11, 2, 0x03},
	{"RS", OpRateScaling, 12, 0, 0x07},
	{"AMS", OpAmpModSens, 13, 0, 0x03},
	{"KVS", OpKeyVelSens, 13, 2, 0x07},
	{"OL", OpOutputLevel, 14, 0, 0x7f},
	{"M", OpOscMode, 15, 0, 0x01},
	{"FC", OpFreqCoarse, 15, 1, 0x1f},
	{"FF", OpFreqFine, 16, 0, 0x7f},
	{"D", OpDetune, 12, 3, 0x0f},
}

var globalFields = []Field{
	{"PR1", PitchRate1 + 0, packedGlobals + 0, 0, 0x7f},
	{"PR2", PitchRate1 + 1, packedGlobals + 1, 0, 0x7f},
	{"PR3", PitchRate1 + 2, packedGlobals + 2, 0, 0x7f},
	{"PR4", PitchRate1 + 3, packedGlobals + 3, 0, 0x7f},
	{"PL1", PitchLevel1 + 0, packedGlobals + 4, 0, 0x7f},
	{"PL2", PitchLevel1 + 1, packedGlobals + 5, 0, 0x7f},
	{"PL3", PitchLevel1 + 2, packedGlobals + 6, 0, 0x7f},
	{"PL4", PitchLevel1 + 3, packedGlobals + 7, 0, 0x7f},
	{"ALG", Algorithm, packedGlobals + 8, 0, 0x1f},
	{"FB", Feedback, packedGlobals + 8, 5, 0x07},
	{"OKS", OscSync, packedGlobals + 9, 0, 0x01},
	{"LFS", LFOSpeed, packedGlobals + 10, 0, 0x7f},
	{"LFD", LFODelay, packedGlobals + 11, 0, 0x7f},
	{"LPMD", LFOPitchDepth, packedGlobals + 12, 0, 0x7f},
	{"LAMD", LFOAmpDepth, packedGlobals + 13, 0, 0x7f},
	{"LFKS", LFOSync, packedGlobals + 9, 1, 0x01},
	{"LFW", LFOWave, packedGlobals + 14, 0, 0x07},
	{"LPMS", PitchModSens, packedGlobals + 14, 4, 0x07},
	{"TRNP", Transpose, packedGlobals + 15, 0, 0x7f},
}

// Fields returns the complete extraction table in unpacked order, with
// absolute offsets. The ten name bytes are copied raw and are not listed.
func Fields() []Field {
	out := make([]Field, 0, NumOperators*OperatorSize+len(globalFields))
	for op := 0; op < NumOperators; op++ {
		for _, f := range operatorFields {
			f.Unpacked += op * OperatorSize
			f.Packed += op * packedOpSize
			out = append(out, f)
		}
	}
	return append(out, globalFields...)
}

// Unpack converts a packed bulk-dump voice into the normalized layout.
func Unpack(packed *Packed) Patch {
	var p Patch
	for op := 0; op < NumOperators; op++ {
		pb := op * packedOpSize
		ub := op * OperatorSize
		for _, f := range operatorFields {
			p[ub+f.Unpacked] = (packed[pb+f.Packed] >> f.Shift) & f.Mask
		}
	}
	for _, f := range globalFields {
		p[f.Unpacked] = (packed[f.Packed] >> f.Shift) & f.Mask
	}
	copy(p[NameOffset:NameOffset+NameLen], packed[packedGlobals+16:packedGlobals+16+NameLen])
	return p
}

// Pack is the inverse of Unpack for in-range values. Bits outside each
// field's mask are dropped.
func Pack(p *Patch) Packed {
	var packed Packed
	for op := 0; op < NumOperators; op++ {
		pb := op * packedOpSize
		ub := op * OperatorSize
		for _, f := range operatorFields {
			packed[pb+f.Packed] |= (p[ub+f.Unpacked] & f.Mask) << f.Shift
		}
	}
	for _, f := range globalFields {
		packed[f.Packed] |= (p[f.Unpacked] & f.Mask) << f.Shift
	}
	copy(packed[packedGlobals+16:], p[NameOffset:NameOffset+NameLen])
	return packed
}
