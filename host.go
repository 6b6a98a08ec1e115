package dx7fm

import (
	"strconv"
	"strings"
)

var paramKeys = map[string]Param{
	"syx_path":         ParamBankPath,
	"preset":           ParamPreset,
	"octave_transpose": ParamOctaveTranspose,
	"output_level":     ParamOutputLevel,
	"panic":            ParamPanic,
	"all_notes_off":    ParamAllNotesOff,
	"state":            ParamState,
	"patch_name":       ParamPatchName,
	"preset_name":      ParamPatchName,
	"preset_count":     ParamPresetCount,
	"polyphony":        ParamPolyphony,
	"bank_name":        ParamBankName,
	"bank_position":    ParamBankPosition,
	"algorithm":        ParamAlgorithm,
}

// LookupParam maps a host key to its Param.
func LookupParam(key string) (Param, bool) {
	p, ok := paramKeys[key]
	return p, ok
}

func intParam(p Param) bool {
	switch p {
	case ParamPreset, ParamOctaveTranspose, ParamOutputLevel:
		return true
	}
	return false
}

// SetParam is the string key/value entry point for hosts. Unknown keys and
// malformed numbers are ignored.
func (s *Synth) SetParam(key, val string) {
	p, ok := LookupParam(key)
	if !ok {
		return
	}
	switch {
	case intParam(p):
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return
		}
		s.Set(p, IntValue(n))
	case p == ParamPanic || p == ParamAllNotesOff:
		s.Set(p, Trigger())
	default:
		s.Set(p, StringValue(val))
	}
}

// GetParam returns the string form of a host key.
func (s *Synth) GetParam(key string) (string, bool) {
	p, ok := LookupParam(key)
	if !ok {
		return "", false
	}
	v, ok := s.Get(p)
	if !ok {
		return "", false
	}
	return v.String(), true
}
