package dx7fm

import (
	"encoding/json"
	"fmt"
)

// Param identifies a synth parameter.
type Param int

const (
	ParamBankPath Param = iota
	ParamPreset
	ParamOctaveTranspose
	ParamOutputLevel
	ParamPanic
	ParamAllNotesOff
	ParamState

	// Read-only.
	ParamPatchName
	ParamPresetCount
	ParamPolyphony
	ParamBankName
	ParamBankPosition
	ParamAlgorithm
)

// Kind is the type held by a Value.
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindTrigger
)

// Value is a parameter value. Paths, names and state blobs are strings.
type Value struct {
	Kind Kind
	Int  int
	Str  string
}

func IntValue(v int) Value       { return Value{Kind: KindInt, Int: v} }
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }
func Trigger() Value             { return Value{Kind: KindTrigger} }

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprint(v.Int)
	case KindString:
		return v.Str
	}
	return ""
}

// State is the persisted part of an instance.
type State struct {
	Preset          int `json:"preset"`
	OctaveTranspose int `json:"octave_transpose"`
	OutputLevel     int `json:"output_level"`
}

// Set applies v to p. Values of the wrong kind and read-only parameters are
// ignored; numeric values are clamped.
func (s *Synth) Set(p Param, v Value) {
	switch p {
	case ParamBankPath:
		if v.Kind == KindString {
			_ = s.LoadBank(v.Str)
		}
	case ParamPreset:
		if v.Kind == KindInt {
			s.SelectPreset(v.Int)
		}
	case ParamOctaveTranspose:
		if v.Kind == KindInt {
			s.router.SetOctave(v.Int)
		}
	case ParamOutputLevel:
		if v.Kind == KindInt {
			s.renderer.SetOutputLevel(v.Int)
		}
	case ParamPanic:
		s.router.Panic()
		s.post.Reset()
	case ParamAllNotesOff:
		s.router.AllNotesOff()
	case ParamState:
		if v.Kind == KindString {
			s.SetState(v.Str)
		}
	}
}

// Get returns the value of p. Triggers have no value.
func (s *Synth) Get(p Param) (Value, bool) {
	switch p {
	case ParamBankPath:
		return StringValue(s.bankPath), true
	case ParamPreset:
		return IntValue(s.preset), true
	case ParamOctaveTranspose:
		return IntValue(s.router.Octave()), true
	case ParamOutputLevel:
		return IntValue(s.renderer.OutputLevel()), true
	case ParamState:
		return StringValue(s.State()), true
	case ParamPatchName:
		return StringValue(s.name), true
	case ParamPresetCount:
		return IntValue(s.bank.Load().Len()), true
	case ParamPolyphony:
		return IntValue(s.renderer.ActiveVoices()), true
	case ParamBankName:
		return StringValue(s.bank.Load().Name()), true
	case ParamBankPosition:
		return StringValue(fmt.Sprintf("%d/%d", s.preset+1, s.bank.Load().Len())), true
	case ParamAlgorithm:
		return IntValue(s.current.Algorithm() + 1), true
	}
	return Value{}, false
}

// State encodes preset, octave transpose and output level as JSON.
func (s *Synth) State() string {
	data, _ := json.Marshal(State{
		Preset:          s.preset,
		OctaveTranspose: s.router.Octave(),
		OutputLevel:     s.renderer.OutputLevel(),
	})
	return string(data)
}

// SetState applies a blob produced by State. Missing fields are left alone
// and malformed blobs are ignored.
func (s *Synth) SetState(blob string) {
	var st struct {
		Preset          *int `json:"preset"`
		OctaveTranspose *int `json:"octave_transpose"`
		OutputLevel     *int `json:"output_level"`
	}
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		s.logger.Warn("ignoring malformed state", "err", err)
		return
	}
	if st.Preset != nil {
		s.SelectPreset(*st.Preset)
	}
	if st.OctaveTranspose != nil {
		s.router.SetOctave(*st.OctaveTranspose)
	}
	if st.OutputLevel != nil {
		s.renderer.SetOutputLevel(*st.OutputLevel)
	}
}
