package dx7fm

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestSetGetParam(t *testing.T) {
	s := New()
	if err := s.LoadBank(writeBank(t, t.TempDir(), "factory.syx")); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		key, val string
		want     string
	}{
		{"preset", "9", "9"},
		{"preset", " 2 ", "2"},
		{"preset", "-1", "31"},
		{"octave_transpose", "3", "3"},
		{"octave_transpose", "9", "4"},
		{"octave_transpose", "-9", "-4"},
		{"output_level", "75", "75"},
		{"output_level", "150", "100"},
		{"output_level", "loud", "100"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.val, func(t *testing.T) {
			s.SetParam(tc.key, tc.val)
			got, ok := s.GetParam(tc.key)
			if !ok || got != tc.want {
				t.Fatalf("%s = %q (%v), want %q", tc.key, got, ok, tc.want)
			}
		})
	}
}

func TestReadOnlyParams(t *testing.T) {
	s := New()
	if err := s.LoadBank(writeBank(t, t.TempDir(), "factory.syx")); err != nil {
		t.Fatal(err)
	}
	s.SetParam("preset", "4")
	s.SetParam("preset_count", "1")
	s.SetParam("patch_name", "nope")

	want := map[string]string{
		"patch_name":    "PATCH 04  ",
		"preset_name":   "PATCH 04  ",
		"preset_count":  "32",
		"bank_name":     "factory",
		"bank_position": "5/32",
		"algorithm":     "5",
		"polyphony":     "0",
	}
	for key, w := range want {
		if got, ok := s.GetParam(key); !ok || got != w {
			t.Errorf("%s = %q (%v), want %q", key, got, ok, w)
		}
	}
	if _, ok := s.GetParam("no_such_key"); ok {
		t.Error("unknown key reported as present")
	}
	if _, ok := s.GetParam("panic"); ok {
		t.Error("trigger reported a value")
	}
}

func TestPolyphonyCountsVoices(t *testing.T) {
	s := New()
	for _, key := range []uint8{60, 64, 67} {
		s.HandleMIDI(midi.NoteOn(0, key, 100))
	}
	s.Render(make([]int16, 2*64), 64)
	if got, _ := s.GetParam("polyphony"); got != "3" {
		t.Fatalf("polyphony = %s, want 3", got)
	}
}

func TestPanicParamSilences(t *testing.T) {
	for _, key := range []string{"panic", "all_notes_off"} {
		t.Run(key, func(t *testing.T) {
			s := New()
			s.HandleMIDI(midi.NoteOn(0, 60, 100))
			s.Render(make([]int16, 2*64), 64)
			s.SetParam(key, "1")
			out := make([]int16, 2*64*200)
			s.Render(out, 64*200)
			if s.ActiveVoices() != 0 {
				t.Fatalf("%d voices still active", s.ActiveVoices())
			}
		})
	}
}

func TestStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeBank(t, dir, "b.syx")
	src := New()
	if err := src.LoadBank(path); err != nil {
		t.Fatal(err)
	}
	src.SetParam("preset", "12")
	src.SetParam("octave_transpose", "-1")
	src.SetParam("output_level", "33")
	blob, _ := src.GetParam("state")

	dst := New()
	if err := dst.LoadBank(path); err != nil {
		t.Fatal(err)
	}
	dst.SetParam("state", blob)
	if dst.Preset() != 12 || dst.Router().Octave() != -1 {
		t.Fatalf("preset %d octave %d", dst.Preset(), dst.Router().Octave())
	}
	if got, _ := dst.GetParam("output_level"); got != "33" {
		t.Fatalf("output level = %s", got)
	}
}

func TestSetStatePartialAndMalformed(t *testing.T) {
	s := New()
	s.SetParam("output_level", "20")
	s.SetParam("state", `{"octave_transpose": 2}`)
	if s.Router().Octave() != 2 {
		t.Fatalf("octave = %d", s.Router().Octave())
	}
	if got, _ := s.GetParam("output_level"); got != "20" {
		t.Fatalf("missing field changed output level to %s", got)
	}
	s.SetParam("state", "{not json")
	if s.Router().Octave() != 2 {
		t.Fatal("malformed state changed octave")
	}
}

func TestSetIgnoresWrongKind(t *testing.T) {
	s := New()
	s.Set(ParamOutputLevel, StringValue("10"))
	s.Set(ParamPreset, Trigger())
	if v, _ := s.Get(ParamOutputLevel); v.Int != 50 {
		t.Fatalf("output level = %d, want 50", v.Int)
	}
}
