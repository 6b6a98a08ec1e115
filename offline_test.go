package dx7fm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/dx7fm-go/internal/effects"
)

// phraseSMF is a quarter-second C major arpeggio at 120 bpm.
func phraseSMF(t *testing.T) []byte {
	t.Helper()
	var tr smf.Track
	for _, key := range []uint8{60, 64, 67} {
		tr.Add(0, midi.NoteOn(0, key, 100))
		tr.Add(240, midi.NoteOff(0, key))
	}
	tr.Close(0)
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	return buf.Bytes()
}

func TestRenderMIDI(t *testing.T) {
	s := New()
	out, err := RenderMIDI(s, bytes.NewReader(phraseSMF(t)), 0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	frames := len(out) / 2
	// Three 125 ms notes, then the release tail.
	if frames < s.SampleRate()*3/8 || frames > s.SampleRate() {
		t.Fatalf("rendered %d frames", frames)
	}
	if peak(out) == 0 {
		t.Fatal("render is silent")
	}
	if s.ActiveVoices() != 0 {
		t.Fatalf("%d voices left sounding", s.ActiveVoices())
	}
}

func TestRenderMIDIMaxSeconds(t *testing.T) {
	s := New(WithSampleRate(8000))
	out, err := RenderMIDI(s, bytes.NewReader(phraseSMF(t)), 0.1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := len(out) / 2; got != 800 {
		t.Fatalf("rendered %d frames, want 800", got)
	}
}

func TestRenderSMFMissingFile(t *testing.T) {
	if _, err := RenderSMF(New(), filepath.Join(t.TempDir(), "none.mid"), 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteWAVFile(t *testing.T) {
	samples := []int16{0, 0, 1000, 1000, -1000, -1000, 32767, 32767, -32768, -32768}
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteWAVFile(path, samples, 22050); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.SampleRate != 22050 || d.NumChans != 2 || d.BitDepth != 16 {
		t.Fatalf("format = %d Hz %d ch %d bit", d.SampleRate, d.NumChans, d.BitDepth)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(samples))
	}
	for i, v := range samples {
		if buf.Data[i] != int(v) {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], v)
		}
	}
}

func TestRenderMIDIWithEffects(t *testing.T) {
	dry := New()
	dryOut, err := RenderMIDI(dry, bytes.NewReader(phraseSMF(t)), 0)
	if err != nil {
		t.Fatal(err)
	}
	wet := New(WithConfig(Config{Effects: effects.Settings{Chorus: 0.5, Reverb: 0.3}}))
	if wet.Effects().Len() != 2 {
		t.Fatalf("chain len = %d", wet.Effects().Len())
	}
	wetOut, err := RenderMIDI(wet, bytes.NewReader(phraseSMF(t)), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(wetOut) <= len(dryOut) {
		t.Fatalf("wet render %d samples, dry %d; want a longer tail", len(wetOut), len(dryOut))
	}
	stereo := false
	for i := 0; i < len(wetOut); i += 2 {
		if wetOut[i] != wetOut[i+1] {
			stereo = true
			break
		}
	}
	if !stereo {
		t.Fatal("chorus left the render mono")
	}
}
