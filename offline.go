package dx7fm

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	intseq "github.com/cbegin/dx7fm-go/internal/sequencer"
)

// RenderSMF renders a Standard MIDI File through s until every note has
// finished, or maxSeconds of audio when that comes first (0 = no limit).
// The result is interleaved stereo.
func RenderSMF(s *Synth, path string, maxSeconds float64) ([]int16, error) {
	events, err := intseq.Load(path, s.SampleRate())
	if err != nil {
		return nil, err
	}
	return renderEvents(s, events, maxSeconds), nil
}

// RenderMIDI is RenderSMF for an open file.
func RenderMIDI(s *Synth, r io.Reader, maxSeconds float64) ([]int16, error) {
	events, err := intseq.Read(r, s.SampleRate())
	if err != nil {
		return nil, err
	}
	return renderEvents(s, events, maxSeconds), nil
}

func renderEvents(s *Synth, events []intseq.Event, maxSeconds float64) []int16 {
	seq := intseq.NewWithOptions(events, s, s.SampleRate(), intseq.Options{ReleaseTailFrames: s.tailFrames()})
	limit := -1
	if maxSeconds > 0 {
		limit = int(maxSeconds * float64(s.SampleRate()))
	}
	const chunk = 4096
	buf := make([]int16, 2*chunk)
	var out []int16
	for !seq.Finished() && (limit < 0 || len(out)/2 < limit) {
		n := chunk
		if limit >= 0 {
			n = min(n, limit-len(out)/2)
		}
		seq.Process(buf[:2*n])
		s.post.Process(buf[:2*n])
		out = append(out, buf[:2*n]...)
	}
	return out
}

// tailFrames is how long a sequence keeps running after its last voice
// stops. Zero selects the sequencer default; effects get two seconds to ring
// out.
func (s *Synth) tailFrames() int {
	if s.post.Len() > 0 {
		return 2 * s.sampleRate
	}
	return 0
}

// WriteWAV encodes interleaved stereo samples as a 16-bit PCM WAV stream.
func WriteWAV(w io.WriteSeeker, samples []int16, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return errors.Wrap(err, "encode wav")
	}
	return errors.Wrap(enc.Close(), "finish wav")
}

// WriteWAVFile writes samples to a new WAV file at path.
func WriteWAVFile(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create wav")
	}
	if err := WriteWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
