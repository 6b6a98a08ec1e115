package sequencer

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Event is a channel message stamped with the output frame it plays at.
type Event struct {
	Frame   int64
	Message midi.Message
}

// Load reads every track of a Standard MIDI File and returns its channel
// messages in playback order.
func Load(path string, sampleRate int) ([]Event, error) {
	events, err := collect(smf.ReadTracks(path), sampleRate)
	if err != nil {
		return nil, errors.Wrapf(err, "read smf %s", path)
	}
	return events, nil
}

// Read is Load for an already open file.
func Read(r io.Reader, sampleRate int) ([]Event, error) {
	events, err := collect(smf.ReadTracksFrom(r), sampleRate)
	if err != nil {
		return nil, errors.Wrap(err, "read smf")
	}
	return events, nil
}

func collect(tr *smf.TracksReader, sampleRate int) ([]Event, error) {
	var events []Event
	tr.Do(func(ev smf.TrackEvent) {
		msg := midi.Message(ev.Message)
		// Meta and sysex events have nothing to play.
		if len(msg) == 0 || msg[0] >= 0xF0 {
			return
		}
		events = append(events, Event{
			Frame:   ev.AbsMicroSeconds * int64(sampleRate) / 1e6,
			Message: msg,
		})
	})
	if err := tr.Error(); err != nil {
		return nil, err
	}
	// Tracks arrive one after another; merge them by time keeping file order
	// for simultaneous events.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Frame < events[j].Frame
	})
	return events, nil
}
