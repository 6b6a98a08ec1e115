package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/term"

	"github.com/cbegin/dx7fm-go"
)

// Terminals report key presses but not releases, so every note is held for
// a fixed time.
const noteLength = 400 * time.Millisecond

// keyNotes maps the home row to one octave from middle C, black keys on the
// row above.
var keyNotes = map[byte]uint8{
	'a': 60, 'w': 61, 's': 62, 'e': 63, 'd': 64, 'f': 65, 't': 66,
	'g': 67, 'y': 68, 'h': 69, 'u': 70, 'j': 71, 'k': 72, 'o': 73, 'l': 74,
}

const keyHelp = "a-l play  z/x octave  [/] preset  -/= level  space panic  q quit"

func runKeys(pl *dx7fm.Player) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("-keys needs a terminal on stdin")
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, old)

	// Raw mode turns off output processing too.
	say := func(format string, args ...any) {
		fmt.Printf(format+"\r\n", args...)
	}
	say("%s", keyHelp)

	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		c := buf[0]
		if key, ok := keyNotes[c]; ok {
			pl.Send(midi.NoteOn(0, key, 100))
			time.AfterFunc(noteLength, func() { pl.Send(midi.NoteOff(0, key)) })
			continue
		}
		switch c {
		case 'q', 3: // Ctrl-C
			pl.SetParam("all_notes_off", "1")
			return nil
		case ' ':
			pl.SetParam("panic", "1")
			say("panic")
		case 'z', 'x', '[', ']', '-', '=':
			var report string
			pl.Sync(func(s *dx7fm.Synth) {
				adjust(s, c)
				report = status(s)
			})
			say("%s", report)
		}
	}
}

func adjust(s *dx7fm.Synth, c byte) {
	switch c {
	case 'z':
		s.Router().SetOctave(s.Router().Octave() - 1)
	case 'x':
		s.Router().SetOctave(s.Router().Octave() + 1)
	case '[':
		s.SelectPreset(s.Preset() - 1)
	case ']':
		s.SelectPreset(s.Preset() + 1)
	case '-', '=':
		v, _ := s.Get(dx7fm.ParamOutputLevel)
		step := 5
		if c == '-' {
			step = -5
		}
		s.Set(dx7fm.ParamOutputLevel, dx7fm.IntValue(v.Int+step))
	}
}

func status(s *dx7fm.Synth) string {
	level, _ := s.GetParam("output_level")
	alg, _ := s.GetParam("algorithm")
	return fmt.Sprintf("%s %-10s alg %2s  oct %+d  level %s",
		position(s), strings.TrimSpace(s.PatchName()), alg, s.Router().Octave(), level)
}
