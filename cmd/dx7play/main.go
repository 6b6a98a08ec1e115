package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cbegin/dx7fm-go"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", dx7fm.DefaultSampleRate, "output sample rate")
		configPath = flag.String("config", "", "path to a YAML or JSON defaults file")
		syxPath    = flag.String("syx", "", "path to a 32-voice DX7 bank (.syx)")
		preset     = flag.Int("preset", -1, "preset to select after loading (0-based)")
		octave     = flag.Int("octave", 0, "octave transpose (-4..+4)")
		level      = flag.Int("level", -1, "output level 0-100")
		midiPath   = flag.String("file", "", "path to a Standard MIDI File to play")
		loop       = flag.Bool("loop", false, "loop the MIDI file until interrupted")
		keys       = flag.Bool("keys", false, "play from the computer keyboard")
		midiIn     = flag.String("midi-in", "", "play from the MIDI input whose name contains this")
		listPorts  = flag.Bool("list-ports", false, "list MIDI inputs and exit")
		chorus     = flag.Float64("chorus", -1, "stereo chorus mix 0-1")
		reverb     = flag.Float64("reverb", -1, "reverb mix 0-1")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()
	if *listPorts {
		fmt.Print(midi.GetInPorts().String())
		midi.CloseDriver()
		return
	}
	if *midiPath == "" && flag.NArg() > 0 {
		*midiPath = flag.Arg(0)
	}
	if !*keys && *midiIn == "" && *midiPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to play: pass a MIDI file, -midi-in or -keys")
		os.Exit(2)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := resolveConfig(*configPath, *syxPath, *preset, *octave, *level)
	if err != nil {
		log.Fatal(err)
	}
	if *chorus >= 0 {
		cfg.Effects.Chorus = float32(*chorus)
	}
	if *reverb >= 0 {
		cfg.Effects.Reverb = float32(*reverb)
	}
	synth := dx7fm.New(dx7fm.WithSampleRate(*sampleRate), dx7fm.WithLogger(logger), dx7fm.WithConfig(cfg))
	if msg := synth.LastError(); msg != "" {
		fmt.Fprintf(os.Stderr, "using the Init voice: %s\n", msg)
	}
	fmt.Printf("%s  %s  %s\n", synth.Bank().Name(), position(synth), strings.TrimSpace(synth.PatchName()))

	pl, err := dx7fm.NewPlayer(synth)
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}
	defer pl.Stop()

	switch {
	case *keys:
		if err := runKeys(pl); err != nil {
			log.Fatal(err)
		}
	case *midiIn != "":
		stop, err := listen(pl, *midiIn)
		if err != nil {
			log.Fatal(err)
		}
		defer midi.CloseDriver()
		defer stop()
		waitInterrupt()
	default:
		done, err := pl.PlaySMF(*midiPath, *loop)
		if err != nil {
			log.Fatal(err)
		}
		select {
		case <-done:
			fmt.Println("playback completed")
		case <-interrupted():
		}
	}
}

func resolveConfig(path, syx string, preset, octave, level int) (dx7fm.Config, error) {
	var cfg dx7fm.Config
	if path != "" {
		var err error
		if cfg, err = dx7fm.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if syx != "" {
		cfg.SyxPath = syx
	}
	if preset >= 0 {
		cfg.Preset = &preset
	}
	if octave != 0 {
		cfg.OctaveTranspose = octave
	}
	if level >= 0 {
		cfg.OutputLevel = &level
	}
	return cfg, nil
}

func position(s *dx7fm.Synth) string {
	v, _ := s.GetParam("bank_position")
	return v
}

func interrupted() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch
}

func waitInterrupt() { <-interrupted() }

// listen forwards channel messages from the first input port whose name
// contains nameHint.
func listen(pl *dx7fm.Player, nameHint string) (func(), error) {
	lower := strings.ToLower(nameHint)
	for _, in := range midi.GetInPorts() {
		if !strings.Contains(strings.ToLower(in.String()), lower) {
			continue
		}
		stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
			pl.Send(msg)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "listen on %s", in.String())
		}
		fmt.Printf("listening on %s\n", in.String())
		return stop, nil
	}
	return nil, errors.Errorf("no MIDI input contains %q", nameHint)
}
