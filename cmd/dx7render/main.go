package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cbegin/dx7fm-go"
	"github.com/cbegin/dx7fm-go/internal/effects"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", dx7fm.DefaultSampleRate, "output sample rate")
		syxPath    = flag.String("syx", "", "path to a 32-voice DX7 bank (.syx)")
		preset     = flag.Int("preset", 0, "preset to render with (0-based)")
		octave     = flag.Int("octave", 0, "octave transpose (-4..+4)")
		level      = flag.Int("level", 50, "output level 0-100")
		maxSeconds = flag.Float64("max-seconds", 600, "stop after this much audio (0 = no limit)")
		outPath    = flag.String("o", "", "output WAV path (default: input with .wav)")
		chorus     = flag.Float64("chorus", 0, "stereo chorus mix 0-1")
		delay      = flag.Float64("delay", 0, "ping-pong delay mix 0-1")
		reverb     = flag.Float64("reverb", 0, "reverb mix 0-1")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dx7render [flags] song.mid")
		flag.PrintDefaults()
		os.Exit(2)
	}
	in := flag.Arg(0)
	out := *outPath
	if out == "" {
		out = strings.TrimSuffix(in, ".mid") + ".wav"
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	synth := dx7fm.New(
		dx7fm.WithSampleRate(*sampleRate),
		dx7fm.WithLogger(logger),
		dx7fm.WithConfig(dx7fm.Config{
			SyxPath:         *syxPath,
			Preset:          preset,
			OctaveTranspose: *octave,
			OutputLevel:     level,
			Effects: effects.Settings{
				Chorus: float32(*chorus),
				Delay:  float32(*delay),
				Reverb: float32(*reverb),
			},
		}),
	)
	if *syxPath != "" && synth.LastError() != "" {
		log.Fatal(synth.LastError())
	}

	samples, err := dx7fm.RenderSMF(synth, in, *maxSeconds)
	if err != nil {
		log.Fatal(err)
	}
	if err := dx7fm.WriteWAVFile(out, samples, synth.SampleRate()); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %.2fs with %q\n", out, float64(len(samples)/2)/float64(synth.SampleRate()), strings.TrimSpace(synth.PatchName()))
}
