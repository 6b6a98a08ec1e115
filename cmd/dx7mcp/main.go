package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/cbegin/dx7fm-go"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML or JSON defaults file")
		sampleRate = flag.Int("sample-rate", dx7fm.DefaultSampleRate, "output sample rate")
	)
	flag.Parse()

	// Stdout carries the protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cfg dx7fm.Config
	if *configPath != "" {
		var err error
		if cfg, err = dx7fm.LoadConfig(*configPath); err != nil {
			logger.Error("config", "err", err)
			os.Exit(1)
		}
	}
	synth := dx7fm.New(dx7fm.WithSampleRate(*sampleRate), dx7fm.WithLogger(logger), dx7fm.WithConfig(cfg))
	pl, err := dx7fm.NewPlayer(synth)
	if err != nil {
		logger.Error("player", "err", err)
		os.Exit(1)
	}
	if err := pl.Start(); err != nil {
		logger.Error("audio", "err", err)
		os.Exit(1)
	}
	defer pl.Stop()

	sess := &session{
		run:    pl.Sync,
		send:   pl.Send,
		load:   pl.LoadBank,
		logger: logger,
	}
	s := server.NewMCPServer("DX7 FM", "1.0.0", server.WithToolCapabilities(false))
	sess.register(s)

	logger.Info("starting MCP server")
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
	}
}
