package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/dx7fm-go"
	"github.com/cbegin/dx7fm-go/internal/patch"
)

const maxNoteMillis = 10000

// session reaches the synth only through run, which executes on the audio
// goroutine.
type session struct {
	run    func(func(*dx7fm.Synth))
	send   func([]byte)
	load   func(path string) error
	logger *slog.Logger
}

func (ss *session) register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("dx7_set-param",
		mcp.WithDescription("Sets a synth parameter: syx_path, preset, octave_transpose, output_level, panic, all_notes_off or state."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Parameter key.")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value as a string.")),
	), ss.setParam)

	s.AddTool(mcp.NewTool("dx7_get-param",
		mcp.WithDescription("Reads a synth parameter, including read-only ones such as patch_name, bank_position, algorithm and polyphony."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Parameter key.")),
	), ss.getParam)

	s.AddTool(mcp.NewTool("dx7_last-error",
		mcp.WithDescription("Returns the last bank load error, or an empty string."),
	), ss.lastError)

	s.AddTool(mcp.NewTool("dx7_list-presets",
		mcp.WithDescription("Lists the presets of the loaded bank."),
	), ss.listPresets)

	s.AddTool(mcp.NewTool("dx7_describe-patch",
		mcp.WithDescription("Returns the current patch's algorithm, feedback and operator settings as JSON."),
	), ss.describePatch)

	s.AddTool(mcp.NewTool("dx7_play-notes",
		mcp.WithDescription("Plays MIDI notes together for a while, then releases them."),
		mcp.WithString("notes", mcp.Required(), mcp.Description("Comma separated MIDI note numbers, e.g. 60,63,67.")),
		mcp.WithNumber("velocity", mcp.Description("Velocity 1-127 (default 100).")),
		mcp.WithNumber("millis", mcp.Description("How long to hold the notes (default 800).")),
	), ss.playNotes)

	s.AddTool(mcp.NewTool("dx7_render-midi",
		mcp.WithDescription("Renders a Standard MIDI File to a WAV file with the current bank, preset and settings."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Path to the .mid file.")),
		mcp.WithString("output", mcp.Required(), mcp.Description("Path of the WAV file to write.")),
		mcp.WithNumber("max_seconds", mcp.Description("Stop after this much audio (default 300).")),
	), ss.renderMIDI)
}

func (ss *session) setParam(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ss.logger.Info("set param", "key", key, "value", value)
	if _, ok := dx7fm.LookupParam(key); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown parameter %q", key)), nil
	}
	if key == "syx_path" {
		// Parsed here so a bad file never reaches the audio goroutine.
		if err := ss.load(value); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var name string
		ss.run(func(s *dx7fm.Synth) { name = s.Bank().Name() })
		return mcp.NewToolResultText("loaded bank " + name), nil
	}
	var got string
	ss.run(func(s *dx7fm.Synth) {
		s.SetParam(key, value)
		got, _ = s.GetParam(key)
	})
	return mcp.NewToolResultText(got), nil
}

func (ss *session) getParam(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var (
		got string
		ok  bool
	)
	ss.run(func(s *dx7fm.Synth) { got, ok = s.GetParam(key) })
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("parameter %q has no value", key)), nil
	}
	return mcp.NewToolResultText(got), nil
}

func (ss *session) lastError(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var msg string
	ss.run(func(s *dx7fm.Synth) { msg = s.LastError() })
	return mcp.NewToolResultText(msg), nil
}

func (ss *session) listPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	ss.run(func(s *dx7fm.Synth) {
		b := s.Bank()
		for i := 0; i < b.Len(); i++ {
			mark := " "
			if i == s.Preset() {
				mark = "*"
			}
			fmt.Fprintf(&sb, "%s%3d %s\n", mark, i, b.Preset(i).Name)
		}
	})
	return mcp.NewToolResultText(sb.String()), nil
}

type operatorInfo struct {
	Op          int    `json:"op"`
	OutputLevel int    `json:"output_level"`
	Mode        string `json:"mode"`
	Coarse      int    `json:"coarse"`
	Fine        int    `json:"fine"`
	Detune      int    `json:"detune"`
	Rates       [4]int `json:"rates"`
	Levels      [4]int `json:"levels"`
}

type patchInfo struct {
	Name      string         `json:"name"`
	Algorithm int            `json:"algorithm"`
	Feedback  int            `json:"feedback"`
	Operators []operatorInfo `json:"operators"`
}

func describe(name string, p *patch.Patch) patchInfo {
	info := patchInfo{
		Name:      strings.TrimSpace(name),
		Algorithm: p.Algorithm() + 1,
		Feedback:  int(p[patch.Feedback]),
	}
	for op := 0; op < patch.NumOperators; op++ {
		oi := operatorInfo{
			Op:          op + 1,
			OutputLevel: int(p.Op(op, patch.OpOutputLevel)),
			Mode:        "ratio",
			Coarse:      int(p.Op(op, patch.OpFreqCoarse)),
			Fine:        int(p.Op(op, patch.OpFreqFine)),
			Detune:      int(p.Op(op, patch.OpDetune)) - 7,
		}
		if p.Op(op, patch.OpOscMode) != 0 {
			oi.Mode = "fixed"
		}
		for i := 0; i < 4; i++ {
			oi.Rates[i] = int(p.Op(op, patch.OpRate1+i))
			oi.Levels[i] = int(p.Op(op, patch.OpLevel1+i))
		}
		info.Operators = append(info.Operators, oi)
	}
	return info
}

func (ss *session) describePatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var info patchInfo
	ss.run(func(s *dx7fm.Synth) {
		p := s.Patch()
		info = describe(s.PatchName(), &p)
	})
	asJSON, err := json.MarshalIndent(&info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch to JSON: %v", err)
	}
	return mcp.NewToolResultText(string(asJSON)), nil
}

func parseNotes(list string) ([]uint8, error) {
	var notes []uint8
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("bad note %q", f)
		}
		notes = append(notes, uint8(n))
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("no notes given")
	}
	return notes, nil
}

func (ss *session) playNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := request.RequireString("notes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := parseNotes(list)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vel := uint8(max(1, min(request.GetInt("velocity", 100), 127)))
	hold := time.Duration(max(0, min(request.GetInt("millis", 800), maxNoteMillis))) * time.Millisecond

	for _, n := range notes {
		ss.send(midi.NoteOn(0, n, vel))
	}
	select {
	case <-time.After(hold):
	case <-ctx.Done():
	}
	for _, n := range notes {
		ss.send(midi.NoteOff(0, n))
	}
	return mcp.NewToolResultText(fmt.Sprintf("played %d notes", len(notes))), nil
}

func (ss *session) renderMIDI(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := request.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxSeconds := request.GetFloat("max_seconds", 300)

	// Offline rendering uses its own instance so live notes are unaffected.
	var (
		sampleRate int
		bankPath   string
		state      string
	)
	ss.run(func(s *dx7fm.Synth) {
		sampleRate = s.SampleRate()
		bankPath = s.BankPath()
		state = s.State()
	})
	off := dx7fm.New(dx7fm.WithSampleRate(sampleRate), dx7fm.WithLogger(ss.logger))
	if bankPath != "" {
		if err := off.LoadBank(bankPath); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	off.SetState(state)

	samples, err := dx7fm.RenderSMF(off, in, maxSeconds)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := dx7fm.WriteWAVFile(out, samples, sampleRate); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	secs := float64(len(samples)/2) / float64(sampleRate)
	return mcp.NewToolResultText(fmt.Sprintf("wrote %s (%.2fs)", out, secs)), nil
}
