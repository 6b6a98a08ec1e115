package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/dx7fm-go"
)

func newTestSession(s *dx7fm.Synth) *session {
	return &session{
		run:    func(fn func(*dx7fm.Synth)) { fn(s) },
		send:   s.HandleMIDI,
		load:   s.LoadBank,
		logger: slog.New(slog.DiscardHandler),
	}
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var text string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			text += tc.Text
		case *mcp.TextContent:
			text += tc.Text
		}
	}
	return text, res.IsError
}

func TestSetAndGetParamTools(t *testing.T) {
	ss := newTestSession(dx7fm.New())

	got, isErr := call(t, ss.setParam, map[string]any{"key": "output_level", "value": "140"})
	if isErr || got != "100" {
		t.Fatalf("set output_level = %q (error %v)", got, isErr)
	}
	got, isErr = call(t, ss.getParam, map[string]any{"key": "bank_position"})
	if isErr || got != "1/1" {
		t.Fatalf("bank_position = %q (error %v)", got, isErr)
	}
	if _, isErr := call(t, ss.setParam, map[string]any{"key": "volume", "value": "1"}); !isErr {
		t.Fatal("unknown key accepted")
	}
	if _, isErr := call(t, ss.getParam, map[string]any{}); !isErr {
		t.Fatal("missing key accepted")
	}
}

func TestBadBankReportsError(t *testing.T) {
	s := dx7fm.New()
	ss := newTestSession(s)
	_, isErr := call(t, ss.setParam, map[string]any{"key": "syx_path", "value": filepath.Join(t.TempDir(), "x.syx")})
	if !isErr {
		t.Fatal("expected tool error")
	}
	msg, _ := call(t, ss.lastError, nil)
	if msg == "" {
		t.Fatal("last error is empty")
	}
	list, _ := call(t, ss.listPresets, nil)
	if !strings.HasPrefix(list, "*  0 Init") {
		t.Fatalf("presets = %q", list)
	}
}

func TestDescribePatch(t *testing.T) {
	ss := newTestSession(dx7fm.New())
	got, isErr := call(t, ss.describePatch, nil)
	if isErr {
		t.Fatal(got)
	}
	var info patchInfo
	if err := json.Unmarshal([]byte(got), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Name != "Init" || info.Algorithm != 1 || len(info.Operators) != 6 {
		t.Fatalf("info = %+v", info)
	}
	if info.Operators[0].OutputLevel != 99 || info.Operators[1].OutputLevel != 0 {
		t.Fatalf("operator levels = %d, %d", info.Operators[0].OutputLevel, info.Operators[1].OutputLevel)
	}
}

func TestPlayNotes(t *testing.T) {
	var sent []midi.Message
	ss := newTestSession(dx7fm.New())
	ss.send = func(msg []byte) { sent = append(sent, midi.Message(msg)) }

	got, isErr := call(t, ss.playNotes, map[string]any{"notes": "60, 64,67", "millis": float64(0)})
	if isErr {
		t.Fatal(got)
	}
	if len(sent) != 6 {
		t.Fatalf("sent %d messages, want 6", len(sent))
	}
	var ch, key, vel uint8
	if !sent[1].GetNoteStart(&ch, &key, &vel) || key != 64 || vel != 100 {
		t.Fatalf("second message = %v", sent[1])
	}
	if !sent[5].GetNoteEnd(&ch, &key) || key != 67 {
		t.Fatalf("last message = %v", sent[5])
	}

	if _, isErr := call(t, ss.playNotes, map[string]any{"notes": "60,200"}); !isErr {
		t.Fatal("out of range note accepted")
	}
}

func TestParseNotes(t *testing.T) {
	cases := []struct {
		in      string
		want    []uint8
		wantErr bool
	}{
		{"60", []uint8{60}, false},
		{"0,127", []uint8{0, 127}, false},
		{" 48 , 55 ,", []uint8{48, 55}, false},
		{"", nil, true},
		{"c4", nil, true},
		{"-1", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseNotes(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}
