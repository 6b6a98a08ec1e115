package bank

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/cbegin/dx7fm-go/internal/patch"
)

const (
	// SysexSize is the size of a 32-voice bulk dump: 6 header bytes, 32
	// packed voices and the checksum/EOX tail the loader does not inspect.
	SysexSize  = 4104
	VoiceCount = 32
	MaxPresets = 128
	headerSize = 6
)

var (
	ErrSize   = errors.New("invalid syx size")
	ErrHeader = errors.New("invalid DX7 sysex header")
)

// Preset is one decoded voice and its display name.
type Preset struct {
	Patch patch.Patch
	Name  string
}

// Bank is an immutable, ordered set of presets. It is built in one shot and
// replaced as a whole, never edited in place.
type Bank struct {
	presets []Preset
	path    string
}

// Default returns a bank holding only the built-in Init patch.
func Default() *Bank {
	return &Bank{presets: []Preset{{Patch: patch.Default(), Name: "Init"}}}
}

// Parse decodes a 32-voice bulk dump. Header bytes 2, 4 and 5 are not checked.
func Parse(data []byte) (*Bank, error) {
	if len(data) != SysexSize {
		return nil, errors.Wrapf(ErrSize, "%d bytes (expected %d)", len(data), SysexSize)
	}
	if data[0] != 0xF0 || data[1] != 0x43 || data[3] != 0x09 {
		return nil, errors.Wrapf(ErrHeader, "% X", data[:headerSize])
	}
	b := &Bank{presets: make([]Preset, VoiceCount)}
	for i := range b.presets {
		var pk patch.Packed
		off := headerSize + i*patch.PackedSize
		copy(pk[:], data[off:off+patch.PackedSize])
		b.presets[i].Patch = patch.Unpack(&pk)
		b.presets[i].Name = b.presets[i].Patch.Name()
	}
	return b, nil
}

// Load reads and parses a bank file. The size is checked before reading.
func Load(path string) (*Bank, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	if fi.Size() != SysexSize {
		return nil, errors.Wrapf(ErrSize, "%s: %d bytes (expected %d)", path, fi.Size(), SysexSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	b.path = path
	return b, nil
}

func (b *Bank) Len() int { return len(b.presets) }

// Wrap folds an index into [0, Len): negative selects the last preset and
// anything past the end selects the first.
func (b *Bank) Wrap(index int) int {
	n := len(b.presets)
	if n == 0 {
		return 0
	}
	if index < 0 {
		return n - 1
	}
	if index >= n {
		return 0
	}
	return index
}

// Preset returns the preset at the wrapped index.
func (b *Bank) Preset(index int) *Preset {
	return &b.presets[b.Wrap(index)]
}

// Path is the file the bank was loaded from, empty for built-in banks.
func (b *Bank) Path() string { return b.path }

// Name is the bank's display name: the file name without its extension.
func (b *Bank) Name() string {
	if b.path == "" {
		return "Init"
	}
	base := filepath.Base(b.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
