package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/dx7fm-go"
)

const (
	windowW = 980
	windowH = 520

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	firstKey  = 48 // C3
	whiteKeys = 22
)

var (
	bgColor         = color.RGBA{52, 40, 36, 255}
	panelColor      = color.RGBA{192, 192, 192, 255}
	borderColor     = color.RGBA{128, 128, 128, 255}
	bevelLight      = color.RGBA{255, 255, 255, 255}
	bevelDarker     = color.RGBA{64, 64, 64, 255}
	lcdColor        = color.RGBA{24, 40, 24, 255}
	sliderFillColor = color.RGBA{0, 110, 100, 255}
	whiteKeyColor   = color.RGBA{236, 236, 228, 255}
	blackKeyColor   = color.RGBA{20, 20, 20, 255}
	heldKeyColor    = color.RGBA{0, 150, 136, 255}
)

// keyboardMap is the usual tracker layout: two rows per octave.
var keyboardMap = map[ebiten.Key]uint8{
	ebiten.KeyZ: 48, ebiten.KeyS: 49, ebiten.KeyX: 50, ebiten.KeyD: 51, ebiten.KeyC: 52,
	ebiten.KeyV: 53, ebiten.KeyG: 54, ebiten.KeyB: 55, ebiten.KeyH: 56, ebiten.KeyN: 57,
	ebiten.KeyJ: 58, ebiten.KeyM: 59,
	ebiten.KeyQ: 60, ebiten.KeyDigit2: 61, ebiten.KeyW: 62, ebiten.KeyDigit3: 63, ebiten.KeyE: 64,
	ebiten.KeyR: 65, ebiten.KeyDigit5: 66, ebiten.KeyT: 67, ebiten.KeyDigit6: 68, ebiten.KeyY: 69,
	ebiten.KeyDigit7: 70, ebiten.KeyU: 71, ebiten.KeyI: 72,
}

// snapshot is what the panel shows. It is taken on the audio goroutine.
type snapshot struct {
	bank      string
	position  string
	name      string
	algorithm string
	voices    int
	octave    int
	level     int
	lastErr   string
}

func take(s *dx7fm.Synth) *snapshot {
	pos, _ := s.GetParam("bank_position")
	alg, _ := s.GetParam("algorithm")
	level, _ := s.Get(dx7fm.ParamOutputLevel)
	return &snapshot{
		bank:      s.Bank().Name(),
		position:  pos,
		name:      strings.TrimSpace(s.PatchName()),
		algorithm: alg,
		voices:    s.ActiveVoices(),
		octave:    s.Router().Octave(),
		level:     level.Int,
		lastErr:   s.LastError(),
	}
}

type game struct {
	player *dx7fm.Player
	view   atomic.Pointer[snapshot]

	midiPath string
	playing  <-chan struct{}

	mouseNote int // -1 when the mouse holds no key
	dragging  int // 0=none, 1=level, 2=octave
	frameTick int

	status    string
	statusErr bool

	textCache map[string]*ebiten.Image
}

func newGame(pl *dx7fm.Player, s *dx7fm.Synth, midiPath string) *game {
	g := &game{
		player:    pl,
		midiPath:  midiPath,
		mouseNote: -1,
		status:    "Ready",
		textCache: make(map[string]*ebiten.Image, 256),
	}
	g.view.Store(take(s))
	return g
}

func (g *game) Update() error {
	g.frameTick++
	if g.frameTick%4 == 0 {
		g.player.Do(func(s *dx7fm.Synth) { g.view.Store(take(s)) })
	}
	if g.playing != nil {
		select {
		case <-g.playing:
			g.playing = nil
			g.setStatus("Playback ended")
		default:
		}
	}
	g.handleKeys()
	g.handleMouse()
	return nil
}

func (g *game) handleKeys() {
	for key, note := range keyboardMap {
		if inpututil.IsKeyJustPressed(key) {
			g.player.Send(midi.NoteOn(0, note, 100))
		}
		if inpututil.IsKeyJustReleased(key) {
			g.player.Send(midi.NoteOff(0, note))
		}
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		g.stepPreset(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		g.stepPreset(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		g.setOctave(g.view.Load().octave - 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		g.setOctave(g.view.Load().octave + 1)
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.player.SetParam("panic", "1")
	}
}

func (g *game) stepPreset(d int) {
	g.player.Do(func(s *dx7fm.Synth) { s.SelectPreset(s.Preset() + d) })
}

func (g *game) setOctave(o int) {
	g.player.SetParam("octave_transpose", fmt.Sprint(o))
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case pointInRect(mx, my, l.prev):
			g.stepPreset(-1)
		case pointInRect(mx, my, l.next):
			g.stepPreset(1)
		case pointInRect(mx, my, l.panic):
			g.player.SetParam("panic", "1")
		case pointInRect(mx, my, l.play):
			g.togglePlay()
		case pointInRect(mx, my, l.level):
			g.dragging = 1
		case pointInRect(mx, my, l.octave):
			g.dragging = 2
		case pointInRect(mx, my, l.keys):
			if n, ok := keyAt(mx, my, l.keys); ok {
				g.mouseNote = n
				g.player.Send(midi.NoteOn(0, uint8(n), 100))
			}
		}
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.dragging = 0
		if g.mouseNote >= 0 {
			g.player.Send(midi.NoteOff(0, uint8(g.mouseNote)))
			g.mouseNote = -1
		}
		return
	}
	switch g.dragging {
	case 1:
		level := sliderValue(mx, l.level, 0, 100)
		if level != g.view.Load().level {
			g.player.SetParam("output_level", fmt.Sprint(level))
		}
	case 2:
		oct := sliderValue(mx, l.octave, -4, 4)
		if oct != g.view.Load().octave {
			g.setOctave(oct)
		}
	}
}

func (g *game) togglePlay() {
	if g.midiPath == "" {
		g.setError("no MIDI file given")
		return
	}
	if g.playing != nil {
		g.playing = nil
		g.player.StopSMF()
		g.setStatus("Stopped")
		return
	}
	done, err := g.player.PlaySMF(g.midiPath, false)
	if err != nil {
		g.setError(err.Error())
		return
	}
	g.playing = done
	g.setStatus("Playing " + filepath.Base(g.midiPath))
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	l := layoutRects()
	v := g.view.Load()

	g.drawDisplay(screen, l.display, v)
	g.drawButton(screen, l.prev, "<")
	g.drawButton(screen, l.next, ">")
	g.drawButton(screen, l.panic, "Panic")
	g.drawButton(screen, l.play, g.playLabel())
	g.drawSlider(screen, l.level, fmt.Sprintf("Lvl %3d", v.level), float64(v.level)/100)
	g.drawSlider(screen, l.octave, fmt.Sprintf("Oct %+d", v.octave), float64(v.octave+4)/8)
	g.drawKeyboard(screen, l.keys)
	g.drawStatus(screen, l.status, v)
}

func (g *game) playLabel() string {
	if g.playing != nil {
		return "Stop"
	}
	return "Play"
}

func (g *game) drawDisplay(screen *ebiten.Image, rect image.Rectangle, v *snapshot) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), lcdColor)
	drawSunkenBorder(screen, rect)
	x := rect.Min.X + 12
	g.drawText(screen, fmt.Sprintf("%s  %s", v.bank, v.position), x, rect.Min.Y+10)
	g.drawText(screen, v.name, x, rect.Min.Y+10+lineH)
	g.drawText(screen, fmt.Sprintf("ALG %s  VOICES %2d", v.algorithm, v.voices), x, rect.Min.Y+10+2*lineH)
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle, v *snapshot) {
	drawPanel(screen, rect)
	msg := "Status: " + g.status
	switch {
	case g.statusErr:
		msg = "Status: ERROR - " + g.status
	case v.lastErr != "":
		msg = "Bank: " + v.lastErr
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+6)
}

func (g *game) drawSlider(screen *ebiten.Image, rect image.Rectangle, label string, frac float64) {
	drawPanel(screen, rect)
	g.drawText(screen, label, rect.Min.X+8, rect.Min.Y+8)

	trackX, trackW := sliderTrack(rect)
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	fillW := int(float64(trackW) * max(0, min(frac, 1)))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	knobX := max(trackX-5, min(trackX+fillW-5, trackX+trackW-5))
	knob := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(knob.Min.X), float64(knob.Min.Y), float64(knob.Dx()), float64(knob.Dy()), panelColor)
	drawBorder(screen, knob)
}

func sliderTrack(rect image.Rectangle) (x, w int) {
	return rect.Min.X + 120, rect.Dx() - 136
}

func sliderValue(mx int, rect image.Rectangle, lo, hi int) int {
	x, w := sliderTrack(rect)
	frac := max(0, min(float64(mx-x)/float64(w), 1))
	return lo + int(frac*float64(hi-lo)+0.5)
}

var blackAfter = [7]bool{true, true, false, true, true, true, false}

// whiteNote returns the MIDI note of the i-th white key.
func whiteNote(i int) int {
	steps := [7]int{0, 2, 4, 5, 7, 9, 11}
	return firstKey + 12*(i/7) + steps[i%7]
}

func keyAt(mx, my int, rect image.Rectangle) (int, bool) {
	kw := rect.Dx() / whiteKeys
	i := (mx - rect.Min.X) / kw
	if i < 0 || i >= whiteKeys {
		return 0, false
	}
	if my < rect.Min.Y+rect.Dy()*6/10 {
		off := (mx - rect.Min.X) % kw
		if off > kw*7/10 && blackAfter[i%7] && i+1 < whiteKeys {
			return whiteNote(i) + 1, true
		}
		if off < kw*3/10 && i > 0 && blackAfter[(i-1)%7] {
			return whiteNote(i) - 1, true
		}
	}
	return whiteNote(i), true
}

func (g *game) drawKeyboard(screen *ebiten.Image, rect image.Rectangle) {
	kw := rect.Dx() / whiteKeys
	for i := 0; i < whiteKeys; i++ {
		c := whiteKeyColor
		if whiteNote(i) == g.mouseNote {
			c = heldKeyColor
		}
		x := rect.Min.X + i*kw
		ebitenutil.DrawRect(screen, float64(x), float64(rect.Min.Y), float64(kw-1), float64(rect.Dy()), c)
	}
	for i := 0; i+1 < whiteKeys; i++ {
		if !blackAfter[i%7] {
			continue
		}
		c := blackKeyColor
		if whiteNote(i)+1 == g.mouseNote {
			c = heldKeyColor
		}
		x := rect.Min.X + i*kw + kw*7/10
		ebitenutil.DrawRect(screen, float64(x), float64(rect.Min.Y), float64(kw*6/10), float64(rect.Dy()*6/10), c)
	}
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return windowW, windowH
}

type uiLayout struct {
	display, prev, next, panic, play image.Rectangle
	level, octave, keys, status      image.Rectangle
}

func layoutRects() uiLayout {
	pad := 20
	rowH := 44
	displayH := 3*lineH + 20
	rowY := pad + displayH + 12
	keysY := rowY + rowH + 12
	statusY := windowH - pad - 36
	return uiLayout{
		display: image.Rect(pad, pad, windowW-pad, pad+displayH),
		prev:    image.Rect(pad, rowY, pad+50, rowY+rowH),
		next:    image.Rect(pad+58, rowY, pad+108, rowY+rowH),
		panic:   image.Rect(pad+120, rowY, pad+220, rowY+rowH),
		play:    image.Rect(pad+228, rowY, pad+318, rowY+rowH),
		level:   image.Rect(pad+330, rowY, pad+630, rowY+rowH),
		octave:  image.Rect(pad+640, rowY, windowW-pad, rowY+rowH),
		keys:    image.Rect(pad, keysY, windowW-pad, statusY-12),
		status:  image.Rect(pad, statusY, windowW-pad, statusY+36),
	}
}

func drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	drawPanel(screen, rect)
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

// drawBorder draws a raised bevel: highlight top/left, shadow bottom/right.
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		img = ebiten.NewImage(max(1, len([]rune(msg))*7), 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 1000 {
			clear(g.textCache)
		}
		g.textCache[msg] = img
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x+2), float64(y+2))
	op.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, op)
	op = &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

func main() {
	var syxPath, midiPath string
	for _, arg := range os.Args[1:] {
		switch strings.ToLower(filepath.Ext(arg)) {
		case ".syx":
			syxPath = arg
		case ".mid", ".midi", ".smf":
			midiPath = arg
		default:
			log.Fatalf("unrecognized file %q (expected .syx or .mid)", arg)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	synth := dx7fm.New(dx7fm.WithLogger(logger), dx7fm.WithConfig(dx7fm.Config{SyxPath: syxPath}))
	pl, err := dx7fm.NewPlayer(synth)
	if err != nil {
		log.Fatal(err)
	}
	g := newGame(pl, synth, midiPath)
	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}
	defer pl.Stop()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("dx7fm")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
