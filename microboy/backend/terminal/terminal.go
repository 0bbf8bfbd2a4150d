// Package terminal renders the emulator in a terminal with tcell, using half
// block characters so one cell shows two vertically stacked pixels.
package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-microboy/microboy/backend"
	"github.com/valerio/go-microboy/microboy/cpu"
	"github.com/valerio/go-microboy/microboy/input"
	"github.com/valerio/go-microboy/microboy/input/action"
	"github.com/valerio/go-microboy/microboy/input/event"
	"github.com/valerio/go-microboy/microboy/video"
)

const (
	gameAreaWidth  = video.Width
	panelX         = gameAreaWidth + 2
	registerHeight = 7
	disasmHeight   = 7
	logCapacity    = 200

	// keyTimeout releases a game key when the terminal stops repeating it.
	// Terminals report no key up events.
	keyTimeout = 100 * time.Millisecond
)

// Backend implements the Backend interface using tcell for terminal rendering
type Backend struct {
	screen     tcell.Screen
	config     backend.Config
	logBuffer  *LogBuffer
	logLevel   *slog.LevelVar
	eventQueue []backend.InputEvent
	quit       chan os.Signal
	player     *otoPlayer

	keyStates  map[action.Action]time.Time // Last time each key was seen
	activeKeys map[action.Action]bool      // Keys active in previous frame
	now        func() time.Time
}

// New creates a new terminal backend
func New() *Backend {
	return &Backend{now: time.Now}
}

// NewWithScreen creates a backend drawing on screen instead of the
// controlling terminal.
func NewWithScreen(screen tcell.Screen) *Backend {
	b := New()
	b.screen = screen
	return b
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.Config) error {
	t.config = config
	if t.config.Palette == (video.Palette{}) {
		t.config.Palette = video.GreyPalette
	}
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// Capture logs into the side panel
	t.logBuffer = NewLogBuffer(logCapacity)
	t.logLevel = new(slog.LevelVar)
	t.logLevel.Set(config.LogLevel)
	slog.SetDefault(slog.New(NewLogBufferHandler(t.logBuffer, t.logLevel)))

	if config.Audio != nil {
		player, err := newOtoPlayer()
		if err != nil {
			slog.Warn("Audio disabled", "error", err)
		} else {
			t.player = player
		}
	}

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	// Set up signal handling for graceful shutdown
	t.quit = make(chan os.Signal, 1)
	signal.Notify(t.quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	slog.Info("Terminal backend initialized")
	return nil
}

// Update renders a frame and processes events
func (t *Backend) Update(frame *video.Frame) ([]backend.InputEvent, error) {
	now := t.now()

	select {
	case sig := <-t.quit:
		slog.Info("Signal received", "signal", sig.String())
		t.queue(action.EmulatorQuit)
	default:
	}

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := t.gameKeyEvents(now)
	events = append(events, t.eventQueue...)
	t.eventQueue = nil

	if t.config.Audio != nil {
		samples := t.config.Audio.Drain()
		if t.player != nil {
			t.player.push(samples)
		}
	}

	t.render(frame)
	t.screen.Show()

	return events, nil
}

// gameKeyEvents turns the seen key timestamps into Press, Hold and Release
// events.
func (t *Backend) gameKeyEvents(now time.Time) []backend.InputEvent {
	var events []backend.InputEvent
	currentlyActive := make(map[action.Action]bool)

	for act, lastPressed := range t.keyStates {
		if now.Sub(lastPressed) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}
		currentlyActive[act] = true
		if t.activeKeys[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		} else {
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		}
	}

	for act := range t.activeKeys {
		if !currentlyActive[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}

	t.activeKeys = currentlyActive
	return events
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.quit != nil {
		signal.Stop(t.quit)
	}
	if t.player != nil {
		if err := t.player.close(); err != nil {
			slog.Warn("Failed to close audio player", "error", err)
		}
	}
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

func (t *Backend) queue(act action.Action) {
	t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyEnter:      "Enter",
	tcell.KeyBackspace:  "Backspace",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyEscape:     "Escape",
	tcell.KeyF1:         "F1",
	tcell.KeyF2:         "F2",
	tcell.KeyF3:         "F3",
	tcell.KeyF4:         "F4",
	tcell.KeyF9:         "F9",
}

// buildKeyMapping creates the key mapping from default mappings
func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)
	for key, keyName := range tcellKeyNameMap {
		if act, ok := input.GetDefaultMapping(keyName); ok {
			mapping[key] = act
		}
	}
	mapping[tcell.KeyCtrlC] = action.EmulatorQuit
	return mapping
}

// keyMapping maps tcell keys to actions
var keyMapping = buildKeyMapping()

func runeAction(r rune) (action.Action, bool) {
	if r == ' ' {
		return input.GetDefaultMapping("Space")
	}
	return input.GetDefaultMapping(string(r))
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	act, ok := keyMapping[ev.Key()]
	if !ok && ev.Key() == tcell.KeyRune {
		act, ok = runeAction(ev.Rune())
	}
	if !ok {
		return
	}

	switch {
	case act.IsGameBoy():
		if isDPad(act) {
			// directions are exclusive, the newest one wins
			for _, d := range []action.Action{action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight} {
				delete(t.keyStates, d)
			}
		}
		t.keyStates[act] = now
	case act == action.DebugLogLevelIncrease:
		t.changeLogLevel(1)
	case act == action.DebugLogLevelDecrease:
		t.changeLogLevel(-1)
	default:
		t.queue(act)
	}
}

func isDPad(act action.Action) bool {
	return act == action.GBDPadUp || act == action.GBDPadDown ||
		act == action.GBDPadLeft || act == action.GBDPadRight
}

// changeLogLevel moves one step towards Debug (1) or Error (-1).
func (t *Backend) changeLogLevel(direction int) {
	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	old := t.logLevel.Level()
	i := 0
	for i < len(levels)-1 && levels[i] < old {
		i++
	}
	i = max(0, min(len(levels)-1, i-direction))
	if levels[i] != old {
		t.logLevel.Set(levels[i])
		slog.Warn("Log filter changed", "from", old, "to", levels[i])
	}
}

// LogLevel returns the current capture level.
func (t *Backend) LogLevel() slog.Level {
	return t.logLevel.Level()
}

func (t *Backend) render(frame *video.Frame) {
	t.screen.Clear()

	termWidth, termHeight := t.screen.Size()
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	t.drawText(1, 0, termWidth, " Game Boy ", titleStyle)
	t.drawGameBoy(frame)

	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for y := range termHeight {
		t.screen.SetContent(panelX-1, y, '│', nil, borderStyle)
	}

	y := 0
	if t.config.Debug != nil {
		t.drawText(panelX+1, y, termWidth, " CPU ", titleStyle)
		y = t.drawRegisters(y+1, termWidth)
		t.drawText(panelX+1, y, termWidth, " Disassembly ", titleStyle)
		y = t.drawDisassembly(y+1, termWidth)
	}
	if t.config.Audio != nil {
		t.drawText(panelX+1, y, termWidth, " Audio ", titleStyle)
		y = t.drawChannels(y+1, termWidth)
	}

	t.drawText(panelX+1, y, termWidth, fmt.Sprintf(" Logs [%s] (-/+ filter) ", t.logLevel.Level()), titleStyle)
	t.drawLogs(y+1, termWidth, termHeight-1)

	help := " z/x=A/B Enter=Start Bksp=Select  Space=pause o=frame r=resume F9=snapshot F1-4/1-4/0=audio q=quit "
	t.drawText(0, termHeight-1, termWidth, help, borderStyle)
}

func (t *Backend) drawGameBoy(frame *video.Frame) {
	if frame == nil {
		return
	}
	for y := 0; y < video.Height; y += 2 {
		for x := range video.Width {
			ch, style := halfBlock(frame.At(x, y), frame.At(x, y+1), t.config.Palette)
			t.screen.SetContent(x, y/2+1, ch, nil, style)
		}
	}
}

// halfBlock draws the top pixel with the foreground of an upper half block
// and the bottom pixel with its background.
func halfBlock(top, bottom uint8, p video.Palette) (rune, tcell.Style) {
	tc, bc := p[top&3], p[bottom&3]
	style := tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(tc.R), int32(tc.G), int32(tc.B))).
		Background(tcell.NewRGBColor(int32(bc.R), int32(bc.G), int32(bc.B)))
	return '▀', style
}

func (t *Backend) drawText(x, y, maxX int, text string, style tcell.Style) {
	for _, ch := range text {
		if x >= maxX {
			return
		}
		t.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

func (t *Backend) drawRegisters(y, termWidth int) int {
	regs := t.config.Debug.Registers()
	lines := []string{
		fmt.Sprintf("A: %02X  F: %02X  %s", regs.A, regs.F, regs.Flags()),
		fmt.Sprintf("B: %02X  C: %02X", regs.B, regs.C),
		fmt.Sprintf("D: %02X  E: %02X", regs.D, regs.E),
		fmt.Sprintf("H: %02X  L: %02X", regs.H, regs.L),
		fmt.Sprintf("SP: %04X  PC: %04X", regs.SP, regs.PC),
		fmt.Sprintf("IME: %t  HALT: %t", regs.IME, regs.Halted),
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for i, line := range lines {
		t.drawText(panelX+1, y+i, termWidth, line, style)
	}
	return y + registerHeight
}

// debugBus adapts a DebugProvider to cpu.Bus for the disassembler.
type debugBus struct {
	backend.DebugProvider
}

func (debugBus) Write(uint16, uint8) {}

func (t *Backend) drawDisassembly(y, termWidth int) int {
	bus := debugBus{t.config.Debug}
	pc := t.config.Debug.Registers().PC

	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	current := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	address := pc
	for i := range disasmHeight - 1 {
		text, length := cpu.Disassemble(bus, address)
		useStyle, marker := style, ' '
		if i == 0 {
			useStyle, marker = current, '>'
		}
		t.drawText(panelX+1, y+i, termWidth, fmt.Sprintf("%c %04X: %s", marker, address, text), useStyle)
		address += uint16(length)
	}
	return y + disasmHeight
}

func (t *Backend) drawChannels(y, termWidth int) int {
	status := t.config.Audio.ChannelStatus()
	line := ""
	for i, on := range status {
		mark := "-"
		if on {
			mark = "*"
		}
		line += fmt.Sprintf("CH%d:%s ", i+1, mark)
	}
	t.drawText(panelX+1, y, termWidth, line, tcell.StyleDefault.Foreground(tcell.ColorTeal))
	return y + 2
}

func (t *Backend) drawLogs(startY, termWidth, endY int) {
	available := endY - startY
	if available <= 0 {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range t.logBuffer.GetRecent(available) {
		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}
		t.drawText(panelX+1, startY+i, termWidth, FormatLogEntry(entry), style)
	}
}
