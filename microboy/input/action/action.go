package action

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// Game Boy hardware controls
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features
	EmulatorSnapshot
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorResume
	EmulatorQuit

	// Audio debug controls
	AudioToggleChannel1
	AudioToggleChannel2
	AudioToggleChannel3
	AudioToggleChannel4
	AudioSoloChannel1
	AudioSoloChannel2
	AudioSoloChannel3
	AudioSoloChannel4
	AudioUnmuteAll

	// Debug controls
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

var names = map[Action]string{
	GBButtonA:             "A",
	GBButtonB:             "B",
	GBButtonStart:         "Start",
	GBButtonSelect:        "Select",
	GBDPadUp:              "Up",
	GBDPadDown:            "Down",
	GBDPadLeft:            "Left",
	GBDPadRight:           "Right",
	EmulatorSnapshot:      "Snapshot",
	EmulatorPauseToggle:   "Pause",
	EmulatorStepFrame:     "StepFrame",
	EmulatorResume:        "Resume",
	EmulatorQuit:          "Quit",
	AudioToggleChannel1:   "ToggleChannel1",
	AudioToggleChannel2:   "ToggleChannel2",
	AudioToggleChannel3:   "ToggleChannel3",
	AudioToggleChannel4:   "ToggleChannel4",
	AudioSoloChannel1:     "SoloChannel1",
	AudioSoloChannel2:     "SoloChannel2",
	AudioSoloChannel3:     "SoloChannel3",
	AudioSoloChannel4:     "SoloChannel4",
	AudioUnmuteAll:        "UnmuteAll",
	DebugLogLevelIncrease: "LogLevelUp",
	DebugLogLevelDecrease: "LogLevelDown",
}

func (a Action) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return "Unknown"
}

// IsGameBoy reports whether a maps to a joypad button.
func (a Action) IsGameBoy() bool {
	return a >= GBButtonA && a <= GBDPadRight
}
