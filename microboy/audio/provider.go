package audio

// Provider is what host audio players and debug views need from the APU.
type Provider interface {
	// Drain retrieves the samples produced since the last call
	Drain() []float32

	// Audio debugging controls

	ToggleChannel(channel int)
	SoloChannel(channel int)
	UnmuteAll()
	ChannelStatus() [4]bool
}

var _ Provider = (*APU)(nil)
