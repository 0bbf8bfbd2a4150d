package audio

// Timing constants
// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	// ClockRate is the number of T-cycles per second.
	ClockRate = 4194304
	// SampleRate is the output rate of the sample queue.
	SampleRate = 44100

	// maxQueuedSamples caps the queue when nobody drains it (one second).
	maxQueuedSamples = SampleRate
	// queueRetain is how many of the newest samples survive a trim.
	queueRetain = SampleRate / 4
)

// Channel constants
const (
	// waveRAMSize is the size of wave pattern RAM in bytes (16 bytes = 32 nibbles)
	waveRAMSize = 16

	pulseLength = 64
	waveLength  = 256
	noiseLength = 64

	maxFrequency = 2047
)

// register bits
const (
	triggerBit       = 7
	lengthEnableBit  = 6
	envelopeUpBit    = 3
	sweepNegateBit   = 3
	waveDACBit       = 7
	noiseWidthBit    = 3
	powerBit         = 7
	dacEnabledMask   = 0xF8
	nr52UnusedMask   = 0x70
	registerCount    = 0x20
	lfsrInitialValue = 0x7FFF
)

var dutyPatterns = [4]uint8{
	0b00000001, // 12.5%
	0b10000001, // 25%
	0b10000111, // 50%
	0b01111110, // 75%
}

// noiseDivisors maps NR43 bits 0-2 to the base LFSR period in T-cycles.
var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// waveShifts maps NR32 bits 5-6 to the right shift applied to wave samples.
var waveShifts = [4]uint8{4, 0, 1, 2}

// readMasks are OR-ed into register reads, FF10-FF2F. Write-only bits read
// back as 1.
var readMasks = [registerCount]uint8{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // unused, NR21-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // unused, NR41-NR44
	0x00, 0x00, 0x70, // NR50-NR52
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
}
