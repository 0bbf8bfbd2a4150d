package audio

import (
	"sync"
	"sync/atomic"

	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/bit"
)

// hpfCharge is the per-sample decay of the output high-pass filter.
const hpfCharge = 0.996

// APU implements the Game Boy's Audio Processing Unit
// Reference: https://gbdev.io/pandocs/Audio.html
//
// Tick, Read, Write and ClockSequencer belong to the emulation goroutine.
// Drain and the channel mute controls may be called from any goroutine.
type APU struct {
	enabled   bool                 // Master audio enable (NR52 bit 7)
	registers [registerCount]uint8 // FF10-FF2F as last written

	ch1 pulse
	ch2 pulse
	ch3 wave
	ch4 noise

	volLeft, volRight uint8  // NR50
	panning           uint8  // NR51
	sequencerStep     uint8  // next frame sequencer step, 0-7
	sampleAcc         uint64 // fractional sample clock, in ClockRate units
	capacitor         float32

	muted [4]atomic.Bool

	queueMu sync.Mutex
	queue   []float32
	dropped uint64
}

// New creates a powered on APU with the post boot register values.
func New() *APU {
	a := &APU{queue: make([]float32, 0, SampleRate/30)}
	a.ch1.hasSweep = true
	a.ch1.length.max = pulseLength
	a.ch2.length.max = pulseLength
	a.ch3.length.max = waveLength
	a.ch4.length.max = noiseLength
	a.ch4.lfsr = lfsrInitialValue
	a.initRegisters()
	return a
}

// initRegisters writes the values the boot ROM leaves behind
// Reference: https://gbdev.io/pandocs/Power_Up_Sequence.html#hardware-registers
func (a *APU) initRegisters() {
	a.Write(addr.NR52, 0x80)
	a.Write(addr.NR10, 0x80)
	a.Write(addr.NR11, 0xBF)
	a.Write(addr.NR12, 0xF3)
	a.Write(addr.NR14, 0x3F)
	a.Write(addr.NR21, 0x3F)
	a.Write(addr.NR24, 0x3F)
	a.Write(addr.NR30, 0x7F)
	a.Write(addr.NR31, 0xFF)
	a.Write(addr.NR32, 0x9F)
	a.Write(addr.NR34, 0x3F)
	a.Write(addr.NR41, 0xFF)
	a.Write(addr.NR44, 0x3F)
	a.Write(addr.NR50, 0x77)
	a.Write(addr.NR51, 0xF3)
}

// Tick advances the channels by the given number of T-cycles and emits
// samples at SampleRate.
func (a *APU) Tick(cycles int) {
	if a.enabled {
		a.ch1.step(cycles)
		a.ch2.step(cycles)
		a.ch3.step(cycles)
		a.ch4.step(cycles)
	}

	a.sampleAcc += uint64(cycles) * SampleRate
	for a.sampleAcc >= ClockRate {
		a.sampleAcc -= ClockRate
		a.emit(a.mix())
	}
}

// ClockSequencer advances the 512 Hz frame sequencer. It is driven by the
// falling edge of DIV bit 4 (bit 12 of the timer counter).
//
//	Step   Length  Sweep  Envelope
//	0      Clock   -      -
//	1      -       -      -
//	2      Clock   Clock  -
//	3      -       -      -
//	4      Clock   -      -
//	5      -       -      -
//	6      Clock   Clock  -
//	7      -       -      Clock
//
// Reference: https://gbdev.io/pandocs/Audio_details.html#div-apu
func (a *APU) ClockSequencer() {
	if !a.enabled {
		return
	}

	step := a.sequencerStep
	a.sequencerStep = (a.sequencerStep + 1) & 7

	switch step {
	case 0, 4:
		a.clockLengths()
	case 2, 6:
		a.clockLengths()
		a.ch1.clockSweep()
	case 7:
		a.ch1.env.clock()
		a.ch2.env.clock()
		a.ch4.env.clock()
	}
}

func (a *APU) clockLengths() {
	if a.ch1.length.clock() {
		a.ch1.enabled = false
	}
	if a.ch2.length.clock() {
		a.ch2.enabled = false
	}
	if a.ch3.length.clock() {
		a.ch3.enabled = false
	}
	if a.ch4.length.clock() {
		a.ch4.enabled = false
	}
}

// dac converts a 4-bit channel level into [-1, 1].
func dac(on bool, level uint8) float32 {
	if !on {
		return 0
	}
	return float32(level)/7.5 - 1
}

// mix folds the four channels and NR51 panning into one mono sample.
func (a *APU) mix() float32 {
	if !a.enabled {
		a.capacitor = 0
		return 0
	}

	outputs := [4]float32{
		dac(a.ch1.dacOn, a.ch1.output()),
		dac(a.ch2.dacOn, a.ch2.output()),
		dac(a.ch3.dacOn, a.ch3.output()),
		dac(a.ch4.dacOn, a.ch4.output()),
	}

	var left, right float32
	for i, out := range outputs {
		if a.muted[i].Load() {
			continue
		}
		if bit.IsSet(uint8(i+4), a.panning) {
			left += out
		}
		if bit.IsSet(uint8(i), a.panning) {
			right += out
		}
	}

	left *= float32(a.volLeft+1) / 8
	right *= float32(a.volRight+1) / 8
	in := (left + right) / 8

	out := in - a.capacitor
	a.capacitor = in - out*hpfCharge

	switch {
	case out > 1:
		return 1
	case out < -1:
		return -1
	}
	return out
}

func (a *APU) emit(sample float32) {
	a.queueMu.Lock()
	a.queue = append(a.queue, sample)
	if len(a.queue) > maxQueuedSamples {
		drop := len(a.queue) - queueRetain
		a.dropped += uint64(drop)
		a.queue = append(a.queue[:0], a.queue[drop:]...)
	}
	a.queueMu.Unlock()
}

// Drain returns and clears the queued samples.
func (a *APU) Drain() []float32 {
	a.queueMu.Lock()
	defer a.queueMu.Unlock()

	out := make([]float32, len(a.queue))
	copy(out, a.queue)
	a.queue = a.queue[:0]
	return out
}

// Dropped returns how many samples were discarded because nobody drained
// the queue in time.
func (a *APU) Dropped() uint64 {
	a.queueMu.Lock()
	defer a.queueMu.Unlock()
	return a.dropped
}

// Read implements memory.Device for FF10-FF3F.
func (a *APU) Read(address uint16) uint8 {
	switch {
	case address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd:
		return a.ch3.ram[address-addr.WaveRAMStart]
	case address < addr.AudioStart || address > addr.AudioEnd:
		return 0xFF
	case address == addr.NR52:
		status := uint8(nr52UnusedMask)
		status = bit.SetTo(powerBit, status, a.enabled)
		status = bit.SetTo(0, status, a.ch1.enabled)
		status = bit.SetTo(1, status, a.ch2.enabled)
		status = bit.SetTo(2, status, a.ch3.enabled)
		status = bit.SetTo(3, status, a.ch4.enabled)
		return status
	}

	index := address - addr.AudioStart
	return a.registers[index] | readMasks[index]
}

// Write implements memory.Device for FF10-FF3F. While powered off only NR52
// and wave RAM accept writes.
func (a *APU) Write(address uint16, value uint8) {
	switch {
	case address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd:
		a.ch3.ram[address-addr.WaveRAMStart] = value
		return
	case address < addr.AudioStart || address > addr.AudioEnd:
		return
	case address == addr.NR52:
		a.setPower(bit.IsSet(powerBit, value))
		return
	case !a.enabled:
		return
	}

	a.registers[address-addr.AudioStart] = value

	switch address {
	case addr.NR10:
		a.ch1.sweep.write(value)
	case addr.NR11:
		a.ch1.duty = value >> 6
		a.ch1.length.load(int(value & 0x3F))
	case addr.NR12:
		a.ch1.env.write(value)
		a.ch1.dacOn = value&dacEnabledMask != 0
		a.ch1.enabled = a.ch1.enabled && a.ch1.dacOn
	case addr.NR13:
		a.ch1.freq = a.ch1.freq&0x700 | uint16(value)
	case addr.NR14:
		a.ch1.freq = a.ch1.freq&0xFF | uint16(value&0x07)<<8
		a.ch1.length.enabled = bit.IsSet(lengthEnableBit, value)
		if bit.IsSet(triggerBit, value) {
			a.ch1.trigger()
		}

	case addr.NR21:
		a.ch2.duty = value >> 6
		a.ch2.length.load(int(value & 0x3F))
	case addr.NR22:
		a.ch2.env.write(value)
		a.ch2.dacOn = value&dacEnabledMask != 0
		a.ch2.enabled = a.ch2.enabled && a.ch2.dacOn
	case addr.NR23:
		a.ch2.freq = a.ch2.freq&0x700 | uint16(value)
	case addr.NR24:
		a.ch2.freq = a.ch2.freq&0xFF | uint16(value&0x07)<<8
		a.ch2.length.enabled = bit.IsSet(lengthEnableBit, value)
		if bit.IsSet(triggerBit, value) {
			a.ch2.trigger()
		}

	case addr.NR30:
		a.ch3.dacOn = bit.IsSet(waveDACBit, value)
		a.ch3.enabled = a.ch3.enabled && a.ch3.dacOn
	case addr.NR31:
		a.ch3.length.load(int(value))
	case addr.NR32:
		a.ch3.shift = (value >> 5) & 0x03
	case addr.NR33:
		a.ch3.freq = a.ch3.freq&0x700 | uint16(value)
	case addr.NR34:
		a.ch3.freq = a.ch3.freq&0xFF | uint16(value&0x07)<<8
		a.ch3.length.enabled = bit.IsSet(lengthEnableBit, value)
		if bit.IsSet(triggerBit, value) {
			a.ch3.trigger()
		}

	case addr.NR41:
		a.ch4.length.load(int(value & 0x3F))
	case addr.NR42:
		a.ch4.env.write(value)
		a.ch4.dacOn = value&dacEnabledMask != 0
		a.ch4.enabled = a.ch4.enabled && a.ch4.dacOn
	case addr.NR43:
		a.ch4.write(value)
	case addr.NR44:
		a.ch4.length.enabled = bit.IsSet(lengthEnableBit, value)
		if bit.IsSet(triggerBit, value) {
			a.ch4.trigger()
		}

	case addr.NR50:
		a.volLeft = (value >> 4) & 0x07
		a.volRight = value & 0x07
	case addr.NR51:
		a.panning = value
	}
}

// setPower handles NR52 bit 7. Turning the APU off clears every register
// except wave RAM.
func (a *APU) setPower(on bool) {
	if a.enabled == on {
		return
	}
	if on {
		a.enabled = true
		a.sequencerStep = 0
		return
	}

	for address := addr.NR10; address < addr.NR52; address++ {
		a.Write(address, 0)
	}
	a.registers = [registerCount]uint8{}
	a.ch1.enabled, a.ch2.enabled, a.ch3.enabled, a.ch4.enabled = false, false, false, false
	a.enabled = false
}

// Channel debug controls, channel numbers are 1-4.

// ToggleChannel toggles muting for a specific channel
func (a *APU) ToggleChannel(channel int) {
	if channel >= 1 && channel <= 4 {
		m := &a.muted[channel-1]
		m.Store(!m.Load())
	}
}

// SoloChannel mutes all channels except the specified one
func (a *APU) SoloChannel(channel int) {
	for i := range a.muted {
		a.muted[i].Store(i != channel-1)
	}
}

// UnmuteAll unmutes all channels
func (a *APU) UnmuteAll() {
	for i := range a.muted {
		a.muted[i].Store(false)
	}
}

// ChannelStatus reports, per channel, whether it is playing and audible.
func (a *APU) ChannelStatus() [4]bool {
	enabled := [4]bool{a.ch1.enabled, a.ch2.enabled, a.ch3.enabled, a.ch4.enabled}
	for i := range enabled {
		enabled[i] = enabled[i] && !a.muted[i].Load()
	}
	return enabled
}
