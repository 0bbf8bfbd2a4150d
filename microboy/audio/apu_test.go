package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-microboy/microboy/addr"
)

func TestAPU_RegisterMapping(t *testing.T) {
	tests := []struct {
		name     string
		register uint16
		value    uint8
		testFunc func(t *testing.T, apu *APU)
	}{
		{
			name:     "NR50 master volume",
			register: addr.NR50, value: 0x35,
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(3), apu.volLeft)
				assert.Equal(t, uint8(5), apu.volRight)
				assert.Equal(t, uint8(0x35), apu.Read(addr.NR50))
			},
		},
		{
			name:     "NR51 panning",
			register: addr.NR51, value: 0xA5,
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(0xA5), apu.panning)
			},
		},
		{
			name:     "NR11 duty and length",
			register: addr.NR11, value: 0x81, // duty=2, length=1
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(2), apu.ch1.duty)
				assert.Equal(t, 63, apu.ch1.length.counter)
				assert.Equal(t, uint8(0xBF), apu.Read(addr.NR11), "length bits read back as 1")
			},
		},
		{
			name:     "NR12 volume and envelope",
			register: addr.NR12, value: 0xF7, // vol=15, down, period=7
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(15), apu.ch1.env.initial)
				assert.False(t, apu.ch1.env.increase)
				assert.Equal(t, uint8(7), apu.ch1.env.period)
				assert.True(t, apu.ch1.dacOn)
			},
		},
		{
			name:     "NR13 is write only",
			register: addr.NR13, value: 0x12,
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint16(0x12), apu.ch1.freq&0xFF)
				assert.Equal(t, uint8(0xFF), apu.Read(addr.NR13))
			},
		},
		{
			name:     "NR32 output level",
			register: addr.NR32, value: 0x40,
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(2), apu.ch3.shift)
				assert.Equal(t, uint8(0xDF), apu.Read(addr.NR32))
			},
		},
		{
			name:     "NR43 noise clock",
			register: addr.NR43, value: 0x2B, // shift=2, 7-bit, divisor=3
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(2), apu.ch4.shift)
				assert.True(t, apu.ch4.width7)
				assert.Equal(t, 48<<2, apu.ch4.period())
			},
		},
		{
			name:     "Wave RAM write/read",
			register: addr.WaveRAMStart + 3, value: 0xAB,
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(0xAB), apu.Read(addr.WaveRAMStart+3))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apu := New()
			apu.Write(tt.register, tt.value)
			tt.testFunc(t, apu)
		})
	}
}

func TestAPU_Drain(t *testing.T) {
	apu := New()

	// one video frame worth of machine cycles
	for range 17556 {
		apu.Tick(4)
	}
	samples := apu.Drain()
	assert.Len(t, samples, 70224*SampleRate/ClockRate)
	assert.Empty(t, apu.Drain(), "drain clears the queue")

	for _, s := range samples {
		assert.True(t, s >= -1 && s <= 1)
	}
}

func TestAPU_QueueIsCapped(t *testing.T) {
	apu := New()
	for range 2 * ClockRate / 1024 {
		apu.Tick(1024)
	}
	assert.LessOrEqual(t, len(apu.Drain()), maxQueuedSamples)
	assert.NotZero(t, apu.Dropped())
}

func TestAPU_PulseProducesSound(t *testing.T) {
	apu := New()
	apu.Write(addr.NR50, 0x77)
	apu.Write(addr.NR51, 0xFF)
	apu.Write(addr.NR21, 0x80) // 50% duty
	apu.Write(addr.NR22, 0xF0)
	apu.Write(addr.NR23, 0x00)
	apu.Write(addr.NR24, 0x87) // 512Hz, trigger

	for range ClockRate / 10 / 4 {
		apu.Tick(4)
	}
	samples := apu.Drain()
	require.NotEmpty(t, samples)

	var lo, hi float32
	for _, s := range samples {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	assert.Greater(t, hi, float32(0.1))
	assert.Less(t, lo, float32(-0.1))

	apu.SoloChannel(1)
	for range ClockRate / 10 / 4 {
		apu.Tick(4)
	}
	for _, s := range apu.Drain()[SampleRate/20:] {
		assert.InDelta(t, 0, s, 0.05, "muted channel decays to silence")
	}
}

func TestAPU_LengthCounter(t *testing.T) {
	apu := New()
	apu.Write(addr.NR22, 0xF0)
	apu.Write(addr.NR21, 0x3F) // one step left
	apu.Write(addr.NR24, 0xC0) // trigger, length enabled
	require.Equal(t, uint8(0x02), apu.Read(addr.NR52)&0x0F)

	apu.ClockSequencer()
	assert.Equal(t, uint8(0x00), apu.Read(addr.NR52)&0x0F)
}

func TestAPU_LengthDisabledKeepsPlaying(t *testing.T) {
	apu := New()
	apu.Write(addr.NR22, 0xF0)
	apu.Write(addr.NR21, 0x3F)
	apu.Write(addr.NR24, 0x80)

	for range 64 {
		apu.ClockSequencer()
	}
	assert.Equal(t, uint8(0x02), apu.Read(addr.NR52)&0x0F)
}

func TestAPU_Envelope(t *testing.T) {
	testCases := []struct {
		desc  string
		nrx2  uint8
		steps int
		want  uint8
	}{
		{desc: "decrease", nrx2: 0xF1, steps: 8, want: 14},
		{desc: "increase", nrx2: 0x09, steps: 16, want: 2},
		{desc: "period two", nrx2: 0xF2, steps: 8, want: 15},
		{desc: "stops at zero", nrx2: 0x11, steps: 32, want: 0},
		{desc: "period zero holds", nrx2: 0xA0, steps: 64, want: 10},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			apu := New()
			apu.Write(addr.NR22, tc.nrx2)
			apu.Write(addr.NR24, 0x80)
			for range tc.steps {
				apu.ClockSequencer()
			}
			assert.Equal(t, tc.want, apu.ch2.env.volume)
		})
	}
}

func TestAPU_Sweep(t *testing.T) {
	t.Run("updates frequency", func(t *testing.T) {
		apu := New()
		apu.Write(addr.NR10, 0x11) // period 1, add, shift 1
		apu.Write(addr.NR12, 0xF0)
		apu.Write(addr.NR13, 0x00)
		apu.Write(addr.NR14, 0x81)

		for range 3 {
			apu.ClockSequencer()
		}
		assert.Equal(t, uint16(0x180), apu.ch1.freq)
		assert.True(t, apu.ch1.enabled)
	})

	t.Run("overflow on trigger", func(t *testing.T) {
		apu := New()
		apu.Write(addr.NR10, 0x11)
		apu.Write(addr.NR12, 0xF0)
		apu.Write(addr.NR13, 0x00)
		apu.Write(addr.NR14, 0x87)

		assert.False(t, apu.ch1.enabled)
	})

	t.Run("negate", func(t *testing.T) {
		apu := New()
		apu.Write(addr.NR10, 0x19) // period 1, subtract, shift 1
		apu.Write(addr.NR12, 0xF0)
		apu.Write(addr.NR13, 0x00)
		apu.Write(addr.NR14, 0x82)

		for range 3 {
			apu.ClockSequencer()
		}
		assert.Equal(t, uint16(0x100), apu.ch1.freq)
	})
}

func TestAPU_DACOffDisablesChannel(t *testing.T) {
	apu := New()
	apu.Write(addr.NR12, 0xF0)
	apu.Write(addr.NR14, 0x80)
	require.True(t, apu.ch1.enabled)

	apu.Write(addr.NR12, 0x00)
	assert.False(t, apu.ch1.enabled)

	apu.Write(addr.NR14, 0x80)
	assert.False(t, apu.ch1.enabled, "trigger with DAC off does nothing")
}

func TestAPU_WaveChannel(t *testing.T) {
	apu := New()
	for i := range waveRAMSize {
		apu.Write(addr.WaveRAMStart+uint16(i), 0xF0)
	}
	apu.Write(addr.NR30, 0x80)
	apu.Write(addr.NR32, 0x20) // full volume
	apu.Write(addr.NR33, 0x00)
	apu.Write(addr.NR34, 0x87)
	require.True(t, apu.ch3.enabled)

	seen := map[uint8]bool{}
	for range 4096 {
		apu.Tick(4)
		seen[apu.ch3.output()] = true
	}
	assert.Equal(t, map[uint8]bool{0: true, 15: true}, seen)

	apu.Write(addr.NR32, 0x60) // quarter volume
	assert.LessOrEqual(t, apu.ch3.output(), uint8(3))
}

func TestAPU_NoiseLFSR(t *testing.T) {
	apu := New()
	apu.Write(addr.NR42, 0xF0)
	apu.Write(addr.NR43, 0x00)
	apu.Write(addr.NR44, 0x80)
	require.True(t, apu.ch4.enabled)

	seen := map[uint8]bool{}
	for range 1000 {
		apu.Tick(8)
		seen[apu.ch4.output()] = true
	}
	assert.True(t, seen[0])
	assert.True(t, seen[15])
}

func TestAPU_PowerOff(t *testing.T) {
	apu := New()
	apu.Write(addr.NR22, 0xF0)
	apu.Write(addr.NR24, 0x80)
	apu.Write(addr.NR52, 0x00)

	assert.Equal(t, uint8(0x70), apu.Read(addr.NR52))
	assert.Equal(t, uint8(0x00), apu.Read(addr.NR22))
	assert.Equal(t, uint8(0x00), apu.Read(addr.NR50))

	apu.Write(addr.NR50, 0x77)
	assert.Equal(t, uint8(0x00), apu.Read(addr.NR50), "writes ignored while off")

	apu.Write(addr.WaveRAMStart, 0x5A)
	assert.Equal(t, uint8(0x5A), apu.Read(addr.WaveRAMStart), "wave RAM stays writable")

	for range 1000 {
		apu.Tick(4)
	}
	for _, s := range apu.Drain() {
		assert.Zero(t, s)
	}

	apu.Write(addr.NR52, 0x80)
	assert.Equal(t, uint8(0xF0), apu.Read(addr.NR52))
}

func TestAPU_ChannelControls(t *testing.T) {
	apu := New()
	for _, reg := range []uint16{addr.NR12, addr.NR22, addr.NR42} {
		apu.Write(reg, 0xF0)
	}
	apu.Write(addr.NR30, 0x80)
	for _, reg := range []uint16{addr.NR14, addr.NR24, addr.NR34, addr.NR44} {
		apu.Write(reg, 0x80)
	}
	assert.Equal(t, [4]bool{true, true, true, true}, apu.ChannelStatus())

	apu.SoloChannel(3)
	assert.Equal(t, [4]bool{false, false, true, false}, apu.ChannelStatus())

	apu.ToggleChannel(1)
	assert.Equal(t, [4]bool{true, false, true, false}, apu.ChannelStatus())

	apu.UnmuteAll()
	assert.Equal(t, [4]bool{true, true, true, true}, apu.ChannelStatus())
}
