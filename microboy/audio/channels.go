package audio

import "github.com/valerio/go-microboy/microboy/bit"

type lengthCounter struct {
	counter int
	enabled bool
	max     int
}

func (l *lengthCounter) load(value int) {
	l.counter = l.max - value
}

func (l *lengthCounter) trigger() {
	if l.counter == 0 {
		l.counter = l.max
	}
}

// clock returns true when the counter runs out.
func (l *lengthCounter) clock() bool {
	if !l.enabled || l.counter == 0 {
		return false
	}
	l.counter--
	return l.counter == 0
}

type envelope struct {
	initial  uint8
	increase bool
	period   uint8

	volume uint8
	timer  uint8
}

func (e *envelope) write(value uint8) {
	e.initial = value >> 4
	e.increase = bit.IsSet(envelopeUpBit, value)
	e.period = value & 0x07
}

func (e *envelope) trigger() {
	e.volume = e.initial
	e.timer = e.period
}

func (e *envelope) clock() {
	if e.period == 0 {
		return
	}
	if e.timer > 0 {
		e.timer--
	}
	if e.timer != 0 {
		return
	}
	e.timer = e.period
	switch {
	case e.increase && e.volume < 15:
		e.volume++
	case !e.increase && e.volume > 0:
		e.volume--
	}
}

type sweep struct {
	period uint8
	negate bool
	shift  uint8

	enabled bool
	timer   uint8
	shadow  uint16
}

func (s *sweep) write(value uint8) {
	s.period = (value >> 4) & 0x07
	s.negate = bit.IsSet(sweepNegateBit, value)
	s.shift = value & 0x07
}

func (s *sweep) reload() {
	s.timer = s.period
	if s.timer == 0 {
		s.timer = 8
	}
}

// next computes the swept frequency and whether it overflows.
func (s *sweep) next() (uint16, bool) {
	delta := s.shadow >> s.shift
	if s.negate {
		return s.shadow - delta, false
	}
	f := s.shadow + delta
	return f, f > maxFrequency
}

// pulse is a square wave channel. Channel 1 also uses its sweep unit.
type pulse struct {
	enabled  bool
	dacOn    bool
	hasSweep bool

	duty     uint8
	dutyStep uint8
	freq     uint16
	timer    int

	length lengthCounter
	env    envelope
	sweep  sweep
}

func (p *pulse) period() int {
	return (2048 - int(p.freq)) * 4
}

func (p *pulse) step(cycles int) {
	p.timer -= cycles
	for p.timer <= 0 {
		p.timer += p.period()
		p.dutyStep = (p.dutyStep + 1) & 7
	}
}

func (p *pulse) trigger() {
	p.enabled = p.dacOn
	p.length.trigger()
	p.timer = p.period()
	p.env.trigger()

	if !p.hasSweep {
		return
	}
	s := &p.sweep
	s.shadow = p.freq
	s.reload()
	s.enabled = s.period > 0 || s.shift > 0
	if s.shift > 0 {
		if _, overflow := s.next(); overflow {
			p.enabled = false
		}
	}
}

func (p *pulse) clockSweep() {
	s := &p.sweep
	if s.timer > 0 {
		s.timer--
	}
	if s.timer != 0 {
		return
	}
	s.reload()
	if !s.enabled || s.period == 0 {
		return
	}

	f, overflow := s.next()
	if overflow {
		p.enabled = false
		return
	}
	if s.shift > 0 {
		s.shadow = f
		p.freq = f
		if _, overflow := s.next(); overflow {
			p.enabled = false
		}
	}
}

func (p *pulse) output() uint8 {
	if !p.enabled {
		return 0
	}
	if bit.IsSet(7-p.dutyStep, dutyPatterns[p.duty]) {
		return p.env.volume
	}
	return 0
}

// wave plays back the 32 4-bit samples of wave RAM.
type wave struct {
	enabled bool
	dacOn   bool

	shift    uint8
	freq     uint16
	timer    int
	position uint8
	sample   uint8

	length lengthCounter
	ram    [waveRAMSize]uint8
}

func (w *wave) period() int {
	return (2048 - int(w.freq)) * 2
}

func (w *wave) step(cycles int) {
	w.timer -= cycles
	for w.timer <= 0 {
		w.timer += w.period()
		w.position = (w.position + 1) & 31
		b := w.ram[w.position/2]
		if w.position&1 == 0 {
			w.sample = b >> 4
		} else {
			w.sample = b & 0x0F
		}
	}
}

func (w *wave) trigger() {
	w.enabled = w.dacOn
	w.length.trigger()
	w.timer = w.period()
	w.position = 0
}

func (w *wave) output() uint8 {
	if !w.enabled {
		return 0
	}
	return w.sample >> waveShifts[w.shift]
}

// noise clocks a 15 or 7 bit LFSR.
type noise struct {
	enabled bool
	dacOn   bool

	divisor uint8
	width7  bool
	shift   uint8
	timer   int
	lfsr    uint16

	length lengthCounter
	env    envelope
}

func (n *noise) write(value uint8) {
	n.shift = value >> 4
	n.width7 = bit.IsSet(noiseWidthBit, value)
	n.divisor = value & 0x07
}

func (n *noise) period() int {
	return noiseDivisors[n.divisor] << n.shift
}

func (n *noise) step(cycles int) {
	n.timer -= cycles
	for n.timer <= 0 {
		n.timer += n.period()
		feedback := (n.lfsr ^ n.lfsr>>1) & 1
		n.lfsr = n.lfsr>>1 | feedback<<14
		if n.width7 {
			n.lfsr = n.lfsr&^(1<<6) | feedback<<6
		}
	}
}

func (n *noise) trigger() {
	n.enabled = n.dacOn
	n.length.trigger()
	n.timer = n.period()
	n.lfsr = lfsrInitialValue
	n.env.trigger()
}

func (n *noise) output() uint8 {
	if !n.enabled || n.lfsr&1 != 0 {
		return 0
	}
	return n.env.volume
}
