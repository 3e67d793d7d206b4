// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ed047tc1test contains recording fakes of the hardware used by
// package ed047tc1: the configuration shift register, the parallel bus and
// the pulse timer. All of them can log into a shared Recorder so a test can
// check the order in which the panel saw the operations.
package ed047tc1test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/epd47/ed047tc1"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Op identifies the kind of an Event.
type Op string

// Recorded operations.
const (
	OpCommit  Op = "commit"
	OpSend    Op = "send"
	OpAcquire Op = "acquire"
	OpPulse   Op = "pulse"
	OpWait    Op = "wait"
)

// Event is one operation observed by a fake.
type Event struct {
	Op Op
	// Reg is the committed register for OpCommit.
	Reg ed047tc1.Register
	// Data is a copy of the buffer for OpSend.
	Data []byte
	// Channel is the pulse channel number for OpAcquire, OpPulse and OpWait.
	Channel int
	// High and Low are the pulse phases for OpPulse.
	High, Low uint16
}

// Recorder collects events in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(e Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns the recorded events, restricted to ops if any is given.
func (r *Recorder) Events(ops ...Op) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if len(ops) == 0 {
			out = append(out, e)
			continue
		}
		for _, op := range ops {
			if e.Op == op {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Reset forgets all events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// ShiftRegister decodes the three configuration lines like the board's shift
// register does: bits are sampled on the clock rising edge while the strobe
// is low, and the strobe rising edge transfers them to the outputs.
type ShiftRegister struct {
	Rec *Recorder
	// Err, when set, is returned by every line write.
	Err error

	mu      sync.Mutex
	data    gpio.Level
	clk     gpio.Level
	str     gpio.Level
	shift   byte
	n       int
	commits []byte
	partial int
}

// Data returns the serial data line.
func (s *ShiftRegister) Data() gpio.PinOut { return &line{s: s, name: "CFG_DATA", num: 0} }

// Clock returns the shift clock line.
func (s *ShiftRegister) Clock() gpio.PinOut { return &line{s: s, name: "CFG_CLK", num: 1} }

// Strobe returns the storage strobe line.
func (s *ShiftRegister) Strobe() gpio.PinOut { return &line{s: s, name: "CFG_STR", num: 2} }

// Commits returns every byte transferred to the outputs.
func (s *ShiftRegister) Commits() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.commits...)
}

// Registers returns Commits decoded.
func (s *ShiftRegister) Registers() []ed047tc1.Register {
	var out []ed047tc1.Register
	for _, b := range s.Commits() {
		out = append(out, ed047tc1.RegisterFromBits(b))
	}
	return out
}

// Partial returns how many strobes committed a count of bits other than 8.
func (s *ShiftRegister) Partial() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partial
}

func (s *ShiftRegister) out(num int, l gpio.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	switch num {
	case 0:
		s.data = l
	case 1:
		if s.clk == gpio.Low && l == gpio.High && s.str == gpio.Low {
			s.shift <<= 1
			if s.data {
				s.shift |= 1
			}
			s.n++
		}
		s.clk = l
	case 2:
		if s.str == gpio.Low && l == gpio.High {
			if s.n == 8 {
				s.commits = append(s.commits, s.shift)
				s.Rec.add(Event{Op: OpCommit, Reg: ed047tc1.RegisterFromBits(s.shift)})
			} else if s.n != 0 {
				s.partial++
			}
			s.n = 0
			s.shift = 0
		}
		s.str = l
	}
	return nil
}

type line struct {
	s    *ShiftRegister
	name string
	num  int
}

func (l *line) String() string { return l.name }
func (l *line) Halt() error { return nil }
func (l *line) Name() string { return l.name }
func (l *line) Number() int { return l.num }
func (l *line) Function() string { return "Out" }
func (l *line) Out(v gpio.Level) error { return l.s.out(l.num, v) }
func (l *line) PWM(gpio.Duty, physic.Frequency) error { return errors.New("ed047tc1test: PWM not supported") }

// ErrOverlap is returned by Bus.Send when a transfer is already in flight.
var ErrOverlap = errors.New("ed047tc1test: transfer already in flight")

// Bus records row transfers.
//
// SendErr and WaitErr inject failures into the n-th transfer attempt,
// counting from 0.
type Bus struct {
	Rec     *Recorder
	SendErr map[int]error
	WaitErr map[int]error

	mu       sync.Mutex
	attempts int
	inFlight bool
	overlaps int
	rows     [][]byte
}

// Send implements ed047tc1.Bus.
func (b *Bus) Send(buf []byte) (ed047tc1.BusTransfer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.attempts
	b.attempts++
	if b.inFlight {
		b.overlaps++
		return nil, ErrOverlap
	}
	if err := b.SendErr[n]; err != nil {
		return nil, err
	}
	data := append([]byte(nil), buf...)
	b.rows = append(b.rows, data)
	b.inFlight = true
	b.Rec.add(Event{Op: OpSend, Data: data})
	return &transfer{b: b, n: n}, nil
}

// Rows returns a copy of every buffer handed to the bus.
func (b *Bus) Rows() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.rows...)
}

// Overlaps returns the number of sends issued while a transfer was in
// flight.
func (b *Bus) Overlaps() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overlaps
}

// InFlight reports whether a transfer was sent and not waited for.
func (b *Bus) InFlight() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight
}

type transfer struct {
	b    *Bus
	n    int
	done bool
}

func (t *transfer) Wait() error {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	if t.done {
		return errors.New("ed047tc1test: transfer waited twice")
	}
	t.done = true
	t.b.inFlight = false
	return t.b.WaitErr[t.n]
}

// Pulse is one waveform transmitted on a channel.
type Pulse struct {
	Channel int
	Codes   []ed047tc1.PulseCode
	Waited  bool
}

// PulseTimer records the channels it configures and the waveforms sent on
// them.
//
// ChannelErr, TransmitErr and WaitErr are queues of injected results: each
// call pops the first element, a nil element or an empty queue means
// success.
type PulseTimer struct {
	Rec         *Recorder
	ChannelErr  []error
	TransmitErr []error
	WaitErr     []error

	mu       sync.Mutex
	channels int
	pulses   []Pulse
}

// Channel implements ed047tc1.PulseTimer.
func (p *PulseTimer) Channel() (ed047tc1.PulseChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := pop(&p.ChannelErr); err != nil {
		return nil, err
	}
	p.channels++
	p.Rec.add(Event{Op: OpAcquire, Channel: p.channels})
	return &channel{p: p, id: p.channels}, nil
}

// Channels returns how many channels were configured.
func (p *PulseTimer) Channels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels
}

// Pulses returns the waveforms transmitted so far.
func (p *PulseTimer) Pulses() []Pulse {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Pulse(nil), p.pulses...)
}

type channel struct {
	p    *PulseTimer
	id   int
	busy bool
}

func (c *channel) Transmit(codes []ed047tc1.PulseCode) (ed047tc1.PulseTx, error) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	if c.busy {
		return nil, fmt.Errorf("ed047tc1test: channel %d transmitting", c.id)
	}
	if err := pop(&c.p.TransmitErr); err != nil {
		return nil, err
	}
	c.busy = true
	c.p.pulses = append(c.p.pulses, Pulse{Channel: c.id, Codes: append([]ed047tc1.PulseCode(nil), codes...)})
	e := Event{Op: OpPulse, Channel: c.id}
	if len(codes) > 0 {
		if codes[0].Level1 == gpio.High {
			e.High, e.Low = codes[0].Ticks1, codes[0].Ticks2
		} else {
			e.Low = codes[0].Ticks1
		}
	}
	c.p.Rec.add(e)
	return &pulseTx{c: c, n: len(c.p.pulses) - 1}, nil
}

type pulseTx struct {
	c *channel
	n int
}

func (t *pulseTx) Wait() (ed047tc1.PulseChannel, error) {
	p := t.c.p
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pulses[t.n].Waited = true
	t.c.busy = false
	p.Rec.add(Event{Op: OpWait, Channel: t.c.id})
	if err := pop(&p.WaitErr); err != nil {
		return nil, err
	}
	return t.c, nil
}

func pop(q *[]error) error {
	if len(*q) == 0 {
		return nil
	}
	err := (*q)[0]
	*q = (*q)[1:]
	return err
}

var _ ed047tc1.Bus = &Bus{}
var _ ed047tc1.PulseTimer = &PulseTimer{}
var _ gpio.PinOut = &line{}
