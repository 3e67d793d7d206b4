// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpiopulse emits gate clock waveforms by bit banging one GPIO line.
//
// It is a software stand-in for a remote control style pulse peripheral.
// Timing relies on busy waiting on the monotonic clock, so jitter depends on
// the host scheduler; the panel tolerates long phases much better than short
// ones.
package gpiopulse

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GermanBionicSystems/epd47/ed047tc1"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

var (
	// ErrFrequency is returned by New for a non-positive tick rate.
	ErrFrequency = errors.New("gpiopulse: invalid tick frequency")
	// ErrBusy is returned by Transmit on a channel that was not waited for.
	ErrBusy = errors.New("gpiopulse: channel transmitting")
)

// Opts is the timer configuration.
type Opts struct {
	// Frequency is the tick rate of the pulse codes.
	Frequency physic.Frequency
}

// DefaultOpts matches the 80MHz source clock divided by 8 of the board.
var DefaultOpts = Opts{Frequency: 10 * physic.MegaHertz}

// Timer drives one line. Channels share the line: a transmission starts once
// the previous one, from any channel, is done.
type Timer struct {
	pin    gpio.PinOut
	period time.Duration
	free   chan struct{}
	wait   func(time.Duration)

	mu       sync.Mutex
	channels int
}

// New returns a Timer on p, idling low.
func New(p gpio.PinOut, opts *Opts) (*Timer, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Frequency <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrFrequency, opts.Frequency)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, err
	}
	return &Timer{
		pin:    p,
		period: opts.Frequency.Period(),
		free:   make(chan struct{}, 1),
		wait:   busyWait,
	}, nil
}

// Channel implements ed047tc1.PulseTimer.
func (t *Timer) Channel() (ed047tc1.PulseChannel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.channels++
	return &channel{t: t, id: t.channels}, nil
}

// Channels returns how many channels were configured so far.
func (t *Timer) Channels() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.channels
}

// Halt implements conn.Resource.
//
// It waits for the current waveform to end.
func (t *Timer) Halt() error {
	t.free <- struct{}{}
	defer func() { <-t.free }()
	return t.pin.Out(gpio.Low)
}

func (t *Timer) String() string {
	return fmt.Sprintf("gpiopulse{%s, %s}", t.pin, t.period)
}

// play outputs codes up to the end marker and leaves the line low.
func (t *Timer) play(codes []ed047tc1.PulseCode) error {
	for _, c := range codes {
		if c.IsEnd() {
			break
		}
		if err := t.pin.Out(c.Level1); err != nil {
			return err
		}
		t.wait(time.Duration(c.Ticks1) * t.period)
		if err := t.pin.Out(c.Level2); err != nil {
			return err
		}
		t.wait(time.Duration(c.Ticks2) * t.period)
	}
	return t.pin.Out(gpio.Low)
}

type channel struct {
	t    *Timer
	id   int
	busy atomic.Bool
}

func (c *channel) Transmit(codes []ed047tc1.PulseCode) (ed047tc1.PulseTx, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: channel %d", ErrBusy, c.id)
	}
	codes = append([]ed047tc1.PulseCode(nil), codes...)
	c.t.free <- struct{}{}
	tx := &pulseTx{c: c, done: make(chan error, 1)}
	go func() {
		err := c.t.play(codes)
		<-c.t.free
		tx.done <- err
	}()
	return tx, nil
}

func (c *channel) String() string {
	return fmt.Sprintf("gpiopulse channel %d", c.id)
}

type pulseTx struct {
	c    *channel
	done chan error
	once sync.Once
	err  error
}

func (p *pulseTx) Wait() (ed047tc1.PulseChannel, error) {
	p.once.Do(func() {
		p.err = <-p.done
		p.c.busy.Store(false)
	})
	if p.err != nil {
		return nil, p.err
	}
	return p.c, nil
}

func busyWait(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}

var _ ed047tc1.PulseTimer = &Timer{}
var _ conn.Resource = &Timer{}
