// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cdevpin exposes Linux GPIO character device lines as periph
// output pins.
//
// It is useful on boards periph's host drivers do not know about: the panel
// lines are then requested from /dev/gpiochipN by offset.
package cdevpin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// ErrClosed is returned by Out after Halt.
var ErrClosed = errors.New("cdevpin: line released")

// line is the part of *gpiocdev.Line used here.
type line interface {
	SetValue(value int) error
	Close() error
}

// Pin is one requested output line.
type Pin struct {
	chip   string
	offset int

	mu sync.Mutex
	l  line
}

// Line is a line offset with the level it is driven at when requested.
type Line struct {
	Offset  int
	Initial gpio.Level
}

var request = func(chip string, offset, value int) (line, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(value), gpiocdev.WithConsumer("epd47"))
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Open requests offset on chip as an output driven at initial.
//
// Strobe lines idling high must be requested high, otherwise the first Out
// is an edge.
func Open(chip string, offset int, initial gpio.Level) (*Pin, error) {
	v := 0
	if initial {
		v = 1
	}
	l, err := request(chip, offset, v)
	if err != nil {
		return nil, fmt.Errorf("cdevpin: %s:%d: %w", chip, offset, err)
	}
	return &Pin{chip: chip, offset: offset, l: l}, nil
}

// String returns the chip and offset.
func (p *Pin) String() string {
	return fmt.Sprintf("%s:%d", p.chip, p.offset)
}

// Halt implements conn.Resource.
//
// It releases the line; the pin cannot be used afterward.
func (p *Pin) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.l == nil {
		return nil
	}
	err := p.l.Close()
	p.l = nil
	return err
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.String()
}

// Number implements pin.Pin. It is the line offset on its chip.
func (p *Pin) Number() int {
	return p.offset
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	return "Out"
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.l == nil {
		return ErrClosed
	}
	v := 0
	if l {
		v = 1
	}
	return p.l.SetValue(v)
}

// PWM implements gpio.PinOut. It is not supported.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("cdevpin: PWM not supported")
}

// OpenAll requests every line on chip, releasing the ones already requested
// on failure.
func OpenAll(chip string, lines ...Line) ([]*Pin, error) {
	pins := make([]*Pin, 0, len(lines))
	for _, ln := range lines {
		p, err := Open(chip, ln.Offset, ln.Initial)
		if err != nil {
			for _, q := range pins {
				_ = q.Halt()
			}
			return nil, err
		}
		pins = append(pins, p)
	}
	return pins, nil
}

var _ gpio.PinOut = &Pin{}
