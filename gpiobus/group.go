// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpiobus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// ErrNotImplemented is returned by the read side of a Group.
var ErrNotImplemented = errors.New("gpiobus: not implemented")

// PinGroup implements gpio.Group over discrete output pins, for hosts whose
// GPIO driver has no native group support. Bit n of a value drives pins[n].
//
// Only lines whose level changes are written.
type PinGroup struct {
	pins  []gpio.PinOut
	value gpio.GPIOValue
	known gpio.GPIOValue
}

// Group returns the pins as a gpio.Group.
func Group(pins ...gpio.PinOut) *PinGroup {
	return &PinGroup{pins: pins}
}

// Pins returns the pins of the group, in bit order.
func (gr *PinGroup) Pins() []pin.Pin {
	result := make([]pin.Pin, len(gr.pins))
	for ix, p := range gr.pins {
		result[ix] = p
	}
	return result
}

// ByOffset returns the pin driven by bit offset.
func (gr *PinGroup) ByOffset(offset int) pin.Pin {
	if offset < 0 || offset >= len(gr.pins) {
		return nil
	}
	return gr.pins[offset]
}

// ByName returns the pin called name.
func (gr *PinGroup) ByName(name string) pin.Pin {
	for _, p := range gr.pins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// ByNumber returns the pin with the given GPIO number.
func (gr *PinGroup) ByNumber(number int) pin.Pin {
	for _, p := range gr.pins {
		if p.Number() == number {
			return p
		}
	}
	return nil
}

// Out writes value to the pins selected by mask. A zero mask selects every
// pin.
func (gr *PinGroup) Out(value, mask gpio.GPIOValue) error {
	if mask == 0 {
		mask = gpio.GPIOValue(1<<len(gr.pins)) - 1
	}
	for ix, p := range gr.pins {
		bit := gpio.GPIOValue(1 << ix)
		if mask&bit == 0 {
			continue
		}
		if gr.known&bit != 0 && (gr.value^value)&bit == 0 {
			continue
		}
		if err := p.Out(gpio.Level(value&bit != 0)); err != nil {
			gr.known &^= bit
			return err
		}
		gr.value = (gr.value &^ bit) | (value & bit)
		gr.known |= bit
	}
	return nil
}

// Read is not available on output pins.
func (gr *PinGroup) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	return 0, ErrNotImplemented
}

// WaitForEdge is not available on output pins.
func (gr *PinGroup) WaitForEdge(timeout time.Duration) (int, gpio.Edge, error) {
	return 0, gpio.NoEdge, ErrNotImplemented
}

// Halt halts every pin of the group.
func (gr *PinGroup) Halt() error {
	var errs []error
	for _, p := range gr.pins {
		errs = append(errs, p.Halt())
	}
	gr.known = 0
	return errors.Join(errs...)
}

func (gr *PinGroup) String() string {
	names := make([]string, len(gr.pins))
	for ix, p := range gr.pins {
		names[ix] = p.Name()
	}
	return fmt.Sprintf("[%s]", strings.Join(names, " "))
}

var _ gpio.Group = &PinGroup{}
