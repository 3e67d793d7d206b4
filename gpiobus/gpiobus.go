// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpiobus

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/GermanBionicSystems/epd47/ed047tc1"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

var (
	// ErrBusy is returned by Send while a transfer is in flight.
	ErrBusy = errors.New("gpiobus: transfer in flight")
	// ErrDataLines is returned by New when fewer than 8 data lines are given.
	ErrDataLines = errors.New("gpiobus: need 8 data lines")
)

// Opts is the bus configuration.
type Opts struct {
	// Command is the command byte sent before the data of every transfer.
	Command byte
}

// Dev is an 8 bit parallel bus.
type Dev struct {
	data gpio.Group
	dc   gpio.PinOut
	wr   gpio.PinOut
	opts Opts

	busy atomic.Bool
}

// New returns a bus on the first 8 lines of data, with dc selecting
// command or data and wr strobing each byte.
//
// wr is driven high; it should already idle high, since a rising edge latches
// whatever is on the data lines.
func New(data gpio.Group, dc, wr gpio.PinOut, opts *Opts) (*Dev, error) {
	if len(data.Pins()) < 8 {
		return nil, fmt.Errorf("%w: got %d", ErrDataLines, len(data.Pins()))
	}
	d := &Dev{data: data, dc: dc, wr: wr}
	if opts != nil {
		d.opts = *opts
	}
	if err := d.wr.Out(gpio.High); err != nil {
		return nil, err
	}
	return d, nil
}

// Send implements ed047tc1.Bus.
func (d *Dev) Send(buf []byte) (ed047tc1.BusTransfer, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	t := &transfer{done: make(chan error, 1)}
	go func() {
		err := d.write(buf)
		d.busy.Store(false)
		t.done <- err
	}()
	return t, nil
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return d.data.Halt()
}

func (d *Dev) String() string {
	return fmt.Sprintf("gpiobus{%s, DC: %s, WR: %s}", d.data, d.dc, d.wr)
}

func (d *Dev) write(buf []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	if err := d.writeByte(d.opts.Command); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	for _, b := range buf {
		if err := d.writeByte(b); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) writeByte(b byte) error {
	if err := d.data.Out(gpio.GPIOValue(b), 0xff); err != nil {
		return err
	}
	if err := d.wr.Out(gpio.Low); err != nil {
		return err
	}
	return d.wr.Out(gpio.High)
}

type transfer struct {
	done chan error
	once sync.Once
	err  error
}

func (t *transfer) Wait() error {
	t.once.Do(func() { t.err = <-t.done })
	return t.err
}

var _ ed047tc1.Bus = &Dev{}
var _ conn.Resource = &Dev{}
