// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpiobus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type cycle struct {
	DC   gpio.Level
	Data byte
}

// hookPin is a gpiotest.Pin calling hook after every write.
type hookPin struct {
	gpiotest.Pin
	err    error
	writes int
	hook   func(l gpio.Level)
}

func (p *hookPin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	p.writes++
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	if p.hook != nil {
		p.hook(l)
	}
	return nil
}

type fakeBus struct {
	data   []*hookPin
	dc     *hookPin
	wr     *hookPin
	cycles []cycle
}

func newFakeBus() *fakeBus {
	f := &fakeBus{
		dc: &hookPin{Pin: gpiotest.Pin{N: "DC"}},
		// WR idles high; a rising edge latches a byte.
		wr: &hookPin{Pin: gpiotest.Pin{N: "WR", L: gpio.High}},
	}
	for i := range 8 {
		f.data = append(f.data, &hookPin{Pin: gpiotest.Pin{N: fmt.Sprintf("D%d", i), Num: i}})
	}
	prev := gpio.High
	f.wr.hook = func(l gpio.Level) {
		if prev == gpio.Low && l == gpio.High {
			var b byte
			for i, p := range f.data {
				if p.Read() {
					b |= 1 << i
				}
			}
			f.cycles = append(f.cycles, cycle{DC: f.dc.Read(), Data: b})
		}
		prev = l
	}
	return f
}

func (f *fakeBus) group() *PinGroup {
	pins := make([]gpio.PinOut, len(f.data))
	for i, p := range f.data {
		pins[i] = p
	}
	return Group(pins...)
}

func TestSend(t *testing.T) {
	f := newFakeBus()
	d, err := New(f.group(), f.dc, f.wr, &Opts{Command: 0x5a})
	if err != nil {
		t.Fatal(err)
	}
	tx, err := d.Send([]byte{0x01, 0x80, 0xff})
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Wait(); err != nil {
		t.Fatal(err)
	}
	want := []cycle{
		{DC: gpio.High, Data: 0x5a},
		{DC: gpio.Low, Data: 0x01},
		{DC: gpio.Low, Data: 0x80},
		{DC: gpio.Low, Data: 0xff},
	}
	if diff := cmp.Diff(f.cycles, want); diff != "" {
		t.Errorf("bus cycles difference (-got +want):\n%s", diff)
	}
	// Wait is idempotent.
	if err := tx.Wait(); err != nil {
		t.Errorf("second Wait() = %v", err)
	}
}

func TestNewNoCycle(t *testing.T) {
	f := newFakeBus()
	if _, err := New(f.group(), f.dc, f.wr, nil); err != nil {
		t.Fatal(err)
	}
	if len(f.cycles) != 0 {
		t.Fatalf("New() clocked %v", f.cycles)
	}
	if !f.wr.Read() {
		t.Error("WR left low")
	}
}

func TestSendBusy(t *testing.T) {
	f := newFakeBus()
	d, err := New(f.group(), f.dc, f.wr, nil)
	if err != nil {
		t.Fatal(err)
	}
	release := make(chan struct{})
	blocked := false
	f.dc.hook = func(gpio.Level) {
		if !blocked {
			blocked = true
			<-release
		}
	}
	tx, err := d.Send([]byte{1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Send([]byte{2}); !errors.Is(err, ErrBusy) {
		t.Errorf("Send() while in flight = %v, want ErrBusy", err)
	}
	close(release)
	if err := tx.Wait(); err != nil {
		t.Fatal(err)
	}
	tx, err = d.Send([]byte{3})
	if err != nil {
		t.Fatalf("Send() after Wait() = %v", err)
	}
	if err := tx.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestSendError(t *testing.T) {
	f := newFakeBus()
	d, err := New(f.group(), f.dc, f.wr, nil)
	if err != nil {
		t.Fatal(err)
	}
	errBoom := errors.New("boom")
	f.data[3].err = errBoom
	tx, err := d.Send([]byte{0xff})
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Wait(); !errors.Is(err, errBoom) {
		t.Fatalf("Wait() = %v, want %v", err, errBoom)
	}
	f.data[3].err = nil
	tx, err = d.Send([]byte{0xff})
	if err != nil {
		t.Fatalf("Send() after failure = %v", err)
	}
	if err := tx.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestNewDataLines(t *testing.T) {
	pins := []gpio.PinOut{&gpiotest.Pin{}, &gpiotest.Pin{}, &gpiotest.Pin{}, &gpiotest.Pin{}}
	if _, err := New(Group(pins...), &gpiotest.Pin{}, &gpiotest.Pin{}, nil); !errors.Is(err, ErrDataLines) {
		t.Fatalf("New() = %v, want ErrDataLines", err)
	}
}

func TestPinGroup(t *testing.T) {
	f := newFakeBus()
	gr := f.group()
	if got := gr.String(); got != "[D0 D1 D2 D3 D4 D5 D6 D7]" {
		t.Errorf("String() = %q", got)
	}
	if p := gr.ByName("D4"); p == nil || p.Number() != 4 {
		t.Errorf("ByName(D4) = %v", p)
	}
	if p := gr.ByNumber(9); p != nil {
		t.Errorf("ByNumber(9) = %v, want nil", p)
	}
	if p := gr.ByOffset(8); p != nil {
		t.Errorf("ByOffset(8) = %v, want nil", p)
	}
	if err := gr.Out(0x0f, 0); err != nil {
		t.Fatal(err)
	}
	// Only D0 and D7 change.
	if err := gr.Out(0x8e, 0); err != nil {
		t.Fatal(err)
	}
	// Masked out lines are left alone.
	if err := gr.Out(0x00, 0x02); err != nil {
		t.Fatal(err)
	}
	var writes []int
	var levels []gpio.Level
	for _, p := range f.data {
		writes = append(writes, p.writes)
		levels = append(levels, p.Read())
	}
	if diff := cmp.Diff(writes, []int{2, 2, 1, 1, 1, 1, 1, 2}); diff != "" {
		t.Errorf("writes difference (-got +want):\n%s", diff)
	}
	wantLevels := []gpio.Level{gpio.Low, gpio.Low, gpio.High, gpio.High, gpio.Low, gpio.Low, gpio.Low, gpio.High}
	if diff := cmp.Diff(levels, wantLevels); diff != "" {
		t.Errorf("levels difference (-got +want):\n%s", diff)
	}
	if _, err := gr.Read(0); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Read() = %v, want ErrNotImplemented", err)
	}
}
