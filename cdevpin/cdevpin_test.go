// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cdevpin

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
)

type fakeLine struct {
	values []int
	closed int
	err    error
}

func (f *fakeLine) SetValue(v int) error {
	if f.err != nil {
		return f.err
	}
	f.values = append(f.values, v)
	return nil
}

func (f *fakeLine) Close() error {
	f.closed++
	return nil
}

func TestOut(t *testing.T) {
	f := &fakeLine{}
	p := &Pin{chip: "gpiochip0", offset: 13, l: f}
	for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := p.Out(l); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(f.values, []int{1, 0, 1}); diff != "" {
		t.Errorf("values difference (-got +want):\n%s", diff)
	}
	if s := p.String(); s != "gpiochip0:13" {
		t.Errorf("String() = %q", s)
	}
	if n := p.Number(); n != 13 {
		t.Errorf("Number() = %d", n)
	}
}

func TestOutError(t *testing.T) {
	errBoom := errors.New("boom")
	p := &Pin{chip: "gpiochip0", offset: 1, l: &fakeLine{err: errBoom}}
	if err := p.Out(gpio.High); !errors.Is(err, errBoom) {
		t.Fatalf("Out() = %v, want %v", err, errBoom)
	}
}

func TestHalt(t *testing.T) {
	f := &fakeLine{}
	p := &Pin{chip: "gpiochip0", offset: 12, l: f}
	if err := p.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := p.Halt(); err != nil {
		t.Fatal(err)
	}
	if f.closed != 1 {
		t.Errorf("closed %d times, want 1", f.closed)
	}
	if err := p.Out(gpio.Low); !errors.Is(err, ErrClosed) {
		t.Errorf("Out() after Halt() = %v, want ErrClosed", err)
	}
	if err := p.PWM(gpio.DutyHalf, 0); err == nil {
		t.Error("PWM() should fail")
	}
}

type requested struct {
	Offset int
	Value  int
}

func TestOpenAll(t *testing.T) {
	var got []requested
	var opened []*fakeLine
	errBoom := errors.New("busy")
	fail := -1
	old := request
	defer func() { request = old }()
	request = func(chip string, offset, value int) (line, error) {
		if chip != "gpiochip0" {
			t.Errorf("chip = %q", chip)
		}
		if offset == fail {
			return nil, errBoom
		}
		got = append(got, requested{offset, value})
		f := &fakeLine{}
		opened = append(opened, f)
		return f, nil
	}

	pins, err := OpenAll("gpiochip0", Line{Offset: 40}, Line{Offset: 41, Initial: gpio.High})
	if err != nil {
		t.Fatal(err)
	}
	if len(pins) != 2 || pins[1].Number() != 41 {
		t.Fatalf("OpenAll() = %v", pins)
	}
	if diff := cmp.Diff(got, []requested{{40, 0}, {41, 1}}); diff != "" {
		t.Errorf("requests difference (-got +want):\n%s", diff)
	}

	// A failed request releases the lines already obtained.
	got, opened = nil, nil
	fail = 2
	if _, err := OpenAll("gpiochip0", Line{Offset: 1}, Line{Offset: 2}); !errors.Is(err, errBoom) {
		t.Fatalf("OpenAll() = %v, want %v", err, errBoom)
	}
	if len(opened) != 1 || opened[0].closed != 1 {
		t.Errorf("lines not released: %+v", opened)
	}
}
