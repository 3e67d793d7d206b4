// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestRegisterBits(t *testing.T) {
	for _, tc := range []struct {
		name string
		reg  Register
		want byte
	}{
		{name: "default", reg: DefaultRegister(), want: 0x12},
		{name: "output enable", reg: Register{OutputEnable: true}, want: 0x80},
		{name: "latch enable", reg: Register{LatchEnable: true}, want: 0x01},
		{name: "powered", reg: Register{ScanDirection: true, StartOfFrame: true, NegPowerEnable: true, PosPowerEnable: true}, want: 0x3c},
		{name: "mode", reg: Register{Mode: true, PowerDisable: true}, want: 0x42},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.reg.Bits(); got != tc.want {
				t.Errorf("Bits() = %#02x, want %#02x", got, tc.want)
			}
			if diff := cmp.Diff(RegisterFromBits(tc.want), tc.reg); diff != "" {
				t.Errorf("RegisterFromBits() difference (-got +want):\n%s", diff)
			}
		})
	}
}

// levelLog records every write on a set of named lines.
type levelLog []string

type logPin struct {
	gpiotest.Pin
	log *levelLog
	err error
}

func (p *logPin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	*p.log = append(*p.log, fmt.Sprintf("%s=%v", p.N, l))
	return p.Pin.Out(l)
}

func TestConfigWriterWrite(t *testing.T) {
	var log levelLog
	w := configWriter{
		data: &logPin{Pin: gpiotest.Pin{N: "D"}, log: &log},
		clk:  &logPin{Pin: gpiotest.Pin{N: "C"}, log: &log},
		str:  &logPin{Pin: gpiotest.Pin{N: "S"}, log: &log},
		reg:  Register{OutputEnable: true, LatchEnable: true},
	}
	if err := w.write(); err != nil {
		t.Fatal(err)
	}
	want := []string{"S=Low"}
	for _, v := range []string{"High", "Low", "Low", "Low", "Low", "Low", "Low", "High"} {
		want = append(want, "C=Low", "D="+v, "C=High")
	}
	want = append(want, "S=High")
	if diff := cmp.Diff([]string(log), want); diff != "" {
		t.Errorf("writes difference (-got +want):\n%s", diff)
	}
}

func TestConfigWriterError(t *testing.T) {
	var log levelLog
	errBoom := errors.New("boom")
	w := configWriter{
		data: &logPin{Pin: gpiotest.Pin{N: "D"}, log: &log, err: errBoom},
		clk:  &logPin{Pin: gpiotest.Pin{N: "C"}, log: &log},
		str:  &logPin{Pin: gpiotest.Pin{N: "S"}, log: &log},
	}
	err := w.set(func(r *Register) { r.Mode = true })
	if !errors.Is(err, ErrConfigLine) || !errors.Is(err, errBoom) {
		t.Fatalf("set() = %v, want ErrConfigLine wrapping %v", err, errBoom)
	}
	// The strobe never rises, so nothing reaches the outputs.
	if diff := cmp.Diff([]string(log), []string{"S=Low", "C=Low"}); diff != "" {
		t.Errorf("writes difference (-got +want):\n%s", diff)
	}
	if !w.reg.Mode {
		t.Error("register lost the pending change")
	}
}
