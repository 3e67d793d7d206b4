// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Register mirrors the board's configuration shift register.
type Register struct {
	// OutputEnable enables the source driver outputs (SPH/OE).
	OutputEnable bool
	// Mode is the gate driver mode line (GMODE).
	Mode bool
	// ScanDirection selects the gate scan direction (SPV direction).
	ScanDirection bool
	// StartOfFrame is the gate start pulse line (STV), active low.
	StartOfFrame bool
	// NegPowerEnable enables the negative rails.
	NegPowerEnable bool
	// PosPowerEnable enables the positive rails.
	PosPowerEnable bool
	// PowerDisable turns the panel power supply off.
	PowerDisable bool
	// LatchEnable latches the shifted row into the source drivers.
	LatchEnable bool
}

// Bit positions of Register.Bits(). The first field shifted out ends in the
// most significant bit.
const (
	bitLatchEnable byte = 1 << iota
	bitPowerDisable
	bitPosPowerEnable
	bitNegPowerEnable
	bitStartOfFrame
	bitScanDirection
	bitMode
	bitOutputEnable
)

// DefaultRegister returns the reset state of the register: power supply
// disabled and the start of frame line idle high.
func DefaultRegister() Register {
	return Register{PowerDisable: true, StartOfFrame: true}
}

// Bits returns the register as the byte shifted into the hardware.
func (r Register) Bits() byte {
	var b byte
	for _, f := range []struct {
		set bool
		bit byte
	}{
		{r.OutputEnable, bitOutputEnable},
		{r.Mode, bitMode},
		{r.ScanDirection, bitScanDirection},
		{r.StartOfFrame, bitStartOfFrame},
		{r.NegPowerEnable, bitNegPowerEnable},
		{r.PosPowerEnable, bitPosPowerEnable},
		{r.PowerDisable, bitPowerDisable},
		{r.LatchEnable, bitLatchEnable},
	} {
		if f.set {
			b |= f.bit
		}
	}
	return b
}

// RegisterFromBits is the inverse of Register.Bits.
func RegisterFromBits(b byte) Register {
	return Register{
		OutputEnable:   b&bitOutputEnable != 0,
		Mode:           b&bitMode != 0,
		ScanDirection:  b&bitScanDirection != 0,
		StartOfFrame:   b&bitStartOfFrame != 0,
		NegPowerEnable: b&bitNegPowerEnable != 0,
		PosPowerEnable: b&bitPosPowerEnable != 0,
		PowerDisable:   b&bitPowerDisable != 0,
		LatchEnable:    b&bitLatchEnable != 0,
	}
}

func (r Register) String() string {
	return fmt.Sprintf("0x%02X", r.Bits())
}

// configWriter shifts Register into the board over three lines.
type configWriter struct {
	data gpio.PinOut
	clk  gpio.PinOut
	str  gpio.PinOut

	reg Register
}

// errorHandler is a wrapper for error management.
type errorHandler struct {
	w   *configWriter
	err error
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.err != nil {
		return
	}
	if err := p.Out(l); err != nil {
		eh.err = fmt.Errorf("%w: %s: %w", ErrConfigLine, p, err)
	}
}

func (eh *errorHandler) writeBit(v bool) {
	eh.out(eh.w.clk, gpio.Low)
	eh.out(eh.w.data, gpio.Level(v))
	eh.out(eh.w.clk, gpio.High)
}

// write commits the whole register. The strobe is held low while the eight
// bits are clocked in and the rising edge transfers them to the outputs.
func (w *configWriter) write() error {
	eh := errorHandler{w: w}
	eh.out(w.str, gpio.Low)
	eh.writeBit(w.reg.OutputEnable)
	eh.writeBit(w.reg.Mode)
	eh.writeBit(w.reg.ScanDirection)
	eh.writeBit(w.reg.StartOfFrame)
	eh.writeBit(w.reg.NegPowerEnable)
	eh.writeBit(w.reg.PosPowerEnable)
	eh.writeBit(w.reg.PowerDisable)
	eh.writeBit(w.reg.LatchEnable)
	eh.out(w.str, gpio.High)
	return eh.err
}

// set applies f to the register and commits it.
func (w *configWriter) set(f func(r *Register)) error {
	f(&w.reg)
	return w.write()
}
