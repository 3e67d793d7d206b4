// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import (
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Panel geometry.
const (
	Width  = 960
	Height = 540
	// RowBytes is the size of one row on the bus, four pixels per byte.
	RowBytes = Width / PixelsPerByte
)

// Power rail ramp delays.
const (
	rampDelay      = 100 * time.Microsecond
	negRampDelay   = 500 * time.Microsecond
	posFallDelay   = 10 * time.Microsecond
	negFallDelay   = 100 * time.Microsecond
	startPulseHold = 100 * time.Microsecond
)

// Gate clock pulse lengths, in pulse timer ticks.
const (
	rowDriveLow = 50
	skipHigh    = 45
	skipLow     = 5
	syncShort   = 1
	syncLong    = 10
)

// State is the position of the panel in its power and scan cycle.
type State int

const (
	PoweredOff State = iota
	Idle
	FrameActive
)

func (s State) String() string {
	switch s {
	case PoweredOff:
		return "off"
	case Idle:
		return "idle"
	case FrameActive:
		return "frame"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Opts defines the driver configuration.
type Opts struct {
	// RowBytes is the size of the transfer buffer.
	RowBytes int
	// ReclaimPulseChannel keeps the pulse channel of non-blocking pulses and
	// waits for it before the next pulse, instead of configuring a new
	// channel every time.
	ReclaimPulseChannel bool
	// Logger receives debug traces. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// DefaultOpts is the configuration of the LilyGo T5 4.7" board.
var DefaultOpts = Opts{
	RowBytes: RowBytes,
}

// Dev drives one panel.
//
// Dev is not safe for concurrent use.
type Dev struct {
	cfg      configWriter
	pulser   *pulser
	transfer slot[*transferResource]
	state    State
	log      logrus.FieldLogger

	delay func(time.Duration)
}

// New returns a driver using bus for row data, timer for the gate clock and
// the three configuration register lines. The default register state is
// written before returning.
func New(bus Bus, timer PulseTimer, cfgData, cfgClk, cfgStr gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	t, err := newTransferResource(bus, opts.RowBytes)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	d := &Dev{
		cfg: configWriter{
			data: cfgData,
			clk:  cfgClk,
			str:  cfgStr,
			reg:  DefaultRegister(),
		},
		pulser:   newPulser(timer, opts.ReclaimPulseChannel),
		transfer: slot[*transferResource]{name: "bus transfer"},
		log:      log.WithField("dev", "ed047tc1"),
		delay:    busyWait,
	}
	d.transfer.put(t)
	if err := d.cfg.write(); err != nil {
		return nil, err
	}
	return d, nil
}

// Bounds returns the panel size in pixels.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// Register returns the last register value written to the board.
func (d *Dev) Register() Register {
	return d.cfg.reg
}

// State returns the power and scan state.
func (d *Dev) State() State {
	return d.state
}

// PowerOn energizes the panel rails one after the other.
func (d *Dev) PowerOn() error {
	steps := []struct {
		f     func(r *Register)
		delay time.Duration
	}{
		{func(r *Register) { r.ScanDirection = true; r.PowerDisable = false }, rampDelay},
		// The negative rails need the longest to settle.
		{func(r *Register) { r.NegPowerEnable = true }, negRampDelay},
		{func(r *Register) { r.PosPowerEnable = true }, rampDelay},
		{func(r *Register) { r.StartOfFrame = true }, 0},
	}
	for _, s := range steps {
		if err := d.cfg.set(s.f); err != nil {
			return d.fail("power on", err)
		}
		if s.delay > 0 {
			d.delay(s.delay)
		}
	}
	d.setState(Idle)
	return nil
}

// PowerOff drains the rails in reverse order, then returns the register to
// its reset state.
func (d *Dev) PowerOff() error {
	if err := d.cfg.set(func(r *Register) { r.PosPowerEnable = false }); err != nil {
		return d.fail("power off", err)
	}
	d.delay(posFallDelay)
	if err := d.cfg.set(func(r *Register) { r.NegPowerEnable = false }); err != nil {
		return d.fail("power off", err)
	}
	d.delay(negFallDelay)
	if err := d.cfg.set(func(r *Register) { r.PowerDisable = true; r.StartOfFrame = false }); err != nil {
		return d.fail("power off", err)
	}
	if err := d.cfg.set(func(r *Register) { *r = DefaultRegister() }); err != nil {
		return d.fail("power off", err)
	}
	d.setState(PoweredOff)
	return nil
}

// FrameStart runs the vertical sync handshake that resets the gate driver
// to the first row.
func (d *Dev) FrameStart() error {
	if err := d.frameStart(); err != nil {
		return d.fail("frame start", err)
	}
	d.setState(FrameActive)
	return nil
}

func (d *Dev) frameStart() error {
	if err := d.cfg.set(func(r *Register) { r.Mode = true }); err != nil {
		return err
	}
	if err := d.pulser.pulse(syncShort, syncShort, true); err != nil {
		return err
	}
	if err := d.cfg.set(func(r *Register) { r.StartOfFrame = false }); err != nil {
		return err
	}
	d.delay(startPulseHold)
	if err := d.pulser.pulse(syncLong, syncLong, true); err != nil {
		return err
	}
	if err := d.cfg.set(func(r *Register) { r.StartOfFrame = true }); err != nil {
		return err
	}
	if err := d.pulser.pulse(0, syncLong, true); err != nil {
		return err
	}
	if err := d.cfg.set(func(r *Register) { r.OutputEnable = true }); err != nil {
		return err
	}
	return d.pulser.pulse(syncShort, syncShort, true)
}

// LatchRow commits the previously shifted row to the source driver outputs.
func (d *Dev) LatchRow() error {
	if err := d.cfg.set(func(r *Register) { r.LatchEnable = true }); err != nil {
		return err
	}
	return d.cfg.set(func(r *Register) { r.LatchEnable = false })
}

// OutputRow latches the row sent by the previous call, opens its drive
// window for driveTime ticks and sends row to the source drivers.
//
// row is packed as described by PackRow. A row shorter than the buffer is
// padded with NoOp bytes.
//
// The drive window runs on the pulse timer while the row is transferred;
// no ordering between the end of the two is imposed.
func (d *Dev) OutputRow(row []byte, driveTime uint16) error {
	if err := d.outputRow(row, driveTime); err != nil {
		return d.fail("output row", err)
	}
	return nil
}

func (d *Dev) outputRow(row []byte, driveTime uint16) error {
	t, err := d.transfer.take()
	if err != nil {
		return err
	}
	defer d.transfer.put(t)
	if len(row) > len(t.buf) {
		return fmt.Errorf("%w: %d > %d bytes", ErrRowTooLong, len(row), len(t.buf))
	}
	if err := d.LatchRow(); err != nil {
		return err
	}
	if err := d.pulser.pulse(driveTime, rowDriveLow, false); err != nil {
		return err
	}
	t.load(row)
	return t.send()
}

// Skip advances the gate driver by one row without sending data.
func (d *Dev) Skip() error {
	if err := d.pulser.pulse(skipHigh, skipLow, false); err != nil {
		return d.fail("skip", err)
	}
	return nil
}

// FrameEnd closes the scan and leaves the panel idle between frames.
func (d *Dev) FrameEnd() error {
	if err := d.frameEnd(); err != nil {
		return d.fail("frame end", err)
	}
	d.setState(Idle)
	return nil
}

func (d *Dev) frameEnd() error {
	if err := d.cfg.set(func(r *Register) { r.OutputEnable = false }); err != nil {
		return err
	}
	if err := d.cfg.set(func(r *Register) { r.Mode = true }); err != nil {
		return err
	}
	for range 2 {
		if err := d.pulser.pulse(syncLong, syncLong, true); err != nil {
			return err
		}
	}
	return nil
}

// DrawFrame scans one frame. Rows are sent top to bottom; a nil row is
// skipped and leaves the pixels of that row untouched.
func (d *Dev) DrawFrame(rows [][]byte, driveTime uint16) error {
	if err := d.FrameStart(); err != nil {
		return err
	}
	for _, row := range rows {
		var err error
		if row == nil {
			err = d.Skip()
		} else {
			err = d.OutputRow(row, driveTime)
		}
		if err != nil {
			return err
		}
	}
	return d.FrameEnd()
}

// Halt implements conn.Resource.
//
// It waits for an outstanding gate pulse and powers the panel off.
func (d *Dev) Halt() error {
	if err := d.pulser.settle(); err != nil {
		return d.fail("halt", err)
	}
	return d.PowerOff()
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("ed047tc1.Dev{%s, reg: %s, Width: %d, Height: %d}", d.state, d.cfg.reg, Width, Height)
}

func (d *Dev) setState(s State) {
	if s != d.state {
		d.log.WithFields(logrus.Fields{"from": d.state, "to": s, "reg": d.cfg.reg}).Debug("state change")
	}
	d.state = s
}

func (d *Dev) fail(op string, err error) error {
	d.log.WithFields(logrus.Fields{"op": op, "state": d.state, "reg": d.cfg.reg}).WithError(err).Debug("operation failed")
	return err
}

// busyWait spins on the monotonic clock. The ramp delays are far below the
// scheduler's sleep granularity.
func busyWait(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}

var _ conn.Resource = &Dev{}
