// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// epd47 clears an ED047TC1 panel and draws sixteen grey bars on it.
//
// With -sim the panel is simulated and previewed on the terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/GermanBionicSystems/epd47/cdevpin"
	"github.com/GermanBionicSystems/epd47/ed047tc1"
	"github.com/GermanBionicSystems/epd47/gpiobus"
	"github.com/GermanBionicSystems/epd47/gpiopulse"
	"github.com/GermanBionicSystems/epd47/persist"
	"github.com/GermanBionicSystems/epd47/termpanel"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/host/v3"
)

// bars is the number of grey levels drawn.
const bars = 16

// hw is an opened backend.
type hw struct {
	bus                     ed047tc1.Bus
	timer                   ed047tc1.PulseTimer
	cfgData, cfgClk, cfgStr gpio.PinOut
	panel                   *termpanel.Dev
	res                     []conn.Resource
}

func (h *hw) halt() {
	for i := len(h.res) - 1; i >= 0; i-- {
		if err := h.res[i].Halt(); err != nil {
			logrus.WithError(err).WithField("resource", h.res[i]).Warn("halt")
		}
	}
}

func openSim() (*hw, error) {
	p := termpanel.New(nil)
	return &hw{
		bus:     p,
		timer:   p,
		cfgData: &gpiotest.Pin{N: "CFG_DATA"},
		cfgClk:  &gpiotest.Pin{N: "CFG_CLK"},
		cfgStr:  &gpiotest.Pin{N: "CFG_STR"},
		panel:   p,
		res:     []conn.Resource{p},
	}, nil
}

func openPins(b *board, backend, chip string) ([]gpio.PinOut, []conn.Resource, error) {
	switch backend {
	case "periph":
		if _, err := host.Init(); err != nil {
			return nil, nil, err
		}
		var pins []gpio.PinOut
		for _, n := range b.names() {
			p := gpioreg.ByName(n)
			if p == nil {
				return nil, nil, fmt.Errorf("%s: no pin %s", b.name, n)
			}
			pins = append(pins, p)
		}
		return pins, nil, nil
	case "cdev":
		cl, err := b.cdevLines()
		if err != nil {
			return nil, nil, err
		}
		lines, err := cdevpin.OpenAll(chip, cl...)
		if err != nil {
			return nil, nil, err
		}
		pins := make([]gpio.PinOut, len(lines))
		res := make([]conn.Resource, len(lines))
		for i, l := range lines {
			pins[i], res[i] = l, l
		}
		return pins, res, nil
	default:
		return nil, nil, fmt.Errorf("unknown -gpio %q", backend)
	}
}

func openHW(b *board, backend, chip string) (*hw, error) {
	pins, res, err := openPins(b, backend, chip)
	if err != nil {
		return nil, err
	}
	h := &hw{res: res}
	bus, err := gpiobus.New(gpiobus.Group(pins[:8]...), pins[11], pins[12], nil)
	if err != nil {
		h.halt()
		return nil, err
	}
	h.res = append(h.res, bus)
	timer, err := gpiopulse.New(pins[13], nil)
	if err != nil {
		h.halt()
		return nil, err
	}
	h.res = append(h.res, timer)
	h.bus, h.timer = bus, timer
	h.cfgData, h.cfgClk, h.cfgStr = pins[8], pins[9], pins[10]
	return h, nil
}

// uniform returns height copies of a row driving every pixel with c.
func uniform(c ed047tc1.Code) [][]byte {
	codes := make([]ed047tc1.Code, ed047tc1.Width)
	for i := range codes {
		codes[i] = c
	}
	row := ed047tc1.PackRow(codes)
	rows := make([][]byte, ed047tc1.Height)
	for y := range rows {
		rows[y] = row
	}
	return rows
}

// barPass returns the frame of darken pass n: bar i is darkened while n < i,
// so that it ends up i passes darker than bar 0.
func barPass(n int) [][]byte {
	codes := make([]ed047tc1.Code, ed047tc1.Width)
	w := ed047tc1.Width / bars
	for x := range codes {
		if n < x/w {
			codes[x] = ed047tc1.Darken
		}
	}
	row := ed047tc1.PackRow(codes)
	rows := make([][]byte, ed047tc1.Height)
	for y := range rows {
		rows[y] = row
	}
	return rows
}

// draw clears the panel and draws the bars. On failure the panel is halted
// so that the rails are not left energized.
func draw(d *ed047tc1.Dev, passes int, drive uint16, log logrus.FieldLogger) error {
	err := drawPasses(d, passes, drive)
	if err != nil {
		if herr := d.Halt(); herr != nil {
			log.WithError(herr).WithField("dev", d).Warn("halt")
		}
	}
	return err
}

func drawPasses(d *ed047tc1.Dev, passes int, drive uint16) error {
	if err := d.PowerOn(); err != nil {
		return err
	}
	white := uniform(ed047tc1.Lighten)
	for range passes {
		if err := d.DrawFrame(white, drive); err != nil {
			return err
		}
	}
	for n := range bars - 1 {
		if err := d.DrawFrame(barPass(n), drive); err != nil {
			return err
		}
	}
	return d.PowerOff()
}

func mainImpl() error {
	sim := flag.Bool("sim", false, "simulate the panel on the terminal")
	backend := flag.String("gpio", "periph", "GPIO backend: periph or cdev")
	chip := flag.String("chip", "gpiochip0", "GPIO character device for -gpio cdev")
	drive := flag.Uint("drive", 50, "row drive time in pulse ticks")
	passes := flag.Int("passes", 4, "lighten passes to clear the panel")
	statePath := flag.String("state", "", "file keeping the refresh counter across resets")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if *drive == 0 || *drive > 0xffff {
		return fmt.Errorf("-drive must be in [1, 65535], got %d", *drive)
	}

	var st persist.State
	var store *persist.Store
	if *statePath != "" {
		store = persist.New(*statePath)
		var err error
		if st, err = store.Load(); err != nil && !errors.Is(err, persist.ErrNoState) {
			return err
		}
	}
	b := &lilyGoT5V23
	logrus.WithFields(logrus.Fields{"board": b.name, "cycle": st.Cycle, "last": st.Rect}).Info("starting")

	var h *hw
	var err error
	if *sim {
		h, err = openSim()
	} else {
		h, err = openHW(b, *backend, *chip)
	}
	if err != nil {
		return err
	}
	defer h.halt()

	d, err := ed047tc1.New(h.bus, h.timer, h.cfgData, h.cfgClk, h.cfgStr, &ed047tc1.Opts{
		RowBytes: ed047tc1.RowBytes,
		Logger:   logrus.StandardLogger(),
	})
	if err != nil {
		return err
	}
	if err := draw(d, *passes, uint16(*drive), logrus.StandardLogger()); err != nil {
		return err
	}
	logrus.WithField("dev", d).Info("done")

	if h.panel != nil {
		if err := h.panel.Render(); err != nil {
			return err
		}
	}
	if store != nil {
		st.Cycle++
		st.Rect = d.Bounds()
		if err := store.Save(st); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "epd47: %s.\n", err)
		os.Exit(1)
	}
}
