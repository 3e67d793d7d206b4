// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termpanel simulates an ED047TC1 panel and previews it on the
// terminal using ANSI color codes.
//
// It plays both the parallel bus and the pulse timer for an ed047tc1.Dev, so
// the whole protocol can be exercised on a development machine. The frame
// sync pulse held low rewinds the gate driver, every high gate pulse advances
// it by one row and each row transfer darkens or lightens the pixels of the
// current row by one step.
package termpanel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/GermanBionicSystems/epd47/ed047tc1"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"
)

// Opts represents the options available for the simulator.
type Opts struct {
	// Scale is the number of panel pixels per terminal cell horizontally.
	// A cell covers twice as many rows.
	Scale int
	// Step is the grey change applied by one darken or lighten pass.
	Step    uint8
	Palette *ansi256.Palette
	// W receives the preview. Defaults to stdout.
	W io.Writer
}

// DefaultOpts fits the preview in 120 columns.
var DefaultOpts = Opts{Scale: 8, Step: 16}

// Dev is a simulated panel.
type Dev struct {
	w       io.Writer
	scale   int
	step    uint8
	palette ansi256.Palette

	mu       sync.Mutex
	img      *image.Gray
	gate     int
	channels int
	rows     int
	buf      bytes.Buffer
}

// New returns a white panel.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultOpts.Scale
	}
	step := opts.Step
	if step == 0 {
		step = DefaultOpts.Step
	}
	d := &Dev{
		w:       w,
		scale:   scale,
		step:    step,
		palette: *p,
		img:     image.NewGray(image.Rect(0, 0, ed047tc1.Width, ed047tc1.Height)),
		gate:    -1,
	}
	for i := range d.img.Pix {
		d.img.Pix[i] = 0xff
	}
	return d
}

func (d *Dev) String() string {
	return "termpanel"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// Send implements ed047tc1.Bus.
//
// The row is applied to the panel before returning.
func (d *Dev) Send(buf []byte) (ed047tc1.BusTransfer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows++
	if d.gate < 0 || d.gate >= ed047tc1.Height {
		return done{}, nil
	}
	line := d.img.Pix[d.gate*d.img.Stride : d.gate*d.img.Stride+ed047tc1.Width]
	for x, c := range ed047tc1.UnpackRow(buf) {
		if x >= len(line) {
			break
		}
		switch c {
		case ed047tc1.Darken:
			line[x] = sub(line[x], d.step)
		case ed047tc1.Lighten:
			line[x] = add(line[x], d.step)
		}
	}
	return done{}, nil
}

// Channel implements ed047tc1.PulseTimer.
func (d *Dev) Channel() (ed047tc1.PulseChannel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels++
	return &channel{d: d}, nil
}

// Channels returns how many pulse channels were configured.
func (d *Dev) Channels() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channels
}

// Rows returns how many row transfers were received.
func (d *Dev) Rows() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows
}

// Image returns a copy of the simulated panel content.
func (d *Dev) Image() *image.Gray {
	d.mu.Lock()
	defer d.mu.Unlock()
	img := image.NewGray(d.img.Rect)
	copy(img.Pix, d.img.Pix)
	return img
}

// Render writes the downscaled panel to the console.
func (d *Dev) Render() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\033[0m")
	for y := 0; y < ed047tc1.Height; y += 2 * d.scale {
		for x := 0; x < ed047tc1.Width; x += d.scale {
			_, _ = io.WriteString(&d.buf, d.palette.Block(d.average(x, y)))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

// average returns the mean grey of the cell at x, y.
func (d *Dev) average(x, y int) color.NRGBA {
	r := image.Rect(x, y, x+d.scale, y+2*d.scale).Intersect(d.img.Rect)
	sum, n := 0, 0
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			sum += int(d.img.Pix[py*d.img.Stride+px])
			n++
		}
	}
	g := uint8(sum / n)
	return color.NRGBA{g, g, g, 255}
}

func (d *Dev) pulse(codes []ed047tc1.PulseCode) {
	if len(codes) == 0 || codes[0].IsEnd() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if codes[0].Level1 == gpio.Low {
		// Vertical sync; the next high pulse arms the first row.
		d.gate = -2
		return
	}
	d.gate++
}

type channel struct {
	d *Dev
}

func (c *channel) Transmit(codes []ed047tc1.PulseCode) (ed047tc1.PulseTx, error) {
	c.d.pulse(codes)
	return pulseTx{c}, nil
}

type pulseTx struct {
	c *channel
}

func (p pulseTx) Wait() (ed047tc1.PulseChannel, error) {
	return p.c, nil
}

type done struct{}

func (done) Wait() error { return nil }

func add(v, s uint8) uint8 {
	if v > 0xff-s {
		return 0xff
	}
	return v + s
}

func sub(v, s uint8) uint8 {
	if v < s {
		return 0
	}
	return v - s
}

var _ ed047tc1.Bus = &Dev{}
var _ ed047tc1.PulseTimer = &Dev{}
var _ fmt.Stringer = &Dev{}
