// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GermanBionicSystems/epd47/cdevpin"
	"periph.io/x/conn/v3/gpio"
)

// board is the panel wiring of a carrier board, as GPIO names.
type board struct {
	name string
	// data lists the parallel bus lines, bit 0 first.
	data    [8]string
	cfgData string
	cfgClk  string
	cfgStr  string
	dc      string
	wr      string
	pulse   string
}

// lilyGoT5V23 is the LilyGo T5 4.7" v2.3 with its ESP32-S3 pin map.
var lilyGoT5V23 = board{
	name:    "LilyGo T5 4.7\" v2.3",
	data:    [8]string{"GPIO8", "GPIO1", "GPIO2", "GPIO3", "GPIO4", "GPIO5", "GPIO6", "GPIO7"},
	cfgData: "GPIO13",
	cfgClk:  "GPIO12",
	cfgStr:  "GPIO0",
	dc:      "GPIO40",
	wr:      "GPIO41",
	pulse:   "GPIO38",
}

// names returns every line: the data bus, then cfg data, clock and strobe,
// dc, wr and pulse.
func (b *board) names() []string {
	return append(b.data[:len(b.data):len(b.data)], b.cfgData, b.cfgClk, b.cfgStr, b.dc, b.wr, b.pulse)
}

// cdevLines maps the GPIO names to character device lines, in names order.
// WR is requested high since its rising edge latches a bus byte.
func (b *board) cdevLines() ([]cdevpin.Line, error) {
	var out []cdevpin.Line
	for _, n := range b.names() {
		o, err := strconv.Atoi(strings.TrimPrefix(n, "GPIO"))
		if err != nil {
			return nil, fmt.Errorf("%s: line %q has no offset", b.name, n)
		}
		out = append(out, cdevpin.Line{Offset: o, Initial: gpio.Level(n == b.wr)})
	}
	return out, nil
}
