// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epd47 is a container for the LilyGo T5 4.7" e-paper panel driver
// and its hardware backends.
//
// The protocol engine lives in ed047tc1. gpiobus, gpiopulse and cdevpin
// provide GPIO backed implementations of its bus, timing-pulse and pin
// dependencies; termpanel simulates the panel on a terminal and persist keeps
// the refresh counter across resets. cmd/epd47 ties them together.
package epd47
