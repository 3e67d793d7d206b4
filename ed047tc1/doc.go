// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ed047tc1 drives the ED047TC1 electrophoretic panel found on the
// LilyGo T5 4.7" board.
//
// The panel has no controller of its own. The host shifts an 8 bit
// configuration word into the board's shift register to sequence the power
// rails and the gate driver, clocks row data over an 8 bit parallel bus, and
// gates each row with a precisely timed pulse on the gate clock (CKV) line.
//
// Dev implements that protocol: PowerOn and PowerOff ramp the rails,
// FrameStart, OutputRow, Skip and FrameEnd scan one frame. Turning pixels
// into row bytes and scheduling grayscale passes is left to the caller; see
// PackRow for the row byte format.
//
// The bus/transfer channel and the pulse channel are single owner resources.
// Dev moves them out to the hardware and back in on every path, so one failed
// row never leaks the bus.
//
// # Datasheet
//
// https://github.com/Xinyuan-LilyGO/LilyGo-EPD47
//
// https://github.com/vroland/epdiy
package ed047tc1
