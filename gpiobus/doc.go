// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpiobus implements a write only Intel 8080 style 8 bit parallel
// bus on GPIO lines.
//
// Each byte is put on the data lines and latched by the rising edge of the
// WR strobe. A transfer starts with a command byte, sent with DC high, and
// continues with the data bytes, sent with DC low. This is the bus the
// ED047TC1 source drivers listen on; Dev implements ed047tc1.Bus.
//
// The write cycle runs on its own goroutine so the caller can prepare the
// next step while the bytes go out.
package gpiobus
