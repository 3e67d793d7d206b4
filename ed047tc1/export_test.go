// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import "time"

// SetDelay replaces the busy wait used between rail steps.
func SetDelay(d *Dev, f func(time.Duration)) {
	d.delay = f
}

// TakeTransfer moves the bus transfer resource out of d, simulating a
// sequencing defect.
func TakeTransfer(d *Dev) error {
	_, err := d.transfer.take()
	return err
}
