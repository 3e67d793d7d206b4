// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import "fmt"

// Bus is the 8 bit parallel data bus with its transfer engine, the LCD
// peripheral and its DMA on the LilyGo board.
type Bus interface {
	// Send starts transmitting buf to the source drivers. buf belongs to the
	// transfer until BusTransfer.Wait returns.
	Send(buf []byte) (BusTransfer, error)
}

// BusTransfer is a row transfer in flight.
type BusTransfer interface {
	// Wait blocks until the transfer completed.
	Wait() error
}

// transferResource is the bus together with its row buffer. It is either held
// by Dev or in flight, never both.
type transferResource struct {
	bus Bus
	buf []byte
}

func newTransferResource(bus Bus, size int) (*transferResource, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d byte row", ErrBufferInit, size)
	}
	return &transferResource{bus: bus, buf: make([]byte, size)}, nil
}

// load copies row into the buffer and clears what is left of the previous
// row.
func (t *transferResource) load(row []byte) {
	n := copy(t.buf, row)
	clear(t.buf[n:])
}

// send transmits the buffer and waits for completion. The caller keeps
// ownership of t on every return path.
func (t *transferResource) send() error {
	tx, err := t.bus.Send(t.buf)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	if err := tx.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	return nil
}
