// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import (
	"errors"
	"fmt"
)

var (
	// ErrTimingChannel is returned when the pulse peripheral could not be
	// configured or failed to transmit. The channel is discarded and acquired
	// again on the next pulse.
	ErrTimingChannel = errors.New("ed047tc1: timing channel error")
	// ErrChannelUnavailable is returned when no pulse channel could be
	// acquired.
	ErrChannelUnavailable = fmt.Errorf("%w: channel unavailable", ErrTimingChannel)
	// ErrTransmit is returned when a pulse waveform failed to transmit.
	ErrTransmit = fmt.Errorf("%w: transmit failed", ErrTimingChannel)

	// ErrTransfer is returned when a row transfer over the bus failed. The
	// bus is reclaimed and the next row can be sent.
	ErrTransfer = errors.New("ed047tc1: transfer error")
	// ErrRowTooLong is returned when a row does not fit the transfer buffer.
	// Nothing is sent to the panel.
	ErrRowTooLong = fmt.Errorf("%w: row exceeds transfer buffer", ErrTransfer)

	// ErrBufferInit is returned by New when the transfer buffer cannot be
	// allocated.
	ErrBufferInit = errors.New("ed047tc1: transfer buffer init failed")

	// ErrResourceUnavailable means a single owner resource was expected to be
	// held but wasn't. It signals a sequencing defect, not a hardware fault,
	// and must not be retried.
	ErrResourceUnavailable = errors.New("ed047tc1: resource unavailable")

	// ErrConfigLine is returned when a configuration register line could not
	// be driven.
	ErrConfigLine = errors.New("ed047tc1: config line write failed")
)
