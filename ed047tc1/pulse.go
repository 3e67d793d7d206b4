// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// PulseCode is one entry of a waveform: Level1 for Ticks1 ticks, then Level2
// for Ticks2 ticks. The zero value is the end marker.
type PulseCode struct {
	Level1 gpio.Level
	Ticks1 uint16
	Level2 gpio.Level
	Ticks2 uint16
}

// IsEnd reports whether c terminates a waveform.
func (c PulseCode) IsEnd() bool {
	return c.Ticks1 == 0 && c.Ticks2 == 0
}

// PulseTimer is a timing-pulse peripheral driving the gate clock line.
type PulseTimer interface {
	// Channel configures and returns a transmit channel. Each call returns a
	// new channel; the previous one, if still transmitting, completes first.
	Channel() (PulseChannel, error)
}

// PulseChannel transmits waveforms.
//
// Transmit hands the channel over to the hardware: the caller must not use it
// again until PulseTx.Wait returns it.
type PulseChannel interface {
	Transmit(codes []PulseCode) (PulseTx, error)
}

// PulseTx is a waveform in flight.
type PulseTx interface {
	// Wait blocks until the waveform completed and returns the channel. On
	// error the channel is lost.
	Wait() (PulseChannel, error)
}

// pulseCodes builds the waveform for a high phase followed by a low phase.
// Without a high phase the line is held low.
func pulseCodes(high, low uint16) [2]PulseCode {
	if high > 0 {
		return [2]PulseCode{{Level1: gpio.High, Ticks1: high, Level2: gpio.Low, Ticks2: low}, {}}
	}
	return [2]PulseCode{{Level1: gpio.Low, Ticks1: low, Level2: gpio.Low, Ticks2: 0}, {}}
}

// pulser emits gate clock pulses, acquiring the pulse channel lazily.
type pulser struct {
	timer PulseTimer
	ch    slot[PulseChannel]

	// reclaim parks non-blocking transmissions in pending instead of
	// forfeiting their channel.
	reclaim bool
	pending PulseTx
}

func newPulser(timer PulseTimer, reclaim bool) *pulser {
	return &pulser{
		timer:   timer,
		ch:      slot[PulseChannel]{name: "pulse channel"},
		reclaim: reclaim,
	}
}

// pulse emits high ticks high then low ticks low. With wait the call returns
// once the waveform is done and the channel is back in its slot.
//
// Without wait, and unless reclaim is set, the in-flight channel is
// abandoned and the next pulse configures a fresh one.
func (p *pulser) pulse(high, low uint16, wait bool) error {
	if err := p.settle(); err != nil {
		return err
	}
	if !p.ch.held() {
		ch, err := p.timer.Channel()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrChannelUnavailable, err)
		}
		p.ch.put(ch)
	}
	ch, err := p.ch.take()
	if err != nil {
		return err
	}
	codes := pulseCodes(high, low)
	tx, err := ch.Transmit(codes[:])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransmit, err)
	}
	if !wait {
		if p.reclaim {
			p.pending = tx
		}
		return nil
	}
	if ch, err = tx.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransmit, err)
	}
	p.ch.put(ch)
	return nil
}

// settle waits for a parked transmission and takes its channel back.
func (p *pulser) settle() error {
	if p.pending == nil {
		return nil
	}
	tx := p.pending
	p.pending = nil
	ch, err := tx.Wait()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransmit, err)
	}
	p.ch.put(ch)
	return nil
}
