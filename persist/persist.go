// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package persist keeps a small state record across resets.
//
// The record lives in two fixed slots of a file which are written
// alternately, so that an interrupted write leaves the previous record
// readable.
package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
)

// ErrNoState is returned by Load when no valid record exists.
var ErrNoState = errors.New("persist: no valid state")

// ErrRange is returned by Save for a rectangle that does not fit the record.
var ErrRange = errors.New("persist: rectangle out of range")

// State is the record carried across resets.
type State struct {
	// Cycle counts completed refresh cycles.
	Cycle uint16
	// Rect is the area drawn last. Coordinates are stored on 16 bits.
	Rect image.Rectangle
}

const (
	magic = 0x45504434 // "EPD4"
	// magic | seq | cycle | rect | crc8
	payloadSize = 4 + 4 + 2 + 4*2
	slotSize    = 32
)

// Store is a file backed record.
type Store struct {
	path string
}

// New returns a Store backed by path. The file is created on the first Save.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) String() string {
	return fmt.Sprintf("persist{%s}", s.path)
}

// Load returns the most recent valid record.
//
// A slot that is truncated or fails its checksum is ignored. When neither
// slot is valid, the zero State and ErrNoState are returned.
func (s *Store) Load() (State, error) {
	st, _, _, err := s.scan()
	return st, err
}

// Save writes st over the older slot and syncs the file.
func (s *Store) Save(st State) error {
	for _, v := range []int{st.Rect.Min.X, st.Rect.Min.Y, st.Rect.Max.X, st.Rect.Max.Y} {
		if v < math.MinInt16 || v > math.MaxInt16 {
			return fmt.Errorf("%w: %v", ErrRange, st.Rect)
		}
	}
	_, seq, ix, err := s.scan()
	if err != nil && !errors.Is(err, ErrNoState) {
		return err
	}
	if err == nil {
		ix = 1 - ix
		seq++
	}
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	if _, err := f.WriteAt(encode(st, seq), int64(ix*slotSize)); err != nil {
		_ = f.Close()
		return fmt.Errorf("persist: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("persist: %w", err)
	}
	return f.Close()
}

// scan returns the newest valid record with its sequence number and slot.
func (s *Store) scan() (State, uint32, int, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, 0, 0, ErrNoState
		}
		return State{}, 0, 0, fmt.Errorf("persist: %w", err)
	}
	var best State
	var bestSeq uint32
	bestIx := -1
	for ix := range 2 {
		st, seq, err := decode(raw, ix)
		if err != nil {
			continue
		}
		// Sequence numbers wrap; the newer record is at most 2^31 ahead.
		if bestIx < 0 || int32(seq-bestSeq) > 0 {
			best, bestSeq, bestIx = st, seq, ix
		}
	}
	if bestIx < 0 {
		return State{}, 0, 0, ErrNoState
	}
	return best, bestSeq, bestIx, nil
}

func encode(st State, seq uint32) []byte {
	b := make([]byte, payloadSize+1)
	binary.LittleEndian.PutUint32(b[0:], magic)
	binary.LittleEndian.PutUint32(b[4:], seq)
	binary.LittleEndian.PutUint16(b[8:], st.Cycle)
	binary.LittleEndian.PutUint16(b[10:], uint16(int16(st.Rect.Min.X)))
	binary.LittleEndian.PutUint16(b[12:], uint16(int16(st.Rect.Min.Y)))
	binary.LittleEndian.PutUint16(b[14:], uint16(int16(st.Rect.Max.X)))
	binary.LittleEndian.PutUint16(b[16:], uint16(int16(st.Rect.Max.Y)))
	b[payloadSize] = crc8(b[:payloadSize])
	return b
}

func decode(raw []byte, ix int) (State, uint32, error) {
	off := ix * slotSize
	if len(raw) < off+payloadSize+1 {
		return State{}, 0, io.ErrUnexpectedEOF
	}
	b := raw[off : off+payloadSize+1]
	if binary.LittleEndian.Uint32(b[0:]) != magic {
		return State{}, 0, errors.New("persist: bad magic")
	}
	if crc8(b[:payloadSize]) != b[payloadSize] {
		return State{}, 0, errors.New("persist: bad checksum")
	}
	i16 := func(o int) int { return int(int16(binary.LittleEndian.Uint16(b[o:]))) }
	st := State{
		Cycle: binary.LittleEndian.Uint16(b[8:]),
		Rect:  image.Rect(i16(10), i16(12), i16(14), i16(16)),
	}
	return st, binary.LittleEndian.Uint32(b[4:]), nil
}

// crc8 checksums a record: polynomial 0x31 seeded with 0xff.
func crc8(bytes []byte) byte {
	var crc byte = 0xff
	for _, val := range bytes {
		crc ^= val
		for range 8 {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (crc << 1) ^ 0x31
			}
		}
	}
	return crc
}
