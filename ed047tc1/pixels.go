// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

// Code is the 2 bit drive code of one pixel for one pass.
type Code uint8

// Drive codes.
const (
	NoOp    Code = 0b00
	Darken  Code = 0b01
	Lighten Code = 0b10
)

// PixelsPerByte is the number of pixels packed in one row byte.
const PixelsPerByte = 4

// PackRow packs one drive code per pixel into row bytes. The leftmost pixel
// of each group of four goes into the two most significant bits. A short
// last group is padded with NoOp.
func PackRow(codes []Code) []byte {
	row := make([]byte, (len(codes)+PixelsPerByte-1)/PixelsPerByte)
	for i, c := range codes {
		shift := 6 - 2*(i%PixelsPerByte)
		row[i/PixelsPerByte] |= byte(c&0b11) << shift
	}
	return row
}

// UnpackRow is the inverse of PackRow.
func UnpackRow(row []byte) []Code {
	codes := make([]Code, len(row)*PixelsPerByte)
	for i := range codes {
		shift := 6 - 2*(i%PixelsPerByte)
		codes[i] = Code(row[i/PixelsPerByte]>>shift) & 0b11
	}
	return codes
}
