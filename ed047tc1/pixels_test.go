// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestPackRow(t *testing.T) {
	for _, tc := range []struct {
		name  string
		codes []Code
		want  []byte
	}{
		{name: "empty", codes: nil, want: []byte{}},
		{name: "one byte", codes: []Code{Darken, Lighten, NoOp, Darken}, want: []byte{0b01_10_00_01}},
		{name: "padded", codes: []Code{Lighten, Lighten, Lighten, Lighten, Darken}, want: []byte{0xaa, 0x40}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := PackRow(tc.codes)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("PackRow() difference (-got +want):\n%s", diff)
			}
			codes := UnpackRow(got)
			if diff := cmp.Diff(codes[:len(tc.codes)], tc.codes, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("UnpackRow() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestRowBytes(t *testing.T) {
	if got := len(PackRow(make([]Code, Width))); got != RowBytes {
		t.Errorf("len(PackRow(Width)) = %d, want %d", got, RowBytes)
	}
}
