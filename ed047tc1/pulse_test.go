// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
)

func TestPulseCodes(t *testing.T) {
	for _, tc := range []struct {
		name      string
		high, low uint16
		want      [2]PulseCode
	}{
		{
			name: "high then low",
			high: 10, low: 20,
			want: [2]PulseCode{{Level1: gpio.High, Ticks1: 10, Level2: gpio.Low, Ticks2: 20}, {}},
		},
		{
			name: "low hold",
			high: 0, low: 10,
			want: [2]PulseCode{{Level1: gpio.Low, Ticks1: 10, Level2: gpio.Low}, {}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := pulseCodes(tc.high, tc.low)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("pulseCodes() difference (-got +want):\n%s", diff)
			}
			if got[0].IsEnd() || !got[1].IsEnd() {
				t.Errorf("IsEnd() = %v, %v; want false, true", got[0].IsEnd(), got[1].IsEnd())
			}
		})
	}
}
