// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad9833

import (
	"errors"
	"math"
	"testing"
)

func TestTuningWord(t *testing.T) {
	for _, tc := range []struct {
		hz   float64
		mclk float64
		want uint32
	}{
		{hz: 0, mclk: 25e6, want: 0},
		{hz: -100, mclk: 25e6, want: 0},
		{hz: 1000, mclk: 25e6, want: 10737},  // round(1000 * 2^28 / 25e6)
		{hz: 440, mclk: 25e6, want: 4724},    // round(440 * 2^28 / 25e6)
		{hz: 12.5e6, mclk: 25e6, want: 1 << 27},
		{hz: 20e6, mclk: 25e6, want: 1 << 27}, // clamped to FreqMax
		{hz: 1000, mclk: 1e6, want: 268435},   // round(1000 * 2^28 / 1e6)
	} {
		got := tuningWord(tc.hz, tc.mclk)
		if got != tc.want {
			t.Errorf("tuningWord(%v, %v): got 0x%07x, want 0x%07x", tc.hz, tc.mclk, got, tc.want)
		}
	}
}

func TestFreqWords(t *testing.T) {
	for _, tc := range []struct {
		hz     float64
		reg    int
		lo, hi uint16
		err    error
	}{
		{hz: 0, reg: 0, lo: CmdFreq0Reg, hi: CmdFreq0Reg},
		{hz: 0, reg: 1, lo: CmdFreq1Reg, hi: CmdFreq1Reg},
		{hz: 1000, reg: 0, lo: CmdFreq0Reg | (10737 & 0x3FFF), hi: CmdFreq0Reg | (10737 >> 14)},
		{hz: 12.5e6, reg: 0, lo: CmdFreq0Reg, hi: CmdFreq0Reg | (1 << 13)},
		{hz: 1000, reg: 2, err: ErrRegIndex},
		{hz: 1000, reg: -1, err: ErrRegIndex},
	} {
		lo, hi, err := freqWords(tc.hz, 25e6, tc.reg)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("freqWords(%v, reg=%d): got err=%v, want %v", tc.hz, tc.reg, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("freqWords(%v, reg=%d): %+v", tc.hz, tc.reg, err)
			continue
		}
		if lo != tc.lo || hi != tc.hi {
			t.Errorf("freqWords(%v, reg=%d): got (0x%04x, 0x%04x), want (0x%04x, 0x%04x)",
				tc.hz, tc.reg, lo, hi, tc.lo, tc.hi,
			)
		}
	}
}

func TestPhaseWord(t *testing.T) {
	for _, tc := range []struct {
		angle float64
		unit  AngleUnit
		reg   int
		want  uint16
		err   error
	}{
		{angle: 0, unit: Degrees, reg: 0, want: CmdPhase0Reg},
		{angle: 90, unit: Degrees, reg: 0, want: CmdPhase0Reg | 1024},
		{angle: 180, unit: Degrees, reg: 0, want: CmdPhase0Reg | 2048},
		{angle: 360, unit: Degrees, reg: 0, want: CmdPhase0Reg},
		{angle: 450, unit: Degrees, reg: 0, want: CmdPhase0Reg | 1024},
		{angle: -90, unit: Degrees, reg: 0, want: CmdPhase0Reg | 3072},
		{angle: 90, unit: Degrees, reg: 1, want: CmdPhase1Reg | 1024},
		{angle: math.Pi, unit: Radians, reg: 0, want: CmdPhase0Reg | 2048},
		{angle: -math.Pi / 2, unit: Radians, reg: 0, want: CmdPhase0Reg | 3072},
		{angle: 90, unit: Degrees, reg: 2, err: ErrRegIndex},
	} {
		got, err := phaseWord(tc.angle, tc.unit, tc.reg)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("phaseWord(%v, reg=%d): got err=%v, want %v", tc.angle, tc.reg, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("phaseWord(%v, reg=%d): %+v", tc.angle, tc.reg, err)
			continue
		}
		if got != tc.want {
			t.Errorf("phaseWord(%v, %v, reg=%d): got 0x%04x, want 0x%04x",
				tc.angle, tc.unit, tc.reg, got, tc.want,
			)
		}
	}
}
