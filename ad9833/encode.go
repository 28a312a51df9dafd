// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad9833

import (
	"fmt"
	"math"
)

// tuningWord converts a frequency in Hz to the 28-bit tuning word for
// the given master clock. Negative frequencies clamp to 0, frequencies
// above FreqMax clamp to FreqMax.
func tuningWord(hz, mclk float64) uint32 {
	switch {
	case hz < 0:
		hz = 0
	case hz > FreqMax:
		hz = FreqMax
	}
	return uint32(math.Round(hz*freqRegMax/mclk)) & 0x0FFFFFFF
}

// freqWords splits a frequency into the two bus words of a B28 write,
// low 14 bits first as mandated by the chip.
func freqWords(hz, mclk float64, reg int) (lo, hi uint16, err error) {
	cmd, err := freqCmd(reg)
	if err != nil {
		return 0, 0, err
	}
	w := tuningWord(hz, mclk)
	lo = cmd | uint16(w&0x3FFF)
	hi = cmd | uint16((w>>14)&0x3FFF)
	return lo, hi, nil
}

// phaseWord converts an angle into a 12-bit phase register word.
// The angle is reduced to one period; negative angles wrap to their
// positive equivalent, so -90 degrees and +270 degrees encode alike.
func phaseWord(angle float64, unit AngleUnit, reg int) (uint16, error) {
	cmd, err := phaseCmd(reg)
	if err != nil {
		return 0, err
	}

	period := 360.0
	if unit == Radians {
		period = 2 * math.Pi
	}
	a := math.Mod(angle, period)
	if a < 0 {
		a += period
	}
	return cmd | (uint16(a/period*4096) & 0x0FFF), nil
}

func freqCmd(reg int) (uint16, error) {
	switch reg {
	case 0:
		return CmdFreq0Reg, nil
	case 1:
		return CmdFreq1Reg, nil
	}
	return 0, fmt.Errorf("ad9833: invalid frequency register %d: %w", reg, ErrRegIndex)
}

func phaseCmd(reg int) (uint16, error) {
	switch reg {
	case 0:
		return CmdPhase0Reg, nil
	case 1:
		return CmdPhase1Reg, nil
	}
	return 0, fmt.Errorf("ad9833: invalid phase register %d: %w", reg, ErrRegIndex)
}
