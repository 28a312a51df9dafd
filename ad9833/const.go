// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ad9833

// Control register bits. The AD9833 has a single write-only 16-bit
// control register; the driver keeps one shadow copy per chip and
// patches these bits before each write.
const (
	CtrlB28     uint16 = 1 << 13 // 28-bit frequency writes, two 14-bit transfers
	CtrlHLB     uint16 = 1 << 12 // with B28=0: 1=write MSBs, 0=write LSBs
	CtrlFSelect uint16 = 1 << 11 // 1: FREQ1 drives the NCO, 0: FREQ0
	CtrlPSelect uint16 = 1 << 10 // 1: PHASE1 is added to the NCO, 0: PHASE0
	CtrlReset   uint16 = 1 << 8  // 1: internal registers reset, output idle
	CtrlSleep1  uint16 = 1 << 7  // 1: MCLK gated off, NCO halted
	CtrlSleep12 uint16 = 1 << 6  // 1: DAC powered down
	CtrlOpBitEn uint16 = 1 << 5  // 1: VOUT is the NCO MSB (square), 0: DAC output
	CtrlDiv2    uint16 = 1 << 3  // with OPBITEN=1: 1=MSB, 0=MSB/2
	CtrlMode    uint16 = 1 << 1  // with OPBITEN=0: 1=triangle, 0=sine
)

// Command prefixes (D15,D14 address the target register; D13 selects
// the phase register when D15=D14=1).
const (
	CmdCtrlReg   uint16 = 0x0000
	CmdFreq0Reg  uint16 = 0x4000
	CmdFreq1Reg  uint16 = 0x8000
	CmdPhase0Reg uint16 = 0xC000
	CmdPhase1Reg uint16 = 0xE000
)

const (
	// DefaultMCLK is the master clock of the usual AD9833 breakout
	// boards, in Hz.
	DefaultMCLK = 25e6

	// FreqMax is the highest programmable output frequency in Hz.
	// The DDS core tops out at MCLK/2 but the DAC output is unusable
	// well below that; 12.5 MHz is the practical ceiling at 25 MHz.
	FreqMax = 12.5e6

	freqRegMax = 1 << 28 // 28-bit frequency tuning word
)

// ChipSelect routes a bus word to one chip-select line or, for
// CSBoth, to both lines at once (broadcast).
type ChipSelect uint8

const (
	CS1 ChipSelect = iota + 1
	CS2
	CSBoth
)

func (cs ChipSelect) String() string {
	switch cs {
	case CS1:
		return "cs1"
	case CS2:
		return "cs2"
	case CSBoth:
		return "cs-both"
	}
	return "cs-invalid"
}

// Waveform selects the output signal shape.
type Waveform uint8

const (
	Sine Waveform = iota + 1
	Triangle
	Square
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Square:
		return "square"
	}
	return "wave-invalid"
}

// WorkStatus selects which chip's output is live after Init; the DAC
// of the idle chip is powered down.
type WorkStatus uint8

const (
	CS1Single WorkStatus = iota
	CS2Single
	DualOutput
)

func (ws WorkStatus) String() string {
	switch ws {
	case CS1Single:
		return "cs1-single"
	case CS2Single:
		return "cs2-single"
	case DualOutput:
		return "dual"
	}
	return "status-invalid"
}

// AngleUnit is the unit of phase values handed to SetPhase.
type AngleUnit uint8

const (
	Degrees AngleUnit = iota
	Radians
)
