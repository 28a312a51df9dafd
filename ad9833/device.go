// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ad9833 controls one or two AD9833 DDS waveform generators
// sharing a serial bus and a master clock.
//
// The chip is write-only: every setting lives in a 16-bit control
// register that cannot be read back, so the driver keeps a shadow copy
// per chip and patches individual bits before each write. Frequency
// and phase registers are programmed directly and do not go through
// the shadow register.
package ad9833 // import "github.com/coverMoon/Driver-of-double-AD9833/ad9833"

import (
	"errors"
	"fmt"
	"log"
	"os"
)

var (
	// ErrChipSelect reports a chip selector that does not name a
	// valid target for the attempted operation.
	ErrChipSelect = errors.New("ad9833: invalid chip select")

	// ErrRegIndex reports a frequency or phase register index other
	// than 0 or 1.
	ErrRegIndex = errors.New("ad9833: invalid register index")

	// ErrWaveform reports an unknown waveform selector.
	ErrWaveform = errors.New("ad9833: invalid waveform")

	// ErrWaveformMismatch reports a synchronized start with two
	// different waveforms: the broadcast start word programs both
	// chips at once and cannot encode two shapes.
	ErrWaveformMismatch = errors.New("ad9833: synchronized start needs equal waveforms")
)

// Transmitter clocks a 16-bit word out to the chip-select target,
// MSB first, framed by asserting (low) and deasserting the CS line(s).
// For CSBoth, both lines are held low for the same transmission.
type Transmitter interface {
	Transmit(cs ChipSelect, word uint16) error
}

type config struct {
	mclk float64
	unit AngleUnit
}

func newConfig() config {
	return config{
		mclk: DefaultMCLK,
		unit: Degrees,
	}
}

// Option configures a Device.
type Option func(*config)

// WithMCLK sets the master clock frequency, in Hz, used to derive
// frequency tuning words.
func WithMCLK(hz float64) Option {
	return func(cfg *config) {
		cfg.mclk = hz
	}
}

// WithAngleUnit sets the unit of phase values passed to SetPhase.
func WithAngleUnit(unit AngleUnit) Option {
	return func(cfg *config) {
		cfg.unit = unit
	}
}

// ChannelConfig describes the output of one chip.
type ChannelConfig struct {
	Wave     Waveform
	Freq     float64 // Hz
	Phase    float64 // in the device's angle unit
	FreqReg  int     // 0 or 1
	PhaseReg int     // 0 or 1
}

// Config describes the output of the pair.
type Config struct {
	Status WorkStatus
	CS1    ChannelConfig
	CS2    ChannelConfig
}

// Device drives a pair of AD9833 chips through a Transmitter.
//
// Methods on Device are not safe for concurrent use: the shadow
// registers and the underlying bus must be serialized by the caller.
type Device struct {
	msg *log.Logger
	bus Transmitter
	cfg config

	reg [2]uint16 // shadow control registers, CS1 then CS2
}

// New creates a Device on the given bus. Both chips start with B28
// latched and RESET asserted; no bus traffic happens until Init.
func New(bus Transmitter, opts ...Option) (*Device, error) {
	if bus == nil {
		return nil, fmt.Errorf("ad9833: nil transmitter")
	}

	dev := &Device{
		msg: log.New(os.Stdout, "ad9833: ", 0),
		bus: bus,
		cfg: newConfig(),
	}
	for _, opt := range opts {
		opt(&dev.cfg)
	}
	if dev.cfg.mclk <= 0 {
		return nil, fmt.Errorf("ad9833: invalid master clock %v Hz", dev.cfg.mclk)
	}

	dev.reg[0] = CmdCtrlReg | CtrlB28 | CtrlReset
	dev.reg[1] = CmdCtrlReg | CtrlB28 | CtrlReset
	return dev, nil
}

// shadow returns the shadow control register for cs. Broadcast is not
// a valid target for read-modify-write operations: the two shadows
// could disagree and a single word cannot patch both.
func (dev *Device) shadow(cs ChipSelect) (*uint16, error) {
	switch cs {
	case CS1:
		return &dev.reg[0], nil
	case CS2:
		return &dev.reg[1], nil
	}
	return nil, fmt.Errorf("ad9833: chip select %v not addressable: %w", cs, ErrChipSelect)
}

func (dev *Device) transmit(cs ChipSelect, word uint16) error {
	switch cs {
	case CS1, CS2, CSBoth:
	default:
		return fmt.Errorf("ad9833: could not transmit 0x%04x: %w", word, ErrChipSelect)
	}
	err := dev.bus.Transmit(cs, word)
	if err != nil {
		return fmt.Errorf("ad9833: could not transmit 0x%04x to %v: %w", word, cs, err)
	}
	return nil
}

// Init puts both chips in a known state: shadow registers reset to
// B28|RESET, the idle chip's DAC powered down per status, and both
// control words pushed out. An unknown status powers everything down.
func (dev *Device) Init(status WorkStatus) error {
	dev.reg[0] = CmdCtrlReg | CtrlB28 | CtrlReset
	dev.reg[1] = CmdCtrlReg | CtrlB28 | CtrlReset

	switch status {
	case CS1Single:
		dev.reg[1] |= CtrlSleep12
	case CS2Single:
		dev.reg[0] |= CtrlSleep12
	case DualOutput:
		// both DACs stay powered.
	default:
		dev.msg.Printf("unknown work status %d, disabling both outputs", status)
		dev.reg[0] |= CtrlSleep1 | CtrlSleep12
		dev.reg[1] |= CtrlSleep1 | CtrlSleep12
	}

	err := dev.transmit(CS1, dev.reg[0])
	if err != nil {
		return fmt.Errorf("ad9833: could not initialize CS1: %w", err)
	}
	err = dev.transmit(CS2, dev.reg[1])
	if err != nil {
		return fmt.Errorf("ad9833: could not initialize CS2: %w", err)
	}
	return nil
}

// WriteRaw sends a raw 16-bit word to the selected chip(s), bypassing
// the shadow registers.
func (dev *Device) WriteRaw(cs ChipSelect, word uint16) error {
	return dev.transmit(cs, word)
}

// SetFrequency programs frequency register reg with hz, clamped to
// [0, FreqMax]. Two words are sent, low 14 bits first, as required in
// B28 mode. The shadow control register is not touched.
func (dev *Device) SetFrequency(cs ChipSelect, reg int, hz float64) error {
	lo, hi, err := freqWords(hz, dev.cfg.mclk, reg)
	if err != nil {
		return err
	}
	if err := dev.transmit(cs, lo); err != nil {
		return fmt.Errorf("ad9833: could not write frequency LSBs: %w", err)
	}
	if err := dev.transmit(cs, hi); err != nil {
		return fmt.Errorf("ad9833: could not write frequency MSBs: %w", err)
	}
	return nil
}

// SetPhase programs phase register reg with the given angle, reduced
// to one period. The shadow control register is not touched.
func (dev *Device) SetPhase(cs ChipSelect, reg int, angle float64) error {
	word, err := phaseWord(angle, dev.cfg.unit, reg)
	if err != nil {
		return err
	}
	if err := dev.transmit(cs, word); err != nil {
		return fmt.Errorf("ad9833: could not write phase: %w", err)
	}
	return nil
}

// SelectFreqReg points the NCO at frequency register reg.
func (dev *Device) SelectFreqReg(cs ChipSelect, reg int) error {
	ctrl, err := dev.shadow(cs)
	if err != nil {
		return err
	}
	switch reg {
	case 0:
		*ctrl &= ^CtrlFSelect
	case 1:
		*ctrl |= CtrlFSelect
	default:
		return fmt.Errorf("ad9833: invalid frequency register %d: %w", reg, ErrRegIndex)
	}
	return dev.transmit(cs, *ctrl)
}

// SelectPhaseReg points the phase adder at phase register reg.
func (dev *Device) SelectPhaseReg(cs ChipSelect, reg int) error {
	ctrl, err := dev.shadow(cs)
	if err != nil {
		return err
	}
	switch reg {
	case 0:
		*ctrl &= ^CtrlPSelect
	case 1:
		*ctrl |= CtrlPSelect
	default:
		return fmt.Errorf("ad9833: invalid phase register %d: %w", reg, ErrRegIndex)
	}
	return dev.transmit(cs, *ctrl)
}

// SetWaveformAndStart selects the output shape and clears RESET.
// This is the only operation that clears RESET, so it is the "go
// live" call. FSELECT, PSELECT and the sleep bits are left alone.
func (dev *Device) SetWaveformAndStart(cs ChipSelect, wave Waveform) error {
	ctrl, err := dev.shadow(cs)
	if err != nil {
		return err
	}

	bits, err := waveBits(wave)
	if err != nil {
		return err
	}

	*ctrl &= ^(CtrlMode | CtrlOpBitEn | CtrlDiv2)
	*ctrl |= bits
	*ctrl &= ^CtrlReset
	return dev.transmit(cs, *ctrl)
}

// Reset asserts or releases the RESET bit, leaving every other bit
// untouched. Safe to call at any time.
func (dev *Device) Reset(cs ChipSelect, active bool) error {
	ctrl, err := dev.shadow(cs)
	if err != nil {
		return err
	}
	if active {
		*ctrl |= CtrlReset
	} else {
		*ctrl &= ^CtrlReset
	}
	return dev.transmit(cs, *ctrl)
}

// Sleep sets the SLEEP1 (MCLK gated) and SLEEP12 (DAC powered down)
// bits independently.
func (dev *Device) Sleep(cs ChipSelect, sleep1, sleep12 bool) error {
	ctrl, err := dev.shadow(cs)
	if err != nil {
		return err
	}
	if sleep1 {
		*ctrl |= CtrlSleep1
	} else {
		*ctrl &= ^CtrlSleep1
	}
	if sleep12 {
		*ctrl |= CtrlSleep12
	} else {
		*ctrl &= ^CtrlSleep12
	}
	return dev.transmit(cs, *ctrl)
}

// Configure initializes both chips and brings the active channel(s)
// up with their full output settings. Loading registers while RESET
// is asserted is safe: the NCO is halted, so no intermediate state
// reaches the output.
func (dev *Device) Configure(cfg Config) error {
	err := dev.Init(cfg.Status)
	if err != nil {
		return fmt.Errorf("ad9833: could not initialize pair: %w", err)
	}

	if cfg.Status == CS1Single || cfg.Status == DualOutput {
		err = dev.configure(CS1, cfg.CS1)
		if err != nil {
			return fmt.Errorf("ad9833: could not configure CS1: %w", err)
		}
	}
	if cfg.Status == CS2Single || cfg.Status == DualOutput {
		err = dev.configure(CS2, cfg.CS2)
		if err != nil {
			return fmt.Errorf("ad9833: could not configure CS2: %w", err)
		}
	}
	return nil
}

func (dev *Device) configure(cs ChipSelect, ch ChannelConfig) error {
	err := dev.SelectFreqReg(cs, ch.FreqReg)
	if err != nil {
		return err
	}
	err = dev.SelectPhaseReg(cs, ch.PhaseReg)
	if err != nil {
		return err
	}
	err = dev.SetFrequency(cs, ch.FreqReg, ch.Freq)
	if err != nil {
		return err
	}
	err = dev.SetPhase(cs, ch.PhaseReg, ch.Phase)
	if err != nil {
		return err
	}
	return dev.SetWaveformAndStart(cs, ch.Wave)
}

// ConfigureSync starts both chips in phase-coherent lockstep.
//
// Per-chip sequencing cannot do this: the second chip's RESET-clear
// would lag the first's by one bus transaction. Instead the pair is
// reset with a single broadcast word, programmed chip by chip while
// both NCOs are halted, and released with a single broadcast start
// word, so both begin accumulating phase on the same MCLK edge.
//
// The broadcast start word cannot encode FSELECT/PSELECT nor two
// waveforms, so both channels must use register 0 and the same
// waveform.
func (dev *Device) ConfigureSync(cfg Config) error {
	if cfg.CS1.Wave != cfg.CS2.Wave {
		return fmt.Errorf("ad9833: %v vs %v: %w",
			cfg.CS1.Wave, cfg.CS2.Wave, ErrWaveformMismatch,
		)
	}
	bits, err := waveBits(cfg.CS1.Wave)
	if err != nil {
		return err
	}
	for _, reg := range []int{cfg.CS1.FreqReg, cfg.CS1.PhaseReg, cfg.CS2.FreqReg, cfg.CS2.PhaseReg} {
		if reg != 0 {
			return fmt.Errorf("ad9833: synchronized start requires register 0: %w", ErrRegIndex)
		}
	}

	// both chips into the identical known state in one bus cycle.
	dev.reg[0] = CmdCtrlReg | CtrlB28 | CtrlReset
	dev.reg[1] = CmdCtrlReg | CtrlB28 | CtrlReset
	err = dev.transmit(CSBoth, dev.reg[0])
	if err != nil {
		return fmt.Errorf("ad9833: could not broadcast reset: %w", err)
	}

	for _, tgt := range []struct {
		cs ChipSelect
		ch ChannelConfig
	}{
		{CS1, cfg.CS1},
		{CS2, cfg.CS2},
	} {
		err = dev.SelectFreqReg(tgt.cs, tgt.ch.FreqReg)
		if err != nil {
			return fmt.Errorf("ad9833: could not program %v: %w", tgt.cs, err)
		}
		err = dev.SetFrequency(tgt.cs, tgt.ch.FreqReg, tgt.ch.Freq)
		if err != nil {
			return fmt.Errorf("ad9833: could not program %v: %w", tgt.cs, err)
		}
		err = dev.SelectPhaseReg(tgt.cs, tgt.ch.PhaseReg)
		if err != nil {
			return fmt.Errorf("ad9833: could not program %v: %w", tgt.cs, err)
		}
		err = dev.SetPhase(tgt.cs, tgt.ch.PhaseReg, tgt.ch.Phase)
		if err != nil {
			return fmt.Errorf("ad9833: could not program %v: %w", tgt.cs, err)
		}
	}

	// both chips leave RESET in the same bus transaction.
	start := CmdCtrlReg | CtrlB28 | bits
	err = dev.transmit(CSBoth, start)
	if err != nil {
		return fmt.Errorf("ad9833: could not broadcast start: %w", err)
	}
	dev.reg[0] = start
	dev.reg[1] = start
	return nil
}

func waveBits(wave Waveform) (uint16, error) {
	switch wave {
	case Sine:
		return 0, nil
	case Triangle:
		return CtrlMode, nil
	case Square:
		return CtrlOpBitEn | CtrlDiv2, nil
	}
	return 0, fmt.Errorf("ad9833: waveform %d: %w", wave, ErrWaveform)
}
