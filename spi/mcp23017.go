// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spi

import (
	"fmt"

	"github.com/coverMoon/Driver-of-double-AD9833/ad9833"
	"github.com/go-daq/smbus"
)

// MCP23017 port-A registers (IOCON.BANK=0 layout).
const (
	mcpIODirA = 0x00 // direction, 1=input
	mcpGPIOA  = 0x12
	mcpOLatA  = 0x14 // output latch
)

// ExpanderPins routes the link over the low nibble of the MCP23017
// port A.
var ExpanderPins = Pins{
	Data:  0,
	Clock: 1,
	CS1:   2,
	CS2:   3,
}

type i2cBus interface {
	WriteReg(addr, reg, v uint8) error
	Close() error
}

// Expander bit-bangs the 3-wire link on port A of an MCP23017 I2C
// port expander. Each pin transition costs one I2C register write, so
// this transport is slow; it trades speed for leaving the host's own
// header pins free.
type Expander struct {
	conn i2cBus
	addr uint8
	pins Pins

	olat uint8 // shadow of the output latch
}

// OpenExpander connects to the expander at addr on the given I2C bus
// and claims port A as outputs, clock and frame-sync lines idle high.
func OpenExpander(bus int, addr uint8, pins Pins) (*Expander, error) {
	conn, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("spi: could not open i2c bus %d: %w", bus, err)
	}
	dev, err := newExpander(conn, addr, pins)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return dev, nil
}

func newExpander(conn i2cBus, addr uint8, pins Pins) (*Expander, error) {
	for _, pin := range []uint8{pins.Data, pins.Clock, pins.CS1, pins.CS2} {
		if pin > 7 {
			return nil, fmt.Errorf("spi: invalid port-A pin %d", pin)
		}
	}

	dev := &Expander{
		conn: conn,
		addr: addr,
		pins: pins,
		olat: 1<<pins.Clock | 1<<pins.CS1 | 1<<pins.CS2,
	}

	err := dev.conn.WriteReg(dev.addr, mcpIODirA, 0x00)
	if err != nil {
		return nil, fmt.Errorf("spi: could not configure expander port: %w", err)
	}
	err = dev.conn.WriteReg(dev.addr, mcpOLatA, dev.olat)
	if err != nil {
		return nil, fmt.Errorf("spi: could not idle expander port: %w", err)
	}
	return dev, nil
}

// Transmit clocks word out MSB first, framed by the chip-select
// line(s) of cs.
func (dev *Expander) Transmit(cs ad9833.ChipSelect, word uint16) error {
	fsync, err := dev.fsyncMask(cs)
	if err != nil {
		return err
	}

	if err := dev.clr(fsync); err != nil {
		return fmt.Errorf("spi: could not transmit 0x%04x: %w", word, err)
	}
	for i := 15; i >= 0; i-- {
		data := uint8(0)
		if word&(1<<i) != 0 {
			data = 1 << dev.pins.Data
		}
		olat := dev.olat&^(1<<dev.pins.Data) | data
		for _, step := range []uint8{
			olat,                           // present the bit
			olat &^ (1 << dev.pins.Clock),  // falling edge latches it
			olat,                           // clock back high
		} {
			if err := dev.write(step); err != nil {
				return fmt.Errorf("spi: could not transmit 0x%04x: %w", word, err)
			}
		}
	}
	if err := dev.clr(1 << dev.pins.Data); err != nil {
		return fmt.Errorf("spi: could not transmit 0x%04x: %w", word, err)
	}
	if err := dev.set(fsync); err != nil {
		return fmt.Errorf("spi: could not transmit 0x%04x: %w", word, err)
	}
	return nil
}

func (dev *Expander) fsyncMask(cs ad9833.ChipSelect) (uint8, error) {
	switch cs {
	case ad9833.CS1:
		return 1 << dev.pins.CS1, nil
	case ad9833.CS2:
		return 1 << dev.pins.CS2, nil
	case ad9833.CSBoth:
		return 1<<dev.pins.CS1 | 1<<dev.pins.CS2, nil
	}
	return 0, fmt.Errorf("spi: invalid chip select %v", cs)
}

func (dev *Expander) set(mask uint8) error { return dev.write(dev.olat | mask) }
func (dev *Expander) clr(mask uint8) error { return dev.write(dev.olat &^ mask) }

func (dev *Expander) write(olat uint8) error {
	if olat == dev.olat {
		return nil
	}
	err := dev.conn.WriteReg(dev.addr, mcpOLatA, olat)
	if err != nil {
		return fmt.Errorf("spi: could not write output latch: %w", err)
	}
	dev.olat = olat
	return nil
}

func (dev *Expander) Close() error {
	return dev.conn.Close()
}

var (
	_ Bus = (*Expander)(nil)
)
