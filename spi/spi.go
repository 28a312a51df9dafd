// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spi clocks AD9833 bus words out over a software-driven
// 3-wire serial link: shared data and clock lines plus one frame-sync
// (chip-select) line per chip. Driving both frame-sync lines low for
// the same transmission broadcasts a word to the pair.
//
// Two transports are provided: direct GPIO pins memory-mapped from
// /dev/gpiomem on a Raspberry Pi, and an MCP23017 port expander on an
// I2C bus for hosts whose header pins are spoken for.
package spi // import "github.com/coverMoon/Driver-of-double-AD9833/spi"

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coverMoon/Driver-of-double-AD9833/ad9833"
)

// Bus is a serial link the driver transmits through.
type Bus interface {
	Transmit(cs ad9833.ChipSelect, word uint16) error
	io.Closer
}

// Pins names the lines of the 3-wire link. On the GPIO transport
// these are BCM pin numbers; on the expander they are port-A bit
// positions (0-7).
type Pins struct {
	Data  uint8
	Clock uint8
	CS1   uint8
	CS2   uint8
}

// DefaultPins routes the link over the Raspberry Pi SPI0 header pins:
// MOSI, SCLK and the two chip-enables.
var DefaultPins = Pins{
	Data:  10,
	Clock: 11,
	CS1:   8,
	CS2:   7,
}

// Open opens a bus described by spec:
//
//	gpio:            GPIO transport on /dev/gpiomem, default pins
//	gpio:/dev/mem    GPIO transport on the given device file
//	i2c:1:0x20       MCP23017 expander at 0x20 on I2C bus 1
func Open(spec string) (Bus, error) {
	switch {
	case spec == "gpio", strings.HasPrefix(spec, "gpio:"):
		fname := strings.TrimPrefix(strings.TrimPrefix(spec, "gpio"), ":")
		if fname == "" {
			fname = "/dev/gpiomem"
		}
		return OpenGPIO(fname, DefaultPins)

	case strings.HasPrefix(spec, "i2c:"):
		args := strings.Split(strings.TrimPrefix(spec, "i2c:"), ":")
		if len(args) != 2 {
			return nil, fmt.Errorf("spi: invalid i2c bus spec %q", spec)
		}
		bus, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("spi: invalid i2c bus id %q: %w", args[0], err)
		}
		addr, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return nil, fmt.Errorf("spi: invalid i2c address %q: %w", args[1], err)
		}
		return OpenExpander(bus, uint8(addr), ExpanderPins)
	}
	return nil, fmt.Errorf("spi: unknown bus spec %q", spec)
}
