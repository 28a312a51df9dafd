// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spi

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/coverMoon/Driver-of-double-AD9833/ad9833"
	"github.com/coverMoon/Driver-of-double-AD9833/internal/mmap"
	"golang.org/x/sys/unix"
)

// BCM2835 GPIO register bank, offsets from the base of /dev/gpiomem.
const (
	gpfsel0 = 0x00 // pin function select, 3 bits per pin, 10 pins per register
	gpset0  = 0x1c // write 1<<pin to drive the pin high
	gpclr0  = 0x28 // write 1<<pin to drive the pin low

	gpioSpan = 0xb4

	fselOutput = 0b001
)

type regBank interface {
	io.ReaderAt
	io.WriterAt
}

// GPIO bit-bangs the 3-wire link on memory-mapped BCM2835 pins.
//
// The AD9833 latches data on falling clock edges while frame-sync is
// low, so the clock idles high and frame-sync idles high.
type GPIO struct {
	f    *os.File
	regs regBank
	pins Pins

	buf [4]byte
	err error
}

// OpenGPIO maps the GPIO register bank from fname and claims the four
// pins as outputs, with clock and both frame-sync lines idle high.
func OpenGPIO(fname string, pins Pins) (*GPIO, error) {
	f, err := os.OpenFile(fname, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("spi: could not open %q: %w", fname, err)
	}

	data, err := unix.Mmap(
		int(f.Fd()),
		0, gpioSpan,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("spi: could not mmap %q: %w", fname, err)
	}
	if data == nil || len(data) != gpioSpan {
		f.Close()
		return nil, fmt.Errorf("spi: invalid mmap'd data: %d", len(data))
	}

	dev := newGPIO(mmap.HandleFrom(data), pins)
	dev.f = f
	if err := dev.init(); err != nil {
		dev.Close()
		return nil, err
	}
	return dev, nil
}

func newGPIO(regs regBank, pins Pins) *GPIO {
	return &GPIO{regs: regs, pins: pins}
}

func (dev *GPIO) init() error {
	for _, pin := range []uint8{dev.pins.Data, dev.pins.Clock, dev.pins.CS1, dev.pins.CS2} {
		if pin > 31 {
			return fmt.Errorf("spi: invalid BCM pin %d", pin)
		}
		dev.fselOutput(pin)
	}
	dev.set(1<<dev.pins.Clock | 1<<dev.pins.CS1 | 1<<dev.pins.CS2)
	dev.clr(1 << dev.pins.Data)
	if dev.err != nil {
		return fmt.Errorf("spi: could not init GPIO pins: %w", dev.err)
	}
	return nil
}

// Transmit clocks word out MSB first, framed by the chip-select
// line(s) of cs.
func (dev *GPIO) Transmit(cs ad9833.ChipSelect, word uint16) error {
	if dev.err != nil {
		return dev.err
	}

	fsync, err := dev.fsyncMask(cs)
	if err != nil {
		return err
	}

	dev.clr(fsync)
	for i := 15; i >= 0; i-- {
		if word&(1<<i) != 0 {
			dev.set(1 << dev.pins.Data)
		} else {
			dev.clr(1 << dev.pins.Data)
		}
		dev.clr(1 << dev.pins.Clock) // falling edge latches the bit
		dev.set(1 << dev.pins.Clock)
	}
	dev.clr(1 << dev.pins.Data)
	dev.set(fsync)

	if dev.err != nil {
		return fmt.Errorf("spi: could not transmit 0x%04x: %w", word, dev.err)
	}
	return nil
}

func (dev *GPIO) fsyncMask(cs ad9833.ChipSelect) (uint32, error) {
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

func (dev *GPIO) Close() error {
	var err error
	if c, ok := dev.regs.(io.Closer); ok {
		err = c.Close()
	}
	if dev.f != nil {
		if e := dev.f.Close(); err == nil {
			err = e
		}
	}
	return err
}

func (dev *GPIO) fselOutput(pin uint8) {
	off := int64(gpfsel0 + 4*(pin/10))
	shift := 3 * (pin % 10)
	v := dev.readU32(off)
	v &^= 0b111 << shift
	v |= fselOutput << shift
	dev.writeU32(off, v)
}

func (dev *GPIO) set(mask uint32) { dev.writeU32(gpset0, mask) }
func (dev *GPIO) clr(mask uint32) { dev.writeU32(gpclr0, mask) }

func (dev *GPIO) readU32(off int64) uint32 {
	if dev.err != nil {
		return 0
	}
	_, dev.err = dev.regs.ReadAt(dev.buf[:4], off)
	if dev.err != nil {
		dev.err = fmt.Errorf("spi: could not read register 0x%x: %w", off, dev.err)
		return 0
	}
	return binary.LittleEndian.Uint32(dev.buf[:4])
}

func (dev *GPIO) writeU32(off int64, v uint32) {
	if dev.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(dev.buf[:4], v)
	_, dev.err = dev.regs.WriteAt(dev.buf[:4], off)
	if dev.err != nil {
		dev.err = fmt.Errorf("spi: could not write register 0x%x: %w", off, dev.err)
	}
}

var (
	_ Bus = (*GPIO)(nil)
)
