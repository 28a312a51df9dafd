// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spi

import (
	"fmt"
	"testing"

	"github.com/coverMoon/Driver-of-double-AD9833/ad9833"
)

type regWrite struct {
	reg uint8
	v   uint8
}

type fakeI2C struct {
	log    []regWrite
	closed bool
	err    error
}

func (c *fakeI2C) WriteReg(addr, reg, v uint8) error {
	if c.err != nil {
		return c.err
	}
	if addr != 0x20 {
		return fmt.Errorf("invalid i2c address 0x%02x", addr)
	}
	c.log = append(c.log, regWrite{reg, v})
	return nil
}

func (c *fakeI2C) Close() error {
	c.closed = true
	return nil
}

// replayOLat decodes the output-latch writes the way the chip does:
// while frame-sync is low, the data line is sampled on every falling
// clock edge.
func replayOLat(log []regWrite, pins Pins, idle uint8) []xfer {
	var (
		out    []xfer
		cur    xfer
		lev    = idle
		csMask = uint8(1<<pins.CS1 | 1<<pins.CS2)
	)
	for _, w := range log {
		if w.reg != mcpOLatA {
			continue
		}
		fell := lev &^ w.v
		rose := w.v &^ lev
		switch {
		case fell&csMask != 0:
			cur = xfer{cs: uint32(fell & csMask)}
		case fell&(1<<pins.Clock) != 0 && cur.cs != 0:
			bit := uint16(lev>>pins.Data) & 1
			cur.word = cur.word<<1 | bit
			cur.bits++
		case rose&csMask != 0 && cur.cs != 0:
			out = append(out, cur)
			cur = xfer{}
		}
		lev = w.v
	}
	return out
}

func newTestExpander(t *testing.T) (*Expander, *fakeI2C) {
	t.Helper()
	conn := new(fakeI2C)
	dev, err := newExpander(conn, 0x20, ExpanderPins)
	if err != nil {
		t.Fatalf("could not create expander: %+v", err)
	}
	conn.log = conn.log[:0]
	return dev, conn
}

func TestExpanderInit(t *testing.T) {
	conn := new(fakeI2C)
	_, err := newExpander(conn, 0x20, ExpanderPins)
	if err != nil {
		t.Fatalf("could not create expander: %+v", err)
	}

	want := []regWrite{
		{mcpIODirA, 0x00},                          // port A all outputs
		{mcpOLatA, 1<<1 | 1<<2 | 1<<3},             // clock and frame-sync idle high
	}
	if got := conn.log; len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("invalid init sequence:\ngot= %v\nwant=%v", got, want)
	}
}

func TestExpanderInitBadPin(t *testing.T) {
	_, err := newExpander(new(fakeI2C), 0x20, Pins{Data: 8, Clock: 1, CS1: 2, CS2: 3})
	if err == nil {
		t.Fatalf("expected an error for an out-of-range pin")
	}
}

func TestExpanderTransmit(t *testing.T) {
	for _, tc := range []struct {
		cs   ad9833.ChipSelect
		mask uint32
	}{
		{cs: ad9833.CS1, mask: 1 << 2},
		{cs: ad9833.CS2, mask: 1 << 3},
		{cs: ad9833.CSBoth, mask: 1<<2 | 1<<3},
	} {
		t.Run(tc.cs.String(), func(t *testing.T) {
			dev, conn := newTestExpander(t)
			const word = 0x4A3F
			if err := dev.Transmit(tc.cs, word); err != nil {
				t.Fatalf("could not transmit: %+v", err)
			}

			idle := uint8(1<<1 | 1<<2 | 1<<3)
			got := replayOLat(conn.log, ExpanderPins, idle)
			want := []xfer{{cs: tc.mask, word: word, bits: 16}}
			if len(got) != 1 || got[0] != want[0] {
				t.Fatalf("invalid transfer:\ngot= %+v\nwant=%+v", got, want)
			}

			// bus back to idle.
			if dev.olat != idle {
				t.Errorf("idle latch: got 0x%02x, want 0x%02x", dev.olat, idle)
			}
		})
	}
}

func TestExpanderTransmitError(t *testing.T) {
	dev, conn := newTestExpander(t)
	conn.err = fmt.Errorf("bus stuck")
	if err := dev.Transmit(ad9833.CS1, 0x2100); err == nil {
		t.Fatalf("expected a bus error")
	}
}

func TestExpanderClose(t *testing.T) {
	dev, conn := newTestExpander(t)
	if err := dev.Close(); err != nil {
		t.Fatalf("could not close expander: %+v", err)
	}
	if !conn.closed {
		t.Fatalf("connection not closed")
	}
}
