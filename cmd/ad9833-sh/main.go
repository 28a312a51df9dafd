// Copyright 2025 The Driver-of-double-AD9833 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ad9833-sh provides an interactive shell to poke a dual
// AD9833 generator pair.
package main // import "github.com/coverMoon/Driver-of-double-AD9833/cmd/ad9833-sh"

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	driver "github.com/coverMoon/Driver-of-double-AD9833"
	"github.com/coverMoon/Driver-of-double-AD9833/ad9833"
	"github.com/coverMoon/Driver-of-double-AD9833/spi"
	"github.com/peterh/liner"
)

func main() {
	log.SetPrefix("ad9833-sh: ")
	log.SetFlags(0)

	var (
		bus  = flag.String("bus", "gpio:", "bus spec of the serial link (gpio:[dev] or i2c:bus:addr)")
		mclk = flag.Float64("mclk", ad9833.DefaultMCLK, "master clock of the generator pair (Hz)")
		rad  = flag.Bool("rad", false, "interpret phase arguments as radians")
	)
	flag.Parse()

	err := xmain(*bus, *mclk, *rad)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func xmain(spec string, mclk float64, rad bool) error {
	if version, sum := driver.Version(); version != "" {
		log.Printf("version=%s sum=%s", version, sum)
	}

	bus, err := spi.Open(spec)
	if err != nil {
		return fmt.Errorf("could not open bus %q: %w", spec, err)
	}
	defer bus.Close()

	unit := ad9833.Degrees
	if rad {
		unit = ad9833.Radians
	}
	dev, err := ad9833.New(bus, ad9833.WithMCLK(mclk), ad9833.WithAngleUnit(unit))
	if err != nil {
		return fmt.Errorf("could not create device: %w", err)
	}

	sh := newShell(dev)
	return sh.run()
}

type shell struct {
	dev  *ad9833.Device
	term *liner.State
	hist string
}

func newShell(dev *ad9833.Device) *shell {
	sh := &shell{
		dev:  dev,
		term: liner.NewLiner(),
		hist: filepath.Join(os.TempDir(), ".ad9833_history"),
	}
	sh.term.SetCtrlCAborts(true)

	if f, err := os.Open(sh.hist); err == nil {
		_, _ = sh.term.ReadHistory(f)
		f.Close()
	}
	return sh
}

func (sh *shell) close() {
	if f, err := os.Create(sh.hist); err == nil {
		_, _ = sh.term.WriteHistory(f)
		f.Close()
	}
	sh.term.Close()
}

func (sh *shell) run() error {
	defer sh.close()

	for {
		line, err := sh.term.Prompt("ad9833> ")
		switch {
		case err == io.EOF || err == liner.ErrPromptAborted:
			fmt.Println()
			return nil
		case err != nil:
			return fmt.Errorf("could not read line: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sh.term.AppendHistory(line)

		if line == "quit" || line == "exit" {
			return nil
		}
		if err := sh.exec(strings.Fields(line)); err != nil {
			log.Printf("%+v", err)
		}
	}
}

func (sh *shell) exec(args []string) error {
	switch cmd := args[0]; cmd {
	case "help":
		fmt.Print(usage)
		return nil
	case "init":
		return sh.cmdInit(args[1:])
	case "wave":
		return sh.cmdWave(args[1:])
	case "freq":
		return sh.cmdFreq(args[1:])
	case "phase":
		return sh.cmdPhase(args[1:])
	case "fsel":
		return sh.cmdSelect(args[1:], sh.dev.SelectFreqReg)
	case "psel":
		return sh.cmdSelect(args[1:], sh.dev.SelectPhaseReg)
	case "reset":
		return sh.cmdReset(args[1:])
	case "sleep":
		return sh.cmdSleep(args[1:])
	case "raw":
		return sh.cmdRaw(args[1:])
	case "sync":
		return sh.cmdSync(args[1:])
	default:
		return fmt.Errorf("unknown command %q (try \"help\")", cmd)
	}
}

const usage = `commands:
  init cs1|cs2|dual           reset the pair, power down the idle chip
  wave CS sine|triangle|square  select the shape and start the output
  freq CS REG HZ              program a frequency register
  phase CS REG ANGLE          program a phase register
  fsel CS REG                 select the active frequency register
  psel CS REG                 select the active phase register
  reset CS on|off             assert or release reset
  sleep CS S1 S12             gate the clock (S1) or the DAC (S12), on|off
  raw CS WORD                 send a raw 16-bit word (hex ok)
  sync WAVE HZ1 PH1 HZ2 PH2   phase-coherent start of both chips
  quit                        leave the shell
CS is 1, 2 or both.
`

func (sh *shell) cmdInit(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: init cs1|cs2|dual")
	}
	var status ad9833.WorkStatus
	switch args[0] {
	case "cs1":
		status = ad9833.CS1Single
	case "cs2":
		status = ad9833.CS2Single
	case "dual":
		status = ad9833.DualOutput
	default:
		return fmt.Errorf("unknown work status %q", args[0])
	}
	return sh.dev.Init(status)
}

func (sh *shell) cmdWave(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: wave CS sine|triangle|square")
	}
	cs, err := parseCS(args[0])
	if err != nil {
		return err
	}
	wave, err := parseWave(args[1])
	if err != nil {
		return err
	}
	return sh.dev.SetWaveformAndStart(cs, wave)
}

func (sh *shell) cmdFreq(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: freq CS REG HZ")
	}
	cs, err := parseCS(args[0])
	if err != nil {
		return err
	}
	reg, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid register index %q: %w", args[1], err)
	}
	hz, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid frequency %q: %w", args[2], err)
	}
	return sh.dev.SetFrequency(cs, reg, hz)
}

func (sh *shell) cmdPhase(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: phase CS REG ANGLE")
	}
	cs, err := parseCS(args[0])
	if err != nil {
		return err
	}
	reg, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid register index %q: %w", args[1], err)
	}
	angle, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid angle %q: %w", args[2], err)
	}
	return sh.dev.SetPhase(cs, reg, angle)
}

func (sh *shell) cmdSelect(args []string, fct func(ad9833.ChipSelect, int) error) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: fsel|psel CS REG")
	}
	cs, err := parseCS(args[0])
	if err != nil {
		return err
	}
	reg, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid register index %q: %w", args[1], err)
	}
	return fct(cs, reg)
}

func (sh *shell) cmdReset(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: reset CS on|off")
	}
	cs, err := parseCS(args[0])
	if err != nil {
		return err
	}
	on, err := parseBool(args[1])
	if err != nil {
		return err
	}
	return sh.dev.Reset(cs, on)
}

func (sh *shell) cmdSleep(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: sleep CS S1 S12")
	}
	cs, err := parseCS(args[0])
	if err != nil {
		return err
	}
	s1, err := parseBool(args[1])
	if err != nil {
		return err
	}
	s12, err := parseBool(args[2])
	if err != nil {
		return err
	}
	return sh.dev.Sleep(cs, s1, s12)
}

func (sh *shell) cmdRaw(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: raw CS WORD")
	}
	cs, err := parseCS(args[0])
	if err != nil {
		return err
	}
	word, err := strconv.ParseUint(args[1], 0, 16)
	if err != nil {
		return fmt.Errorf("invalid word %q: %w", args[1], err)
	}
	return sh.dev.WriteRaw(cs, uint16(word))
}

func (sh *shell) cmdSync(args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("usage: sync WAVE HZ1 PH1 HZ2 PH2")
	}
	wave, err := parseWave(args[0])
	if err != nil {
		return err
	}
	var vs [4]float64
	for i, arg := range args[1:] {
		vs[i], err = strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", arg, err)
		}
	}
	return sh.dev.ConfigureSync(ad9833.Config{
		Status: ad9833.DualOutput,
		CS1:    ad9833.ChannelConfig{Wave: wave, Freq: vs[0], Phase: vs[1]},
		CS2:    ad9833.ChannelConfig{Wave: wave, Freq: vs[2], Phase: vs[3]},
	})
}

func parseCS(arg string) (ad9833.ChipSelect, error) {
	switch arg {
	case "1", "cs1":
		return ad9833.CS1, nil
	case "2", "cs2":
		return ad9833.CS2, nil
	case "both", "all":
		return ad9833.CSBoth, nil
	}
	return 0, fmt.Errorf("unknown chip select %q", arg)
}

func parseWave(arg string) (ad9833.Waveform, error) {
	switch arg {
	case "sine", "sin":
		return ad9833.Sine, nil
	case "triangle", "tri":
		return ad9833.Triangle, nil
	case "square", "sqr":
		return ad9833.Square, nil
	}
	return 0, fmt.Errorf("unknown waveform %q", arg)
}

func parseBool(arg string) (bool, error) {
	switch arg {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch %q (want on|off)", arg)
}
